package api

import (
	"errors"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/clearpathlegal/verdict-engine/internal/policy"
	"github.com/clearpathlegal/verdict-engine/internal/utils"
)

// ErrInvalidRequest marks requests that could not be decoded at all.
var ErrInvalidRequest = errors.New("invalid request")

// Error codes carried in HTTP error bodies.
const (
	CodeUnsupportedJurisdiction = "unsupported_jurisdiction"
	CodeInvalidRequest          = "invalid_request"
	CodeInternal                = "internal"
)

type errorClass struct {
	grpcCode   codes.Code
	httpStatus int
	code       string
	// public is false when the message must not leak to callers.
	public bool
}

func classify(err error) errorClass {
	switch {
	case errors.Is(err, policy.ErrUnsupportedJurisdiction):
		return errorClass{codes.NotFound, http.StatusNotFound, CodeUnsupportedJurisdiction, true}
	case errors.Is(err, ErrInvalidRequest):
		return errorClass{codes.InvalidArgument, http.StatusBadRequest, CodeInvalidRequest, true}
	default:
		return errorClass{codes.Internal, http.StatusInternalServerError, CodeInternal, false}
	}
}

// GRPCStatus translates an evaluation error into a gRPC status error.
func GRPCStatus(err error) error {
	if err == nil {
		return nil
	}
	class := classify(err)
	if !class.public {
		return status.Error(class.grpcCode, "evaluation failed")
	}
	return status.Error(class.grpcCode, publicMessage(err))
}

// publicMessage strips service-layer operation prefixes from errors that are
// safe to show callers.
func publicMessage(err error) string {
	var appErr *utils.AppError
	if errors.As(err, &appErr) {
		return appErr.Detail()
	}
	return err.Error()
}

// ErrorBody is the JSON envelope for HTTP errors.
type ErrorBody struct {
	Error                  string   `json:"error"`
	Message                string   `json:"message"`
	SupportedJurisdictions []string `json:"supportedJurisdictions,omitempty"`
	RequestID              string   `json:"requestId,omitempty"`
}

func errorBody(err error, requestID string) (int, ErrorBody) {
	class := classify(err)
	body := ErrorBody{Error: class.code, Message: "evaluation failed", RequestID: requestID}
	if class.public {
		body.Message = publicMessage(err)
	}
	var unsupported *policy.UnsupportedJurisdictionError
	if errors.As(err, &unsupported) {
		body.SupportedJurisdictions = unsupported.Supported
	}
	return class.httpStatus, body
}
