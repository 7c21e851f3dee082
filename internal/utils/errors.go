package utils

import (
	"context"
	"strings"
)

// AppError is the service-boundary error. Msg is the summary callers may see;
// Err carries the cause, which transports only expose for client errors.
type AppError struct {
	Op        string
	Msg       string
	RequestID string
	Err       error
}

func (e *AppError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	b.WriteString(": ")
	b.WriteString(e.Msg)
	if e.RequestID != "" {
		b.WriteString(" (request ")
		b.WriteString(e.RequestID)
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Detail returns the cause's message, or Msg when there is no cause.
func (e *AppError) Detail() string {
	if e.Err == nil {
		return e.Msg
	}
	return e.Err.Error()
}

// NewAppError builds an AppError tagged with the request id carried by ctx.
func NewAppError(ctx context.Context, op, msg string, err error) error {
	return &AppError{Op: op, Msg: msg, RequestID: RequestID(ctx), Err: err}
}
