package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearpathlegal/verdict-engine/internal/models"
	"github.com/clearpathlegal/verdict-engine/internal/policy"
	"github.com/clearpathlegal/verdict-engine/internal/utils"
)

type stubEvaluator struct {
	verdict models.Verdict
	err     error
	gotRaw  map[string]any
	gotID   string
}

func (s *stubEvaluator) EvaluateSituation(ctx context.Context, raw map[string]any) (models.Verdict, error) {
	s.gotRaw = raw
	s.gotID = utils.RequestID(ctx)
	return s.verdict, s.err
}

func (s *stubEvaluator) Jurisdictions(context.Context) ([]models.JurisdictionSummary, error) {
	return []models.JurisdictionSummary{
		{Code: "TN", Name: "Tennessee", Domains: []models.Domain{models.DomainCriminalRelief}},
	}, nil
}

func newTestGateway(ev Evaluator) http.Handler {
	gw := NewGateway(ev, prometheus.NewRegistry(), nil)
	gw.SetReady(true)
	return gw.Routes()
}

func TestEvaluateEndpoint(t *testing.T) {
	stub := &stubEvaluator{verdict: models.Verdict{Jurisdiction: "TN", Status: models.StatusEligible}}
	handler := newTestGateway(stub)

	req := httptest.NewRequest(http.MethodPost, "/v1/evaluate", strings.NewReader(`{"domain":"criminal","jurisdiction":"TN","priorConvictions":1}`))
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "abc-123", stub.gotID)
	assert.Equal(t, float64(1), stub.gotRaw["priorConvictions"])

	var verdict models.Verdict
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &verdict))
	assert.Equal(t, models.StatusEligible, verdict.Status)
}

func TestEvaluateEndpointErrors(t *testing.T) {
	cases := []struct {
		name      string
		body      string
		err       error
		status    int
		code      string
		supported []string
	}{
		{
			name:   "malformed body",
			body:   `{"domain":`,
			status: http.StatusBadRequest,
			code:   CodeInvalidRequest,
		},
		{
			name:   "array body",
			body:   `[1,2]`,
			status: http.StatusBadRequest,
			code:   CodeInvalidRequest,
		},
		{
			name:      "unsupported jurisdiction",
			body:      `{}`,
			err:       utils.NewAppError(context.Background(), "evaluate", "request rejected", &policy.UnsupportedJurisdictionError{Code: "ZZ", Supported: []string{"CA", "TN"}}),
			status:    http.StatusNotFound,
			code:      CodeUnsupportedJurisdiction,
			supported: []string{"CA", "TN"},
		},
		{
			name:   "integrity defect",
			body:   `{}`,
			err:    &policy.IntegrityError{Jurisdiction: "TN", Category: "ghost", Table: "categories"},
			status: http.StatusInternalServerError,
			code:   CodeInternal,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := newTestGateway(&stubEvaluator{err: tc.err})
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/evaluate", strings.NewReader(tc.body)))

			require.Equal(t, tc.status, rec.Code)
			var body ErrorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tc.code, body.Error)
			assert.Equal(t, tc.supported, body.SupportedJurisdictions)
			assert.NotEmpty(t, body.RequestID)
			if tc.code == CodeInternal {
				assert.NotContains(t, body.Message, "ghost")
			}
		})
	}
}

func TestJurisdictionsEndpoint(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestGateway(&stubEvaluator{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/jurisdictions", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body JurisdictionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Jurisdictions, 1)
	assert.Equal(t, "TN", body.Jurisdictions[0].Code)
}

func TestHealthAndMetrics(t *testing.T) {
	gw := NewGateway(&stubEvaluator{}, prometheus.NewRegistry(), nil)
	handler := gw.Routes()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	gw.SetReady(true)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/evaluate", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestGRPCStatusHidesInternalDetail(t *testing.T) {
	err := GRPCStatus(errors.New("disk exploded"))
	assert.NotContains(t, err.Error(), "disk exploded")
	assert.Nil(t, GRPCStatus(nil))
}
