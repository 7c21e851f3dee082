package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/clearpathlegal/verdict-engine/internal/models"
	"github.com/clearpathlegal/verdict-engine/internal/utils"
)

const (
	maxBodyBytes    = 1 << 20
	requestIDHeader = "X-Request-ID"
)

// Evaluator is the service behaviour the HTTP gateway exposes.
type Evaluator interface {
	EvaluateSituation(ctx context.Context, raw map[string]any) (models.Verdict, error)
	Jurisdictions(ctx context.Context) ([]models.JurisdictionSummary, error)
}

// Gateway serves the JSON API alongside health and metrics endpoints.
type Gateway struct {
	evaluator Evaluator
	gatherer  prometheus.Gatherer
	logger    *slog.Logger
	ready     atomic.Bool
}

// NewGateway constructs the HTTP gateway. A nil gatherer serves the default
// Prometheus registry.
func NewGateway(evaluator Evaluator, gatherer prometheus.Gatherer, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &Gateway{evaluator: evaluator, gatherer: gatherer, logger: logger}
}

// SetReady controls whether /healthz reports ready.
func (g *Gateway) SetReady(ready bool) {
	g.ready.Store(ready)
}

// Routes builds the router.
func (g *Gateway) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestID)

	r.Get("/healthz", g.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(g.gatherer, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Post("/evaluate", g.handleEvaluate)
		r.Get("/jurisdictions", g.handleJurisdictions)
	})
	return r
}

func (g *Gateway) handleHealth(w http.ResponseWriter, _ *http.Request) {
	if !g.ready.Load() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "starting"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (g *Gateway) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	raw, err := decodeSituation(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		g.writeError(w, r, err)
		return
	}

	verdict, err := g.evaluator.EvaluateSituation(ctx, raw)
	if err != nil {
		g.writeError(w, r, err)
		return
	}

	g.logger.DebugContext(ctx, "http evaluation served",
		slog.String("request_id", utils.RequestID(ctx)),
		slog.String("status", string(verdict.Status)),
		slog.Duration("duration", time.Since(start)))
	writeJSON(w, http.StatusOK, verdict)
}

func (g *Gateway) handleJurisdictions(w http.ResponseWriter, r *http.Request) {
	list, err := g.evaluator.Jurisdictions(r.Context())
	if err != nil {
		g.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []models.JurisdictionSummary{}
	}
	writeJSON(w, http.StatusOK, JurisdictionsResponse{Jurisdictions: list})
}

func (g *Gateway) writeError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := utils.RequestID(r.Context())
	status, body := errorBody(err, requestID)
	if status >= http.StatusInternalServerError {
		g.logger.ErrorContext(r.Context(), "http request failed",
			slog.String("request_id", requestID),
			slog.String("path", r.URL.Path),
			slog.Any("error", err))
	}
	writeJSON(w, status, body)
}

func decodeSituation(body io.Reader) (map[string]any, error) {
	dec := json.NewDecoder(body)
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: body must be a JSON object: %v", ErrInvalidRequest, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: body must be a JSON object", ErrInvalidRequest)
	}
	return raw, nil
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = utils.NewRequestID()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(utils.WithRequestID(r.Context(), id)))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
