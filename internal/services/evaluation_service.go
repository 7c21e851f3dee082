// Package services binds the evaluation pipeline to its transports.
package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/clearpathlegal/verdict-engine/internal/api"
	"github.com/clearpathlegal/verdict-engine/internal/engine"
	verdictv1 "github.com/clearpathlegal/verdict-engine/internal/grpc/verdictv1"
	"github.com/clearpathlegal/verdict-engine/internal/metrics"
	"github.com/clearpathlegal/verdict-engine/internal/models"
	"github.com/clearpathlegal/verdict-engine/internal/normalize"
	"github.com/clearpathlegal/verdict-engine/internal/policy"
	"github.com/clearpathlegal/verdict-engine/internal/utils"
)

const (
	tracerName       = "github.com/clearpathlegal/verdict-engine/internal/services"
	requestIDMDKey   = "x-request-id"
	latencyLogPeriod = 100
)

// PolicyCatalog lists and resolves jurisdiction policies.
type PolicyCatalog interface {
	Get(ctx context.Context, code string) (*policy.JurisdictionPolicy, error)
	Supported(ctx context.Context, domain models.Domain) []string
}

// EvaluationService implements the gRPC VerdictEngine service and backs the
// HTTP gateway.
type EvaluationService struct {
	verdictv1.UnimplementedVerdictEngineServer

	logger    *slog.Logger
	pipeline  *engine.Pipeline
	catalog   PolicyCatalog
	latencies *utils.LatencyTracker
	tracer    trace.Tracer
}

// NewEvaluationService constructs the evaluation service facade.
func NewEvaluationService(logger *slog.Logger, pipeline *engine.Pipeline, catalog PolicyCatalog) *EvaluationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &EvaluationService{
		logger:    logger,
		pipeline:  pipeline,
		catalog:   catalog,
		latencies: utils.NewLatencyTracker(1024),
		tracer:    otel.Tracer(tracerName),
	}
}

// EvaluateSituation normalizes and evaluates one raw situation record.
func (s *EvaluationService) EvaluateSituation(ctx context.Context, raw map[string]any) (models.Verdict, error) {
	if s.pipeline == nil {
		return models.Verdict{}, utils.NewAppError(ctx, "evaluate", "pipeline not configured", nil)
	}
	ctx, requestID := utils.EnsureRequestID(ctx)
	in := normalize.Normalize(raw)

	ctx, span := s.tracer.Start(ctx, "verdict.Evaluate", trace.WithAttributes(
		attribute.String("verdict.request_id", requestID),
		attribute.String("verdict.domain", string(in.Domain)),
		attribute.String("verdict.jurisdiction", in.Jurisdiction),
	))
	defer span.End()

	start := time.Now()
	verdict, err := s.pipeline.EvaluateInput(ctx, in)
	duration := time.Since(start)

	if err != nil {
		outcome := outcomeFor(err)
		metrics.ObserveEvaluation(string(in.Domain), duration, outcome)
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, outcome)

		attrs := []any{
			slog.String("request_id", requestID),
			slog.String("domain", string(in.Domain)),
			slog.String("jurisdiction", in.Jurisdiction),
			slog.Any("error", err),
		}
		if outcome == metrics.OutcomeRejected {
			s.logger.InfoContext(ctx, "evaluation rejected", attrs...)
			return models.Verdict{}, utils.NewAppError(ctx, "evaluate", "request rejected", err)
		}
		s.logger.ErrorContext(ctx, "evaluation failed", attrs...)
		return models.Verdict{}, utils.NewAppError(ctx, "evaluate", "evaluation failed", err)
	}

	metrics.ObserveEvaluation(string(in.Domain), duration, metrics.OutcomeSuccess)
	metrics.ObserveVerdict(string(verdict.Domain), verdict.Jurisdiction, string(verdict.Status))
	span.SetAttributes(
		attribute.String("verdict.category", verdict.Category),
		attribute.String("verdict.status", string(verdict.Status)),
	)

	s.latencies.Observe(duration)
	if count := s.latencies.Count(); count >= latencyLogPeriod && count%latencyLogPeriod == 0 {
		s.logger.Info("evaluation latency",
			slog.Duration("p95", s.latencies.Percentile(95)),
			slog.Int("samples", count))
	}

	s.logger.DebugContext(ctx, "evaluation completed",
		slog.String("request_id", requestID),
		slog.String("jurisdiction", verdict.Jurisdiction),
		slog.String("category", verdict.Category),
		slog.String("status", string(verdict.Status)),
		slog.Int("warnings", len(verdict.Warnings)))
	return verdict, nil
}

// Jurisdictions lists every registered jurisdiction and the domains it covers.
func (s *EvaluationService) Jurisdictions(ctx context.Context) ([]models.JurisdictionSummary, error) {
	if s.catalog == nil {
		return nil, utils.NewAppError(ctx, "jurisdictions", "policy catalog not configured", nil)
	}
	codes := s.catalog.Supported(ctx, "")
	list := make([]models.JurisdictionSummary, 0, len(codes))
	for _, code := range codes {
		pol, err := s.catalog.Get(ctx, code)
		if err != nil {
			s.logger.WarnContext(ctx, "jurisdiction skipped", slog.String("code", code), slog.Any("error", err))
			continue
		}
		summary := models.JurisdictionSummary{Code: pol.Code, Name: pol.Name, Domains: []models.Domain{}}
		for _, domain := range []models.Domain{models.DomainCriminalRelief, models.DomainEvictionDefense} {
			if pol.Supports(domain) {
				summary.Domains = append(summary.Domains, domain)
			}
		}
		list = append(list, summary)
	}
	return list, nil
}

// Evaluate implements the gRPC Evaluate method.
func (s *EvaluationService) Evaluate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	raw, err := api.FromProtoSituation(req)
	if err != nil {
		return nil, api.GRPCStatus(errors.Join(api.ErrInvalidRequest, err))
	}

	ctx, requestID := utils.EnsureRequestID(withIncomingRequestID(ctx))
	_ = grpc.SetHeader(ctx, metadata.Pairs(requestIDMDKey, requestID))

	verdict, err := s.EvaluateSituation(ctx, raw)
	if err != nil {
		return nil, api.GRPCStatus(err)
	}
	out, err := api.ToProtoVerdict(verdict)
	if err != nil {
		s.logger.ErrorContext(ctx, "verdict encoding failed", slog.String("request_id", requestID), slog.Any("error", err))
		return nil, api.GRPCStatus(err)
	}
	return out, nil
}

// ListJurisdictions implements the gRPC ListJurisdictions method.
func (s *EvaluationService) ListJurisdictions(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	list, err := s.Jurisdictions(ctx)
	if err != nil {
		return nil, api.GRPCStatus(err)
	}
	out, err := api.ToProtoJurisdictions(list)
	if err != nil {
		return nil, api.GRPCStatus(err)
	}
	return out, nil
}

// LatencyP95 returns the current p95 evaluation latency.
func (s *EvaluationService) LatencyP95() time.Duration {
	if s.latencies == nil {
		return 0
	}
	return s.latencies.Percentile(95)
}

func outcomeFor(err error) string {
	switch {
	case errors.Is(err, policy.ErrUnsupportedJurisdiction):
		return metrics.OutcomeRejected
	default:
		return metrics.OutcomeError
	}
}

func withIncomingRequestID(ctx context.Context) context.Context {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ctx
	}
	if ids := md.Get(requestIDMDKey); len(ids) > 0 && ids[0] != "" {
		return utils.WithRequestID(ctx, ids[0])
	}
	return ctx
}
