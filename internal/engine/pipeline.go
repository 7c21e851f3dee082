package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/clearpathlegal/verdict-engine/internal/models"
	"github.com/clearpathlegal/verdict-engine/internal/normalize"
	"github.com/clearpathlegal/verdict-engine/internal/policy"
)

// PolicyProvider resolves jurisdiction policies.
type PolicyProvider interface {
	Get(ctx context.Context, code string) (*policy.JurisdictionPolicy, error)
	ForDomain(ctx context.Context, code string, domain models.Domain) (*policy.JurisdictionPolicy, error)
}

// Option customises a Pipeline.
type Option func(*Pipeline)

// WithClock overrides the time source used for temporal evaluation.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// Pipeline runs normalize → classify → timing → evaluate → assemble for one
// situation. It holds no per-request state and is safe for concurrent use.
type Pipeline struct {
	logger   *slog.Logger
	policies PolicyProvider
	now      func() time.Time
}

// NewPipeline constructs a new evaluation pipeline.
func NewPipeline(logger *slog.Logger, policies PolicyProvider, opts ...Option) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pipeline{
		logger:   logger,
		policies: policies,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Evaluate normalizes a raw situation record and evaluates it.
func (p *Pipeline) Evaluate(ctx context.Context, raw map[string]any) (models.Verdict, error) {
	return p.EvaluateInput(ctx, normalize.Normalize(raw))
}

// EvaluateInput evaluates an already normalized situation.
func (p *Pipeline) EvaluateInput(ctx context.Context, in models.SituationInput) (models.Verdict, error) {
	if p.policies == nil {
		return models.Verdict{}, fmt.Errorf("policy provider not configured")
	}
	var (
		pol *policy.JurisdictionPolicy
		err error
	)
	if supportedDomain(in.Domain) {
		pol, err = p.policies.ForDomain(ctx, in.Jurisdiction, in.Domain)
	} else {
		pol, err = p.policies.Get(ctx, in.Jurisdiction)
	}
	if err != nil {
		return models.Verdict{}, err
	}

	verdict, err := Run(in, pol, p.now())
	if err != nil {
		if errors.Is(err, policy.ErrPolicyIntegrity) {
			p.logger.Error("policy table inconsistent",
				slog.String("jurisdiction", pol.Code),
				slog.String("domain", string(in.Domain)),
				slog.Any("error", err))
		}
		return models.Verdict{}, err
	}

	p.logger.Debug("situation evaluated",
		slog.String("jurisdiction", verdict.Jurisdiction),
		slog.String("domain", string(verdict.Domain)),
		slog.String("category", verdict.Category),
		slog.String("status", string(verdict.Status)))
	return verdict, nil
}

// Run is the pure evaluation core: the same input, policy and instant always
// produce the same verdict.
func Run(in models.SituationInput, pol *policy.JurisdictionPolicy, now time.Time) (models.Verdict, error) {
	if !supportedDomain(in.Domain) {
		return unknownDomainVerdict(in, pol), nil
	}

	c := Classify(in, pol)
	timing := EvaluateTiming(in, c, pol, now)

	var (
		out Outcome
		err error
	)
	switch in.Domain {
	case models.DomainCriminalRelief:
		out, err = EvaluateCriminal(in, c, timing, pol)
	case models.DomainEvictionDefense:
		out, err = EvaluateEviction(in, c, timing, pol)
	}
	if err != nil {
		return models.Verdict{}, err
	}
	return Assemble(in, c, timing, out, pol), nil
}

func supportedDomain(d models.Domain) bool {
	return d == models.DomainCriminalRelief || d == models.DomainEvictionDefense
}

// unknownDomainVerdict answers a situation that names no supported domain
// with an unknown, low-confidence verdict instead of rejecting it.
func unknownDomainVerdict(in models.SituationInput, pol *policy.JurisdictionPolicy) models.Verdict {
	in.Domain = models.DomainUnknown
	c := models.Classification{Category: models.Unknown}
	out := Outcome{
		Status:     models.StatusUnknown,
		Confidence: models.ConfidenceLow,
		Reasons: []string{
			fmt.Sprintf("The situation does not name a supported matter (%s or %s), so no rules were applied.",
				models.DomainCriminalRelief, models.DomainEvictionDefense),
		},
	}
	return Assemble(in, c, models.TimingResult{Urgency: models.UrgencyStandard}, out, pol)
}
