package policy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/clearpathlegal/verdict-engine/internal/metrics"
	"github.com/clearpathlegal/verdict-engine/internal/models"
)

// Provider loads policies lazily and keeps them for the process lifetime.
// Concurrent first requests for a code share one load; failed loads are not
// cached, so a transient error does not poison later lookups.
type Provider struct {
	source      Source
	logger      *slog.Logger
	loadTimeout time.Duration

	policies sync.Map // code -> *JurisdictionPolicy
	loads    singleflight.Group
}

const defaultLoadTimeout = 10 * time.Second

// ProviderOption customises a Provider.
type ProviderOption func(*Provider)

// WithLoadTimeout bounds a single shared policy load.
func WithLoadTimeout(d time.Duration) ProviderOption {
	return func(p *Provider) {
		if d > 0 {
			p.loadTimeout = d
		}
	}
}

// NewProvider constructs a Provider over source.
func NewProvider(source Source, logger *slog.Logger, opts ...ProviderOption) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Provider{source: source, logger: logger, loadTimeout: defaultLoadTimeout}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Get returns the policy for code, loading it on first use.
func (p *Provider) Get(ctx context.Context, code string) (*JurisdictionPolicy, error) {
	code = NormalizeCode(code)
	if cached, ok := p.policies.Load(code); ok {
		return cached.(*JurisdictionPolicy), nil
	}

	v, err, _ := p.loads.Do(code, func() (any, error) {
		if cached, ok := p.policies.Load(code); ok {
			return cached, nil
		}
		// Waiters share this load, so one caller going away must not fail the rest.
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.loadTimeout)
		defer cancel()
		loaded, err := p.load(loadCtx, code)
		if err != nil {
			return nil, err
		}
		p.policies.Store(code, loaded)
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*JurisdictionPolicy), nil
}

// ForDomain returns the policy for code when it carries a table for domain.
func (p *Provider) ForDomain(ctx context.Context, code string, domain models.Domain) (*JurisdictionPolicy, error) {
	pol, err := p.Get(ctx, code)
	if err != nil {
		var unsupported *UnsupportedJurisdictionError
		if errors.As(err, &unsupported) {
			// The loaded error may be shared with concurrent callers; build a fresh one.
			return nil, &UnsupportedJurisdictionError{
				Code:      unsupported.Code,
				Domain:    domain,
				Supported: p.Supported(ctx, domain),
			}
		}
		return nil, err
	}
	if !pol.Supports(domain) {
		return nil, &UnsupportedJurisdictionError{
			Code:      pol.Code,
			Domain:    domain,
			Supported: p.Supported(ctx, domain),
		}
	}
	return pol, nil
}

// Supported lists codes whose policy carries a table for domain. An empty
// domain lists every code the source knows. Codes that fail to load are
// skipped and logged.
func (p *Provider) Supported(ctx context.Context, domain models.Domain) []string {
	codes, err := p.source.Codes(ctx)
	if err != nil {
		p.logger.Warn("list policy codes failed", slog.Any("error", err))
		return nil
	}
	if domain == "" {
		return codes
	}
	supported := make([]string, 0, len(codes))
	for _, code := range codes {
		pol, err := p.Get(ctx, code)
		if err != nil {
			p.logger.Warn("policy unavailable", slog.String("code", code), slog.Any("error", err))
			continue
		}
		if pol.Supports(domain) {
			supported = append(supported, code)
		}
	}
	return supported
}

// Preload loads the given codes, or every code the source lists when none
// are given, so that loading happens before evaluation traffic starts.
func (p *Provider) Preload(ctx context.Context, codes ...string) error {
	if len(codes) == 0 {
		listed, err := p.source.Codes(ctx)
		if err != nil {
			return fmt.Errorf("list policy codes: %w", err)
		}
		codes = listed
	}
	var errs []error
	for _, code := range codes {
		if _, err := p.Get(ctx, code); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (p *Provider) load(ctx context.Context, code string) (*JurisdictionPolicy, error) {
	data, err := p.source.Fetch(ctx, code)
	if err != nil {
		if errors.Is(err, ErrPolicyNotFound) {
			return nil, &UnsupportedJurisdictionError{Code: code}
		}
		metrics.ObservePolicyLoad(metrics.OutcomeError)
		p.logger.Error("policy fetch failed", slog.String("code", code), slog.Any("error", err))
		return nil, fmt.Errorf("load policy %s: %w", code, err)
	}
	pol, err := Decode(code, data)
	if err != nil {
		metrics.ObservePolicyLoad(metrics.OutcomeError)
		p.logger.Error("policy rejected", slog.String("code", code), slog.Any("error", err))
		return nil, err
	}
	metrics.ObservePolicyLoad(metrics.OutcomeSuccess)
	p.logger.Info("policy loaded",
		slog.String("code", code),
		slog.Bool("criminal_relief", pol.CriminalRelief != nil),
		slog.Bool("eviction_defense", pol.Eviction != nil),
	)
	return pol, nil
}
