package policy

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/clearpathlegal/verdict-engine/internal/cache"
)

const cacheKeyPrefix = "verdict-engine:policy:"

// CachedSource puts a shared cache in front of another Source so replicas
// serve the same policy documents. Cache failures degrade to the backing
// source.
type CachedSource struct {
	cache  cache.Provider
	next   Source
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedSource wraps next with a read-through cache.
func NewCachedSource(provider cache.Provider, next Source, ttl time.Duration, logger *slog.Logger) *CachedSource {
	if provider == nil {
		provider = cache.NoopProvider{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedSource{cache: provider, next: next, ttl: ttl, logger: logger}
}

// Fetch reads the document from the cache or the backing source. Only
// documents that decode cleanly are published, with SetNX so the first replica
// to load a code fixes its content until the TTL lapses. A cached document
// that no longer decodes is evicted and reloaded.
func (s *CachedSource) Fetch(ctx context.Context, code string) ([]byte, error) {
	code = NormalizeCode(code)
	key := cacheKeyPrefix + code

	data, err := s.cache.Get(ctx, key)
	switch {
	case err == nil && len(data) > 0:
		decodeErr := s.validate(code, data)
		if decodeErr == nil {
			return data, nil
		}
		s.logger.Warn("evicting invalid cached policy", slog.String("code", code), slog.Any("error", decodeErr))
		if err := s.cache.Del(ctx, key); err != nil {
			s.logger.Warn("policy cache evict failed", slog.String("code", code), slog.Any("error", err))
		}
	case err != nil && !errors.Is(err, cache.ErrCacheMiss):
		s.logger.Warn("policy cache read failed", slog.String("code", code), slog.Any("error", err))
	}

	data, err = s.next.Fetch(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := s.validate(code, data); err != nil {
		return nil, err
	}
	if _, err := s.cache.SetNX(ctx, key, data, s.ttl); err != nil {
		s.logger.Warn("policy cache write failed", slog.String("code", code), slog.Any("error", err))
	}
	return data, nil
}

func (s *CachedSource) validate(code string, data []byte) error {
	_, err := Decode(code, data)
	return err
}

// Codes delegates to the backing source.
func (s *CachedSource) Codes(ctx context.Context) ([]string, error) {
	return s.next.Codes(ctx)
}

