package policy

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearpathlegal/verdict-engine/internal/cache"
	"github.com/clearpathlegal/verdict-engine/internal/models"
)

func TestBuiltinPoliciesDecode(t *testing.T) {
	src := Builtin()
	codes, err := src.Codes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"CA", "PA", "TN"}, codes)

	for _, code := range codes {
		data, err := src.Fetch(context.Background(), code)
		require.NoError(t, err, code)
		pol, err := Decode(code, data)
		require.NoError(t, err, code)
		assert.True(t, pol.Supports(models.DomainCriminalRelief), code)
		assert.True(t, pol.Supports(models.DomainEvictionDefense), code)
	}
}

// Every category a rule or automatic relief can produce must be defined.
func TestBuiltinCategoriesAreConsistent(t *testing.T) {
	src := Builtin()
	codes, err := src.Codes(context.Background())
	require.NoError(t, err)

	for _, code := range codes {
		data, err := src.Fetch(context.Background(), code)
		require.NoError(t, err)
		pol, err := Decode(code, data)
		require.NoError(t, err)

		cr := pol.CriminalRelief
		assert.Contains(t, cr.Categories, cr.DefaultCategory, code)
		for _, rule := range cr.Rules {
			assert.Contains(t, cr.Categories, rule.Category, code)
		}
		for _, c := range cr.AutomaticRelief.Categories {
			assert.Contains(t, cr.Categories, c, code)
		}

		ev := pol.Eviction
		assert.Contains(t, ev.Categories, ev.DefaultCategory, code)
		for _, rule := range ev.Rules {
			assert.Contains(t, ev.Categories, rule.Category, code)
		}
	}
}

func TestDecodeRejectsInvalidDocuments(t *testing.T) {
	cases := map[string]string{
		"unknown field": `
code: XX
criminalRelief:
  defaultCategory: unknown
  rules: []
  categories: {unknown: {disposition: unknown}}
  surprise: true
`,
		"bad severity": `
code: XX
criminalRelief:
  defaultCategory: unknown
  rules: []
  categories: {unknown: {disposition: unknown}}
  blockingOffenses:
    - {name: DUI, keywords: [dui], severity: sometimes}
`,
		"no domain table": `
code: XX
name: Empty
`,
		"negative notice": `
code: XX
evictionDefense:
  defaultCategory: nonpayment
  appealWindowDays: 10
  rules: []
  categories: {nonpayment: {noticeDays: -1}}
`,
		"not yaml": "code: [unterminated",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode("XX", []byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestDecodeRejectsCodeMismatch(t *testing.T) {
	doc, err := Builtin().Fetch(context.Background(), "TN")
	require.NoError(t, err)
	_, err = Decode("PA", doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match")
}

func TestDecodeDefaultsYearBasis(t *testing.T) {
	doc := `
code: xx
criminalRelief:
  defaultCategory: unknown
  rules: []
  categories: {unknown: {disposition: unknown}}
`
	pol, err := Decode("xx", []byte(doc))
	require.NoError(t, err)
	assert.Equal(t, "XX", pol.Code)
	assert.Equal(t, YearBasisCalendar, pol.CriminalRelief.YearBasis)
}

func TestFSSourceRejectsTraversal(t *testing.T) {
	_, err := NewDirSource("testdata").Fetch(context.Background(), "../builtin/TN")
	assert.ErrorIs(t, err, ErrPolicyNotFound)
}

func TestLayeredSourcePrefersFirstLayer(t *testing.T) {
	src := LayeredSource{NewDirSource("testdata"), Builtin()}

	codes, err := src.Codes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"CA", "PA", "TN", "XT"}, codes)

	pol, err := NewProvider(src, nil).Get(context.Background(), "tn")
	require.NoError(t, err)
	assert.Equal(t, "Tennessee (local override)", pol.Name)
	assert.Equal(t, YearBasisAverage, pol.CriminalRelief.YearBasis)
	assert.Nil(t, pol.Eviction)

	pa, err := NewProvider(src, nil).Get(context.Background(), "PA")
	require.NoError(t, err)
	assert.Equal(t, "Pennsylvania", pa.Name)
}

type countingSource struct {
	Source
	fetches atomic.Int32
	delay   time.Duration
	fail    atomic.Bool
}

func (s *countingSource) Fetch(ctx context.Context, code string) ([]byte, error) {
	s.fetches.Add(1)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.fail.Load() {
		return nil, errors.New("backend unavailable")
	}
	return s.Source.Fetch(ctx, code)
}

func TestProviderLoadsOnceUnderConcurrency(t *testing.T) {
	src := &countingSource{Source: Builtin(), delay: 20 * time.Millisecond}
	provider := NewProvider(src, nil)

	var wg sync.WaitGroup
	results := make([]*JurisdictionPolicy, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			pol, err := provider.Get(context.Background(), "TN")
			assert.NoError(t, err)
			results[i] = pol
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), src.fetches.Load())
	for _, pol := range results {
		assert.Same(t, results[0], pol)
	}
}

func TestProviderDoesNotCacheFailures(t *testing.T) {
	src := &countingSource{Source: Builtin()}
	src.fail.Store(true)
	provider := NewProvider(src, nil)

	_, err := provider.Get(context.Background(), "TN")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnsupportedJurisdiction)

	src.fail.Store(false)
	pol, err := provider.Get(context.Background(), "TN")
	require.NoError(t, err)
	assert.Equal(t, "TN", pol.Code)
	assert.Equal(t, int32(2), src.fetches.Load())
}

func TestProviderForDomain(t *testing.T) {
	src := LayeredSource{NewDirSource("testdata"), Builtin()}
	provider := NewProvider(src, nil)

	_, err := provider.ForDomain(context.Background(), "XT", models.DomainCriminalRelief)
	require.Error(t, err)
	var unsupported *UnsupportedJurisdictionError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "XT", unsupported.Code)
	assert.Equal(t, models.DomainCriminalRelief, unsupported.Domain)
	assert.Equal(t, []string{"CA", "PA", "TN"}, unsupported.Supported)

	_, err = provider.ForDomain(context.Background(), "TN", models.DomainEvictionDefense)
	require.ErrorIs(t, err, ErrUnsupportedJurisdiction)
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, []string{"CA", "PA", "XT"}, unsupported.Supported)
	assert.Contains(t, err.Error(), "supported jurisdictions: CA, PA, XT")

	pol, err := provider.ForDomain(context.Background(), "xt", models.DomainEvictionDefense)
	require.NoError(t, err)
	assert.Equal(t, 5, pol.Eviction.AppealWindowDays)
}

func TestProviderPreload(t *testing.T) {
	src := &countingSource{Source: Builtin()}
	provider := NewProvider(src, nil)

	require.NoError(t, provider.Preload(context.Background()))
	assert.Equal(t, int32(3), src.fetches.Load())

	_, err := provider.Get(context.Background(), "PA")
	require.NoError(t, err)
	assert.Equal(t, int32(3), src.fetches.Load())

	err = provider.Preload(context.Background(), "TN", "QQ")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedJurisdiction)
}

func TestCachedSourceReadThrough(t *testing.T) {
	memory := cache.NewMemoryProvider()
	backing := &countingSource{Source: Builtin()}
	src := NewCachedSource(memory, backing, time.Minute, nil)

	first, err := src.Fetch(context.Background(), "tn")
	require.NoError(t, err)
	second, err := src.Fetch(context.Background(), "TN")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), backing.fetches.Load())

	cached, err := memory.Get(context.Background(), cacheKeyPrefix+"TN")
	require.NoError(t, err)
	assert.Equal(t, first, cached)
}

func TestCachedSourceServesSharedDocument(t *testing.T) {
	memory := cache.NewMemoryProvider()
	doc, err := NewDirSource("testdata").Fetch(context.Background(), "XT")
	require.NoError(t, err)
	stored, err := memory.SetNX(context.Background(), cacheKeyPrefix+"XT", doc, time.Minute)
	require.NoError(t, err)
	require.True(t, stored)

	src := NewCachedSource(memory, Builtin(), time.Minute, nil)
	pol, err := NewProvider(src, nil).Get(context.Background(), "XT")
	require.NoError(t, err)
	assert.Equal(t, "Test Territory", pol.Name)
}

func TestCachedSourcePassesThroughNotFound(t *testing.T) {
	src := NewCachedSource(nil, Builtin(), time.Minute, nil)
	_, err := src.Fetch(context.Background(), "QQ")
	assert.ErrorIs(t, err, ErrPolicyNotFound)
}

// sequenceSource serves canned documents in order, repeating the last one.
type sequenceSource struct {
	docs    [][]byte
	fetches atomic.Int32
}

func (s *sequenceSource) Fetch(_ context.Context, _ string) ([]byte, error) {
	n := int(s.fetches.Add(1)) - 1
	if n >= len(s.docs) {
		n = len(s.docs) - 1
	}
	return s.docs[n], nil
}

func (s *sequenceSource) Codes(context.Context) ([]string, error) {
	return []string{"TN"}, nil
}

func TestCachedSourceDoesNotPublishCorruptDocument(t *testing.T) {
	valid, err := Builtin().Fetch(context.Background(), "TN")
	require.NoError(t, err)
	memory := cache.NewMemoryProvider()
	backing := &sequenceSource{docs: [][]byte{[]byte("code: TN\ncriminalRelief: [truncated"), valid}}
	provider := NewProvider(NewCachedSource(memory, backing, 0, nil), nil)

	_, err = provider.Get(context.Background(), "TN")
	require.Error(t, err)
	_, err = memory.Get(context.Background(), cacheKeyPrefix+"TN")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)

	pol, err := provider.Get(context.Background(), "TN")
	require.NoError(t, err)
	assert.Equal(t, "TN", pol.Code)
	assert.Equal(t, int32(2), backing.fetches.Load())

	cached, err := memory.Get(context.Background(), cacheKeyPrefix+"TN")
	require.NoError(t, err)
	assert.Equal(t, valid, cached)
}

func TestCachedSourceEvictsInvalidCachedDocument(t *testing.T) {
	memory := cache.NewMemoryProvider()
	stored, err := memory.SetNX(context.Background(), cacheKeyPrefix+"TN", []byte("code: TN\nname: [broken"), 0)
	require.NoError(t, err)
	require.True(t, stored)

	backing := &countingSource{Source: Builtin()}
	src := NewCachedSource(memory, backing, time.Minute, nil)

	data, err := src.Fetch(context.Background(), "TN")
	require.NoError(t, err)
	_, err = Decode("TN", data)
	require.NoError(t, err)
	assert.Equal(t, int32(1), backing.fetches.Load())

	cached, err := memory.Get(context.Background(), cacheKeyPrefix+"TN")
	require.NoError(t, err)
	assert.Equal(t, data, cached)
}

// contextSource fails fetches whose context is already done.
type contextSource struct {
	Source
}

func (s contextSource) Fetch(ctx context.Context, code string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.Source.Fetch(ctx, code)
}

func TestProviderLoadOutlivesCallerCancellation(t *testing.T) {
	provider := NewProvider(contextSource{Source: Builtin()}, nil, WithLoadTimeout(time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pol, err := provider.Get(ctx, "TN")
	require.NoError(t, err)
	assert.Equal(t, "TN", pol.Code)
}

func TestProviderLoadTimeout(t *testing.T) {
	slow := &countingSource{Source: Builtin(), delay: 50 * time.Millisecond}
	provider := NewProvider(deadlineSource{slow}, nil, WithLoadTimeout(10*time.Millisecond))

	_, err := provider.Get(context.Background(), "TN")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// deadlineSource reports the context error once a slow fetch returns.
type deadlineSource struct {
	Source
}

func (s deadlineSource) Fetch(ctx context.Context, code string) ([]byte, error) {
	data, err := s.Source.Fetch(ctx, code)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	return data, err
}
