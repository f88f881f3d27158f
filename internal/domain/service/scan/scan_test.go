package scan_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"arbscan/internal/domain"
	"arbscan/internal/domain/entity"
	"arbscan/internal/domain/service/scan"
	"arbscan/pkg/errcodes"
)

type stubPricing struct {
	snapshots map[entity.Market]*entity.ProductSnapshot
	errs      map[entity.Market]error
	calls     map[entity.Market]int
}

func newStubPricing() *stubPricing {
	return &stubPricing{
		snapshots: map[entity.Market]*entity.ProductSnapshot{},
		errs:      map[entity.Market]error{},
		calls:     map[entity.Market]int{},
	}
}

func (p *stubPricing) Fetch(_ context.Context, _ string, market entity.Market) (*entity.ProductSnapshot, error) {
	p.calls[market]++
	if err := p.errs[market]; err != nil {
		return nil, err
	}
	if s := p.snapshots[market]; s != nil {
		return s, nil
	}
	return nil, domain.NewError(errcodes.ProductNotFound, "product not found")
}

type stubCache struct {
	snapshots     map[string]*entity.ProductSnapshot
	opportunities map[string]*entity.Opportunity
	readErr       error
	writeErr      error
}

func newStubCache() *stubCache {
	return &stubCache{
		snapshots:     map[string]*entity.ProductSnapshot{},
		opportunities: map[string]*entity.Opportunity{},
	}
}

func cacheKey(productID string, market entity.Market) string {
	return productID + ":" + market.String()
}

func (c *stubCache) GetSnapshot(_ context.Context, productID string, market entity.Market) (*entity.ProductSnapshot, error) {
	if c.readErr != nil {
		return nil, c.readErr
	}
	return c.snapshots[cacheKey(productID, market)], nil
}

func (c *stubCache) SetSnapshot(_ context.Context, snapshot *entity.ProductSnapshot) error {
	if c.writeErr != nil {
		return c.writeErr
	}
	c.snapshots[cacheKey(snapshot.ProductID, snapshot.Market)] = snapshot
	return nil
}

func (c *stubCache) SetOpportunity(_ context.Context, opportunity *entity.Opportunity) error {
	if c.writeErr != nil {
		return c.writeErr
	}
	c.opportunities[cacheKey(opportunity.ProductID, opportunity.Market)] = opportunity
	return nil
}

type stubStore struct {
	records   map[string]*entity.Opportunity
	findErr   error
	upsertErr error
}

func newStubStore() *stubStore {
	return &stubStore{records: map[string]*entity.Opportunity{}}
}

func storeKey(productID string, market entity.Market, mode entity.ScanMode) string {
	return productID + ":" + market.String() + ":" + mode.String()
}

func (s *stubStore) FindShown(_ context.Context, productID string, market entity.Market, mode entity.ScanMode) (*entity.Opportunity, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	record := s.records[storeKey(productID, market, mode)]
	if record == nil || record.Status != entity.StatusShown {
		return nil, nil
	}
	return record, nil
}

func (s *stubStore) Upsert(_ context.Context, opportunity *entity.Opportunity) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.records[storeKey(opportunity.ProductID, opportunity.Market, opportunity.Mode)] = opportunity
	return nil
}

func testSnapshots() (*entity.ProductSnapshot, *entity.ProductSnapshot) {
	source := &entity.ProductSnapshot{
		ProductID:     "0123456789",
		Market:        entity.MarketUS,
		Price:         1250,
		Rank:          500,
		VariationHash: "a",
	}
	target := &entity.ProductSnapshot{
		ProductID:     "0123456789",
		Market:        entity.MarketDE,
		ExternalRef:   "B000TEST42",
		Price:         2499,
		Rank:          900,
		VariationHash: "a",
	}
	return source, target
}

func newTestOrchestrator(pricing *stubPricing, cache *stubCache, store *stubStore) *scan.Orchestrator {
	return scan.NewOrchestrator(pricing, cache, store).
		WithClock(func() time.Time { return time.Date(2025, 11, 3, 12, 0, 0, 0, time.UTC) })
}

func TestScanShown(t *testing.T) {
	rq := require.New(t)

	pricing := newStubPricing()
	source, target := testSnapshots()
	pricing.snapshots[entity.MarketUS] = source
	pricing.snapshots[entity.MarketDE] = target

	cache := newStubCache()
	store := newStubStore()

	result, err := newTestOrchestrator(pricing, cache, store).Scan(t.Context(), "0123456789", entity.ScanModeManual)
	rq.NoError(err)

	rq.Equal(scan.OutcomeShown, result.Outcome)
	rq.Equal(entity.StatusShown, result.Opportunity.Status)
	rq.Equal(int64(1250), result.Opportunity.SourcePrice)
	rq.Equal(int64(2499), result.Opportunity.TargetPrice)
	rq.InDelta(74.15, result.Opportunity.Score, 1e-9)

	// Persisted and cached under the target-market key.
	rq.NotNil(store.records["0123456789:DE:manual"])
	rq.NotNil(cache.opportunities["0123456789:DE"])

	// Fresh snapshots went into the cache.
	rq.NotNil(cache.snapshots["0123456789:US"])
	rq.NotNil(cache.snapshots["0123456789:DE"])
}

func TestScanDuplicateShortCircuits(t *testing.T) {
	rq := require.New(t)

	pricing := newStubPricing()
	cache := newStubCache()
	store := newStubStore()

	existing := &entity.Opportunity{
		ProductID: "0123456789",
		Market:    entity.MarketDE,
		Mode:      entity.ScanModeManual,
		Status:    entity.StatusShown,
		Score:     74.15,
	}
	store.records["0123456789:DE:manual"] = existing

	result, err := newTestOrchestrator(pricing, cache, store).Scan(t.Context(), "0123456789", entity.ScanModeManual)
	rq.NoError(err)

	rq.Equal(scan.OutcomeDuplicate, result.Outcome)
	rq.Equal(existing, result.Opportunity)

	// No API quota burnt on already-evaluated pairs.
	rq.Zero(pricing.calls[entity.MarketUS])
	rq.Zero(pricing.calls[entity.MarketDE])
}

func TestScanIdempotence(t *testing.T) {
	rq := require.New(t)

	pricing := newStubPricing()
	source, target := testSnapshots()
	pricing.snapshots[entity.MarketUS] = source
	pricing.snapshots[entity.MarketDE] = target

	cache := newStubCache()
	store := newStubStore()
	orchestrator := newTestOrchestrator(pricing, cache, store)

	first, err := orchestrator.Scan(t.Context(), "0123456789", entity.ScanModeAutomatic)
	rq.NoError(err)
	rq.Equal(scan.OutcomeShown, first.Outcome)

	second, err := orchestrator.Scan(t.Context(), "0123456789", entity.ScanModeAutomatic)
	rq.NoError(err)
	rq.Equal(scan.OutcomeDuplicate, second.Outcome)
	rq.Equal(first.Opportunity, second.Opportunity)

	// The second run fetched nothing.
	rq.Equal(1, pricing.calls[entity.MarketUS])
	rq.Equal(1, pricing.calls[entity.MarketDE])
}

func TestScanModeIsPartOfTheKey(t *testing.T) {
	rq := require.New(t)

	pricing := newStubPricing()
	source, target := testSnapshots()
	pricing.snapshots[entity.MarketUS] = source
	pricing.snapshots[entity.MarketDE] = target

	store := newStubStore()
	orchestrator := newTestOrchestrator(pricing, newStubCache(), store)

	_, err := orchestrator.Scan(t.Context(), "0123456789", entity.ScanModeManual)
	rq.NoError(err)

	// A manual record does not dedupe an automatic scan.
	result, err := orchestrator.Scan(t.Context(), "0123456789", entity.ScanModeAutomatic)
	rq.NoError(err)
	rq.Equal(scan.OutcomeShown, result.Outcome)
}

func TestScanRankPreFilter(t *testing.T) {
	rq := require.New(t)

	pricing := newStubPricing()
	source, target := testSnapshots()
	source.Rank = 25000
	pricing.snapshots[entity.MarketUS] = source
	pricing.snapshots[entity.MarketDE] = target

	store := newStubStore()

	result, err := newTestOrchestrator(pricing, newStubCache(), store).Scan(t.Context(), "0123456789", entity.ScanModeAutomatic)
	rq.NoError(err)

	rq.Equal(scan.OutcomeFiltered, result.Outcome)
	rq.Equal(entity.StatusFiltered, result.Opportunity.Status)

	// Pre-filter is a cost gate: the target market is never queried.
	rq.Equal(1, pricing.calls[entity.MarketUS])
	rq.Zero(pricing.calls[entity.MarketDE])

	rq.Equal(entity.StatusFiltered, store.records["0123456789:DE:automatic"].Status)
}

func TestScanRankSentinelFailsPreFilter(t *testing.T) {
	rq := require.New(t)

	pricing := newStubPricing()
	source, target := testSnapshots()
	source.Rank = entity.RankSentinel // rank unknown
	pricing.snapshots[entity.MarketUS] = source
	pricing.snapshots[entity.MarketDE] = target

	result, err := newTestOrchestrator(pricing, newStubCache(), newStubStore()).Scan(t.Context(), "0123456789", entity.ScanModeAutomatic)
	rq.NoError(err)
	rq.Equal(scan.OutcomeFiltered, result.Outcome)
}

func TestScanHazmatPreFilter(t *testing.T) {
	rq := require.New(t)

	pricing := newStubPricing()
	source, target := testSnapshots()
	source.Hazmat = true
	pricing.snapshots[entity.MarketUS] = source
	pricing.snapshots[entity.MarketDE] = target

	result, err := newTestOrchestrator(pricing, newStubCache(), newStubStore()).Scan(t.Context(), "0123456789", entity.ScanModeAutomatic)
	rq.NoError(err)

	rq.Equal(scan.OutcomeFiltered, result.Outcome)
	rq.Zero(pricing.calls[entity.MarketDE])
}

func TestScanNotFound(t *testing.T) {
	rq := require.New(t)

	testCases := []struct {
		name    string
		missing entity.Market
	}{
		{name: "Source market", missing: entity.MarketUS},
		{name: "Target market", missing: entity.MarketDE},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			pricing := newStubPricing()
			source, target := testSnapshots()
			pricing.snapshots[entity.MarketUS] = source
			pricing.snapshots[entity.MarketDE] = target
			delete(pricing.snapshots, tc.missing)

			store := newStubStore()

			result, err := newTestOrchestrator(pricing, newStubCache(), store).Scan(t.Context(), "0123456789", entity.ScanModeManual)
			rq.NoError(err)

			rq.Equal(scan.OutcomeNotFound, result.Outcome)
			rq.Nil(result.Opportunity)

			// Not-found is terminal without persistence.
			rq.Empty(store.records)
		})
	}
}

func TestScanMalformedTreatedAsNotFound(t *testing.T) {
	rq := require.New(t)

	pricing := newStubPricing()
	pricing.errs[entity.MarketUS] = domain.NewError(errcodes.MalformedResponse, "unexpected response shape")

	result, err := newTestOrchestrator(pricing, newStubCache(), newStubStore()).Scan(t.Context(), "0123456789", entity.ScanModeManual)
	rq.NoError(err)
	rq.Equal(scan.OutcomeNotFound, result.Outcome)
}

func TestScanRetryableFetchErrorPropagates(t *testing.T) {
	rq := require.New(t)

	testCases := []struct {
		name string
		err  error
	}{
		{name: "Rate limited", err: domain.NewError(errcodes.RateLimited, "quota exhausted")},
		{name: "Transient", err: domain.NewError(errcodes.TransientFailure, "connection reset")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			pricing := newStubPricing()
			pricing.errs[entity.MarketUS] = tc.err

			_, err := newTestOrchestrator(pricing, newStubCache(), newStubStore()).Scan(t.Context(), "0123456789", entity.ScanModeAutomatic)
			rq.Error(err)
			rq.True(domain.IsRetryable(err))
		})
	}
}

func TestScanCacheReadFailureDegradesToMiss(t *testing.T) {
	rq := require.New(t)

	pricing := newStubPricing()
	source, target := testSnapshots()
	pricing.snapshots[entity.MarketUS] = source
	pricing.snapshots[entity.MarketDE] = target

	cache := newStubCache()
	cache.readErr = errors.New("cache unavailable")

	result, err := newTestOrchestrator(pricing, cache, newStubStore()).Scan(t.Context(), "0123456789", entity.ScanModeManual)
	rq.NoError(err)
	rq.Equal(scan.OutcomeShown, result.Outcome)
}

func TestScanCacheHitSkipsFetch(t *testing.T) {
	rq := require.New(t)

	pricing := newStubPricing()
	source, target := testSnapshots()
	pricing.snapshots[entity.MarketDE] = target

	cache := newStubCache()
	cache.snapshots["0123456789:US"] = source

	result, err := newTestOrchestrator(pricing, cache, newStubStore()).Scan(t.Context(), "0123456789", entity.ScanModeManual)
	rq.NoError(err)
	rq.Equal(scan.OutcomeShown, result.Outcome)

	rq.Zero(pricing.calls[entity.MarketUS])
	rq.Equal(1, pricing.calls[entity.MarketDE])
}

func TestScanCacheWriteFailureIsSwallowed(t *testing.T) {
	rq := require.New(t)

	pricing := newStubPricing()
	source, target := testSnapshots()
	pricing.snapshots[entity.MarketUS] = source
	pricing.snapshots[entity.MarketDE] = target

	cache := newStubCache()
	cache.writeErr = errors.New("cache unavailable")

	result, err := newTestOrchestrator(pricing, cache, newStubStore()).Scan(t.Context(), "0123456789", entity.ScanModeManual)
	rq.NoError(err)
	rq.Equal(scan.OutcomeShown, result.Outcome)
}

func TestScanPersistFailureIsRetryable(t *testing.T) {
	rq := require.New(t)

	pricing := newStubPricing()
	source, target := testSnapshots()
	pricing.snapshots[entity.MarketUS] = source
	pricing.snapshots[entity.MarketDE] = target

	store := newStubStore()
	store.upsertErr = errors.New("connection refused")

	_, err := newTestOrchestrator(pricing, newStubCache(), store).Scan(t.Context(), "0123456789", entity.ScanModeManual)
	rq.Error(err)
	rq.True(domain.HasCode(err, errcodes.StoreUnavailable))
	rq.True(domain.IsRetryable(err))
}
