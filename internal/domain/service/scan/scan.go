// Package scan implements the multi-stage scan workflow: duplicate check,
// cache-or-fetch for each market, pre-filter, scoring, persist, cache write.
package scan

import (
	"context"
	"log/slog"
	"time"

	"arbscan/internal/domain"
	"arbscan/internal/domain/entity"
	"arbscan/internal/domain/service/scoring"
	"arbscan/pkg/contextx"
	"arbscan/pkg/errcodes"
	"arbscan/pkg/logx"
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

const defaultRankThreshold = 20000

// PricingClient performs exactly one API call per invocation. Retries belong
// to the worker pool, not here.
type PricingClient interface {
	Fetch(ctx context.Context, productID string, market entity.Market) (*entity.ProductSnapshot, error)
}

// SnapshotCache is the TTL cache over (productID, market). A nil snapshot
// with nil error means a miss.
type SnapshotCache interface {
	GetSnapshot(ctx context.Context, productID string, market entity.Market) (*entity.ProductSnapshot, error)
	SetSnapshot(ctx context.Context, snapshot *entity.ProductSnapshot) error
	SetOpportunity(ctx context.Context, opportunity *entity.Opportunity) error
}

// OpportunityStore is the upsert-by-composite-key document store. FindShown
// returns nil, nil when no live "shown" record exists for the key.
type OpportunityStore interface {
	FindShown(ctx context.Context, productID string, market entity.Market, mode entity.ScanMode) (*entity.Opportunity, error)
	Upsert(ctx context.Context, opportunity *entity.Opportunity) error
}

// Outcome is the terminal state of one scan attempt. All outcomes complete
// the job successfully; only retryable errors do not produce one.
type Outcome string

const (
	OutcomeShown     Outcome = "shown"
	OutcomeFiltered  Outcome = "filtered"
	OutcomeNotFound  Outcome = "not_found"
	OutcomeDuplicate Outcome = "duplicate"
)

type Result struct {
	Outcome     Outcome
	Opportunity *entity.Opportunity
}

type Orchestrator struct {
	pricing PricingClient
	cache   SnapshotCache
	store   OpportunityStore

	sourceMarket  entity.Market
	targetMarket  entity.Market
	rankThreshold int64
	now           func() time.Time
}

func NewOrchestrator(
	pricing PricingClient,
	cache SnapshotCache,
	store OpportunityStore,
) *Orchestrator {
	return &Orchestrator{
		pricing:       pricing,
		cache:         cache,
		store:         store,
		sourceMarket:  entity.MarketUS,
		targetMarket:  entity.MarketDE,
		rankThreshold: defaultRankThreshold,
		now:           time.Now,
	}
}

func (o *Orchestrator) WithMarkets(source, target entity.Market) *Orchestrator {
	o.sourceMarket = source
	o.targetMarket = target
	return o
}

func (o *Orchestrator) WithRankThreshold(threshold int64) *Orchestrator {
	o.rankThreshold = threshold
	return o
}

func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	return o
}

// Scan runs the workflow for one product. Returned errors are retryable by
// contract; every non-retryable condition maps to a terminal Result.
func (o *Orchestrator) Scan(ctx context.Context, productID string, mode entity.ScanMode) (Result, error) {
	log := logger(ctx).With(
		slog.String(logx.FieldProductID, productID),
		slog.String(logx.FieldScanMode, mode.String()),
	)

	// 1. Duplicate check: an already-shown record short-circuits the scan so
	// no API quota is burnt on evaluated pairs.
	existing, err := o.store.FindShown(ctx, productID, o.targetMarket, mode)
	if err != nil {
		return Result{}, domain.WrapError(err, errcodes.StoreUnavailable, "duplicate check failed")
	}
	if existing != nil {
		log.Info("scan done", slog.String(logx.FieldOutcome, string(OutcomeDuplicate)))
		countOutcome(OutcomeDuplicate, mode.String())
		return Result{Outcome: OutcomeDuplicate, Opportunity: existing}, nil
	}

	// 2. Source fetch.
	source, found, err := o.snapshot(ctx, productID, o.sourceMarket)
	if err != nil {
		return Result{}, err
	}
	if !found {
		log.Info("scan done", slog.String(logx.FieldOutcome, string(OutcomeNotFound)), slog.String(logx.FieldMarket, o.sourceMarket.String()))
		countOutcome(OutcomeNotFound, mode.String())
		return Result{Outcome: OutcomeNotFound}, nil
	}

	// 3. Pre-filter: don't spend a second API call on products unlikely to be
	// worth scoring.
	if source.Rank > o.rankThreshold || source.Hazmat {
		filtered := &entity.Opportunity{
			ProductID:   productID,
			Market:      o.targetMarket,
			Mode:        mode,
			Status:      entity.StatusFiltered,
			SourcePrice: source.Price,
			LastSeen:    o.now(),
		}
		if err := o.store.Upsert(ctx, filtered); err != nil {
			return Result{}, domain.WrapError(err, errcodes.StoreUnavailable, "persist filtered result")
		}

		log.Info("scan done",
			slog.String(logx.FieldOutcome, string(OutcomeFiltered)),
			slog.Int64("rank", source.Rank),
			slog.Bool("hazmat", source.Hazmat),
		)
		countOutcome(OutcomeFiltered, mode.String())
		return Result{Outcome: OutcomeFiltered, Opportunity: filtered}, nil
	}

	// 4. Target fetch.
	target, found, err := o.snapshot(ctx, productID, o.targetMarket)
	if err != nil {
		return Result{}, err
	}
	if !found {
		log.Info("scan done", slog.String(logx.FieldOutcome, string(OutcomeNotFound)), slog.String(logx.FieldMarket, o.targetMarket.String()))
		countOutcome(OutcomeNotFound, mode.String())
		return Result{Outcome: OutcomeNotFound}, nil
	}

	// 5. Score.
	breakdown := scoring.Score(*source, *target)

	// 6. Persist.
	opportunity := &entity.Opportunity{
		ProductID:        productID,
		Market:           o.targetMarket,
		Mode:             mode,
		Status:           entity.StatusShown,
		ExternalRef:      target.ExternalRef,
		Title:            target.Title,
		Brand:            target.Brand,
		SourcePrice:      source.Price,
		TargetPrice:      target.Price,
		Fees:             breakdown.Fees,
		ShippingEstimate: breakdown.ShippingEstimate,
		RiskMultiplier:   breakdown.RiskMultiplier,
		Score:            breakdown.Score,
		LastSeen:         o.now(),
	}

	if err := o.store.Upsert(ctx, opportunity); err != nil {
		// The scan's value is the persisted record; losing it fails the job.
		return Result{}, domain.WrapError(err, errcodes.StoreUnavailable, "persist opportunity")
	}

	// 7. Cache write, best-effort.
	if err := o.cache.SetOpportunity(ctx, opportunity); err != nil {
		log.Warn("opportunity cache write failed", logx.Error(err))
	}

	log.Info("scan done",
		slog.String(logx.FieldOutcome, string(OutcomeShown)),
		slog.Float64("score", breakdown.Score),
	)
	countOutcome(OutcomeShown, mode.String())

	return Result{Outcome: OutcomeShown, Opportunity: opportunity}, nil
}

// snapshot is the cache-or-fetch path for one market. A cache read failure
// degrades to a miss; a Malformed response is logged distinctly and reported
// as not found.
func (o *Orchestrator) snapshot(ctx context.Context, productID string, market entity.Market) (*entity.ProductSnapshot, bool, error) {
	cached, err := o.cache.GetSnapshot(ctx, productID, market)
	if err != nil {
		logger(ctx).Warn("snapshot cache read failed",
			slog.String(logx.FieldProductID, productID),
			slog.String(logx.FieldMarket, market.String()),
			logx.Error(err),
		)
	}
	if cached != nil {
		return cached, true, nil
	}

	snapshot, err := o.pricing.Fetch(ctx, productID, market)
	switch {
	case err == nil:
	case domain.HasCode(err, errcodes.ProductNotFound):
		return nil, false, nil
	case domain.HasCode(err, errcodes.MalformedResponse):
		logger(ctx).Error("malformed pricing response",
			slog.String(logx.FieldProductID, productID),
			slog.String(logx.FieldMarket, market.String()),
			logx.Error(err),
		)
		return nil, false, nil
	default:
		return nil, false, err
	}

	if err := o.cache.SetSnapshot(ctx, snapshot); err != nil {
		logger(ctx).Warn("snapshot cache write failed",
			slog.String(logx.FieldProductID, productID),
			slog.String(logx.FieldMarket, market.String()),
			logx.Error(err),
		)
	}

	return snapshot, true, nil
}
