package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/samber/lo"

	"arbscan/internal/domain"
	"arbscan/internal/domain/entity"
	"arbscan/internal/domain/service/scan"
	"arbscan/pkg/logx"
)

// BatchPricingClient is the bulk side of the pricing API, used by category
// refreshes. FetchBatch costs one API call regardless of batch size.
type BatchPricingClient interface {
	FetchBatch(ctx context.Context, productIDs []string, market entity.Market) ([]*entity.ProductSnapshot, error)
	MaxBatch() int
}

type CategoryStore interface {
	ListIDsByCategory(ctx context.Context, category string) ([]string, error)
	UpsertSnapshot(ctx context.Context, snapshot *entity.ProductSnapshot, category string) error
}

type SnapshotCache interface {
	SetSnapshot(ctx context.Context, snapshot *entity.ProductSnapshot) error
}

// ProductEnqueuer is what category fan-out needs from the queue producer.
type ProductEnqueuer interface {
	EnqueueProductScan(ctx context.Context, productID string, mode entity.ScanMode) error
}

// Handlers hosts the task queue consumers. Request pacing lives in the
// throttled pricing decorator, which sleeps after every API call; handlers
// are given the already-throttled client.
type Handlers struct {
	orchestrator *scan.Orchestrator
	pricing      BatchPricingClient
	store        CategoryStore
	cache        SnapshotCache
	enqueuer     ProductEnqueuer

	sourceMarket entity.Market
}

func NewHandlers(
	orchestrator *scan.Orchestrator,
	pricing BatchPricingClient,
	store CategoryStore,
	cache SnapshotCache,
	enqueuer ProductEnqueuer,
) *Handlers {
	return &Handlers{
		orchestrator: orchestrator,
		pricing:      pricing,
		store:        store,
		cache:        cache,
		enqueuer:     enqueuer,
		sourceMarket: entity.MarketUS,
	}
}

func (h *Handlers) WithSourceMarket(market entity.Market) *Handlers {
	h.sourceMarket = market
	return h
}

// HandleProductScan runs one scan. Retryable failures go back to the queue
// with backoff; everything else completes the task.
func (h *Handlers) HandleProductScan(ctx context.Context, task *asynq.Task) error {
	var payload ProductScanPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		scan.CountFailure("unknown")
		return fmt.Errorf("decode product scan payload: %v: %w", err, asynq.SkipRetry)
	}

	_, err := h.orchestrator.Scan(ctx, payload.ProductID, payload.Mode)
	if err != nil {
		if !domain.IsRetryable(err) {
			logger(ctx).Error("product scan failed",
				slog.String(logx.FieldProductID, payload.ProductID),
				logx.Error(err),
			)
			scan.CountFailure(payload.Mode.String())
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}

		logger(ctx).Warn("product scan will retry",
			slog.String(logx.FieldProductID, payload.ProductID),
			logx.Error(err),
		)
		return err
	}

	return nil
}

// HandleCategoryScan refreshes source-market snapshots for every product in
// the category, then fans out one automatic product scan per product.
func (h *Handlers) HandleCategoryScan(ctx context.Context, task *asynq.Task) error {
	var payload CategoryScanPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode category scan payload: %v: %w", err, asynq.SkipRetry)
	}

	log := logger(ctx).With(slog.String(logx.FieldCategory, payload.Category))

	ids, err := h.store.ListIDsByCategory(ctx, payload.Category)
	if err != nil {
		return fmt.Errorf("list category products: %w", err)
	}
	if len(ids) == 0 {
		log.Info("category scan done", slog.Int("products", 0))
		return nil
	}

	// The throttled client pauses after every batch call, which is exactly
	// the pacing between chunks.
	for _, chunk := range lo.Chunk(ids, h.pricing.MaxBatch()) {
		if err := h.refreshChunk(ctx, payload.Category, chunk); err != nil {
			return err
		}
	}

	var enqueued int
	for _, id := range ids {
		if err := h.enqueuer.EnqueueProductScan(ctx, id, entity.ScanModeAutomatic); err != nil {
			log.Error("fan-out enqueue failed", slog.String(logx.FieldProductID, id), logx.Error(err))
			continue
		}
		enqueued++
	}

	log.Info("category scan done",
		slog.Int("products", len(ids)),
		slog.Int("enqueued", enqueued),
	)

	return nil
}

func (h *Handlers) refreshChunk(ctx context.Context, category string, ids []string) error {
	snapshots, err := h.pricing.FetchBatch(ctx, ids, h.sourceMarket)
	if err != nil {
		if !domain.IsRetryable(err) {
			logger(ctx).Error("category batch fetch failed", logx.Error(err))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	}

	for _, snapshot := range snapshots {
		if err := h.store.UpsertSnapshot(ctx, snapshot, category); err != nil {
			return fmt.Errorf("persist snapshot %s: %w", snapshot.ProductID, err)
		}
		if err := h.cache.SetSnapshot(ctx, snapshot); err != nil {
			logger(ctx).Warn("snapshot cache write failed",
				slog.String(logx.FieldProductID, snapshot.ProductID),
				logx.Error(err),
			)
		}
	}

	return nil
}
