package pricing

import (
	"context"
	"time"

	"arbscan/internal/domain/entity"
)

// API is the full surface of the pricing client, single and batch.
type API interface {
	Fetch(ctx context.Context, productID string, market entity.Market) (*entity.ProductSnapshot, error)
	FetchBatch(ctx context.Context, productIDs []string, market entity.Market) ([]*entity.ProductSnapshot, error)
	MaxBatch() int
}

// Throttled decorates a pricing client with a fixed pause after every API
// call, successful or failed. With N concurrent callers the aggregate request
// rate stays at N divided by the interval.
type Throttled struct {
	client   API
	interval time.Duration
	sleep    func(ctx context.Context, d time.Duration) error
}

func NewThrottled(client API, interval time.Duration) *Throttled {
	return &Throttled{
		client:   client,
		interval: interval,
		sleep:    sleepCtx,
	}
}

// WithSleep replaces the pause implementation.
func (t *Throttled) WithSleep(sleep func(ctx context.Context, d time.Duration) error) *Throttled {
	t.sleep = sleep
	return t
}

func (t *Throttled) Fetch(ctx context.Context, productID string, market entity.Market) (*entity.ProductSnapshot, error) {
	snapshot, err := t.client.Fetch(ctx, productID, market)
	t.pause(ctx)
	return snapshot, err
}

func (t *Throttled) FetchBatch(ctx context.Context, productIDs []string, market entity.Market) ([]*entity.ProductSnapshot, error) {
	snapshots, err := t.client.FetchBatch(ctx, productIDs, market)
	t.pause(ctx)
	return snapshots, err
}

func (t *Throttled) MaxBatch() int {
	return t.client.MaxBatch()
}

// pause runs after the call so the error, if any, is never masked. A
// cancelled context cuts the wait short; cancellation surfaces to the caller
// at its next blocking operation.
func (t *Throttled) pause(ctx context.Context) {
	_ = t.sleep(ctx, t.interval)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
