// Package cache is the TTL key-value layer over redis. Reads degrade to a
// miss on failure; the scan never aborts because the cache is down.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"

	"arbscan/internal/domain"
	"arbscan/internal/domain/entity"
	"arbscan/pkg/errcodes"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // skip

// Distinct prefixes keep raw snapshots and computed opportunities in separate
// keyspaces; the two value shapes must never be confused.
const (
	snapshotKeyPrefix    = "arbscan:snapshot:"
	opportunityKeyPrefix = "arbscan:opportunity:"

	defaultSnapshotTTL    = 24 * time.Hour
	defaultOpportunityTTL = time.Hour
)

type Client struct {
	rdb            *redis.Client
	snapshotTTL    time.Duration
	opportunityTTL time.Duration
}

func NewClient(rdb *redis.Client, snapshotTTL, opportunityTTL time.Duration) *Client {
	if snapshotTTL <= 0 {
		snapshotTTL = defaultSnapshotTTL
	}
	if opportunityTTL <= 0 {
		opportunityTTL = defaultOpportunityTTL
	}

	return &Client{
		rdb:            rdb,
		snapshotTTL:    snapshotTTL,
		opportunityTTL: opportunityTTL,
	}
}

func snapshotKey(productID string, market entity.Market) string {
	return fmt.Sprintf("%s%s:%s", snapshotKeyPrefix, productID, market)
}

func opportunityKey(productID string, market entity.Market) string {
	return fmt.Sprintf("%s%s:%s", opportunityKeyPrefix, productID, market)
}

// GetSnapshot returns nil, nil on a miss.
func (c *Client) GetSnapshot(ctx context.Context, productID string, market entity.Market) (*entity.ProductSnapshot, error) {
	payload, err := c.rdb.Get(ctx, snapshotKey(productID, market)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.WrapError(err, errcodes.CacheUnavailable, "snapshot cache read")
	}

	var snapshot entity.ProductSnapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		// A corrupt entry behaves like a miss; the fresh fetch overwrites it.
		return nil, domain.WrapError(err, errcodes.CacheUnavailable, "snapshot cache decode")
	}

	return &snapshot, nil
}

func (c *Client) SetSnapshot(ctx context.Context, snapshot *entity.ProductSnapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return domain.WrapError(err, errcodes.CacheUnavailable, "snapshot cache encode")
	}

	key := snapshotKey(snapshot.ProductID, snapshot.Market)
	if err := c.rdb.Set(ctx, key, payload, c.snapshotTTL).Err(); err != nil {
		return domain.WrapError(err, errcodes.CacheUnavailable, "snapshot cache write")
	}

	return nil
}

func (c *Client) SetOpportunity(ctx context.Context, opportunity *entity.Opportunity) error {
	payload, err := json.Marshal(opportunity)
	if err != nil {
		return domain.WrapError(err, errcodes.CacheUnavailable, "opportunity cache encode")
	}

	key := opportunityKey(opportunity.ProductID, opportunity.Market)
	if err := c.rdb.Set(ctx, key, payload, c.opportunityTTL).Err(); err != nil {
		return domain.WrapError(err, errcodes.CacheUnavailable, "opportunity cache write")
	}

	return nil
}

// GetOpportunity returns nil, nil on a miss. Serving layers use it to avoid
// store round-trips for recently computed results.
func (c *Client) GetOpportunity(ctx context.Context, productID string, market entity.Market) (*entity.Opportunity, error) {
	payload, err := c.rdb.Get(ctx, opportunityKey(productID, market)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.WrapError(err, errcodes.CacheUnavailable, "opportunity cache read")
	}

	var opportunity entity.Opportunity
	if err := json.Unmarshal(payload, &opportunity); err != nil {
		return nil, domain.WrapError(err, errcodes.CacheUnavailable, "opportunity cache decode")
	}

	return &opportunity, nil
}
