package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"arbscan/internal/domain"
	"arbscan/internal/domain/entity"
	"arbscan/pkg/errcodes"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return NewClient(rdb, 24*time.Hour, time.Hour), mr
}

func TestClient_SnapshotRoundTrip(t *testing.T) {
	t.Parallel()
	client, _ := newTestClient(t)
	ctx := context.Background()

	snapshot := &entity.ProductSnapshot{
		ProductID: "012345678905",
		Market:    entity.MarketUS,
		Title:     "widget",
		Price:     1250,
		Rank:      500,
		WeightKg:  1.0,
		FetchedAt: time.Unix(1700000000, 0).UTC(),
	}
	require.NoError(t, client.SetSnapshot(ctx, snapshot))

	got, err := client.GetSnapshot(ctx, "012345678905", entity.MarketUS)
	require.NoError(t, err)
	require.Equal(t, snapshot, got)
}

func TestClient_SnapshotMiss(t *testing.T) {
	t.Parallel()
	client, _ := newTestClient(t)

	got, err := client.GetSnapshot(context.Background(), "missing", entity.MarketUS)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestClient_SnapshotKeyedByMarket(t *testing.T) {
	t.Parallel()
	client, _ := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.SetSnapshot(ctx, &entity.ProductSnapshot{
		ProductID: "012345678905",
		Market:    entity.MarketUS,
		Price:     1250,
	}))

	got, err := client.GetSnapshot(ctx, "012345678905", entity.MarketDE)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestClient_SnapshotExpires(t *testing.T) {
	t.Parallel()
	client, mr := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.SetSnapshot(ctx, &entity.ProductSnapshot{
		ProductID: "012345678905",
		Market:    entity.MarketUS,
		Price:     1250,
	}))

	mr.FastForward(24*time.Hour + time.Second)

	got, err := client.GetSnapshot(ctx, "012345678905", entity.MarketUS)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestClient_OpportunityTTLShorterThanSnapshot(t *testing.T) {
	t.Parallel()
	client, mr := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.SetOpportunity(ctx, &entity.Opportunity{
		ProductID: "012345678905",
		Market:    entity.MarketDE,
		Mode:      entity.ScanModeManual,
		Status:    entity.StatusShown,
		Score:     74.15,
	}))
	require.NoError(t, client.SetSnapshot(ctx, &entity.ProductSnapshot{
		ProductID: "012345678905",
		Market:    entity.MarketDE,
		Price:     2499,
	}))

	mr.FastForward(time.Hour + time.Second)

	opp, err := client.GetOpportunity(ctx, "012345678905", entity.MarketDE)
	require.NoError(t, err)
	require.Nil(t, opp)

	snap, err := client.GetSnapshot(ctx, "012345678905", entity.MarketDE)
	require.NoError(t, err)
	require.NotNil(t, snap)
}

func TestClient_OpportunityRoundTrip(t *testing.T) {
	t.Parallel()
	client, _ := newTestClient(t)
	ctx := context.Background()

	opportunity := &entity.Opportunity{
		ProductID:      "012345678905",
		Market:         entity.MarketDE,
		Mode:           entity.ScanModeAutomatic,
		Status:         entity.StatusShown,
		SourcePrice:    1250,
		TargetPrice:    2499,
		Fees:           674.85,
		RiskMultiplier: 1,
		Score:          74.15,
		LastSeen:       time.Unix(1700000000, 0).UTC(),
	}
	require.NoError(t, client.SetOpportunity(ctx, opportunity))

	got, err := client.GetOpportunity(ctx, "012345678905", entity.MarketDE)
	require.NoError(t, err)
	require.Equal(t, opportunity, got)
}

func TestClient_CorruptEntryReportsCacheUnavailable(t *testing.T) {
	t.Parallel()
	client, mr := newTestClient(t)

	mr.Set(snapshotKey("012345678905", entity.MarketUS), "{not json")

	_, err := client.GetSnapshot(context.Background(), "012345678905", entity.MarketUS)
	require.Error(t, err)
	require.True(t, domain.HasCode(err, errcodes.CacheUnavailable))
}

func TestClient_ReadErrorReportsCacheUnavailable(t *testing.T) {
	t.Parallel()
	client, mr := newTestClient(t)
	mr.Close()

	_, err := client.GetSnapshot(context.Background(), "012345678905", entity.MarketUS)
	require.Error(t, err)
	require.True(t, domain.HasCode(err, errcodes.CacheUnavailable))
}
