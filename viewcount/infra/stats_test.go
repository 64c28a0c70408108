package infra

import (
	"context"
	"testing"
	"time"

	"view-counter/viewcount/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStatsStore_Record(t *testing.T) {
	s := NewMemoryStatsStore(WithTrackItems(true))
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, domain.TrackEvent{ItemID: 1, Outcome: domain.Accepted}))
	require.NoError(t, s.Record(ctx, domain.TrackEvent{ItemID: 1, Outcome: domain.Declined, Reason: domain.ReasonBot}))
	require.NoError(t, s.Record(ctx, domain.TrackEvent{ItemID: 2, Outcome: domain.Declined, Reason: domain.ReasonBot}))

	totals, err := s.Totals(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"accepted": 1, "declined:bot": 2}, totals)

	item, err := s.ItemTotals(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"accepted": 1, "declined:bot": 1}, item)
}

func TestMemoryStatsStore_ItemsOffByDefault(t *testing.T) {
	s := NewMemoryStatsStore()
	require.NoError(t, s.Record(context.Background(), domain.TrackEvent{ItemID: 1, Outcome: domain.Accepted}))
	item, err := s.ItemTotals(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, item)
}

func TestRedisStatsStore_Record(t *testing.T) {
	client, mr := newTestRedis(t)
	s := NewRedisStatsStore(client,
		WithStatsPrefix("vc:stats:"),
		WithStatsTTL(time.Hour),
		WithStatsTrackItems(true),
	)
	at := time.Date(2025, 6, 30, 12, 34, 56, 0, time.UTC)

	require.NoError(t, s.Record(context.Background(), domain.TrackEvent{ItemID: 42, Outcome: domain.Accepted, At: at}))
	require.NoError(t, s.Record(context.Background(), domain.TrackEvent{ItemID: 42, Outcome: domain.Declined, Reason: domain.ReasonRateLimited, At: at}))

	assert.Equal(t, "1", mr.HGet("vc:stats:total", "accepted"))
	assert.Equal(t, "1", mr.HGet("vc:stats:total", "declined:rate_limited"))
	assert.Equal(t, "1", mr.HGet("vc:stats:minute:202506301234", "accepted"))
	assert.Equal(t, "1", mr.HGet("vc:stats:item:42", "declined:rate_limited"))

	assert.Equal(t, time.Hour, mr.TTL("vc:stats:minute:202506301234"))
	assert.Zero(t, mr.TTL("vc:stats:total"))

	totals, err := s.Totals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"accepted": 1, "declined:rate_limited": 1}, totals)

	item, err := s.ItemTotals(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"accepted": 1, "declined:rate_limited": 1}, item)

	item, err = s.ItemTotals(context.Background(), 7)
	require.NoError(t, err)
	assert.Empty(t, item)
}

func TestRedisStatsStore_HourBucket(t *testing.T) {
	client, mr := newTestRedis(t)
	s := NewRedisStatsStore(client, WithStatsBucket(" Hour "))
	at := time.Date(2025, 6, 30, 12, 34, 56, 0, time.UTC)

	require.NoError(t, s.Record(context.Background(), domain.TrackEvent{Outcome: domain.Rejected, Reason: "storage", At: at}))

	assert.Equal(t, "1", mr.HGet("viewcount:stats:hour:2025063012", "rejected:storage"))
}

func TestRedisStatsStore_NoBucket(t *testing.T) {
	client, mr := newTestRedis(t)
	s := NewRedisStatsStore(client, WithStatsBucket("none"))

	require.NoError(t, s.Record(context.Background(), domain.TrackEvent{ItemID: 1, Outcome: domain.Accepted}))

	assert.Equal(t, []string{"viewcount:stats:total"}, mr.Keys())
}

func TestRedisStatsStore_NilIsNoop(t *testing.T) {
	var s *RedisStatsStore
	assert.NoError(t, s.Record(context.Background(), domain.TrackEvent{Outcome: domain.Accepted}))
}
