package infra

import (
	"context"
	"sync"
	"testing"
	"time"

	"view-counter/viewcount/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestMemoryViewStore_Counts(t *testing.T) {
	s := NewMemoryViewStore()
	ctx := context.Background()

	n, err := s.Increment(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	s.Set(2, 0)
	got, err := s.Lookup(ctx, []domain.ItemID{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, map[domain.ItemID]int64{1: 1, 2: 0}, got)

	n, err = s.Get(ctx, 3)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMemoryViewStore_MarkExpiry(t *testing.T) {
	clock := &manualClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := NewMemoryViewStore(WithMemoryClock(clock))
	ctx := context.Background()

	n, err := s.IncrementAndMark(ctx, 9, "abc", 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = s.IncrementAndMark(ctx, 9, "abc", 30*time.Minute)
	assert.ErrorIs(t, err, domain.ErrAlreadyMarked)

	clock.Advance(30 * time.Minute)
	marked, err := s.Marked(ctx, "abc", 9)
	require.NoError(t, err)
	assert.False(t, marked)

	n, err = s.IncrementAndMark(ctx, 9, "abc", 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestMemoryViewStore_CleanupDropsExpired(t *testing.T) {
	clock := &manualClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := NewMemoryViewStore(WithMemoryClock(clock), WithMarkCleanupEvery(0))
	ctx := context.Background()

	_, err := s.IncrementAndMark(ctx, 1, "a", time.Minute)
	require.NoError(t, err)
	_, err = s.IncrementAndMark(ctx, 2, "a", time.Hour)
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)
	s.Cleanup()

	s.mu.Lock()
	remaining := len(s.marks)
	s.mu.Unlock()
	assert.Equal(t, 1, remaining)
}

func TestMemoryViewStore_ConcurrentIncrementAndMark(t *testing.T) {
	s := NewMemoryViewStore()

	var mu sync.Mutex
	accepted := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.IncrementAndMark(context.Background(), 42, "abc", time.Minute); err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, accepted)
	n, err := s.Get(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestMemoryViewStore_JanitorStopsWithContext(t *testing.T) {
	s := NewMemoryViewStore(WithMarkCleanupEvery(time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	s.StartJanitor(ctx)
	time.Sleep(5 * time.Millisecond)
	cancel()
}
