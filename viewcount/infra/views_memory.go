package infra

import (
	"context"
	"sync"
	"time"

	"view-counter/viewcount/domain"
)

// MemoryViewStore implementa domain.CounterStore e domain.MarkStore em memória.
// Útil para testes e desenvolvimento num processo só; contagens não sobrevivem a restart.
type MemoryViewStore struct {
	mu     sync.Mutex
	counts map[domain.ItemID]int64
	marks  map[markKey]time.Time // valor = expiração

	clock        domain.Clock
	cleanupEvery time.Duration
}

type markKey struct {
	who domain.Identity
	id  domain.ItemID
}

type MemoryViewOption func(*MemoryViewStore)

func WithMemoryClock(c domain.Clock) MemoryViewOption {
	return func(s *MemoryViewStore) { s.clock = c }
}

func WithMarkCleanupEvery(d time.Duration) MemoryViewOption {
	return func(s *MemoryViewStore) { s.cleanupEvery = d }
}

func NewMemoryViewStore(opts ...MemoryViewOption) *MemoryViewStore {
	s := &MemoryViewStore{
		counts:       make(map[domain.ItemID]int64),
		marks:        make(map[markKey]time.Time),
		clock:        domain.RealClock{},
		cleanupEvery: time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryViewStore) Increment(ctx context.Context, id domain.ItemID) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[id]++
	return s.counts[id], nil
}

func (s *MemoryViewStore) Get(ctx context.Context, id domain.ItemID) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[id], nil
}

func (s *MemoryViewStore) Lookup(ctx context.Context, ids []domain.ItemID) (map[domain.ItemID]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[domain.ItemID]int64, len(ids))
	for _, id := range ids {
		if v, ok := s.counts[id]; ok {
			out[id] = v
		}
	}
	return out, nil
}

// Set grava uma contagem direto. Só para seed e testes.
func (s *MemoryViewStore) Set(id domain.ItemID, views int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[id] = views
}

func (s *MemoryViewStore) Marked(ctx context.Context, who domain.Identity, id domain.ItemID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.markedLocked(markKey{who, id}), nil
}

func (s *MemoryViewStore) IncrementAndMark(ctx context.Context, id domain.ItemID, who domain.Identity, ttl time.Duration) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	k := markKey{who, id}
	if s.markedLocked(k) {
		return 0, domain.ErrAlreadyMarked
	}
	s.counts[id]++
	s.marks[k] = s.clock.Now().Add(ttl)
	return s.counts[id], nil
}

func (s *MemoryViewStore) markedLocked(k markKey) bool {
	exp, ok := s.marks[k]
	if !ok {
		return false
	}
	if !s.clock.Now().Before(exp) {
		delete(s.marks, k)
		return false
	}
	return true
}

// Cleanup remove registros de rate limit expirados.
func (s *MemoryViewStore) Cleanup() {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, exp := range s.marks {
		if !now.Before(exp) {
			delete(s.marks, k)
		}
	}
}

// StartJanitor roda Cleanup a cada cleanupEvery até o ctx acabar.
func (s *MemoryViewStore) StartJanitor(ctx context.Context) {
	startJanitor(ctx, s.cleanupEvery, s.Cleanup)
}

var (
	_ domain.CounterStore = (*MemoryViewStore)(nil)
	_ domain.MarkStore    = (*MemoryViewStore)(nil)
)
