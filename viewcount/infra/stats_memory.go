package infra

import (
	"context"
	"sync"

	"view-counter/viewcount/domain"
)

// MemoryStatsStore conta outcomes de tracking em memória.
// Útil para testes e desenvolvimento. Sem expiração, não é para produção.
type MemoryStatsStore struct {
	mu      sync.Mutex
	byLabel map[string]int64
	byItem  map[domain.ItemID]map[string]int64

	trackItems bool
}

type MemoryStatsOption func(*MemoryStatsStore)

func WithTrackItems(track bool) MemoryStatsOption {
	return func(s *MemoryStatsStore) { s.trackItems = track }
}

func NewMemoryStatsStore(opts ...MemoryStatsOption) *MemoryStatsStore {
	s := &MemoryStatsStore{
		byLabel: make(map[string]int64),
		byItem:  make(map[domain.ItemID]map[string]int64),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStatsStore) Record(_ context.Context, ev domain.TrackEvent) error {
	label := ev.Label()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.byLabel[label]++
	if s.trackItems && ev.ItemID > 0 {
		m := s.byItem[ev.ItemID]
		if m == nil {
			m = make(map[string]int64)
			s.byItem[ev.ItemID] = m
		}
		m[label]++
	}
	return nil
}

// Totals retorna uma cópia dos contadores por label ("accepted", "declined:bot", ...).
func (s *MemoryStatsStore) Totals(_ context.Context) (map[string]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int64, len(s.byLabel))
	for k, v := range s.byLabel {
		out[k] = v
	}
	return out, nil
}

// ItemTotals retorna uma cópia dos contadores do item id. Vazio se a contagem por item estiver desligada.
func (s *MemoryStatsStore) ItemTotals(_ context.Context, id domain.ItemID) (map[string]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int64, len(s.byItem[id]))
	for k, v := range s.byItem[id] {
		out[k] = v
	}
	return out, nil
}

var _ domain.ItemStatsReader = (*MemoryStatsStore)(nil)
