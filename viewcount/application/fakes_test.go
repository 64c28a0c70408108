package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"view-counter/viewcount/domain"
)

var errStorageDown = errors.New("storage down")

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type fakeTokens struct{ valid string }

func (f fakeTokens) Verify(token string) error {
	if token != f.valid {
		return errors.New("bad token")
	}
	return nil
}

type fakeItems struct {
	items  map[domain.ItemID]domain.Item
	getErr error
	qErr   error
	gets   atomic.Int64
}

func newFakeItems(items ...domain.Item) *fakeItems {
	f := &fakeItems{items: make(map[domain.ItemID]domain.Item)}
	for _, it := range items {
		f.items[it.ID] = it
	}
	return f
}

func (f *fakeItems) Get(_ context.Context, id domain.ItemID) (domain.Item, error) {
	f.gets.Add(1)
	if f.getErr != nil {
		return domain.Item{}, f.getErr
	}
	it, ok := f.items[id]
	if !ok {
		return domain.Item{}, domain.ErrNotFound
	}
	return it, nil
}

// Query ignora a janela de tempo de propósito, para exercitar o filtro do próprio ranker.
func (f *fakeItems) Query(_ context.Context, q domain.ItemQuery) ([]domain.Item, error) {
	if f.qErr != nil {
		return nil, f.qErr
	}
	out := make([]domain.Item, 0, len(f.items))
	for _, it := range f.items {
		if it.Type == q.Type {
			out = append(out, it)
		}
	}
	return out, nil
}

// fakeMarks é um MarkStore + CounterStore atômico em memória.
type fakeMarks struct {
	mu     sync.Mutex
	counts map[domain.ItemID]int64
	marks  map[string]bool

	markedErr error
	incErr    error
	lookupErr error
	incCalls  int
	ttls      []time.Duration
}

func newFakeMarks() *fakeMarks {
	return &fakeMarks{counts: make(map[domain.ItemID]int64), marks: make(map[string]bool)}
}

func markID(who domain.Identity, id domain.ItemID) string {
	return fmt.Sprintf("%s:%d", who, id)
}

func (f *fakeMarks) Increment(_ context.Context, id domain.ItemID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[id]++
	return f.counts[id], nil
}

func (f *fakeMarks) Get(_ context.Context, id domain.ItemID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[id], nil
}

func (f *fakeMarks) Lookup(_ context.Context, ids []domain.ItemID) (map[domain.ItemID]int64, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[domain.ItemID]int64, len(ids))
	for _, id := range ids {
		if n, ok := f.counts[id]; ok {
			out[id] = n
		}
	}
	return out, nil
}

func (f *fakeMarks) Marked(_ context.Context, who domain.Identity, id domain.ItemID) (bool, error) {
	if f.markedErr != nil {
		return false, f.markedErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.marks[markID(who, id)], nil
}

func (f *fakeMarks) IncrementAndMark(_ context.Context, id domain.ItemID, who domain.Identity, ttl time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.incCalls++
	f.ttls = append(f.ttls, ttl)
	if f.incErr != nil {
		return 0, f.incErr
	}
	k := markID(who, id)
	if f.marks[k] {
		return 0, domain.ErrAlreadyMarked
	}
	f.counts[id]++
	f.marks[k] = true
	return f.counts[id], nil
}

func (f *fakeMarks) count(id domain.ItemID) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[id]
}
