package infra

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"view-counter/viewcount/domain"
)

// MemoryCatalog é um content store em memória. Query retorna itens ordenados por id.
type MemoryCatalog struct {
	mu    sync.RWMutex
	items map[domain.ItemID]domain.Item
}

func NewMemoryCatalog(items ...domain.Item) *MemoryCatalog {
	c := &MemoryCatalog{items: make(map[domain.ItemID]domain.Item, len(items))}
	for _, it := range items {
		c.items[it.ID] = it
	}
	return c
}

func (c *MemoryCatalog) Put(_ context.Context, it domain.Item) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[it.ID] = it
	return nil
}

func (c *MemoryCatalog) Get(ctx context.Context, id domain.ItemID) (domain.Item, error) {
	if err := ctx.Err(); err != nil {
		return domain.Item{}, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	it, ok := c.items[id]
	if !ok {
		return domain.Item{}, domain.ErrNotFound
	}
	return it, nil
}

func (c *MemoryCatalog) Query(ctx context.Context, q domain.ItemQuery) ([]domain.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []domain.Item
	for _, it := range c.items {
		if matchesQuery(it, q) {
			out = append(out, it)
		}
	}
	slices.SortFunc(out, func(a, b domain.Item) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func matchesQuery(it domain.Item, q domain.ItemQuery) bool {
	if !it.Published || it.Type != q.Type {
		return false
	}
	if !q.Since.IsZero() && it.PublishedAt.Before(q.Since) {
		return false
	}
	if !q.Until.IsZero() && it.PublishedAt.After(q.Until) {
		return false
	}
	return q.Category == 0 || it.InCategory(q.Category)
}

var (
	_ domain.ItemStore  = (*MemoryCatalog)(nil)
	_ domain.ItemWriter = (*MemoryCatalog)(nil)
)
