package application

import (
	"cmp"
	"context"
	"slices"
	"time"

	"view-counter/viewcount/domain"
)

// RankService é o que a camada HTTP precisa de um ranker (simples ou com cache).
type RankService interface {
	Rank(ctx context.Context, q domain.RankQuery) (domain.Ranking, error)
}

// Ranker monta a lista de "mais lidos" em duas passadas:
//
//  1. itens com views > 0, por views desc (empate: mais novo primeiro, depois menor id)
//  2. só se a lista ainda estiver curta: itens sem views, mais novos primeiro,
//     excluindo o que já entrou na passada 1
//
// A segunda passada evita uma lista vazia quando boa parte do catálogo nunca
// foi instrumentada.
type Ranker struct {
	Items  domain.ItemStore
	Counts domain.CounterStore
	Clock  domain.Clock
}

func (r Ranker) Rank(ctx context.Context, q domain.RankQuery) (domain.Ranking, error) {
	q = q.Normalize()

	clock := r.Clock
	if clock == nil {
		clock = domain.RealClock{}
	}
	now := clock.Now()
	since := now.AddDate(0, 0, -q.WindowDays)

	items, err := r.Items.Query(ctx, domain.ItemQuery{
		Type:     q.ItemType,
		Since:    since,
		Until:    now,
		Category: q.Category,
	})
	if err != nil {
		return domain.Ranking{}, domain.StorageError(err, "query items")
	}

	candidates := make([]domain.Item, 0, len(items))
	ids := make([]domain.ItemID, 0, len(items))
	for _, it := range items {
		if !visible(it, q, since, now) {
			continue
		}
		candidates = append(candidates, it)
		ids = append(ids, it.ID)
	}

	counts, err := r.Counts.Lookup(ctx, ids)
	if err != nil {
		return domain.Ranking{}, domain.StorageError(err, "load view counts")
	}

	var viewed, unviewed []domain.Item
	for _, it := range candidates {
		if counts[it.ID] > 0 {
			viewed = append(viewed, it)
		} else {
			unviewed = append(unviewed, it)
		}
	}

	slices.SortFunc(viewed, func(a, b domain.Item) int {
		if c := cmp.Compare(counts[b.ID], counts[a.ID]); c != 0 {
			return c
		}
		if c := b.PublishedAt.Compare(a.PublishedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	slices.SortFunc(unviewed, func(a, b domain.Item) int {
		if c := b.PublishedAt.Compare(a.PublishedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})

	out := make([]domain.RankedItem, 0, q.Limit)
	picked := make(map[domain.ItemID]struct{}, q.Limit)
	for _, it := range viewed {
		if len(out) >= q.Limit {
			break
		}
		if _, dup := picked[it.ID]; dup {
			continue
		}
		picked[it.ID] = struct{}{}
		out = append(out, ranked(it, counts[it.ID]))
	}
	for _, it := range unviewed {
		if len(out) >= q.Limit {
			break
		}
		if _, dup := picked[it.ID]; dup {
			continue
		}
		picked[it.ID] = struct{}{}
		out = append(out, ranked(it, 0))
	}

	return domain.Ranking{Items: out, Query: q}, nil
}

// visible reaplica o filtro da query; os stores podem ser menos precisos que ela.
func visible(it domain.Item, q domain.RankQuery, since, now time.Time) bool {
	if !it.Published || it.Type != q.ItemType {
		return false
	}
	if it.PublishedAt.Before(since) || it.PublishedAt.After(now) {
		return false
	}
	return q.Category == 0 || it.InCategory(q.Category)
}

func ranked(it domain.Item, views int64) domain.RankedItem {
	return domain.RankedItem{
		ID:          it.ID,
		Title:       it.Title,
		Excerpt:     it.Excerpt,
		URL:         it.URL,
		Thumbnail:   it.Thumbnail,
		PublishedAt: it.PublishedAt,
		Views:       views,
	}
}
