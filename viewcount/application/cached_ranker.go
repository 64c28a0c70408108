package application

import (
	"context"
	"fmt"
	"time"

	"view-counter/viewcount/domain"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

// CachedRanker serve rankings de um LRU de vida curta. Misses concorrentes para a
// mesma query efetiva compartilham uma única chamada Rank.
//
// A chamada compartilhada é desacoplada de quem a iniciou e limitada por
// FlightTimeout: um cliente que desiste não derruba os outros que esperam por ela.
//
// Rankings em cache são compartilhados entre chamadores e devem ser tratados como somente leitura.
type CachedRanker struct {
	next  RankService
	cache *expirable.LRU[domain.RankQuery, domain.Ranking]
	sf    singleflight.Group

	// FlightTimeout limita uma chamada Rank compartilhada. 0 usa DefaultFlightTimeout.
	FlightTimeout time.Duration
}

const DefaultFlightTimeout = 5 * time.Second

func NewCachedRanker(next RankService, size int, ttl time.Duration) *CachedRanker {
	if size <= 0 {
		size = 256
	}
	return &CachedRanker{
		next:  next,
		cache: expirable.NewLRU[domain.RankQuery, domain.Ranking](size, nil, ttl),
	}
}

func (c *CachedRanker) Rank(ctx context.Context, q domain.RankQuery) (domain.Ranking, error) {
	q = q.Normalize()
	if r, ok := c.cache.Get(q); ok {
		return r, nil
	}

	key := fmt.Sprintf("%s|%d|%d|%d", q.ItemType, q.WindowDays, q.Limit, q.Category)
	ch := c.sf.DoChan(key, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.flightTimeout())
		defer cancel()
		r, err := c.next.Rank(fctx, q)
		if err != nil {
			return domain.Ranking{}, err
		}
		c.cache.Add(q, r)
		return r, nil
	})
	select {
	case <-ctx.Done():
		return domain.Ranking{}, domain.StorageError(ctx.Err(), "rank items")
	case res := <-ch:
		if res.Err != nil {
			return domain.Ranking{}, res.Err
		}
		return res.Val.(domain.Ranking), nil
	}
}

func (c *CachedRanker) flightTimeout() time.Duration {
	if c.FlightTimeout > 0 {
		return c.FlightTimeout
	}
	return DefaultFlightTimeout
}

// Purge descarta todos os rankings em cache.
func (c *CachedRanker) Purge() { c.cache.Purge() }
