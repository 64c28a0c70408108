package domain

import "time"

const (
	DefaultRankLimit = 10
	MaxRankLimit     = 100
	DefaultRankDays  = 30
	MaxRankDays      = 365
	DefaultItemType  = "post"
)

// RankQuery é um pedido de "mais lidos". Limit e WindowDays fora da faixa não são
// erro; Normalize troca pelos valores padrão.
type RankQuery struct {
	WindowDays int
	Limit      int
	ItemType   string
	// Category 0 = sem filtro.
	Category int64
}

// Normalize retorna a query efetiva.
func (q RankQuery) Normalize() RankQuery {
	if q.Limit < 1 || q.Limit > MaxRankLimit {
		q.Limit = DefaultRankLimit
	}
	if q.WindowDays < 1 || q.WindowDays > MaxRankDays {
		q.WindowDays = DefaultRankDays
	}
	if q.ItemType == "" {
		q.ItemType = DefaultItemType
	}
	if q.Category < 0 {
		q.Category = 0
	}
	return q
}

type RankedItem struct {
	ID          ItemID
	Title       string
	Excerpt     string
	URL         string
	Thumbnail   string
	PublishedAt time.Time
	Views       int64
}

// Ranking é a lista ordenada mais a query efetiva que a gerou.
type Ranking struct {
	Items []RankedItem
	Query RankQuery
}
