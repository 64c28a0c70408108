package domain

import (
	"context"
	"time"
)

type ItemID int64

// Item é um conteúdo que pertence ao content store hospedeiro.
// O contador só lê itens, nunca os altera.
type Item struct {
	ID          ItemID
	Type        string
	Published   bool
	PublishedAt time.Time
	Categories  []int64

	Title     string
	Excerpt   string
	URL       string
	Thumbnail string
}

// InCategory informa se o item pertence à categoria c.
func (it Item) InCategory(c int64) bool {
	for _, v := range it.Categories {
		if v == c {
			return true
		}
	}
	return false
}

// ItemQuery seleciona itens públicos de um tipo publicados em [Since, Until].
// Category 0 = sem filtro de categoria.
type ItemQuery struct {
	Type     string
	Since    time.Time
	Until    time.Time
	Category int64
}

// ItemStore é o lado de leitura do content store.
//
// Get retorna ErrNotFound quando o item não existe.
type ItemStore interface {
	Get(ctx context.Context, id ItemID) (Item, error)
	Query(ctx context.Context, q ItemQuery) ([]Item, error)
}

// ItemWriter só é usado para popular um store (CLI e testes).
type ItemWriter interface {
	Put(ctx context.Context, it Item) error
}

// Clock permite testar de forma determinística a lógica que depende de tempo.
type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }
