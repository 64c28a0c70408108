package domain

import (
	"context"
	"time"
)

// Identity é um digest truncado e com sal do endereço aparente do cliente.
// O valor zero indica que a identidade não pôde ser resolvida.
type Identity string

const UnknownIdentity Identity = ""

const (
	// RateLimitTTL é quanto tempo um registro (identity, item) suprime novas views.
	RateLimitTTL = 30 * time.Minute
	// MarkerTTL é a validade do cookie "já visto" no cliente.
	MarkerTTL = 12 * time.Hour
)

// CounterStore é o mapeamento durável item -> contagem de views.
//
// Increment precisa ser atômico frente a incrementos concorrentes do mesmo item.
// Get retorna 0 para itens sem views. Lookup só retorna itens com contagem
// gravada (itens ausentes ficam fora do map, não viram zero).
type CounterStore interface {
	Increment(ctx context.Context, id ItemID) (int64, error)
	Get(ctx context.Context, id ItemID) (int64, error)
	Lookup(ctx context.Context, ids []ItemID) (map[ItemID]int64, error)
}

// MarkStore guarda os registros de rate limit de vida curta por (identity, item).
//
// IncrementAndMark faz, numa única operação indivisível de storage: falha com
// ErrAlreadyMarked se o registro existe, senão incrementa a contagem do item
// e cria o registro com o ttl dado. Nada é gravado em caso de erro.
type MarkStore interface {
	Marked(ctx context.Context, who Identity, id ItemID) (bool, error)
	IncrementAndMark(ctx context.Context, id ItemID, who Identity, ttl time.Duration) (int64, error)
}

// TokenVerifier valida o token anti-forgery enviado com o request de tracking.
type TokenVerifier interface {
	Verify(token string) error
}
