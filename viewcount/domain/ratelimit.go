package domain

import "time"

// Throttle de requests na frente do endpoint de tracking. É um orçamento simples
// de requests por segundo por cliente, independente do gate de deduplicação.

type Key string

// Limiter decide se uma ação é permitida agora.
type Limiter interface {
	Allow() bool
}

// LimiterStore retorna o limiter de uma chave (identidade do cliente com hash).
type LimiterStore interface {
	Get(Key) Limiter
}

type Decision struct {
	Allowed bool
	// Remaining é o saldo após este request, -1 quando o limiter
	// não sabe informar.
	Remaining int
	// RetryAfter é o valor de Retry-After quando bloqueado. 0 = sem dica.
	RetryAfter time.Duration
}
