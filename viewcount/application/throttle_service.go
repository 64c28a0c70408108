package application

import (
	"math"
	"time"

	"view-counter/viewcount/domain"
)

const defaultRetryAfter = time.Second

// ThrottleService aplica o orçamento de requests por cliente do endpoint de
// tracking. Só retorna decisões; detalhes HTTP ficam no middleware.
type ThrottleService struct {
	Store domain.LimiterStore
	// RetryAfter é a dica enviada junto com a recusa. Padrão: um segundo.
	RetryAfter time.Duration
}

// tokenCounter é implementado por limiters de token bucket (x/time/rate).
type tokenCounter interface {
	Tokens() float64
}

func (s ThrottleService) Decide(key domain.Key) domain.Decision {
	if s.Store == nil {
		return domain.Decision{Allowed: true, Remaining: -1}
	}
	lim := s.Store.Get(key)
	if lim == nil {
		return domain.Decision{Allowed: true, Remaining: -1}
	}

	dec := domain.Decision{Allowed: lim.Allow(), Remaining: -1}
	if tc, ok := lim.(tokenCounter); ok {
		dec.Remaining = max(0, int(math.Floor(tc.Tokens())))
	}
	if !dec.Allowed {
		dec.RetryAfter = s.RetryAfter
		if dec.RetryAfter <= 0 {
			dec.RetryAfter = defaultRetryAfter
		}
	}
	return dec
}
