package application

import (
	"context"
	"time"

	"view-counter/viewcount/domain"
)

// ConcurrencyService admite requests em um SlotPool limitado, sem saber nada de HTTP.
type ConcurrencyService struct {
	Pool domain.SlotPool
	// AcquireTimeout limita a espera por uma vaga. <= 0 espera enquanto o ctx permitir.
	AcquireTimeout time.Duration
}

// Admit reserva uma vaga para um request, ou falha com domain.ErrBusy.
func (s ConcurrencyService) Admit(ctx context.Context) (release func(), err error) {
	if s.Pool == nil {
		return func() {}, nil
	}
	if s.AcquireTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.AcquireTimeout)
		defer cancel()
	}

	release, ok := s.Pool.Acquire(ctx)
	if !ok {
		return nil, domain.ErrBusy
	}
	return release, nil
}
