package application

import (
	"context"
	"errors"
	"time"

	"view-counter/viewcount/domain"
)

// Tracker passa um request de tracking pelos gates abaixo, em ordem.
// Qualquer gate que falhar interrompe o fluxo:
//
//	token -> id -> item lookup -> bot filter -> identity -> dedup gate -> increment+mark
//
// Os únicos efeitos colaterais são o incremento da view e o registro de rate limit,
// feitos numa única chamada ao MarkStore: um timeout nunca deixa um sem o outro.
type Tracker struct {
	Tokens domain.TokenVerifier
	Items  domain.ItemStore
	Marks  domain.MarkStore
	Bots   BotFilter

	// RateLimitTTL tem como padrão domain.RateLimitTTL.
	RateLimitTTL time.Duration
	// Timeout limita todas as chamadas de storage de um request. 0 = sem limite extra.
	Timeout time.Duration
}

func (t Tracker) Track(ctx context.Context, req domain.TrackRequest) domain.TrackResult {
	if t.Tokens != nil {
		if err := t.Tokens.Verify(req.Token); err != nil {
			return domain.RejectedResult(domain.WrapError(err, domain.KindAuth, domain.ErrInvalidToken.Message))
		}
	}

	if req.ItemID <= 0 {
		return domain.RejectedResult(domain.ErrInvalidID)
	}

	if t.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.Timeout)
		defer cancel()
	}

	item, err := t.Items.Get(ctx, req.ItemID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.RejectedResult(domain.ErrNotFound)
		}
		return domain.RejectedResult(domain.StorageError(err, "load item"))
	}
	if !item.Published {
		return domain.RejectedResult(domain.ErrNotFound)
	}

	if t.Bots.IsBot(req.UserAgent) {
		return domain.DeclinedResult(domain.ReasonBot)
	}

	if req.Identity == domain.UnknownIdentity {
		return domain.RejectedResult(domain.ErrNoIdentity)
	}

	dec, err := Gate{Marks: t.Marks}.Allow(ctx, req.Identity, req.ItemID, req.MarkerPresent)
	if err != nil {
		return domain.RejectedResult(err)
	}
	if !dec.Allowed {
		return domain.DeclinedResult(dec.Reason)
	}

	ttl := t.RateLimitTTL
	if ttl <= 0 {
		ttl = domain.RateLimitTTL
	}
	views, err := t.Marks.IncrementAndMark(ctx, req.ItemID, req.Identity, ttl)
	if err != nil {
		// Perdeu a corrida para um request concorrente do mesmo cliente.
		if errors.Is(err, domain.ErrAlreadyMarked) {
			return domain.DeclinedResult(domain.ReasonRateLimited)
		}
		return domain.RejectedResult(domain.StorageError(err, "increment view count"))
	}
	return domain.AcceptedResult(views)
}
