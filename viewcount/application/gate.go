package application

import (
	"context"
	"errors"

	"view-counter/viewcount/domain"
)

type GateDecision struct {
	Allowed bool
	// Reason é preenchido quando negado.
	Reason string
}

// Gate decide se uma view pode ser contada. Só lê estado: criar o registro de
// rate limit é papel de quem chama, depois que o incremento deu certo.
//
// Ordem de decisão, o primeiro que casar vence:
//  1. marcador do cliente presente -> negado (cookie_present)
//  2. registro de rate limit para (identity, item) -> negado (rate_limited)
//  3. permitido
//
// Marks é obrigatório. Sem ele todo request é recusado como falha de storage.
type Gate struct {
	Marks domain.MarkStore
}

var errNoMarkStore = errors.New("no rate-limit store configured")

func (g Gate) Allow(ctx context.Context, who domain.Identity, id domain.ItemID, markerPresent bool) (GateDecision, error) {
	if markerPresent {
		return GateDecision{Reason: domain.ReasonCookiePresent}, nil
	}
	if g.Marks == nil {
		return GateDecision{}, domain.StorageError(errNoMarkStore, "check rate-limit record")
	}

	marked, err := g.Marks.Marked(ctx, who, id)
	if err != nil {
		return GateDecision{}, domain.StorageError(err, "check rate-limit record")
	}
	if marked {
		return GateDecision{Reason: domain.ReasonRateLimited}, nil
	}
	return GateDecision{Allowed: true}, nil
}
