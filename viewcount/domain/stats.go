package domain

import (
	"context"
	"time"
)

// TrackEvent é uma decisão de tracking, como registrada nas estatísticas.
//
// Cuidado com cardinalidade: contar por item pode explodir o número de chaves
// num store como Redis, por isso é opcional nas implementações.
type TrackEvent struct {
	ItemID  ItemID
	Outcome Outcome
	// Reason é o motivo do declínio ou o kind do erro de rejeição.
	Reason string

	At time.Time
}

// Label é o campo do contador para o evento, ex.: "declined:bot" ou "accepted".
func (ev TrackEvent) Label() string {
	if ev.Reason == "" {
		return string(ev.Outcome)
	}
	return string(ev.Outcome) + ":" + ev.Reason
}

// StatsStore persiste estatísticas de tracking.
//
// Erros são best-effort: falha de stats nunca derruba um request.
type StatsStore interface {
	Record(ctx context.Context, ev TrackEvent) error
}

// StatsReader expõe os contadores agregados por label ("accepted", "declined:bot", ...).
type StatsReader interface {
	Totals(ctx context.Context) (map[string]int64, error)
}

// ItemStatsReader é um StatsReader que também mantém contadores por item.
type ItemStatsReader interface {
	StatsReader
	ItemTotals(ctx context.Context, id ItemID) (map[string]int64, error)
}
