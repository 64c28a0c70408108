package domain

import "context"

// SlotPool limita o número de requests em andamento.
//
// Acquire espera uma vaga livre até o ctx acabar. O release retornado pode ser
// chamado mais de uma vez; só a primeira chamada libera a vaga.
type SlotPool interface {
	Acquire(ctx context.Context) (release func(), ok bool)
	InUse() int
}
