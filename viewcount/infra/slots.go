package infra

import (
	"context"
	"sync"

	"view-counter/viewcount/domain"
)

// Slots é um semáforo contador sobre um channel com buffer.
type Slots struct {
	sem chan struct{}
}

func NewSlots(size int) *Slots {
	if size < 1 {
		size = 1
	}
	return &Slots{sem: make(chan struct{}, size)}
}

func (s *Slots) Acquire(ctx context.Context) (func(), bool) {
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, false
	}
	var once sync.Once
	return func() { once.Do(func() { <-s.sem }) }, true
}

// InUse é uma foto do momento; pode estar desatualizado quando for lido.
func (s *Slots) InUse() int { return len(s.sem) }

func (s *Slots) Size() int { return cap(s.sem) }

var _ domain.SlotPool = (*Slots)(nil)
