package workbook

import "golang.org/x/sync/semaphore"

// Guard lets at most one import or export run at a time. A second caller
// fails fast with ErrBusy instead of waiting.
type Guard struct {
	sem *semaphore.Weighted
}

// NewGuard returns an idle guard.
func NewGuard() *Guard {
	return &Guard{sem: semaphore.NewWeighted(1)}
}

// Do runs fn unless another call is in flight.
func (g *Guard) Do(fn func() error) error {
	if !g.sem.TryAcquire(1) {
		return ErrBusy
	}
	defer g.sem.Release(1)
	return fn()
}
