// Package kernel provides the two kernel primitives the control loop relies
// on: a binary semaphore and a critical section.
package kernel

import "context"

// Semaphore is a binary semaphore. Posts coalesce: any number of posts
// before a Pend wake it exactly once.
type Semaphore struct {
	ch chan struct{}
}

// NewSemaphore creates an empty semaphore.
func NewSemaphore() *Semaphore {
	return &Semaphore{ch: make(chan struct{}, 1)}
}

// Post signals the semaphore. It never blocks and is safe to call from
// interrupt context.
func (s *Semaphore) Post() {
	select {
	case s.ch <- struct{}{}:
	default:
	}
}

// Pend blocks until the semaphore is posted or ctx is done.
func (s *Semaphore) Pend(ctx context.Context) error {
	select {
	case <-s.ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryPend consumes a pending post without blocking.
func (s *Semaphore) TryPend() bool {
	select {
	case <-s.ch:
		return true
	default:
		return false
	}
}
