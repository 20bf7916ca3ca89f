// Package monitor contains the consumer task and the interrupt bridge that
// wakes it.
package monitor

import "github.com/sweeney/battery-alarm/internal/kernel"

// InterruptSource is a peripheral whose interrupt flag must be acknowledged.
type InterruptSource interface {
	ClearInterrupt()
}

// Bridge is the transfer-completion interrupt handler. It does no work of
// its own: it wakes the task and acknowledges the interrupt.
type Bridge struct {
	crit   kernel.Critical
	sem    *kernel.Semaphore
	source InterruptSource
}

// NewBridge creates a bridge posting sem and acknowledging source.
func NewBridge(sem *kernel.Semaphore, source InterruptSource) *Bridge {
	return &Bridge{sem: sem, source: source}
}

// TransferComplete handles one completion interrupt.
func (b *Bridge) TransferComplete() {
	b.crit.Enter()
	b.sem.Post()
	b.crit.Exit()
	b.source.ClearInterrupt()
}
