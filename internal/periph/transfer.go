package periph

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// ResultRegister is the converter register the engine copies from.
type ResultRegister interface {
	Result() (uint16, error)
}

// ElementWidth is the size in bytes of one converter result.
const ElementWidth = 2

// Descriptor is the transfer the engine repeats on every request.
type Descriptor struct {
	Source     ResultRegister
	Dest       *Cell
	Width      int // bytes per element
	Count      int // elements per request
	AutoReload bool

	// OnComplete is the completion interrupt handler, raised after every
	// major loop unless the previous interrupt is still pending.
	OnComplete func()
}

// Stats counts what the engine has done since it was programmed.
type Stats struct {
	Transfers    uint64
	Dropped      uint64
	SourceErrors uint64
}

var (
	ErrProgrammed   = errors.New("transfer engine already programmed")
	ErrNoSource     = errors.New("descriptor has no source register")
	ErrNoDest       = errors.New("descriptor has no destination cell")
	ErrNoCompletion = errors.New("descriptor has no completion handler")
)

// TransferEngine copies one converter result into a Cell per request without
// involving the consumer task.
type TransferEngine struct {
	desc       Descriptor
	programmed atomic.Bool
	armed      atomic.Bool
	busy       atomic.Bool
	pending    atomic.Bool

	transfers    atomic.Uint64
	dropped      atomic.Uint64
	sourceErrors atomic.Uint64
}

// NewTransferEngine creates an unprogrammed engine.
func NewTransferEngine() *TransferEngine {
	return &TransferEngine{}
}

// Program loads the descriptor and arms the engine. It can only be called
// once.
func (e *TransferEngine) Program(d Descriptor) error {
	switch {
	case d.Source == nil:
		return ErrNoSource
	case d.Dest == nil:
		return ErrNoDest
	case d.OnComplete == nil:
		return ErrNoCompletion
	case d.Width != ElementWidth:
		return fmt.Errorf("element width %d: converter results are %d bytes", d.Width, ElementWidth)
	case d.Count != 1:
		return fmt.Errorf("count %d: one element per request", d.Count)
	}
	if !e.programmed.CompareAndSwap(false, true) {
		return ErrProgrammed
	}

	e.desc = d
	e.armed.Store(true)
	return nil
}

// Request runs one major loop: read the source register, store the result in
// the destination cell, raise the completion interrupt. Requests arriving
// while the engine is unarmed or still busy are dropped.
func (e *TransferEngine) Request() {
	if !e.armed.Load() {
		e.dropped.Add(1)
		return
	}
	if !e.busy.CompareAndSwap(false, true) {
		e.dropped.Add(1)
		return
	}
	defer e.busy.Store(false)

	v, err := e.desc.Source.Result()
	if err != nil {
		e.sourceErrors.Add(1)
		return
	}
	e.desc.Dest.Store(v)
	e.transfers.Add(1)

	if !e.desc.AutoReload {
		e.armed.Store(false)
	}

	if e.pending.CompareAndSwap(false, true) {
		e.desc.OnComplete()
	}
}

// ClearInterrupt acknowledges the completion interrupt.
func (e *TransferEngine) ClearInterrupt() {
	e.pending.Store(false)
}

// InterruptPending reports whether the completion interrupt is raised and
// not yet acknowledged.
func (e *TransferEngine) InterruptPending() bool {
	return e.pending.Load()
}

// Armed reports whether the engine accepts requests.
func (e *TransferEngine) Armed() bool {
	return e.armed.Load()
}

// Stats returns the engine counters.
func (e *TransferEngine) Stats() Stats {
	return Stats{
		Transfers:    e.transfers.Load(),
		Dropped:      e.dropped.Load(),
		SourceErrors: e.sourceErrors.Load(),
	}
}
