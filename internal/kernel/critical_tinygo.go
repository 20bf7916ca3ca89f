//go:build tinygo

package kernel

import "runtime/interrupt"

// Critical disables interrupts for the duration of the section.
type Critical struct {
	state interrupt.State
}

// Enter disables interrupts and saves the previous state.
func (c *Critical) Enter() {
	c.state = interrupt.Disable()
}

// Exit restores the interrupt state saved by Enter.
func (c *Critical) Exit() {
	interrupt.Restore(c.state)
}
