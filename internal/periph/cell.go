package periph

import "sync/atomic"

// Cell is the memory cell the transfer engine writes each result into.
// Every store replaces the whole word, and every load observes the latest
// store; nothing caches it across the task's wait.
type Cell struct {
	v atomic.Uint32
}

// Store replaces the cell value.
func (c *Cell) Store(v uint16) {
	c.v.Store(uint32(v))
}

// Load returns the cell value.
func (c *Cell) Load() uint16 {
	return uint16(c.v.Load())
}
