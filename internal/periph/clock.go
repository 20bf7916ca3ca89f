// Package periph models the peripherals of the acquisition chain as owned
// handles: the sampling trigger, the transfer engine with its destination
// cell, and the waveform timer.
package periph

import "time"

// Board timer configuration.
const (
	BusClockHz = 60000000
	Prescale   = 128

	// SampleModulo is the sampling trigger's modulo: one conversion every
	// 65536 prescaled ticks (~7.15 Hz).
	SampleModulo = 0xFFFF
)

// Clock is a timer's input clock after the prescaler.
type Clock struct {
	SourceHz uint32
	Prescale uint32
}

// BusClock is the clock feeding both timers.
var BusClock = Clock{SourceHz: BusClockHz, Prescale: Prescale}

// Period returns the time a counter clocked by c takes to count from zero
// through modulo and overflow.
func (c Clock) Period(modulo uint16) time.Duration {
	if c.SourceHz == 0 {
		return 0
	}
	ticks := (uint64(modulo) + 1) * uint64(c.Prescale)
	return time.Duration(ticks * uint64(time.Second) / uint64(c.SourceHz))
}
