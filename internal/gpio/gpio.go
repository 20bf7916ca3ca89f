// Package gpio provides the indicator output lines with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import "fmt"

// Line names one output line.
type Line int

const (
	LineGreen Line = iota
	LineBlue
	LineRed
	LineWave // debug copy of the blink waveform
)

// Lines lists every output line.
var Lines = [...]Line{LineGreen, LineBlue, LineRed, LineWave}

func (l Line) String() string {
	switch l {
	case LineGreen:
		return "GREEN"
	case LineBlue:
		return "BLUE"
	case LineRed:
		return "RED"
	case LineWave:
		return "WAVE"
	}
	return fmt.Sprintf("Line(%d)", int(l))
}

// Writer drives output lines. Levels are logical: on = LED lit.
type Writer interface {
	// Set drives the line on or off.
	Set(line Line, on bool) error

	// Toggle inverts the line.
	Toggle(line Line) error

	// Close releases GPIO resources.
	Close() error
}

// Pins maps lines to chip line offsets.
type Pins struct {
	Green int
	Blue  int
	Red   int
	Wave  int
}

// Offset returns the chip line offset of line.
func (p Pins) Offset(line Line) int {
	switch line {
	case LineGreen:
		return p.Green
	case LineBlue:
		return p.Blue
	case LineRed:
		return p.Red
	case LineWave:
		return p.Wave
	}
	panic(fmt.Sprintf("gpio: unknown line %d", int(line)))
}

// Pin definitions (BCM numbering)
const (
	DefaultPinGreen = 17
	DefaultPinBlue  = 27
	DefaultPinRed   = 22
	DefaultPinWave  = 23
)
