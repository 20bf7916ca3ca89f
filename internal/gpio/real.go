//go:build linux

package gpio

import (
	"fmt"
	"sync"

	"github.com/warthog618/go-gpiocdev"
)

// RealWriter drives lines on actual hardware using Linux GPIO character device.
type RealWriter struct {
	mu     sync.Mutex
	chip   *gpiocdev.Chip
	lines  map[Line]*gpiocdev.Line
	levels map[Line]int
}

// NewRealWriter requests every line as an output, initially off.
// With ledActiveLow the color lines are inverted by the kernel, so a logical
// on drives the pin low (common-anode LEDs such as the FRDM board's).
func NewRealWriter(chipName string, pins Pins, ledActiveLow bool) (*RealWriter, error) {
	chip, err := gpiocdev.NewChip(chipName, gpiocdev.WithConsumer("battery-alarm"))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	w := &RealWriter{
		chip:   chip,
		lines:  make(map[Line]*gpiocdev.Line),
		levels: make(map[Line]int),
	}

	for _, line := range Lines {
		opts := []gpiocdev.LineReqOption{gpiocdev.AsOutput(0)}
		if ledActiveLow && line != LineWave {
			opts = append(opts, gpiocdev.AsActiveLow)
		}
		l, err := chip.RequestLine(pins.Offset(line), opts...)
		if err != nil {
			w.Close()
			return nil, fmt.Errorf("request %s pin %d: %w", line, pins.Offset(line), err)
		}
		w.lines[line] = l
		w.levels[line] = 0
	}

	return w, nil
}

// Set drives the line on or off.
func (w *RealWriter) Set(line Line, on bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	v := 0
	if on {
		v = 1
	}
	return w.write(line, v)
}

// Toggle inverts the last level written to the line.
func (w *RealWriter) Toggle(line Line) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.write(line, 1-w.levels[line])
}

func (w *RealWriter) write(line Line, v int) error {
	l, ok := w.lines[line]
	if !ok {
		return fmt.Errorf("line %s not requested", line)
	}
	if err := l.SetValue(v); err != nil {
		return fmt.Errorf("set %s pin: %w", line, err)
	}
	w.levels[line] = v
	return nil
}

// Close turns every line off and releases GPIO resources.
// Lines are reconfigured as inputs before closing so nothing is left driven
// across a reboot.
func (w *RealWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var errs []error

	for _, line := range Lines {
		l, ok := w.lines[line]
		if !ok {
			continue
		}
		if err := l.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("clear %s pin: %w", line, err))
		}
		if err := l.Reconfigure(gpiocdev.AsInput); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure %s pin: %w", line, err))
		}
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s pin: %w", line, err))
		}
		delete(w.lines, line)
	}
	if w.chip != nil {
		if err := w.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
		w.chip = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
