package periph

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/sweeney/battery-alarm/internal/gpio"
	"github.com/sweeney/battery-alarm/internal/kernel"
	"github.com/sweeney/battery-alarm/internal/logic"
)

// Waveform timer modulo values. The indicator and the wave line toggle once
// per overflow, so each blink period is two overflows.
const (
	ReloadLong     = 0x5B8D // 10 Hz
	ReloadShort    = 0x2DC6 // 20 Hz
	ReloadShortest = 0x196D // 36 Hz
)

// Reload returns the modulo for a blink tier. ok is false for BlinkNone,
// which stops the counter.
func Reload(tier logic.BlinkTier) (modulo uint16, ok bool) {
	switch tier {
	case logic.BlinkLong:
		return ReloadLong, true
	case logic.BlinkShort:
		return ReloadShort, true
	case logic.BlinkShortest:
		return ReloadShortest, true
	case logic.BlinkNone:
		return 0, false
	}
	panic(fmt.Sprintf("periph: unknown blink tier %q", tier))
}

// WaveState is a snapshot of the waveform timer.
type WaveState struct {
	Running   bool
	Reload    uint16
	Indicator gpio.Line
	Phase     bool // current level of the indicator and the wave line
	Overflows uint64
}

// WaveTimer drives the indicator line and the debug wave line in lock-step
// from a reprogrammable counter. Every field below the ticker is shared with
// the overflow handler and only touched inside the critical section.
type WaveTimer struct {
	clock  Clock
	out    gpio.Writer
	crit   *kernel.Critical
	ticker *time.Ticker

	running   bool
	reload    uint16
	indicator gpio.Line
	phase     bool
	overflows uint64
	faults    uint64
}

// NewWaveTimer creates a stopped waveform timer driving indicator.
func NewWaveTimer(clock Clock, out gpio.Writer, crit *kernel.Critical, indicator gpio.Line) *WaveTimer {
	ticker := time.NewTicker(time.Hour)
	ticker.Stop()
	return &WaveTimer{
		clock:     clock,
		out:       out,
		crit:      crit,
		ticker:    ticker,
		indicator: indicator,
	}
}

// Clear drives every line low and resets the phase.
func (w *WaveTimer) Clear() error {
	w.crit.Enter()
	defer w.crit.Exit()

	w.phase = false
	var errs []error
	for _, line := range gpio.Lines {
		if err := w.out.Set(line, false); err != nil {
			errs = append(errs, fmt.Errorf("clear %s: %w", line, err))
		}
	}
	return errors.Join(errs...)
}

// Reprogram switches the counter to the cadence of tier. The new modulo takes
// effect with the counter restarted from zero. BlinkNone stops the counter
// and forces both lines low so the next start begins in phase.
func (w *WaveTimer) Reprogram(tier logic.BlinkTier) error {
	reload, ok := Reload(tier)

	w.crit.Enter()
	defer w.crit.Exit()

	if !ok {
		w.running = false
		w.ticker.Stop()
		w.phase = false
		return errors.Join(
			w.out.Set(w.indicator, false),
			w.out.Set(gpio.LineWave, false),
		)
	}

	period := w.clock.Period(reload)
	if period <= 0 {
		return fmt.Errorf("wave timer: invalid period %v for reload %#04x", period, reload)
	}
	w.reload = reload
	w.ticker.Reset(period)
	w.running = true
	return nil
}

// SetIndicator moves the waveform to another color line. The old line is
// turned off and the new one picks up the current phase.
func (w *WaveTimer) SetIndicator(line gpio.Line) error {
	if line == gpio.LineWave {
		return fmt.Errorf("wave timer: %s is not an indicator line", line)
	}

	w.crit.Enter()
	defer w.crit.Exit()

	var errs []error
	if line != w.indicator {
		if err := w.out.Set(w.indicator, false); err != nil {
			errs = append(errs, fmt.Errorf("release %s: %w", w.indicator, err))
		}
	}
	w.indicator = line
	if err := w.out.Set(line, w.running && w.phase); err != nil {
		errs = append(errs, fmt.Errorf("drive %s: %w", line, err))
	}
	return errors.Join(errs...)
}

// Overflow is the counter's overflow handler: it toggles the indicator and
// the wave line together.
func (w *WaveTimer) Overflow() {
	w.crit.Enter()
	defer w.crit.Exit()

	if !w.running {
		return
	}
	w.phase = !w.phase
	w.overflows++

	err := errors.Join(w.out.Toggle(w.indicator), w.out.Toggle(gpio.LineWave))
	if err != nil {
		w.faults++
		if w.faults == 1 {
			log.Printf("WARNING: wave timer toggle failed: %v", err)
		}
	}
}

// State returns a snapshot of the timer.
func (w *WaveTimer) State() WaveState {
	w.crit.Enter()
	defer w.crit.Exit()

	return WaveState{
		Running:   w.running,
		Reload:    w.reload,
		Indicator: w.indicator,
		Phase:     w.phase,
		Overflows: w.overflows,
	}
}

// Running reports whether the counter is counting.
func (w *WaveTimer) Running() bool {
	w.crit.Enter()
	defer w.crit.Exit()
	return w.running
}

// Run delivers counter overflows to Overflow until ctx is done.
func (w *WaveTimer) Run(ctx context.Context) {
	defer w.ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.ticker.C:
			w.Overflow()
		}
	}
}
