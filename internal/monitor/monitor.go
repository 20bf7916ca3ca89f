package monitor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/sweeney/battery-alarm/internal/gpio"
	"github.com/sweeney/battery-alarm/internal/kernel"
	"github.com/sweeney/battery-alarm/internal/logic"
	"github.com/sweeney/battery-alarm/internal/status"
)

// Waveform is the output stage the task reprograms on transitions.
type Waveform interface {
	Clear() error
	Reprogram(tier logic.BlinkTier) error
	SetIndicator(line gpio.Line) error
	Running() bool
}

// SampleSource is the cell the transfer engine fills.
type SampleSource interface {
	Load() uint16
}

// Options configures a Monitor. Zero values disable the optional parts.
type Options struct {
	Tracker   *status.Tracker
	Heartbeat time.Duration
	Now       func() time.Time

	// Transfers, if set, is polled for engine counters on each step.
	Transfers func() status.TransferStats
}

// Monitor is the control task: it waits for a completed transfer, classifies
// the new sample and reprograms the outputs when a tier changes.
type Monitor struct {
	sem        *kernel.Semaphore
	cell       SampleSource
	classifier *logic.Classifier
	wave       Waveform
	opts       Options
}

// New creates a monitor. The classifier must be freshly created so its tiers
// match the outputs Start drives.
func New(sem *kernel.Semaphore, cell SampleSource, classifier *logic.Classifier, wave Waveform, opts Options) *Monitor {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Monitor{
		sem:        sem,
		cell:       cell,
		classifier: classifier,
		wave:       wave,
		opts:       opts,
	}
}

// ColorLine returns the output line that shows a color tier.
func ColorLine(c logic.ColorTier) gpio.Line {
	switch c {
	case logic.ColorGreen:
		return gpio.LineGreen
	case logic.ColorBlue:
		return gpio.LineBlue
	case logic.ColorRed:
		return gpio.LineRed
	}
	panic(fmt.Sprintf("monitor: unknown color tier %q", c))
}

// Start drives the outputs to the classifier's current tiers.
func (m *Monitor) Start() error {
	blink, color := m.classifier.Current()

	if err := m.wave.Clear(); err != nil {
		return fmt.Errorf("clear outputs: %w", err)
	}
	if err := m.wave.SetIndicator(ColorLine(color)); err != nil {
		return fmt.Errorf("select %s indicator: %w", color, err)
	}
	if err := m.wave.Reprogram(blink); err != nil {
		return fmt.Errorf("start %s blink: %w", blink, err)
	}

	log.Printf("outputs started: blink=%s color=%s", blink, color)
	return nil
}

// Run waits for samples and processes them until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	for {
		if err := m.sem.Pend(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		m.Step()
	}
}

// Step processes the sample currently in the cell and returns the
// transitions it caused.
func (m *Monitor) Step() []logic.Transition {
	t := m.opts.Now()
	sample := m.cell.Load()

	transitions := m.classifier.Classify(logic.Input{Sample: sample, Time: t})
	for _, tr := range transitions {
		m.apply(tr)
	}

	m.updateTracker(sample)

	if hb := m.classifier.CheckHeartbeat(t, m.opts.Heartbeat); hb != nil {
		m.heartbeat(hb, sample)
	}

	return transitions
}

func (m *Monitor) apply(tr logic.Transition) {
	switch tr.Kind {
	case logic.KindBlink:
		log.Printf("transition: blink %s -> %s (sample=%d %.3fV)",
			tr.FromBlink, tr.ToBlink, tr.Sample, logic.Volts(tr.Sample))
		if err := m.wave.Reprogram(tr.ToBlink); err != nil {
			log.Printf("reprogram wave timer: %v", err)
		}

	case logic.KindColor:
		log.Printf("transition: color %s -> %s (sample=%d %.3fV)",
			tr.FromColor, tr.ToColor, tr.Sample, logic.Volts(tr.Sample))
		if err := m.wave.SetIndicator(ColorLine(tr.ToColor)); err != nil {
			log.Printf("switch indicator: %v", err)
		}
	}
}

func (m *Monitor) updateTracker(sample uint16) {
	if m.opts.Tracker == nil {
		return
	}
	blink, color := m.classifier.Current()
	m.opts.Tracker.Update(sample, blink, color, m.classifier.Counts())
	m.opts.Tracker.SetWaveRunning(m.wave.Running())
	if m.opts.Transfers != nil {
		m.opts.Tracker.SetTransfer(m.opts.Transfers())
	}
}

func (m *Monitor) heartbeat(hb *logic.HeartbeatData, sample uint16) {
	c := hb.Counts
	log.Printf("heartbeat: uptime=%v sample=%d long=%d short=%d shortest=%d none=%d green=%d blue=%d red=%d",
		hb.Uptime.Truncate(time.Second), sample, c.Long, c.Short, c.Shortest, c.None, c.Green, c.Blue, c.Red)

	if m.opts.Tracker != nil {
		log.Printf("status: %s", status.FormatStatusEvent(m.opts.Tracker.Snapshot(), "HEARTBEAT"))
	}
}
