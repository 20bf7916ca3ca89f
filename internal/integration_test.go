package internal

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sweeney/battery-alarm/internal/adc"
	"github.com/sweeney/battery-alarm/internal/gpio"
	"github.com/sweeney/battery-alarm/internal/kernel"
	"github.com/sweeney/battery-alarm/internal/logic"
	"github.com/sweeney/battery-alarm/internal/monitor"
	"github.com/sweeney/battery-alarm/internal/periph"
	"github.com/sweeney/battery-alarm/internal/status"
)

var startTime = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

// chain wires converter -> transfer engine -> cell -> bridge -> semaphore ->
// monitor -> wave timer -> GPIO, all on fakes.
type chain struct {
	conv    *adc.FakeConverter
	engine  *periph.TransferEngine
	cell    *periph.Cell
	sem     *kernel.Semaphore
	out     *gpio.FakeWriter
	wave    *periph.WaveTimer
	tracker *status.Tracker
	mon     *monitor.Monitor
}

func newChain(t *testing.T, waveClock periph.Clock) *chain {
	t.Helper()
	c := &chain{
		conv:    adc.NewFakeConverter(0),
		engine:  periph.NewTransferEngine(),
		cell:    &periph.Cell{},
		sem:     kernel.NewSemaphore(),
		out:     gpio.NewFakeWriter(),
		tracker: status.NewTracker(startTime, status.Config{Table: "calibrated"}),
	}
	bridge := monitor.NewBridge(c.sem, c.engine)
	if err := c.engine.Program(periph.Descriptor{
		Source:     c.conv,
		Dest:       c.cell,
		Width:      periph.ElementWidth,
		Count:      1,
		AutoReload: true,
		OnComplete: bridge.TransferComplete,
	}); err != nil {
		t.Fatalf("program transfer engine: %v", err)
	}

	c.wave = periph.NewWaveTimer(waveClock, c.out, &kernel.Critical{}, gpio.LineGreen)
	classifier := logic.NewClassifier(logic.Calibrated.MustValidate(), startTime)
	c.mon = monitor.New(c.sem, c.cell, classifier, c.wave, monitor.Options{
		Tracker: c.tracker,
		Now:     func() time.Time { return startTime },
		Transfers: func() status.TransferStats {
			s := c.engine.Stats()
			return status.TransferStats{Transfers: s.Transfers, Dropped: s.Dropped, SourceErrors: s.SourceErrors}
		},
	})
	if err := c.mon.Start(); err != nil {
		t.Fatalf("start monitor: %v", err)
	}
	return c
}

// convert runs one conversion through the whole chain synchronously.
func (c *chain) convert(t *testing.T, v uint16) []logic.Transition {
	t.Helper()
	c.conv.Set(v)
	c.engine.Request()
	if !c.sem.TryPend() {
		t.Fatalf("sample %d: semaphore not posted", v)
	}
	return c.mon.Step()
}

// TestIntegrationFullFlow walks the calibrated table up and down through its
// hysteresis margins.
func TestIntegrationFullFlow(t *testing.T) {
	c := newChain(t, periph.BusClock)

	steps := []struct {
		sample    uint16
		wantCount int
		wantBlink logic.BlinkTier
		wantColor logic.ColorTier
	}{
		{5000, 1, logic.BlinkLong, logic.ColorGreen},
		{15000, 1, logic.BlinkShort, logic.ColorGreen},
		{19950, 2, logic.BlinkLong, logic.ColorBlue},   // just over the boundary
		{19800, 0, logic.BlinkLong, logic.ColorBlue},   // inside the falling margin
		{19000, 2, logic.BlinkShort, logic.ColorGreen}, // below the margin
		{65000, 2, logic.BlinkNone, logic.ColorRed},
		{60000, 0, logic.BlinkNone, logic.ColorRed}, // inside the falling margin
		{59000, 1, logic.BlinkShort, logic.ColorRed},
	}

	for i, s := range steps {
		ts := c.convert(t, s.sample)
		if len(ts) != s.wantCount {
			t.Fatalf("step %d (%d): expected %d transitions, got %d: %+v", i, s.sample, s.wantCount, len(ts), ts)
		}

		snap := c.tracker.Snapshot()
		if snap.Blink != s.wantBlink || snap.Color != s.wantColor {
			t.Fatalf("step %d (%d): expected %s/%s, got %s/%s", i, s.sample, s.wantBlink, s.wantColor, snap.Blink, snap.Color)
		}

		st := c.wave.State()
		if st.Running != (s.wantBlink != logic.BlinkNone) {
			t.Errorf("step %d: wave running=%v with blink %s", i, st.Running, s.wantBlink)
		}
		if st.Indicator != monitor.ColorLine(s.wantColor) {
			t.Errorf("step %d: indicator %s, want %s", i, st.Indicator, monitor.ColorLine(s.wantColor))
		}
	}

	if st := c.wave.State(); st.Reload != periph.ReloadShort {
		t.Errorf("final reload: got %#04x, want %#04x", st.Reload, periph.ReloadShort)
	}

	want := logic.Counts{Long: 2, Short: 3, None: 1, Green: 1, Blue: 1, Red: 1}
	snap := c.tracker.Snapshot()
	if snap.Counts != want {
		t.Errorf("counts: got %+v, want %+v", snap.Counts, want)
	}
	if snap.Transfer.Transfers != uint64(len(steps)) {
		t.Errorf("transfers: got %d, want %d", snap.Transfer.Transfers, len(steps))
	}

	var parsed status.StatusJSON
	if err := json.Unmarshal(status.FormatJSON(snap), &parsed); err != nil {
		t.Fatalf("invalid status JSON: %v", err)
	}
	if parsed.Status.Sample != 59000 || parsed.Status.Blink != "SHORT" || parsed.Status.Color != "RED" {
		t.Errorf("status JSON: got sample=%d %s/%s", parsed.Status.Sample, parsed.Status.Blink, parsed.Status.Color)
	}
}

// TestIntegrationOnlyOneColorLit checks after every overflow that no two
// color lines are lit and that the wave line follows the indicator.
func TestIntegrationOnlyOneColorLit(t *testing.T) {
	c := newChain(t, periph.BusClock)
	colors := []gpio.Line{gpio.LineGreen, gpio.LineBlue, gpio.LineRed}

	for _, v := range []uint16{5000, 25000, 45000, 15000, 65000, 35000, 1000} {
		c.convert(t, v)
		for i := 0; i < 3; i++ {
			c.wave.Overflow()

			lit := 0
			for _, line := range colors {
				if c.out.Level(line) {
					lit++
				}
			}
			if lit > 1 {
				t.Fatalf("sample %d: %d color lines lit", v, lit)
			}

			st := c.wave.State()
			if c.out.Level(st.Indicator) != c.out.Level(gpio.LineWave) {
				t.Fatalf("sample %d: indicator %s out of phase with wave line", v, st.Indicator)
			}
		}
	}
}

// TestIntegrationSourceErrorSkipsWake checks that a failed conversion does not
// wake the task.
func TestIntegrationSourceErrorSkipsWake(t *testing.T) {
	c := newChain(t, periph.BusClock)
	c.convert(t, 25000)

	c.conv.ResultError = errors.New("converter not ready")
	c.engine.Request()
	if c.sem.TryPend() {
		t.Fatal("semaphore posted without a transfer")
	}
	if got := c.engine.Stats().SourceErrors; got != 1 {
		t.Errorf("source errors: got %d, want 1", got)
	}
	if got := c.cell.Load(); got != 25000 {
		t.Errorf("cell: got %d, want 25000", got)
	}
}

// TestIntegrationRunning runs the trigger, the wave timer and the task
// concurrently, as the daemon does.
func TestIntegrationRunning(t *testing.T) {
	fast := periph.Clock{SourceHz: 1000000, Prescale: 1}
	c := newChain(t, fast)
	trigger := periph.NewTrigger(fast, 999)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		if err := trigger.Run(ctx, c.engine.Request); err != nil {
			t.Errorf("trigger: %v", err)
		}
	}()
	go func() {
		defer wg.Done()
		c.wave.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		if err := c.mon.Run(ctx); err != nil {
			t.Errorf("monitor: %v", err)
		}
	}()

	waitFor := func(what string, cond func() bool) {
		t.Helper()
		deadline := time.Now().Add(2 * time.Second)
		for !cond() {
			if time.Now().After(deadline) {
				cancel()
				wg.Wait()
				t.Fatalf("timed out waiting for %s", what)
			}
			time.Sleep(time.Millisecond)
		}
	}

	c.conv.Set(65000)
	waitFor("NONE/RED", func() bool {
		snap := c.tracker.Snapshot()
		return snap.Blink == logic.BlinkNone && snap.Color == logic.ColorRed
	})
	for _, line := range gpio.Lines {
		if c.out.Level(line) {
			t.Errorf("%s lit while blink is NONE", line)
		}
	}

	c.conv.Set(5000)
	waitFor("LONG/GREEN", func() bool {
		snap := c.tracker.Snapshot()
		return snap.Blink == logic.BlinkLong && snap.Color == logic.ColorGreen
	})
	before := c.out.Toggles(gpio.LineGreen)
	waitFor("green toggling", func() bool { return c.out.Toggles(gpio.LineGreen) > before+2 })

	cancel()
	wg.Wait()

	if c.engine.Stats().Transfers == 0 {
		t.Error("expected transfers")
	}
}
