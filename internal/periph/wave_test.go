package periph

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/battery-alarm/internal/gpio"
	"github.com/sweeney/battery-alarm/internal/kernel"
	"github.com/sweeney/battery-alarm/internal/logic"
)

func newWave(t *testing.T) (*WaveTimer, *gpio.FakeWriter) {
	t.Helper()
	out := gpio.NewFakeWriter()
	w := NewWaveTimer(BusClock, out, &kernel.Critical{}, gpio.LineGreen)
	require.NoError(t, w.Clear())
	return w, out
}

func TestReloadTable(t *testing.T) {
	tests := []struct {
		tier   logic.BlinkTier
		want   uint16
		wantOK bool
	}{
		{logic.BlinkLong, ReloadLong, true},
		{logic.BlinkShort, ReloadShort, true},
		{logic.BlinkShortest, ReloadShortest, true},
		{logic.BlinkNone, 0, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.tier), func(t *testing.T) {
			got, ok := Reload(tt.tier)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
		})
	}

	assert.Greater(t, uint16(ReloadLong), uint16(ReloadShort))
	assert.Greater(t, uint16(ReloadShort), uint16(ReloadShortest))
	assert.Panics(t, func() { Reload("FAST") })
}

func TestWaveStoppedIgnoresOverflow(t *testing.T) {
	w, out := newWave(t)

	w.Overflow()

	assert.False(t, w.State().Running)
	assert.Zero(t, out.Toggles(gpio.LineGreen))
	assert.Zero(t, out.Toggles(gpio.LineWave))
}

func TestWaveOverflowTogglesInLockStep(t *testing.T) {
	w, out := newWave(t)
	require.NoError(t, w.Reprogram(logic.BlinkLong))

	for i := 1; i <= 5; i++ {
		w.Overflow()
		st := w.State()
		assert.Equal(t, st.Phase, out.Level(gpio.LineGreen))
		assert.Equal(t, out.Level(gpio.LineGreen), out.Level(gpio.LineWave))
		assert.Equal(t, uint64(i), st.Overflows)
	}
	assert.Equal(t, uint16(ReloadLong), w.State().Reload)
}

func TestWaveReprogramKeepsRunning(t *testing.T) {
	w, _ := newWave(t)
	require.NoError(t, w.Reprogram(logic.BlinkShortest))
	require.NoError(t, w.Reprogram(logic.BlinkShort))

	st := w.State()
	assert.True(t, st.Running)
	assert.Equal(t, uint16(ReloadShort), st.Reload)
}

func TestWaveNoneForcesLinesLow(t *testing.T) {
	w, out := newWave(t)
	require.NoError(t, w.Reprogram(logic.BlinkShort))
	w.Overflow()
	require.True(t, out.Level(gpio.LineGreen))

	require.NoError(t, w.Reprogram(logic.BlinkNone))

	assert.False(t, out.Level(gpio.LineGreen))
	assert.False(t, out.Level(gpio.LineWave))
	assert.False(t, w.State().Running)

	// A late overflow must not light the indicator again.
	w.Overflow()
	assert.False(t, out.Level(gpio.LineGreen))
}

func TestWaveRestartsInPhase(t *testing.T) {
	w, out := newWave(t)
	require.NoError(t, w.Reprogram(logic.BlinkLong))
	w.Overflow()
	require.NoError(t, w.Reprogram(logic.BlinkNone))
	require.NoError(t, w.Reprogram(logic.BlinkLong))

	w.Overflow()
	assert.True(t, out.Level(gpio.LineGreen))
	assert.True(t, out.Level(gpio.LineWave))
}

func TestWaveSetIndicatorMovesWaveform(t *testing.T) {
	w, out := newWave(t)
	require.NoError(t, w.Reprogram(logic.BlinkLong))
	w.Overflow()

	require.NoError(t, w.SetIndicator(gpio.LineRed))

	assert.False(t, out.Level(gpio.LineGreen))
	assert.True(t, out.Level(gpio.LineRed))
	assert.Equal(t, gpio.LineRed, w.State().Indicator)

	w.Overflow()
	assert.False(t, out.Level(gpio.LineRed))
	assert.False(t, out.Level(gpio.LineWave))
	assert.Equal(t, 1, out.Toggles(gpio.LineGreen))
}

func TestWaveSetIndicatorWhileStopped(t *testing.T) {
	w, out := newWave(t)
	require.NoError(t, w.Reprogram(logic.BlinkNone))

	require.NoError(t, w.SetIndicator(gpio.LineBlue))

	for _, line := range gpio.Lines {
		assert.False(t, out.Level(line), line.String())
	}
}

func TestWaveSetIndicatorRejectsWaveLine(t *testing.T) {
	w, _ := newWave(t)
	assert.Error(t, w.SetIndicator(gpio.LineWave))
}

func TestWaveWriteErrors(t *testing.T) {
	w, out := newWave(t)
	require.NoError(t, w.Reprogram(logic.BlinkLong))

	out.WriteError = errors.New("line busy")
	w.Overflow()
	assert.Equal(t, uint64(1), w.State().Overflows)

	assert.Error(t, w.SetIndicator(gpio.LineBlue))
	assert.Error(t, w.Reprogram(logic.BlinkNone))
	assert.Error(t, w.Clear())
}

func TestWaveRunDeliversOverflows(t *testing.T) {
	out := gpio.NewFakeWriter()
	// 1 MHz, no prescale: the shortest reload overflows every 6.5 ms.
	w := NewWaveTimer(Clock{SourceHz: 1000000, Prescale: 1}, out, &kernel.Critical{}, gpio.LineBlue)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	// Stopped: nothing toggles.
	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, out.Toggles(gpio.LineBlue))

	require.NoError(t, w.Reprogram(logic.BlinkShortest))
	assert.Eventually(t, func() bool { return out.Toggles(gpio.LineBlue) >= 3 }, time.Second, time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, out.Toggles(gpio.LineBlue), out.Toggles(gpio.LineWave))
}
