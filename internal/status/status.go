// Package status provides a thread-safe status tracker for the battery alarm.
// The control task writes it after every sample; the heartbeat log and
// -print-state read it.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/battery-alarm/internal/logic"
)

// TransferStats mirrors the transfer engine counters so status does not
// import the peripheral package.
type TransferStats struct {
	Transfers    uint64
	Dropped      uint64
	SourceErrors uint64
}

// Config contains daemon configuration for display.
type Config struct {
	SamplePeriodMs int64
	HeartbeatMs    int64
	Chip           string
	Port           string // converter serial port
	BaudRate       int
	Table          string // threshold table name
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Sample      uint16
	Blink       logic.BlinkTier
	Color       logic.ColorTier
	Sampled     bool // at least one sample has been classified
	Counts      logic.Counts
	Transfer    TransferStats
	WaveRunning bool
	StartTime   time.Time
	Now         time.Time
	Config      Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker in the initial tiers.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			Blink:     logic.InitialBlink,
			Color:     logic.InitialColor,
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update records the last sample and the tiers it left in force.
// Called by the control task after every classification.
func (t *Tracker) Update(sample uint16, blink logic.BlinkTier, color logic.ColorTier, counts logic.Counts) {
	t.mu.Lock()
	t.snap.Sample = sample
	t.snap.Blink = blink
	t.snap.Color = color
	t.snap.Sampled = true
	t.snap.Counts = counts
	t.mu.Unlock()
}

// SetTransfer records the transfer engine counters.
func (t *Tracker) SetTransfer(stats TransferStats) {
	t.mu.Lock()
	t.snap.Transfer = stats
	t.mu.Unlock()
}

// SetWaveRunning records whether the waveform timer is counting.
func (t *Tracker) SetWaveRunning(running bool) {
	t.mu.Lock()
	t.snap.WaveRunning = running
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
