package status

import (
	"encoding/json"
	"math"
	"time"

	"github.com/sweeney/battery-alarm/internal/logic"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Sample        uint16       `json:"sample"`
	Volts         float64      `json:"volts"`
	Blink         string       `json:"blink"`
	Color         string       `json:"color"`
	Ready         bool         `json:"ready"`
	WaveRunning   bool         `json:"wave_running"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	Counts        CountsJSON   `json:"transition_counts"`
	Transfer      TransferJSON `json:"transfer"`
	Config        ConfigJSON   `json:"config"`
}

// CountsJSON is the JSON representation of transition counts.
type CountsJSON struct {
	Long     int `json:"long"`
	Short    int `json:"short"`
	Shortest int `json:"shortest"`
	None     int `json:"none"`
	Green    int `json:"green"`
	Blue     int `json:"blue"`
	Red      int `json:"red"`
}

// TransferJSON is the JSON representation of transfer engine counters.
type TransferJSON struct {
	Completed    uint64 `json:"completed"`
	Dropped      uint64 `json:"dropped"`
	SourceErrors uint64 `json:"source_errors"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	SamplePeriodMs int64  `json:"sample_period_ms"`
	HeartbeatMs    int64  `json:"heartbeat_ms"`
	Chip           string `json:"chip"`
	Port           string `json:"port"`
	BaudRate       int    `json:"baud_rate"`
	Table          string `json:"table"`
}

func buildInner(snap Snapshot) StatusInner {
	blink := string(snap.Blink)
	if blink == "" {
		blink = "UNKNOWN"
	}
	color := string(snap.Color)
	if color == "" {
		color = "UNKNOWN"
	}

	return StatusInner{
		Sample:        snap.Sample,
		Volts:         math.Round(logic.Volts(snap.Sample)*1000) / 1000,
		Blink:         blink,
		Color:         color,
		Ready:         snap.Sampled,
		WaveRunning:   snap.WaveRunning,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		Counts: CountsJSON{
			Long:     snap.Counts.Long,
			Short:    snap.Counts.Short,
			Shortest: snap.Counts.Shortest,
			None:     snap.Counts.None,
			Green:    snap.Counts.Green,
			Blue:     snap.Counts.Blue,
			Red:      snap.Counts.Red,
		},
		Transfer: TransferJSON{
			Completed:    snap.Transfer.Transfers,
			Dropped:      snap.Transfer.Dropped,
			SourceErrors: snap.Transfer.SourceErrors,
		},
		Config: ConfigJSON{
			SamplePeriodMs: snap.Config.SamplePeriodMs,
			HeartbeatMs:    snap.Config.HeartbeatMs,
			Chip:           snap.Config.Chip,
			Port:           snap.Config.Port,
			BaudRate:       snap.Config.BaudRate,
			Table:          snap.Config.Table,
		},
	}
}

// FormatJSON returns the indented JSON status (no event).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the compact JSON status tagged with an event name,
// for log lines.
func FormatStatusEvent(snap Snapshot, event string) []byte {
	inner := buildInner(snap)
	inner.Event = event

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
