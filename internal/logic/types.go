// Package logic contains the pure classification logic of the battery alarm.
// This package has NO external dependencies (no GPIO, timers, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import "time"

// BlinkTier selects the blink cadence of the indicator.
type BlinkTier string

const (
	BlinkLong     BlinkTier = "LONG"
	BlinkShort    BlinkTier = "SHORT"
	BlinkShortest BlinkTier = "SHORTEST"
	BlinkNone     BlinkTier = "NONE" // indicator steady off
)

// ColorTier selects which of the three color lines is driven.
type ColorTier string

const (
	ColorGreen ColorTier = "GREEN"
	ColorBlue  ColorTier = "BLUE"
	ColorRed   ColorTier = "RED"
)

// Initial tiers, in force until the first sample is classified.
const (
	InitialBlink = BlinkShortest
	InitialColor = ColorGreen
)

// TransitionKind tells which category a transition belongs to.
type TransitionKind string

const (
	KindBlink TransitionKind = "BLINK"
	KindColor TransitionKind = "COLOR"
)

// Transition is a tier change decided by the classifier.
// For KindBlink only the Blink fields are meaningful, for KindColor only the
// Color fields.
type Transition struct {
	Timestamp time.Time
	Kind      TransitionKind
	Sample    uint16
	FromBlink BlinkTier
	ToBlink   BlinkTier
	FromColor ColorTier
	ToColor   ColorTier
}

// Counts tracks the number of transitions into each tier since startup.
type Counts struct {
	Long     int
	Short    int
	Shortest int
	None     int
	Green    int
	Blue     int
	Red      int
}

// HeartbeatData contains information for a heartbeat log line.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    Counts
}

// FullScale is the converter value that corresponds to ReferenceVolts.
const (
	FullScale      = 65535
	ReferenceVolts = 3.3
)

// Volts converts a 16-bit converter result into volts.
func Volts(sample uint16) float64 {
	return float64(sample) * ReferenceVolts / FullScale
}
