package logic

import "time"

// Input is a single converter result handed to the classifier.
type Input struct {
	Sample uint16
	Time   time.Time
}

// Classifier maps samples to blink and color tiers with one-sided,
// state-dependent hysteresis.
type Classifier struct {
	table         Thresholds
	blink         BlinkTier
	color         ColorTier
	startTime     time.Time
	counts        Counts
	lastHeartbeat time.Time
}

// NewClassifier creates a classifier in the initial tiers.
// The startTime is used for calculating uptime in heartbeat data.
func NewClassifier(table Thresholds, startTime time.Time) *Classifier {
	return &Classifier{
		table:         table,
		blink:         InitialBlink,
		color:         InitialColor,
		startTime:     startTime,
		lastHeartbeat: startTime,
	}
}

// Classify evaluates one sample and returns the tier changes it causes, blink
// first. It returns nil when the sample lies in the active tiers or inside a
// hysteresis margin.
func (c *Classifier) Classify(in Input) []Transition {
	s := float64(in.Sample)
	var out []Transition

	// Blink bands are checked with the color that was active before this
	// sample.
	if next, ok := c.nextBlink(s); ok {
		out = append(out, Transition{
			Timestamp: in.Time,
			Kind:      KindBlink,
			Sample:    in.Sample,
			FromBlink: c.blink,
			ToBlink:   next,
		})
		c.blink = next
		c.countBlink(next)
	}

	if next, ok := c.nextColor(s); ok {
		out = append(out, Transition{
			Timestamp: in.Time,
			Kind:      KindColor,
			Sample:    in.Sample,
			FromColor: c.color,
			ToColor:   next,
		})
		c.color = next
		c.countColor(next)
	}

	return out
}

func (c *Classifier) nextBlink(s float64) (BlinkTier, bool) {
	cur := identity{c.blink, c.color}
	for _, tier := range blinkTargets {
		if tier == c.blink {
			continue
		}
		if c.table.inBlinkTier(tier, s, cur) {
			return tier, true
		}
	}
	return c.blink, false
}

func (c *Classifier) nextColor(s float64) (ColorTier, bool) {
	for _, tier := range colorBands {
		if tier == c.color {
			continue
		}
		if c.table.inColorTier(tier, s, c.color) {
			return tier, true
		}
	}
	return c.color, false
}

func (c *Classifier) countBlink(t BlinkTier) {
	switch t {
	case BlinkLong:
		c.counts.Long++
	case BlinkShort:
		c.counts.Short++
	case BlinkShortest:
		c.counts.Shortest++
	case BlinkNone:
		c.counts.None++
	}
}

func (c *Classifier) countColor(t ColorTier) {
	switch t {
	case ColorGreen:
		c.counts.Green++
	case ColorBlue:
		c.counts.Blue++
	case ColorRed:
		c.counts.Red++
	}
}

// Current returns the active tiers.
func (c *Classifier) Current() (BlinkTier, ColorTier) {
	return c.blink, c.color
}

// Counts returns a copy of the transition counters.
func (c *Classifier) Counts() Counts {
	return c.counts
}

// Table returns the threshold table in use.
func (c *Classifier) Table() Thresholds {
	return c.table
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if the interval has not elapsed or
// if interval is <= 0 (disabled).
func (c *Classifier) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}

	if now.Sub(c.lastHeartbeat) < interval {
		return nil
	}

	c.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(c.startTime),
		Counts:    c.counts,
	}
}
