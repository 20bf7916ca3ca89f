package logic

import (
	"fmt"
	"math"
)

// Thresholds is the boundary table of the classifier.
//
// Boundaries are the 0.5 V, 1.0 V ... 3.0 V points in converter units. They
// split the input range into seven bands; every band owns one blink tier and
// one color tier (see bands). Color changes only at Boundaries[1] (1.0 V)
// and Boundaries[3] (2.0 V).
//
// Leaving a band across one of its edges needs the sample to pass the edge by
// Factor*Width. FactorLeft applies when moving up into a band, FactorRight
// when moving down into it.
type Thresholds struct {
	Boundaries  [6]uint16
	Widths      [6]uint16
	FactorLeft  float64
	FactorRight float64
}

// Calibrated is the table measured on the board.
var Calibrated = Thresholds{
	Boundaries:  [6]uint16{9744, 19910, 30234, 39870, 49905, 60349},
	Widths:      [6]uint16{128, 628, 8, 8, 128, 1001},
	FactorLeft:  0,
	FactorRight: 1.1,
}

// Nominal is the table computed proportionally (65535 = 3.3 V), without
// hysteresis widths.
var Nominal = Thresholds{
	Boundaries:  [6]uint16{9930, 19859, 29789, 39718, 49648, 59577},
	FactorLeft:  0,
	FactorRight: 1.1,
}

// identity is what a band selects.
type identity struct {
	blink BlinkTier
	color ColorTier
}

// bands lists, bottom to top, the tiers selected by the band below
// Boundaries[0], between each pair of boundaries, and above Boundaries[5].
var bands = [7]identity{
	{BlinkLong, ColorGreen},
	{BlinkShort, ColorGreen},
	{BlinkLong, ColorBlue},
	{BlinkShort, ColorBlue},
	{BlinkLong, ColorRed},
	{BlinkShort, ColorRed},
	{BlinkNone, ColorRed},
}

// colorBands lists the color bands bottom to top; colorEdges are the
// Boundaries indexes separating them.
var (
	colorBands = [3]ColorTier{ColorGreen, ColorBlue, ColorRed}
	colorEdges = [2]int{1, 3}
)

// blinkTargets is the evaluation order of the blink band checks.
var blinkTargets = [3]BlinkTier{BlinkLong, BlinkShort, BlinkNone}

// lower returns the lower edge of the band above boundary i. The edge moves
// up by FactorLeft*Width when the sample is leaving the band below.
func (t Thresholds) lower(i int, leaving bool) float64 {
	edge := float64(t.Boundaries[i])
	if leaving {
		edge += t.FactorLeft * float64(t.Widths[i])
	}
	return edge
}

// upper returns the upper edge of the band below boundary i. The edge moves
// down by FactorRight*Width when the sample is leaving the band above.
func (t Thresholds) upper(i int, leaving bool) float64 {
	edge := float64(t.Boundaries[i])
	if leaving {
		edge -= t.FactorRight * float64(t.Widths[i])
	}
	return edge
}

// inBand reports whether s lies in band k as seen from the current identity.
func (t Thresholds) inBand(k int, s float64, cur identity) bool {
	if k > 0 && s < t.lower(k-1, cur == bands[k-1]) {
		return false
	}
	if k < len(bands)-1 && s >= t.upper(k, cur == bands[k+1]) {
		return false
	}
	return true
}

// inBlinkTier reports whether s lies in any band selecting tier.
func (t Thresholds) inBlinkTier(tier BlinkTier, s float64, cur identity) bool {
	for k, b := range bands {
		if b.blink == tier && t.inBand(k, s, cur) {
			return true
		}
	}
	return false
}

// inColorTier reports whether s lies in the band of color c as seen from the
// current color.
func (t Thresholds) inColorTier(c ColorTier, s float64, cur ColorTier) bool {
	for k, tier := range colorBands {
		if tier != c {
			continue
		}
		if k > 0 && s < t.lower(colorEdges[k-1], cur == colorBands[k-1]) {
			return false
		}
		if k < len(colorBands)-1 && s >= t.upper(colorEdges[k], cur == colorBands[k+1]) {
			return false
		}
		return true
	}
	return false
}

// Validate checks that every band stays non-empty with all margins applied,
// which keeps the band checks of each category mutually exclusive.
func (t Thresholds) Validate() error {
	for _, f := range []float64{t.FactorLeft, t.FactorRight} {
		if f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("hysteresis factor %v: must be finite and non-negative", f)
		}
	}
	if t.Boundaries[0] == 0 {
		return fmt.Errorf("boundary 0 must be above zero")
	}
	for i := 1; i < len(t.Boundaries); i++ {
		if t.Boundaries[i] <= t.Boundaries[i-1] {
			return fmt.Errorf("boundary %d (%d) not above boundary %d (%d)",
				i, t.Boundaries[i], i-1, t.Boundaries[i-1])
		}
	}
	if t.upper(0, true) <= 0 {
		return fmt.Errorf("margin at boundary 0 swallows the lowest band")
	}
	for i := 1; i < len(t.Boundaries); i++ {
		if t.upper(i, true) <= t.lower(i-1, true) {
			return fmt.Errorf("margins at boundaries %d and %d overlap (%.1f <= %.1f)",
				i-1, i, t.upper(i, true), t.lower(i-1, true))
		}
	}
	last := len(t.Boundaries) - 1
	if t.lower(last, true) > FullScale {
		return fmt.Errorf("margin at boundary %d exceeds full scale", last)
	}
	return nil
}

// MustValidate panics if the table is invalid.
func (t Thresholds) MustValidate() Thresholds {
	if err := t.Validate(); err != nil {
		panic(fmt.Sprintf("logic: invalid threshold table: %v", err))
	}
	return t
}
