package render

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Canonical temperature color domain. The ramp is fixed rather than fitted
// per request so the same temperature always gets the same color across
// images.
const (
	TempRampMin = -40.0
	TempRampMax = 50.0
)

// Canonical hourly precipitation domain, in mm.
const (
	PrecipRampMin = 0.0
	PrecipRampMax = 5.0
)

// NeutralColor fills cells with no observation. Deliberately outside both
// ramps so a gap never reads as an extreme value.
const NeutralColor = "#e8e8e8"

type rampStop struct {
	at    float64
	color colorful.Color
}

var tempRamp = []rampStop{
	{-40, mustHex("#800080")}, // purple
	{-20, mustHex("#0000ff")}, // blue
	{0, mustHex("#008000")},   // green
	{15, mustHex("#ffff00")},  // yellow
	{30, mustHex("#ff0000")},  // red
	{50, mustHex("#8b0000")},  // dark red
}

var precipRamp = []rampStop{
	{0, mustHex("#f7fbff")},
	{1, mustHex("#9ecae1")},
	{2.5, mustHex("#4292c6")},
	{5, mustHex("#08306b")},
}

func mustHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// TempColor maps a temperature to its ramp color, clamped at both ends.
// Absent values map to the neutral color.
func TempColor(v float64) string {
	return rampColor(tempRamp, v)
}

// PrecipColor maps an hourly precipitation amount to its ramp color.
func PrecipColor(v float64) string {
	return rampColor(precipRamp, v)
}

// MetricColor selects the ramp for a grid metric.
func MetricColor(metric string) func(float64) string {
	if metric == "precipitation" {
		return PrecipColor
	}
	return TempColor
}

func rampColor(ramp []rampStop, v float64) string {
	if math.IsNaN(v) {
		return NeutralColor
	}
	if v <= ramp[0].at {
		return ramp[0].color.Hex()
	}
	last := ramp[len(ramp)-1]
	if v >= last.at {
		return last.color.Hex()
	}
	for i := 1; i < len(ramp); i++ {
		if v <= ramp[i].at {
			lo, hi := ramp[i-1], ramp[i]
			t := (v - lo.at) / (hi.at - lo.at)
			return lo.color.BlendRgb(hi.color, t).Hex()
		}
	}
	return last.color.Hex()
}
