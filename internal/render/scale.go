// Package render turns aggregated weather records into vector scenes and
// encodes them as SVG or PNG.
package render

import "math"

// Linear maps a numeric domain onto a visual range. The domain is padded by
// 10% of its span on both ends so bars never touch the plot edges.
type Linear struct {
	d0, d1 float64
	r0, r1 float64
}

// fallback domain when the input holds no present values, so degenerate
// series still render instead of blowing up
var fallbackDomain = [2]float64{0, 20}

func NewLinear(values []float64, r0, r1 float64) Linear {
	lo := math.Inf(1)
	hi := math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo > hi {
		lo, hi = fallbackDomain[0], fallbackDomain[1]
	}
	pad := (hi - lo) * 0.1
	return Linear{d0: lo - pad, d1: hi + pad, r0: r0, r1: r1}
}

func (l Linear) Map(v float64) float64 {
	if l.d1 == l.d0 {
		return (l.r0 + l.r1) / 2
	}
	t := (v - l.d0) / (l.d1 - l.d0)
	return l.r0 + t*(l.r1-l.r0)
}

func (l Linear) Domain() (float64, float64) { return l.d0, l.d1 }

// Band positions n equal-width groups along an axis with fixed padding
// between groups.
type Band struct {
	Width   int
	Padding int
}

// Pos returns the left edge of group i.
func (b Band) Pos(i int) int {
	return i * (b.Width + b.Padding)
}

// Span is the total axis length covering n groups.
func (b Band) Span(n int) int {
	if n == 0 {
		return 0
	}
	return n*(b.Width+b.Padding) - b.Padding
}
