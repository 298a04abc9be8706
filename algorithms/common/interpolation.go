package common

import (
	"math"
)

// ParabolicPeak refines a discrete peak location by fitting a parabola
// through the peak sample and its two neighbors and returning the
// fractional index of the vertex. It falls back to the discrete index when
// the peak sits on an edge, when the three points carry no curvature, or
// when the vertex lands outside the neighbor span (the points do not
// bracket a maximum).
func ParabolicPeak(data []float64, peakIdx int) float64 {
	if peakIdx <= 0 || peakIdx >= len(data)-1 {
		return float64(peakIdx)
	}

	y1 := data[peakIdx-1]
	y2 := data[peakIdx]
	y3 := data[peakIdx+1]

	a := (y1 - 2*y2 + y3) / 2.0
	b := (y3 - y1) / 2.0

	if math.Abs(a) < 1e-12 {
		return float64(peakIdx)
	}

	offset := -b / (2.0 * a)
	if offset < -1.0 || offset > 1.0 {
		return float64(peakIdx)
	}

	return float64(peakIdx) + offset
}
