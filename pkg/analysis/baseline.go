package analysis

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
)

// BaselineMethod tags how a baseline was fitted.
type BaselineMethod string

const (
	MethodTwoAnchor     BaselineMethod = "two-anchor"
	MethodMinAroundPeak BaselineMethod = "min-before-after-peak"
)

// ErrBaselineUnderdetermined is returned when a segment does not hold
// enough points on both sides of the fit to determine a line.
var ErrBaselineUnderdetermined = errors.New("analysis: not enough points to fit baseline")

// Baseline is a fitted reference line against which peak height is
// measured.
type Baseline struct {
	Slope     float64
	Intercept float64
	AnchorV   [2]float64 // the anchor voltages the line passes through
	Method    BaselineMethod
}

// Eval returns the baseline current at the given voltage.
func (b Baseline) Eval(v float64) float64 {
	return b.Slope*v + b.Intercept
}

// FitBaseline fits a line through the samples nearest the two anchor
// voltages. Anchors outside the segment's observed voltage range clamp
// to the nearest available sample; that is an explicit fallback, not an
// error.
func FitBaseline(seg Segment, anchor1, anchor2 float64) (Baseline, error) {
	if seg.Len() < 2 {
		return Baseline{}, ErrBaselineUnderdetermined
	}

	i1 := nearestIdx(seg.V, anchor1)
	i2 := nearestIdx(seg.V, anchor2)
	b := fitThrough(seg.V[i1], seg.I[i1], seg.V[i2], seg.I[i2])
	b.Method = MethodTwoAnchor
	return b, nil
}

// FitBaselineAroundPeak fits a line through the minimum-current points
// strictly before and strictly after the peak. This is the default
// strategy when no anchors are supplied; it is more robust on
// asymmetric single-scan data.
func FitBaselineAroundPeak(seg Segment, peakIdx int) (Baseline, error) {
	if peakIdx <= 0 || peakIdx >= seg.Len()-1 {
		return Baseline{}, ErrBaselineUnderdetermined
	}

	before := floats.MinIdx(seg.I[:peakIdx])
	after := peakIdx + 1 + floats.MinIdx(seg.I[peakIdx+1:])
	b := fitThrough(seg.V[before], seg.I[before], seg.V[after], seg.I[after])
	b.Method = MethodMinAroundPeak
	return b, nil
}

// PeakHeight is the baseline-relative peak height, reported as a
// positive magnitude for both polarities.
func PeakHeight(p Peak, b Baseline) float64 {
	return math.Abs(p.Current - b.Eval(p.Voltage))
}

func fitThrough(v1, i1, v2, i2 float64) Baseline {
	b := Baseline{AnchorV: [2]float64{v1, v2}}
	if v1 == v2 {
		// Degenerate anchors: flat baseline through the first point.
		b.Intercept = i1
		return b
	}
	b.Slope = (i2 - i1) / (v2 - v1)
	b.Intercept = i1 - b.Slope*v1
	return b
}

// nearestIdx returns the index of the sample voltage closest to v.
func nearestIdx(volts []float64, v float64) int {
	dist := make([]float64, len(volts))
	for i, x := range volts {
		dist[i] = math.Abs(x - v)
	}
	return floats.MinIdx(dist)
}
