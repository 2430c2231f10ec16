package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitBaseline_Exact(t *testing.T) {
	seg := segment(
		[]float64{-0.4, -0.2, 0.0, 0.2, 0.4},
		[]float64{0.5, 1.0, 9.0, 3.0, 3.5},
	)

	b, err := FitBaseline(seg, -0.2, 0.2)
	require.NoError(t, err)
	assert.Equal(t, MethodTwoAnchor, b.Method)
	assert.Equal(t, 5.0, b.Slope)
	assert.Equal(t, 2.0, b.Intercept)
	assert.Equal(t, [2]float64{-0.2, 0.2}, b.AnchorV)

	// Height at 0.0 V for a peak current of 10.0.
	p := Peak{Voltage: 0.0, Current: 10.0, Polarity: Oxidation}
	assert.Equal(t, 8.0, PeakHeight(p, b))
}

func TestFitBaseline_AnchorsClampToRange(t *testing.T) {
	seg := segment(
		[]float64{-0.2, 0.0, 0.2},
		[]float64{1.0, 2.0, 3.0},
	)

	// Anchors far outside the observed range clamp to the edge samples.
	b, err := FitBaseline(seg, -5.0, 5.0)
	require.NoError(t, err)
	assert.Equal(t, [2]float64{-0.2, 0.2}, b.AnchorV)
	assert.Equal(t, 5.0, b.Slope)
}

func TestFitBaseline_DegenerateAnchors(t *testing.T) {
	seg := segment(
		[]float64{0.0, 0.1, 0.2},
		[]float64{1.0, 4.0, 2.0},
	)

	// Both anchors resolve to the same sample: flat line through it.
	b, err := FitBaseline(seg, 0.1, 0.1)
	require.NoError(t, err)
	assert.Equal(t, 0.0, b.Slope)
	assert.Equal(t, 4.0, b.Intercept)
}

func TestFitBaseline_Underdetermined(t *testing.T) {
	_, err := FitBaseline(segment([]float64{0.1}, []float64{1.0}), 0, 0.1)
	assert.ErrorIs(t, err, ErrBaselineUnderdetermined)
}

func TestFitBaselineAroundPeak(t *testing.T) {
	seg := segment(
		[]float64{-0.2, -0.1, 0.0, 0.1, 0.2},
		[]float64{1.0, 2.0, 10.0, 4.0, 3.0},
	)

	b, err := FitBaselineAroundPeak(seg, 2)
	require.NoError(t, err)
	assert.Equal(t, MethodMinAroundPeak, b.Method)
	// Minimum before the peak is (-0.2, 1.0); after is (0.2, 3.0).
	assert.Equal(t, [2]float64{-0.2, 0.2}, b.AnchorV)
	assert.Equal(t, 5.0, b.Slope)
	assert.Equal(t, 2.0, b.Intercept)

	p := Peak{Index: 2, Voltage: 0.0, Current: 10.0, Polarity: Oxidation}
	assert.Equal(t, 8.0, PeakHeight(p, b))
}

func TestFitBaselineAroundPeak_PeakAtEdge(t *testing.T) {
	seg := segment([]float64{0, 0.1, 0.2}, []float64{1, 2, 3})
	_, err := FitBaselineAroundPeak(seg, 0)
	assert.ErrorIs(t, err, ErrBaselineUnderdetermined)
	_, err = FitBaselineAroundPeak(seg, 2)
	assert.ErrorIs(t, err, ErrBaselineUnderdetermined)
}

func TestPeakHeight_ReductionMagnitude(t *testing.T) {
	b := Baseline{Slope: 0, Intercept: -1.0}
	p := Peak{Voltage: 0.1, Current: -6.0, Polarity: Reduction}
	assert.Equal(t, 5.0, PeakHeight(p, b))
}
