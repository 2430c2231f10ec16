package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/gopstat/pkg/telemetry"
)

func samplesFrom(volts []float64, currents []float64) []telemetry.Sample {
	out := make([]telemetry.Sample, len(volts))
	for i := range volts {
		s := telemetry.Sample{Kind: telemetry.ScanCV, Time: float64(i), Potential: volts[i]}
		if currents != nil {
			s.Current = currents[i]
		}
		out[i] = s
	}
	return out
}

func TestSegmentation_Sawtooth(t *testing.T) {
	volts := []float64{-0.4, -0.2, 0, 0.2, 0.4, 0.6, 0.7, 0.5, 0.3, 0.1, -0.1, -0.3, -0.4}
	g := NewSegmentation(samplesFrom(volts, nil))

	assert.Equal(t, 6, g.MaxIdx, "max must land on the 0.7 sample")
	assert.Equal(t, 12, g.MinIdx, "min must land on the trailing -0.4 sample")
	assert.Equal(t, []int{2, 10}, g.ZeroCrossings)

	q1 := g.Quadrant(1)
	require.Equal(t, 7, q1.Len())
	assert.Equal(t, -0.4, q1.V[0])
	assert.Equal(t, 0.7, q1.V[q1.Len()-1])

	q2 := g.Quadrant(2)
	require.Equal(t, 7, q2.Len())
	assert.Equal(t, 0.7, q2.V[0])
	assert.Equal(t, -0.4, q2.V[q2.Len()-1])

	// Quadrant 3 starts at the last zero-crossing before the minimum.
	q3 := g.Quadrant(3)
	require.Equal(t, 3, q3.Len())
	assert.Equal(t, -0.1, q3.V[0])
	assert.Equal(t, -0.4, q3.V[q3.Len()-1])

	q4 := g.Quadrant(4)
	require.Equal(t, 1, q4.Len())
	assert.Equal(t, -0.4, q4.V[0])
}

func TestSegmentation_DirectionSets(t *testing.T) {
	volts := []float64{-0.4, -0.2, 0, 0.2, 0.4, 0.6, 0.7, 0.5, 0.3, 0.1, -0.1, -0.3, -0.4}
	g := NewSegmentation(samplesFrom(volts, nil))

	assert.Equal(t, g.Quadrant(1), g.Anodic(false))
	assert.Equal(t, g.Quadrant(2), g.Cathodic(false))

	wrapped := g.Anodic(true)
	assert.Equal(t, g.Quadrant(4).Len()+g.Quadrant(1).Len(), wrapped.Len())
	assert.Equal(t, g.Quadrant(4).V[0], wrapped.V[0])

	cat := g.Cathodic(true)
	assert.Equal(t, g.Quadrant(2).Len()+g.Quadrant(3).Len(), cat.Len())
}

func TestSegmentation_NoSignChanges(t *testing.T) {
	// All-positive sweep: no zero-crossings, quadrant 3 empty.
	volts := []float64{0.1, 0.3, 0.5, 0.3, 0.1}
	g := NewSegmentation(samplesFrom(volts, nil))

	assert.Empty(t, g.ZeroCrossings)
	assert.True(t, g.Quadrant(3).Empty())
	assert.False(t, g.Quadrant(1).Empty())
}

func TestSegmentation_TooFewSamples(t *testing.T) {
	for _, n := range []int{0, 1, 2} {
		g := NewSegmentation(samplesFrom(make([]float64, n), nil))
		assert.Equal(t, -1, g.MaxIdx)
		assert.Equal(t, -1, g.MinIdx)
		for q := 1; q <= 4; q++ {
			assert.True(t, g.Quadrant(q).Empty(), "n=%d quadrant %d", n, q)
		}
		assert.True(t, g.Anodic(true).Empty())
		assert.True(t, g.Cathodic(true).Empty())
	}
}

func TestSegmentation_MaxTieKeepsFirst(t *testing.T) {
	volts := []float64{0, 0.5, 0.5, 0.2, -0.1}
	g := NewSegmentation(samplesFrom(volts, nil))
	assert.Equal(t, 1, g.MaxIdx)
}
