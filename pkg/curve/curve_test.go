package curve

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/gopstat/pkg/telemetry"
)

func sampleAt(t, v, i float64) telemetry.Sample {
	return telemetry.Sample{Kind: telemetry.ScanCV, Time: t, Potential: v, Current: i}
}

func TestCurve_AppendAndSnapshot(t *testing.T) {
	c := New(telemetry.ScanCV, 1)

	require.True(t, c.Append(sampleAt(0, -0.4, 1e-6)))
	require.True(t, c.Append(sampleAt(0.1, -0.3, 2e-6)))
	assert.Equal(t, 2, c.Len())

	snap := c.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, -0.4, snap[0].Potential)
	assert.Equal(t, -0.3, snap[1].Potential)

	// Snapshot is a copy; mutating it must not touch the curve.
	snap[0].Potential = 99
	assert.Equal(t, -0.4, c.Snapshot()[0].Potential)
}

func TestCurve_FreezeIdempotent(t *testing.T) {
	c := New(telemetry.ScanCA, 1)
	require.True(t, c.Append(sampleAt(0, 0.5, 1e-6)))

	c.Freeze()
	c.Freeze()
	assert.True(t, c.Frozen())

	before := c.Snapshot()
	for i := 0; i < 10; i++ {
		assert.False(t, c.Append(sampleAt(float64(i), 0, 0)))
	}
	assert.Equal(t, before, c.Snapshot())
	assert.Equal(t, 10, c.Dropped())
}

func TestCurve_SnapshotWhileAppending(t *testing.T) {
	c := New(telemetry.ScanCV, 1)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			c.Append(sampleAt(float64(i), 0, 0))
		}
		c.Freeze()
	}()

	// Concurrent reader polling snapshots must observe only fully
	// formed prefixes of the append order.
	for {
		snap := c.Snapshot()
		for i, s := range snap {
			require.Equal(t, float64(i), s.Time)
		}
		if c.Frozen() && len(snap) == 1000 {
			break
		}
	}
	wg.Wait()
}
