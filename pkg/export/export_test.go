package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/gopstat/pkg/config"
	"github.com/itohio/gopstat/pkg/curve"
	"github.com/itohio/gopstat/pkg/telemetry"
)

func TestFilename_Sanitized(t *testing.T) {
	params := config.CVParams{LowerV: -0.4, UpperV: 0.7, SweepRate: 0.1}
	now := time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)

	name := Filename("my project/№7", params, 2, now)
	assert.Equal(t, "my_project__7_CV_-0.4V_0.7V_0.1Vs_cyc2_20250314-150926.csv", name)
	assert.NotContains(t, name, "/")
	assert.NotContains(t, name, " ")
}

func TestFilename_LengthCapped(t *testing.T) {
	params := config.CAParams{ElectrolysisV: 0.5, ElectrolysisS: 30}
	long := strings.Repeat("x", 300)

	name := Filename(long, params, 1, time.Now())
	assert.LessOrEqual(t, len(name), maxStemLen+len(".csv"))
	assert.True(t, strings.HasSuffix(name, ".csv"))
}

func TestHeader_PerKind(t *testing.T) {
	assert.Equal(t, []string{"Mode", "Time", "Potential", "Current"}, Header(telemetry.ScanCA))
	assert.Equal(t, []string{"Mode", "Time", "Potential", "Current"}, Header(telemetry.ScanCV))
	assert.Len(t, Header(telemetry.ScanDPV), 6)
	assert.Len(t, Header(telemetry.ScanSWV), 6)
}

func TestWriteCurve_CA(t *testing.T) {
	dir := t.TempDir()
	c := curve.New(telemetry.ScanCA, 1)
	c.Append(telemetry.Sample{Kind: telemetry.ScanCA, Time: 0.1, Potential: 0.5, Current: 1e-6})
	c.Append(telemetry.Sample{Kind: telemetry.ScanCA, Time: 0.2, Potential: 0.5, Current: 2e-6})
	c.Freeze()

	params := config.CAParams{ElectrolysisV: 0.5, ElectrolysisS: 30}
	path, err := WriteCurve(dir, "proj", params, c, time.Now())
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Mode", "Time", "Potential", "Current"}, rows[0])
	assert.Equal(t, []string{"CA", "0.1", "0.5", "1e-06"}, rows[1])
	assert.Equal(t, []string{"CA", "0.2", "0.5", "2e-06"}, rows[2])
}

func TestWriteCurve_DPVColumns(t *testing.T) {
	dir := t.TempDir()
	c := curve.New(telemetry.ScanDPV, 1)
	c.Append(telemetry.Sample{
		Kind: telemetry.ScanDPV, Time: 0.2, Potential: -0.1,
		CurrentBefore: 1e-7, CurrentAfter: 3e-7, Current: 2e-7,
	})
	c.Freeze()

	params := config.DPVParams{InitV: -0.4, FinalV: 0.7, PulseHeight: 0.05}
	path, err := WriteCurve(dir, "proj", params, c, time.Now())
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, headerPulse, rows[0])
	assert.Equal(t, []string{"DPV", "0.2", "-0.1", "1e-07", "3e-07", "2e-07"}, rows[1])
}

func TestStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.db")
	store, err := OpenStore(path)
	require.NoError(t, err)
	defer store.Close()

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, store.Record(Result{
		RunID: "run-1", Kind: "CV", Cycle: 1, File: "a.csv", Samples: 100,
		HasPeak: true, PeakV: 0.25, PeakI: 4e-6, PeakHeight: 3.8e-6,
		CreatedAt: now,
	}))
	require.NoError(t, store.Record(Result{
		RunID: "run-1", Kind: "CV", Cycle: 2, File: "b.csv", Samples: 100,
		CreatedAt: now,
	}))
	require.NoError(t, store.Record(Result{
		RunID: "run-2", Kind: "CA", Cycle: 1, File: "c.csv", Samples: 50,
		CreatedAt: now,
	}))

	got, err := store.ByRun("run-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Cycle)
	assert.True(t, got[0].HasPeak)
	assert.Equal(t, 0.25, got[0].PeakV)
	assert.False(t, got[1].HasPeak)
}
