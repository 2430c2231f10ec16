package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/itohio/gopstat/pkg/telemetry"
)

func TestScanParams_Kinds(t *testing.T) {
	assert.Equal(t, telemetry.ScanCA, CAParams{}.Kind())
	assert.Equal(t, telemetry.ScanCV, CVParams{}.Kind())
	assert.Equal(t, telemetry.ScanSWV, SWVParams{}.Kind())
	assert.Equal(t, telemetry.ScanDPV, DPVParams{}.Kind())
}

func TestCAParams_Validate(t *testing.T) {
	tests := []struct {
		name    string
		params  CAParams
		wantErr bool
	}{
		{
			name:   "valid",
			params: CAParams{InductionV: 0, InductionS: 2, ElectrolysisV: 0.5, ElectrolysisS: 30, RelaxV: 0, RelaxS: 2, CycleCount: 1},
		},
		{
			name:    "potential out of range",
			params:  CAParams{ElectrolysisV: 15, ElectrolysisS: 10},
			wantErr: true,
		},
		{
			name:    "zero electrolysis time",
			params:  CAParams{ElectrolysisV: 0.5, ElectrolysisS: 0},
			wantErr: true,
		},
		{
			name:    "negative induction time",
			params:  CAParams{ElectrolysisV: 0.5, ElectrolysisS: 10, InductionS: -1},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCVParams_Validate(t *testing.T) {
	valid := CVParams{StartV: -0.4, UpperV: 0.7, LowerV: -0.4, SweepRate: 0.1, CycleCount: 1}
	assert.NoError(t, valid.Validate())

	inverted := valid
	inverted.UpperV, inverted.LowerV = -0.4, 0.7
	assert.Error(t, inverted.Validate())

	outside := valid
	outside.StartV = 0.9
	assert.Error(t, outside.Validate())

	noRate := valid
	noRate.SweepRate = 0
	assert.Error(t, noRate.Validate())
}

func TestSWVParams_Validate(t *testing.T) {
	valid := SWVParams{Frequency: 25, Amplitude: 0.025, StepV: 0.005, StartV: -0.4, EndV: 0.7}
	assert.NoError(t, valid.Validate())

	flat := valid
	flat.EndV = flat.StartV
	assert.Error(t, flat.Validate())

	noFreq := valid
	noFreq.Frequency = 0
	assert.Error(t, noFreq.Validate())
}

func TestDPVParams_Validate(t *testing.T) {
	valid := DPVParams{InitV: -0.4, FinalV: 0.7, StepV: 0.005, PulseHeight: 0.05, PulseWidthS: 0.05, PeriodS: 0.2}
	assert.NoError(t, valid.Validate())

	wideP := valid
	wideP.PulseWidthS = 0.3
	assert.Error(t, wideP.Validate(), "pulse wider than period")

	noStep := valid
	noStep.StepV = 0
	assert.Error(t, noStep.Validate())
}

func TestScanParams_Duration(t *testing.T) {
	ca := CAParams{InductionS: 2, ElectrolysisS: 30, RelaxS: 2, ElectrolysisV: 0.5}
	assert.Equal(t, 34*time.Second, ca.Duration())

	cv := CVParams{UpperV: 0.6, LowerV: -0.4, SweepRate: 0.1}
	assert.InDelta(t, 20.0, cv.Duration().Seconds(), 1e-6)

	// Unusable rates degrade to zero rather than dividing by zero.
	assert.Equal(t, time.Duration(0), CVParams{UpperV: 1, LowerV: 0}.Duration())

	dpv := DPVParams{InitV: 0, FinalV: 0.5, StepV: 0.005, PeriodS: 0.2}
	assert.InDelta(t, 20.0, dpv.Duration().Seconds(), 1e-6)
}

func TestCycles_DefaultsToOne(t *testing.T) {
	assert.Equal(t, 1, CVParams{}.Cycles())
	assert.Equal(t, 3, CVParams{CycleCount: 3}.Cycles())
}
