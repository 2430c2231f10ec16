package pstat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/gopstat/pkg/config"
	"github.com/itohio/gopstat/pkg/telemetry"
)

func TestStartCommands_CA(t *testing.T) {
	cmds, err := StartCommands(config.CAParams{
		InductionV: 0, InductionS: 2,
		ElectrolysisV: 0.5, ElectrolysisS: 30,
		RelaxV: -0.1, RelaxS: 5,
	})
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	assert.Equal(t, "POTEn:CA:STARt 0, 2, 0.5, 30, -0.1, 5", cmds[0])
}

func TestStartCommands_CV(t *testing.T) {
	cmds, err := StartCommands(config.CVParams{
		StartV: -0.4, UpperV: 0.7, LowerV: -0.4,
		SweepRate: 0.1, CycleCount: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"POTEn:VOLTage:UPPEr 0.7",
		"POTEn:VOLTage:LOWEr -0.4",
		"POTEn:VOLTage:STARt -0.4",
		"POTEn:RATE:SWEEp 0.1",
		"POTEn:CYCLic:COUNt 1",
		"POTEn:CYCLic:Start",
	}, cmds)
}

func TestStartCommands_SWV(t *testing.T) {
	cmds, err := StartCommands(config.SWVParams{
		Frequency: 25, Amplitude: 0.025, StepV: 0.005,
		StartV: -0.4, EndV: 0.7,
	})
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	assert.Equal(t, "POTEn:SWV:Start 25,0.025,0.005,-0.4,0.7", cmds[0])
}

func TestStartCommands_DPV(t *testing.T) {
	cmds, err := StartCommands(config.DPVParams{
		InitV: -0.4, FinalV: 0.7, StepV: 0.005,
		PulseHeight: 0.05, PulseWidthS: 0.05, PeriodS: 0.2,
	})
	require.NoError(t, err)
	require.Len(t, cmds, 7)
	assert.Equal(t, "POTEn:DPV:VOLT:INIT -0.4", cmds[0])
	assert.Equal(t, "POTEn:DPV:VOLT:PULSe:HEIGht 0.05", cmds[3])
	assert.Equal(t, "POTEn:DPV:Start", cmds[6])
}

func TestAbortCommand(t *testing.T) {
	assert.Equal(t, "POTEn:CA:ABORt", AbortCommand(telemetry.ScanCA))
	assert.Equal(t, "POTEn:CYCLic:Abort", AbortCommand(telemetry.ScanCV))
	assert.Equal(t, "POTEn:DPV:Abort", AbortCommand(telemetry.ScanDPV))
	assert.Equal(t, "POTEn:SWV:Abort", AbortCommand(telemetry.ScanSWV))
}
