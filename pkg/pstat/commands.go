package pstat

import (
	"fmt"

	"github.com/itohio/gopstat/pkg/config"
	"github.com/itohio/gopstat/pkg/telemetry"
)

// StartCommands serializes a parameter set into the outbound command
// sequence that arms and starts the scan. CA and SWV start with a
// single command carrying the parameters inline; CV and DPV stage their
// parameters first and start with a bare trigger.
func StartCommands(p config.ScanParams) ([]string, error) {
	switch q := p.(type) {
	case config.CAParams:
		return []string{
			fmt.Sprintf("POTEn:CA:STARt %g, %g, %g, %g, %g, %g",
				q.InductionV, q.InductionS,
				q.ElectrolysisV, q.ElectrolysisS,
				q.RelaxV, q.RelaxS),
		}, nil
	case config.CVParams:
		return []string{
			fmt.Sprintf("POTEn:VOLTage:UPPEr %g", q.UpperV),
			fmt.Sprintf("POTEn:VOLTage:LOWEr %g", q.LowerV),
			fmt.Sprintf("POTEn:VOLTage:STARt %g", q.StartV),
			fmt.Sprintf("POTEn:RATE:SWEEp %g", q.SweepRate),
			// The host sequences cycles itself, one start per cycle, so
			// the firmware always runs a single sweep.
			"POTEn:CYCLic:COUNt 1",
			"POTEn:CYCLic:Start",
		}, nil
	case config.SWVParams:
		return []string{
			fmt.Sprintf("POTEn:SWV:Start %g,%g,%g,%g,%g",
				q.Frequency, q.Amplitude, q.StepV, q.StartV, q.EndV),
		}, nil
	case config.DPVParams:
		return []string{
			fmt.Sprintf("POTEn:DPV:VOLT:INIT %g", q.InitV),
			fmt.Sprintf("POTEn:DPV:VOLT:FINal %g", q.FinalV),
			fmt.Sprintf("POTEn:DPV:VOLT:STEP %g", q.StepV),
			fmt.Sprintf("POTEn:DPV:VOLT:PULSe:HEIGht %g", q.PulseHeight),
			fmt.Sprintf("POTEn:DPV:TIME:PULSe:WIDTh %g", q.PulseWidthS),
			fmt.Sprintf("POTEn:DPV:TIME:PULSe:PERiod %g", q.PeriodS),
			"POTEn:DPV:Start",
		}, nil
	}
	return nil, fmt.Errorf("unsupported scan parameters %T", p)
}

// AbortCommand returns the abort command for the technique.
func AbortCommand(kind telemetry.ScanKind) string {
	switch kind {
	case telemetry.ScanCA:
		return "POTEn:CA:ABORt"
	case telemetry.ScanCV:
		return "POTEn:CYCLic:Abort"
	case telemetry.ScanDPV:
		return "POTEn:DPV:Abort"
	case telemetry.ScanSWV:
		return "POTEn:SWV:Abort"
	}
	return ""
}
