package export

import (
	"fmt"

	"github.com/itohio/gopstat/pkg/telemetry"
)

// Column layouts per technique. This file is the single source of truth
// for the persisted CSV shape.

var (
	headerPlain = []string{"Mode", "Time", "Potential", "Current"}
	headerPulse = []string{"Mode", "Time", "Potential", "CurrentBefore", "CurrentAfter", "Differential"}
)

// Header returns the fixed first CSV line for the technique.
func Header(kind telemetry.ScanKind) []string {
	switch kind {
	case telemetry.ScanDPV, telemetry.ScanSWV:
		return headerPulse
	default:
		return headerPlain
	}
}

// Row formats one sample as a CSV row matching Header for its kind.
func Row(s telemetry.Sample) []string {
	switch s.Kind {
	case telemetry.ScanDPV, telemetry.ScanSWV:
		return []string{
			s.Kind.String(),
			fmt.Sprintf("%g", s.Time),
			fmt.Sprintf("%g", s.Potential),
			fmt.Sprintf("%g", s.CurrentBefore),
			fmt.Sprintf("%g", s.CurrentAfter),
			fmt.Sprintf("%g", s.Current),
		}
	default:
		return []string{
			s.Kind.String(),
			fmt.Sprintf("%g", s.Time),
			fmt.Sprintf("%g", s.Potential),
			fmt.Sprintf("%g", s.Current),
		}
	}
}
