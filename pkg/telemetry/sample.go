package telemetry

// Sample is one telemetry data point. Immutable once constructed.
//
// For CA and CV, Current is the measured cell current. For DPV and SWV
// the instrument reports two currents per point and Current holds the
// differential (after-before for DPV, forward-reverse for SWV).
type Sample struct {
	Kind      ScanKind
	Time      float64 // seconds since scan start
	Potential float64 // V vs. reference electrode
	Current   float64 // A (differential for DPV/SWV)
	Cycle     int     // cycle number reported by the firmware (CV only)
	Range     int     // current-range selector reported by the firmware (CV only)

	// Pulse techniques only.
	CurrentBefore float64 // A, sampled before the pulse edge
	CurrentAfter  float64 // A, sampled after the pulse edge
}

// rangeScales maps the firmware current-range selector to amps per volt
// of the I/E converter output. Unknown selectors fall back to unity so a
// firmware extension never zeroes the data.
var rangeScales = []float64{1e-2, 1e-3, 1e-4, 1e-5, 1e-6, 1e-7}

// RangeScale converts a current-range selector to amps per volt of the
// I/E converter output.
func RangeScale(r int) float64 {
	if r >= 0 && r < len(rangeScales) {
		return rangeScales[r]
	}
	return 1.0
}
