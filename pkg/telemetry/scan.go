package telemetry

// ScanKind identifies the electrochemical technique a line or session
// belongs to.
type ScanKind uint8

const (
	ScanCA ScanKind = iota // chronoamperometry
	ScanCV                 // cyclic voltammetry
	ScanSWV                // square-wave voltammetry
	ScanDPV                // differential-pulse voltammetry
)

var scanNames = map[ScanKind]string{
	ScanCA:  "CA",
	ScanCV:  "CV",
	ScanSWV: "SWV",
	ScanDPV: "DPV",
}

func (k ScanKind) String() string {
	if n, ok := scanNames[k]; ok {
		return n
	}
	return "unknown"
}

// ParseScanKind maps a technique tag ("CA", "CV", "SWV", "DPV") back to
// its ScanKind.
func ParseScanKind(tag string) (ScanKind, bool) {
	for k, n := range scanNames {
		if n == tag {
			return k, true
		}
	}
	return 0, false
}
