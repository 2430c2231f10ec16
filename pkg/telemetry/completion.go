package telemetry

import "strings"

// CompletionDetector recognizes end-of-scan markers in raw telemetry
// text. It exists to keep the firmware's string-sentinel protocol
// isolated in one place; a structured status code would slot in behind
// the same interface.
type CompletionDetector interface {
	// Detect reports whether the line marks the end of a scan, and for
	// which technique.
	Detect(line string) (ScanKind, bool)
}

// SentinelDetector matches the stock firmware sentinel: any line
// containing the exact phrase "<MODE> Operation Finished".
type SentinelDetector struct{}

const sentinelPhrase = " Operation Finished"

// Detect implements CompletionDetector.
func (SentinelDetector) Detect(line string) (ScanKind, bool) {
	if !strings.Contains(line, sentinelPhrase) {
		return 0, false
	}
	for kind, name := range scanNames {
		if strings.Contains(line, name+sentinelPhrase) {
			return kind, true
		}
	}
	return 0, false
}

var _ CompletionDetector = SentinelDetector{}
