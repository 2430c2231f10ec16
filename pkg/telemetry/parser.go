// Package telemetry parses the potentiostat's line-oriented telemetry
// stream into typed samples and completion markers.
package telemetry

import (
	"fmt"
	"strconv"
	"strings"
)

// LineKind classifies a parsed telemetry line.
type LineKind uint8

const (
	// LineMalformed is any line the parser could not make sense of.
	// Malformed lines are logged and dropped by callers, never fatal.
	LineMalformed LineKind = iota
	// LineSample carries one typed data point.
	LineSample
	// LineCompletion marks the end of a scan for Scan.
	LineCompletion
)

// Line is the result of parsing one raw telemetry line.
type Line struct {
	Kind   LineKind
	Sample Sample   // valid when Kind == LineSample
	Scan   ScanKind // valid for LineSample and LineCompletion
	Raw    string
	Err    error // set when Kind == LineMalformed
}

var defaultDetector = SentinelDetector{}

// Parse turns one raw text line into a Line. It is a pure function and
// never panics: any field-count mismatch or numeric failure yields a
// LineMalformed result with the reason in Err.
func Parse(raw string) Line {
	line := strings.TrimSpace(raw)
	if line == "" {
		return malformed(raw, fmt.Errorf("empty line"))
	}

	if kind, ok := defaultDetector.Detect(line); ok {
		return Line{Kind: LineCompletion, Scan: kind, Raw: raw}
	}

	switch {
	case strings.HasPrefix(line, "CA,"):
		return parseCA(raw, line)
	case strings.HasPrefix(line, "DPV,"):
		return parseDPV(raw, line)
	case strings.HasPrefix(line, "SWV,"):
		return parseSWV(raw, line)
	case strings.HasPrefix(line, "CV"):
		// The firmware emits the CV tag without a guaranteed comma.
		return parseCV(raw, line)
	}

	return malformed(raw, fmt.Errorf("unrecognized tag"))
}

func malformed(raw string, err error) Line {
	return Line{Kind: LineMalformed, Raw: raw, Err: err}
}

// parseCA handles "CA,<time>,<potential>,<current>".
func parseCA(raw, line string) Line {
	parts := strings.Split(line, ",")
	if len(parts) != 4 {
		return malformed(raw, fmt.Errorf("CA: expected 4 fields, got %d", len(parts)))
	}
	f, err := parseFloats(parts[1:])
	if err != nil {
		return malformed(raw, fmt.Errorf("CA: %w", err))
	}
	return Line{
		Kind: LineSample,
		Scan: ScanCA,
		Raw:  raw,
		Sample: Sample{
			Kind:      ScanCA,
			Time:      f[0],
			Potential: f[1],
			Current:   f[2],
		},
	}
}

// parseDPV handles "DPV,<time>,<ramp_potential>,<current_after>,<current_before>".
// The reported differential current is after minus before.
func parseDPV(raw, line string) Line {
	parts := strings.Split(line, ",")
	if len(parts) != 5 {
		return malformed(raw, fmt.Errorf("DPV: expected 5 fields, got %d", len(parts)))
	}
	f, err := parseFloats(parts[1:])
	if err != nil {
		return malformed(raw, fmt.Errorf("DPV: %w", err))
	}
	return Line{
		Kind: LineSample,
		Scan: ScanDPV,
		Raw:  raw,
		Sample: Sample{
			Kind:          ScanDPV,
			Time:          f[0],
			Potential:     f[1],
			CurrentAfter:  f[2],
			CurrentBefore: f[3],
			Current:       f[2] - f[3],
		},
	}
}

// parseSWV handles "SWV,<time>,<potential>,<i_forward>,<i_reverse>".
// Forward is stored in CurrentAfter, reverse in CurrentBefore; the
// differential is forward minus reverse.
func parseSWV(raw, line string) Line {
	parts := strings.Split(line, ",")
	if len(parts) != 5 {
		return malformed(raw, fmt.Errorf("SWV: expected 5 fields, got %d", len(parts)))
	}
	f, err := parseFloats(parts[1:])
	if err != nil {
		return malformed(raw, fmt.Errorf("SWV: %w", err))
	}
	return Line{
		Kind: LineSample,
		Scan: ScanSWV,
		Raw:  raw,
		Sample: Sample{
			Kind:          ScanSWV,
			Time:          f[0],
			Potential:     f[1],
			CurrentAfter:  f[2],
			CurrentBefore: f[3],
			Current:       f[2] - f[3],
		},
	}
}

// parseCV handles
// "CV<,?><counter>,<time>,<re_voltage>,<we_voltage>,<current_range>,<cycle_no>[,...]".
// Trailing extra fields are firmware-defined and tolerated.
func parseCV(raw, line string) Line {
	rest := strings.TrimPrefix(line, "CV")
	rest = strings.TrimPrefix(rest, ",")
	parts := strings.Split(rest, ",")
	if len(parts) < 6 {
		return malformed(raw, fmt.Errorf("CV: expected at least 6 fields, got %d", len(parts)))
	}

	f, err := parseFloats(parts[:6])
	if err != nil {
		return malformed(raw, fmt.Errorf("CV: %w", err))
	}
	currentRange, err := strconv.Atoi(strings.TrimSpace(parts[4]))
	if err != nil {
		return malformed(raw, fmt.Errorf("CV: invalid current range: %w", err))
	}
	cycle, err := strconv.Atoi(strings.TrimSpace(parts[5]))
	if err != nil {
		return malformed(raw, fmt.Errorf("CV: invalid cycle number: %w", err))
	}

	return Line{
		Kind: LineSample,
		Scan: ScanCV,
		Raw:  raw,
		Sample: Sample{
			Kind:      ScanCV,
			Time:      f[1],
			Potential: f[2],
			Current:   f[3] * RangeScale(currentRange),
			Range:     currentRange,
			Cycle:     cycle,
		},
	}
}

// parseFloats parses every field as a float64, reporting the first
// failure with its field position.
func parseFloats(fields []string) ([]float64, error) {
	out := make([]float64, len(fields))
	for i, field := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid numeric field %d (%q): %w", i+1, field, err)
		}
		out[i] = v
	}
	return out, nil
}
