package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/itohio/gopstat/pkg/config"
)

// maxStemLen caps the filename length before the extension; some
// filesystems and sync tools choke well before the OS limit.
const maxStemLen = 120

// Filename derives the per-cycle output filename from the project name,
// the key scan parameters, the cycle number and a timestamp. Characters
// outside [A-Za-z0-9._-] are replaced and the stem is length-capped.
func Filename(project string, params config.ScanParams, cycle int, now time.Time) string {
	stem := fmt.Sprintf("%s_%s_%s_cyc%d_%s",
		project,
		params.Kind(),
		keyParams(params),
		cycle,
		now.Format("20060102-150405"),
	)
	stem = sanitize(stem)
	if len(stem) > maxStemLen {
		stem = stem[:maxStemLen]
	}
	return stem + ".csv"
}

// keyParams renders the parameters that distinguish one scan from
// another of the same technique.
func keyParams(params config.ScanParams) string {
	switch q := params.(type) {
	case config.CAParams:
		return fmt.Sprintf("%gV_%gs", q.ElectrolysisV, q.ElectrolysisS)
	case config.CVParams:
		return fmt.Sprintf("%gV_%gV_%gVs", q.LowerV, q.UpperV, q.SweepRate)
	case config.SWVParams:
		return fmt.Sprintf("%gHz_%gV_%gV", q.Frequency, q.StartV, q.EndV)
	case config.DPVParams:
		return fmt.Sprintf("%gV_%gV_%gV", q.InitV, q.FinalV, q.PulseHeight)
	}
	return "scan"
}

func sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '_' || r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
