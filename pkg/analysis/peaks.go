package analysis

import (
	"math"
	"sort"
)

// Polarity selects which kind of peak to search for.
type Polarity int8

const (
	Oxidation Polarity = 1  // current maximum on the anodic sweep
	Reduction Polarity = -1 // current minimum on the cathodic sweep
)

func (p Polarity) String() string {
	switch p {
	case Oxidation:
		return "oxidation"
	case Reduction:
		return "reduction"
	}
	return "unknown"
}

// Peak is one detected peak within a segment.
type Peak struct {
	Index    int // index into the segment it was found in
	Voltage  float64
	Current  float64
	Polarity Polarity
}

// minRun is the number of strictly monotonic steps required on each
// side of a candidate (clamped to the points actually available). A
// lone noise bump fails this and is rejected.
const minRun = 2

// FindPeaks locates peaks of the given polarity in a segment.
//
// A candidate is an interior point strictly above (oxidation) or below
// (reduction) both neighbors. It is accepted only when confirmed by a
// sustained strictly monotonic run on both sides. Results are sorted by
// absolute current, largest excursion first; callers typically use the
// first, dominant peak. An empty result is not an error: segments with
// fewer than 3 points or no confirmed candidate simply have no peaks.
func FindPeaks(seg Segment, pol Polarity) []Peak {
	n := seg.Len()
	if n < 3 {
		return nil
	}

	var peaks []Peak
	for i := 1; i < n-1; i++ {
		if !isCandidate(seg.I, i, pol) {
			continue
		}
		if !confirmRuns(seg.I, i, pol) {
			continue
		}
		peaks = append(peaks, Peak{
			Index:    i,
			Voltage:  seg.V[i],
			Current:  seg.I[i],
			Polarity: pol,
		})
	}

	sort.SliceStable(peaks, func(a, b int) bool {
		return math.Abs(peaks[a].Current) > math.Abs(peaks[b].Current)
	})
	return peaks
}

func isCandidate(cur []float64, i int, pol Polarity) bool {
	if pol == Oxidation {
		return cur[i] > cur[i-1] && cur[i] > cur[i+1]
	}
	return cur[i] < cur[i-1] && cur[i] < cur[i+1]
}

// confirmRuns walks outward from the candidate, counting strictly
// monotonic steps toward the peak on the left and away from it on the
// right. Both runs must reach minRun steps, or as many as the segment
// has room for near its edges.
func confirmRuns(cur []float64, i int, pol Polarity) bool {
	rises := func(a, b float64) bool { // b follows a walking toward the peak
		if pol == Oxidation {
			return a < b
		}
		return a > b
	}

	back := 0
	for j := i; j > 0 && rises(cur[j-1], cur[j]); j-- {
		back++
	}
	fwd := 0
	for j := i; j < len(cur)-1 && rises(cur[j+1], cur[j]); j++ {
		fwd++
	}

	needBack := min(minRun, i)
	needFwd := min(minRun, len(cur)-1-i)
	return back >= needBack && fwd >= needFwd
}
