// Package analysis turns accumulated voltammetry curves into quantified
// results: sweep-direction segments, detected peaks and fitted
// baselines.
package analysis

import (
	"github.com/itohio/gopstat/pkg/telemetry"
)

// Segment is a read-only ordered list of (voltage, current) pairs cut
// from a curve. Segments may be empty; callers must tolerate that.
type Segment struct {
	V []float64
	I []float64
}

// Len returns the number of points in the segment.
func (s Segment) Len() int { return len(s.V) }

// Empty reports whether the segment holds no points.
func (s Segment) Empty() bool { return len(s.V) == 0 }

// FromSamples copies the (potential, current) pairs of samples into a
// Segment.
func FromSamples(samples []telemetry.Sample) Segment {
	seg := Segment{
		V: make([]float64, len(samples)),
		I: make([]float64, len(samples)),
	}
	for i, s := range samples {
		seg.V[i] = s.Potential
		seg.I[i] = s.Current
	}
	return seg
}

func (s Segment) slice(lo, hi int) Segment {
	if lo < 0 || hi >= s.Len() || lo > hi {
		return Segment{}
	}
	return Segment{V: s.V[lo : hi+1], I: s.I[lo : hi+1]}
}

func concat(a, b Segment) Segment {
	out := Segment{
		V: make([]float64, 0, a.Len()+b.Len()),
		I: make([]float64, 0, a.Len()+b.Len()),
	}
	out.V = append(append(out.V, a.V...), b.V...)
	out.I = append(append(out.I, a.I...), b.I...)
	return out
}

// Segmentation locates the voltage extrema and zero-crossings of a
// sweep and exposes the four quadrant segments plus the two merged
// scan-direction sets used for peak analysis.
type Segmentation struct {
	// MaxIdx and MinIdx are the indices of the voltage extrema, or -1
	// when the curve has fewer than 3 samples. The maximum keeps the
	// first occurrence on ties; the minimum keeps the last, so a sweep
	// that starts and ends on the lower vertex resolves to the closing
	// vertex.
	MaxIdx int
	MinIdx int
	// ZeroCrossings lists every index i where voltage[i-1] and
	// voltage[i] fall on different sides of zero (strictly negative vs.
	// zero-or-positive).
	ZeroCrossings []int

	all Segment
}

// NewSegmentation scans the samples and derives the segmentation.
// Curves with fewer than 3 samples cannot be segmented meaningfully;
// every accessor then returns an empty segment.
func NewSegmentation(samples []telemetry.Sample) Segmentation {
	g := Segmentation{MaxIdx: -1, MinIdx: -1, all: FromSamples(samples)}
	if len(samples) < 3 {
		return g
	}

	v := g.all.V
	g.MaxIdx, g.MinIdx = 0, 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[g.MaxIdx] {
			g.MaxIdx = i
		}
		if v[i] <= v[g.MinIdx] {
			g.MinIdx = i
		}
	}

	for i := 1; i < len(v); i++ {
		if (v[i-1] < 0) != (v[i] < 0) {
			g.ZeroCrossings = append(g.ZeroCrossings, i)
		}
	}
	return g
}

// Quadrant returns one of the four quadrant segments:
//
//	1: start of sweep up to the voltage maximum
//	2: voltage maximum to the end of the sweep
//	3: last zero-crossing before the voltage minimum up to the minimum
//	4: voltage minimum to the end of the sweep
//
// Out-of-range n, unsegmentable curves and a missing pre-minimum
// zero-crossing all yield an empty segment.
func (g Segmentation) Quadrant(n int) Segment {
	if g.MaxIdx < 0 {
		return Segment{}
	}
	last := g.all.Len() - 1
	switch n {
	case 1:
		return g.all.slice(0, g.MaxIdx)
	case 2:
		return g.all.slice(g.MaxIdx, last)
	case 3:
		z := -1
		for _, c := range g.ZeroCrossings {
			if c <= g.MinIdx {
				z = c
			}
		}
		if z < 0 {
			return Segment{}
		}
		return g.all.slice(z, g.MinIdx)
	case 4:
		return g.all.slice(g.MinIdx, last)
	}
	return Segment{}
}

// Anodic returns the positive-going sweep set. With wrap the fourth
// quadrant is prepended, which is the full-cycle variant used for
// baseline analysis.
func (g Segmentation) Anodic(wrap bool) Segment {
	if wrap {
		return concat(g.Quadrant(4), g.Quadrant(1))
	}
	return g.Quadrant(1)
}

// Cathodic returns the negative-going sweep set. With wrap the third
// quadrant is appended.
func (g Segmentation) Cathodic(wrap bool) Segment {
	if wrap {
		return concat(g.Quadrant(2), g.Quadrant(3))
	}
	return g.Quadrant(2)
}
