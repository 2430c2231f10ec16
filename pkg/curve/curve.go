// Package curve holds the in-flight and frozen sample buffers for one
// measurement cycle.
package curve

import (
	"sync"

	"github.com/itohio/gopstat/pkg/telemetry"
)

// Curve is an ordered, append-only sequence of samples for one cycle.
//
// While in flight it has exactly one writer (the session goroutine);
// readers take copies via Snapshot. Freeze closes the write side for
// good: it is idempotent and every later Append is a counted no-op, so
// telemetry arriving after the completion sentinel can never tear the
// accepted data.
type Curve struct {
	mu      sync.RWMutex
	kind    telemetry.ScanKind
	cycle   int
	samples []telemetry.Sample
	frozen  bool
	dropped int
}

// New creates an empty in-flight curve for one cycle of the given
// technique.
func New(kind telemetry.ScanKind, cycle int) *Curve {
	return &Curve{
		kind:    kind,
		cycle:   cycle,
		samples: make([]telemetry.Sample, 0, 256),
	}
}

// Append adds a sample in arrival order. It reports false, without
// modifying the curve, once the curve has been frozen.
func (c *Curve) Append(s telemetry.Sample) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.frozen {
		c.dropped++
		return false
	}
	c.samples = append(c.samples, s)
	return true
}

// Freeze closes the curve to further appends. Safe to call any number
// of times.
func (c *Curve) Freeze() {
	c.mu.Lock()
	c.frozen = true
	c.mu.Unlock()
}

// Frozen reports whether the curve has been frozen.
func (c *Curve) Frozen() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.frozen
}

// Len returns the number of accepted samples.
func (c *Curve) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.samples)
}

// Dropped returns the number of appends refused after Freeze.
func (c *Curve) Dropped() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dropped
}

// Snapshot returns a copy of the accepted samples. The copy is safe to
// read while the writer keeps appending.
func (c *Curve) Snapshot() []telemetry.Sample {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]telemetry.Sample, len(c.samples))
	copy(out, c.samples)
	return out
}

// ScanKind returns the technique this curve belongs to.
func (c *Curve) ScanKind() telemetry.ScanKind { return c.kind }

// Cycle returns the cycle number this curve was acquired for.
func (c *Curve) Cycle() int { return c.cycle }
