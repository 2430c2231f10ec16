package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/itohio/gopstat/pkg/analysis"
	"github.com/itohio/gopstat/pkg/config"
	"github.com/itohio/gopstat/pkg/curve"
	"github.com/itohio/gopstat/pkg/export"
	"github.com/itohio/gopstat/pkg/log"
	"github.com/itohio/gopstat/pkg/telemetry"
)

// ErrRunStopped reports a multi-cycle run that ended before all
// requested cycles completed.
var ErrRunStopped = errors.New("session: run stopped before all cycles completed")

// Orchestrator drives multi-cycle runs on a Controller: start a cycle,
// wait for completion, persist the result, repeat.
type Orchestrator struct {
	ctrl   *Controller
	out    config.OutputConfig
	store  *export.Store // nil disables the result index
	nowFn  func() time.Time
	runID  string
	onDone func(*curve.Curve, string) // notified after each persisted cycle
}

// NewOrchestrator wires a controller to the persistence configuration.
// store may be nil when the result index is disabled.
func NewOrchestrator(ctrl *Controller, out config.OutputConfig, store *export.Store) (*Orchestrator, error) {
	if out.Dir == "" {
		return nil, errors.New("session: output directory not configured")
	}
	if out.Project == "" {
		return nil, errors.New("session: project name not configured")
	}
	return &Orchestrator{
		ctrl:  ctrl,
		out:   out,
		store: store,
		nowFn: time.Now,
	}, nil
}

// OnCycleDone registers a callback invoked after each cycle is
// persisted, with the frozen curve and the CSV path. Set before Run.
func (o *Orchestrator) OnCycleDone(fn func(*curve.Curve, string)) {
	o.onDone = fn
}

// RunID returns the identifier of the current (or last) run.
func (o *Orchestrator) RunID() string { return o.runID }

// Run executes params.Cycles() measurement cycles, persisting each
// completed curve to CSV and the result index. It returns the number of
// completed cycles. An abort, timeout or context cancellation stops the
// run early with ErrRunStopped; curves persisted before the stop stay
// on disk. Persistence itself is best effort and never stops the run.
func (o *Orchestrator) Run(ctx context.Context, params config.ScanParams) (int, error) {
	if err := o.ctrl.Configure(params); err != nil {
		return 0, err
	}
	o.ctrl.SetKeepPrevious(o.out.KeepPrevious)
	o.runID = uuid.New().String()

	total := params.Cycles()
	done := 0
	log.Infof("run %s: %s, %d cycle(s)", o.runID, params.Kind(), total)

	for i := 0; i < total; i++ {
		if err := ctx.Err(); err != nil {
			return done, fmt.Errorf("%w: %v", ErrRunStopped, err)
		}
		if err := o.ctrl.Start(); err != nil {
			return done, err
		}

		st, err := o.ctrl.AwaitCompletion(ctx)
		if err != nil {
			return done, fmt.Errorf("%w: cycle %d: %v", ErrRunStopped, i+1, err)
		}
		if st != StateCompleted {
			return done, fmt.Errorf("%w: cycle %d ended %s", ErrRunStopped, i+1, st)
		}

		c := o.ctrl.LastCompleted()
		path := o.persist(params, c)
		done++
		if o.onDone != nil && path != "" {
			o.onDone(c, path)
		}
	}

	if err := o.ctrl.Finish(); err != nil {
		log.Warnf("run %s: %v", o.runID, err)
	}
	return done, nil
}

// persist writes the curve's CSV file and its result-index row. Both
// are best effort: a failure is logged and the run carries on, the
// completed curve stays available in memory. An empty path reports a
// failed CSV write.
func (o *Orchestrator) persist(params config.ScanParams, c *curve.Curve) string {
	path, err := export.WriteCurve(o.out.Dir, o.out.Project, params, c, o.nowFn())
	if err != nil {
		log.Errorf("csv write failed for cycle %d: %v", c.Cycle(), err)
		path = ""
	} else {
		log.Infof("cycle %d written to %s", c.Cycle(), path)
	}

	if o.store == nil {
		return path
	}
	res := export.Result{
		RunID:     o.runID,
		Kind:      params.Kind().String(),
		Cycle:     c.Cycle(),
		File:      path,
		Samples:   c.Len(),
		CreatedAt: o.nowFn(),
	}
	if pk, bl, ok := summarize(c); ok {
		res.HasPeak = true
		res.PeakV = pk.Voltage
		res.PeakI = pk.Current
		res.PeakHeight = analysis.PeakHeight(pk, bl)
	}
	if err := o.store.Record(res); err != nil {
		// The CSV is the primary artifact; a failed index write only
		// degrades lookup.
		log.Warnf("result index write failed for cycle %d: %v", c.Cycle(), err)
	}
	return path
}

// summarize extracts the dominant peak and its baseline for the index
// row. Voltammetric curves are segmented and searched on the anodic
// sweep first; pulse curves are searched whole. Chronoamperometry has
// no peak structure.
func summarize(c *curve.Curve) (analysis.Peak, analysis.Baseline, bool) {
	samples := c.Snapshot()
	var seg analysis.Segment
	switch c.ScanKind() {
	case telemetry.ScanCA:
		return analysis.Peak{}, analysis.Baseline{}, false
	case telemetry.ScanCV:
		g := analysis.NewSegmentation(samples)
		seg = g.Anodic(true)
	default:
		seg = analysis.FromSamples(samples)
	}

	peaks := analysis.FindPeaks(seg, analysis.Oxidation)
	if len(peaks) == 0 {
		peaks = analysis.FindPeaks(seg, analysis.Reduction)
	}
	if len(peaks) == 0 {
		return analysis.Peak{}, analysis.Baseline{}, false
	}
	pk := peaks[0]
	bl, err := analysis.FitBaselineAroundPeak(seg, pk.Index)
	if err != nil {
		return analysis.Peak{}, analysis.Baseline{}, false
	}
	return pk, bl, true
}
