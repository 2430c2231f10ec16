// Package session owns the scan lifecycle: arming, starting and
// awaiting completion of measurement cycles, and driving multi-cycle
// runs.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/itohio/gopstat/pkg/config"
	"github.com/itohio/gopstat/pkg/curve"
	"github.com/itohio/gopstat/pkg/log"
	"github.com/itohio/gopstat/pkg/pstat"
	"github.com/itohio/gopstat/pkg/telemetry"
)

// State is the session lifecycle state.
type State int

const (
	StateIdle State = iota
	StateConfiguring
	StateArmed
	StateRunning
	StateAwaitingCompletion
	StateCompleted
	StateAborted
	StateTimedOut
)

var stateNames = map[State]string{
	StateIdle:               "idle",
	StateConfiguring:        "configuring",
	StateArmed:              "armed",
	StateRunning:            "running",
	StateAwaitingCompletion: "awaiting-completion",
	StateCompleted:          "completed",
	StateAborted:            "aborted",
	StateTimedOut:           "timed-out",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "unknown"
}

var (
	ErrInvalidTransition = errors.New("session: invalid state transition")
	ErrNotConfigured     = errors.New("session: not configured")
	ErrTimedOut          = errors.New("session: completion wait timed out")
)

// minCompletionTimeout floors the derived completion bound so short
// scans still tolerate firmware latency.
const minCompletionTimeout = 30 * time.Second

// Controller is the per-session lifecycle state machine. One
// orchestrating goroutine calls Configure/Start/Await/Abort; one pump
// goroutine feeds HandleLine. They interact only through the internal
// mutex, the single-writer curve, and a one-shot completion signal
// guarded by a per-cycle generation id.
type Controller struct {
	mu  sync.Mutex
	dev pstat.Device

	state        State
	params       config.ScanParams
	timeout      time.Duration // 0 derives from the scan duration
	keepPrevious bool

	gen       uint64 // identifies the cycle attempt; bumped on start and discard
	cycle     int    // 1-based index of the cycle being acquired
	inflight  *curve.Curve
	completed []*curve.Curve

	done     chan State // one-shot per cycle, buffered
	signaled bool
}

// NewController creates a controller for the device. timeout bounds the
// wait for the completion sentinel; zero derives the bound from the
// scan's nominal duration.
func NewController(dev pstat.Device, timeout time.Duration) *Controller {
	return &Controller{
		dev:     dev,
		state:   StateIdle,
		timeout: timeout,
	}
}

// SetKeepPrevious controls whether completed curves from earlier cycles
// are retained for overlay. Not safe to call mid-cycle.
func (c *Controller) SetKeepPrevious(keep bool) {
	c.mu.Lock()
	c.keepPrevious = keep
	c.mu.Unlock()
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Cycle returns the 1-based index of the current (or last) cycle.
func (c *Controller) Cycle() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cycle
}

// Configure validates the parameter set and arms the session. A
// validation failure keeps the state at Configuring and is returned to
// the caller.
func (c *Controller) Configure(params config.ScanParams) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateIdle, StateConfiguring, StateCompleted, StateAborted, StateTimedOut:
	default:
		return fmt.Errorf("%w: configure from %s", ErrInvalidTransition, c.state)
	}

	c.state = StateConfiguring
	if err := params.Validate(); err != nil {
		return fmt.Errorf("session: invalid parameters: %w", err)
	}

	c.params = params
	c.cycle = 0
	c.completed = nil
	c.state = StateArmed
	log.Infof("session armed for %s, %d cycle(s)", params.Kind(), params.Cycles())
	return nil
}

// Start serializes the parameters into the outbound command sequence,
// writes it to the device, creates the in-flight curve and moves to
// AwaitingCompletion. A transport write failure aborts the cycle.
func (c *Controller) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateArmed, StateCompleted:
	default:
		if c.params == nil {
			return ErrNotConfigured
		}
		return fmt.Errorf("%w: start from %s", ErrInvalidTransition, c.state)
	}

	cmds, err := pstat.StartCommands(c.params)
	if err != nil {
		return err
	}

	c.gen++
	c.cycle++
	c.inflight = curve.New(c.params.Kind(), c.cycle)
	c.done = make(chan State, 1)
	c.signaled = false
	c.state = StateRunning

	for _, cmd := range cmds {
		if err := c.dev.Send(cmd); err != nil {
			// Transport failure is fatal to this cycle.
			c.discardLocked()
			c.state = StateAborted
			c.signalLocked(StateAborted)
			return fmt.Errorf("session: start cycle %d: %w", c.cycle, err)
		}
	}

	c.state = StateAwaitingCompletion
	log.Infof("cycle %d started (%s)", c.cycle, c.params.Kind())
	return nil
}

// HandleLine consumes one parsed telemetry line. Samples are appended
// to the in-flight curve; a completion sentinel freezes the curve and
// signals the orchestrator. Completions arriving in any other state are
// stale and ignored.
func (c *Controller) HandleLine(l telemetry.Line) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch l.Kind {
	case telemetry.LineSample:
		if c.inflight == nil || c.params == nil || l.Scan != c.params.Kind() {
			return
		}
		if c.state != StateRunning && c.state != StateAwaitingCompletion {
			return
		}
		c.inflight.Append(l.Sample)

	case telemetry.LineCompletion:
		if c.state != StateAwaitingCompletion || c.params == nil || l.Scan != c.params.Kind() {
			// Stale or foreign completion: the generation id moved on
			// when the cycle was aborted or timed out.
			log.Debugf("ignoring stale %s completion (state %s, gen %d)", l.Scan, c.state, c.gen)
			return
		}
		c.inflight.Freeze()
		if c.keepPrevious {
			c.completed = append(c.completed, c.inflight)
		} else {
			c.completed = []*curve.Curve{c.inflight}
		}
		c.inflight = nil
		c.state = StateCompleted
		log.Infof("cycle %d completed with %d samples", c.cycle, c.completed[len(c.completed)-1].Len())
		c.signalLocked(StateCompleted)

	case telemetry.LineMalformed:
		// Recoverable: dropped at the transport layer already, but
		// tolerate being handed one anyway.
		log.Debugf("dropping malformed line: %v", l.Err)
	}
}

// Abort cancels the cycle from Running or AwaitingCompletion: the abort
// command is sent best-effort, the in-flight curve is discarded, and
// the generation id advances so a late completion is recognized stale.
func (c *Controller) Abort() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateRunning, StateAwaitingCompletion:
	default:
		return fmt.Errorf("%w: abort from %s", ErrInvalidTransition, c.state)
	}

	if cmd := pstat.AbortCommand(c.params.Kind()); cmd != "" {
		if err := c.dev.Send(cmd); err != nil {
			log.Warnf("abort command failed: %v", err)
		}
	}

	c.discardLocked()
	c.state = StateAborted
	log.Infof("cycle %d aborted", c.cycle)
	c.signalLocked(StateAborted)
	return nil
}

// Finish returns the session to Idle once the last cycle has
// completed. Completed curves stay readable for overlay until the next
// Configure.
func (c *Controller) Finish() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateCompleted {
		return fmt.Errorf("%w: finish from %s", ErrInvalidTransition, c.state)
	}
	c.state = StateIdle
	log.Debugf("session idle after %d cycle(s)", c.cycle)
	return nil
}

// AwaitCompletion blocks until the cycle completes, is aborted, times
// out, or the context is cancelled. On timeout the session moves to
// TimedOut and the in-flight curve is discarded; ErrTimedOut is
// returned.
func (c *Controller) AwaitCompletion(ctx context.Context) (State, error) {
	c.mu.Lock()
	if c.state != StateAwaitingCompletion && c.state != StateRunning {
		st := c.state
		done := c.done
		c.mu.Unlock()
		// The cycle may have already resolved (fast completion, abort
		// racing ahead of the await).
		if done != nil {
			select {
			case st := <-done:
				return st, nil
			default:
			}
		}
		return st, nil
	}
	done := c.done
	gen := c.gen
	timeout := c.timeoutLocked()
	c.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case st := <-done:
		return st, nil
	case <-timer.C:
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.gen != gen {
			// The timer belongs to an earlier cycle attempt: that cycle
			// resolved and a new one started while we slept. This wait
			// lost the race but must not touch the new cycle.
			return c.state, nil
		}
		if c.state != StateAwaitingCompletion && c.state != StateRunning {
			// Resolved in the race window before we took the lock.
			return c.state, nil
		}
		c.discardLocked()
		c.state = StateTimedOut
		log.Errorf("cycle %d timed out after %s", c.cycle, timeout)
		c.signalLocked(StateTimedOut)
		return StateTimedOut, ErrTimedOut
	case <-ctx.Done():
		return c.State(), ctx.Err()
	}
}

// Pump consumes the device's line channel until it closes or the
// context is cancelled. Run it in its own goroutine; it is the single
// consumer that owns accumulation and lifecycle transitions.
func (c *Controller) Pump(ctx context.Context) {
	for {
		select {
		case l, ok := <-c.dev.Lines():
			if !ok {
				return
			}
			c.HandleLine(l)
		case <-ctx.Done():
			return
		}
	}
}

// LastCompleted returns the most recently completed curve, or nil.
func (c *Controller) LastCompleted() *curve.Curve {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.completed) == 0 {
		return nil
	}
	return c.completed[len(c.completed)-1]
}

// Completed returns the retained completed curves, oldest first.
func (c *Controller) Completed() []*curve.Curve {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*curve.Curve, len(c.completed))
	copy(out, c.completed)
	return out
}

// Snapshot captures the session state and the in-flight curve's
// samples for a polling presentation collaborator.
type Snapshot struct {
	State   State
	Kind    telemetry.ScanKind
	Cycle   int
	Samples []telemetry.Sample
}

// Snapshot returns a consistent copy of the live acquisition state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	snap := Snapshot{State: c.state, Cycle: c.cycle}
	if c.params != nil {
		snap.Kind = c.params.Kind()
	}
	inflight := c.inflight
	completed := c.completed
	c.mu.Unlock()

	// Curve snapshots take the curve's own lock; do it outside ours.
	if inflight != nil {
		snap.Samples = inflight.Snapshot()
	} else if len(completed) > 0 {
		snap.Samples = completed[len(completed)-1].Snapshot()
	}
	return snap
}

// discardLocked freezes and drops the in-flight curve and advances the
// generation id. Callers hold c.mu.
func (c *Controller) discardLocked() {
	if c.inflight != nil {
		c.inflight.Freeze()
		c.inflight = nil
	}
	c.gen++
}

// signalLocked fulfills the cycle's one-shot completion signal exactly
// once. Callers hold c.mu.
func (c *Controller) signalLocked(st State) {
	if c.signaled || c.done == nil {
		return
	}
	c.signaled = true
	c.done <- st
}

func (c *Controller) timeoutLocked() time.Duration {
	if c.timeout > 0 {
		return c.timeout
	}
	d := 3 * c.params.Duration()
	if d < minCompletionTimeout {
		d = minCompletionTimeout
	}
	return d
}
