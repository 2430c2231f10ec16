package pstat

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/itohio/gopstat/pkg/config"
	"github.com/itohio/gopstat/pkg/log"
	"github.com/itohio/gopstat/pkg/telemetry"
)

// Mock simulates a potentiostat for development and tests. It
// interprets the same command strings the firmware does, synthesizes a
// plausible curve for the requested technique (a faradaic peak over a
// capacitive background, plus noise) and finishes with the firmware's
// completion sentinel. Emitted text goes through the real parser so the
// whole inbound path is exercised.
type Mock struct {
	cfg *config.MockConfig

	lines     chan telemetry.Line
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool
	rng       *rand.Rand
	rngMu     sync.Mutex

	// Parameters staged by CV/DPV parameter-set commands.
	upperV, lowerV, startV, sweepRate float64
	cvCycles                          int
	dpvInitV, dpvFinalV, dpvStepV     float64

	scanCancel context.CancelFunc // active simulated scan, nil when idle
	scanWG     sync.WaitGroup
}

// NewMock creates a new mocked device instance.
func NewMock(cfg *config.MockConfig) *Mock {
	if cfg == nil {
		cfg = &config.MockConfig{
			NoiseLevel:   2e-8,
			PeakV:        0.25,
			PeakCurrent:  4e-6,
			PeakWidth:    0.06,
			SamplePoints: 200,
		}
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Mock{
		cfg:    cfg,
		lines:  make(chan telemetry.Line, 4*DefaultBufferSize),
		ctx:    ctx,
		cancel: cancel,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// Connect simulates connecting to the device.
func (m *Mock) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		return ErrAlreadyConnected
	}
	m.connected = true
	return nil
}

// Close stops any running simulation and closes the lines channel.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return nil
	}

	m.cancel()
	m.scanWG.Wait()
	m.connected = false
	close(m.lines)
	return nil
}

// Lines returns the channel of simulated telemetry lines.
func (m *Mock) Lines() <-chan telemetry.Line {
	return m.lines
}

// IsConnected returns whether the device is currently connected.
func (m *Mock) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

// Send interprets one command string the way the firmware would:
// parameter-set commands stage values, start commands kick off a
// simulated scan, abort commands stop it without a sentinel.
func (m *Mock) Send(cmd string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return ErrNotConnected
	}

	head, args := cmd, ""
	if i := strings.IndexByte(cmd, ' '); i >= 0 {
		head, args = cmd[:i], strings.TrimSpace(cmd[i+1:])
	}

	switch head {
	case "POTEn:VOLTage:UPPEr":
		return setFloat(&m.upperV, args)
	case "POTEn:VOLTage:LOWEr":
		return setFloat(&m.lowerV, args)
	case "POTEn:VOLTage:STARt":
		return setFloat(&m.startV, args)
	case "POTEn:RATE:SWEEp":
		return setFloat(&m.sweepRate, args)
	case "POTEn:CYCLic:COUNt":
		n, err := strconv.Atoi(args)
		if err != nil {
			return fmt.Errorf("mock: bad cycle count %q: %w", args, err)
		}
		m.cvCycles = n
		return nil
	case "POTEn:DPV:VOLT:INIT":
		return setFloat(&m.dpvInitV, args)
	case "POTEn:DPV:VOLT:FINal":
		return setFloat(&m.dpvFinalV, args)
	case "POTEn:DPV:VOLT:STEP":
		return setFloat(&m.dpvStepV, args)
	case "POTEn:DPV:VOLT:PULSe:HEIGht",
		"POTEn:DPV:TIME:PULSe:WIDTh",
		"POTEn:DPV:TIME:PULSe:PERiod":
		// Pulse timing does not change the synthesized shape.
		return nil

	case "POTEn:CA:STARt":
		f, err := splitFloats(args, 6)
		if err != nil {
			return fmt.Errorf("mock: CA start: %w", err)
		}
		m.startScan(func(ctx context.Context) { m.runCA(ctx, f) })
		return nil
	case "POTEn:CYCLic:Start":
		// Snapshot the staged parameters here: Send holds the lock and
		// the scan goroutine must never touch it (Close waits on the
		// goroutine while holding it).
		upper, lower, rate, cycles := m.upperV, m.lowerV, m.sweepRate, m.cvCycles
		m.startScan(func(ctx context.Context) { m.runCV(ctx, upper, lower, rate, cycles) })
		return nil
	case "POTEn:DPV:Start":
		initV, finalV, step := m.dpvInitV, m.dpvFinalV, m.dpvStepV
		m.startScan(func(ctx context.Context) { m.runDPV(ctx, initV, finalV, step) })
		return nil
	case "POTEn:SWV:Start":
		f, err := splitFloats(args, 5)
		if err != nil {
			return fmt.Errorf("mock: SWV start: %w", err)
		}
		m.startScan(func(ctx context.Context) { m.runSWV(ctx, f) })
		return nil

	case "POTEn:CA:ABORt", "POTEn:CYCLic:Abort", "POTEn:DPV:Abort", "POTEn:SWV:Abort":
		if m.scanCancel != nil {
			m.scanCancel()
			m.scanCancel = nil
		}
		return nil
	}

	log.Debugf("mock: ignoring unknown command %q", cmd)
	return nil
}

// startScan launches a simulation goroutine, cancelling any previous
// one. Callers hold m.mu.
func (m *Mock) startScan(run func(ctx context.Context)) {
	if m.scanCancel != nil {
		m.scanCancel()
	}
	ctx, cancel := context.WithCancel(m.ctx)
	m.scanCancel = cancel
	m.scanWG.Add(1)

	go func() {
		defer m.scanWG.Done()
		run(ctx)
	}()
}

// emit parses the raw line and delivers it, pacing by SamplePeriod.
// Returns false once the scan context is cancelled.
func (m *Mock) emit(ctx context.Context, raw string) bool {
	if m.cfg.SamplePeriod > 0 {
		select {
		case <-time.After(m.cfg.SamplePeriod):
		case <-ctx.Done():
			return false
		}
	}
	select {
	case m.lines <- telemetry.Parse(raw):
		return true
	case <-ctx.Done():
		return false
	}
}

func (m *Mock) finish(ctx context.Context, kind telemetry.ScanKind) {
	m.emit(ctx, fmt.Sprintf("%s Operation Finished", kind))
}

// runCA synthesizes induction/electrolysis/relax stages with a Cottrell
// style decay during electrolysis. f holds the six CA start arguments.
func (m *Mock) runCA(ctx context.Context, f []float64) {
	inductionV, inductionS := f[0], f[1]
	electrolysisV, electrolysisS := f[2], f[3]
	relaxV, relaxS := f[4], f[5]

	n := m.cfg.SamplePoints
	total := inductionS + electrolysisS + relaxS
	if total <= 0 {
		total = 1
	}
	dt := total / float64(n)

	for i := 0; i < n; i++ {
		t := float64(i) * dt
		var v, cur float64
		switch {
		case t < inductionS:
			v = inductionV
			cur = m.noise()
		case t < inductionS+electrolysisS:
			v = electrolysisV
			elapsed := t - inductionS + dt
			cur = m.cfg.PeakCurrent/math.Sqrt(elapsed/dt) + m.noise()
		default:
			v = relaxV
			cur = m.noise()
		}
		if !m.emit(ctx, fmt.Sprintf("CA,%g,%g,%g", t, v, cur)) {
			return
		}
	}
	m.finish(ctx, telemetry.ScanCA)
}

// runCV synthesizes the staged triangular sweep with an oxidation peak
// on the way up and a reduction peak on the way down.
func (m *Mock) runCV(ctx context.Context, upper, lower, rate float64, cycles int) {
	if cycles < 1 {
		cycles = 1
	}
	if upper <= lower {
		upper, lower = 0.7, -0.4
	}
	n := m.cfg.SamplePoints
	if rate <= 0 {
		rate = 0.1
	}
	dv := (upper - lower) / float64(n)
	dt := dv / rate

	const currentRange = 3
	scale := telemetry.RangeScale(currentRange)
	counter := 0
	t := 0.0

	for cyc := 1; cyc <= cycles; cyc++ {
		// Anodic half: lower -> upper, oxidation peak.
		for i := 0; i <= n; i++ {
			v := lower + float64(i)*dv
			cur := 2e-7 + m.gauss(v, m.cfg.PeakV) + m.noise()
			if !m.emitCV(ctx, counter, t, v, cur/scale, currentRange, cyc) {
				return
			}
			counter++
			t += dt
		}
		// Cathodic half: upper -> lower, reduction peak offset
		// negative of the oxidation center (reversible couple).
		for i := n; i >= 0; i-- {
			v := lower + float64(i)*dv
			cur := -2e-7 - m.gauss(v, m.cfg.PeakV-0.06) + m.noise()
			if !m.emitCV(ctx, counter, t, v, cur/scale, currentRange, cyc) {
				return
			}
			counter++
			t += dt
		}
	}
	m.finish(ctx, telemetry.ScanCV)
}

func (m *Mock) emitCV(ctx context.Context, counter int, t, v, weVolt float64, currentRange, cycle int) bool {
	return m.emit(ctx, fmt.Sprintf("CV,%d,%g,%g,%g,%d,%d", counter, t, v, weVolt, currentRange, cycle))
}

// runDPV synthesizes a staircase from init to final with the
// differential peak expressed in the after/before pair.
func (m *Mock) runDPV(ctx context.Context, initV, finalV, step float64) {
	if step <= 0 || initV == finalV {
		initV, finalV, step = -0.4, 0.7, 0.005
	}
	sign := 1.0
	if finalV < initV {
		sign = -1.0
	}
	n := int(math.Abs(finalV-initV) / step)

	for i := 0; i <= n; i++ {
		v := initV + sign*float64(i)*step
		before := 1e-7 + m.noise()
		after := before + m.gauss(v, m.cfg.PeakV) + m.noise()
		if !m.emit(ctx, fmt.Sprintf("DPV,%g,%g,%g,%g", float64(i)*0.2, v, after, before)) {
			return
		}
	}
	m.finish(ctx, telemetry.ScanDPV)
}

// runSWV synthesizes the stepped sweep from the five SWV start
// arguments: frequency, amplitude, step, v_start, v_end.
func (m *Mock) runSWV(ctx context.Context, f []float64) {
	freq, step, vStart, vEnd := f[0], f[2], f[3], f[4]
	if step <= 0 || vStart == vEnd {
		vStart, vEnd, step = -0.4, 0.7, 0.005
	}
	if freq <= 0 {
		freq = 25
	}
	sign := 1.0
	if vEnd < vStart {
		sign = -1.0
	}
	n := int(math.Abs(vEnd-vStart) / step)

	for i := 0; i <= n; i++ {
		v := vStart + sign*float64(i)*step
		rev := -5e-8 + m.noise()
		fwd := rev + m.gauss(v, m.cfg.PeakV) + m.noise()
		if !m.emit(ctx, fmt.Sprintf("SWV,%g,%g,%g,%g", float64(i)/freq, v, fwd, rev)) {
			return
		}
	}
	m.finish(ctx, telemetry.ScanSWV)
}

// gauss is the synthesized faradaic peak profile.
func (m *Mock) gauss(v, center float64) float64 {
	w := m.cfg.PeakWidth
	if w <= 0 {
		w = 0.06
	}
	d := (v - center) / w
	return m.cfg.PeakCurrent * math.Exp(-d*d)
}

func (m *Mock) noise() float64 {
	m.rngMu.Lock()
	defer m.rngMu.Unlock()
	return m.rng.NormFloat64() * m.cfg.NoiseLevel
}

func setFloat(dst *float64, arg string) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(arg), 64)
	if err != nil {
		return fmt.Errorf("mock: bad argument %q: %w", arg, err)
	}
	*dst = v
	return nil
}

func splitFloats(args string, want int) ([]float64, error) {
	parts := strings.Split(args, ",")
	if len(parts) != want {
		return nil, fmt.Errorf("expected %d arguments, got %d", want, len(parts))
	}
	out := make([]float64, want)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("bad argument %q: %w", p, err)
		}
		out[i] = v
	}
	return out, nil
}
