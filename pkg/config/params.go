package config

import (
	"fmt"
	"math"
	"time"

	"github.com/itohio/gopstat/pkg/telemetry"
)

// Potential limits accepted by the instrument front end, volts.
const (
	MinPotential = -10.0
	MaxPotential = 10.0
)

// ScanParams is the immutable configuration for one measurement
// session. Each technique has its own variant; a session may not arm
// until Validate passes.
type ScanParams interface {
	Kind() telemetry.ScanKind
	Validate() error
	// Cycles is the number of sequential cycles the orchestrator runs.
	Cycles() int
	// Duration estimates one cycle's nominal run time, used to bound
	// the completion wait.
	Duration() time.Duration
}

// CAParams configures a chronoamperometry scan: three fixed-potential
// stages with their hold times.
type CAParams struct {
	InductionV    float64 `yaml:"induction_v"`
	InductionS    float64 `yaml:"induction_s"`
	ElectrolysisV float64 `yaml:"electrolysis_v"`
	ElectrolysisS float64 `yaml:"electrolysis_s"`
	RelaxV        float64 `yaml:"relax_v"`
	RelaxS        float64 `yaml:"relax_s"`
	CycleCount    int     `yaml:"cycles"`
}

func (p CAParams) Kind() telemetry.ScanKind { return telemetry.ScanCA }
func (p CAParams) Cycles() int              { return cycleCount(p.CycleCount) }

func (p CAParams) Duration() time.Duration {
	return secondsDuration(p.InductionS + p.ElectrolysisS + p.RelaxS)
}

func (p CAParams) Validate() error {
	if err := checkPotentials(p.InductionV, p.ElectrolysisV, p.RelaxV); err != nil {
		return fmt.Errorf("CA: %w", err)
	}
	if p.InductionS < 0 || p.RelaxS < 0 {
		return fmt.Errorf("CA: stage durations must be non-negative")
	}
	if p.ElectrolysisS <= 0 {
		return fmt.Errorf("CA: electrolysis duration must be positive")
	}
	return checkCycles(p.CycleCount)
}

// CVParams configures a cyclic voltammetry scan: a triangular sweep
// between two vertex potentials.
type CVParams struct {
	StartV     float64 `yaml:"start_v"`
	UpperV     float64 `yaml:"upper_v"`
	LowerV     float64 `yaml:"lower_v"`
	SweepRate  float64 `yaml:"sweep_rate"` // V/s
	CycleCount int     `yaml:"cycles"`
}

func (p CVParams) Kind() telemetry.ScanKind { return telemetry.ScanCV }
func (p CVParams) Cycles() int              { return cycleCount(p.CycleCount) }

func (p CVParams) Duration() time.Duration {
	if p.SweepRate <= 0 {
		return 0
	}
	return secondsDuration(2 * (p.UpperV - p.LowerV) / p.SweepRate)
}

func (p CVParams) Validate() error {
	if err := checkPotentials(p.StartV, p.UpperV, p.LowerV); err != nil {
		return fmt.Errorf("CV: %w", err)
	}
	if p.UpperV <= p.LowerV {
		return fmt.Errorf("CV: upper vertex %.3f V must exceed lower vertex %.3f V", p.UpperV, p.LowerV)
	}
	if p.StartV < p.LowerV || p.StartV > p.UpperV {
		return fmt.Errorf("CV: start potential %.3f V outside vertex window", p.StartV)
	}
	if p.SweepRate <= 0 {
		return fmt.Errorf("CV: sweep rate must be positive")
	}
	return checkCycles(p.CycleCount)
}

// SWVParams configures a square-wave voltammetry scan.
type SWVParams struct {
	Frequency  float64 `yaml:"frequency"` // Hz
	Amplitude  float64 `yaml:"amplitude"` // V
	StepV      float64 `yaml:"step_v"`    // V
	StartV     float64 `yaml:"start_v"`
	EndV       float64 `yaml:"end_v"`
	CycleCount int     `yaml:"cycles"`
}

func (p SWVParams) Kind() telemetry.ScanKind { return telemetry.ScanSWV }
func (p SWVParams) Cycles() int              { return cycleCount(p.CycleCount) }

func (p SWVParams) Duration() time.Duration {
	if p.Frequency <= 0 || p.StepV <= 0 {
		return 0
	}
	steps := math.Abs(p.EndV-p.StartV) / p.StepV
	return secondsDuration(steps / p.Frequency)
}

func (p SWVParams) Validate() error {
	if err := checkPotentials(p.StartV, p.EndV); err != nil {
		return fmt.Errorf("SWV: %w", err)
	}
	if p.StartV == p.EndV {
		return fmt.Errorf("SWV: start and end potentials must differ")
	}
	if p.Frequency <= 0 {
		return fmt.Errorf("SWV: frequency must be positive")
	}
	if p.Amplitude <= 0 || p.StepV <= 0 {
		return fmt.Errorf("SWV: amplitude and step must be positive")
	}
	return checkCycles(p.CycleCount)
}

// DPVParams configures a differential-pulse voltammetry scan.
type DPVParams struct {
	InitV       float64 `yaml:"init_v"`
	FinalV      float64 `yaml:"final_v"`
	StepV       float64 `yaml:"step_v"`
	PulseHeight float64 `yaml:"pulse_height"` // V
	PulseWidthS float64 `yaml:"pulse_width_s"`
	PeriodS     float64 `yaml:"period_s"`
	CycleCount  int     `yaml:"cycles"`
}

func (p DPVParams) Kind() telemetry.ScanKind { return telemetry.ScanDPV }
func (p DPVParams) Cycles() int              { return cycleCount(p.CycleCount) }

func (p DPVParams) Duration() time.Duration {
	if p.StepV <= 0 || p.PeriodS <= 0 {
		return 0
	}
	steps := math.Abs(p.FinalV-p.InitV) / p.StepV
	return secondsDuration(steps * p.PeriodS)
}

func (p DPVParams) Validate() error {
	if err := checkPotentials(p.InitV, p.FinalV); err != nil {
		return fmt.Errorf("DPV: %w", err)
	}
	if p.InitV == p.FinalV {
		return fmt.Errorf("DPV: initial and final potentials must differ")
	}
	if p.StepV <= 0 || p.PulseHeight <= 0 {
		return fmt.Errorf("DPV: step and pulse height must be positive")
	}
	if p.PulseWidthS <= 0 || p.PeriodS <= 0 {
		return fmt.Errorf("DPV: pulse width and period must be positive")
	}
	if p.PulseWidthS >= p.PeriodS {
		return fmt.Errorf("DPV: pulse width %.3f s must be shorter than period %.3f s", p.PulseWidthS, p.PeriodS)
	}
	return checkCycles(p.CycleCount)
}

func checkPotentials(volts ...float64) error {
	for _, v := range volts {
		if math.IsNaN(v) || v < MinPotential || v > MaxPotential {
			return fmt.Errorf("potential %.3f V outside [%g, %g]", v, MinPotential, MaxPotential)
		}
	}
	return nil
}

func checkCycles(n int) error {
	if n < 0 {
		return fmt.Errorf("cycle count must not be negative")
	}
	return nil
}

// cycleCount treats an unset cycle count as a single cycle.
func cycleCount(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

func secondsDuration(s float64) time.Duration {
	if s <= 0 || math.IsNaN(s) || math.IsInf(s, 0) {
		return 0
	}
	return time.Duration(s * float64(time.Second))
}
