// Package config holds the application configuration and the per-scan
// parameter sets.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Serial  SerialConfig  `yaml:"serial"`
	Output  OutputConfig  `yaml:"output"`
	Session SessionConfig `yaml:"session"`
	Live    LiveConfig    `yaml:"live"`
	Mock    MockConfig    `yaml:"mock"`
	Scans   ScanDefaults  `yaml:"scans"`
}

// SerialConfig contains serial port configuration.
type SerialConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
}

// OutputConfig configures result persistence. Dir and Project together
// are the persistence target a session must have before it may arm.
type OutputConfig struct {
	Dir          string `yaml:"dir"`
	Project      string `yaml:"project"`
	KeepPrevious bool   `yaml:"keep_previous"` // retain earlier cycles for overlay
	ResultIndex  string `yaml:"result_index"`  // sqlite file, empty disables the index
}

// SessionConfig tunes the session controller.
type SessionConfig struct {
	// CompletionTimeout bounds the wait for the firmware's completion
	// sentinel. Zero derives the bound from the scan's nominal
	// duration.
	CompletionTimeout time.Duration `yaml:"completion_timeout"`
	LineBuffer        int           `yaml:"line_buffer"`
}

// LiveConfig configures the websocket snapshot server.
type LiveConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// MockConfig configures the simulated instrument.
type MockConfig struct {
	NoiseLevel   float64       `yaml:"noise_level"`   // A, gaussian current noise
	PeakV        float64       `yaml:"peak_v"`        // V, center of the simulated redox peak
	PeakCurrent  float64       `yaml:"peak_current"`  // A, peak excursion above baseline
	PeakWidth    float64       `yaml:"peak_width"`    // V, gaussian width
	SamplePoints int           `yaml:"sample_points"` // points per sweep direction
	SamplePeriod time.Duration `yaml:"sample_period"` // delay between emitted lines; zero emits immediately
	Seed         int64         `yaml:"seed"`          // 0 seeds from the clock
}

// ScanDefaults carries the default parameter set per technique,
// overridable from the command line.
type ScanDefaults struct {
	CA  CAParams  `yaml:"ca"`
	CV  CVParams  `yaml:"cv"`
	SWV SWVParams `yaml:"swv"`
	DPV DPVParams `yaml:"dpv"`
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port:     "/dev/ttyACM0",
			BaudRate: 115200,
		},
		Output: OutputConfig{
			Dir:          "results",
			Project:      "gopstat",
			KeepPrevious: true,
			ResultIndex:  "results/results.db",
		},
		Session: SessionConfig{
			CompletionTimeout: 0, // derived from scan duration
			LineBuffer:        256,
		},
		Live: LiveConfig{
			Enabled: false,
			Addr:    ":8087",
		},
		Mock: MockConfig{
			NoiseLevel:   2e-8,
			PeakV:        0.25,
			PeakCurrent:  4e-6,
			PeakWidth:    0.06,
			SamplePoints: 200,
			SamplePeriod: 0,
		},
		Scans: ScanDefaults{
			CA: CAParams{
				InductionV: 0.0, InductionS: 2,
				ElectrolysisV: 0.5, ElectrolysisS: 30,
				RelaxV: 0.0, RelaxS: 2,
				CycleCount: 1,
			},
			CV: CVParams{
				StartV: -0.4, UpperV: 0.7, LowerV: -0.4,
				SweepRate:  0.1,
				CycleCount: 1,
			},
			SWV: SWVParams{
				Frequency: 25, Amplitude: 0.025, StepV: 0.005,
				StartV: -0.4, EndV: 0.7,
				CycleCount: 1,
			},
			DPV: DPVParams{
				InitV: -0.4, FinalV: 0.7, StepV: 0.005,
				PulseHeight: 0.05, PulseWidthS: 0.05, PeriodS: 0.2,
				CycleCount: 1,
			},
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist
// or fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()
	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ensureDefaults ensures that required fields have default values if
// missing from the loaded file.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}
	if c.Serial.BaudRate == 0 {
		c.Serial.BaudRate = def.Serial.BaudRate
	}

	if c.Output.Dir == "" {
		c.Output.Dir = def.Output.Dir
	}
	if c.Output.Project == "" {
		c.Output.Project = def.Output.Project
	}

	if c.Session.LineBuffer <= 0 {
		c.Session.LineBuffer = def.Session.LineBuffer
	}

	if c.Live.Addr == "" {
		c.Live.Addr = def.Live.Addr
	}

	if c.Mock.NoiseLevel == 0 {
		c.Mock.NoiseLevel = def.Mock.NoiseLevel
	}
	if c.Mock.PeakWidth == 0 {
		c.Mock.PeakWidth = def.Mock.PeakWidth
	}
	if c.Mock.PeakCurrent == 0 {
		c.Mock.PeakCurrent = def.Mock.PeakCurrent
	}
	if c.Mock.SamplePoints <= 0 {
		c.Mock.SamplePoints = def.Mock.SamplePoints
	}

	if c.Scans.CA == (CAParams{}) {
		c.Scans.CA = def.Scans.CA
	}
	if c.Scans.CV == (CVParams{}) {
		c.Scans.CV = def.Scans.CV
	}
	if c.Scans.SWV == (SWVParams{}) {
		c.Scans.SWV = def.Scans.SWV
	}
	if c.Scans.DPV == (DPVParams{}) {
		c.Scans.DPV = def.Scans.DPV
	}
}
