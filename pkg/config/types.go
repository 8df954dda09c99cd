package config

import (
	"time"

	"github.com/ajkula/renegade/pkg/target"
)

// Config represents the main Renegade configuration
type Config struct {
	// Execution engine settings
	Engine EngineConfig `yaml:"engine" json:"engine"`

	// AI-model endpoints under assessment
	Targets []TargetConfig `yaml:"targets" json:"targets"`

	// Default vector selection for the assess command
	Assessment AssessmentConfig `yaml:"assessment" json:"assessment"`

	// Reporting configuration
	Reports ReportsConfig `yaml:"reports" json:"reports"`

	// Output and UI configuration
	Output OutputConfig `yaml:"output" json:"output"`
}

// EngineConfig defines the execution engine behavior
type EngineConfig struct {
	// Number of steps a job is divided into
	Steps int `yaml:"steps" json:"steps"`

	// Chance that a single step reports a finding (0.0 - 1.0)
	EmitProbability float64 `yaml:"emit_probability" json:"emit_probability"`

	// Duration budget used when an assessment does not set one
	DefaultDuration time.Duration `yaml:"default_duration" json:"default_duration"`

	// Maximum jobs running at the same time (0 = unlimited)
	MaxConcurrentJobs int `yaml:"max_concurrent_jobs" json:"max_concurrent_jobs"`

	// How often finished jobs are reaped from the registry (0 = never)
	ReapInterval time.Duration `yaml:"reap_interval" json:"reap_interval"`

	// Random seed for the finding emitter (0 = random)
	Seed uint64 `yaml:"seed" json:"seed"`
}

// TargetConfig defines one AI-model endpoint
type TargetConfig struct {
	Name        string `yaml:"name" json:"name"`
	Endpoint    string `yaml:"endpoint" json:"endpoint"`
	Kind        string `yaml:"kind" json:"kind"`
	Description string `yaml:"description" json:"description"`

	// API key; prefer RENEGADE_TARGET_CREDENTIAL over storing it in the file
	Credential string `yaml:"credential,omitempty" json:"-"`
}

// AssessmentConfig selects what an assessment runs
type AssessmentConfig struct {
	// Test vector IDs (empty = every vector)
	Vectors []string `yaml:"vectors" json:"vectors"`

	// Vector categories, combined with Vectors
	Categories []string `yaml:"categories" json:"categories"`

	// Duration budget per target (0 = engine default)
	Duration time.Duration `yaml:"duration" json:"duration"`
}

// ReportsConfig defines reporting configuration
type ReportsConfig struct {
	// Output formats to generate (json, csv, txt)
	Formats []string `yaml:"formats" json:"formats"`

	// Output directory for reports
	OutputDir string `yaml:"output_dir" json:"output_dir"`
}

// OutputConfig defines output and UI configuration
type OutputConfig struct {
	// Output verbosity level (silent, minimal, normal, verbose, debug)
	Verbosity string `yaml:"verbosity" json:"verbosity"`

	// Enable colored output
	Colors bool `yaml:"colors" json:"colors"`

	// Enable progress bars
	ProgressBars bool `yaml:"progress_bars" json:"progress_bars"`

	// Show ASCII art banner
	ShowBanner bool `yaml:"show_banner" json:"show_banner"`
}

// ToTarget converts the configured endpoint into an engine target
func (tc TargetConfig) ToTarget() target.Target {
	return target.Target{
		Name:        tc.Name,
		Endpoint:    tc.Endpoint,
		Kind:        target.ParseKind(tc.Kind),
		Credential:  target.Credential(tc.Credential),
		Description: tc.Description,
	}
}

// FindTarget returns the configured target with the given name
func (c *Config) FindTarget(name string) (TargetConfig, bool) {
	for _, t := range c.Targets {
		if t.Name == name {
			return t, true
		}
	}
	return TargetConfig{}, false
}
