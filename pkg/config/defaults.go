package config

import (
	"time"
)

const (
	DefaultSteps           = 100
	DefaultEmitProbability = 0.20
	DefaultDuration        = 10 * time.Second
)

// CreateDefaultConfig creates the complete default configuration
func CreateDefaultConfig() *Config {
	return &Config{
		Engine:     createDefaultEngineConfig(),
		Targets:    createDefaultTargets(),
		Assessment: createDefaultAssessmentConfig(),
		Reports:    createDefaultReportsConfig(),
		Output:     createDefaultOutputConfig(),
	}
}

func createDefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Steps:             DefaultSteps,
		EmitProbability:   DefaultEmitProbability,
		DefaultDuration:   DefaultDuration,
		MaxConcurrentJobs: 5,
		ReapInterval:      time.Minute,
		Seed:              0,
	}
}

func createDefaultTargets() []TargetConfig {
	return []TargetConfig{
		{
			Name:        "Local Model",
			Endpoint:    "http://localhost:8000/v1/chat/completions",
			Kind:        "llm",
			Description: "Locally served language model",
		},
	}
}

func createDefaultAssessmentConfig() AssessmentConfig {
	return AssessmentConfig{
		Vectors:    []string{},
		Categories: []string{},
		Duration:   0,
	}
}

func createDefaultReportsConfig() ReportsConfig {
	return ReportsConfig{
		Formats:   []string{"json", "txt"},
		OutputDir: "./reports",
	}
}

func createDefaultOutputConfig() OutputConfig {
	return OutputConfig{
		Verbosity:    "normal",
		Colors:       true,
		ProgressBars: true,
		ShowBanner:   true,
	}
}

// DefaultConfigContent is the commented file written by --init-config
const DefaultConfigContent = `# Renegade Configuration File
# AI Security Assessment Tool

# Engine Configuration - Controls assessment execution
engine:
  steps: 100                # Steps per job; progress advances once per step
  emit_probability: 0.2     # Chance that a step reports a finding
  default_duration: 10s     # Budget used when an assessment sets none
  max_concurrent_jobs: 5    # 0 = unlimited
  reap_interval: 1m         # How often finished jobs are cleaned up (0 = never)
  seed: 0                   # Emitter seed (0 = random)

# Targets - AI-model endpoints under assessment
targets:
  - name: "Local Model"
    endpoint: "http://localhost:8000/v1/chat/completions"
    kind: "llm"             # Options: llm, content_filter, embedding, classification, other
    description: "Locally served language model"
    # credential: ""        # Prefer RENEGADE_TARGET_CREDENTIAL

# Assessment - Which test vectors to run
assessment:
  vectors: []               # Empty = all, or e.g. ["prompt_injection", "jailbreaking"]
  categories: []            # Options: owasp, nist, fairness, privacy, exploit
  # duration: 30s           # Per-target budget (default: engine.default_duration)

# Reporting Configuration
reports:
  formats: ["json", "txt"]  # Available: json, csv, txt
  output_dir: "./reports"

# Output and UI Configuration
output:
  verbosity: "normal"       # Options: silent, minimal, normal, verbose, debug
  colors: true
  progress_bars: true
  show_banner: true
`
