package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ajkula/renegade/pkg/catalog"
)

const DefaultConfigFilename = "renegade.yaml"

var validFormats = map[string]bool{
	"json": true,
	"csv":  true,
	"txt":  true,
}

var validVerbosity = map[string]bool{
	"silent":  true,
	"minimal": true,
	"normal":  true,
	"verbose": true,
	"debug":   true,
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(filename string) (*Config, error) {
	if filename == "" {
		filename = DefaultConfigFilename
	}

	if _, err := os.Stat(filename); err != nil {
		return nil, fmt.Errorf("configuration file not found: %w", err)
	}

	yamlData, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(yamlData)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// Parse decodes YAML on top of the defaults and validates the result
func Parse(yamlData []byte) (*Config, error) {
	cfg := CreateDefaultConfig()
	// an explicit targets list replaces the default one
	cfg.Targets = nil

	if err := yaml.Unmarshal(yamlData, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadConfigOrCreateDefault loads config from file or returns default if not found
func LoadConfigOrCreateDefault(filename string) (*Config, error) {
	cfg, err := LoadConfig(filename)
	if err == nil {
		return cfg, nil
	}

	// If file doesn't exist, return default config
	if errors.Is(err, fs.ErrNotExist) {
		return CreateDefaultConfig(), nil
	}

	// Other errors (parsing, validation) should be reported
	return nil, err
}

// ValidateConfig validates the configuration for correctness
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration cannot be nil")
	}

	if err := validateEngineConfig(cfg.Engine); err != nil {
		return fmt.Errorf("engine configuration error: %w", err)
	}

	if err := validateTargets(cfg.Targets); err != nil {
		return fmt.Errorf("target configuration error: %w", err)
	}

	if err := validateAssessmentConfig(cfg.Assessment); err != nil {
		return fmt.Errorf("assessment configuration error: %w", err)
	}

	if err := validateReportsConfig(cfg.Reports); err != nil {
		return fmt.Errorf("reports configuration error: %w", err)
	}

	if err := validateOutputConfig(cfg.Output); err != nil {
		return fmt.Errorf("output configuration error: %w", err)
	}

	return nil
}

// validateEngineConfig validates engine-specific configuration
func validateEngineConfig(engine EngineConfig) error {
	if engine.Steps <= 0 {
		return fmt.Errorf("steps must be positive, got: %d", engine.Steps)
	}

	if engine.EmitProbability < 0 || engine.EmitProbability > 1 {
		return fmt.Errorf("emit probability must be between 0 and 1, got: %v", engine.EmitProbability)
	}

	if engine.DefaultDuration <= 0 {
		return fmt.Errorf("default duration must be positive, got: %v", engine.DefaultDuration)
	}

	if engine.MaxConcurrentJobs < 0 {
		return fmt.Errorf("max concurrent jobs cannot be negative, got: %d", engine.MaxConcurrentJobs)
	}

	if engine.ReapInterval < 0 {
		return fmt.Errorf("reap interval cannot be negative, got: %v", engine.ReapInterval)
	}

	return nil
}

// validateTargets checks every target and enforces unique names
func validateTargets(targets []TargetConfig) error {
	seen := make(map[string]bool, len(targets))
	for _, tc := range targets {
		if err := tc.ToTarget().Validate(); err != nil {
			return err
		}
		if seen[tc.Name] {
			return fmt.Errorf("duplicate target name: %s", tc.Name)
		}
		seen[tc.Name] = true
	}
	return nil
}

// validateAssessmentConfig checks the selection against the built-in catalog
func validateAssessmentConfig(assessment AssessmentConfig) error {
	if _, err := catalog.Default().Select(assessment.Vectors); err != nil {
		return err
	}

	for _, category := range assessment.Categories {
		if strings.TrimSpace(category) == "" {
			return fmt.Errorf("empty vector category")
		}
	}

	if assessment.Duration < 0 {
		return fmt.Errorf("duration cannot be negative, got: %v", assessment.Duration)
	}

	return nil
}

// validateReportsConfig validates reports-specific configuration
func validateReportsConfig(reports ReportsConfig) error {
	if reports.OutputDir == "" {
		return fmt.Errorf("reports output directory is required")
	}

	for _, format := range reports.Formats {
		if !validFormats[strings.ToLower(format)] {
			return fmt.Errorf("invalid report format: %s", format)
		}
	}

	return nil
}

func validateOutputConfig(output OutputConfig) error {
	if output.Verbosity != "" && !validVerbosity[output.Verbosity] {
		return fmt.Errorf("invalid verbosity: %s", output.Verbosity)
	}
	return nil
}

// SaveConfig saves configuration to a YAML file
func SaveConfig(cfg *Config, filename string) error {
	if filename == "" {
		filename = DefaultConfigFilename
	}

	if err := ValidateConfig(cfg); err != nil {
		return fmt.Errorf("cannot save invalid configuration: %w", err)
	}

	yamlData, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize configuration: %w", err)
	}

	if err := os.WriteFile(filename, yamlData, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// WriteDefaultConfig writes the commented default configuration, refusing to overwrite
func WriteDefaultConfig(filename string) error {
	if filename == "" {
		filename = DefaultConfigFilename
	}

	if _, err := os.Stat(filename); err == nil {
		return fmt.Errorf("configuration file already exists: %s", filename)
	}

	if err := os.WriteFile(filename, []byte(DefaultConfigContent), 0644); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	return nil
}
