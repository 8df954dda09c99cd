package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. RENEGADE_ENGINE_STEPS
const EnvPrefix = "RENEGADE"

// Keys that may be overridden from the environment
const (
	keyEngineSteps             = "engine.steps"
	keyEngineEmitProbability   = "engine.emit_probability"
	keyEngineDefaultDuration   = "engine.default_duration"
	keyEngineMaxConcurrentJobs = "engine.max_concurrent_jobs"
	keyEngineReapInterval      = "engine.reap_interval"
	keyEngineSeed              = "engine.seed"
	keyTargetCredential        = "target.credential"
	keyReportsOutputDir        = "reports.output_dir"
	keyReportsFormats          = "reports.formats"
)

var envKeys = []string{
	keyEngineSteps,
	keyEngineEmitProbability,
	keyEngineDefaultDuration,
	keyEngineMaxConcurrentJobs,
	keyEngineReapInterval,
	keyEngineSeed,
	keyTargetCredential,
	keyReportsOutputDir,
	keyReportsFormats,
}

// newEnvViper returns a viper instance that only sees RENEGADE_* variables
func newEnvViper() (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}
	return v, nil
}

// ApplyEnvironment overlays RENEGADE_* environment variables onto cfg and revalidates it.
// RENEGADE_TARGET_CREDENTIAL fills the credential of every target that has none.
func ApplyEnvironment(cfg *Config) error {
	v, err := newEnvViper()
	if err != nil {
		return err
	}

	if v.IsSet(keyEngineSteps) {
		cfg.Engine.Steps = v.GetInt(keyEngineSteps)
	}
	if v.IsSet(keyEngineEmitProbability) {
		cfg.Engine.EmitProbability = v.GetFloat64(keyEngineEmitProbability)
	}
	if v.IsSet(keyEngineDefaultDuration) {
		cfg.Engine.DefaultDuration = v.GetDuration(keyEngineDefaultDuration)
	}
	if v.IsSet(keyEngineMaxConcurrentJobs) {
		cfg.Engine.MaxConcurrentJobs = v.GetInt(keyEngineMaxConcurrentJobs)
	}
	if v.IsSet(keyEngineReapInterval) {
		cfg.Engine.ReapInterval = v.GetDuration(keyEngineReapInterval)
	}
	if v.IsSet(keyEngineSeed) {
		cfg.Engine.Seed = v.GetUint64(keyEngineSeed)
	}
	if v.IsSet(keyReportsOutputDir) {
		cfg.Reports.OutputDir = v.GetString(keyReportsOutputDir)
	}
	if v.IsSet(keyReportsFormats) {
		cfg.Reports.Formats = splitList(v.GetString(keyReportsFormats))
	}
	if v.IsSet(keyTargetCredential) {
		credential := v.GetString(keyTargetCredential)
		for i := range cfg.Targets {
			if cfg.Targets[i].Credential == "" {
				cfg.Targets[i].Credential = credential
			}
		}
	}

	if err := ValidateConfig(cfg); err != nil {
		return fmt.Errorf("invalid environment override: %w", err)
	}
	return nil
}

func splitList(raw string) []string {
	var items []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
