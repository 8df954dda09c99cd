package main

import (
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajkula/renegade/cmd/assess"
	"github.com/ajkula/renegade/pkg/config"
)

func TestInitConfigFeedsAssessLoader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, config.WriteDefaultConfig(path))

	previous := configFile
	configFile = path
	t.Cleanup(func() {
		configFile = previous
		viper.Reset()
	})

	t.Setenv("RENEGADE_ENGINE_STEPS", "7")

	require.NoError(t, initConfig())
	assert.Equal(t, path, viper.ConfigFileUsed())

	cfg, err := assess.LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Engine.Steps, "environment overrides apply without global viper env lookups")
	assert.Equal(t, "Local Model", cfg.Targets[0].Name)
}
