package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/memgraph/observation"
	"github.com/BaSui01/memgraph/persist"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 0.2, cfg.Lifecycle.CleanupThreshold)
	assert.Equal(t, 90, cfg.Lifecycle.ArchiveAfterDays)
	assert.Equal(t, 4, cfg.Lifecycle.MaxParallelArchives)

	assert.Equal(t, "memory", cfg.Sync.Target)
	assert.Equal(t, 10*time.Second, cfg.Sync.Timeout)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)

	require.NoError(t, cfg.Validate())
}

func TestLoader_LoadDefaults(t *testing.T) {
	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "memory", cfg.Sync.Target)
	assert.Equal(t, 0.2, cfg.Lifecycle.CleanupThreshold)
}

func TestLoader_LoadFromYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	yamlContent := `
lifecycle:
  cleanup_threshold: 0.35
  archive_after_days: 30

sync:
  target: file
  file_path: /var/lib/memgraph
  timeout: 30s
  redis:
    addr: "redis.internal:6379"

log:
  level: debug
  format: console

sources:
  direct_statement:
    base_confidence: 0.85
  weak_inference:
    decay_half_life_days: 7
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0o644))

	cfg, err := NewLoader().WithConfigPath(configPath).Load()
	require.NoError(t, err)

	assert.Equal(t, 0.35, cfg.Lifecycle.CleanupThreshold)
	assert.Equal(t, 30, cfg.Lifecycle.ArchiveAfterDays)
	// Unset values keep their defaults.
	assert.Equal(t, 4, cfg.Lifecycle.MaxParallelArchives)

	assert.Equal(t, "file", cfg.Sync.Target)
	assert.Equal(t, "/var/lib/memgraph", cfg.Sync.FilePath)
	assert.Equal(t, 30*time.Second, cfg.Sync.Timeout)
	assert.Equal(t, "redis.internal:6379", cfg.Sync.Redis.Addr)

	assert.Equal(t, "debug", cfg.Log.Level)

	profiles, err := cfg.Profiles()
	require.NoError(t, err)
	assert.Equal(t, 0.85, profiles[observation.SourceDirectStatement].BaseConfidence)
	// An override touches only the fields it sets.
	assert.Equal(t, float64(90), profiles[observation.SourceDirectStatement].DecayHalfLifeDays)
	assert.Equal(t, float64(7), profiles[observation.SourceWeakInference].DecayHalfLifeDays)
	assert.Equal(t, 0.4, profiles[observation.SourceWeakInference].BaseConfidence)
}

func TestLoader_EnvOverridesFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("sync:\n  target: memory\n"), 0o644))

	t.Setenv("MEMGRAPH_SYNC_TARGET", "redis")
	t.Setenv("MEMGRAPH_LIFECYCLE_ARCHIVE_AFTER_DAYS", "45")
	t.Setenv("MEMGRAPH_SYNC_TIMEOUT", "2s")

	cfg, err := NewLoader().WithConfigPath(configPath).Load()
	require.NoError(t, err)

	assert.Equal(t, "redis", cfg.Sync.Target)
	assert.Equal(t, 45, cfg.Lifecycle.ArchiveAfterDays)
	assert.Equal(t, 2*time.Second, cfg.Sync.Timeout)
}

func TestLoader_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := NewLoader().WithConfigPath("/nonexistent/config.yaml").Load()
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Sync.Target)
}

func TestConfig_ValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown sync target", func(c *Config) { c.Sync.Target = "tape" }},
		{"file medium without path", func(c *Config) { c.Sync.Target = "file" }},
		{"threshold above one", func(c *Config) { c.Lifecycle.CleanupThreshold = 1.5 }},
		{"non-positive archive window", func(c *Config) { c.Lifecycle.ArchiveAfterDays = 0 }},
		{"unknown source override", func(c *Config) {
			c.Sources = map[string]SourceProfileConfig{"psychic_reading": {BaseConfidence: f64(0.9)}}
		}},
		{"non-positive half-life override", func(c *Config) {
			c.Sources = map[string]SourceProfileConfig{"default": {DecayHalfLifeDays: f64(-1)}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func f64(v float64) *float64 { return &v }

func TestConfig_ProfileOverrideAllowsZeroBaseConfidence(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sources = map[string]SourceProfileConfig{
		"single_observation": {BaseConfidence: f64(0)},
	}
	require.NoError(t, cfg.Validate())

	profiles, err := cfg.Profiles()
	require.NoError(t, err)
	assert.Equal(t, 0.0, profiles[observation.SourceSingleObservation].BaseConfidence)
	// The half-life stays at its default when not overridden.
	assert.Equal(t, float64(14), profiles[observation.SourceSingleObservation].DecayHalfLifeDays)
}

func TestSyncConfig_OpenMedium(t *testing.T) {
	medium, err := DefaultSyncConfig().OpenMedium(nil)
	require.NoError(t, err)
	assert.IsType(t, &persist.MemoryMedium{}, medium)

	fileCfg := SyncConfig{Target: "file", FilePath: t.TempDir()}
	medium, err = fileCfg.OpenMedium(nil)
	require.NoError(t, err)
	assert.IsType(t, &persist.FileMedium{}, medium)

	_, err = SyncConfig{Target: "tape"}.OpenMedium(nil)
	require.Error(t, err)
}
