package config

import "time"

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Lifecycle: DefaultLifecycleConfig(),
		Sync:      DefaultSyncConfig(),
		Log:       DefaultLogConfig(),
	}
}

// DefaultLifecycleConfig returns the default maintenance tuning.
func DefaultLifecycleConfig() LifecycleConfig {
	return LifecycleConfig{
		CleanupThreshold:    0.2,
		ArchiveAfterDays:    90,
		MaxParallelArchives: 4,
	}
}

// DefaultSyncConfig returns the default persistence settings: the in-memory
// medium, so a zero-configuration system works without any backend.
func DefaultSyncConfig() SyncConfig {
	return SyncConfig{
		Target:  "memory",
		Timeout: 10 * time.Second,
	}
}

// DefaultLogConfig returns the default logging settings.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:       "info",
		Format:      "json",
		OutputPaths: []string{"stdout"},
	}
}
