package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/BaSui01/memgraph/observation"
	"github.com/BaSui01/memgraph/persist"
)

// Config is the full memgraph configuration.
type Config struct {
	// Lifecycle tunes decay sweeps, cleanup and archival.
	Lifecycle LifecycleConfig `yaml:"lifecycle" env:"LIFECYCLE"`

	// Sync selects and configures the persistence medium.
	Sync SyncConfig `yaml:"sync" env:"SYNC"`

	// Log configures the zap logger.
	Log LogConfig `yaml:"log" env:"LOG"`

	// Sources overrides entries of the built-in source profile table.
	// Keys are source names; unknown names are rejected by Validate.
	Sources map[string]SourceProfileConfig `yaml:"sources"`
}

// LifecycleConfig tunes the maintenance operations.
type LifecycleConfig struct {
	// CleanupThreshold is the confidence below which entities are purged.
	CleanupThreshold float64 `yaml:"cleanup_threshold" env:"CLEANUP_THRESHOLD"`
	// ArchiveAfterDays is the staleness bound for archival sweeps.
	ArchiveAfterDays int `yaml:"archive_after_days" env:"ARCHIVE_AFTER_DAYS"`
	// MaxParallelArchives bounds concurrent entity archive writes.
	MaxParallelArchives int `yaml:"max_parallel_archives" env:"MAX_PARALLEL_ARCHIVES"`
}

// SyncConfig selects the persistence medium.
type SyncConfig struct {
	// Target is the medium type: memory, file, document-db or redis.
	Target string `yaml:"target" env:"TARGET"`
	// FilePath is the base directory for the file medium.
	FilePath string `yaml:"file_path" env:"FILE_PATH"`
	// Mongo configures the document-db medium.
	Mongo persist.MongoConfig `yaml:"mongo"`
	// Redis configures the redis medium.
	Redis persist.RedisConfig `yaml:"redis"`
	// Timeout bounds each medium operation.
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
	// SnapshotCollection and ArchiveCollection override the medium
	// collection names.
	SnapshotCollection string `yaml:"snapshot_collection" env:"SNAPSHOT_COLLECTION"`
	ArchiveCollection  string `yaml:"archive_collection" env:"ARCHIVE_COLLECTION"`
}

// LogConfig configures logging output.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level" env:"LEVEL"`
	// Format is json or console.
	Format string `yaml:"format" env:"FORMAT"`
	// OutputPaths are zap output sinks.
	OutputPaths []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
}

// SourceProfileConfig overrides one source profile entry. Fields are
// pointers so an explicit zero is distinguishable from an absent override.
type SourceProfileConfig struct {
	BaseConfidence    *float64 `yaml:"base_confidence"`
	DecayHalfLifeDays *float64 `yaml:"decay_half_life_days"`
}

// Loader loads configuration with defaults, YAML file and environment
// overrides, in that order of increasing precedence.
type Loader struct {
	configPath string
	envPrefix  string
	validators []func(*Config) error
}

// NewLoader creates a loader with the MEMGRAPH env prefix.
func NewLoader() *Loader {
	return &Loader{
		envPrefix:  "MEMGRAPH",
		validators: make([]func(*Config) error, 0),
	}
}

// WithConfigPath sets the YAML file path. A missing file is not an error.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix overrides the environment variable prefix.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithValidator adds an extra validation step run after loading.
func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// Load resolves the configuration: defaults, then YAML, then environment.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := l.loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	for _, v := range l.validators {
		if err := v(cfg); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}

	return cfg, nil
}

func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func (l *Loader) loadFromEnv(cfg *Config) error {
	return l.setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix)
}

func (l *Loader) setFieldsFromEnv(v reflect.Value, prefix string) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		envTag := fieldType.Tag.Get("env")
		if envTag == "" || envTag == "-" {
			continue
		}

		envKey := prefix + "_" + envTag

		if field.Kind() == reflect.Struct {
			if err := l.setFieldsFromEnv(field, envKey); err != nil {
				return err
			}
			continue
		}

		envValue := os.Getenv(envKey)
		if envValue == "" {
			continue
		}

		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("set %s: %w", envKey, err)
		}
	}

	return nil
}

func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return err
			}
			field.SetInt(i)
		}

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)

	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			field.Set(reflect.ValueOf(parts))
		}
	}

	return nil
}

// MustLoad loads the configuration at path, panicking on failure.
func MustLoad(path string) *Config {
	cfg, err := NewLoader().WithConfigPath(path).Load()
	if err != nil {
		panic(fmt.Sprintf("load config: %v", err))
	}
	return cfg
}

// Validate checks the configuration for internally inconsistent values,
// including the assembled source profile table.
func (c *Config) Validate() error {
	var errs []string

	if c.Lifecycle.CleanupThreshold < 0 || c.Lifecycle.CleanupThreshold > 1 {
		errs = append(errs, "lifecycle.cleanup_threshold must be in [0,1]")
	}
	if c.Lifecycle.ArchiveAfterDays <= 0 {
		errs = append(errs, "lifecycle.archive_after_days must be positive")
	}
	if c.Lifecycle.MaxParallelArchives < 0 {
		errs = append(errs, "lifecycle.max_parallel_archives must not be negative")
	}

	switch persist.MediumType(c.Sync.Target) {
	case persist.MediumMemory, persist.MediumFile, persist.MediumDocumentDB, persist.MediumRedis:
	default:
		errs = append(errs, fmt.Sprintf("sync.target %q is not a known medium", c.Sync.Target))
	}
	if persist.MediumType(c.Sync.Target) == persist.MediumFile && c.Sync.FilePath == "" {
		errs = append(errs, "sync.file_path is required for the file medium")
	}
	if c.Sync.Timeout < 0 {
		errs = append(errs, "sync.timeout must not be negative")
	}

	for name := range c.Sources {
		if !observation.IsKnownSource(observation.Source(name)) {
			errs = append(errs, fmt.Sprintf("sources.%s is not a known source", name))
		}
	}
	if _, err := c.Profiles(); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Profiles materializes the source profile table: the built-in defaults with
// the configured overrides applied, validated as a whole.
func (c *Config) Profiles() (observation.ProfileTable, error) {
	table := observation.DefaultProfiles()
	for name, override := range c.Sources {
		profile := table[observation.Source(name)]
		if override.BaseConfidence != nil {
			profile.BaseConfidence = *override.BaseConfidence
		}
		if override.DecayHalfLifeDays != nil {
			profile.DecayHalfLifeDays = *override.DecayHalfLifeDays
		}
		table[observation.Source(name)] = profile
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table, nil
}
