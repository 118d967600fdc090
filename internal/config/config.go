// Package config loads hive configuration from a YAML file and HIVE_*
// environment overrides via viper.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete hive configuration
type Config struct {
	Paths     PathsConfig     `mapstructure:"paths"`
	Lock      LockConfig      `mapstructure:"lock"`
	Lifecycle LifecycleConfig `mapstructure:"lifecycle"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// PathsConfig controls where hive stores its shared state files
type PathsConfig struct {
	// RegistryFile is the path of the shared agent registry JSON file.
	// If empty, defaults to ".hive/registry.json" relative to the working
	// directory. Supports ~ for home directory expansion.
	RegistryFile string `mapstructure:"registry_file"`
	// TasksFile is the path of the shared task board JSON file.
	// If empty, defaults to ".hive/tasks.json". Supports ~ expansion.
	TasksFile string `mapstructure:"tasks_file"`
}

// LockConfig controls the cross-process lock behavior
type LockConfig struct {
	// TimeoutMs bounds how long a mutation waits for the lock (default: 5000)
	TimeoutMs int `mapstructure:"timeout_ms"`
	// PollIntervalMs is the retry interval while the lock is held (default: 50)
	PollIntervalMs int `mapstructure:"poll_interval_ms"`
	// StaleAgeMs is the age beyond which an abandoned lock sentinel is
	// forcibly broken (default: 60000)
	StaleAgeMs int `mapstructure:"stale_age_ms"`
}

// LifecycleConfig controls agent cleanup behavior
type LifecycleConfig struct {
	// CleanupIntervalMs is the minimum spacing between cleanup passes
	// (default: 1800000, 30 minutes)
	CleanupIntervalMs int `mapstructure:"cleanup_interval_ms"`
	// InactivityTimeoutMs is how long an agent may go without activity
	// before being marked inactive (default: 7200000, 2 hours)
	InactivityTimeoutMs int `mapstructure:"inactivity_timeout_ms"`
}

// LoggingConfig controls structured logging behavior
type LoggingConfig struct {
	// Enabled controls whether logging is enabled (default: true)
	Enabled bool `mapstructure:"enabled"`
	// Level is the log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level"`
	// Dir is the directory for the log file; empty logs to stderr
	Dir string `mapstructure:"dir"`
}

// Timeout returns the lock timeout as a time.Duration
func (c *LockConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// PollInterval returns the poll interval as a time.Duration
func (c *LockConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// StaleAge returns the stale sentinel age as a time.Duration
func (c *LockConfig) StaleAge() time.Duration {
	return time.Duration(c.StaleAgeMs) * time.Millisecond
}

// CleanupInterval returns the cleanup interval as a time.Duration
func (c *LifecycleConfig) CleanupInterval() time.Duration {
	return time.Duration(c.CleanupIntervalMs) * time.Millisecond
}

// InactivityTimeout returns the inactivity timeout as a time.Duration
func (c *LifecycleConfig) InactivityTimeout() time.Duration {
	return time.Duration(c.InactivityTimeoutMs) * time.Millisecond
}

// ResolveRegistryFile returns the resolved registry file path.
// Relative paths are resolved against baseDir; ~ expands to the home
// directory.
func (p *PathsConfig) ResolveRegistryFile(baseDir string) string {
	return resolvePath(p.RegistryFile, baseDir, filepath.Join(".hive", "registry.json"))
}

// ResolveTasksFile returns the resolved task board file path.
func (p *PathsConfig) ResolveTasksFile(baseDir string) string {
	return resolvePath(p.TasksFile, baseDir, filepath.Join(".hive", "tasks.json"))
}

func resolvePath(path, baseDir, fallback string) string {
	if path == "" {
		return filepath.Join(baseDir, fallback)
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}
	return path
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			RegistryFile: "", // Empty means use default: .hive/registry.json
			TasksFile:    "", // Empty means use default: .hive/tasks.json
		},
		Lock: LockConfig{
			TimeoutMs:      5000,
			PollIntervalMs: 50,
			StaleAgeMs:     60000,
		},
		Lifecycle: LifecycleConfig{
			CleanupIntervalMs:   30 * 60 * 1000,
			InactivityTimeoutMs: 2 * 60 * 60 * 1000,
		},
		Logging: LoggingConfig{
			Enabled: true,
			Level:   "info",
			Dir:     "",
		},
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// Paths defaults
	viper.SetDefault("paths.registry_file", defaults.Paths.RegistryFile)
	viper.SetDefault("paths.tasks_file", defaults.Paths.TasksFile)

	// Lock defaults
	viper.SetDefault("lock.timeout_ms", defaults.Lock.TimeoutMs)
	viper.SetDefault("lock.poll_interval_ms", defaults.Lock.PollIntervalMs)
	viper.SetDefault("lock.stale_age_ms", defaults.Lock.StaleAgeMs)

	// Lifecycle defaults
	viper.SetDefault("lifecycle.cleanup_interval_ms", defaults.Lifecycle.CleanupIntervalMs)
	viper.SetDefault("lifecycle.inactivity_timeout_ms", defaults.Lifecycle.InactivityTimeoutMs)

	// Logging defaults
	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)
}

// BindEnv configures HIVE_* environment variable overrides, e.g.
// HIVE_LOCK_TIMEOUT_MS=100 overrides lock.timeout_ms.
func BindEnv() {
	viper.SetEnvPrefix("HIVE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "hive")
	}
	// Fall back to ~/.config/hive
	home, err := os.UserHomeDir()
	if err != nil {
		return ".hive"
	}
	return filepath.Join(home, ".config", "hive")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
