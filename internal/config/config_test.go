package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestDefaults(t *testing.T) {
	resetViper(t)
	SetDefaults()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Lock.TimeoutMs != 5000 {
		t.Errorf("Lock.TimeoutMs = %d, want 5000", cfg.Lock.TimeoutMs)
	}
	if cfg.Lock.PollIntervalMs != 50 {
		t.Errorf("Lock.PollIntervalMs = %d, want 50", cfg.Lock.PollIntervalMs)
	}
	if cfg.Lock.StaleAgeMs != 60000 {
		t.Errorf("Lock.StaleAgeMs = %d, want 60000", cfg.Lock.StaleAgeMs)
	}
	if got := cfg.Lifecycle.CleanupInterval(); got != 30*time.Minute {
		t.Errorf("CleanupInterval() = %v, want 30m", got)
	}
	if got := cfg.Lifecycle.InactivityTimeout(); got != 2*time.Hour {
		t.Errorf("InactivityTimeout() = %v, want 2h", got)
	}
	if !cfg.Logging.Enabled || cfg.Logging.Level != "info" {
		t.Errorf("Logging = %+v, want enabled at info", cfg.Logging)
	}
}

func TestEnvOverride(t *testing.T) {
	resetViper(t)
	t.Setenv("HIVE_LOCK_TIMEOUT_MS", "100")
	t.Setenv("HIVE_LOGGING_LEVEL", "debug")

	SetDefaults()
	BindEnv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Lock.TimeoutMs != 100 {
		t.Errorf("Lock.TimeoutMs = %d, want 100 from env", cfg.Lock.TimeoutMs)
	}
	if got := cfg.Lock.Timeout(); got != 100*time.Millisecond {
		t.Errorf("Timeout() = %v, want 100ms", got)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug from env", cfg.Logging.Level)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{
			name:   "zero lock timeout",
			mutate: func(c *Config) { c.Lock.TimeoutMs = 0 },
			field:  "lock.timeout_ms",
		},
		{
			name:   "negative poll interval",
			mutate: func(c *Config) { c.Lock.PollIntervalMs = -1 },
			field:  "lock.poll_interval_ms",
		},
		{
			name:   "poll exceeds timeout",
			mutate: func(c *Config) { c.Lock.PollIntervalMs = 10000 },
			field:  "lock.poll_interval_ms",
		},
		{
			name:   "zero cleanup interval",
			mutate: func(c *Config) { c.Lifecycle.CleanupIntervalMs = 0 },
			field:  "lifecycle.cleanup_interval_ms",
		},
		{
			name:   "unknown log level",
			mutate: func(c *Config) { c.Logging.Level = "verbose" },
			field:  "logging.level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			errs := cfg.Validate()
			if len(errs) == 0 {
				t.Fatal("Validate() = no errors, want at least one")
			}
			found := false
			for _, err := range errs {
				if err.Field == tt.field {
					found = true
				}
			}
			if !found {
				t.Errorf("Validate() errors %v do not mention field %q", errs, tt.field)
			}
		})
	}
}

func TestDefaultConfigValidates(t *testing.T) {
	if errs := Default().Validate(); len(errs) != 0 {
		t.Errorf("Default().Validate() = %v, want no errors", errs)
	}
}

func TestResolvePaths(t *testing.T) {
	base := "/work"

	var p PathsConfig
	if got := p.ResolveRegistryFile(base); got != filepath.Join(base, ".hive", "registry.json") {
		t.Errorf("ResolveRegistryFile() = %q, want default under base", got)
	}
	if got := p.ResolveTasksFile(base); got != filepath.Join(base, ".hive", "tasks.json") {
		t.Errorf("ResolveTasksFile() = %q, want default under base", got)
	}

	p.RegistryFile = "/abs/registry.json"
	if got := p.ResolveRegistryFile(base); got != "/abs/registry.json" {
		t.Errorf("ResolveRegistryFile() = %q, want absolute path unchanged", got)
	}

	p.RegistryFile = "state/registry.json"
	if got := p.ResolveRegistryFile(base); got != filepath.Join(base, "state", "registry.json") {
		t.Errorf("ResolveRegistryFile() = %q, want relative path under base", got)
	}
}
