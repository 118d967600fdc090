package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Iron-Ham/hive/internal/config"
	"github.com/Iron-Ham/hive/internal/lockfile"
	"github.com/Iron-Ham/hive/internal/logging"
	"github.com/Iron-Ham/hive/internal/registry"
	"github.com/Iron-Ham/hive/internal/taskboard"
)

// env holds the shared objects a command needs: loaded config, logger, and
// lazily constructed registry manager / board coordinator.
type env struct {
	cfg    *config.Config
	logger *logging.Logger
	base   string
}

// newEnv loads configuration and sets up logging for a command invocation.
func newEnv() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}

	logger := logging.NopLogger()
	if cfg.Logging.Enabled {
		dir := cfg.Logging.Dir
		if dir == "" {
			dir = filepath.Join(cwd, ".hive")
		}
		logger, err = logging.NewLogger(dir, logging.ParseLevel(cfg.Logging.Level))
		if err != nil {
			return nil, fmt.Errorf("set up logging: %w", err)
		}
	}

	return &env{cfg: cfg, logger: logger, base: cwd}, nil
}

// Close releases the environment's resources.
func (e *env) Close() {
	_ = e.logger.Close()
}

// registryPath returns the resolved registry file path.
func (e *env) registryPath() string {
	return e.cfg.Paths.ResolveRegistryFile(e.base)
}

// tasksPath returns the resolved task board file path.
func (e *env) tasksPath() string {
	return e.cfg.Paths.ResolveTasksFile(e.base)
}

// manager builds a registry manager over the configured file store.
func (e *env) manager() (*registry.Manager, error) {
	store, err := registry.NewFileStore(e.registryPath())
	if err != nil {
		return nil, err
	}

	locker := lockfile.New(store.Path()+".lock",
		lockfile.WithTimeout(e.cfg.Lock.Timeout()),
		lockfile.WithPollInterval(e.cfg.Lock.PollInterval()),
		lockfile.WithStaleAge(e.cfg.Lock.StaleAge()),
		lockfile.WithLogger(e.logger.WithComponent("lockfile")),
	)

	return registry.NewManager(store,
		registry.WithLocker(locker),
		registry.WithLogger(e.logger.WithComponent("registry")),
		registry.WithCleanupInterval(e.cfg.Lifecycle.CleanupInterval()),
		registry.WithInactivityTimeout(e.cfg.Lifecycle.InactivityTimeout()),
	), nil
}

// coordinator builds a task board coordinator over the configured file store.
func (e *env) coordinator() (*taskboard.Coordinator, error) {
	store, err := taskboard.NewFileStore(e.tasksPath())
	if err != nil {
		return nil, err
	}

	locker := lockfile.New(store.Path()+".lock",
		lockfile.WithTimeout(e.cfg.Lock.Timeout()),
		lockfile.WithPollInterval(e.cfg.Lock.PollInterval()),
		lockfile.WithStaleAge(e.cfg.Lock.StaleAge()),
		lockfile.WithLogger(e.logger.WithComponent("lockfile")),
	)

	return taskboard.NewCoordinator(store,
		taskboard.WithLocker(locker),
		taskboard.WithLogger(e.logger.WithComponent("taskboard")),
	), nil
}
