package lockfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/Iron-Ham/hive/internal/logging"
)

// Defaults for lock acquisition behavior.
const (
	DefaultTimeout      = 5 * time.Second
	DefaultPollInterval = 50 * time.Millisecond
	DefaultStaleAge     = time.Minute
)

// ErrLockTimeout is returned when the lock cannot be acquired within the
// configured timeout. The message is stable and matched by callers; do not
// change it.
var ErrLockTimeout = errors.New("Registry lock timeout")

// Info is the diagnostic content written into the sentinel file.
type Info struct {
	PID        int       `json:"pid"`
	Hostname   string    `json:"hostname"`
	AcquiredAt time.Time `json:"acquiredAt"`
}

// Mutex is an exclusive, cross-process lock backed by a sentinel file.
// A Mutex value only carries configuration; all state lives in the
// filesystem, so independent processes constructing a Mutex for the same
// path exclude one another.
type Mutex struct {
	path     string
	timeout  time.Duration
	poll     time.Duration
	staleAge time.Duration
	logger   *logging.Logger
}

// Option configures a Mutex.
type Option func(*Mutex)

// WithTimeout bounds how long acquisition may block before failing with
// ErrLockTimeout.
func WithTimeout(d time.Duration) Option {
	return func(m *Mutex) { m.timeout = d }
}

// WithPollInterval sets the interval between acquisition attempts while the
// sentinel is held by another process.
func WithPollInterval(d time.Duration) Option {
	return func(m *Mutex) { m.poll = d }
}

// WithStaleAge sets the age beyond which a sentinel is considered abandoned
// and forcibly broken even if the holder PID cannot be checked.
func WithStaleAge(d time.Duration) Option {
	return func(m *Mutex) { m.staleAge = d }
}

// WithLogger attaches a logger for acquisition diagnostics.
func WithLogger(logger *logging.Logger) Option {
	return func(m *Mutex) { m.logger = logger }
}

// New creates a Mutex for the given sentinel path.
func New(path string, opts ...Option) *Mutex {
	m := &Mutex{
		path:     path,
		timeout:  DefaultTimeout,
		poll:     DefaultPollInterval,
		staleAge: DefaultStaleAge,
		logger:   logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Path returns the sentinel file path.
func (m *Mutex) Path() string { return m.path }

// WithLock runs fn while holding the lock. The sentinel is removed on every
// exit path, including a panic inside fn, so a crash in the critical section
// cannot leave the lock held by this process.
func (m *Mutex) WithLock(fn func() error) error {
	if err := m.acquire(); err != nil {
		return err
	}
	defer m.release()
	return fn()
}

// acquire creates the sentinel, polling until success or timeout.
func (m *Mutex) acquire() error {
	deadline := time.Now().Add(m.timeout)

	for {
		ok, err := m.tryAcquire()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}

		if m.breakIfStale() {
			continue
		}

		if time.Now().After(deadline) {
			m.logger.Warn("lock acquisition timed out",
				"path", m.path,
				"timeout", m.timeout.String(),
			)
			return ErrLockTimeout
		}
		time.Sleep(m.poll)
	}
}

// tryAcquire attempts a single O_EXCL creation of the sentinel.
// Returns false with no error when the sentinel is held by someone else.
func (m *Mutex) tryAcquire() (bool, error) {
	f, err := os.OpenFile(m.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if os.IsExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("create lock sentinel: %w", err)
	}
	defer f.Close()

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	data, err := json.MarshalIndent(Info{
		PID:        os.Getpid(),
		Hostname:   hostname,
		AcquiredAt: time.Now(),
	}, "", "  ")
	if err != nil {
		os.Remove(m.path)
		return false, fmt.Errorf("marshal lock info: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		os.Remove(m.path)
		return false, fmt.Errorf("write lock sentinel: %w", err)
	}
	return true, nil
}

// release removes the sentinel unconditionally.
func (m *Mutex) release() {
	if err := os.Remove(m.path); err != nil && !os.IsNotExist(err) {
		m.logger.Error("failed to remove lock sentinel",
			"path", m.path,
			"error", err.Error(),
		)
	}
}

// breakIfStale removes an abandoned sentinel. A sentinel is abandoned when
// its recorded holder PID is no longer alive, or when it is older than the
// stale age. Returns true if a sentinel was removed.
func (m *Mutex) breakIfStale() bool {
	info, err := ReadInfo(m.path)
	if err == nil {
		if isProcessAlive(info.PID) && time.Since(info.AcquiredAt) <= m.staleAge {
			return false
		}
	} else {
		// Unparsable sentinel: fall back to file age.
		st, statErr := os.Stat(m.path)
		if statErr != nil || time.Since(st.ModTime()) <= m.staleAge {
			return false
		}
	}

	if err := os.Remove(m.path); err != nil && !os.IsNotExist(err) {
		return false
	}
	m.logger.Warn("broke stale lock sentinel", "path", m.path)
	return true
}

// Holder returns the diagnostic info from the sentinel and true when the
// lock appears held, or (nil, false) when it is free.
func (m *Mutex) Holder() (*Info, bool) {
	info, err := ReadInfo(m.path)
	if err != nil {
		return nil, false
	}
	return info, true
}

// ReadInfo parses the sentinel content at the given path.
func ReadInfo(path string) (*Info, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("parse lock sentinel: %w", err)
	}
	return &info, nil
}

// isProcessAlive checks if a process with the given PID is still running.
func isProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}

	// On Unix, sending signal 0 checks if the process exists without
	// affecting it.
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}
