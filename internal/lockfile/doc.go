// Package lockfile provides cross-process mutual exclusion over files shared
// by cooperating hive agent processes.
//
// The lock is a sentinel file next to the protected file: its presence means
// "held". Acquisition creates the sentinel with O_EXCL so exactly one process
// wins a race; losers poll at a fixed interval until the sentinel disappears
// or the configured timeout elapses. The sentinel's content is a small JSON
// blob (pid, hostname, acquisition time) used only for diagnostics and
// staleness detection.
//
// # Basic Usage
//
//	mu := lockfile.New(registryPath + ".lock")
//
//	err := mu.WithLock(func() error {
//	    // read-modify-write the protected file
//	    return nil
//	})
//
// # Stale Locks
//
// A sentinel left behind by a crashed holder is forcibly broken when the
// recorded PID is no longer alive, or when the sentinel is older than the
// configured stale age (default one minute). Both thresholds are
// configurable via options.
//
// # Guarantees
//
// Only mutual exclusion is guaranteed. Waiters race to reacquire after a
// release; there is no FIFO fairness.
package lockfile
