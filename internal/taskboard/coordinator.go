package taskboard

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Iron-Ham/hive/internal/errs"
	"github.com/Iron-Ham/hive/internal/event"
	"github.com/Iron-Ham/hive/internal/lockfile"
	"github.com/Iron-Ham/hive/internal/logging"
)

// DefaultLockTimeout bounds how long a board mutation waits for the lock.
const DefaultLockTimeout = 5 * time.Second

// Locker is the mutual-exclusion boundary for board mutations.
type Locker interface {
	WithLock(fn func() error) error
}

type memLocker struct {
	mu sync.Mutex
}

func (l *memLocker) WithLock(fn func() error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fn()
}

// Coordinator applies claim and transition rules on top of a Store. Every
// mutation runs inside a Locker-guarded critical section.
type Coordinator struct {
	store       Store
	locker      Locker
	logger      *logging.Logger
	bus         *event.Bus
	lockTimeout time.Duration
	now         func() time.Time
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger attaches a logger.
func WithLogger(logger *logging.Logger) Option {
	return func(c *Coordinator) { c.logger = logger }
}

// WithBus attaches an event bus; task transitions are published to it.
func WithBus(bus *event.Bus) Option {
	return func(c *Coordinator) { c.bus = bus }
}

// WithLockTimeout overrides the lock acquisition bound for the default
// file-backed locker.
func WithLockTimeout(d time.Duration) Option {
	return func(c *Coordinator) { c.lockTimeout = d }
}

// WithLocker replaces the mutual-exclusion primitive entirely.
func WithLocker(locker Locker) Option {
	return func(c *Coordinator) { c.locker = locker }
}

// WithClock replaces the time source. Test hook.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// NewCoordinator creates a Coordinator over the given store. File-backed
// stores get a sentinel lock at "<path>.lock"; in-memory stores get a
// process-local mutex.
func NewCoordinator(store Store, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:       store,
		logger:      logging.NopLogger(),
		lockTimeout: DefaultLockTimeout,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.locker == nil {
		if path := store.Path(); path != "" {
			c.locker = lockfile.New(path+".lock",
				lockfile.WithTimeout(c.lockTimeout),
				lockfile.WithLogger(c.logger),
			)
		} else {
			c.locker = &memLocker{}
		}
	}
	return c
}

// Claim atomically assigns a pending task to an agent. Fails with a
// NotFoundError for unknown tasks, a ConflictError when the task is not
// pending, and a DependencyError when any dependency has not completed.
// A failed claim leaves the board unchanged.
func (c *Coordinator) Claim(taskID, agentID string) (*Task, error) {
	if taskID == "" {
		return nil, errs.NewValidationError("task ID cannot be empty").WithField("id")
	}
	if agentID == "" {
		return nil, errs.NewValidationError("agent ID cannot be empty").WithField("agentId")
	}

	var claimed *Task
	err := c.locker.WithLock(func() error {
		doc, err := c.store.Load()
		if err != nil {
			return err
		}

		task, ok := doc.Tasks[taskID]
		if !ok {
			return errs.NewNotFoundError("task", taskID)
		}
		if task.Status != StatusPending {
			return errs.NewConflictError(fmt.Sprintf(
				"task '%s' is not available for claiming (status: %s)",
				taskID, task.Status))
		}

		if depErr := unmetDependencies(doc, task); depErr != nil {
			return depErr
		}

		task.Status = StatusInProgress
		task.AssignedAgent = agentID
		task.ClaimedAt = c.now().UnixMilli()

		if err := c.store.Save(doc); err != nil {
			return err
		}

		claimed = task.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("task claimed", "task_id", taskID, "agent_id", agentID)
	if c.bus != nil {
		c.bus.Publish(event.NewTaskClaimedEvent(taskID, agentID))
	}
	return claimed, nil
}

// unmetDependencies returns a DependencyError when any of the task's
// dependencies has not completed, preserving the task's declared order.
func unmetDependencies(doc *Document, task *Task) *DependencyError {
	var unmet []string
	for _, depID := range task.Dependencies {
		dep, ok := doc.Tasks[depID]
		if !ok || dep.Status != StatusCompleted {
			unmet = append(unmet, depID)
		}
	}
	if len(unmet) == 0 {
		return nil
	}
	return &DependencyError{
		TaskID:                task.ID,
		BlockedByDependencies: true,
		NextDependency:        unmet[0],
		Unmet:                 unmet,
	}
}

// Complete marks an in-progress task completed and stamps completed_at.
func (c *Coordinator) Complete(taskID string) (*Task, error) {
	return c.transition(taskID, func(task *Task) error {
		if task.Status != StatusInProgress {
			return errs.NewConflictError(fmt.Sprintf(
				"task '%s' cannot be completed (status: %s)", taskID, task.Status))
		}
		task.Status = StatusCompleted
		task.CompletedAt = c.now().UnixMilli()
		return nil
	}, func(task *Task) {
		c.logger.Info("task completed", "task_id", taskID, "agent_id", task.AssignedAgent)
		if c.bus != nil {
			c.bus.Publish(event.NewTaskCompletedEvent(taskID, task.AssignedAgent))
		}
	})
}

// Fail marks an in-progress task failed.
func (c *Coordinator) Fail(taskID string) (*Task, error) {
	return c.transition(taskID, func(task *Task) error {
		if task.Status != StatusInProgress {
			return errs.NewConflictError(fmt.Sprintf(
				"task '%s' cannot be failed (status: %s)", taskID, task.Status))
		}
		task.Status = StatusFailed
		task.CompletedAt = c.now().UnixMilli()
		return nil
	}, nil)
}

// Release returns a claimed task to pending, clearing its assignment.
func (c *Coordinator) Release(taskID string) (*Task, error) {
	var agentID string
	return c.transition(taskID, func(task *Task) error {
		if task.Status != StatusInProgress {
			return errs.NewConflictError(fmt.Sprintf(
				"task '%s' cannot be released (status: %s)", taskID, task.Status))
		}
		agentID = task.AssignedAgent
		task.Status = StatusPending
		task.AssignedAgent = ""
		task.ClaimedAt = 0
		return nil
	}, func(task *Task) {
		c.logger.Info("task released", "task_id", taskID, "agent_id", agentID)
		if c.bus != nil {
			c.bus.Publish(event.NewTaskReleasedEvent(taskID, agentID))
		}
	})
}

// transition applies mutate to the named task under the lock and persists
// the result. after, when non-nil, runs once the save has succeeded.
func (c *Coordinator) transition(taskID string, mutate func(*Task) error, after func(*Task)) (*Task, error) {
	if taskID == "" {
		return nil, errs.NewValidationError("task ID cannot be empty").WithField("id")
	}

	var updated *Task
	err := c.locker.WithLock(func() error {
		doc, err := c.store.Load()
		if err != nil {
			return err
		}

		task, ok := doc.Tasks[taskID]
		if !ok {
			return errs.NewNotFoundError("task", taskID)
		}
		if err := mutate(task); err != nil {
			return err
		}
		if err := c.store.Save(doc); err != nil {
			return err
		}

		updated = task.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}

	if after != nil {
		after(updated)
	}
	return updated, nil
}

// Add places a new task on the board. The task must have an ID and defaults
// to pending when no status is set. Fails with a ConflictError when the ID
// is already taken.
func (c *Coordinator) Add(task *Task) error {
	if task == nil || task.ID == "" {
		return errs.NewValidationError("task ID cannot be empty").WithField("id")
	}

	return c.locker.WithLock(func() error {
		doc, err := c.store.Load()
		if err != nil {
			return err
		}

		if _, exists := doc.Tasks[task.ID]; exists {
			return errs.NewConflictError(fmt.Sprintf("task '%s' already exists", task.ID))
		}

		cp := task.Clone()
		if cp.Status == "" {
			cp.Status = StatusPending
		}
		doc.Tasks[cp.ID] = cp
		return c.store.Save(doc)
	})
}

// Get returns the task with the given ID, or nil when unknown. Lock-free.
func (c *Coordinator) Get(taskID string) (*Task, error) {
	doc, err := c.store.Load()
	if err != nil {
		return nil, err
	}

	task, ok := doc.Tasks[taskID]
	if !ok {
		return nil, nil
	}
	return task.Clone(), nil
}

// List returns every task, ordered by ID. Lock-free.
func (c *Coordinator) List() ([]*Task, error) {
	doc, err := c.store.Load()
	if err != nil {
		return nil, err
	}

	tasks := make([]*Task, 0, len(doc.Tasks))
	for _, task := range doc.Tasks {
		tasks = append(tasks, task.Clone())
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	return tasks, nil
}

// Status computes task counts from a board snapshot. Lock-free.
func (c *Coordinator) Status() (*BoardStatus, error) {
	doc, err := c.store.Load()
	if err != nil {
		return nil, err
	}

	status := &BoardStatus{Total: len(doc.Tasks)}
	for _, task := range doc.Tasks {
		switch task.Status {
		case StatusPending:
			status.Pending++
		case StatusInProgress:
			status.InProgress++
		case StatusCompleted:
			status.Completed++
		case StatusFailed:
			status.Failed++
		}
	}
	return status, nil
}
