package registry

import (
	"sort"
	"sync"
	"time"

	"github.com/Iron-Ham/hive/internal/errs"
	"github.com/Iron-Ham/hive/internal/event"
	"github.com/Iron-Ham/hive/internal/lockfile"
	"github.com/Iron-Ham/hive/internal/logging"
)

// Default lifecycle thresholds.
const (
	// DefaultInactivityTimeout is how long an agent may go without activity
	// before a cleanup pass marks its slot inactive.
	DefaultInactivityTimeout = 2 * time.Hour

	// DefaultCleanupInterval bounds how often the cleanup pass runs, so a
	// registration never scans the whole registry more than once per
	// interval while holding the lock.
	DefaultCleanupInterval = 30 * time.Minute

	// DefaultLockTimeout bounds how long a mutation waits for the registry
	// lock.
	DefaultLockTimeout = 5 * time.Second
)

// Locker is the mutual-exclusion boundary for registry mutations.
// lockfile.Mutex provides the cross-process implementation; an in-process
// mutex suffices when the store is in-memory.
type Locker interface {
	WithLock(fn func() error) error
}

// memLocker guards in-memory stores, where no other process can see the
// data anyway.
type memLocker struct {
	mu sync.Mutex
}

func (l *memLocker) WithLock(fn func() error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fn()
}

// Manager applies the agent lifecycle rules on top of a Store. Every
// mutation runs inside a Locker-guarded critical section; read projections
// go straight to the store and observe a consistent snapshot.
type Manager struct {
	store             Store
	locker            Locker
	logger            *logging.Logger
	bus               *event.Bus
	inactivityTimeout time.Duration
	cleanupInterval   time.Duration
	lockTimeout       time.Duration
	now               func() time.Time
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger attaches a logger.
func WithLogger(logger *logging.Logger) ManagerOption {
	return func(m *Manager) { m.logger = logger }
}

// WithBus attaches an event bus; lifecycle transitions are published to it.
func WithBus(bus *event.Bus) ManagerOption {
	return func(m *Manager) { m.bus = bus }
}

// WithInactivityTimeout overrides the inactivity threshold.
func WithInactivityTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) { m.inactivityTimeout = d }
}

// WithCleanupInterval overrides the minimum spacing between cleanup passes.
func WithCleanupInterval(d time.Duration) ManagerOption {
	return func(m *Manager) { m.cleanupInterval = d }
}

// WithLockTimeout overrides the lock acquisition bound for the default
// file-backed locker.
func WithLockTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) { m.lockTimeout = d }
}

// WithLocker replaces the mutual-exclusion primitive entirely.
func WithLocker(locker Locker) ManagerOption {
	return func(m *Manager) { m.locker = locker }
}

// WithClock replaces the time source. Test hook.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a Manager over the given store. File-backed stores get
// a sentinel lock at "<path>.lock"; in-memory stores get a process-local
// mutex.
func NewManager(store Store, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:             store,
		logger:            logging.NopLogger(),
		inactivityTimeout: DefaultInactivityTimeout,
		cleanupInterval:   DefaultCleanupInterval,
		lockTimeout:       DefaultLockTimeout,
		now:               time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.locker == nil {
		if path := store.Path(); path != "" {
			m.locker = lockfile.New(path+".lock",
				lockfile.WithTimeout(m.lockTimeout),
				lockfile.WithLogger(m.logger),
			)
		} else {
			m.locker = &memLocker{}
		}
	}
	return m
}

// Initialize registers a session and returns the assigned slot. The
// resolution order is: reuse the session's existing active entry, then take
// over the first inactive slot, then allocate a fresh number. A cleanup pass
// runs first when one is due.
func (m *Manager) Initialize(info AgentInfo) (*InitResult, error) {
	var result *InitResult

	err := m.locker.WithLock(func() error {
		doc, err := m.store.Load()
		if err != nil {
			return err
		}

		now := m.now()
		deactivated := m.cleanupIfDue(doc, now)

		res, err := m.resolveSlot(doc, info, now)
		if err != nil {
			return err
		}

		if err := m.store.Save(doc); err != nil {
			return err
		}

		result = res
		m.publishInit(res, deactivated)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// resolveSlot mutates doc to register the session and reports the outcome.
func (m *Manager) resolveSlot(doc *Document, info AgentInfo, now time.Time) (*InitResult, error) {
	ms := now.UnixMilli()

	// Reuse the session's existing active entry.
	if info.SessionID != "" {
		if entry := findExistingAgent(doc, info.SessionID); entry != nil {
			entry.TotalRequests++
			entry.LastActivity = ms
			m.logger.Debug("session reused existing agent",
				"agent_id", entry.AgentID,
				"session_id", info.SessionID,
				"total_requests", entry.TotalRequests,
			)
			return &InitResult{
				Action:        ActionReusedExisting,
				AgentID:       entry.AgentID,
				AgentNumber:   entry.AgentNumber,
				SessionID:     entry.SessionID,
				TotalRequests: entry.TotalRequests,
			}, nil
		}
	}

	sessionID := info.SessionID
	if sessionID == "" {
		sessionID = GenerateSessionID(now)
	}

	// Take over the first inactive slot, lowest agent number first.
	if entry := findReusableSlot(doc); entry != nil {
		previous := entry.Clone()

		entry.SessionID = sessionID
		entry.Role = info.Role
		entry.Specialization = info.Specialization
		entry.Capabilities = info.Capabilities
		entry.Metadata = info.Metadata
		entry.Status = StatusActive
		entry.LastActivity = ms
		entry.TotalRequests = 1
		entry.InactiveSince = 0

		m.logger.Info("inactive slot reused",
			"agent_id", entry.AgentID,
			"session_id", sessionID,
			"previous_session_id", previous.SessionID,
		)
		return &InitResult{
			Action:        ActionReusedInactiveSlot,
			AgentID:       entry.AgentID,
			AgentNumber:   entry.AgentNumber,
			SessionID:     sessionID,
			TotalRequests: 1,
			PreviousAgent: previous,
		}, nil
	}

	// Allocate a fresh slot.
	number := doc.NextAgentNumber
	doc.NextAgentNumber++

	entry := &AgentEntry{
		AgentID:        AgentIDFor(number),
		AgentNumber:    number,
		SessionID:      sessionID,
		Role:           info.Role,
		Specialization: info.Specialization,
		Capabilities:   info.Capabilities,
		Metadata:       info.Metadata,
		Status:         StatusActive,
		CreatedAt:      ms,
		LastActivity:   ms,
		TotalRequests:  1,
	}
	doc.Agents[entry.AgentID] = entry

	m.logger.Info("new agent number assigned",
		"agent_id", entry.AgentID,
		"session_id", sessionID,
	)
	return &InitResult{
		Action:        ActionAssignedNewNumber,
		AgentID:       entry.AgentID,
		AgentNumber:   number,
		SessionID:     sessionID,
		TotalRequests: 1,
	}, nil
}

// cleanupIfDue marks idle agents inactive when the cleanup interval has
// elapsed. Returns the IDs of newly deactivated agents.
func (m *Manager) cleanupIfDue(doc *Document, now time.Time) []string {
	ms := now.UnixMilli()
	if ms-doc.LastCleanup <= m.cleanupInterval.Milliseconds() {
		return nil
	}

	var deactivated []string
	cutoff := ms - m.inactivityTimeout.Milliseconds()
	for _, entry := range doc.Agents {
		if entry.Status == StatusActive && entry.LastActivity < cutoff {
			entry.Status = StatusInactive
			entry.InactiveSince = ms
			deactivated = append(deactivated, entry.AgentID)
		}
	}
	doc.LastCleanup = ms

	if len(deactivated) > 0 {
		sort.Strings(deactivated)
		m.logger.Info("cleanup pass deactivated idle agents",
			"count", len(deactivated),
		)
	}
	return deactivated
}

// CleanupNow forces a cleanup pass regardless of the interval gate.
// Returns the IDs of agents newly marked inactive.
func (m *Manager) CleanupNow() ([]string, error) {
	var deactivated []string

	err := m.locker.WithLock(func() error {
		doc, err := m.store.Load()
		if err != nil {
			return err
		}

		// Bypass the interval gate by treating the last pass as ancient.
		doc.LastCleanup = 0
		deactivated = m.cleanupIfDue(doc, m.now())

		return m.store.Save(doc)
	})
	if err != nil {
		return nil, err
	}

	if m.bus != nil && len(deactivated) > 0 {
		m.bus.Publish(event.NewCleanupEvent(deactivated))
	}
	return deactivated, nil
}

// UpdateActivity bumps an agent's request counter and activity timestamp.
// Returns false with no error when the agent is unknown, so pollers are not
// forced into error handling.
func (m *Manager) UpdateActivity(agentID string) (bool, error) {
	if agentID == "" {
		return false, errs.NewValidationError("agent ID cannot be empty").WithField("agentId")
	}

	found := false
	err := m.locker.WithLock(func() error {
		doc, err := m.store.Load()
		if err != nil {
			return err
		}

		entry, ok := doc.Agents[agentID]
		if !ok {
			return nil
		}
		found = true

		entry.TotalRequests++
		entry.LastActivity = m.now().UnixMilli()
		return m.store.Save(doc)
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

// Agent returns the entry for the given ID, or nil when unknown.
// Reads are lock-free: saves are atomic, so any load observes a complete
// snapshot.
func (m *Manager) Agent(agentID string) (*AgentEntry, error) {
	doc, err := m.store.Load()
	if err != nil {
		return nil, err
	}

	entry, ok := doc.Agents[agentID]
	if !ok {
		return nil, nil
	}
	return entry.Clone(), nil
}

// ActiveAgents returns all active entries, ordered by agent number.
func (m *Manager) ActiveAgents() ([]*AgentEntry, error) {
	return m.agents(func(e *AgentEntry) bool { return e.Status == StatusActive })
}

// AllAgents returns every entry, ordered by agent number.
func (m *Manager) AllAgents() ([]*AgentEntry, error) {
	return m.agents(func(*AgentEntry) bool { return true })
}

// agents returns cloned entries matching the filter, ordered by number.
func (m *Manager) agents(keep func(*AgentEntry) bool) ([]*AgentEntry, error) {
	doc, err := m.store.Load()
	if err != nil {
		return nil, err
	}

	var entries []*AgentEntry
	for _, entry := range doc.Agents {
		if keep(entry) {
			entries = append(entries, entry.Clone())
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].AgentNumber < entries[j].AgentNumber
	})
	return entries, nil
}

// Stats computes derived counts from a snapshot of the registry.
func (m *Manager) Stats() (*Stats, error) {
	doc, err := m.store.Load()
	if err != nil {
		return nil, err
	}

	size, err := m.store.Size()
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		TotalAgents:     len(doc.Agents),
		NextAgentNumber: doc.NextAgentNumber,
		LastCleanup:     doc.LastCleanup,
		RegistrySize:    size,
	}
	for _, entry := range doc.Agents {
		if entry.Status == StatusActive {
			stats.ActiveAgents++
		} else {
			stats.InactiveAgents++
		}
	}
	return stats, nil
}

// publishInit emits lifecycle events for a completed registration.
func (m *Manager) publishInit(res *InitResult, deactivated []string) {
	if m.bus == nil {
		return
	}

	if len(deactivated) > 0 {
		m.bus.Publish(event.NewCleanupEvent(deactivated))
	}

	switch res.Action {
	case ActionReusedExisting:
		m.bus.Publish(event.NewAgentReusedEvent(res.AgentID, res.SessionID, res.TotalRequests))
	case ActionReusedInactiveSlot:
		prevSession := ""
		if res.PreviousAgent != nil {
			prevSession = res.PreviousAgent.SessionID
		}
		m.bus.Publish(event.NewSlotReusedEvent(res.AgentID, res.AgentNumber, res.SessionID, prevSession))
	case ActionAssignedNewNumber:
		m.bus.Publish(event.NewAgentRegisteredEvent(res.AgentID, res.AgentNumber, res.SessionID))
	}
}

// findExistingAgent returns the active entry matching the session ID.
func findExistingAgent(doc *Document, sessionID string) *AgentEntry {
	for _, entry := range doc.Agents {
		if entry.Status == StatusActive && entry.SessionID == sessionID {
			return entry
		}
	}
	return nil
}

// findReusableSlot returns the inactive entry with the lowest agent number,
// keeping slot reuse deterministic across processes.
func findReusableSlot(doc *Document) *AgentEntry {
	var best *AgentEntry
	for _, entry := range doc.Agents {
		if entry.Status != StatusInactive {
			continue
		}
		if best == nil || entry.AgentNumber < best.AgentNumber {
			best = entry
		}
	}
	return best
}
