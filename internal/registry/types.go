package registry

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// DocumentVersion is written into the metadata of newly created registries.
const DocumentVersion = "1.0.0"

// Status is the lifecycle state of an agent slot.
type Status string

const (
	// StatusActive marks a slot currently held by a live session.
	StatusActive Status = "active"

	// StatusInactive marks a slot whose holder went quiet past the
	// inactivity timeout. Inactive slots are reused by new sessions.
	StatusInactive Status = "inactive"
)

// AgentEntry is one agent slot in the registry document. Timestamps are
// epoch milliseconds to keep the wire format portable across the
// cooperating processes.
type AgentEntry struct {
	AgentID        string         `json:"agentId"`
	AgentNumber    int            `json:"agentNumber"`
	SessionID      string         `json:"sessionId"`
	Role           string         `json:"role,omitempty"`
	Specialization []string       `json:"specialization,omitempty"`
	Capabilities   []string       `json:"capabilities,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	Status         Status         `json:"status"`
	CreatedAt      int64          `json:"createdAt"`
	LastActivity   int64          `json:"lastActivity"`
	TotalRequests  int            `json:"totalRequests"`
	InactiveSince  int64          `json:"inactiveSince,omitempty"`
}

// Clone returns a deep copy of the entry, safe to hand to callers.
func (e *AgentEntry) Clone() *AgentEntry {
	cp := *e
	if e.Specialization != nil {
		cp.Specialization = append([]string(nil), e.Specialization...)
	}
	if e.Capabilities != nil {
		cp.Capabilities = append([]string(nil), e.Capabilities...)
	}
	if e.Metadata != nil {
		cp.Metadata = make(map[string]any, len(e.Metadata))
		for k, v := range e.Metadata {
			cp.Metadata[k] = v
		}
	}
	return &cp
}

// Metadata is registry-level bookkeeping.
type Metadata struct {
	Created int64  `json:"created"`
	Version string `json:"version"`
}

// Document is the full registry state as persisted to disk.
// Invariant: NextAgentNumber is strictly greater than every existing
// AgentNumber.
type Document struct {
	Agents          map[string]*AgentEntry `json:"agents"`
	NextAgentNumber int                    `json:"nextAgentNumber"`
	LastCleanup     int64                  `json:"lastCleanup"`
	Metadata        Metadata               `json:"metadata"`
}

// NewDocument returns an empty registry document stamped with the given
// creation time.
func NewDocument(now time.Time) *Document {
	ms := now.UnixMilli()
	return &Document{
		Agents:          make(map[string]*AgentEntry),
		NextAgentNumber: 1,
		LastCleanup:     ms,
		Metadata: Metadata{
			Created: ms,
			Version: DocumentVersion,
		},
	}
}

// AgentInfo is the caller-supplied identity for a registering session.
// All fields except SessionID are optional; a missing SessionID is
// generated on registration.
type AgentInfo struct {
	SessionID      string
	Role           string
	Specialization []string
	Capabilities   []string
	Metadata       map[string]any
}

// Registration outcome actions.
const (
	// ActionReusedExisting means the session already held an active slot.
	ActionReusedExisting = "reused_existing"

	// ActionReusedInactiveSlot means the session took over an inactive slot.
	ActionReusedInactiveSlot = "reused_inactive_slot"

	// ActionAssignedNewNumber means a fresh slot was allocated.
	ActionAssignedNewNumber = "assigned_new_number"
)

// InitResult describes the outcome of a registration.
type InitResult struct {
	Action        string      `json:"action"`
	AgentID       string      `json:"agentId"`
	AgentNumber   int         `json:"agentNumber"`
	SessionID     string      `json:"sessionId"`
	TotalRequests int         `json:"totalRequests"`
	PreviousAgent *AgentEntry `json:"previousAgent,omitempty"`
}

// Stats is a derived snapshot of registry counts.
type Stats struct {
	TotalAgents     int   `json:"totalAgents"`
	ActiveAgents    int   `json:"activeAgents"`
	InactiveAgents  int   `json:"inactiveAgents"`
	NextAgentNumber int   `json:"nextAgentNumber"`
	LastCleanup     int64 `json:"lastCleanup"`
	RegistrySize    int64 `json:"registrySize"`
}

// AgentIDFor formats the canonical agent ID for a slot number.
func AgentIDFor(number int) string {
	return fmt.Sprintf("agent_%d", number)
}

// GenerateSessionID creates a session identifier of the form
// "session_<epochMillis>_<8 hex chars>".
func GenerateSessionID(now time.Time) string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		// Fallback keeps the format stable even if the entropy source fails.
		return fmt.Sprintf("session_%d_%08x", now.UnixMilli(), now.UnixNano()&0xffffffff)
	}
	return fmt.Sprintf("session_%d_%s", now.UnixMilli(), hex.EncodeToString(b))
}
