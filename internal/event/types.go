// Package event defines the pub-sub bus and event types that decouple the
// registry and task board from their observers (CLI output, watch dashboard).
package event

import "time"

// Event is the interface that all events must implement.
type Event interface {
	// EventType returns a string identifier for this event type.
	// Convention: "category.action" (e.g., "agent.registered", "task.claimed")
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// baseEvent provides common fields for all events.
// Embed this in concrete event types to satisfy the Event interface.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// -----------------------------------------------------------------------------
// Agent Lifecycle Events
// -----------------------------------------------------------------------------

// AgentRegisteredEvent is emitted when a session is assigned a brand-new
// agent number.
type AgentRegisteredEvent struct {
	baseEvent
	AgentID     string
	AgentNumber int
	SessionID   string
}

// NewAgentRegisteredEvent creates an AgentRegisteredEvent.
func NewAgentRegisteredEvent(agentID string, agentNumber int, sessionID string) AgentRegisteredEvent {
	return AgentRegisteredEvent{
		baseEvent:   newBaseEvent("agent.registered"),
		AgentID:     agentID,
		AgentNumber: agentNumber,
		SessionID:   sessionID,
	}
}

// AgentReusedEvent is emitted when a session re-registers against its
// existing active entry.
type AgentReusedEvent struct {
	baseEvent
	AgentID       string
	SessionID     string
	TotalRequests int
}

// NewAgentReusedEvent creates an AgentReusedEvent.
func NewAgentReusedEvent(agentID, sessionID string, totalRequests int) AgentReusedEvent {
	return AgentReusedEvent{
		baseEvent:     newBaseEvent("agent.reused"),
		AgentID:       agentID,
		SessionID:     sessionID,
		TotalRequests: totalRequests,
	}
}

// SlotReusedEvent is emitted when a new session takes over an inactive slot.
type SlotReusedEvent struct {
	baseEvent
	AgentID           string
	AgentNumber       int
	SessionID         string
	PreviousSessionID string
}

// NewSlotReusedEvent creates a SlotReusedEvent.
func NewSlotReusedEvent(agentID string, agentNumber int, sessionID, previousSessionID string) SlotReusedEvent {
	return SlotReusedEvent{
		baseEvent:         newBaseEvent("agent.slot_reused"),
		AgentID:           agentID,
		AgentNumber:       agentNumber,
		SessionID:         sessionID,
		PreviousSessionID: previousSessionID,
	}
}

// CleanupEvent is emitted after a cleanup pass marks idle agents inactive.
type CleanupEvent struct {
	baseEvent
	Deactivated []string // agent IDs newly marked inactive
}

// NewCleanupEvent creates a CleanupEvent.
func NewCleanupEvent(deactivated []string) CleanupEvent {
	return CleanupEvent{
		baseEvent:   newBaseEvent("agent.cleanup"),
		Deactivated: deactivated,
	}
}

// -----------------------------------------------------------------------------
// Task Board Events
// -----------------------------------------------------------------------------

// TaskClaimedEvent is emitted when an agent successfully claims a task.
type TaskClaimedEvent struct {
	baseEvent
	TaskID  string
	AgentID string
}

// NewTaskClaimedEvent creates a TaskClaimedEvent.
func NewTaskClaimedEvent(taskID, agentID string) TaskClaimedEvent {
	return TaskClaimedEvent{
		baseEvent: newBaseEvent("task.claimed"),
		TaskID:    taskID,
		AgentID:   agentID,
	}
}

// TaskCompletedEvent is emitted when a task reaches the completed state.
type TaskCompletedEvent struct {
	baseEvent
	TaskID  string
	AgentID string
}

// NewTaskCompletedEvent creates a TaskCompletedEvent.
func NewTaskCompletedEvent(taskID, agentID string) TaskCompletedEvent {
	return TaskCompletedEvent{
		baseEvent: newBaseEvent("task.completed"),
		TaskID:    taskID,
		AgentID:   agentID,
	}
}

// TaskReleasedEvent is emitted when a claimed task is returned to pending.
type TaskReleasedEvent struct {
	baseEvent
	TaskID  string
	AgentID string
}

// NewTaskReleasedEvent creates a TaskReleasedEvent.
func NewTaskReleasedEvent(taskID, agentID string) TaskReleasedEvent {
	return TaskReleasedEvent{
		baseEvent: newBaseEvent("task.released"),
		TaskID:    taskID,
		AgentID:   agentID,
	}
}
