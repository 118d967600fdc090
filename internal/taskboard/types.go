package taskboard

import (
	"fmt"
	"strings"
)

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
	StatusFailed     TaskStatus = "failed"
)

// Task is one unit of work on the board. The snake_case keys are shared with
// the other tooling that reads the board file.
type Task struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Status        TaskStatus `json:"status"`
	AssignedAgent string     `json:"assigned_agent,omitempty"`
	Dependencies  []string   `json:"dependencies,omitempty"`
	ClaimedAt     int64      `json:"claimed_at,omitempty"`
	CompletedAt   int64      `json:"completed_at,omitempty"`
}

// Clone returns a deep copy of the task.
func (t *Task) Clone() *Task {
	cp := *t
	if t.Dependencies != nil {
		cp.Dependencies = append([]string(nil), t.Dependencies...)
	}
	return &cp
}

// Document is the full board state as persisted to disk.
type Document struct {
	Tasks map[string]*Task `json:"tasks"`
}

// NewDocument returns an empty board document.
func NewDocument() *Document {
	return &Document{Tasks: make(map[string]*Task)}
}

// BoardStatus is a derived snapshot of task counts.
type BoardStatus struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	InProgress int `json:"inProgress"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
}

// DependencyError reports a claim rejected because the task's dependencies
// are not all completed. The board is left untouched.
type DependencyError struct {
	TaskID string

	// BlockedByDependencies is always true; it lets callers distinguish this
	// rejection from other claim failures when inspecting serialized errors.
	BlockedByDependencies bool

	// NextDependency is the first unmet dependency in the task's declared
	// order, suggesting what to work on instead.
	NextDependency string

	// Unmet lists every dependency that has not completed.
	Unmet []string
}

// Error returns the formatted error message.
func (e *DependencyError) Error() string {
	return fmt.Sprintf("task '%s' is blocked by incomplete dependencies: %s",
		e.TaskID, strings.Join(e.Unmet, ", "))
}

// Instructions returns a human-readable hint for the blocked agent.
func (e *DependencyError) Instructions() string {
	return fmt.Sprintf("Complete task '%s' before claiming '%s'.", e.NextDependency, e.TaskID)
}

// Is reports whether this error matches the target.
func (e *DependencyError) Is(target error) bool {
	_, ok := target.(*DependencyError)
	return ok
}
