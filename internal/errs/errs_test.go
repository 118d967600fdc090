package errs

import (
	"errors"
	"strings"
	"testing"
)

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("task", "task-3")
	if err.Error() != "task 'task-3' not found" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !IsNotFound(err) {
		t.Error("IsNotFound() = false, want true")
	}

	cause := errors.New("underlying")
	wrapped := NewNotFoundError("agent", "agent_1").WithCause(cause)
	if !errors.Is(wrapped, cause) {
		t.Error("errors.Is() does not see the cause")
	}
	if !strings.Contains(wrapped.Error(), "underlying") {
		t.Errorf("Error() = %q, want cause included", wrapped.Error())
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("agent ID cannot be empty").WithField("agentId").WithValue("")

	msg := err.Error()
	if !strings.Contains(msg, "field=agentId") {
		t.Errorf("Error() = %q, want field context", msg)
	}

	var ve *ValidationError
	if !As(err, &ve) {
		t.Error("As() failed for ValidationError")
	}
}

func TestConflictError(t *testing.T) {
	err := NewConflictError("task 'x' is not available for claiming (status: in_progress)")
	if !IsConflict(err) {
		t.Error("IsConflict() = false, want true")
	}
	if IsNotFound(err) {
		t.Error("IsNotFound() = true for conflict")
	}
	if err.Error() != "task 'x' is not available for claiming (status: in_progress)" {
		t.Errorf("Error() = %q, message must pass through unchanged", err.Error())
	}
}

func TestSentinelsSurviveWrapping(t *testing.T) {
	err := Wrap(ErrRegistryRead, "load registry")
	if !Is(err, ErrRegistryRead) {
		t.Error("wrapped sentinel no longer matches")
	}
	if !strings.HasPrefix(err.Error(), "load registry: ") {
		t.Errorf("Error() = %q, want context prefix", err.Error())
	}

	if Wrap(nil, "noop") != nil {
		t.Error("Wrap(nil) != nil")
	}
	if Wrapf(nil, "noop %d", 1) != nil {
		t.Error("Wrapf(nil) != nil")
	}
}
