package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "lock.timeout_ms")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateLock()...)
	errors = append(errors, c.validateLifecycle()...)
	errors = append(errors, c.validateLogging()...)

	return errors
}

func (c *Config) validateLock() []ValidationError {
	var errors []ValidationError

	if c.Lock.TimeoutMs <= 0 {
		errors = append(errors, ValidationError{
			Field:   "lock.timeout_ms",
			Value:   c.Lock.TimeoutMs,
			Message: "must be positive",
		})
	}
	if c.Lock.PollIntervalMs <= 0 {
		errors = append(errors, ValidationError{
			Field:   "lock.poll_interval_ms",
			Value:   c.Lock.PollIntervalMs,
			Message: "must be positive",
		})
	}
	if c.Lock.StaleAgeMs <= 0 {
		errors = append(errors, ValidationError{
			Field:   "lock.stale_age_ms",
			Value:   c.Lock.StaleAgeMs,
			Message: "must be positive",
		})
	}
	if c.Lock.PollIntervalMs > 0 && c.Lock.TimeoutMs > 0 && c.Lock.PollIntervalMs > c.Lock.TimeoutMs {
		errors = append(errors, ValidationError{
			Field:   "lock.poll_interval_ms",
			Value:   c.Lock.PollIntervalMs,
			Message: "must not exceed lock.timeout_ms",
		})
	}

	return errors
}

func (c *Config) validateLifecycle() []ValidationError {
	var errors []ValidationError

	if c.Lifecycle.CleanupIntervalMs <= 0 {
		errors = append(errors, ValidationError{
			Field:   "lifecycle.cleanup_interval_ms",
			Value:   c.Lifecycle.CleanupIntervalMs,
			Message: "must be positive",
		})
	}
	if c.Lifecycle.InactivityTimeoutMs <= 0 {
		errors = append(errors, ValidationError{
			Field:   "lifecycle.inactivity_timeout_ms",
			Value:   c.Lifecycle.InactivityTimeoutMs,
			Message: "must be positive",
		})
	}

	return errors
}

func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if !slices.Contains(ValidLogLevels(), c.Logging.Level) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	return errors
}
