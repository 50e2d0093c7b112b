package task

import (
	"errors"
	"strconv"
	"time"
)

// ErrNotFound is returned by any operation referencing a task id that
// does not exist in the population.
var ErrNotFound = errors.New("task not found")

// ExecutionState represents a task's position in the execution lifecycle.
type ExecutionState string

const (
	StatePending   ExecutionState = "pending"   // Waiting, dependencies may be unmet
	StateReady     ExecutionState = "ready"     // Dependencies satisfied, eligible to run
	StateRunning   ExecutionState = "running"   // Currently executing
	StateCompleted ExecutionState = "completed" // Finished successfully (terminal)
	StateFailed    ExecutionState = "failed"    // Finished with error, retryable
)

// ValidState reports whether s is one of the five known execution states.
func ValidState(s ExecutionState) bool {
	switch s {
	case StatePending, StateReady, StateRunning, StateCompleted, StateFailed:
		return true
	}
	return false
}

// Verification status values.
const (
	VerificationPending  = "pending"
	VerificationVerified = "verified"
	VerificationFailed   = "failed"
)

// ExecutionStatus is the execution lifecycle record of a task.
type ExecutionStatus struct {
	State     ExecutionState `json:"state"`
	LastError string         `json:"lastError,omitempty"`
	Attempts  int            `json:"attempts,omitempty"`
}

// ExecutionConfig is an opaque configuration bag handed to external
// executors. The tracker passes it through unmodified.
type ExecutionConfig struct {
	RequiredTools  []string       `json:"requiredTools,omitempty"`
	Parameters     map[string]any `json:"parameters,omitempty"`
	RetryOnFailure bool           `json:"retryOnFailure,omitempty"`
}

// Clone returns a deep copy of the config.
func (c *ExecutionConfig) Clone() *ExecutionConfig {
	if c == nil {
		return nil
	}
	cp := *c
	if c.RequiredTools != nil {
		cp.RequiredTools = append([]string(nil), c.RequiredTools...)
	}
	if c.Parameters != nil {
		cp.Parameters = make(map[string]any, len(c.Parameters))
		for k, v := range c.Parameters {
			cp.Parameters[k] = v
		}
	}
	return &cp
}

// Task is the unit of work tracked by the system.
type Task struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Completed    bool      `json:"completed"`
	CreatedAt    time.Time `json:"createdAt"`
	Tags         []string  `json:"tags,omitempty"`
	Description  string    `json:"description,omitempty"`
	GroupID      string    `json:"groupId,omitempty"`
	Dependencies []string  `json:"dependencies,omitempty"` // Task IDs this task waits on

	// ExecutionOrder orders tasks for presentation; 0 marks the group's
	// main task.
	ExecutionOrder  int              `json:"executionOrder,omitempty"`
	ExecutionConfig *ExecutionConfig `json:"executionConfig,omitempty"`
	ExecutionStatus *ExecutionStatus `json:"executionStatus,omitempty"`

	VerificationMethod string `json:"verificationMethod,omitempty"`
	VerificationStatus string `json:"verificationStatus,omitempty"`
	VerificationNotes  string `json:"verificationNotes,omitempty"`
}

// State returns the task's execution state, defaulting to StatePending
// when no execution status has been recorded.
func (t *Task) State() ExecutionState {
	if t.ExecutionStatus == nil || t.ExecutionStatus.State == "" {
		return StatePending
	}
	return t.ExecutionStatus.State
}

// IsComplete reports whether the task counts as complete for dependency
// satisfaction and group convergence: either the completed flag is set or
// the execution state is completed.
func (t *Task) IsComplete() bool {
	return t.Completed || t.State() == StateCompleted
}

// Clone returns a deep copy. Mutating the copy never aliases the original.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}

	cp := *t
	if t.Tags != nil {
		cp.Tags = append([]string(nil), t.Tags...)
	}
	if t.Dependencies != nil {
		cp.Dependencies = append([]string(nil), t.Dependencies...)
	}
	if t.ExecutionStatus != nil {
		status := *t.ExecutionStatus
		cp.ExecutionStatus = &status
	}
	cp.ExecutionConfig = t.ExecutionConfig.Clone()
	return &cp
}

// IDLess orders task identifiers numerically where possible, falling back
// to lexicographic comparison for non-numeric ids.
func IDLess(a, b string) bool {
	na, erra := strconv.ParseInt(a, 10, 64)
	nb, errb := strconv.ParseInt(b, 10, 64)
	if erra == nil && errb == nil {
		return na < nb
	}
	return a < b
}
