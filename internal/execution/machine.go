package execution

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/aristath/tasktracker/internal/task"
)

// Sentinel errors for rejected execution operations.
var (
	ErrInvalidTransition = errors.New("invalid transition")
	ErrNotFailed         = errors.New("task is not in failed state")
)

// TaskSource supplies task state to the machine and applies its writes.
// Reads return clones. Apply runs mutate against the live record under the
// owner's lock, persists the result, and returns the updated clone.
type TaskSource interface {
	Task(id string) (*task.Task, bool)
	Snapshot() map[string]*task.Task
	GroupTasks(groupID string) []*task.Task
	Apply(id string, mutate func(*task.Task)) (*task.Task, error)
}

// Machine guards and applies execution-status transitions. Transition
// requests are serialized per task id: a request for an id with one already
// in flight is coalesced to await and return the in-flight result instead
// of racing a second mutation.
type Machine struct {
	src    TaskSource
	logger *log.Logger
	flight singleflight.Group
}

// NewMachine creates a machine over the given task source.
func NewMachine(src TaskSource, logger *log.Logger) *Machine {
	return &Machine{src: src, logger: logger}
}

// IsValidTransition reports whether the source -> destination pair is in
// the transition table. Completed is terminal.
func IsValidTransition(from, to task.ExecutionState) bool {
	switch from {
	case task.StatePending:
		return to == task.StateReady || to == task.StateRunning
	case task.StateReady:
		return to == task.StateRunning || to == task.StatePending
	case task.StateRunning:
		return to == task.StateCompleted || to == task.StateFailed || to == task.StatePending
	case task.StateFailed:
		return to == task.StatePending
	}
	return false
}

// Result describes one applied transition.
type Result struct {
	Task    *task.Task
	From    task.ExecutionState
	To      task.ExecutionState
	Summary string
}

// Transition moves a task to a new execution state. errMsg, when non-empty,
// is recorded verbatim as the task's last error. A rejected pair leaves the
// task unchanged and returns ErrInvalidTransition naming the pair.
func (m *Machine) Transition(id string, to task.ExecutionState, errMsg string) (*Result, error) {
	v, err, _ := m.flight.Do(id, func() (any, error) {
		return m.transition(id, to, errMsg)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Result), nil
}

func (m *Machine) transition(id string, to task.ExecutionState, errMsg string) (*Result, error) {
	t, ok := m.src.Task(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", task.ErrNotFound, id)
	}

	from := t.State()
	if !IsValidTransition(from, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}

	status := task.ExecutionStatus{State: to}
	if t.ExecutionStatus != nil {
		status.Attempts = t.ExecutionStatus.Attempts
		status.LastError = t.ExecutionStatus.LastError
	}

	retry := from == task.StateFailed && to == task.StatePending
	if to == task.StateRunning || retry {
		status.Attempts++
	}
	switch {
	case errMsg != "":
		status.LastError = errMsg
	case to == task.StateCompleted:
		status.LastError = ""
	case retry:
		status.LastError = ""
	}

	updated, err := m.src.Apply(id, func(t *task.Task) {
		s := status
		t.ExecutionStatus = &s
	})
	if err != nil {
		return nil, err
	}

	summary := fmt.Sprintf("task %s: %s -> %s", id, from, to)
	if errMsg != "" {
		summary = fmt.Sprintf("%s (%s)", summary, errMsg)
	}
	m.logger.Debug("transition applied", "task", id, "from", from, "to", to, "attempts", status.Attempts)

	return &Result{Task: updated, From: from, To: to, Summary: summary}, nil
}
