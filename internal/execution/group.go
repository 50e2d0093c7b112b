package execution

import (
	"fmt"
	"sort"

	"github.com/aristath/tasktracker/internal/task"
)

// Completion reports the outcome of a main-task completion check.
type Completion struct {
	Completed       bool
	AlreadyComplete bool
	Main            *task.Task
	Reason          string
}

// CompleteMainTask promotes a group's main task to completed once every
// subtask has converged. The main task is the one with execution order 0;
// groups with several resolve to the lowest id so the choice is stable.
// Groups without a main task, without subtasks, or with an incomplete
// subtask report not-complete and mutate nothing. A main task carrying a
// verification method is auto-verified on promotion.
func (m *Machine) CompleteMainTask(groupID string) (*Completion, error) {
	group := m.src.GroupTasks(groupID)

	main := mainTask(group)
	if main == nil {
		return &Completion{Reason: "no main task in group"}, nil
	}
	if main.IsComplete() {
		return &Completion{Completed: true, AlreadyComplete: true, Main: main, Reason: "main task already complete"}, nil
	}

	subtasks := make([]*task.Task, 0, len(group))
	for _, t := range group {
		if t.ExecutionOrder > 0 {
			subtasks = append(subtasks, t)
		}
	}
	if len(subtasks) == 0 {
		return &Completion{Main: main, Reason: "group has no subtasks"}, nil
	}
	for _, st := range subtasks {
		if !st.IsComplete() {
			return &Completion{Main: main, Reason: fmt.Sprintf("subtask %s is not complete", st.ID)}, nil
		}
	}

	updated, err := m.src.Apply(main.ID, func(t *task.Task) {
		t.Completed = true
		status := task.ExecutionStatus{State: task.StateCompleted}
		if t.ExecutionStatus != nil {
			status.Attempts = t.ExecutionStatus.Attempts
		}
		t.ExecutionStatus = &status
		if t.VerificationMethod != "" {
			t.VerificationStatus = task.VerificationVerified
		}
	})
	if err != nil {
		return nil, err
	}

	m.logger.Info("main task completed", "group", groupID, "task", updated.ID, "subtasks", len(subtasks))
	return &Completion{Completed: true, Main: updated, Reason: "all subtasks complete"}, nil
}

// Stats tallies a group's tasks per execution state. A set completed flag
// counts under completed regardless of the nominal state.
type Stats struct {
	GroupID   string `json:"groupId"`
	Total     int    `json:"total"`
	Pending   int    `json:"pending"`
	Ready     int    `json:"ready"`
	Running   int    `json:"running"`
	Completed int    `json:"completed"`
	Failed    int    `json:"failed"`
}

// GroupStats computes per-state counts over all tasks sharing groupID.
func (m *Machine) GroupStats(groupID string) *Stats {
	stats := &Stats{GroupID: groupID}
	for _, t := range m.src.GroupTasks(groupID) {
		stats.Total++
		if t.Completed {
			stats.Completed++
			continue
		}
		switch t.State() {
		case task.StateReady:
			stats.Ready++
		case task.StateRunning:
			stats.Running++
		case task.StateCompleted:
			stats.Completed++
		case task.StateFailed:
			stats.Failed++
		default:
			stats.Pending++
		}
	}
	return stats
}

// ResetOutcome describes a failed-task reset.
type ResetOutcome struct {
	Task       *task.Task
	Dependents []*task.Task
}

// ResetFailed returns a failed task to pending with zeroed attempts and a
// cleared error. Tasks not currently failed are rejected. With
// resetDependents, every task listing id in its dependencies that is
// itself completed or failed is reset the same way and its completed flag
// cleared.
func (m *Machine) ResetFailed(id string, resetDependents bool) (*ResetOutcome, error) {
	t, ok := m.src.Task(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", task.ErrNotFound, id)
	}
	if t.State() != task.StateFailed {
		return nil, fmt.Errorf("%w: task %s is %s", ErrNotFailed, id, t.State())
	}

	updated, err := m.src.Apply(id, func(t *task.Task) {
		t.ExecutionStatus = &task.ExecutionStatus{State: task.StatePending}
	})
	if err != nil {
		return nil, err
	}
	outcome := &ResetOutcome{Task: updated}

	if !resetDependents {
		return outcome, nil
	}

	all := m.src.Snapshot()
	ids := make([]string, 0, len(all))
	for tid := range all {
		ids = append(ids, tid)
	}
	sort.Slice(ids, func(i, j int) bool { return task.IDLess(ids[i], ids[j]) })

	for _, tid := range ids {
		dt := all[tid]
		if !dependsOn(dt, id) {
			continue
		}
		if !dt.IsComplete() && dt.State() != task.StateFailed {
			continue
		}
		reset, err := m.src.Apply(dt.ID, func(t *task.Task) {
			t.Completed = false
			t.ExecutionStatus = &task.ExecutionStatus{State: task.StatePending}
		})
		if err != nil {
			return nil, err
		}
		outcome.Dependents = append(outcome.Dependents, reset)
	}

	m.logger.Info("failed task reset", "task", id, "dependents", len(outcome.Dependents))
	return outcome, nil
}

func mainTask(group []*task.Task) *task.Task {
	var main *task.Task
	for _, t := range group {
		if t.ExecutionOrder != 0 {
			continue
		}
		if main == nil || task.IDLess(t.ID, main.ID) {
			main = t
		}
	}
	return main
}

func dependsOn(t *task.Task, id string) bool {
	for _, dep := range t.Dependencies {
		if dep == id {
			return true
		}
	}
	return false
}
