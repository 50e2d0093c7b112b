package manager

import (
	"time"

	"github.com/aristath/tasktracker/internal/events"
	"github.com/aristath/tasktracker/internal/execution"
	"github.com/aristath/tasktracker/internal/task"
)

// TransitionExecutionState moves a task to a new execution state through
// the machine's transition rules. The manager is the machine's task
// source, so the write-back persists and the transition is announced on
// the task topic.
func (m *Manager) TransitionExecutionState(id string, to task.ExecutionState, errMsg string) (*execution.Result, error) {
	res, err := m.machine.Transition(id, to, errMsg)
	if err != nil {
		return nil, err
	}

	attempts := 0
	if res.Task.ExecutionStatus != nil {
		attempts = res.Task.ExecutionStatus.Attempts
	}
	m.bus.Publish(events.TopicTask, events.TransitionEvent{
		ID:        id,
		From:      res.From,
		To:        res.To,
		Attempts:  attempts,
		Summary:   res.Summary,
		Timestamp: time.Now(),
	})
	m.publishProgress()
	return res, nil
}

// CompleteMainTask runs the group auto-completion cascade: when every
// subtask of the group has converged, the main task is promoted to
// completed (and auto-verified when it carries a verification method).
func (m *Manager) CompleteMainTask(groupID string) (*execution.Completion, error) {
	res, err := m.machine.CompleteMainTask(groupID)
	if err != nil {
		return nil, err
	}
	if res.Completed && !res.AlreadyComplete {
		m.bus.Publish(events.TopicGroup, events.GroupCompletedEvent{
			GroupID:   groupID,
			MainID:    res.Main.ID,
			Timestamp: time.Now(),
		})
		m.publishProgress()
	}
	return res, nil
}

// GroupExecutionStats tallies a group's tasks per execution state.
func (m *Manager) GroupExecutionStats(groupID string) *execution.Stats {
	return m.machine.GroupStats(groupID)
}

// ResetFailedTask returns a failed task to pending for retry, optionally
// resetting completed or failed dependents along with it.
func (m *Manager) ResetFailedTask(id string, resetDependents bool) (*execution.ResetOutcome, error) {
	out, err := m.machine.ResetFailed(id, resetDependents)
	if err != nil {
		return nil, err
	}

	deps := make([]string, 0, len(out.Dependents))
	for _, d := range out.Dependents {
		deps = append(deps, d.ID)
	}
	m.bus.Publish(events.TopicTask, events.TaskResetEvent{ID: id, Dependents: deps, Timestamp: time.Now()})
	m.publishProgress()
	return out, nil
}
