package manager

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aristath/tasktracker/internal/events"
	"github.com/aristath/tasktracker/internal/task"
)

// GroupTaskSpec describes one task inside a group-creation request.
// Dependencies are indices into the same call: 0 is the main task, i
// refers to the i-th subtask. The main task is created first and cannot
// reference anything, so a non-empty dependency list on the main spec is
// rejected.
type GroupTaskSpec struct {
	Title              string
	Description        string
	Tags               []string
	Dependencies       []int
	ExecutionConfig    *task.ExecutionConfig
	VerificationMethod string
}

// GroupRequest describes an atomic group creation: one main task plus an
// ordered list of subtasks. A missing GroupID gets a generated UUID.
type GroupRequest struct {
	GroupID  string
	Main     GroupTaskSpec
	Subtasks []GroupTaskSpec
}

// GroupResult lists what CreateTaskGroup produced, main task first.
type GroupResult struct {
	GroupID  string       `json:"groupId"`
	Main     *task.Task   `json:"main"`
	Subtasks []*task.Task `json:"subtasks,omitempty"`
}

// CreateTaskGroup creates a main task (execution order 0) and its subtasks
// (order 1..n) in one all-or-nothing call, translating index dependencies
// to the just-assigned ids. An index referencing a task not yet created in
// this call fails the whole request. On any failure every task created so
// far is deleted before the error propagates; rollback deletes that fail
// are logged, not retried.
func (m *Manager) CreateTaskGroup(req GroupRequest) (*GroupResult, error) {
	groupID := req.GroupID
	if groupID == "" {
		groupID = uuid.NewString()
	}

	var created []string
	rollback := func(cause error) error {
		for i := len(created) - 1; i >= 0; i-- {
			if err := m.DeleteTodo(created[i]); err != nil {
				m.logger.Error("group rollback delete failed", "id", created[i], "error", err)
			}
		}
		return cause
	}

	if len(req.Main.Dependencies) > 0 {
		return nil, fmt.Errorf("%w: main task cannot carry index dependencies", ErrBadSubtaskIndex)
	}

	main, err := m.CreateTodo(CreateRequest{
		Title:              req.Main.Title,
		Description:        req.Main.Description,
		Tags:               req.Main.Tags,
		GroupID:            groupID,
		ExecutionOrder:     0,
		ExecutionConfig:    req.Main.ExecutionConfig,
		VerificationMethod: req.Main.VerificationMethod,
	})
	if err != nil {
		return nil, err
	}
	created = append(created, main.ID)

	subtasks := make([]*task.Task, 0, len(req.Subtasks))
	for i, sub := range req.Subtasks {
		deps := make([]string, 0, len(sub.Dependencies))
		for _, idx := range sub.Dependencies {
			// Subtask i+1 may only reference the main task (0) or
			// subtasks already created in this call (1..i).
			if idx < 0 || idx > i {
				return nil, rollback(fmt.Errorf("%w: subtask %d references index %d", ErrBadSubtaskIndex, i+1, idx))
			}
			deps = append(deps, created[idx])
		}

		st, err := m.CreateTodo(CreateRequest{
			Title:              sub.Title,
			Description:        sub.Description,
			Tags:               sub.Tags,
			GroupID:            groupID,
			Dependencies:       deps,
			ExecutionOrder:     i + 1,
			ExecutionConfig:    sub.ExecutionConfig,
			VerificationMethod: sub.VerificationMethod,
		})
		if err != nil {
			return nil, rollback(err)
		}
		created = append(created, st.ID)
		subtasks = append(subtasks, st)
	}

	m.bus.Publish(events.TopicGroup, events.GroupCreatedEvent{
		GroupID:   groupID,
		TaskIDs:   append([]string(nil), created...),
		Timestamp: time.Now(),
	})
	m.logger.Info("task group created", "group", groupID, "tasks", len(created))
	return &GroupResult{GroupID: groupID, Main: main, Subtasks: subtasks}, nil
}
