package events

import (
	"time"

	"github.com/aristath/tasktracker/internal/task"
)

// Event is the base interface for all events.
type Event interface {
	EventType() string
	TaskID() string
}

// Topic constants
const (
	TopicTask     = "task"
	TopicGroup    = "group"
	TopicProgress = "progress"
	TopicStore    = "store"
)

// Event type constants
const (
	EventTypeTaskCreated    = "task.created"
	EventTypeTaskUpdated    = "task.updated"
	EventTypeTaskDeleted    = "task.deleted"
	EventTypeTaskTransition = "task.transition"
	EventTypeTaskReset      = "task.reset"
	EventTypeGroupCreated   = "group.created"
	EventTypeGroupCompleted = "group.completed"
	EventTypeProgress       = "progress.changed"
	EventTypeSaveFailed     = "store.save_failed"
)

// TaskCreatedEvent is published when a todo is created.
type TaskCreatedEvent struct {
	ID        string
	Title     string
	Timestamp time.Time
}

func (e TaskCreatedEvent) EventType() string { return EventTypeTaskCreated }
func (e TaskCreatedEvent) TaskID() string    { return e.ID }

// TaskUpdatedEvent is published when a todo's fields change.
type TaskUpdatedEvent struct {
	ID        string
	Title     string
	Timestamp time.Time
}

func (e TaskUpdatedEvent) EventType() string { return EventTypeTaskUpdated }
func (e TaskUpdatedEvent) TaskID() string    { return e.ID }

// TaskDeletedEvent is published when a todo is removed.
type TaskDeletedEvent struct {
	ID        string
	Timestamp time.Time
}

func (e TaskDeletedEvent) EventType() string { return EventTypeTaskDeleted }
func (e TaskDeletedEvent) TaskID() string    { return e.ID }

// TransitionEvent is published when a task moves between execution states.
type TransitionEvent struct {
	ID        string
	From      task.ExecutionState
	To        task.ExecutionState
	Attempts  int
	Summary   string
	Timestamp time.Time
}

func (e TransitionEvent) EventType() string { return EventTypeTaskTransition }
func (e TransitionEvent) TaskID() string    { return e.ID }

// TaskResetEvent is published when a failed task is reset for retry.
type TaskResetEvent struct {
	ID         string
	Dependents []string
	Timestamp  time.Time
}

func (e TaskResetEvent) EventType() string { return EventTypeTaskReset }
func (e TaskResetEvent) TaskID() string    { return e.ID }

// GroupCreatedEvent is published when a task group is created atomically.
type GroupCreatedEvent struct {
	GroupID   string
	TaskIDs   []string // main task first, subtasks in execution order
	Timestamp time.Time
}

func (e GroupCreatedEvent) EventType() string { return EventTypeGroupCreated }
func (e GroupCreatedEvent) TaskID() string {
	if len(e.TaskIDs) == 0 {
		return ""
	}
	return e.TaskIDs[0]
}

// GroupCompletedEvent is published when a group's main task completes
// because all of its subtasks finished.
type GroupCompletedEvent struct {
	GroupID   string
	MainID    string
	Timestamp time.Time
}

func (e GroupCompletedEvent) EventType() string { return EventTypeGroupCompleted }
func (e GroupCompletedEvent) TaskID() string    { return e.MainID }

// ProgressEvent carries population-wide execution tallies. It is published
// after every mutation so interactive consumers can refresh cheaply.
type ProgressEvent struct {
	Total     int
	Pending   int
	Ready     int
	Running   int
	Completed int
	Failed    int
	Timestamp time.Time
}

func (e ProgressEvent) EventType() string { return EventTypeProgress }
func (e ProgressEvent) TaskID() string    { return "" }

// SaveFailedEvent is published when a background snapshot write fails.
// The in-memory mutation that triggered it has already been applied.
type SaveFailedEvent struct {
	Err       error
	Timestamp time.Time
}

func (e SaveFailedEvent) EventType() string { return EventTypeSaveFailed }
func (e SaveFailedEvent) TaskID() string    { return "" }
