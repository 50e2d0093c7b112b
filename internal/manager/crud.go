package manager

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aristath/tasktracker/internal/events"
	"github.com/aristath/tasktracker/internal/resolver"
	"github.com/aristath/tasktracker/internal/task"
)

// CreateRequest describes a task to create. Optional fields left at their
// zero value are stored as absent.
type CreateRequest struct {
	Title              string
	Description        string
	Tags               []string
	GroupID            string
	Dependencies       []string
	ExecutionOrder     int
	ExecutionConfig    *task.ExecutionConfig
	VerificationMethod string
}

// UpdateRequest carries a partial update. Nil pointer fields are left
// untouched. A nil Dependencies slice leaves the dependency set alone; an
// empty one clears it (removing edges cannot create cycles, so clearing
// skips validation). Same convention for Tags.
type UpdateRequest struct {
	ID              string
	Title           *string
	Completed       *bool
	Description     *string
	Tags            []string
	GroupID         *string
	Dependencies    []string
	ExecutionOrder  *int
	ExecutionConfig *task.ExecutionConfig
}

// CreateTodo validates the request and stores a new task under the next
// sequential id. Supplied dependencies are validated with the id the task
// is about to receive; on validation failure nothing is created.
func (m *Manager) CreateTodo(req CreateRequest) (*task.Task, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, ErrEmptyTitle
	}

	m.mu.Lock()
	id := strconv.FormatInt(m.nextID, 10)
	if len(req.Dependencies) > 0 {
		if err := resolver.ValidateDependencies(id, req.Dependencies, m.tasks); err != nil {
			m.mu.Unlock()
			return nil, err
		}
	}

	t := &task.Task{
		ID:                 id,
		Title:              title,
		CreatedAt:          time.Now().UTC(),
		Tags:               append([]string(nil), req.Tags...),
		Description:        req.Description,
		GroupID:            req.GroupID,
		Dependencies:       append([]string(nil), req.Dependencies...),
		ExecutionOrder:     req.ExecutionOrder,
		ExecutionConfig:    req.ExecutionConfig.Clone(),
		VerificationMethod: req.VerificationMethod,
	}
	if req.VerificationMethod != "" {
		t.VerificationStatus = task.VerificationPending
	}
	m.nextID++
	m.tasks[id] = t
	cp := t.Clone()
	wait := m.persistLocked()
	m.mu.Unlock()

	m.awaitSave(wait)
	m.bus.Publish(events.TopicTask, events.TaskCreatedEvent{ID: id, Title: title, Timestamp: time.Now()})
	m.publishProgress()
	m.logger.Info("todo created", "id", id, "title", title)
	return cp, nil
}

// ListTodos returns the population in id order, optionally filtered by the
// completed flag. A nil filter returns everything.
func (m *Manager) ListTodos(completed *bool) []*task.Task {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := make([]*task.Task, 0, len(m.tasks))
	for _, id := range m.sortedIDsLocked() {
		t := m.tasks[id]
		if completed != nil && t.Completed != *completed {
			continue
		}
		list = append(list, t.Clone())
	}
	return list
}

// UpdateTodo applies a partial update. Non-empty dependencies are
// re-validated against the population with the task's existing id before
// anything is written.
func (m *Manager) UpdateTodo(req UpdateRequest) (*task.Task, error) {
	var title string
	if req.Title != nil {
		title = strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, ErrEmptyTitle
		}
	}

	m.mu.Lock()
	t, ok := m.tasks[req.ID]
	if !ok {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %q", task.ErrNotFound, req.ID)
	}
	if len(req.Dependencies) > 0 {
		if err := resolver.ValidateDependencies(req.ID, req.Dependencies, m.tasks); err != nil {
			m.mu.Unlock()
			return nil, err
		}
	}

	if req.Title != nil {
		t.Title = title
	}
	if req.Completed != nil {
		t.Completed = *req.Completed
	}
	if req.Description != nil {
		t.Description = *req.Description
	}
	if req.Tags != nil {
		t.Tags = append([]string(nil), req.Tags...)
	}
	if req.GroupID != nil {
		t.GroupID = *req.GroupID
	}
	if req.Dependencies != nil {
		t.Dependencies = append([]string(nil), req.Dependencies...)
	}
	if req.ExecutionOrder != nil {
		t.ExecutionOrder = *req.ExecutionOrder
	}
	if req.ExecutionConfig != nil {
		t.ExecutionConfig = req.ExecutionConfig.Clone()
	}

	cp := t.Clone()
	wait := m.persistLocked()
	m.mu.Unlock()

	m.awaitSave(wait)
	m.bus.Publish(events.TopicTask, events.TaskUpdatedEvent{ID: cp.ID, Title: cp.Title, Timestamp: time.Now()})
	m.publishProgress()
	return cp, nil
}

// DeleteTodo removes a task. Tasks depending on the deleted id are left in
// place; their readiness checks fail closed from now on.
func (m *Manager) DeleteTodo(id string) error {
	m.mu.Lock()
	if _, ok := m.tasks[id]; !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %q", task.ErrNotFound, id)
	}
	delete(m.tasks, id)
	wait := m.persistLocked()
	m.mu.Unlock()

	m.awaitSave(wait)
	m.bus.Publish(events.TopicTask, events.TaskDeletedEvent{ID: id, Timestamp: time.Now()})
	m.publishProgress()
	m.logger.Info("todo deleted", "id", id)
	return nil
}

// SetVerificationMethod records how a task should be verified and resets
// its verification status to pending. An empty method clears both.
func (m *Manager) SetVerificationMethod(id, method string) (*task.Task, error) {
	updated, err := m.Apply(id, func(t *task.Task) {
		t.VerificationMethod = method
		if method == "" {
			t.VerificationStatus = ""
		} else {
			t.VerificationStatus = task.VerificationPending
		}
	})
	if err != nil {
		return nil, err
	}
	m.bus.Publish(events.TopicTask, events.TaskUpdatedEvent{ID: id, Title: updated.Title, Timestamp: time.Now()})
	return updated, nil
}

// UpdateVerificationStatus sets a task's verification status and notes.
// Notes replace any existing notes verbatim.
func (m *Manager) UpdateVerificationStatus(id, status, notes string) (*task.Task, error) {
	switch status {
	case task.VerificationPending, task.VerificationVerified, task.VerificationFailed:
	default:
		return nil, fmt.Errorf("%w: %q", ErrBadVerificationStatus, status)
	}

	updated, err := m.Apply(id, func(t *task.Task) {
		t.VerificationStatus = status
		t.VerificationNotes = notes
	})
	if err != nil {
		return nil, err
	}
	m.bus.Publish(events.TopicTask, events.TaskUpdatedEvent{ID: id, Title: updated.Title, Timestamp: time.Now()})
	return updated, nil
}

// TodosNeedingVerification returns tasks with a verification method whose
// status is still pending (or unset), optionally filtered by group.
func (m *Manager) TodosNeedingVerification(groupID string) []*task.Task {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var pending []*task.Task
	for _, id := range m.sortedIDsLocked() {
		t := m.tasks[id]
		if t.VerificationMethod == "" {
			continue
		}
		if t.VerificationStatus != "" && t.VerificationStatus != task.VerificationPending {
			continue
		}
		if groupID != "" && t.GroupID != groupID {
			continue
		}
		pending = append(pending, t.Clone())
	}
	return pending
}

// ReadyTasks returns every task whose dependencies are satisfied and that
// is neither completed nor running, optionally filtered by group.
func (m *Manager) ReadyTasks(groupID string) []*task.Task {
	ready := resolver.ReadyTasks(m.Snapshot())
	if groupID == "" {
		return ready
	}
	filtered := make([]*task.Task, 0, len(ready))
	for _, t := range ready {
		if t.GroupID == groupID {
			filtered = append(filtered, t)
		}
	}
	return filtered
}

// DetectCycles reports every dependency cycle in the current population.
// A validated population has none; the endpoint exists for diagnostics.
func (m *Manager) DetectCycles() [][]string {
	return resolver.DetectCycles(m.Snapshot())
}

// ExecutionPlan returns a full topological ordering of the population.
func (m *Manager) ExecutionPlan() ([]string, error) {
	return resolver.ExecutionPlan(m.Snapshot())
}
