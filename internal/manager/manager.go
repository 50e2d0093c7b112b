package manager

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/aristath/tasktracker/internal/events"
	"github.com/aristath/tasktracker/internal/execution"
	"github.com/aristath/tasktracker/internal/persistence"
	"github.com/aristath/tasktracker/internal/task"
)

var (
	// ErrEmptyTitle is returned when a task title trims to nothing.
	ErrEmptyTitle = errors.New("task title cannot be empty")
	// ErrBadSubtaskIndex is returned when a group-creation dependency index
	// references a task not yet created in that call.
	ErrBadSubtaskIndex = errors.New("subtask dependency index out of range")
	// ErrBadVerificationStatus is returned for verification statuses outside
	// pending/verified/failed.
	ErrBadVerificationStatus = errors.New("invalid verification status")
)

// Saver is the asynchronous persistence sink for snapshots. The returned
// channel reports the outcome of the write covering the snapshot.
type Saver interface {
	Save(snap *persistence.Snapshot) <-chan error
}

// Manager owns the in-memory task population and the id counter. Every
// mutation goes through it: it validates, persists write-through, and
// publishes events. All returned tasks are clones; callers never hold
// references into the live map.
type Manager struct {
	mu     sync.RWMutex
	tasks  map[string]*task.Task
	nextID int64

	saver   Saver
	bus     *events.Bus
	logger  *log.Logger
	machine *execution.Machine
}

// New builds a manager over a loaded snapshot.
func New(snap *persistence.Snapshot, saver Saver, bus *events.Bus, logger *log.Logger) *Manager {
	m := &Manager{
		tasks:  make(map[string]*task.Task, len(snap.Todos)),
		nextID: snap.NextID,
		saver:  saver,
		bus:    bus,
		logger: logger,
	}
	for _, t := range snap.Todos {
		m.tasks[t.ID] = t.Clone()
	}
	if m.nextID < 1 {
		m.nextID = 1
	}
	// Guard against documents whose counter lags behind their ids.
	for id := range m.tasks {
		if n, err := strconv.ParseInt(id, 10, 64); err == nil && n >= m.nextID {
			m.nextID = n + 1
		}
	}
	m.machine = execution.NewMachine(m, logger)
	return m
}

// Task returns a clone of the task, or false when absent. Implements
// execution.TaskSource; doubles as the read path for single lookups.
func (m *Manager) Task(id string) (*task.Task, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, false
	}
	return t.Clone(), true
}

// Snapshot returns a cloned view of the whole population keyed by id.
func (m *Manager) Snapshot() map[string]*task.Task {
	m.mu.RLock()
	defer m.mu.RUnlock()
	all := make(map[string]*task.Task, len(m.tasks))
	for id, t := range m.tasks {
		all[id] = t.Clone()
	}
	return all
}

// GroupTasks returns clones of the tasks sharing groupID.
func (m *Manager) GroupTasks(groupID string) []*task.Task {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var group []*task.Task
	for _, id := range m.sortedIDsLocked() {
		if t := m.tasks[id]; t.GroupID == groupID {
			group = append(group, t.Clone())
		}
	}
	return group
}

// Apply mutates a live task record under lock and persists the result.
// Implements execution.TaskSource for state-machine write-backs.
func (m *Manager) Apply(id string, mutate func(*task.Task)) (*task.Task, error) {
	m.mu.Lock()
	t, ok := m.tasks[id]
	if !ok {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %q", task.ErrNotFound, id)
	}
	mutate(t)
	cp := t.Clone()
	wait := m.persistLocked()
	m.mu.Unlock()

	m.awaitSave(wait)
	return cp, nil
}

// persistLocked snapshots the population and enqueues it for writing.
// Must be called with mu held so snapshot order matches mutation order;
// the returned channel reports the covering write's outcome.
func (m *Manager) persistLocked() <-chan error {
	snap := &persistence.Snapshot{
		Todos:  make([]*task.Task, 0, len(m.tasks)),
		NextID: m.nextID,
	}
	for _, id := range m.sortedIDsLocked() {
		snap.Todos = append(snap.Todos, m.tasks[id].Clone())
	}
	return m.saver.Save(snap)
}

// awaitSave waits for the write covering a mutation. A failed save is
// logged and surfaced on the store topic; the in-memory mutation stands.
func (m *Manager) awaitSave(wait <-chan error) {
	if err := <-wait; err != nil {
		m.logger.Error("failed to persist snapshot", "error", err)
		m.bus.Publish(events.TopicStore, events.SaveFailedEvent{Err: err, Timestamp: time.Now()})
	}
}

// publishProgress emits population-wide execution tallies.
func (m *Manager) publishProgress() {
	m.mu.RLock()
	ev := events.ProgressEvent{Timestamp: time.Now()}
	for _, t := range m.tasks {
		ev.Total++
		if t.IsComplete() {
			ev.Completed++
			continue
		}
		switch t.State() {
		case task.StateReady:
			ev.Ready++
		case task.StateRunning:
			ev.Running++
		case task.StateFailed:
			ev.Failed++
		default:
			ev.Pending++
		}
	}
	m.mu.RUnlock()
	m.bus.Publish(events.TopicProgress, ev)
}

// sortedIDsLocked returns every id in numeric-aware order. Callers must
// hold mu (read or write).
func (m *Manager) sortedIDsLocked() []string {
	ids := make([]string, 0, len(m.tasks))
	for id := range m.tasks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return task.IDLess(ids[i], ids[j]) })
	return ids
}
