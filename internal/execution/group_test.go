package execution

import (
	"errors"
	"strings"
	"testing"

	"github.com/aristath/tasktracker/internal/task"
)

func TestCompleteMainTask(t *testing.T) {
	main := func(id, method string) *task.Task {
		return &task.Task{ID: id, Title: "main", GroupID: "g", VerificationMethod: method}
	}
	sub := func(id string, order int, done bool) *task.Task {
		tk := &task.Task{ID: id, Title: "sub", GroupID: "g", ExecutionOrder: order}
		if done {
			tk.Completed = true
		}
		return tk
	}

	t.Run("all subtasks complete promotes main", func(t *testing.T) {
		stateDone := sub("3", 2, false)
		stateDone.ExecutionStatus = &task.ExecutionStatus{State: task.StateCompleted, Attempts: 2}
		fs := newFakeSource(main("1", "manual review"), sub("2", 1, true), stateDone)
		m := testMachine(fs)

		res, err := m.CompleteMainTask("g")
		if err != nil {
			t.Fatalf("CompleteMainTask() error = %v", err)
		}
		if !res.Completed || res.AlreadyComplete {
			t.Fatalf("completion = %+v, want newly completed", res)
		}
		if res.Main == nil || res.Main.ID != "1" {
			t.Fatalf("main = %+v, want task 1", res.Main)
		}
		if !res.Main.Completed {
			t.Error("main completed flag not set")
		}
		if res.Main.State() != task.StateCompleted {
			t.Errorf("main state = %s, want completed", res.Main.State())
		}
		if res.Main.VerificationStatus != task.VerificationVerified {
			t.Errorf("verification status = %q, want verified", res.Main.VerificationStatus)
		}
	})

	t.Run("incomplete subtask blocks completion", func(t *testing.T) {
		fs := newFakeSource(main("1", ""), sub("2", 1, true), sub("3", 2, false))
		m := testMachine(fs)

		res, err := m.CompleteMainTask("g")
		if err != nil {
			t.Fatalf("CompleteMainTask() error = %v", err)
		}
		if res.Completed {
			t.Error("group with an incomplete subtask reported complete")
		}
		if !strings.Contains(res.Reason, "not complete") {
			t.Errorf("reason = %q", res.Reason)
		}
		if fs.applyCount() != 0 {
			t.Error("blocked completion wrote to the source")
		}
	})

	t.Run("no main task", func(t *testing.T) {
		fs := newFakeSource(sub("2", 1, true))
		m := testMachine(fs)

		res, err := m.CompleteMainTask("g")
		if err != nil {
			t.Fatalf("CompleteMainTask() error = %v", err)
		}
		if res.Completed || res.Main != nil {
			t.Errorf("completion = %+v, want no main", res)
		}
		if !strings.Contains(res.Reason, "no main task") {
			t.Errorf("reason = %q", res.Reason)
		}
	})

	t.Run("unknown group", func(t *testing.T) {
		m := testMachine(newFakeSource())
		res, err := m.CompleteMainTask("nope")
		if err != nil {
			t.Fatalf("CompleteMainTask() error = %v", err)
		}
		if res.Completed {
			t.Error("empty group reported complete")
		}
	})

	t.Run("already complete main is a no-op", func(t *testing.T) {
		done := main("1", "")
		done.Completed = true
		fs := newFakeSource(done, sub("2", 1, false))
		m := testMachine(fs)

		res, err := m.CompleteMainTask("g")
		if err != nil {
			t.Fatalf("CompleteMainTask() error = %v", err)
		}
		if !res.Completed || !res.AlreadyComplete {
			t.Errorf("completion = %+v, want already complete", res)
		}
		if fs.applyCount() != 0 {
			t.Error("no-op completion wrote to the source")
		}
	})

	t.Run("main without subtasks stays open", func(t *testing.T) {
		fs := newFakeSource(main("1", ""))
		m := testMachine(fs)

		res, err := m.CompleteMainTask("g")
		if err != nil {
			t.Fatalf("CompleteMainTask() error = %v", err)
		}
		if res.Completed {
			t.Error("group without subtasks reported complete")
		}
		if !strings.Contains(res.Reason, "no subtasks") {
			t.Errorf("reason = %q", res.Reason)
		}
	})

	t.Run("no verification method leaves status unset", func(t *testing.T) {
		fs := newFakeSource(main("1", ""), sub("2", 1, true))
		m := testMachine(fs)

		res, err := m.CompleteMainTask("g")
		if err != nil {
			t.Fatalf("CompleteMainTask() error = %v", err)
		}
		if res.Main.VerificationStatus != "" {
			t.Errorf("verification status = %q, want empty", res.Main.VerificationStatus)
		}
	})

	t.Run("lowest id wins when several tasks share order zero", func(t *testing.T) {
		other := main("10", "")
		fs := newFakeSource(main("2", ""), other, sub("3", 1, true))
		m := testMachine(fs)

		res, err := m.CompleteMainTask("g")
		if err != nil {
			t.Fatalf("CompleteMainTask() error = %v", err)
		}
		if res.Main == nil || res.Main.ID != "2" {
			t.Fatalf("main = %+v, want task 2", res.Main)
		}
	})
}

func TestGroupStats(t *testing.T) {
	status := func(s task.ExecutionState) *task.ExecutionStatus {
		return &task.ExecutionStatus{State: s}
	}
	overridden := &task.Task{ID: "6", Title: "t", GroupID: "g", Completed: true,
		ExecutionStatus: status(task.StateFailed)}

	fs := newFakeSource(
		&task.Task{ID: "1", Title: "t", GroupID: "g"},
		&task.Task{ID: "2", Title: "t", GroupID: "g", ExecutionStatus: status(task.StateReady)},
		&task.Task{ID: "3", Title: "t", GroupID: "g", ExecutionStatus: status(task.StateRunning)},
		&task.Task{ID: "4", Title: "t", GroupID: "g", ExecutionStatus: status(task.StateCompleted)},
		&task.Task{ID: "5", Title: "t", GroupID: "g", ExecutionStatus: status(task.StateFailed)},
		overridden,
		&task.Task{ID: "7", Title: "t", GroupID: "other"},
	)
	m := testMachine(fs)

	stats := m.GroupStats("g")
	if stats.Total != 6 {
		t.Errorf("total = %d, want 6", stats.Total)
	}
	if stats.Pending != 1 || stats.Ready != 1 || stats.Running != 1 || stats.Failed != 1 {
		t.Errorf("stats = %+v", stats)
	}
	// The completed flag wins over the nominal state.
	if stats.Completed != 2 {
		t.Errorf("completed = %d, want 2", stats.Completed)
	}

	empty := m.GroupStats("missing")
	if empty.Total != 0 || empty.GroupID != "missing" {
		t.Errorf("empty group stats = %+v", empty)
	}
}

func TestResetFailed(t *testing.T) {
	t.Run("unknown task", func(t *testing.T) {
		m := testMachine(newFakeSource())
		if _, err := m.ResetFailed("404", false); !errors.Is(err, task.ErrNotFound) {
			t.Errorf("ResetFailed() error = %v, want %v", err, task.ErrNotFound)
		}
	})

	t.Run("rejects tasks that are not failed", func(t *testing.T) {
		fs := newFakeSource(&task.Task{ID: "1", Title: "t",
			ExecutionStatus: &task.ExecutionStatus{State: task.StateRunning}})
		m := testMachine(fs)

		_, err := m.ResetFailed("1", false)
		if !errors.Is(err, ErrNotFailed) {
			t.Fatalf("ResetFailed() error = %v, want %v", err, ErrNotFailed)
		}
		if fs.applyCount() != 0 {
			t.Error("rejected reset wrote to the source")
		}
	})

	t.Run("resets state and attempt counter", func(t *testing.T) {
		fs := newFakeSource(&task.Task{ID: "1", Title: "t",
			ExecutionStatus: &task.ExecutionStatus{State: task.StateFailed, Attempts: 3, LastError: "exit status 2"}})
		m := testMachine(fs)

		out, err := m.ResetFailed("1", false)
		if err != nil {
			t.Fatalf("ResetFailed() error = %v", err)
		}
		st := out.Task.ExecutionStatus
		if st.State != task.StatePending || st.Attempts != 0 || st.LastError != "" {
			t.Errorf("status after reset = %+v", st)
		}
		if len(out.Dependents) != 0 {
			t.Errorf("dependents = %v, want none", out.Dependents)
		}
	})

	t.Run("resets completed and failed dependents", func(t *testing.T) {
		failed := &task.Task{ID: "1", Title: "t",
			ExecutionStatus: &task.ExecutionStatus{State: task.StateFailed, Attempts: 1, LastError: "boom"}}
		doneDep := &task.Task{ID: "2", Title: "t", Dependencies: []string{"1"}, Completed: true,
			ExecutionStatus: &task.ExecutionStatus{State: task.StateCompleted}}
		failedDep := &task.Task{ID: "10", Title: "t", Dependencies: []string{"1"},
			ExecutionStatus: &task.ExecutionStatus{State: task.StateFailed, LastError: "downstream"}}
		pendingDep := &task.Task{ID: "3", Title: "t", Dependencies: []string{"1"}}
		unrelated := &task.Task{ID: "4", Title: "t", Completed: true}
		fs := newFakeSource(failed, doneDep, failedDep, pendingDep, unrelated)
		m := testMachine(fs)

		out, err := m.ResetFailed("1", true)
		if err != nil {
			t.Fatalf("ResetFailed() error = %v", err)
		}

		if len(out.Dependents) != 2 {
			t.Fatalf("dependents = %d, want 2", len(out.Dependents))
		}
		// Numeric id order: 2 before 10.
		if out.Dependents[0].ID != "2" || out.Dependents[1].ID != "10" {
			t.Errorf("dependent order = %s, %s", out.Dependents[0].ID, out.Dependents[1].ID)
		}
		for _, dep := range out.Dependents {
			if dep.Completed {
				t.Errorf("dependent %s still flagged complete", dep.ID)
			}
			if dep.State() != task.StatePending {
				t.Errorf("dependent %s state = %s, want pending", dep.ID, dep.State())
			}
		}

		untouched, _ := fs.Task("3")
		if untouched.State() != task.StatePending || untouched.ExecutionStatus != nil {
			t.Errorf("pending dependent was modified: %+v", untouched)
		}
		outsider, _ := fs.Task("4")
		if !outsider.Completed {
			t.Error("task outside the dependency edge was reset")
		}
	})
}
