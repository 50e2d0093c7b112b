package persistence

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/aristath/tasktracker/internal/task"
)

// testSQLiteStore creates a file-backed store in a temp dir and registers cleanup.
func testSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "tasks.db"))
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

func TestSQLiteEmptyLoad(t *testing.T) {
	store := testSQLiteStore(t)

	snap, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(snap.Todos) != 0 {
		t.Errorf("expected empty population, got %d todos", len(snap.Todos))
	}
	if snap.NextID != 1 {
		t.Errorf("NextID = %d, want 1", snap.NextID)
	}
}

func TestSQLiteRoundTrip(t *testing.T) {
	store := testSQLiteStore(t)
	ctx := context.Background()

	full := &task.Task{
		ID:           "1",
		Title:        "Ship release",
		CreatedAt:    time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		Tags:         []string{"release", "urgent"},
		Description:  "Cut and publish v2",
		GroupID:      "rel-1",
		Dependencies: []string{"2", "3"},
		ExecutionConfig: &task.ExecutionConfig{
			RequiredTools:  []string{"git"},
			Parameters:     map[string]any{"branch": "main"},
			RetryOnFailure: true,
		},
		ExecutionStatus: &task.ExecutionStatus{
			State:     task.StateFailed,
			LastError: "exit status 2",
			Attempts:  3,
		},
		VerificationMethod: "smoke test",
		VerificationStatus: task.VerificationPending,
		VerificationNotes:  "flaky on arm64",
	}
	minimal := &task.Task{
		ID:        "2",
		Title:     "Write changelog",
		Completed: true,
		CreatedAt: time.Date(2026, 3, 13, 8, 0, 0, 0, time.UTC),
	}

	if err := store.Save(ctx, &Snapshot{Todos: []*task.Task{full, minimal}, NextID: 3}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	out, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if out.NextID != 3 {
		t.Errorf("NextID = %d, want 3", out.NextID)
	}
	if len(out.Todos) != 2 {
		t.Fatalf("loaded %d todos, want 2", len(out.Todos))
	}

	got := out.Todos[0]
	if got.ID != full.ID || got.Title != full.Title {
		t.Errorf("identity mismatch: got %s/%q", got.ID, got.Title)
	}
	if !got.CreatedAt.Equal(full.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, full.CreatedAt)
	}
	if !reflect.DeepEqual(got.Tags, full.Tags) {
		t.Errorf("Tags = %v, want %v", got.Tags, full.Tags)
	}
	if !reflect.DeepEqual(got.Dependencies, full.Dependencies) {
		t.Errorf("Dependencies = %v, want %v", got.Dependencies, full.Dependencies)
	}
	if got.Description != full.Description || got.GroupID != full.GroupID {
		t.Errorf("description/group mismatch: %q %q", got.Description, got.GroupID)
	}
	if !reflect.DeepEqual(got.ExecutionConfig, full.ExecutionConfig) {
		t.Errorf("ExecutionConfig = %+v, want %+v", got.ExecutionConfig, full.ExecutionConfig)
	}
	if !reflect.DeepEqual(got.ExecutionStatus, full.ExecutionStatus) {
		t.Errorf("ExecutionStatus = %+v, want %+v", got.ExecutionStatus, full.ExecutionStatus)
	}
	if got.VerificationMethod != full.VerificationMethod ||
		got.VerificationStatus != full.VerificationStatus ||
		got.VerificationNotes != full.VerificationNotes {
		t.Errorf("verification mismatch: %q %q %q",
			got.VerificationMethod, got.VerificationStatus, got.VerificationNotes)
	}

	second := out.Todos[1]
	if !second.Completed || second.ExecutionStatus != nil || second.Tags != nil {
		t.Errorf("minimal task mismatch: %+v", second)
	}
	if second.State() != task.StatePending {
		t.Errorf("minimal task state = %s, want pending", second.State())
	}
}

// TestSQLiteSaveReplaces verifies a save fully replaces the previous snapshot.
func TestSQLiteSaveReplaces(t *testing.T) {
	store := testSQLiteStore(t)
	ctx := context.Background()

	first := &Snapshot{
		Todos: []*task.Task{
			{ID: "1", Title: "One", CreatedAt: time.Now().UTC()},
			{ID: "2", Title: "Two", CreatedAt: time.Now().UTC()},
		},
		NextID: 3,
	}
	if err := store.Save(ctx, first); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	second := &Snapshot{
		Todos:  []*task.Task{{ID: "5", Title: "Five", CreatedAt: time.Now().UTC()}},
		NextID: 6,
	}
	if err := store.Save(ctx, second); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	out, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(out.Todos) != 1 || out.Todos[0].ID != "5" {
		t.Fatalf("loaded todos = %+v, want only task 5", out.Todos)
	}
	if out.NextID != 6 {
		t.Errorf("NextID = %d, want 6", out.NextID)
	}
}

// TestSQLitePersistsAcrossOpens verifies data survives a close/reopen cycle.
func TestSQLitePersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.db")
	ctx := context.Background()

	store, err := NewSQLiteStore(ctx, path)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	snap := &Snapshot{
		Todos:  []*task.Task{{ID: "1", Title: "Survive restart", CreatedAt: time.Now().UTC()}},
		NextID: 2,
	}
	if err := store.Save(ctx, snap); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := NewSQLiteStore(ctx, path)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	defer reopened.Close()

	out, err := reopened.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(out.Todos) != 1 || out.Todos[0].Title != "Survive restart" {
		t.Fatalf("loaded todos = %+v", out.Todos)
	}
	if out.NextID != 2 {
		t.Errorf("NextID = %d, want 2", out.NextID)
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store, err := NewMemoryStore(ctx)
	if err != nil {
		t.Fatalf("failed to create memory store: %v", err)
	}
	defer store.Close()

	snap := &Snapshot{
		Todos:  []*task.Task{{ID: "1", Title: "In memory", CreatedAt: time.Now().UTC()}},
		NextID: 2,
	}
	if err := store.Save(ctx, snap); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	out, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(out.Todos) != 1 || out.Todos[0].ID != "1" {
		t.Fatalf("loaded todos = %+v", out.Todos)
	}
}
