package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aristath/tasktracker/internal/task"
)

// FileStore persists snapshots as a single JSON document on disk.
// Documents written by older versions, before the execution fields existed,
// load cleanly: absent fields stay at their zero values.
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by the JSON file at path. The file
// does not have to exist yet.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the snapshot from disk. A missing file yields an empty
// population with the id counter at 1.
func (s *FileStore) Load(ctx context.Context) (*Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return &Snapshot{Todos: []*task.Task{}, NextID: 1}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	if snap.Todos == nil {
		snap.Todos = []*task.Task{}
	}
	if snap.NextID < 1 {
		snap.NextID = 1
	}
	return &snap, nil
}

// Save writes the snapshot to disk, replacing the previous document via a
// temp file so a crash mid-write cannot corrupt it.
func (s *FileStore) Save(ctx context.Context, snap *Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	data = append(data, '\n')

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create snapshot directory: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}

// Close is a no-op for file-backed stores.
func (s *FileStore) Close() error {
	return nil
}
