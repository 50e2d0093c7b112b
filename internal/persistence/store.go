package persistence

import (
	"context"
	"fmt"

	"github.com/aristath/tasktracker/internal/task"
)

// Snapshot is the full persisted state: every todo plus the id counter.
type Snapshot struct {
	Todos  []*task.Task `json:"todos"`
	NextID int64        `json:"nextId"`
}

// Store persists whole snapshots. Load on a fresh store returns an empty
// population with the counter at 1, never an error.
type Store interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snap *Snapshot) error
	Close() error
}

// Open returns the store for the configured driver.
func Open(ctx context.Context, driver, path string) (Store, error) {
	switch driver {
	case "", "json":
		return NewFileStore(path), nil
	case "sqlite":
		return NewSQLiteStore(ctx, path)
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}
