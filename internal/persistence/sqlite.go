package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"github.com/aristath/tasktracker/internal/task"
)

// SQLiteStore implements Store using SQLite. Snapshots are written as a
// single transaction that replaces the whole todos table, so readers never
// see a half-applied save.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a SQLite-backed store at the given path.
// Creates parent directories if needed. Enables WAL mode and a busy timeout.
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create parent directories: %w", err)
	}

	connStr := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", dbPath)
	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Saves replace the whole table; a single connection keeps them serialized.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

// NewMemoryStore creates an in-memory SQLite store for testing.
// Uses a shared cache so the database survives between pooled connections.
func NewMemoryStore(ctx context.Context) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", "file::memory:?mode=memory&cache=shared")
	if err != nil {
		return nil, fmt.Errorf("failed to open memory database: %w", err)
	}

	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

// Save replaces the stored snapshot in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, snap *Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM todos"); err != nil {
		return fmt.Errorf("failed to clear todos: %w", err)
	}

	const insert = `INSERT INTO todos (
		id, title, completed, created_at, tags, description, group_id,
		dependencies, execution_order, execution_state, last_error, attempts,
		execution_config, verification_method, verification_status, verification_notes
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	for _, t := range snap.Todos {
		tags, err := encodeStrings(t.Tags)
		if err != nil {
			return fmt.Errorf("failed to encode tags for todo %s: %w", t.ID, err)
		}
		deps, err := encodeStrings(t.Dependencies)
		if err != nil {
			return fmt.Errorf("failed to encode dependencies for todo %s: %w", t.ID, err)
		}
		var cfg any
		if t.ExecutionConfig != nil {
			data, err := json.Marshal(t.ExecutionConfig)
			if err != nil {
				return fmt.Errorf("failed to encode execution config for todo %s: %w", t.ID, err)
			}
			cfg = string(data)
		}

		var state, lastError any
		attempts := 0
		if st := t.ExecutionStatus; st != nil {
			if st.State != "" {
				state = string(st.State)
			}
			if st.LastError != "" {
				lastError = st.LastError
			}
			attempts = st.Attempts
		}

		if _, err := tx.ExecContext(ctx, insert,
			t.ID, t.Title, t.Completed, t.CreatedAt.UTC().Format(time.RFC3339Nano),
			tags, nullable(t.Description), nullable(t.GroupID), deps, t.ExecutionOrder,
			state, lastError, attempts, cfg,
			nullable(t.VerificationMethod), nullable(t.VerificationStatus), nullable(t.VerificationNotes),
		); err != nil {
			return fmt.Errorf("failed to insert todo %s: %w", t.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO meta (key, value) VALUES ('next_id', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		strconv.FormatInt(snap.NextID, 10),
	); err != nil {
		return fmt.Errorf("failed to save id counter: %w", err)
	}

	return tx.Commit()
}

// Load reads the stored snapshot. An empty database yields an empty
// population with the id counter at 1.
func (s *SQLiteStore) Load(ctx context.Context) (*Snapshot, error) {
	todos, err := s.loadTodos(ctx)
	if err != nil {
		return nil, err
	}
	nextID, err := s.loadNextID(ctx)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Todos: todos, NextID: nextID}, nil
}

func (s *SQLiteStore) loadTodos(ctx context.Context) ([]*task.Task, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		id, title, completed, created_at, tags, description, group_id,
		dependencies, execution_order, execution_state, last_error, attempts,
		execution_config, verification_method, verification_status, verification_notes
	FROM todos ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to query todos: %w", err)
	}
	defer rows.Close()

	todos := []*task.Task{}
	for rows.Next() {
		var (
			t                                task.Task
			createdAt                        string
			tags, description, groupID, deps sql.NullString
			state, lastError, cfg            sql.NullString
			attempts                         int
			method, status, notes            sql.NullString
		)
		if err := rows.Scan(&t.ID, &t.Title, &t.Completed, &createdAt, &tags,
			&description, &groupID, &deps, &t.ExecutionOrder, &state, &lastError,
			&attempts, &cfg, &method, &status, &notes); err != nil {
			return nil, fmt.Errorf("failed to scan todo: %w", err)
		}

		ts, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at for todo %s: %w", t.ID, err)
		}
		t.CreatedAt = ts
		t.Description = description.String
		t.GroupID = groupID.String
		t.VerificationMethod = method.String
		t.VerificationStatus = status.String
		t.VerificationNotes = notes.String

		if t.Tags, err = decodeStrings(tags); err != nil {
			return nil, fmt.Errorf("failed to decode tags for todo %s: %w", t.ID, err)
		}
		if t.Dependencies, err = decodeStrings(deps); err != nil {
			return nil, fmt.Errorf("failed to decode dependencies for todo %s: %w", t.ID, err)
		}
		if cfg.Valid {
			var ec task.ExecutionConfig
			if err := json.Unmarshal([]byte(cfg.String), &ec); err != nil {
				return nil, fmt.Errorf("failed to decode execution config for todo %s: %w", t.ID, err)
			}
			t.ExecutionConfig = &ec
		}
		if state.Valid || lastError.Valid || attempts != 0 {
			t.ExecutionStatus = &task.ExecutionStatus{
				State:     task.ExecutionState(state.String),
				LastError: lastError.String,
				Attempts:  attempts,
			}
		}

		todos = append(todos, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read todos: %w", err)
	}
	return todos, nil
}

func (s *SQLiteStore) loadNextID(ctx context.Context) (int64, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'next_id'`).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 1, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read id counter: %w", err)
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse id counter: %w", err)
	}
	if n < 1 {
		n = 1
	}
	return n, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// encodeStrings renders a string slice as JSON text, or NULL when empty.
func encodeStrings(ss []string) (any, error) {
	if len(ss) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(ss)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// decodeStrings parses a JSON string array column, NULL meaning absent.
func decodeStrings(col sql.NullString) ([]string, error) {
	if !col.Valid || col.String == "" {
		return nil, nil
	}
	var ss []string
	if err := json.Unmarshal([]byte(col.String), &ss); err != nil {
		return nil, err
	}
	return ss, nil
}

// nullable maps the empty string to NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
