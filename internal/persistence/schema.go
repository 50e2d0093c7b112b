package persistence

import (
	"context"
)

// initSchema creates all required tables if they don't exist.
func (s *SQLiteStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS todos (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		completed INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		tags TEXT,
		description TEXT,
		group_id TEXT,
		dependencies TEXT,
		execution_order INTEGER NOT NULL DEFAULT 0,
		execution_state TEXT,
		last_error TEXT,
		attempts INTEGER NOT NULL DEFAULT 0,
		execution_config TEXT,
		verification_method TEXT,
		verification_status TEXT,
		verification_notes TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_todos_group_id ON todos(group_id);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}
