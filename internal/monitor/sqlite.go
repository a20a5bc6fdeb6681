package monitor

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// NewSQLiteStore opens a pure-Go, file- or memory-backed Store for
// single-process deployments that don't warrant a Postgres instance.
func NewSQLiteStore(path string) (Store, error) {
	if path == "" {
		path = ":memory:"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1) // sqlite only tolerates one writer at a time

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := db.ExecContext(ctx, createTableDDL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create monitor_tasks table: %w", err)
	}

	return &sqlStore{
		db: db,
		saveQuery: `INSERT INTO monitor_tasks (task_id, status, payload, updated_at)
			VALUES (?,?,?,?)
			ON CONFLICT (task_id) DO UPDATE SET status = excluded.status, payload = excluded.payload, updated_at = excluded.updated_at`,
		loadQuery: `SELECT payload FROM monitor_tasks WHERE task_id = ?`,
	}, nil
}
