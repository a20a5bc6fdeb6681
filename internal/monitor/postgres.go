package monitor

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// NewPostgresStore opens a Postgres-backed Store using lib/pq, mirroring
// the connection-pool defaults the job store applies.
func NewPostgresStore(dsn string) (Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("dsn is required")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, createTableDDL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create monitor_tasks table: %w", err)
	}

	return &sqlStore{
		db: db,
		saveQuery: `INSERT INTO monitor_tasks (task_id, status, payload, updated_at)
			VALUES ($1,$2,$3,$4)
			ON CONFLICT (task_id) DO UPDATE SET status = $2, payload = $3, updated_at = $4`,
		loadQuery: `SELECT payload FROM monitor_tasks WHERE task_id = $1`,
	}, nil
}
