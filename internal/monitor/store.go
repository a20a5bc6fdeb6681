package monitor

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/agentcore/orchestrator/pkg/core"
)

// Store persists TaskRecords beyond the in-memory ring. Implementations
// must tolerate concurrent SaveTask calls from different tasks.
type Store interface {
	SaveTask(rec *core.TaskRecord)
	LoadTask(ctx context.Context, id string) (*core.TaskRecord, error)
	Close() error
}

// sqlStore is the shared implementation behind both the Postgres and
// SQLite backends: a single JSON-blob table keyed by task id, matching
// the teacher's pattern of a SQL-backed store alongside an in-memory
// one for the same record type.
type sqlStore struct {
	db        *sql.DB
	saveQuery string // positional placeholders differ between drivers
	loadQuery string
}

func (s *sqlStore) SaveTask(rec *core.TaskRecord) {
	if s == nil || s.db == nil || rec == nil {
		return
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, _ = s.db.ExecContext(ctx, s.saveQuery, rec.TaskID, string(rec.Status), payload, time.Now())
}

func (s *sqlStore) LoadTask(ctx context.Context, id string) (*core.TaskRecord, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	row := s.db.QueryRowContext(ctx, s.loadQuery, id)
	var payload []byte
	if err := row.Scan(&payload); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("load task: %w", err)
	}
	var rec core.TaskRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal task: %w", err)
	}
	return &rec, nil
}

func (s *sqlStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

const createTableDDL = `
CREATE TABLE IF NOT EXISTS monitor_tasks (
	task_id    TEXT PRIMARY KEY,
	status     TEXT NOT NULL,
	payload    TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`
