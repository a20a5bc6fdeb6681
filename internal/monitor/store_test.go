package monitor

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/agentcore/orchestrator/pkg/core"
)

func newMockStore(t *testing.T) (*sqlStore, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock db: %v", err)
	}
	return &sqlStore{
		db:        db,
		saveQuery: `INSERT INTO monitor_tasks (task_id, status, payload, updated_at) VALUES ($1,$2,$3,$4) ON CONFLICT (task_id) DO UPDATE SET status = $2, payload = $3, updated_at = $4`,
		loadQuery: `SELECT payload FROM monitor_tasks WHERE task_id = $1`,
	}, mock
}

func TestSQLStoreSaveTaskExecutesUpsert(t *testing.T) {
	store, mock := newMockStore(t)
	rec := &core.TaskRecord{TaskID: "t1", Request: "sum column A", Status: core.TaskCompleted}

	mock.ExpectExec("INSERT INTO monitor_tasks").
		WithArgs("t1", "completed", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	store.SaveTask(rec)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSQLStoreSaveTaskNilRecordIsNoOp(t *testing.T) {
	store, mock := newMockStore(t)
	store.SaveTask(nil)
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expected no queries for nil record: %v", err)
	}
}

func TestSQLStoreLoadTaskRoundTrips(t *testing.T) {
	store, mock := newMockStore(t)
	rec := core.TaskRecord{TaskID: "t1", Request: "sum column A", Status: core.TaskCompleted}
	payload, _ := json.Marshal(rec)

	rows := sqlmock.NewRows([]string{"payload"}).AddRow(payload)
	mock.ExpectQuery("SELECT payload FROM monitor_tasks").
		WithArgs("t1").
		WillReturnRows(rows)

	got, err := store.LoadTask(context.Background(), "t1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.TaskID != "t1" || got.Request != "sum column A" {
		t.Fatalf("unexpected round-tripped record: %+v", got)
	}
}

func TestSQLStoreLoadTaskMissingReturnsNilNoError(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery("SELECT payload FROM monitor_tasks").
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	got, err := store.LoadTask(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("expected sql.ErrNoRows to be swallowed, got %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil record, got %+v", got)
	}
}
