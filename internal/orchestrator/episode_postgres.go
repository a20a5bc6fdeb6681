package orchestrator

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

const episodeTableDDL = `CREATE TABLE IF NOT EXISTS orchestrator_episodes (
	id SERIAL PRIMARY KEY,
	session_id TEXT NOT NULL,
	intent TEXT NOT NULL,
	payload JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresEpisodeStore persists Episodes to a Postgres-compatible
// database (including CockroachDB), mirroring the connection-pool
// defaults and schema-on-connect pattern the monitor store uses.
type PostgresEpisodeStore struct {
	db *sql.DB
}

// NewPostgresEpisodeStore opens dsn, applies the connection-pool
// defaults shared across this codebase's SQL-backed stores, and ensures
// the episodes table exists.
func NewPostgresEpisodeStore(dsn string) (*PostgresEpisodeStore, error) {
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
	if _, err := db.ExecContext(ctx, episodeTableDDL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create orchestrator_episodes table: %w", err)
	}

	return &PostgresEpisodeStore{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *PostgresEpisodeStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *PostgresEpisodeStore) SaveEpisode(ctx context.Context, ep Episode) error {
	payload, err := json.Marshal(ep)
	if err != nil {
		return fmt.Errorf("marshal episode: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO orchestrator_episodes (session_id, intent, payload) VALUES ($1, $2, $3)`,
		ep.SessionID, ep.Intent, payload)
	if err != nil {
		return fmt.Errorf("insert episode: %w", err)
	}
	return nil
}

// LoadSimilar returns the k most recent episodes whose intent contains
// the whole query as a case-insensitive substring (ILIKE), most recent
// first.
func (s *PostgresEpisodeStore) LoadSimilar(ctx context.Context, query string, k int) ([]Episode, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM orchestrator_episodes WHERE intent ILIKE '%' || $1 || '%'
			ORDER BY created_at DESC LIMIT $2`,
		query, k)
	if err != nil {
		return nil, fmt.Errorf("query episodes: %w", err)
	}
	defer rows.Close()

	var out []Episode
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan episode: %w", err)
		}
		var ep Episode
		if err := json.Unmarshal(payload, &ep); err != nil {
			return nil, fmt.Errorf("unmarshal episode: %w", err)
		}
		out = append(out, ep)
	}
	return out, rows.Err()
}
