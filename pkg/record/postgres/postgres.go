// Package postgres provides a PostgreSQL implementation of
// record.Store. It uses pgx/v5 for connection pooling and JSONB for the
// per-request log sink.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/routebind/routebind/pkg/endpoint"
	"github.com/routebind/routebind/pkg/record"
)

// Store is a PostgreSQL-backed record store.
type Store struct {
	pool *pgxpool.Pool
}

var _ record.Store = (*Store)(nil)

// New creates a PostgreSQL store with the given configuration. If
// MigrateOnStart is set, schema migrations are applied automatically.
func New(ctx context.Context, cfg Config) (*Store, error) {
	pool, err := cfg.pool(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{pool: pool}

	if cfg.MigrateOnStart {
		if err := s.migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}

	return s, nil
}

// Save persists one record.
func (s *Store) Save(ctx context.Context, rec *record.Record) error {
	logsJSON, err := json.Marshal(rec.Logs)
	if err != nil {
		return fmt.Errorf("marshaling logs: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO request_records (id, method, path, kind, state, error, started_at, duration_ms, logs)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.ID, rec.Method, rec.Path, rec.Kind, rec.State, rec.Error,
		rec.StartedAt, rec.Duration.Milliseconds(), logsJSON,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return record.ErrConflict
		}
		return fmt.Errorf("inserting record: %w", err)
	}
	return nil
}

// Get retrieves a record by request ID.
func (s *Store) Get(ctx context.Context, id string) (*record.Record, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, method, path, kind, state, error, started_at, duration_ms, logs
		FROM request_records WHERE id = $1`, id)

	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, record.ErrNotFound
		}
		return nil, fmt.Errorf("querying record: %w", err)
	}
	return rec, nil
}

// List returns up to limit records, most recent first.
func (s *Store) List(ctx context.Context, limit int) ([]*record.Record, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, method, path, kind, state, error, started_at, duration_ms, logs
		FROM request_records ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var out []*record.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}
	return out, nil
}

// HealthCheck verifies the database connection.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func scanRecord(row pgx.Row) (*record.Record, error) {
	var (
		rec        record.Record
		durationMS int64
		logsJSON   []byte
	)
	if err := row.Scan(&rec.ID, &rec.Method, &rec.Path, &rec.Kind, &rec.State,
		&rec.Error, &rec.StartedAt, &durationMS, &logsJSON); err != nil {
		return nil, err
	}
	rec.Duration = time.Duration(durationMS) * time.Millisecond

	if len(logsJSON) > 0 {
		var logs []endpoint.LogEntry
		if err := json.Unmarshal(logsJSON, &logs); err != nil {
			return nil, fmt.Errorf("unmarshaling logs: %w", err)
		}
		rec.Logs = logs
	}
	return &rec, nil
}
