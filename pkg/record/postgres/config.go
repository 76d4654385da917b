package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Config holds PostgreSQL connection and behavior settings.
type Config struct {
	// DSN is the PostgreSQL connection string.
	DSN string

	// MaxConns caps the pool size (default: 10).
	MaxConns int32

	// MinConns is the number of idle connections kept warm (default: 2).
	MinConns int32

	// MaxConnLifetime bounds how long a connection is reused before it
	// is closed and replaced (default: 5 minutes).
	MaxConnLifetime time.Duration

	// MigrateOnStart runs schema migrations automatically at startup.
	MigrateOnStart bool
}

// pool parses the DSN and opens a connection pool with the configured
// limits, falling back to defaults for unset fields.
func (c Config) pool(ctx context.Context) (*pgxpool.Pool, error) {
	pc, err := pgxpool.ParseConfig(c.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}

	pc.MaxConns = 10
	if c.MaxConns > 0 {
		pc.MaxConns = c.MaxConns
	}
	pc.MinConns = 2
	if c.MinConns > 0 {
		pc.MinConns = c.MinConns
	}
	pc.MaxConnLifetime = 5 * time.Minute
	if c.MaxConnLifetime > 0 {
		pc.MaxConnLifetime = c.MaxConnLifetime
	}

	return pgxpool.NewWithConfig(ctx, pc)
}
