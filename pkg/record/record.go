// Package record defines the request record store: after a request is
// disposed, its identity, outcome, and drained log sink can be flushed
// to a store for audit. Implementations live in the memory and postgres
// subpackages.
package record

import (
	"context"
	"time"

	"github.com/routebind/routebind/pkg/endpoint"
)

// Record is the persisted trace of one completed request.
type Record struct {
	ID        string              `json:"id"`
	Method    string              `json:"method"`
	Path      string              `json:"path"`
	Kind      string              `json:"kind"`
	State     string              `json:"state"`
	Error     string              `json:"error,omitempty"`
	StartedAt time.Time           `json:"started_at"`
	Duration  time.Duration       `json:"duration"`
	Logs      []endpoint.LogEntry `json:"logs,omitempty"`
}

// Store persists request records. Implementations must be safe for
// concurrent use.
type Store interface {
	// Save persists one record. Saving an ID twice returns ErrConflict.
	Save(ctx context.Context, rec *Record) error

	// Get retrieves a record by request ID. Returns ErrNotFound if the
	// record does not exist.
	Get(ctx context.Context, id string) (*Record, error)

	// List returns up to limit records, most recent first.
	List(ctx context.Context, limit int) ([]*Record, error)

	// HealthCheck verifies the store is functional.
	HealthCheck(ctx context.Context) error

	// Close releases store resources.
	Close() error
}
