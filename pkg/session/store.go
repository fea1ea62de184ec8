package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a task_id has no review_sessions row.
var ErrNotFound = errors.New("session: not found")

// Store is the review_sessions persistence seam; MemoryStore and
// PostgresStore both satisfy it.
type Store interface {
	Upsert(ctx context.Context, rec *Record) error
	Get(ctx context.Context, taskID string) (*Record, bool, error)
	UpdateStatus(ctx context.Context, taskID string, apply func(rec *Record)) error
	ListActive(ctx context.Context) ([]*Record, error)

	// DeletePurgeable removes completed or failed sessions whose
	// completed_at is older than cutoff, for the retention sweep.
	DeletePurgeable(ctx context.Context, cutoff time.Time) (int, error)
}
