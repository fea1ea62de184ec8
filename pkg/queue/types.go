// Package queue runs a bounded pool of workers that claim queued upload
// jobs and drive them through a JobExecutor, reporting
// health and supporting graceful shutdown with in-flight job cancellation.
package queue

import (
	"context"
	"errors"
	"time"

	"github.com/cosiris15/contract-review/pkg/models"
)

// Sentinel errors for queue operations.
var (
	// ErrNoJobsAvailable indicates no queued upload jobs are waiting.
	ErrNoJobsAvailable = errors.New("queue: no jobs available")

	// ErrAtCapacity indicates the global concurrent job limit has been reached.
	ErrAtCapacity = errors.New("queue: at capacity")
)

// JobExecutor runs one upload job end to end (pkg/document.Executor parses
// the document and attaches it to the task) and reports its terminal outcome. The worker
// only handles: claiming, timeout, terminal status update, and cancellation
// registration — the executor owns everything else, mirroring the split
// between worker and SessionExecutor that this package is grounded on.
type JobExecutor interface {
	Execute(ctx context.Context, job *models.UploadJob) *ExecutionResult
}

// ExecutionResult is the terminal outcome of one job execution.
type ExecutionResult struct {
	Status     models.UploadStatus
	ResultMeta map[string]any
	Error      error
}

// Config tunes worker count, polling cadence, and per-job timeout.
type Config struct {
	WorkerCount        int
	MaxConcurrentJobs  int
	PollInterval       time.Duration
	PollIntervalJitter time.Duration
	JobTimeout         time.Duration
	OrphanSweepInterval time.Duration
}

// DefaultConfig returns reasonable defaults for a single-process deployment.
func DefaultConfig() Config {
	return Config{
		WorkerCount:         4,
		MaxConcurrentJobs:   8,
		PollInterval:        500 * time.Millisecond,
		PollIntervalJitter:  200 * time.Millisecond,
		JobTimeout:          5 * time.Minute,
		OrphanSweepInterval: time.Minute,
	}
}

// PoolHealth reports the health of the entire worker pool.
type PoolHealth struct {
	IsHealthy     bool           `json:"is_healthy"`
	ActiveWorkers int            `json:"active_workers"`
	TotalWorkers  int            `json:"total_workers"`
	ActiveJobs    int            `json:"active_jobs"`
	MaxConcurrent int            `json:"max_concurrent"`
	WorkerStats   []WorkerHealth `json:"worker_stats"`
}

// WorkerHealth reports the health of a single worker.
type WorkerHealth struct {
	ID             string    `json:"id"`
	Status         string    `json:"status"` // "idle" or "working"
	CurrentJobID   string    `json:"current_job_id,omitempty"`
	JobsProcessed  int       `json:"jobs_processed"`
	LastActivity   time.Time `json:"last_activity"`
}
