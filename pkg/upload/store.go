// Package upload implements the upload job manager: lifecycle
// transitions over one (task_id, role, filename) ingestion job, backed by
// either an in-memory store or Postgres, the two being behaviorally
// equivalent. Grounded on
// original_source/.../upload_job_manager.py's UploadJobManager.
package upload

import (
	"context"
	"errors"

	"github.com/cosiris15/contract-review/pkg/models"
)

// ErrNotFound is returned when a job_id has no matching row.
var ErrNotFound = errors.New("upload: job not found")

// ErrRetryNotAllowed is returned by Manager.MarkJobQueued when the job is
// not currently failed.
var ErrRetryNotAllowed = errors.New("upload: retry only allowed from failed status")

// Store is the persistence seam create_job/mark_job_*/get_recoverable_jobs
// write and read through. MemoryStore and PostgresStore both satisfy it.
type Store interface {
	Insert(ctx context.Context, job *models.UploadJob) error
	Get(ctx context.Context, jobID string) (*models.UploadJob, bool, error)
	GetByTask(ctx context.Context, taskID string) ([]*models.UploadJob, error)
	GetRecoverable(ctx context.Context) ([]*models.UploadJob, error)
	Update(ctx context.Context, job *models.UploadJob) error

	// ClaimNext atomically takes the oldest queued job and marks it running,
	// so that multiple concurrent queue workers never claim the same job.
	ClaimNext(ctx context.Context) (*models.UploadJob, bool, error)
}
