package upload

import (
	"context"
	"time"

	"github.com/cosiris15/contract-review/pkg/models"
)

const maxErrorMessageLen = 2000

// Manager enforces the upload job lifecycle: queued -> running ->
// {succeeded, failed}, with failed -> queued permitted only as an explicit
// retry. Grounded on UploadJobManager in
// original_source/.../upload_job_manager.py, adjusted at mark_job_queued:
// the Python source resets to queued unconditionally, but retry here is
// allowed only when the job is currently failed, so this Manager
// enforces that guard (see DESIGN.md).
type Manager struct {
	store Store
}

// NewManager wraps a Store with lifecycle enforcement.
func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// CreateJob registers a new ingestion job in its initial queued state.
func (m *Manager) CreateJob(ctx context.Context, taskID string, role models.UploadRole, filename, storageKey, ourParty, language string) (*models.UploadJob, error) {
	now := time.Now()
	job := &models.UploadJob{
		JobID:      models.NewJobID(),
		TaskID:     taskID,
		Role:       role,
		Filename:   filename,
		StorageKey: storageKey,
		Status:     models.UploadQueued,
		Stage:      models.StageUploaded,
		Progress:   0,
		OurParty:   ourParty,
		Language:   language,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := m.store.Insert(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// MarkJobRunning transitions a job to running, recording started_at the
// first time this is called for the job.
func (m *Manager) MarkJobRunning(ctx context.Context, jobID string) error {
	job, ok, err := m.store.Get(ctx, jobID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	now := time.Now()
	job.Status = models.UploadRunning
	if job.Stage == "" || job.Stage == models.StageUploaded {
		job.Stage = models.StageLoading
	}
	if job.StartedAt == nil {
		job.StartedAt = &now
	}
	job.UpdatedAt = now
	return m.store.Update(ctx, job)
}

// UpdateJobStage records a finer-grained progress marker within the
// running state; progress is clamped to [0,100].
func (m *Manager) UpdateJobStage(ctx context.Context, jobID string, stage models.UploadStage, progress int) error {
	job, ok, err := m.store.Get(ctx, jobID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	job.Status = models.UploadRunning
	job.Stage = stage
	job.Progress = clampProgress(progress)
	job.UpdatedAt = time.Now()
	return m.store.Update(ctx, job)
}

// MarkJobSucceeded completes the job at 100% and clears any prior error.
func (m *Manager) MarkJobSucceeded(ctx context.Context, jobID string, resultMeta map[string]any) error {
	job, ok, err := m.store.Get(ctx, jobID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	now := time.Now()
	job.Status = models.UploadSucceeded
	job.Stage = models.StageFinished
	job.Progress = 100
	job.ErrorMessage = ""
	job.ResultMeta = resultMeta
	job.FinishedAt = &now
	job.UpdatedAt = now
	return m.store.Update(ctx, job)
}

// MarkJobFailed fails the job, truncating the error message to the
// persisted column's limit.
func (m *Manager) MarkJobFailed(ctx context.Context, jobID, errMsg string) error {
	job, ok, err := m.store.Get(ctx, jobID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	now := time.Now()
	job.Status = models.UploadFailed
	job.Stage = models.StageFailed
	job.ErrorMessage = truncateMessage(errMsg)
	job.FinishedAt = &now
	job.UpdatedAt = now
	return m.store.Update(ctx, job)
}

// MarkJobQueued retries a failed job, resetting it to its initial state.
// Returns ErrRetryNotAllowed unless the job is currently failed.
func (m *Manager) MarkJobQueued(ctx context.Context, jobID string) error {
	job, ok, err := m.store.Get(ctx, jobID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	if job.Status != models.UploadFailed {
		return ErrRetryNotAllowed
	}
	job.Status = models.UploadQueued
	job.Stage = models.StageUploaded
	job.Progress = 0
	job.ErrorMessage = ""
	job.ResultMeta = nil
	job.StartedAt = nil
	job.FinishedAt = nil
	job.UpdatedAt = time.Now()
	return m.store.Update(ctx, job)
}

// GetJob fetches a single job by id.
func (m *Manager) GetJob(ctx context.Context, jobID string) (*models.UploadJob, bool, error) {
	return m.store.Get(ctx, jobID)
}

// GetJobsByTask lists every upload job for a review task.
func (m *Manager) GetJobsByTask(ctx context.Context, taskID string) ([]*models.UploadJob, error) {
	return m.store.GetByTask(ctx, taskID)
}

// GetRecoverableJobs returns jobs still queued or running, for process
// startup recovery.
func (m *Manager) GetRecoverableJobs(ctx context.Context) ([]*models.UploadJob, error) {
	return m.store.GetRecoverable(ctx)
}

// ClaimNextJob atomically takes the oldest queued job and marks it running,
// for pkg/queue's worker pool to consume.
func (m *Manager) ClaimNextJob(ctx context.Context) (*models.UploadJob, bool, error) {
	return m.store.ClaimNext(ctx)
}

func clampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

func truncateMessage(msg string) string {
	if len(msg) <= maxErrorMessageLen {
		return msg
	}
	return msg[:maxErrorMessageLen]
}
