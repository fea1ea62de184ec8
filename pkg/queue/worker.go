package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/cosiris15/contract-review/pkg/models"
	"github.com/cosiris15/contract-review/pkg/upload"
)

// WorkerStatus represents the current state of a worker.
type WorkerStatus string

// Worker status constants.
const (
	WorkerStatusIdle    WorkerStatus = "idle"
	WorkerStatusWorking WorkerStatus = "working"
)

// Worker is a single queue worker that polls for and processes upload jobs.
type Worker struct {
	id       string
	manager  *upload.Manager
	executor JobExecutor
	cfg      Config
	registry JobRegistry
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	mu            sync.RWMutex
	status        WorkerStatus
	currentJobID  string
	jobsProcessed int
	lastActivity  time.Time
}

// JobRegistry is the subset of WorkerPool used by Worker for cancel
// registration.
type JobRegistry interface {
	RegisterJob(jobID string, cancel context.CancelFunc)
	UnregisterJob(jobID string)
}

// NewWorker creates a new queue worker.
func NewWorker(id string, manager *upload.Manager, executor JobExecutor, cfg Config, registry JobRegistry) *Worker {
	return &Worker{
		id:           id,
		manager:      manager,
		executor:     executor,
		cfg:          cfg,
		registry:     registry,
		stopCh:       make(chan struct{}),
		status:       WorkerStatusIdle,
		lastActivity: time.Now(),
	}
}

// Start begins the worker polling loop in a goroutine.
func (w *Worker) Start(ctx context.Context) {
	w.wg.Add(1)
	go w.run(ctx)
}

// Stop signals the worker to stop and waits for it to finish. Safe to call
// more than once.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	w.wg.Wait()
}

// Health returns the current worker health status.
func (w *Worker) Health() WorkerHealth {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return WorkerHealth{
		ID:            w.id,
		Status:        string(w.status),
		CurrentJobID:  w.currentJobID,
		JobsProcessed: w.jobsProcessed,
		LastActivity:  w.lastActivity,
	}
}

func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()

	log := slog.With("worker_id", w.id)
	log.Info("upload worker started")

	for {
		select {
		case <-w.stopCh:
			log.Info("upload worker shutting down")
			return
		case <-ctx.Done():
			log.Info("context cancelled, upload worker shutting down")
			return
		default:
			if err := w.pollAndProcess(ctx); err != nil {
				if errors.Is(err, ErrNoJobsAvailable) || errors.Is(err, ErrAtCapacity) {
					w.sleep(w.pollInterval())
					continue
				}
				log.Error("error processing upload job", "error", err)
				w.sleep(time.Second)
			}
		}
	}
}

func (w *Worker) sleep(d time.Duration) {
	select {
	case <-w.stopCh:
	case <-time.After(d):
	}
}

// pollAndProcess claims one queued job and runs it to completion.
func (w *Worker) pollAndProcess(ctx context.Context) error {
	job, ok, err := w.manager.ClaimNextJob(ctx)
	if err != nil {
		return fmt.Errorf("claiming job: %w", err)
	}
	if !ok {
		return ErrNoJobsAvailable
	}

	log := slog.With("job_id", job.JobID, "task_id", job.TaskID, "worker_id", w.id)
	log.Info("upload job claimed")

	w.setStatus(WorkerStatusWorking, job.JobID)
	defer w.setStatus(WorkerStatusIdle, "")

	jobCtx, cancel := context.WithTimeout(ctx, w.cfg.JobTimeout)
	defer cancel()

	w.registry.RegisterJob(job.JobID, cancel)
	defer w.registry.UnregisterJob(job.JobID)

	result := w.executor.Execute(jobCtx, job)
	if result == nil {
		result = w.timeoutOrCancelResult(jobCtx)
	}

	finishCtx := context.Background()
	if result.Status == models.UploadSucceeded {
		err = w.manager.MarkJobSucceeded(finishCtx, job.JobID, result.ResultMeta)
	} else {
		msg := ""
		if result.Error != nil {
			msg = result.Error.Error()
		}
		err = w.manager.MarkJobFailed(finishCtx, job.JobID, msg)
	}
	if err != nil {
		log.Error("failed to record terminal job status", "error", err)
		return err
	}

	w.mu.Lock()
	w.jobsProcessed++
	w.mu.Unlock()

	log.Info("upload job finished", "status", result.Status)
	return nil
}

func (w *Worker) timeoutOrCancelResult(ctx context.Context) *ExecutionResult {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return &ExecutionResult{Status: models.UploadFailed, Error: fmt.Errorf("job timed out after %v", w.cfg.JobTimeout)}
	case errors.Is(ctx.Err(), context.Canceled):
		return &ExecutionResult{Status: models.UploadFailed, Error: context.Canceled}
	default:
		return &ExecutionResult{Status: models.UploadFailed, Error: fmt.Errorf("executor returned nil result")}
	}
}

func (w *Worker) pollInterval() time.Duration {
	base := w.cfg.PollInterval
	jitter := w.cfg.PollIntervalJitter
	if jitter <= 0 {
		return base
	}
	offset := time.Duration(rand.Int64N(int64(2 * jitter)))
	return base - jitter + offset
}

func (w *Worker) setStatus(status WorkerStatus, jobID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.status = status
	w.currentJobID = jobID
	w.lastActivity = time.Now()
}
