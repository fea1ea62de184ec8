package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/cosiris15/contract-review/pkg/upload"
)

// WorkerPool manages a pool of upload-job workers.
type WorkerPool struct {
	manager  *upload.Manager
	executor JobExecutor
	cfg      Config
	workers  []*Worker
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	activeJobs map[string]context.CancelFunc
	mu         sync.RWMutex
	started    bool
}

var _ JobRegistry = (*WorkerPool)(nil)

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(manager *upload.Manager, executor JobExecutor, cfg Config) *WorkerPool {
	return &WorkerPool{
		manager:    manager,
		executor:   executor,
		cfg:        cfg,
		workers:    make([]*Worker, 0, cfg.WorkerCount),
		stopCh:     make(chan struct{}),
		activeJobs: make(map[string]context.CancelFunc),
	}
}

// Start spawns worker goroutines. Safe to call more than once; subsequent
// calls are no-ops.
func (p *WorkerPool) Start(ctx context.Context) {
	if p.started {
		slog.Warn("upload worker pool already started, ignoring duplicate Start call")
		return
	}
	p.started = true

	slog.Info("starting upload worker pool", "worker_count", p.cfg.WorkerCount)
	for i := 0; i < p.cfg.WorkerCount; i++ {
		workerID := fmt.Sprintf("upload-worker-%d", i)
		worker := NewWorker(workerID, p.manager, p.executor, p.cfg, p)
		p.workers = append(p.workers, worker)
		worker.Start(ctx)
	}
}

// Stop signals all workers to stop and waits for them to finish. Workers
// finish their current job before exiting (graceful shutdown).
func (p *WorkerPool) Stop() {
	slog.Info("stopping upload worker pool gracefully")

	active := p.getActiveJobIDs()
	if len(active) > 0 {
		slog.Info("waiting for active upload jobs to complete", "count", len(active), "job_ids", active)
	}

	for _, worker := range p.workers {
		worker.Stop()
	}
	p.stopOnce.Do(func() { close(p.stopCh) })
	p.wg.Wait()

	slog.Info("upload worker pool stopped gracefully")
}

// RegisterJob stores a cancel function for manual cancellation.
func (p *WorkerPool) RegisterJob(jobID string, cancel context.CancelFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.activeJobs[jobID] = cancel
}

// UnregisterJob removes the cancel function when processing ends.
func (p *WorkerPool) UnregisterJob(jobID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.activeJobs, jobID)
}

// CancelJob triggers context cancellation for a job. Returns true if the
// job was found and cancelled on this pool.
func (p *WorkerPool) CancelJob(jobID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if cancel, ok := p.activeJobs[jobID]; ok {
		cancel()
		return true
	}
	return false
}

// Health returns the current health status of the pool.
func (p *WorkerPool) Health() *PoolHealth {
	p.mu.RLock()
	activeJobs := len(p.activeJobs)
	p.mu.RUnlock()

	workerStats := make([]WorkerHealth, len(p.workers))
	activeWorkers := 0
	for i, worker := range p.workers {
		stats := worker.Health()
		workerStats[i] = stats
		if stats.Status == string(WorkerStatusWorking) {
			activeWorkers++
		}
	}

	return &PoolHealth{
		IsHealthy:     len(p.workers) > 0 && activeJobs <= p.cfg.MaxConcurrentJobs,
		ActiveWorkers: activeWorkers,
		TotalWorkers:  len(p.workers),
		ActiveJobs:    activeJobs,
		MaxConcurrent: p.cfg.MaxConcurrentJobs,
		WorkerStats:   workerStats,
	}
}

func (p *WorkerPool) getActiveJobIDs() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	ids := make([]string, 0, len(p.activeJobs))
	for id := range p.activeJobs {
		ids = append(ids, id)
	}
	return ids
}
