package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cosiris15/contract-review/pkg/models"
	"github.com/cosiris15/contract-review/pkg/upload"
)

type fakeExecutor struct {
	mu    sync.Mutex
	calls int
	delay time.Duration
	fail  bool
}

func (f *fakeExecutor) Execute(ctx context.Context, job *models.UploadJob) *ExecutionResult {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return &ExecutionResult{Status: models.UploadFailed, Error: ctx.Err()}
		}
	}
	if f.fail {
		return &ExecutionResult{Status: models.UploadFailed, Error: assert.AnError}
	}
	return &ExecutionResult{Status: models.UploadSucceeded, ResultMeta: map[string]any{"chunks": 3}}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.WorkerCount = 2
	cfg.PollInterval = 5 * time.Millisecond
	cfg.PollIntervalJitter = 0
	cfg.JobTimeout = time.Second
	return cfg
}

func waitFor(t *testing.T, check func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if check() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestWorkerPool_ProcessesQueuedJobToSuccess(t *testing.T) {
	store := upload.NewMemoryStore()
	manager := upload.NewManager(store)
	job, err := manager.CreateJob(context.Background(), "task-1", models.RolePrimary, "lease.pdf", "s3://lease.pdf", "", "")
	require.NoError(t, err)

	exec := &fakeExecutor{}
	pool := NewWorkerPool(manager, exec, testConfig())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool.Start(ctx)
	defer pool.Stop()

	waitFor(t, func() bool {
		got, _, _ := manager.GetJob(context.Background(), job.JobID)
		return got != nil && got.Status == models.UploadSucceeded
	})

	got, ok, err := manager.GetJob(context.Background(), job.JobID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, models.UploadSucceeded, got.Status)
	assert.Equal(t, 3, got.ResultMeta["chunks"])
}

func TestWorkerPool_RecordsExecutorFailure(t *testing.T) {
	store := upload.NewMemoryStore()
	manager := upload.NewManager(store)
	job, err := manager.CreateJob(context.Background(), "task-1", models.RolePrimary, "lease.pdf", "s3://lease.pdf", "", "")
	require.NoError(t, err)

	exec := &fakeExecutor{fail: true}
	pool := NewWorkerPool(manager, exec, testConfig())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool.Start(ctx)
	defer pool.Stop()

	waitFor(t, func() bool {
		got, _, _ := manager.GetJob(context.Background(), job.JobID)
		return got != nil && got.Status == models.UploadFailed
	})

	got, _, err := manager.GetJob(context.Background(), job.JobID)
	require.NoError(t, err)
	assert.NotEmpty(t, got.ErrorMessage)
}

func TestWorkerPool_NeverDoubleClaimsAJob(t *testing.T) {
	store := upload.NewMemoryStore()
	manager := upload.NewManager(store)
	for i := 0; i < 10; i++ {
		_, err := manager.CreateJob(context.Background(), "task-1", models.RolePrimary, "doc.pdf", "s3://doc.pdf", "", "")
		require.NoError(t, err)
	}

	exec := &fakeExecutor{delay: 20 * time.Millisecond}
	cfg := testConfig()
	cfg.WorkerCount = 5
	pool := NewWorkerPool(manager, exec, cfg)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool.Start(ctx)
	defer pool.Stop()

	waitFor(t, func() bool {
		exec.mu.Lock()
		defer exec.mu.Unlock()
		return exec.calls >= 10
	})

	exec.mu.Lock()
	calls := exec.calls
	exec.mu.Unlock()
	assert.Equal(t, 10, calls, "each job must be executed exactly once")
}

func TestWorkerPool_CancelJobStopsExecution(t *testing.T) {
	store := upload.NewMemoryStore()
	manager := upload.NewManager(store)
	job, err := manager.CreateJob(context.Background(), "task-1", models.RolePrimary, "lease.pdf", "s3://lease.pdf", "", "")
	require.NoError(t, err)

	exec := &fakeExecutor{delay: time.Second}
	pool := NewWorkerPool(manager, exec, testConfig())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool.Start(ctx)
	defer pool.Stop()

	waitFor(t, func() bool {
		return pool.CancelJob(job.JobID)
	})

	waitFor(t, func() bool {
		got, _, _ := manager.GetJob(context.Background(), job.JobID)
		return got != nil && got.Status == models.UploadFailed
	})
}

func TestWorkerPool_HealthReportsWorkerCount(t *testing.T) {
	store := upload.NewMemoryStore()
	manager := upload.NewManager(store)
	exec := &fakeExecutor{}
	cfg := testConfig()
	cfg.WorkerCount = 3
	pool := NewWorkerPool(manager, exec, cfg)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool.Start(ctx)
	defer pool.Stop()

	health := pool.Health()
	assert.Equal(t, 3, health.TotalWorkers)
}
