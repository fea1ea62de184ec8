package upload

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cosiris15/contract-review/pkg/models"
)

// MemoryStore is the in-memory fallback, matching the source's module-level
// _MEMORY_JOBS dict used whenever no Supabase client is configured.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]*models.UploadJob
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]*models.UploadJob)}
}

var _ Store = (*MemoryStore)(nil)

func cloneJob(j *models.UploadJob) *models.UploadJob {
	if j == nil {
		return nil
	}
	cp := *j
	return &cp
}

func (s *MemoryStore) Insert(_ context.Context, job *models.UploadJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.JobID] = cloneJob(job)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, jobID string) (*models.UploadJob, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[jobID]
	if !ok {
		return nil, false, nil
	}
	return cloneJob(j), true, nil
}

func (s *MemoryStore) GetByTask(_ context.Context, taskID string) ([]*models.UploadJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.UploadJob
	for _, j := range s.jobs {
		if j.TaskID == taskID {
			out = append(out, cloneJob(j))
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].CreatedAt.Before(out[k].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) GetRecoverable(_ context.Context) ([]*models.UploadJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.UploadJob
	for _, j := range s.jobs {
		if j.Recoverable() {
			out = append(out, cloneJob(j))
		}
	}
	return out, nil
}

func (s *MemoryStore) Update(_ context.Context, job *models.UploadJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.JobID]; !ok {
		return ErrNotFound
	}
	s.jobs[job.JobID] = cloneJob(job)
	return nil
}

// ClaimNext picks the oldest queued job under the store's lock, so two
// callers racing in the same process can never claim the same job.
func (s *MemoryStore) ClaimNext(_ context.Context) (*models.UploadJob, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var oldest *models.UploadJob
	for _, j := range s.jobs {
		if j.Status != models.UploadQueued {
			continue
		}
		if oldest == nil || j.CreatedAt.Before(oldest.CreatedAt) {
			oldest = j
		}
	}
	if oldest == nil {
		return nil, false, nil
	}

	now := time.Now()
	oldest.Status = models.UploadRunning
	if oldest.Stage == "" || oldest.Stage == models.StageUploaded {
		oldest.Stage = models.StageLoading
	}
	oldest.StartedAt = &now
	oldest.UpdatedAt = now
	return cloneJob(oldest), true, nil
}
