package upload

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrObjectNotFound is returned when a storage key has no matching blob.
var ErrObjectNotFound = errors.New("upload: object not found")

// ObjectStore persists the raw bytes of an uploaded document under a
// storage_key, independent of the UploadJob metadata Store above. The
// concrete backend (S3, GCS, etc.) is an external collaborator out of
// scope per Non-goals; only this small interface is owned here,
// grounded in a small-fetch-interface-backed-by-a-cache idiom
// (one method to put, one to get, a generated key in between).
type ObjectStore interface {
	Put(ctx context.Context, data []byte) (storageKey string, err error)
	Get(ctx context.Context, storageKey string) ([]byte, error)
}

// MemoryObjectStore is the in-process ObjectStore for tests and
// single-node deployments without a configured external backend.
type MemoryObjectStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemoryObjectStore constructs an empty in-memory object store.
func NewMemoryObjectStore() *MemoryObjectStore {
	return &MemoryObjectStore{objects: make(map[string][]byte)}
}

var _ ObjectStore = (*MemoryObjectStore)(nil)

func (s *MemoryObjectStore) Put(_ context.Context, data []byte) (string, error) {
	key := uuid.NewString()
	cp := append([]byte(nil), data...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = cp
	return key, nil
}

func (s *MemoryObjectStore) Get(_ context.Context, storageKey string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[storageKey]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return append([]byte(nil), data...), nil
}
