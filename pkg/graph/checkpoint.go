package graph

import (
	"context"
	"sync"

	"github.com/cosiris15/contract-review/pkg/models"
)

// Checkpointer is the narrow persistence seam the engine writes through
// before and after every node. The
// session manager (pkg/session, durable) and InMemoryCheckpointer (tests,
// process-local runs) both satisfy it; the engine does not know or care
// which is behind the interface, matching the source's
// checkpointer-or-MemorySaver() default in build_review_graph.
type Checkpointer interface {
	Save(ctx context.Context, taskID string, state *models.GraphState) error
	Load(ctx context.Context, taskID string) (*models.GraphState, bool, error)
	ListActive(ctx context.Context) ([]string, error)
}

// InMemoryCheckpointer is the MemorySaver-equivalent default: adequate for a
// single-process run and for tests, with no durability across restarts.
type InMemoryCheckpointer struct {
	mu    sync.RWMutex
	state map[string]*models.GraphState
}

// NewInMemoryCheckpointer constructs an empty checkpointer.
func NewInMemoryCheckpointer() *InMemoryCheckpointer {
	return &InMemoryCheckpointer{state: make(map[string]*models.GraphState)}
}

var _ Checkpointer = (*InMemoryCheckpointer)(nil)

func (c *InMemoryCheckpointer) Save(_ context.Context, taskID string, state *models.GraphState) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state[taskID] = state.Clone()
	return nil
}

func (c *InMemoryCheckpointer) Load(_ context.Context, taskID string) (*models.GraphState, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.state[taskID]
	if !ok {
		return nil, false, nil
	}
	return s.Clone(), true, nil
}

func (c *InMemoryCheckpointer) ListActive(_ context.Context) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.state))
	for taskID, s := range c.state {
		if s != nil && !s.IsComplete {
			out = append(out, taskID)
		}
	}
	return out, nil
}
