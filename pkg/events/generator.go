package events

import (
	"context"
	"time"

	"github.com/cosiris15/contract-review/pkg/models"
)

// pollInterval mirrors review_events()'s asyncio.sleep(2) between graph
// state reads.
const pollInterval = 2 * time.Second

// StateReader is the narrow read side of a checkpointer the generator polls;
// both pkg/graph.Checkpointer and pkg/session.Manager satisfy it structurally.
type StateReader interface {
	Load(ctx context.Context, taskID string) (*models.GraphState, bool, error)
}

// Generator is the SSE-feeding poll loop, one instance per active task,
// grounded on api_gen3.py's review_events(): it watches a task's graph
// state and turns state transitions into Publish calls, rather than the
// graph engine publishing events itself (the engine runs synchronously to
// completion or interruption between checkpoints and has no natural place to
// emit "I am still on clause N" other than this external observer).
type Generator struct {
	Reader       StateReader
	Publisher    Publisher
	PollInterval time.Duration
}

// NewGenerator constructs a Generator with the standard 2s poll interval.
func NewGenerator(reader StateReader, pub Publisher) *Generator {
	return &Generator{Reader: reader, Publisher: pub, PollInterval: pollInterval}
}

// Run polls taskID's graph state until it completes, errors, disappears, or
// ctx is cancelled. It returns nil on a clean stop (review_complete/error
// emitted, or ctx cancellation) and the Load error if the reader itself
// fails.
func (g *Generator) Run(ctx context.Context, taskID string) error {
	interval := g.PollInterval
	if interval <= 0 {
		interval = pollInterval
	}

	lastClauseIndex := -1
	pushedDiffIDs := make(map[string]bool)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		state, ok, err := g.Reader.Load(ctx, taskID)
		if err != nil {
			return err
		}
		if !ok {
			g.Publisher.Publish(ctx, taskID, TypeReviewError, ReviewErrorPayload{
				Message: "task not found",
			})
			return nil
		}

		if state.CurrentClauseIndex != lastClauseIndex {
			lastClauseIndex = state.CurrentClauseIndex
			g.Publisher.Publish(ctx, taskID, TypeReviewProgress, ReviewProgressPayload{
				TaskID:             taskID,
				CurrentClauseIndex: state.CurrentClauseIndex,
				TotalClauses:       len(state.ReviewChecklist),
				CurrentClauseID:    state.CurrentClauseID,
			})
		}

		for _, diff := range state.PendingDiffs {
			if pushedDiffIDs[diff.DiffID] {
				continue
			}
			pushedDiffIDs[diff.DiffID] = true
			g.Publisher.Publish(ctx, taskID, TypeDiffProposed, diff)
		}
		if len(state.PendingDiffs) > 0 {
			g.Publisher.Publish(ctx, taskID, TypeApprovalRequired, ApprovalRequiredPayload{
				TaskID:       taskID,
				PendingCount: len(state.PendingDiffs),
			})
		}

		if state.IsComplete {
			g.Publisher.Publish(ctx, taskID, TypeReviewComplete, ReviewCompletePayload{
				TaskID:  taskID,
				Summary: state.SummaryNotes,
			})
			return nil
		}
		if state.Error != "" {
			g.Publisher.Publish(ctx, taskID, TypeReviewError, ReviewErrorPayload{
				Message: state.Error,
			})
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
