package session

import (
	"context"
	"time"

	"github.com/cosiris15/contract-review/pkg/models"
)

const maxSessionErrorLen = 2000

// Manager is the review_sessions CRUD layer: SaveSession/LoadSession pack
// and unpack models.GraphState through the four-tier policy in pack.go,
// while Save/Load/ListActive (method names matching
// pkg/graph.Checkpointer's method set) let a Manager be handed to
// graph.Engine directly as its checkpointer. Grounded on
// original_source/.../session_manager.py's SessionManager.
type Manager struct {
	store Store
}

// NewManager wraps a Store with session lifecycle behavior.
func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// deriveStatus mirrors save_session's status inference when the caller
// doesn't pin one explicitly: completed wins, then interrupted (a nonempty
// pending_diffs means the engine paused before human_approval), else
// reviewing.
func deriveStatus(state *models.GraphState) Status {
	if state.IsComplete {
		return StatusCompleted
	}
	if len(state.PendingDiffs) > 0 {
		return StatusInterrupted
	}
	return StatusReviewing
}

// SaveSession upserts the review_sessions row for a checkpoint, packing the
// full graph state and denormalizing the summary columns used by listing
// endpoints. status, if empty, is derived from the state.
func (m *Manager) SaveSession(ctx context.Context, taskID string, state *models.GraphState, graphRunID string, status Status) error {
	if state == nil {
		state = &models.GraphState{}
	}
	if status == "" {
		status = deriveStatus(state)
	}

	packed, err := packGraphState(state)
	if err != nil {
		return err
	}

	now := time.Now()
	rec := &Record{
		TaskID:             taskID,
		Status:             status,
		DomainID:           state.DomainID,
		DomainSubtype:      state.DomainSubtype,
		OurParty:           state.OurParty,
		Language:           state.Language,
		CurrentClauseIndex: state.CurrentClauseIndex,
		CurrentClauseID:    state.CurrentClauseID,
		TotalClauses:       len(state.ReviewChecklist),
		IsComplete:         state.IsComplete,
		IsInterrupted:      len(state.PendingDiffs) > 0,
		Error:              state.Error,
		GraphRunID:         graphRunID,
		GraphState:         packed,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if status == StatusCompleted {
		rec.CompletedAt = &now
	}
	return m.store.Upsert(ctx, rec)
}

// LoadSession returns the row's summary and its unpacked graph state.
func (m *Manager) LoadSession(ctx context.Context, taskID string) (*Record, *models.GraphState, bool, error) {
	rec, ok, err := m.store.Get(ctx, taskID)
	if err != nil || !ok {
		return nil, nil, ok, err
	}
	state, err := unpackGraphState(rec.GraphState)
	if err != nil {
		return nil, nil, false, err
	}
	return rec, state, true, nil
}

// MarkSessionCompleted flips a session to completed without touching its
// stored graph state, matching mark_session_completed.
func (m *Manager) MarkSessionCompleted(ctx context.Context, taskID string) error {
	return m.store.UpdateStatus(ctx, taskID, func(rec *Record) {
		now := time.Now()
		rec.Status = StatusCompleted
		rec.IsComplete = true
		rec.IsInterrupted = false
		rec.UpdatedAt = now
		rec.CompletedAt = &now
	})
}

// MarkSessionFailed flips a session to failed, truncating the error
// message to the persisted column's limit, matching mark_session_failed.
// Sets completed_at like MarkSessionCompleted does, since failed is also a
// terminal state the retention sweep (PurgeStale) needs to measure from.
func (m *Manager) MarkSessionFailed(ctx context.Context, taskID, errMsg string) error {
	return m.store.UpdateStatus(ctx, taskID, func(rec *Record) {
		now := time.Now()
		rec.Status = StatusFailed
		rec.Error = truncateError(errMsg)
		rec.UpdatedAt = now
		rec.CompletedAt = &now
	})
}

// ListActiveSessions returns every row whose status is reviewing or
// interrupted, matching list_active_sessions.
func (m *Manager) ListActiveSessions(ctx context.Context) ([]*Record, error) {
	return m.store.ListActive(ctx)
}

// PurgeStale deletes completed/failed sessions whose completed_at is older
// than the given retention window, for pkg/cleanup's retention sweep.
func (m *Manager) PurgeStale(ctx context.Context, retention time.Duration) (int, error) {
	return m.store.DeletePurgeable(ctx, time.Now().Add(-retention))
}

func truncateError(msg string) string {
	if len(msg) <= maxSessionErrorLen {
		return msg
	}
	return msg[:maxSessionErrorLen]
}

// Save implements graph.Checkpointer: every engine step checkpoints through
// here with status auto-derived from the state.
func (m *Manager) Save(ctx context.Context, taskID string, state *models.GraphState) error {
	return m.SaveSession(ctx, taskID, state, "", "")
}

// Load implements graph.Checkpointer.
func (m *Manager) Load(ctx context.Context, taskID string) (*models.GraphState, bool, error) {
	_, state, ok, err := m.LoadSession(ctx, taskID)
	return state, ok, err
}

// ListActive implements graph.Checkpointer, returning just the task ids.
func (m *Manager) ListActive(ctx context.Context) ([]string, error) {
	recs, err := m.store.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(recs))
	for _, rec := range recs {
		ids = append(ids, rec.TaskID)
	}
	return ids, nil
}
