package session

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cosiris15/contract-review/pkg/models"
)

func newTestManager() *Manager {
	return NewManager(NewMemoryStore())
}

func sampleState() *models.GraphState {
	return &models.GraphState{
		TaskID:             "task-1",
		OurParty:           "Acme Inc",
		Language:           "en",
		DomainID:           "fidic",
		CurrentClauseIndex: 2,
		CurrentClauseID:    "14.2",
		ReviewChecklist: []models.ChecklistItem{
			{ClauseID: "1"}, {ClauseID: "14.2"}, {ClauseID: "20"},
		},
	}
}

func TestSaveAndLoadSession_RoundTrips(t *testing.T) {
	ctx := context.Background()
	m := newTestManager()
	state := sampleState()

	require.NoError(t, m.SaveSession(ctx, "task-1", state, "run-1", ""))

	rec, loaded, ok, err := m.LoadSession(ctx, "task-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, StatusReviewing, rec.Status)
	assert.Equal(t, 3, rec.TotalClauses)
	assert.Equal(t, "14.2", loaded.CurrentClauseID)
	assert.Equal(t, "fidic", loaded.DomainID)
	assert.Len(t, loaded.ReviewChecklist, 3)
}

func TestSaveSession_DerivesInterruptedFromPendingDiffs(t *testing.T) {
	ctx := context.Background()
	m := newTestManager()
	state := sampleState()
	state.PendingDiffs = []models.Diff{{DiffID: "d1", ClauseID: "14.2"}}

	require.NoError(t, m.SaveSession(ctx, "task-1", state, "", ""))
	rec, _, _, err := m.LoadSession(ctx, "task-1")
	require.NoError(t, err)
	assert.Equal(t, StatusInterrupted, rec.Status)
	assert.True(t, rec.IsInterrupted)
}

func TestSaveSession_DerivesCompleted(t *testing.T) {
	ctx := context.Background()
	m := newTestManager()
	state := sampleState()
	state.IsComplete = true

	require.NoError(t, m.SaveSession(ctx, "task-1", state, "", ""))
	rec, _, _, err := m.LoadSession(ctx, "task-1")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, rec.Status)
	require.NotNil(t, rec.CompletedAt)
}

func TestMarkSessionCompletedAndFailed(t *testing.T) {
	ctx := context.Background()
	m := newTestManager()
	require.NoError(t, m.SaveSession(ctx, "task-1", sampleState(), "", ""))

	require.NoError(t, m.MarkSessionCompleted(ctx, "task-1"))
	rec, _, _, err := m.LoadSession(ctx, "task-1")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, rec.Status)
	assert.True(t, rec.IsComplete)

	long := strings.Repeat("z", maxSessionErrorLen+100)
	require.NoError(t, m.MarkSessionFailed(ctx, "task-1", long))
	rec, _, _, err = m.LoadSession(ctx, "task-1")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, rec.Status)
	assert.Len(t, rec.Error, maxSessionErrorLen)
}

func TestListActiveSessions_FiltersByStatus(t *testing.T) {
	ctx := context.Background()
	m := newTestManager()

	require.NoError(t, m.SaveSession(ctx, "reviewing-task", sampleState(), "", ""))

	interrupted := sampleState()
	interrupted.TaskID = "interrupted-task"
	interrupted.PendingDiffs = []models.Diff{{DiffID: "d1"}}
	require.NoError(t, m.SaveSession(ctx, "interrupted-task", interrupted, "", ""))

	done := sampleState()
	done.TaskID = "done-task"
	done.IsComplete = true
	require.NoError(t, m.SaveSession(ctx, "done-task", done, "", ""))

	active, err := m.ListActiveSessions(ctx)
	require.NoError(t, err)
	ids := map[string]bool{}
	for _, rec := range active {
		ids[rec.TaskID] = true
	}
	assert.True(t, ids["reviewing-task"])
	assert.True(t, ids["interrupted-task"])
	assert.False(t, ids["done-task"])

	taskIDs, err := m.ListActive(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"reviewing-task", "interrupted-task"}, taskIDs)
}

func TestCheckpointerMethods(t *testing.T) {
	ctx := context.Background()
	m := newTestManager()
	state := sampleState()

	require.NoError(t, m.Save(ctx, "task-1", state))
	loaded, ok, err := m.Load(ctx, "task-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "task-1", loaded.TaskID)

	_, ok, err = m.Load(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPackGraphState_PlainTierRoundTrips(t *testing.T) {
	state := sampleState()
	state.CurrentSkillContext = map[string]any{"get_clause_context": "some tool output"}

	packed, err := packGraphState(state)
	require.NoError(t, err)
	unpacked, err := unpackGraphState(packed)
	require.NoError(t, err)
	assert.Equal(t, state.TaskID, unpacked.TaskID)
	assert.Equal(t, state.CurrentClauseID, unpacked.CurrentClauseID)
	assert.Equal(t, state.CurrentSkillContext, unpacked.CurrentSkillContext)
}

func TestPackGraphState_PruneTierDropsSkillContextOnOverflow(t *testing.T) {
	state := sampleState()
	// Large enough alone to push the plain encoding over the ceiling, but
	// current_skill_context is exactly what the prune tier strips, so the
	// pruned encoding should fit and every other field should survive.
	state.CurrentSkillContext = map[string]any{"get_clause_context": strings.Repeat("x", maxGraphStateBytes+1024)}

	packed, err := packGraphState(state)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(packed), maxGraphStateBytes)

	unpacked, err := unpackGraphState(packed)
	require.NoError(t, err)
	assert.Equal(t, state.TaskID, unpacked.TaskID)
	assert.Equal(t, state.CurrentClauseID, unpacked.CurrentClauseID)
	assert.Equal(t, state.ReviewChecklist, unpacked.ReviewChecklist)
	assert.Nil(t, unpacked.CurrentSkillContext)
}

func TestPackGraphState_SkeletonTierOnIncompressibleOverflow(t *testing.T) {
	state := sampleState()
	// Unique, non-repetitive text defeats gzip, so even the compressed
	// envelope overflows and packGraphState must fall back to the lossy
	// skeleton; only the fields the skeleton preserves survive.
	var sb strings.Builder
	for i := 0; sb.Len() < maxGraphStateBytes*8; i++ {
		sb.WriteString(randomishToken(i))
	}
	state.ReviewChecklist = append(state.ReviewChecklist, models.ChecklistItem{
		ClauseID:    "bulk",
		Description: sb.String(),
	})

	packed, err := packGraphState(state)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(packed), maxGraphStateBytes)

	unpacked, err := unpackGraphState(packed)
	require.NoError(t, err)
	assert.Equal(t, state.TaskID, unpacked.TaskID)
	assert.Equal(t, state.CurrentClauseID, unpacked.CurrentClauseID)
	assert.Equal(t, state.IsComplete, unpacked.IsComplete)
	assert.NotEqual(t, state.ReviewChecklist, unpacked.ReviewChecklist)
}

// randomishToken produces deterministic, non-repeating filler text so
// gzip can't meaningfully compress it.
func randomishToken(i int) string {
	h := i*2654435761 + 1
	return fmt.Sprintf("%x-%x-%x;", h, h^0x9e3779b9, h*31)
}

func TestUnpackGraphState_EmptyInput(t *testing.T) {
	state, err := unpackGraphState(nil)
	require.NoError(t, err)
	assert.Equal(t, "", state.TaskID)
}
