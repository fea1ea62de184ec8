package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cosiris15/contract-review/pkg/llm"
	"github.com/cosiris15/contract-review/pkg/models"
	"github.com/cosiris15/contract-review/pkg/prompt"
	"github.com/cosiris15/contract-review/pkg/skills"
)

func sampleStructure() *models.DocumentStructure {
	return &models.DocumentStructure{
		DocumentID:   "doc-1",
		TotalClauses: 2,
		Clauses: []models.ClauseNode{
			{ClauseID: "1", Title: "Definitions", Text: "Defined terms apply."},
			{ClauseID: "14.2", Title: "Limitation of Liability", Text: "Liability is capped at fees paid."},
		},
	}
}

func sampleChecklist() []models.ChecklistItem {
	return []models.ChecklistItem{
		{ClauseID: "1", ClauseName: "Definitions", Priority: models.PriorityLow, RequiredSkills: nil, Description: "check defined terms"},
		{ClauseID: "14.2", ClauseName: "Limitation of Liability", Priority: models.PriorityCritical, RequiredSkills: nil, Description: "check liability cap"},
	}
}

func newLegacyEngine(client llm.Client) *Engine {
	return &Engine{
		Dispatcher:   skills.NewDispatcher(nil, nil),
		LLMClient:    client,
		Prompt:       prompt.NewBuilder(),
		Checkpointer: NewInMemoryCheckpointer(),
		Mode:         ModeLegacy,
	}
}

func TestEngine_Run_LegacyMode_NoLLM_CompletesAllClauses(t *testing.T) {
	engine := newLegacyEngine(nil)
	initial := &models.GraphState{
		TaskID:           "task-1",
		OurParty:         "Buyer",
		PrimaryStructure: sampleStructure(),
		ReviewChecklist:  sampleChecklist(),
	}

	result, err := engine.Run(context.Background(), initial)
	require.NoError(t, err)
	assert.False(t, result.Interrupted)
	assert.True(t, result.State.IsComplete)
	assert.Equal(t, 2, result.State.CurrentClauseIndex)
	assert.Len(t, result.State.Findings, 2)
	assert.NotEmpty(t, result.State.SummaryNotes)
}

func TestEngine_Run_StopsAtHumanApproval_WhenDiffsPending(t *testing.T) {
	client := &llm.FakeClient{
		ChatResponses: []string{
			// clause "1" analyze: one risk
			`[{"risk_level":"high","risk_type":"ambiguity","description":"vague term","reason":"unclear","analysis":"n/a","location":{"original_text":"Defined terms apply."}}]`,
			// clause "1" generate_diffs
			`[{"risk_id":"0","action_type":"replace","original_text":"Defined terms apply.","proposed_text":"Defined terms apply strictly.","reason":"clarify","risk_level":"high"}]`,
			// clause "1" validate
			`{"result":"pass"}`,
		},
	}
	engine := newLegacyEngine(client)
	initial := &models.GraphState{
		TaskID:           "task-2",
		OurParty:         "Buyer",
		PrimaryStructure: sampleStructure(),
		ReviewChecklist:  sampleChecklist()[:1],
	}

	result, err := engine.Run(context.Background(), initial)
	require.NoError(t, err)
	assert.True(t, result.Interrupted)
	require.Len(t, result.State.CurrentDiffs, 1)
	assert.Equal(t, result.State.CurrentDiffs, result.State.PendingDiffs)
	assert.Equal(t, "pass", string(result.State.ValidationResult))

	loaded, ok, err := engine.Checkpointer.Load(context.Background(), "task-2")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, loaded.IsComplete == false)
	assert.Equal(t, loaded.CurrentDiffs, loaded.PendingDiffs)
	require.Len(t, loaded.PendingDiffs, 1)
}

func TestEngine_Resume_SavesApprovedDiffsOnly(t *testing.T) {
	client := &llm.FakeClient{
		ChatResponses: []string{
			`[{"risk_level":"high","risk_type":"ambiguity","description":"vague term","reason":"unclear","analysis":"n/a","location":{"original_text":"Defined terms apply."}}]`,
			`[{"risk_id":"0","action_type":"replace","original_text":"Defined terms apply.","proposed_text":"Defined terms apply strictly.","reason":"clarify","risk_level":"high"}]`,
			`{"result":"pass"}`,
			"Review complete.",
		},
	}
	engine := newLegacyEngine(client)
	initial := &models.GraphState{
		TaskID:           "task-3",
		OurParty:         "Buyer",
		PrimaryStructure: sampleStructure(),
		ReviewChecklist:  sampleChecklist()[:1],
	}

	first, err := engine.Run(context.Background(), initial)
	require.NoError(t, err)
	require.True(t, first.Interrupted)
	require.Len(t, first.State.CurrentDiffs, 1)

	diffID := first.State.CurrentDiffs[0].DiffID
	first.State.UserDecisions = map[string]string{diffID: "reject"}

	final, err := engine.Resume(context.Background(), first.State)
	require.NoError(t, err)
	assert.False(t, final.Interrupted)
	assert.True(t, final.State.IsComplete)
	assert.Empty(t, final.State.AllDiffs)
	require.Contains(t, final.State.Findings, "1")
	assert.Empty(t, final.State.Findings["1"].Diffs)
}

func TestRouteValidation_RetriesUntilMaxThenSavesClause(t *testing.T) {
	state := &models.GraphState{ValidationResult: models.ValidationFail, ClauseRetryCount: 1, MaxRetries: 2}
	assert.Equal(t, NodeClauseGenerateDiffs, routeValidation(state, 2))

	state.ClauseRetryCount = 2
	assert.Equal(t, NodeSaveClause, routeValidation(state, 2))
}

func TestRouteNextClauseOrEnd_ErrorGoesToSummarize(t *testing.T) {
	state := &models.GraphState{Error: "boom", ReviewChecklist: sampleChecklist()}
	assert.Equal(t, NodeSummarize, routeNextClauseOrEnd(state))
}

func TestRouteAfterAnalyze_SkipsDiffsWhenPlanSaysSo(t *testing.T) {
	state := &models.GraphState{
		CurrentClauseID: "1",
		ReviewPlan: &models.ReviewPlan{
			ClausePlans: []models.ClausePlan{{ClauseID: "1", SkipDiffs: true}},
		},
	}
	assert.Equal(t, NodeSaveClause, routeAfterAnalyze(state))

	state.ReviewPlan.ClausePlans[0].SkipDiffs = false
	assert.Equal(t, NodeClauseGenerateDiffs, routeAfterAnalyze(state))
}

func TestMergeUpdate_LeavesUntouchedFieldsAlone(t *testing.T) {
	state := &models.GraphState{TaskID: "t", CurrentClauseIndex: 3, SummaryNotes: "keep me"}
	next := mergeUpdate(state, Update{CurrentClauseIndex: intPtr(4)})
	assert.Equal(t, 4, next.CurrentClauseIndex)
	assert.Equal(t, "keep me", next.SummaryNotes)
	assert.Equal(t, 3, state.CurrentClauseIndex) // original untouched
}

func TestInMemoryCheckpointer_ListActiveExcludesComplete(t *testing.T) {
	cp := NewInMemoryCheckpointer()
	ctx := context.Background()
	require.NoError(t, cp.Save(ctx, "a", &models.GraphState{TaskID: "a", IsComplete: false}))
	require.NoError(t, cp.Save(ctx, "b", &models.GraphState{TaskID: "b", IsComplete: true}))

	active, err := cp.ListActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, active)
}

func TestParseValidationResult_TolerantOfFencedJSON(t *testing.T) {
	v, ok := parseValidationResult("```json\n{\"result\": \"fail\"}\n```")
	require.True(t, ok)
	assert.Equal(t, models.ValidationFail, v)

	_, ok = parseValidationResult("not json at all")
	assert.False(t, ok)
}
