package orchestrator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cosiris15/contract-review/pkg/llm"
	"github.com/cosiris15/contract-review/pkg/models"
)

func sampleChecklist() []models.ChecklistItem {
	return []models.ChecklistItem{
		{ClauseID: "1", ClauseName: "Definitions", Priority: models.PriorityLow, RequiredSkills: []string{"resolve_definition"}},
		{ClauseID: "14.2", ClauseName: "Limitation of Liability", Priority: models.PriorityCritical, RequiredSkills: []string{"assess_deviation"}},
		{ClauseID: "20", ClauseName: "Dispute Resolution", Priority: models.PriorityMedium},
	}
}

func TestBuildDefaultPlan_CriticalGetsDeep(t *testing.T) {
	plan := BuildDefaultPlan(sampleChecklist())

	require.Len(t, plan.ClausePlans, 3)
	cp := plan.FindClausePlan("14.2")
	require.NotNil(t, cp)
	assert.Equal(t, models.DepthDeep, cp.AnalysisDepth)
	assert.Equal(t, 5, cp.MaxIterations)

	cp2 := plan.FindClausePlan("20")
	require.NotNil(t, cp2)
	assert.Equal(t, models.DepthStandard, cp2.AnalysisDepth)
	assert.Equal(t, 3, cp2.MaxIterations)
}

func TestGenerateReviewPlan_NoClient_UsesDefault(t *testing.T) {
	plan := GenerateReviewPlan(context.Background(), nil, sampleChecklist(), "fidic", "contract", nil, nil)
	require.Len(t, plan.ClausePlans, 3)
	assert.Equal(t, 1, plan.PlanVersion)
}

func TestGenerateReviewPlan_LLMValueWins_GapsBackfilled(t *testing.T) {
	client := &llm.FakeClient{
		ChatResponses: []string{`{
			"global_strategy": "focus on liability",
			"estimated_depth_distribution": {"quick": 0, "standard": 1, "deep": 1},
			"clause_plans": [
				{"clause_id": "14.2", "analysis_depth": "deep", "max_iterations": 0, "priority_order": 0, "rationale": "critical liability clause"},
				{"clause_id": "1", "analysis_depth": "quick", "max_iterations": 1, "priority_order": 1}
			]
		}`},
	}

	plan := GenerateReviewPlan(context.Background(), client, sampleChecklist(), "fidic", "contract", []string{"assess_deviation"}, nil)

	require.Len(t, plan.ClausePlans, 3)
	cp := plan.FindClausePlan("14.2")
	require.NotNil(t, cp)
	assert.Equal(t, models.DepthDeep, cp.AnalysisDepth)
	assert.Equal(t, 5, cp.MaxIterations, "non-positive max_iterations falls back to the depth default")

	// "20" was absent from the LLM response and must be gap-filled standard/3.
	cp3 := plan.FindClausePlan("20")
	require.NotNil(t, cp3)
	assert.Equal(t, models.DepthStandard, cp3.AnalysisDepth)
	assert.Equal(t, 3, cp3.MaxIterations)
	assert.Contains(t, cp3.Rationale, "gap filled")
}

func TestGenerateReviewPlan_IterationsClampedAndUnknownDepthNormalized(t *testing.T) {
	client := &llm.FakeClient{
		ChatResponses: []string{`{
			"clause_plans": [
				{"clause_id": "1", "analysis_depth": "extreme", "max_iterations": 99},
				{"clause_id": "14.2", "analysis_depth": "deep", "max_iterations": 5},
				{"clause_id": "20", "analysis_depth": "standard", "max_iterations": 3}
			]
		}`},
	}

	plan := GenerateReviewPlan(context.Background(), client, sampleChecklist(), "fidic", "contract", nil, nil)

	cp := plan.FindClausePlan("1")
	require.NotNil(t, cp)
	assert.Equal(t, models.DepthStandard, cp.AnalysisDepth, "unknown depth normalizes to standard")
	assert.Equal(t, 8, cp.MaxIterations, "iterations clamp to [1,8]")
}

func TestMaybeAdjustPlan_NoTrigger_NoLLMCall(t *testing.T) {
	client := &llm.FakeClient{ChatResponses: []string{`{"should_adjust": true}`}}

	adj := MaybeAdjustPlan(context.Background(), client, "5", []models.Risk{{RiskLevel: models.RiskLow}}, nil, 1, 3, nil)

	assert.False(t, adj.ShouldAdjust)
	assert.Empty(t, client.ChatCalls, "no trigger condition must not call the LLM")
}

func TestMaybeAdjustPlan_HighRiskTriggers(t *testing.T) {
	client := &llm.FakeClient{ChatResponses: []string{`{
		"should_adjust": true,
		"reason": "high risk found",
		"adjusted_clauses": [{"clause_id": "20", "analysis_depth": "deep", "max_iterations": 5, "rationale": "escalated"}]
	}`}}

	adj := MaybeAdjustPlan(context.Background(), client, "14.2", []models.Risk{{RiskLevel: models.RiskHigh}}, nil, 1, 3, nil)

	require.True(t, adj.ShouldAdjust)
	require.Len(t, client.ChatCalls, 1)
	require.Len(t, adj.AdjustedClauses, 1)
	assert.Equal(t, "20", adj.AdjustedClauses[0].ClauseID)
}

func TestMaybeAdjustPlan_MidpointTriggers(t *testing.T) {
	client := &llm.FakeClient{ChatResponses: []string{`{"should_adjust": false, "reason": "on track"}`}}

	// total=6 (>4), completed=3 is both floor and ceil of 6/2.
	adj := MaybeAdjustPlan(context.Background(), client, "5", nil, nil, 3, 6, nil)

	assert.False(t, adj.ShouldAdjust)
	require.Len(t, client.ChatCalls, 1, "midpoint heuristic must still call the LLM even with no high risk")
}

func TestApplyAdjustment_MergesAndBumpsVersion(t *testing.T) {
	plan := &models.ReviewPlan{
		PlanVersion: 1,
		ClausePlans: []models.ClausePlan{
			{ClauseID: "1", AnalysisDepth: models.DepthQuick, MaxIterations: 1, PriorityOrder: 0},
			{ClauseID: "20", AnalysisDepth: models.DepthStandard, MaxIterations: 3, PriorityOrder: 1},
		},
	}
	adjustment := PlanAdjustment{
		ShouldAdjust: true,
		AdjustedClauses: []models.ClausePlan{
			{ClauseID: "20", AnalysisDepth: models.DepthDeep, MaxIterations: 5, Rationale: "escalated"},
		},
	}

	updated := ApplyAdjustment(plan, adjustment)

	assert.Equal(t, 2, updated.PlanVersion)
	cp := updated.FindClausePlan("20")
	require.NotNil(t, cp)
	assert.Equal(t, models.DepthDeep, cp.AnalysisDepth)
	assert.False(t, cp.SkipDiffs)
	assert.False(t, cp.SkipValidate)

	untouched := updated.FindClausePlan("1")
	require.NotNil(t, untouched)
	assert.Equal(t, models.DepthQuick, untouched.AnalysisDepth)
}

func TestApplyAdjustment_NoOpWhenNotAdjusting(t *testing.T) {
	plan := &models.ReviewPlan{PlanVersion: 3}
	updated := ApplyAdjustment(plan, PlanAdjustment{ShouldAdjust: false})
	assert.Same(t, plan, updated)
}
