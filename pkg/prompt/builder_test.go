package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cosiris15/contract-review/pkg/llm"
	"github.com/cosiris15/contract-review/pkg/models"
)

func TestBuildClauseAnalyzeMessages_BasicShape(t *testing.T) {
	b := NewBuilder()
	msgs := b.BuildClauseAnalyzeMessages("en", "Contractor", "14.2", "Limitation of Liability",
		"liability exposure", "critical", "Neither party shall be liable for...", nil, "")

	require.Len(t, msgs, 2)
	assert.Equal(t, llm.RoleSystem, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "Contractor")
	assert.Equal(t, llm.RoleUser, msgs[1].Role)
	assert.Contains(t, msgs[1].Content, "14.2")
	assert.Contains(t, msgs[1].Content, "Neither party shall be liable")
}

func TestBuildClauseAnalyzeMessages_FIDICDomainAppended(t *testing.T) {
	b := NewBuilder()
	skillContext := map[string]any{
		"fidic_calculate_time_bar": map[string]any{"total_time_bars": 2.0, "has_strict_time_bar": true},
	}
	msgs := b.BuildClauseAnalyzeMessages("en", "Contractor", "20.1", "Claims", "time bar", "high", "text", skillContext, "fidic")

	assert.Contains(t, msgs[0].Content, "FIDIC-specific review guidance")
	assert.Contains(t, msgs[0].Content, "strict time bar detected")
}

func TestBuildClauseAnalyzeMessages_SkipsGetClauseContext(t *testing.T) {
	b := NewBuilder()
	skillContext := map[string]any{
		"get_clause_context": map[string]any{"clause_id": "14.2"},
	}
	msgs := b.BuildClauseAnalyzeMessages("en", "Contractor", "14.2", "", "", "", "text", skillContext, "")
	assert.NotContains(t, msgs[1].Content, "get_clause_context")
}

func TestBuildGenerateDiffsMessages(t *testing.T) {
	b := NewBuilder()
	risks := []models.Risk{{ID: "r1", RiskLevel: models.RiskHigh, RiskType: "liability", Description: "uncapped"}}
	msgs := b.BuildGenerateDiffsMessages("14.2", "clause text", risks)
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[1].Content, "r1")
}

func TestBuildValidateMessages(t *testing.T) {
	b := NewBuilder()
	msgs := b.BuildValidateMessages("14.2", "text", nil, nil)
	require.Len(t, msgs, 2)
	assert.Equal(t, clauseValidateSystem, msgs[0].Content)
}

func TestBuildSummarizeMessages(t *testing.T) {
	b := NewBuilder()
	msgs := b.BuildSummarizeMessages(10, 5, 1, 2, 2, 3, "clause 14.2: uncapped liability")
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[1].Content, "Reviewed 10 clauses")
	assert.Contains(t, msgs[1].Content, "clause 14.2")
}

func TestFormatSkillContext_LoadReviewCriteriaAndAssessDeviation(t *testing.T) {
	skillContext := map[string]any{
		"load_review_criteria": map[string]any{
			"has_criteria": true,
			"matched_criteria": []any{
				map[string]any{"risk_level": "high", "review_point": "liability cap", "baseline_text": "cap at 12 months fees", "match_type": "exact", "match_score": 1.0},
			},
		},
		"assess_deviation": map[string]any{
			"deviations": []any{
				map[string]any{"criterion_id": "c1", "deviation_level": "major", "risk_level": "high", "rationale": "no cap present"},
			},
		},
	}
	out := formatSkillContext(skillContext)
	assert.Contains(t, out, "Review criteria")
	assert.Contains(t, out, "liability cap")
	assert.Contains(t, out, "Deviation assessment")
	assert.Contains(t, out, "no cap present")
}
