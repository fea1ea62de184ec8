package react

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cosiris15/contract-review/pkg/llm"
	"github.com/cosiris15/contract-review/pkg/models"
	"github.com/cosiris15/contract-review/pkg/skills"
)

func echoSkill(id string, sleep time.Duration, fail bool) skills.Registration {
	return skills.Registration{
		SkillID: id,
		Domain:  "*",
		Status:  skills.StatusActive,
		Backend: skills.BackendLocal,
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{"clause_id": map[string]any{"type": "string"}},
		},
		LocalHandler: func(ctx context.Context, in skills.Input) (any, error) {
			if sleep > 0 {
				time.Sleep(sleep)
			}
			if fail {
				return nil, assert.AnError
			}
			return map[string]any{"clause_id": in.ClauseID, "skill": id}, nil
		},
	}
}

func newTestDispatcher(t *testing.T, regs ...skills.Registration) *skills.Dispatcher {
	d := skills.NewDispatcher(nil, nil)
	require.NoError(t, d.RegisterBatch(regs))
	return d
}

func TestRun_NoToolCalls_ParsesFinalRisks(t *testing.T) {
	client := &llm.FakeClient{
		ChatWithToolsResponses: []llm.ChatWithToolsResponse{
			{Text: `[{"id":"r1","risk_level":"high","risk_type":"liability","description":"uncapped liability"}]`},
		},
	}
	d := newTestDispatcher(t)
	state := &models.GraphState{DomainID: "fidic"}

	result := Run(context.Background(), client, d, nil, "14.2", nil, state, 5, 0.1, nil)

	require.Len(t, result.Risks, 1)
	assert.Equal(t, "r1", result.Risks[0].ID)
	assert.Equal(t, models.RiskHigh, result.Risks[0].RiskLevel)
	assert.Empty(t, result.SkillContext)
}

func TestRun_ParallelToolFanOut_PartialFailureTolerant(t *testing.T) {
	client := &llm.FakeClient{
		ChatWithToolsResponses: []llm.ChatWithToolsResponse{
			{ToolCalls: []llm.ToolCall{
				{ID: "c1", Name: "ok_skill", Arguments: `{"clause_id":"14.2"}`},
				{ID: "c2", Name: "bad_skill", Arguments: `{"clause_id":"14.2"}`},
			}},
			{Text: `[]`},
		},
	}
	d := newTestDispatcher(t, echoSkill("ok_skill", 20*time.Millisecond, false), echoSkill("bad_skill", 0, true))
	state := &models.GraphState{DomainID: "fidic"}

	start := time.Now()
	result := Run(context.Background(), client, d, nil, "14.2", nil, state, 5, 0.1, nil)
	elapsed := time.Since(start)

	// Both calls run concurrently, not sequentially: if they ran one after
	// another the ok_skill sleep alone would dominate, but either way the
	// bad_skill failure must not have aborted ok_skill's result.
	assert.Less(t, elapsed, 200*time.Millisecond)
	require.Contains(t, result.SkillContext, "ok_skill")
	assert.NotContains(t, result.SkillContext, "bad_skill")

	// Exactly one tool message should carry an error payload for bad_skill.
	var errMsgs int
	for _, m := range result.Messages {
		if m.Role == llm.RoleTool && m.ToolName == "bad_skill" {
			errMsgs++
			var parsed map[string]string
			require.NoError(t, json.Unmarshal([]byte(m.Content), &parsed))
			assert.NotEmpty(t, parsed["error"])
		}
	}
	assert.Equal(t, 1, errMsgs)
}

func TestRun_MaxIterationsForcedEnd(t *testing.T) {
	resp := llm.ChatWithToolsResponse{ToolCalls: []llm.ToolCall{{ID: "c1", Name: "ok_skill", Arguments: `{}`}}}
	client := &llm.FakeClient{
		ChatWithToolsResponses: []llm.ChatWithToolsResponse{resp, resp, resp},
	}
	d := newTestDispatcher(t, echoSkill("ok_skill", 0, false))
	state := &models.GraphState{DomainID: "fidic"}

	result := Run(context.Background(), client, d, nil, "14.2", nil, state, 3, 0.1, nil)

	assert.Empty(t, result.Risks)
	assert.Contains(t, result.SkillContext, "ok_skill")
}

func TestRun_ChatError_ReturnsAccumulated(t *testing.T) {
	client := &llm.FakeClient{ChatWithToolsErr: llm.ErrUnavailable}
	d := newTestDispatcher(t)
	state := &models.GraphState{DomainID: "fidic"}

	result := Run(context.Background(), client, d, nil, "14.2", nil, state, 5, 0.1, nil)

	assert.Empty(t, result.Risks)
	assert.Empty(t, result.SkillContext)
}

func TestParseRisksTolerant_FencedBlock(t *testing.T) {
	text := "Here is my answer:\n```json\n[{\"id\":\"r1\",\"risk_level\":\"low\",\"risk_type\":\"x\",\"description\":\"d\"}]\n```"
	risks := parseRisksTolerant(text)
	require.Len(t, risks, 1)
	assert.Equal(t, "r1", risks[0].ID)
}

func TestParseRisksTolerant_Unparseable(t *testing.T) {
	assert.Nil(t, parseRisksTolerant("not json at all"))
	assert.Nil(t, parseRisksTolerant(""))
}
