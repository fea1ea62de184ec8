// Package skills implements the typed skill registry and dispatcher: the
// mechanism by which deterministic Go handlers are exposed to the LLM as
// callable tools, grounded on original_source's
// skills/dispatcher.py and skills/tool_adapter.py, with the Go-side
// executor/registry shape borrowed from pkg/mcp/executor.go
// and pkg/mcp/router.go (ToolExecutor.Execute/ListTools, name handling).
package skills

import (
	"context"

	"github.com/cosiris15/contract-review/pkg/llm"
	"github.com/cosiris15/contract-review/pkg/models"
)

// Backend identifies where a skill actually executes.
type Backend string

const (
	BackendLocal Backend = "local"
	BackendRefly Backend = "refly"
)

// Status gates whether a skill is exposed as an LLM tool at all.
type Status string

const (
	StatusActive   Status = "active"
	StatusPreview  Status = "preview"
	StatusDisabled Status = "disabled"
)

// internalFields are stripped from both the JSON-schema `properties` and
// `required` arrays before a skill's input schema is projected into an
// LLM-facing tool definition, and are always filled in by the dispatcher
// rather than accepted from model output.
var internalFields = []string{
	"document_structure",
	"state_snapshot",
	"criteria_data",
	"criteria_file_path",
}

// IsInternalField reports whether name is one of the four fields a tool
// definition must never expose.
func IsInternalField(name string) bool {
	for _, f := range internalFields {
		if f == name {
			return true
		}
	}
	return false
}

// Input is what a skill handler actually receives: the LLM-visible
// arguments plus the four internal fields. The dispatcher sets
// DocumentStructure and StateSnapshot; it does not set CriteriaData or
// CriteriaFilePath.
type Input struct {
	ClauseID          string
	Args              map[string]any
	DocumentStructure *models.DocumentStructure
	StateSnapshot     *models.GraphState
	CriteriaData      map[string]any
	CriteriaFilePath  string
}

// Handler is a local skill's executable body.
type Handler func(ctx context.Context, in Input) (any, error)

// PrepareInputFn builds the default non-internal arguments for a skill from
// context alone, used when the LLM supplies no arguments (or none at all)
// for a field. It returns a plain map so prepare_and_call can merge
// LLM-supplied arguments over it field by field.
type PrepareInputFn func(clauseID string, structure *models.DocumentStructure, state *models.GraphState) map[string]any

// Registration describes one skill: its calling contract, its exposed JSON
// schema, and where it executes.
type Registration struct {
	SkillID          string
	Name             string
	Description      string
	InputSchema      map[string]any // the skill's own JSON-schema, internal fields included
	OutputSchema     map[string]any
	Backend          Backend
	LocalHandler     Handler
	ReflyWorkflowID  string
	Domain           string // "*" or a specific domain_id
	Category         string
	Status           Status
	PrepareInputFn   PrepareInputFn
}

// ParametersSchema projects InputSchema into the schema actually advertised
// to the LLM: a shallow copy of `properties`/`required` with the four
// internal fields removed. This is the single source of truth shared by
// validation and the tool definition (see DESIGN NOTES "Tool schemas").
func (r Registration) ParametersSchema() map[string]any {
	if r.InputSchema == nil {
		return map[string]any{"type": "object", "properties": map[string]any{}, "required": []string{}}
	}
	props := map[string]any{}
	if raw, ok := r.InputSchema["properties"].(map[string]any); ok {
		for k, v := range raw {
			if IsInternalField(k) {
				continue
			}
			props[k] = v
		}
	}
	var required []string
	if raw, ok := r.InputSchema["required"].([]string); ok {
		for _, k := range raw {
			if !IsInternalField(k) {
				required = append(required, k)
			}
		}
	}
	if required == nil {
		required = []string{}
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

// ToToolDefinition produces the OpenAI-style tool definition exposed to the
// ReAct loop's LLM calls.
func (r Registration) ToToolDefinition() llm.ToolDefinition {
	return llm.ToolDefinition{
		Type: "function",
		Function: llm.ToolFunctionSchema{
			Name:        r.SkillID,
			Description: r.Description,
			Parameters:  r.ParametersSchema(),
		},
	}
}

// Result is the uniform outcome of one skill invocation, regardless of
// backend.
type Result struct {
	SkillID         string `json:"skill_id"`
	Success         bool   `json:"success"`
	Data            any    `json:"data,omitempty"`
	Error           string `json:"error,omitempty"`
	ExecutionTimeMS int64  `json:"execution_time_ms"`
}
