// Package llm defines the narrow interface the core consumes to talk to a
// language model, plus two implementations that require no external network
// or code generation: NullClient (drives the deterministic-fallback path)
// and FakeClient (a scriptable test double).
//
// The teacher's pkg/llm/client.go and pkg/agent/llm_grpc.go both talk to a
// generated grpc stub (github.com/codeready-toolchain/tarsy/proto) that is
// not present in this copy and cannot be regenerated without protoc — see
// DESIGN.md. The shape of the interface below is grounded on those files'
// ConversationMessage/ToolDefinition/ToolCall types and on original_source's
// llm_client.py chat/chat_with_tools pair.
package llm

import (
	"context"
	"errors"
)

// ErrUnavailable is returned by NullClient for every call, and by any real
// client implementation when the underlying transport is down. Callers
// (clause_analyze, the planner, summarize) must treat it as non-fatal.
var ErrUnavailable = errors.New("llm: client unavailable")

// Conversation message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ConversationMessage is one turn of a chat transcript.
type ConversationMessage struct {
	Role       string
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
	ToolName   string
}

// ToolFunctionSchema carries the function name/description/parameters of a
// ToolDefinition, matching the OpenAI-style {type:"function", function:{...}}
// envelope used throughout the pack.
type ToolFunctionSchema struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// ToolDefinition is the LLM-facing projection of a registered skill,
// produced by pkg/skills's schema projection.
type ToolDefinition struct {
	Type     string             `json:"type"`
	Function ToolFunctionSchema `json:"function"`
}

// ToolCall is a model-requested invocation of a tool, with arguments as a
// raw JSON string (the model is free to emit malformed JSON; callers parse
// tolerantly).
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// Client is the interface the core depends on. Chat is used by the planner
// and summarize node (no tools); ChatWithTools drives the ReAct loop.
type Client interface {
	Chat(ctx context.Context, messages []ConversationMessage, temperature float64) (string, error)
	ChatWithTools(ctx context.Context, messages []ConversationMessage, tools []ToolDefinition, temperature float64) (text string, toolCalls []ToolCall, err error)
}

// NullClient always fails with ErrUnavailable. Wiring it as the active
// Client is how the "disabled LLM" execution mode is expressed:
// every component downstream already degrades gracefully on ErrUnavailable,
// so no special-casing is needed elsewhere.
type NullClient struct{}

var _ Client = NullClient{}

func (NullClient) Chat(ctx context.Context, messages []ConversationMessage, temperature float64) (string, error) {
	return "", ErrUnavailable
}

func (NullClient) ChatWithTools(ctx context.Context, messages []ConversationMessage, tools []ToolDefinition, temperature float64) (string, []ToolCall, error) {
	return "", nil, ErrUnavailable
}
