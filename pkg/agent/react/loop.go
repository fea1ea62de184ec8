// Package react implements the ReAct (reason + act) tool-augmented agent
// loop that drives clause_analyze's LLM branch. Grounded on
// original_source/.../graph/react_agent.py, with the parallel tool fan-out
// (the original executes tool calls sequentially) and the per-iteration
// logging style borrowed from pkg/agent/controller/react.go.
package react

import (
	"context"
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/cosiris15/contract-review/pkg/llm"
	"github.com/cosiris15/contract-review/pkg/models"
	"github.com/cosiris15/contract-review/pkg/skills"
)

// DefaultMaxIterations bounds the loop when the caller passes zero; actual
// values come from the react_max_iterations config knob, clamped to [1,8].
const DefaultMaxIterations = 5

// Result is what the loop contract returns: the risks parsed from the final
// assistant message, the accumulated skill outputs keyed by skill_id, and
// the full message transcript (for logging/debugging, not reused downstream).
type Result struct {
	Risks        []models.Risk
	SkillContext map[string]any
	Messages     []llm.ConversationMessage
}

var jsonArrayPattern = regexp.MustCompile(`(?s)\[.*\]`)
var fencedBlockPattern = regexp.MustCompile("(?is)```(?:json)?\\s*(.*?)```")

// parseRisksTolerant parses text as a JSON array of risks, trying a direct
// parse, then a fenced code block, then the first bracket-matched
// substring; returns nil (not an error) if none parse, staying tolerant of
// malformed JSON from the model.
func parseRisksTolerant(text string) []models.Risk {
	payload := strings.TrimSpace(text)
	if payload == "" {
		return nil
	}
	candidates := []string{payload}
	if m := fencedBlockPattern.FindStringSubmatch(payload); m != nil {
		candidates = append(candidates, strings.TrimSpace(m[1]))
	}
	if m := jsonArrayPattern.FindString(payload); m != "" {
		candidates = append(candidates, m)
	}
	for _, c := range candidates {
		var risks []models.Risk
		if err := json.Unmarshal([]byte(c), &risks); err == nil {
			return risks
		}
	}
	return nil
}

// toolCallArgs parses a tool call's raw Arguments string as a JSON object,
// returning an empty map if it is unparseable — the model is free to emit
// malformed JSON and the loop must not fail the whole iteration over it.
func toolCallArgs(raw string) map[string]any {
	out := map[string]any{}
	if strings.TrimSpace(raw) == "" {
		return out
	}
	_ = json.Unmarshal([]byte(raw), &out)
	return out
}

func truncateJSON(v any, limit int) string {
	b, err := json.Marshal(v)
	if err != nil {
		return `{"error":"result not serializable"}`
	}
	s := string(b)
	if len(s) > limit {
		return s[:limit]
	}
	return s
}

func errorToolMessage(reason string) string {
	b, _ := json.Marshal(map[string]string{"error": reason})
	return string(b)
}

// Run executes the ReAct iteration loop: builds the
// domain-filtered tool list, then alternates chat_with_tools calls with
// parallel tool execution until the model returns a final answer or
// maxIterations is exhausted.
func Run(
	ctx context.Context,
	client llm.Client,
	dispatcher *skills.Dispatcher,
	messages []llm.ConversationMessage,
	clauseID string,
	structure *models.DocumentStructure,
	state *models.GraphState,
	maxIterations int,
	temperature float64,
	logger *slog.Logger,
) Result {
	if logger == nil {
		logger = slog.Default()
	}
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	if maxIterations > 8 {
		maxIterations = 8
	}

	domainID := ""
	if state != nil {
		domainID = state.DomainID
	}
	tools := buildToolDefinitions(dispatcher, domainID)
	skillContext := map[string]any{}

	for iteration := 1; iteration <= maxIterations; iteration++ {
		start := time.Now()

		text, toolCalls, err := client.ChatWithTools(ctx, messages, tools, temperature)
		if err != nil {
			logger.Warn("react: chat_with_tools failed, returning accumulated state",
				"clause_id", clauseID, "iteration", iteration, "error", err)
			return Result{SkillContext: skillContext, Messages: messages}
		}

		if len(toolCalls) == 0 {
			messages = append(messages, llm.ConversationMessage{Role: llm.RoleAssistant, Content: text})
			elapsed := time.Since(start).Milliseconds()
			logger.Info("react: iteration complete", "clause_id", clauseID, "iteration", iteration,
				"tools_called", 0, "elapsed_ms", elapsed)
			return Result{
				Risks:        parseRisksTolerant(text),
				SkillContext: skillContext,
				Messages:     messages,
			}
		}

		messages = append(messages, llm.ConversationMessage{
			Role:      llm.RoleAssistant,
			Content:   text,
			ToolCalls: toolCalls,
		})

		toolMessages := executeToolCallsParallel(ctx, dispatcher, toolCalls, clauseID, structure, state, skillContext)
		messages = append(messages, toolMessages...)

		elapsed := time.Since(start).Milliseconds()
		logger.Info("react: iteration complete", "clause_id", clauseID, "iteration", iteration,
			"tools_called", len(toolCalls), "elapsed_ms", elapsed)
	}

	logger.Warn("react: max iterations reached, forcing end", "clause_id", clauseID, "max_iterations", maxIterations)
	return Result{SkillContext: skillContext, Messages: messages}
}

// buildToolDefinitions filters dispatcher's registrations to domainID
// (generic "*" skills always included) and status=active, projecting each
// into an LLM-facing tool definition with the four internal fields
// already stripped (skills.Registration.ToToolDefinition).
func buildToolDefinitions(dispatcher *skills.Dispatcher, domainID string) []llm.ToolDefinition {
	regs := dispatcher.ToolsForDomain(domainID)
	out := make([]llm.ToolDefinition, 0, len(regs))
	for _, r := range regs {
		out = append(out, r.ToToolDefinition())
	}
	return out
}

// executeToolCallsParallel runs every tool call of one iteration
// concurrently: an independent failure neither cancels its siblings
// nor aborts the iteration, surfacing instead as a single `{"error":...}`
// tool-role message for that call. skillContext is mutated in place,
// guarded by a mutex since writes race across goroutines.
func executeToolCallsParallel(
	ctx context.Context,
	dispatcher *skills.Dispatcher,
	toolCalls []llm.ToolCall,
	defaultClauseID string,
	structure *models.DocumentStructure,
	state *models.GraphState,
	skillContext map[string]any,
) []llm.ConversationMessage {
	results := make([]llm.ConversationMessage, len(toolCalls))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i, tc := range toolCalls {
		wg.Add(1)
		go func(idx int, call llm.ToolCall) {
			defer wg.Done()

			args := toolCallArgs(call.Arguments)
			clauseID := defaultClauseID
			if v, ok := args["clause_id"].(string); ok && v != "" {
				clauseID = v
			}

			res := dispatcher.PrepareAndCall(ctx, call.Name, clauseID, structure, state, args)

			var content string
			if res.Success {
				mu.Lock()
				skillContext[call.Name] = res.Data
				mu.Unlock()
				content = truncateJSON(res.Data, 3000)
			} else {
				content = errorToolMessage(res.Error)
			}

			results[idx] = llm.ConversationMessage{
				Role:       llm.RoleTool,
				Content:    content,
				ToolCallID: call.ID,
				ToolName:   call.Name,
			}
		}(i, tc)
	}

	wg.Wait()
	return results
}
