package generic

import (
	"context"
	"fmt"
	"strings"

	"github.com/cosiris15/contract-review/pkg/document"
	"github.com/cosiris15/contract-review/pkg/llm"
	"github.com/cosiris15/contract-review/pkg/models"
	"github.com/cosiris15/contract-review/pkg/skills"
)

// BaselineLookup resolves the registered baseline text for a (domain,
// clause) pair, backed by pkg/plugins.Registry.BaselineText.
type BaselineLookup func(domainID, clauseID string) (string, bool)

// CompareWithBaselineOutput is the output of compare_with_baseline.
type CompareWithBaselineOutput struct {
	ClauseID           string `json:"clause_id"`
	HasBaseline        bool   `json:"has_baseline"`
	CurrentText        string `json:"current_text"`
	BaselineText       string `json:"baseline_text"`
	IsIdentical        bool   `json:"is_identical"`
	DifferencesSummary string `json:"differences_summary,omitempty"`
	SemanticSummary    string `json:"semantic_summary,omitempty"`
	LLMUsed            bool   `json:"llm_used"`
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// diffSummary is a byte-level, dependency-free stand-in for the source's
// unified-diff summary: it reports whether the baseline text is a prefix/
// suffix/substring of the current text or vice versa, which is enough to
// describe additions/removals for short clause texts without pulling in a
// diff library this pack never uses.
func diffSummary(baseline, current string) string {
	if strings.Contains(current, baseline) {
		extra := strings.TrimSpace(strings.Replace(current, baseline, "", 1))
		return fmt.Sprintf("text added: %s", truncate(extra, 200))
	}
	if strings.Contains(baseline, current) {
		removed := strings.TrimSpace(strings.Replace(baseline, current, "", 1))
		return fmt.Sprintf("text removed: %s", truncate(removed, 200))
	}
	return "clause text differs from baseline"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func compareWithBaselineHandler(client llm.Client, lookup BaselineLookup) skills.Handler {
	return func(ctx context.Context, in skills.Input) (any, error) {
		current := document.ClauseText(in.DocumentStructure, in.ClauseID)
		baseline := argString(in.Args, "baseline_text", "")

		if baseline == "" {
			return CompareWithBaselineOutput{ClauseID: in.ClauseID, HasBaseline: false, CurrentText: current}, nil
		}

		identical := normalizeWhitespace(current) == normalizeWhitespace(baseline)
		out := CompareWithBaselineOutput{
			ClauseID:     in.ClauseID,
			HasBaseline:  true,
			CurrentText:  current,
			BaselineText: baseline,
			IsIdentical:  identical,
		}
		if identical {
			return out, nil
		}
		out.DifferencesSummary = diffSummary(baseline, current)

		if client != nil {
			prompt := []llm.ConversationMessage{
				{Role: llm.RoleSystem, Content: "Summarize the legal significance of the change between baseline and current clause text in one sentence."},
				{Role: llm.RoleUser, Content: fmt.Sprintf("baseline:\n%s\n\ncurrent:\n%s\n\ndiff:\n%s", truncate(baseline, 2000), truncate(current, 2000), out.DifferencesSummary)},
			}
			if text, err := client.Chat(ctx, prompt, 0.2); err == nil && text != "" {
				out.SemanticSummary = text
				out.LLMUsed = true
			}
		}
		return out, nil
	}
}

// CompareWithBaselineRegistration builds the compare_with_baseline skill.
// client may be an llm.NullClient; the semantic_summary field is simply
// left empty in that case, per the error-handling taxonomy's "LLM errors
// never fatal" rule.
func CompareWithBaselineRegistration(client llm.Client, lookup BaselineLookup) skills.Registration {
	return skills.Registration{
		SkillID:     "compare_with_baseline",
		Name:        "Compare with baseline",
		Description: "Compares the clause's current text against the domain's registered baseline text",
		Domain:      "*",
		Category:    "comparison",
		Backend:     skills.BackendLocal,
		Status:      skills.StatusActive,
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"clause_id":          map[string]any{"type": "string"},
				"document_structure": map[string]any{"type": "object"},
				"baseline_text":      map[string]any{"type": "string"},
				"state_snapshot":     map[string]any{"type": "object"},
			},
			"required": []string{"clause_id"},
		},
		LocalHandler: compareWithBaselineHandler(client, lookup),
		PrepareInputFn: func(clauseID string, structure *models.DocumentStructure, state *models.GraphState) map[string]any {
			args := map[string]any{"clause_id": clauseID}
			if state != nil && lookup != nil {
				if text, ok := lookup(state.DomainID, clauseID); ok {
					args["baseline_text"] = text
				}
			}
			return args
		},
	}
}
