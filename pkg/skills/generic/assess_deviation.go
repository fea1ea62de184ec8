package generic

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/cosiris15/contract-review/pkg/document"
	"github.com/cosiris15/contract-review/pkg/llm"
	"github.com/cosiris15/contract-review/pkg/models"
	"github.com/cosiris15/contract-review/pkg/skills"
)

var deviationLevels = map[string]bool{"none": true, "minor": true, "major": true, "critical": true, "unknown": true}
var deviationRiskLevels = map[string]bool{"low": true, "medium": true, "high": true, "critical": true, "unknown": true}

// DeviationItem is one criterion's assessed deviation.
type DeviationItem struct {
	CriterionID     string  `json:"criterion_id"`
	ReviewPoint     string  `json:"review_point,omitempty"`
	DeviationLevel  string  `json:"deviation_level"`
	RiskLevel       string  `json:"risk_level"`
	Rationale       string  `json:"rationale,omitempty"`
	SuggestedAction string  `json:"suggested_action,omitempty"`
	Confidence      float64 `json:"confidence"`
}

// AssessDeviationOutput is the output of assess_deviation.
type AssessDeviationOutput struct {
	ClauseID     string          `json:"clause_id"`
	Deviations   []DeviationItem `json:"deviations"`
	TotalAssessed int            `json:"total_assessed"`
	MajorCount   int             `json:"major_count"`
	HasCriteria  bool            `json:"has_criteria"`
	LLMUsed      bool            `json:"llm_used"`
}

func normalizeLevel(value string, allowed map[string]bool, def string) string {
	lowered := strings.ToLower(strings.TrimSpace(value))
	if allowed[lowered] {
		return lowered
	}
	return def
}

func clampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func matchCriteriaForClause(criteria []models.ReviewCriterion, clauseID string) []models.ReviewCriterion {
	current := strings.TrimSpace(clauseID)
	if current == "" {
		return nil
	}
	var matched []models.ReviewCriterion
	for _, row := range criteria {
		candidate := strings.TrimSpace(row.ClauseRef)
		if candidate == "" {
			continue
		}
		if candidate == current || strings.HasPrefix(current, candidate+".") || strings.HasPrefix(candidate, current+".") {
			matched = append(matched, row)
		}
	}
	return matched
}

var jsonArrayPattern = regexp.MustCompile(`(?s)\[.*\]`)
var fencedBlockPattern = regexp.MustCompile("(?is)```(?:json)?\\s*(.*?)```")

func extractJSONArray(raw string) []map[string]any {
	payload := strings.TrimSpace(raw)
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
		var parsed []map[string]any
		if err := json.Unmarshal([]byte(c), &parsed); err == nil {
			return parsed
		}
	}
	return nil
}

func fallbackAssessment(clauseID string, criteria []models.ReviewCriterion, reason string) AssessDeviationOutput {
	var deviations []DeviationItem
	for _, row := range criteria {
		deviations = append(deviations, DeviationItem{
			CriterionID:     row.CriterionID,
			ReviewPoint:     row.ReviewPoint,
			DeviationLevel:  "unknown",
			RiskLevel:       normalizeLevel(row.RiskLevel, deviationRiskLevels, "unknown"),
			Rationale:       reason,
			SuggestedAction: row.SuggestedAction,
		})
	}
	return AssessDeviationOutput{
		ClauseID:      clauseID,
		Deviations:    deviations,
		TotalAssessed: len(deviations),
		HasCriteria:   len(criteria) > 0,
		LLMUsed:       false,
	}
}

func assessDeviationHandler(client llm.Client) skills.Handler {
	return func(ctx context.Context, in skills.Input) (any, error) {
		criteriaRows := argMapSlice(in.Args, "review_criteria")
		var criteria []models.ReviewCriterion
		for _, row := range criteriaRows {
			criteria = append(criteria, models.ReviewCriterion{
				CriterionID:     mapString(row, "criterion_id"),
				ClauseRef:       mapString(row, "clause_ref"),
				ReviewPoint:     mapString(row, "review_point"),
				RiskLevel:       mapString(row, "risk_level"),
				BaselineText:    mapString(row, "baseline_text"),
				SuggestedAction: mapString(row, "suggested_action"),
			})
		}

		if len(criteria) == 0 {
			return AssessDeviationOutput{ClauseID: in.ClauseID, HasCriteria: false}, nil
		}

		clauseText := document.ClauseText(in.DocumentStructure, in.ClauseID)
		if strings.TrimSpace(clauseText) == "" {
			return fallbackAssessment(in.ClauseID, criteria, "clause text empty, cannot assess"), nil
		}
		if client == nil {
			return fallbackAssessment(in.ClauseID, criteria, "LLM client unavailable, deferred to manual review"), nil
		}

		prompt := buildAssessDeviationPrompt(in.ClauseID, clauseText, criteria)
		text, err := client.Chat(ctx, prompt, 0.1)
		if err != nil {
			return fallbackAssessment(in.ClauseID, criteria, "LLM call failed, deferred to manual review"), nil
		}
		parsedRows := extractJSONArray(text)
		if len(parsedRows) == 0 {
			return fallbackAssessment(in.ClauseID, criteria, "LLM returned no parseable JSON, deferred to manual review"), nil
		}

		byID := make(map[string]map[string]any, len(parsedRows))
		for _, row := range parsedRows {
			if id := mapString(row, "criterion_id"); id != "" {
				byID[id] = row
			}
		}

		var deviations []DeviationItem
		majorCount := 0
		for _, c := range criteria {
			parsed := byID[c.CriterionID]
			item := DeviationItem{
				CriterionID:     c.CriterionID,
				ReviewPoint:     firstNonEmpty(mapString(parsed, "review_point"), c.ReviewPoint),
				DeviationLevel:  normalizeLevel(mapString(parsed, "deviation_level"), deviationLevels, "unknown"),
				RiskLevel:       normalizeLevel(mapString(parsed, "risk_level"), deviationRiskLevels, normalizeLevel(c.RiskLevel, deviationRiskLevels, "unknown")),
				Rationale:       mapString(parsed, "rationale"),
				SuggestedAction: firstNonEmpty(mapString(parsed, "suggested_action"), c.SuggestedAction),
			}
			if v, ok := parsed["confidence"].(float64); ok {
				item.Confidence = clampConfidence(v)
			}
			if item.DeviationLevel == "major" || item.DeviationLevel == "critical" {
				majorCount++
			}
			deviations = append(deviations, item)
		}

		return AssessDeviationOutput{
			ClauseID:      in.ClauseID,
			Deviations:    deviations,
			TotalAssessed: len(deviations),
			MajorCount:    majorCount,
			HasCriteria:   true,
			LLMUsed:       true,
		}, nil
	}
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func buildAssessDeviationPrompt(clauseID, clauseText string, criteria []models.ReviewCriterion) []llm.ConversationMessage {
	var lines []string
	for _, c := range criteria {
		lines = append(lines, fmt.Sprintf("- criterion_id: %s\n  review_point: %s\n  risk_level: %s\n  baseline_text: %s", c.CriterionID, c.ReviewPoint, c.RiskLevel, c.BaselineText))
	}
	system := "You are a senior contract review lawyer. Assess the clause's deviation from each review criterion. " +
		"Output a JSON array only, each element with fields: criterion_id, review_point, deviation_level " +
		"(none|minor|major|critical|unknown), risk_level (low|medium|high|critical|unknown), rationale, " +
		"suggested_action, confidence (0-1)."
	user := fmt.Sprintf("clause_id: %s\nclause_text:\n%s\n\nreview_criteria:\n%s", clauseID, clauseText, strings.Join(lines, "\n"))
	return []llm.ConversationMessage{
		{Role: llm.RoleSystem, Content: system},
		{Role: llm.RoleUser, Content: user},
	}
}

// CriteriaLookup resolves the raw review-criteria rows loaded for a domain
// (typically parsed once from an uploaded spreadsheet and cached), so
// prepare_input can pre-match the criteria relevant to clauseID the same
// way original_source's state["criteria_data"] does.
type CriteriaLookup func(domainID string) []models.ReviewCriterion

func criteriaToArgs(rows []models.ReviewCriterion) []map[string]any {
	out := make([]map[string]any, 0, len(rows))
	for _, r := range rows {
		out = append(out, map[string]any{
			"criterion_id":     r.CriterionID,
			"clause_ref":       r.ClauseRef,
			"review_point":     r.ReviewPoint,
			"risk_level":       r.RiskLevel,
			"baseline_text":    r.BaselineText,
			"suggested_action": r.SuggestedAction,
		})
	}
	return out
}

// AssessDeviationRegistration builds the assess_deviation skill. criteria
// may be nil if no domain has review criteria loaded yet; the skill then
// always returns has_criteria=false.
func AssessDeviationRegistration(client llm.Client, criteria CriteriaLookup) skills.Registration {
	return skills.Registration{
		SkillID:     "assess_deviation",
		Name:        "Assess deviation",
		Description: "Assesses how far a clause deviates from matched review criteria",
		Domain:      "*",
		Category:    "analysis",
		Backend:     skills.BackendLocal,
		Status:      skills.StatusActive,
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"clause_id":       map[string]any{"type": "string"},
				"clause_text":     map[string]any{"type": "string"},
				"baseline_text":   map[string]any{"type": "string"},
				"review_criteria": map[string]any{"type": "array"},
				"domain_id":       map[string]any{"type": "string"},
			},
			"required": []string{"clause_id"},
		},
		LocalHandler: assessDeviationHandler(client),
		PrepareInputFn: func(clauseID string, structure *models.DocumentStructure, state *models.GraphState) map[string]any {
			args := map[string]any{"clause_id": clauseID}
			if state != nil {
				args["domain_id"] = state.DomainID
				if criteria != nil {
					matched := matchCriteriaForClause(criteria(state.DomainID), clauseID)
					args["review_criteria"] = criteriaToArgs(matched)
				}
			}
			return args
		},
	}
}
