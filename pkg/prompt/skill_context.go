package prompt

import (
	"encoding/json"
	"fmt"
	"strings"
)

func asMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func mapGetString(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func mapGetBool(m map[string]any, key string) bool {
	if m == nil {
		return false
	}
	v, _ := m[key].(bool)
	return v
}

func mapGetFloat(m map[string]any, key string) float64 {
	if m == nil {
		return 0
	}
	v, _ := m[key].(float64)
	return v
}

func mapGetSlice(m map[string]any, key string) []any {
	if m == nil {
		return nil
	}
	v, _ := m[key].([]any)
	return v
}

// formatSkillContext renders the ReAct/legacy skill outputs into the
// LLM-readable text blocks appended to clause_analyze's user message.
// get_clause_context is skipped (it only orients the other skills, it is
// not itself a finding); load_review_criteria and assess_deviation get
// bespoke formatting since their structure carries specific review
// semantics, everything else is dumped as a generic labeled JSON/text block.
func formatSkillContext(skillContext map[string]any) string {
	var parts []string
	for skillID, data := range skillContext {
		switch skillID {
		case "get_clause_context":
			continue
		case "load_review_criteria":
			if block := formatLoadReviewCriteria(data); block != "" {
				parts = append(parts, block)
			}
			continue
		case "assess_deviation":
			if block := formatAssessDeviation(data); block != "" {
				parts = append(parts, block)
			}
			continue
		}
		if m, ok := asMap(data); ok {
			b, _ := json.MarshalIndent(m, "", "  ")
			parts = append(parts, fmt.Sprintf("[%s]\n%s", skillID, b))
			continue
		}
		if s, ok := data.(string); ok {
			parts = append(parts, fmt.Sprintf("[%s]\n%s", skillID, s))
			continue
		}
		parts = append(parts, fmt.Sprintf("[%s]\n%v", skillID, data))
	}
	return strings.Join(parts, "\n\n")
}

func formatLoadReviewCriteria(data any) string {
	m, ok := asMap(data)
	if !ok || !mapGetBool(m, "has_criteria") {
		return ""
	}
	criteria := mapGetSlice(m, "matched_criteria")
	if len(criteria) == 0 {
		return "[Review criteria] No review points matched this clause."
	}
	lines := []string{"[Review criteria] Review points matched to this clause:"}
	for _, raw := range criteria {
		row, ok := asMap(raw)
		if !ok {
			continue
		}
		lines = append(lines, fmt.Sprintf("- [%s] %s", mapGetString(row, "risk_level"), mapGetString(row, "review_point")))
		if b := mapGetString(row, "baseline_text"); b != "" {
			lines = append(lines, fmt.Sprintf("  baseline: %s", b))
		}
		if a := mapGetString(row, "suggested_action"); a != "" {
			lines = append(lines, fmt.Sprintf("  suggested action: %s", a))
		}
		lines = append(lines, fmt.Sprintf("  match: %s (%.2f)", mapGetString(row, "match_type"), mapGetFloat(row, "match_score")))
	}
	return strings.Join(lines, "\n")
}

func formatAssessDeviation(data any) string {
	m, ok := asMap(data)
	if !ok {
		return ""
	}
	deviations := mapGetSlice(m, "deviations")
	if len(deviations) == 0 {
		return ""
	}
	lines := []string{"[Deviation assessment] Deviation scored against review criteria:"}
	for _, raw := range deviations {
		row, ok := asMap(raw)
		if !ok {
			continue
		}
		level := mapGetString(row, "deviation_level")
		if level == "" {
			level = "unknown"
		}
		risk := mapGetString(row, "risk_level")
		if risk == "" {
			risk = "unknown"
		}
		lines = append(lines, fmt.Sprintf("- [%s] deviation=%s risk=%s", mapGetString(row, "criterion_id"), level, risk))
		if r := mapGetString(row, "rationale"); r != "" {
			lines = append(lines, fmt.Sprintf("  rationale: %s", r))
		}
		if a := mapGetString(row, "suggested_action"); a != "" {
			lines = append(lines, fmt.Sprintf("  suggested action: %s", a))
		}
	}
	return strings.Join(lines, "\n")
}
