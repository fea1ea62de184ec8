package graph

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/cosiris15/contract-review/pkg/models"
)

var jsonArrayPattern = regexp.MustCompile(`(?s)\[.*\]`)
var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)
var fencedBlockPattern = regexp.MustCompile("(?is)```(?:json)?\\s*(.*?)```")

func candidatesFor(text string) []string {
	payload := strings.TrimSpace(text)
	candidates := []string{payload}
	if m := fencedBlockPattern.FindStringSubmatch(payload); m != nil {
		candidates = append(candidates, strings.TrimSpace(m[1]))
	}
	return candidates
}

// parseRiskArrayTolerant is clause_analyze's legacy/fallback counterpart to
// the ReAct loop's parseRisksTolerant: same direct/fenced/bracket-matched
// parse order, kept as its own copy since react's helper is package-private.
func parseRiskArrayTolerant(text string) []models.Risk {
	candidates := candidatesFor(text)
	if m := jsonArrayPattern.FindString(text); m != "" {
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

// diffRow is the wire shape generate_diffs' LLM response uses for risk_id:
// the model refers to risks by position (0-based index into the risk array
// it was shown), not by the generated risk id, so this is unmarshaled
// separately from models.Diff and mapped via mapDiffRiskID.
type diffRow struct {
	RiskID       string         `json:"risk_id"`
	ActionType   string         `json:"action_type"`
	OriginalText string         `json:"original_text"`
	ProposedText string         `json:"proposed_text"`
	Reason       string         `json:"reason"`
	RiskLevel    string         `json:"risk_level"`
	Metadata     map[string]any `json:"metadata"`
}

func parseDiffRowsTolerant(text string) []diffRow {
	candidates := candidatesFor(text)
	if m := jsonArrayPattern.FindString(text); m != "" {
		candidates = append(candidates, m)
	}
	for _, c := range candidates {
		var rows []diffRow
		if err := json.Unmarshal([]byte(c), &rows); err == nil {
			return rows
		}
	}
	return nil
}

type validationRow struct {
	Result string `json:"result"`
}

// parseValidationResult parses clause_validate's {"result": "pass"|"fail"}
// response; ok is false when the text doesn't parse or names neither value,
// letting the caller keep its pass-by-default fallback.
func parseValidationResult(text string) (models.ValidationResult, bool) {
	candidates := candidatesFor(text)
	if m := jsonObjectPattern.FindString(text); m != "" {
		candidates = append(candidates, m)
	}
	for _, c := range candidates {
		var row validationRow
		if err := json.Unmarshal([]byte(c), &row); err != nil {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(row.Result)) {
		case "pass":
			return models.ValidationPass, true
		case "fail":
			return models.ValidationFail, true
		}
	}
	return "", false
}
