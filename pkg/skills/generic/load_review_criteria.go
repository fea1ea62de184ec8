package generic

import (
	"context"
	"regexp"
	"strings"

	"github.com/cosiris15/contract-review/pkg/document"
	"github.com/cosiris15/contract-review/pkg/models"
	"github.com/cosiris15/contract-review/pkg/skills"
)

// MatchedCriterion is one criterion row matched to the current clause.
type MatchedCriterion struct {
	CriterionID     string  `json:"criterion_id"`
	ClauseRef       string  `json:"clause_ref"`
	ReviewPoint     string  `json:"review_point"`
	RiskLevel       string  `json:"risk_level"`
	BaselineText    string  `json:"baseline_text"`
	SuggestedAction string  `json:"suggested_action"`
	MatchType       string  `json:"match_type"`
	MatchScore      float64 `json:"match_score"`
}

// LoadReviewCriteriaOutput is the output of load_review_criteria.
type LoadReviewCriteriaOutput struct {
	ClauseID       string             `json:"clause_id"`
	MatchedCriteria []MatchedCriterion `json:"matched_criteria"`
	TotalMatched   int                `json:"total_matched"`
	HasCriteria    bool               `json:"has_criteria"`
}

var clauseRefPrefixPattern = regexp.MustCompile(`(?i)^(?:sub-?clause|clause)\s*`)

func normalizeClauseRef(ref string) string {
	v := strings.TrimSpace(ref)
	v = clauseRefPrefixPattern.ReplaceAllString(v, "")
	return strings.TrimSuffix(strings.TrimSpace(v), ".")
}

func isExactClauseMatch(current, candidate string) bool {
	if current == "" || candidate == "" {
		return false
	}
	if current == candidate {
		return true
	}
	return strings.HasPrefix(current, candidate+".") || strings.HasPrefix(candidate, current+".")
}

// keywordOverlapScore is a dependency-free stand-in for the source's
// embedding-based semantic match (semantic_search._cosine_similarity):
// embeddings/vector search are out of scope for this core, so
// load_review_criteria falls back to word-overlap scoring when no exact
// clause_ref match is found, rather than wiring a vector store this core
// never otherwise needs.
func keywordOverlapScore(query, candidate string) float64 {
	qwords := wordSet(query)
	cwords := wordSet(candidate)
	if len(qwords) == 0 || len(cwords) == 0 {
		return 0
	}
	overlap := 0
	for w := range qwords {
		if cwords[w] {
			overlap++
		}
	}
	union := len(qwords) + len(cwords) - overlap
	if union == 0 {
		return 0
	}
	return float64(overlap) / float64(union)
}

func wordSet(s string) map[string]bool {
	out := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(s)) {
		if len(w) > 2 {
			out[w] = true
		}
	}
	return out
}

func loadReviewCriteria(_ context.Context, in skills.Input) (any, error) {
	rows := argMapSlice(in.Args, "review_criteria")
	var criteria []models.ReviewCriterion
	for _, row := range rows {
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
		return LoadReviewCriteriaOutput{ClauseID: in.ClauseID, HasCriteria: false}, nil
	}

	current := normalizeClauseRef(in.ClauseID)
	var matched []MatchedCriterion
	for _, row := range criteria {
		candidate := normalizeClauseRef(row.ClauseRef)
		if isExactClauseMatch(current, candidate) {
			matched = append(matched, MatchedCriterion{
				CriterionID: row.CriterionID, ClauseRef: row.ClauseRef, ReviewPoint: row.ReviewPoint,
				RiskLevel: row.RiskLevel, BaselineText: row.BaselineText, SuggestedAction: row.SuggestedAction,
				MatchType: "exact", MatchScore: 1.0,
			})
		}
	}
	if len(matched) > 0 {
		return LoadReviewCriteriaOutput{ClauseID: in.ClauseID, MatchedCriteria: matched, TotalMatched: len(matched), HasCriteria: true}, nil
	}

	query := document.ClauseText(in.DocumentStructure, in.ClauseID)
	if len(query) > 300 {
		query = query[:300]
	}
	if strings.TrimSpace(query) == "" {
		query = in.ClauseID
	}
	for _, row := range criteria {
		score := keywordOverlapScore(query, row.ReviewPoint)
		if score < 0.2 {
			continue
		}
		matched = append(matched, MatchedCriterion{
			CriterionID: row.CriterionID, ClauseRef: row.ClauseRef, ReviewPoint: row.ReviewPoint,
			RiskLevel: row.RiskLevel, BaselineText: row.BaselineText, SuggestedAction: row.SuggestedAction,
			MatchType: "keyword", MatchScore: score,
		})
		if len(matched) >= 3 {
			break
		}
	}

	return LoadReviewCriteriaOutput{ClauseID: in.ClauseID, MatchedCriteria: matched, TotalMatched: len(matched), HasCriteria: true}, nil
}

// LoadReviewCriteriaRegistration builds the load_review_criteria skill.
func LoadReviewCriteriaRegistration(criteria CriteriaLookup) skills.Registration {
	return skills.Registration{
		SkillID:     "load_review_criteria",
		Name:        "Load review criteria",
		Description: "Matches the domain's review criteria rows against the current clause",
		Domain:      "*",
		Category:    "extraction",
		Backend:     skills.BackendLocal,
		Status:      skills.StatusActive,
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"clause_id":          map[string]any{"type": "string"},
				"document_structure": map[string]any{"type": "object"},
				"criteria_file_path": map[string]any{"type": "string"},
				"criteria_data":      map[string]any{"type": "array"},
				"review_criteria":    map[string]any{"type": "array"},
			},
			"required": []string{"clause_id"},
		},
		LocalHandler: loadReviewCriteria,
		PrepareInputFn: func(clauseID string, structure *models.DocumentStructure, state *models.GraphState) map[string]any {
			args := map[string]any{"clause_id": clauseID}
			if state != nil && criteria != nil {
				args["review_criteria"] = criteriaToArgs(criteria(state.DomainID))
			}
			return args
		},
	}
}
