package generic

import (
	"context"
	"sort"

	"github.com/cosiris15/contract-review/pkg/document"
	"github.com/cosiris15/contract-review/pkg/models"
	"github.com/cosiris15/contract-review/pkg/skills"
)

// ReferenceMatch is one candidate clause from a secondary ("reference")
// document judged similar to the query clause.
type ReferenceMatch struct {
	ClauseID string  `json:"clause_id"`
	Title    string  `json:"title,omitempty"`
	Score    float64 `json:"score"`
}

// SearchReferenceDocOutput is the output of search_reference_doc.
type SearchReferenceDocOutput struct {
	ClauseID string            `json:"clause_id"`
	Query    string            `json:"query"`
	Matches  []ReferenceMatch  `json:"matches"`
}

// searchReferenceDoc performs keyword-overlap ranking against every clause
// of a reference document. Embedding-based semantic search is an external
// collaborator out of scope here (real vector search belongs to a
// retrieval service this core does not own); this
// keeps the skill's contract (ranked matches) while depending on nothing
// beyond the document model already in this package.
func searchReferenceDoc(referenceDoc func(docID string) *models.DocumentStructure) skills.Handler {
	return func(_ context.Context, in skills.Input) (any, error) {
		query := argString(in.Args, "query", "")
		if query == "" {
			query = document.ClauseText(in.DocumentStructure, in.ClauseID)
		}
		docID := argString(in.Args, "reference_document_id", "")
		var structure *models.DocumentStructure
		if referenceDoc != nil {
			structure = referenceDoc(docID)
		}
		out := SearchReferenceDocOutput{ClauseID: in.ClauseID, Query: query}
		if structure == nil {
			return out, nil
		}

		var candidates []ReferenceMatch
		var walk func([]models.ClauseNode)
		walk = func(cs []models.ClauseNode) {
			for _, c := range cs {
				score := keywordOverlapScore(query, c.Text)
				if score > 0 {
					candidates = append(candidates, ReferenceMatch{ClauseID: c.ClauseID, Title: c.Title, Score: score})
				}
				if len(c.Children) > 0 {
					walk(c.Children)
				}
			}
		}
		walk(structure.Clauses)
		sort.Slice(candidates, func(i, j int) bool { return candidates[i].Score > candidates[j].Score })
		if len(candidates) > 5 {
			candidates = candidates[:5]
		}
		out.Matches = candidates
		return out, nil
	}
}

// SearchReferenceDocRegistration builds the search_reference_doc skill.
// referenceDoc resolves a reference document by id; it may be nil if no
// reference documents are attached to the task.
func SearchReferenceDocRegistration(referenceDoc func(docID string) *models.DocumentStructure) skills.Registration {
	return skills.Registration{
		SkillID:     "search_reference_doc",
		Name:        "Search reference document",
		Description: "Finds clauses of an attached reference document similar to the current clause",
		Domain:      "*",
		Category:    "search",
		Backend:     skills.BackendLocal,
		Status:      skills.StatusActive,
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"clause_id":              map[string]any{"type": "string"},
				"document_structure":     map[string]any{"type": "object"},
				"query":                  map[string]any{"type": "string"},
				"reference_document_id":  map[string]any{"type": "string"},
			},
			"required": []string{"clause_id"},
		},
		LocalHandler: searchReferenceDoc(referenceDoc),
		PrepareInputFn: func(clauseID string, structure *models.DocumentStructure, state *models.GraphState) map[string]any {
			return map[string]any{"clause_id": clauseID}
		},
	}
}
