package generic

import (
	"context"

	"github.com/cosiris15/contract-review/pkg/document"
	"github.com/cosiris15/contract-review/pkg/models"
	"github.com/cosiris15/contract-review/pkg/skills"
)

// ClauseContextOutput is the output of get_clause_context, grounded on
// original_source's ClauseContextOutput.
type ClauseContextOutput struct {
	ClauseID    string `json:"clause_id"`
	Found       bool   `json:"found"`
	ContextText string `json:"context_text,omitempty"`
	Title       string `json:"title,omitempty"`
}

func getClauseContext(_ context.Context, in skills.Input) (any, error) {
	if in.DocumentStructure == nil {
		return ClauseContextOutput{ClauseID: in.ClauseID, Found: false}, nil
	}
	node, ok := document.FindClauseNode(in.DocumentStructure.Clauses, in.ClauseID)
	if !ok {
		return ClauseContextOutput{ClauseID: in.ClauseID, Found: false}, nil
	}
	return ClauseContextOutput{
		ClauseID:    in.ClauseID,
		Found:       true,
		ContextText: node.Text,
		Title:       node.Title,
	}, nil
}

// ClauseContextRegistration builds the get_clause_context skill
// registration.
func ClauseContextRegistration() skills.Registration {
	return skills.Registration{
		SkillID:     "get_clause_context",
		Name:        "Get clause context",
		Description: "Extracts the given clause's text from the document structure",
		Domain:      "*",
		Category:    "extraction",
		Backend:     skills.BackendLocal,
		Status:      skills.StatusActive,
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"clause_id":          map[string]any{"type": "string"},
				"document_structure": map[string]any{"type": "object"},
			},
			"required": []string{"clause_id"},
		},
		LocalHandler: getClauseContext,
		PrepareInputFn: func(clauseID string, structure *models.DocumentStructure, state *models.GraphState) map[string]any {
			return map[string]any{"clause_id": clauseID}
		},
	}
}
