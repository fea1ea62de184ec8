package generic

import (
	"context"

	"github.com/cosiris15/contract-review/pkg/models"
	"github.com/cosiris15/contract-review/pkg/skills"
)

// CrossReferenceEntry is one (target, text, validity) tuple surfaced by
// cross_reference_check.
type CrossReferenceEntry struct {
	TargetClauseID string `json:"target_clause_id"`
	ReferenceText  string `json:"reference_text"`
	IsValid        bool   `json:"is_valid"`
}

// CrossReferenceCheckOutput is the output of cross_reference_check,
// exercised by spec S7.
type CrossReferenceCheckOutput struct {
	ClauseID          string                 `json:"clause_id"`
	References        []CrossReferenceEntry  `json:"references"`
	InvalidReferences []CrossReferenceEntry  `json:"invalid_references"`
	TotalReferences   int                    `json:"total_references"`
	TotalInvalid      int                    `json:"total_invalid"`
}

func crossReferenceCheck(_ context.Context, in skills.Input) (any, error) {
	out := CrossReferenceCheckOutput{ClauseID: in.ClauseID}
	if in.DocumentStructure == nil {
		return out, nil
	}
	for _, ref := range in.DocumentStructure.CrossReferences {
		if ref.SourceClauseID != in.ClauseID {
			continue
		}
		entry := CrossReferenceEntry{
			TargetClauseID: ref.TargetClauseID,
			ReferenceText:  ref.ReferenceText,
			IsValid:        ref.IsValid,
		}
		out.References = append(out.References, entry)
		if !entry.IsValid {
			out.InvalidReferences = append(out.InvalidReferences, entry)
		}
	}
	out.TotalReferences = len(out.References)
	out.TotalInvalid = len(out.InvalidReferences)
	return out, nil
}

// CrossReferenceCheckRegistration builds the cross_reference_check skill.
func CrossReferenceCheckRegistration() skills.Registration {
	return skills.Registration{
		SkillID:     "cross_reference_check",
		Name:        "Cross-reference check",
		Description: "Validates that clause cross-references point at clauses that actually exist in the document",
		Domain:      "*",
		Category:    "validation",
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
		LocalHandler: crossReferenceCheck,
		PrepareInputFn: func(clauseID string, structure *models.DocumentStructure, state *models.GraphState) map[string]any {
			return map[string]any{"clause_id": clauseID}
		},
	}
}
