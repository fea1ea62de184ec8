package plugins

import "github.com/cosiris15/contract-review/pkg/models"

// NewFIDICPlugin returns the thin FIDIC (construction contracts) domain
// plugin. Its analytical content is explicitly out of scope; this
// registers only the checklist/skill-catalog shape,
// supplementing spec.md per original_source's plugins/fidic.py.
func NewFIDICPlugin() Plugin {
	return Plugin{
		DomainID:          "fidic",
		Name:              "FIDIC Construction Contracts",
		Description:       "Red Book / Yellow Book style construction contract review",
		SupportedSubtypes: []string{"red_book", "yellow_book"},
		ReviewChecklist: []models.ChecklistItem{
			{ClauseID: "4.1", ClauseName: "Contractor's General Obligations", Priority: models.PriorityHigh, RequiredSkills: []string{"get_clause_context", "cross_reference_check"}},
			{ClauseID: "8.4", ClauseName: "Extension of Time for Completion", Priority: models.PriorityCritical, RequiredSkills: []string{"get_clause_context", "extract_financial_terms"}},
			{ClauseID: "20.1", ClauseName: "Contractor's Claims", Priority: models.PriorityCritical, RequiredSkills: []string{"get_clause_context", "compare_with_baseline"}},
		},
		ParserConfig: ParserConfig{MaxDepth: 4},
	}
}
