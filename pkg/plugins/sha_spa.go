package plugins

import "github.com/cosiris15/contract-review/pkg/models"

// NewSHASPAPlugin returns the thin SHA/SPA (shareholder/share purchase
// agreement) domain plugin, supplementing spec.md per original_source's
// plugins/sha_spa.py. Analytical content is out of scope; only the
// registration shape is implemented.
func NewSHASPAPlugin() Plugin {
	return Plugin{
		DomainID:          "sha_spa",
		Name:              "Shareholder & Share Purchase Agreements",
		Description:       "SHA/SPA clause review: conditions precedent, reps & warranties, indemnities",
		SupportedSubtypes: []string{"sha", "spa"},
		ReviewChecklist: []models.ChecklistItem{
			{ClauseID: "3.1", ClauseName: "Conditions Precedent", Priority: models.PriorityHigh, RequiredSkills: []string{"get_clause_context"}},
			{ClauseID: "6.2", ClauseName: "Representations and Warranties", Priority: models.PriorityCritical, RequiredSkills: []string{"get_clause_context", "assess_deviation"}},
			{ClauseID: "9.3", ClauseName: "Indemnification", Priority: models.PriorityCritical, RequiredSkills: []string{"get_clause_context", "extract_financial_terms"}},
		},
		ParserConfig: ParserConfig{MaxDepth: 3},
	}
}
