package generic

import (
	"context"
	"regexp"
	"strings"

	"github.com/cosiris15/contract-review/pkg/document"
	"github.com/cosiris15/contract-review/pkg/models"
	"github.com/cosiris15/contract-review/pkg/skills"
)

// FinancialTerm is one matched monetary/duration/date term.
type FinancialTerm struct {
	TermType string `json:"term_type"`
	Value    string `json:"value"`
	Context  string `json:"context"`
}

// ExtractFinancialTermsOutput is the output of extract_financial_terms.
type ExtractFinancialTermsOutput struct {
	ClauseID   string           `json:"clause_id"`
	Terms      []FinancialTerm  `json:"terms"`
	TotalTerms int              `json:"total_terms"`
}

type financialPattern struct {
	re       *regexp.Regexp
	termType string
}

var financialPatterns = []financialPattern{
	{regexp.MustCompile(`\d+(?:\.\d+)?\s*%`), "percentage"},
	{regexp.MustCompile(`(?i)(?:USD|EUR|CNY|GBP|\$|€|£)\s*[\d,]+(?:\.\d+)?`), "amount"},
	{regexp.MustCompile(`\d+\s*(?:days?|months?|years?|weeks?)`), "duration"},
	{regexp.MustCompile(`\d{4}[-/]\d{1,2}[-/]\d{1,2}`), "date"},
}

func extractFinancialTerms(_ context.Context, in skills.Input) (any, error) {
	text := document.ClauseText(in.DocumentStructure, in.ClauseID)

	var terms []FinancialTerm
	for _, p := range financialPatterns {
		for _, loc := range p.re.FindAllStringIndex(text, -1) {
			start, end := loc[0], loc[1]
			ctxStart := max(0, start-30)
			ctxEnd := min(len(text), end+30)
			terms = append(terms, FinancialTerm{
				TermType: p.termType,
				Value:    strings.TrimSpace(text[start:end]),
				Context:  strings.TrimSpace(text[ctxStart:ctxEnd]),
			})
		}
	}

	return ExtractFinancialTermsOutput{
		ClauseID:   in.ClauseID,
		Terms:      terms,
		TotalTerms: len(terms),
	}, nil
}

// ExtractFinancialTermsRegistration builds the extract_financial_terms skill.
func ExtractFinancialTermsRegistration() skills.Registration {
	return skills.Registration{
		SkillID:     "extract_financial_terms",
		Name:        "Extract financial terms",
		Description: "Extracts monetary amounts, percentages, durations and dates from a clause's text",
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
		LocalHandler: extractFinancialTerms,
		PrepareInputFn: func(clauseID string, structure *models.DocumentStructure, state *models.GraphState) map[string]any {
			return map[string]any{"clause_id": clauseID}
		},
	}
}
