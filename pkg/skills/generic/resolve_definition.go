package generic

import (
	"context"
	"regexp"
	"strings"

	"github.com/cosiris15/contract-review/pkg/document"
	"github.com/cosiris15/contract-review/pkg/models"
	"github.com/cosiris15/contract-review/pkg/skills"
)

// ResolveDefinitionOutput is the output of resolve_definition, grounded on
// original_source's ResolveDefinitionOutput.
type ResolveDefinitionOutput struct {
	ClauseID        string            `json:"clause_id"`
	DefinitionsFound map[string]string `json:"definitions_found"`
	TermsNotFound    []string          `json:"terms_not_found"`
}

var quotedTermPattern = regexp.MustCompile(`"([^"]+)"|'([^']+)'|\x{201c}([^\x{201d}]+)\x{201d}`)

func normalizeTerm(term string) string {
	v := strings.Trim(strings.TrimSpace(term), `"'`)
	v = strings.ReplaceAll(v, "“", "")
	v = strings.ReplaceAll(v, "”", "")
	return strings.ToLower(v)
}

func extractQuotedTerms(text string) []string {
	matches := quotedTermPattern.FindAllStringSubmatch(text, -1)
	seen := make(map[string]bool)
	var out []string
	for _, m := range matches {
		var term string
		for _, g := range m[1:] {
			if g != "" {
				term = strings.TrimSpace(g)
				break
			}
		}
		if term == "" {
			continue
		}
		key := normalizeTerm(term)
		if key != "" && !seen[key] {
			seen[key] = true
			out = append(out, term)
		}
	}
	return out
}

func findTerm(term string, definitions map[string]string) (string, bool) {
	if v, ok := definitions[term]; ok {
		return v, true
	}
	target := normalizeTerm(term)
	for k, v := range definitions {
		if normalizeTerm(k) == target {
			return v, true
		}
	}
	return "", false
}

func resolveDefinition(_ context.Context, in skills.Input) (any, error) {
	var definitions map[string]string
	if in.DocumentStructure != nil {
		definitions = in.DocumentStructure.Definitions
	}

	terms := argStringSlice(in.Args, "terms")
	if len(terms) == 0 {
		text := document.ClauseText(in.DocumentStructure, in.ClauseID)
		terms = extractQuotedTerms(text)
	}

	found := make(map[string]string)
	var notFound []string
	for _, term := range terms {
		if v, ok := findTerm(term, definitions); ok {
			found[term] = v
		} else {
			notFound = append(notFound, term)
		}
	}

	return ResolveDefinitionOutput{
		ClauseID:         in.ClauseID,
		DefinitionsFound: found,
		TermsNotFound:    notFound,
	}, nil
}

// ResolveDefinitionRegistration builds the resolve_definition skill.
func ResolveDefinitionRegistration() skills.Registration {
	return skills.Registration{
		SkillID:     "resolve_definition",
		Name:        "Resolve definition",
		Description: "Resolves defined terms referenced by a clause against the document's definitions table",
		Domain:      "*",
		Category:    "extraction",
		Backend:     skills.BackendLocal,
		Status:      skills.StatusActive,
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"clause_id":          map[string]any{"type": "string"},
				"document_structure": map[string]any{"type": "object"},
				"terms":              map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			},
			"required": []string{"clause_id"},
		},
		LocalHandler: resolveDefinition,
		PrepareInputFn: func(clauseID string, structure *models.DocumentStructure, state *models.GraphState) map[string]any {
			return map[string]any{"clause_id": clauseID}
		},
	}
}
