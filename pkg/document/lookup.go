// Package document implements parsing-adjacent lookups over a parsed
// DocumentStructure: clause-text resolution, cross-reference validity, and
// generic checklist generation.
package document

import (
	"strings"

	"github.com/cosiris15/contract-review/pkg/models"
)

// FindClauseNode walks the clause forest depth-first looking for clauseID.
//
// Open Question #2 from the source spec (preserved intentionally, see
// DESIGN.md): when no exact id match exists, a *prefix* match is accepted —
// "14.2" resolves against a node id'd "14.2.1" and vice versa. Some
// documents number sub-clauses more granularly than the checklist
// references them; treating this as a miss would silently drop clauses that
// a human reviewer would obviously locate. Callers that need strict
// equality should compare ClauseNode.ClauseID themselves.
func FindClauseNode(clauses []models.ClauseNode, clauseID string) (models.ClauseNode, bool) {
	for _, c := range clauses {
		if c.ClauseID == clauseID {
			return c, true
		}
		if len(c.Children) > 0 {
			if found, ok := FindClauseNode(c.Children, clauseID); ok {
				return found, true
			}
		}
		if c.ClauseID != "" && clauseID != "" &&
			(strings.HasPrefix(c.ClauseID, clauseID+".") || strings.HasPrefix(clauseID, c.ClauseID+".")) {
			return c, true
		}
	}
	return models.ClauseNode{}, false
}

// ClauseText returns the text of clauseID within structure, or "" if the
// structure is nil or the clause cannot be located even fuzzily.
func ClauseText(structure *models.DocumentStructure, clauseID string) string {
	if structure == nil {
		return ""
	}
	node, ok := FindClauseNode(structure.Clauses, clauseID)
	if !ok {
		return ""
	}
	return node.Text
}

// AllClauseIDs flattens the forest into an ordered slice of clause ids,
// depth-first, used for generic checklist generation and validity checks.
func AllClauseIDs(clauses []models.ClauseNode) []string {
	var out []string
	var walk func([]models.ClauseNode)
	walk = func(cs []models.ClauseNode) {
		for _, c := range cs {
			out = append(out, c.ClauseID)
			if len(c.Children) > 0 {
				walk(c.Children)
			}
		}
	}
	walk(clauses)
	return out
}

// ComputeCrossReferenceValidity sets IsValid on every reference in refs
// against the clause ids actually present in structure, per the invariant
// "a cross-reference is is_valid iff target_clause_id appears in the tree".
func ComputeCrossReferenceValidity(structure *models.DocumentStructure, refs []models.CrossReference) []models.CrossReference {
	if structure == nil {
		return refs
	}
	present := make(map[string]bool)
	for _, id := range AllClauseIDs(structure.Clauses) {
		present[id] = true
	}
	out := make([]models.CrossReference, len(refs))
	for i, r := range refs {
		r.IsValid = present[r.TargetClauseID]
		out[i] = r
	}
	return out
}

// GenerateGenericChecklist builds a one-item-per-clause checklist when no
// domain-specific one was supplied, per parse_document's fallback: every
// clause gets priority=medium and required_skills=[get_clause_context].
func GenerateGenericChecklist(structure *models.DocumentStructure) []models.ChecklistItem {
	if structure == nil {
		return nil
	}
	var items []models.ChecklistItem
	var walk func([]models.ClauseNode)
	walk = func(cs []models.ClauseNode) {
		for _, c := range cs {
			items = append(items, models.ChecklistItem{
				ClauseID:       c.ClauseID,
				ClauseName:     c.Title,
				Priority:       models.PriorityMedium,
				RequiredSkills: []string{"get_clause_context"},
			})
			if len(c.Children) > 0 {
				walk(c.Children)
			}
		}
	}
	walk(structure.Clauses)
	return items
}

// ClauseLevel computes the dotted-component depth of a clause_id, capped at
// maxDepth, per the clause tree's `level` invariant.
func ClauseLevel(clauseID string, maxDepth int) int {
	if clauseID == "" {
		return 0
	}
	level := len(strings.Split(clauseID, "."))
	if maxDepth > 0 && level > maxDepth {
		return maxDepth
	}
	return level
}
