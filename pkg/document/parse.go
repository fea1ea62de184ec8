package document

import (
	"regexp"
	"strings"

	"github.com/cosiris15/contract-review/pkg/models"
)

// clauseHeadingPattern matches a line starting a numbered clause, e.g.
// "14.2 Limitation of Liability", grounded on original_source's
// smart_parser.py FALLBACK_PATTERNS generic_numbered entry
// (`^\d+(?:\.\d+)*\s+`). The core only ever needs this one fallback
// pattern: LLM-assisted pattern *detection* for exotic numbering schemes
// (smart_parser.py's detect_clause_pattern) is out of scope per the
// Non-goals — everything upstream of the graph engine's parse_document node
// is an external collaborator.
var clauseHeadingPattern = regexp.MustCompile(`^(\d+(?:\.\d+)*)\s+(.*)$`)

// crossRefPattern matches "Clause 14.2" / "clause 99" style references,
// grounded on original_source's cross_reference_patterns.py en_clause entry.
var crossRefPattern = regexp.MustCompile(`(?i)clause\s+(\d+(?:\.\d+)*)`)

// ParseText splits plain contract text into a flat clause forest using the
// generic numbered-heading heuristic, matching the shape smart_parser.py
// falls back to when no LLM pattern detection is configured. Each clause's
// own text runs from its heading to the next heading (or EOF); cross
// references within that text are extracted and validity-checked against
// the resulting clause set.
func ParseText(documentID, text string, cfg models.ParserConfig) *models.DocumentStructure {
	lines := strings.Split(text, "\n")

	type heading struct {
		clauseID string
		title    string
		line     int
	}
	var headings []heading
	for i, line := range lines {
		if m := clauseHeadingPattern.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			headings = append(headings, heading{clauseID: m[1], title: strings.TrimSpace(m[2]), line: i})
		}
	}

	clauses := make([]models.ClauseNode, 0, len(headings))
	var allRefs []models.CrossReference
	for i, h := range headings {
		end := len(lines)
		if i+1 < len(headings) {
			end = headings[i+1].line
		}
		body := strings.TrimSpace(strings.Join(lines[h.line+1:end], "\n"))

		node := models.ClauseNode{
			ClauseID: h.clauseID,
			Title:    h.title,
			Level:    ClauseLevel(h.clauseID, cfg.MaxDepth),
			Text:     body,
		}
		clauses = append(clauses, node)

		for _, m := range crossRefPattern.FindAllStringSubmatch(body, -1) {
			allRefs = append(allRefs, models.CrossReference{
				SourceClauseID: h.clauseID,
				TargetClauseID: m[1],
				ReferenceText:  m[0],
				ReferenceType:  "clause",
				Source:         models.ReferenceSourceRegex,
				Confidence:     1.0,
			})
		}
	}

	structure := &models.DocumentStructure{
		DocumentID:    documentID,
		StructureType: "generic_numbered",
		TotalClauses:  len(clauses),
		Clauses:       clauses,
		ParserConfig:  cfg,
	}
	structure.CrossReferences = ComputeCrossReferenceValidity(structure, allRefs)
	return structure
}
