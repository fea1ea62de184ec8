package models

// ClauseNode is one node of the clause forest parsed from a contract
// document. Children are nested inline, mirroring the source document's
// section hierarchy.
type ClauseNode struct {
	ClauseID    string       `json:"clause_id"`
	Title       string       `json:"title"`
	Level       int          `json:"level"`
	Text        string       `json:"text"`
	StartOffset int          `json:"start_offset"`
	EndOffset   int          `json:"end_offset"`
	Children    []ClauseNode `json:"children,omitempty"`
}

// ReferenceSource identifies how a cross-reference was discovered.
type ReferenceSource string

const (
	ReferenceSourceRegex ReferenceSource = "regex"
	ReferenceSourceLLM   ReferenceSource = "llm"
)

// CrossReference is a reference from one clause to another, e.g. "subject to
// Clause 14.2". Validity is computed against the parsed tree, not asserted
// by the extractor.
type CrossReference struct {
	SourceClauseID string          `json:"source_clause_id"`
	TargetClauseID string          `json:"target_clause_id"`
	ReferenceText  string          `json:"reference_text"`
	ReferenceType  string          `json:"reference_type"`
	IsValid        bool            `json:"is_valid"`
	Source         ReferenceSource `json:"source"`
	Confidence     float64         `json:"confidence"`
}

// DefinitionV2 is the richer defined-term record; Definitions keeps the
// plain term->text map for callers that only need the legacy shape.
type DefinitionV2 struct {
	Term       string   `json:"term"`
	Text       string   `json:"text"`
	Aliases    []string `json:"aliases,omitempty"`
	Category   string   `json:"category,omitempty"`
	Confidence float64  `json:"confidence"`
	Source     string   `json:"source"`
}

// ParserConfig controls how deep a clause_id's dotted-component depth can be
// before it is capped; see DocumentStructure.Level invariant.
type ParserConfig struct {
	MaxDepth int `json:"max_depth"`
}

// DocumentStructure is the parsed representation of one uploaded contract
// document, the "primary_structure" of graph state once it is the primary
// document.
type DocumentStructure struct {
	DocumentID      string           `json:"document_id"`
	StructureType   string           `json:"structure_type"`
	TotalClauses    int              `json:"total_clauses"`
	Clauses         []ClauseNode     `json:"clauses"`
	Definitions     map[string]string `json:"definitions,omitempty"`
	DefinitionsV2   []DefinitionV2   `json:"definitions_v2,omitempty"`
	CrossReferences []CrossReference `json:"cross_references,omitempty"`
	ParserConfig    ParserConfig     `json:"parser_config"`
}

// ChecklistPriority ranks how important a checklist item is to review.
type ChecklistPriority string

const (
	PriorityCritical ChecklistPriority = "critical"
	PriorityHigh     ChecklistPriority = "high"
	PriorityMedium   ChecklistPriority = "medium"
	PriorityLow      ChecklistPriority = "low"
)

// ChecklistItem is one entry of the review checklist, supplied by a domain
// plugin or generated generically from the clause tree.
type ChecklistItem struct {
	ClauseID      string            `json:"clause_id"`
	ClauseName    string            `json:"clause_name"`
	Priority      ChecklistPriority `json:"priority"`
	RequiredSkills []string         `json:"required_skills"`
	Description   string            `json:"description"`
}
