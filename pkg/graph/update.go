// Package graph implements the checkpointed review-graph engine: the fixed
// node set, its conditional routing, the interrupt-before-human_approval
// pause/resume contract, and the per-node algorithms.
// Grounded on original_source/.../graph/builder.py, translated from
// LangGraph's dict-reducer state machine into an explicit Engine that steps
// a fixed node table and merges each node's partial Update into the
// checkpointed models.GraphState.
package graph

import "github.com/cosiris15/contract-review/pkg/models"

// Update is a node's partial state change. Every field is optional (nil/zero
// means "leave unchanged"); slice/map fields with replace semantics carry a
// full replacement value, and AppendRisks/AppendDiffs are appended to
// AllRisks/AllDiffs, matching the source's list.extend() usage in node_save_clause.
// This is the Go expression of "nodes return partial updates that the engine
// merges" from models.GraphState's doc comment.
type Update struct {
	PrimaryStructure    *models.DocumentStructure
	ReviewChecklistSet  bool
	ReviewChecklist     []models.ChecklistItem
	ReviewPlan          *models.ReviewPlan
	PlanVersion         *int

	CurrentClauseIndex *int
	CurrentClauseID    *string
	CurrentClauseText  *string

	CurrentRisksSet     bool
	CurrentRisks        []models.Risk
	CurrentDiffsSet     bool
	CurrentDiffs        []models.Diff
	CurrentSkillContext map[string]any

	ValidationResult *models.ValidationResult
	ClauseRetryCount *int
	MaxRetries       *int

	PendingDiffsSet bool
	PendingDiffs    []models.Diff
	UserDecisions   map[string]string

	FindingsSet map[string]*models.ClauseFindings // merged key-wise, not replaced wholesale
	AppendRisks []models.Risk
	AppendDiffs []models.Diff

	SummaryNotes *string
	IsComplete   *bool
	Error        *string
	ClearError   bool
}

func intPtr(v int) *int                                { return &v }
func boolPtr(v bool) *bool                               { return &v }
func validationPtr(v models.ValidationResult) *models.ValidationResult { return &v }

// mergeUpdate applies u onto a clone of state and returns the clone,
// matching the engine's "before/after each node the entire state is
// serialized" checkpointing contract: callers always get a fresh value,
// never a mutated alias of the node's input.
func mergeUpdate(state *models.GraphState, u Update) *models.GraphState {
	next := state.Clone()

	if u.PrimaryStructure != nil {
		next.PrimaryStructure = u.PrimaryStructure
	}
	if u.ReviewChecklistSet {
		next.ReviewChecklist = u.ReviewChecklist
	}
	if u.ReviewPlan != nil {
		next.ReviewPlan = u.ReviewPlan
	}
	if u.PlanVersion != nil {
		next.PlanVersion = *u.PlanVersion
	}
	if u.CurrentClauseIndex != nil {
		next.CurrentClauseIndex = *u.CurrentClauseIndex
	}
	if u.CurrentClauseID != nil {
		next.CurrentClauseID = *u.CurrentClauseID
	}
	if u.CurrentClauseText != nil {
		next.CurrentClauseText = *u.CurrentClauseText
	}
	if u.CurrentRisksSet {
		next.CurrentRisks = u.CurrentRisks
	}
	if u.CurrentDiffsSet {
		next.CurrentDiffs = u.CurrentDiffs
	}
	if u.CurrentSkillContext != nil {
		next.CurrentSkillContext = u.CurrentSkillContext
	}
	if u.ValidationResult != nil {
		next.ValidationResult = *u.ValidationResult
	}
	if u.ClauseRetryCount != nil {
		next.ClauseRetryCount = *u.ClauseRetryCount
	}
	if u.MaxRetries != nil {
		next.MaxRetries = *u.MaxRetries
	}
	if u.PendingDiffsSet {
		next.PendingDiffs = u.PendingDiffs
	}
	if u.UserDecisions != nil {
		next.UserDecisions = u.UserDecisions
	}
	if u.FindingsSet != nil {
		if next.Findings == nil {
			next.Findings = map[string]*models.ClauseFindings{}
		}
		for k, v := range u.FindingsSet {
			next.Findings[k] = v
		}
	}
	if len(u.AppendRisks) > 0 {
		next.AllRisks = append(append([]models.Risk(nil), next.AllRisks...), u.AppendRisks...)
	}
	if len(u.AppendDiffs) > 0 {
		next.AllDiffs = append(append([]models.Diff(nil), next.AllDiffs...), u.AppendDiffs...)
	}
	if u.SummaryNotes != nil {
		next.SummaryNotes = *u.SummaryNotes
	}
	if u.IsComplete != nil {
		next.IsComplete = *u.IsComplete
	}
	if u.ClearError {
		next.Error = ""
	} else if u.Error != nil {
		next.Error = *u.Error
	}

	return next
}
