package api

import "github.com/cosiris15/contract-review/pkg/models"

// startReviewResponse is POST /review/start's response.
type startReviewResponse struct {
	TaskID     string `json:"task_id"`
	Status     string `json:"status"`
	GraphRunID string `json:"graph_run_id"`
}

// reviewStatusResponse is GET /review/{task_id}/status's response, grounded
// on original_source's get_review_status dict shape.
type reviewStatusResponse struct {
	TaskID             string   `json:"task_id"`
	GraphRunID         string   `json:"graph_run_id"`
	Status             string   `json:"status"`
	NextNodes          []string `json:"next_nodes"`
	IsInterrupted      bool     `json:"is_interrupted"`
	CurrentClauseID    string   `json:"current_clause_id,omitempty"`
	CurrentClauseIndex int      `json:"current_clause_index"`
	TotalClauses       int      `json:"total_clauses"`
	IsComplete         bool     `json:"is_complete"`
	Error              string   `json:"error,omitempty"`
}

// pendingDiffsResponse is GET /review/{task_id}/pending-diffs's response.
type pendingDiffsResponse struct {
	TaskID       string        `json:"task_id"`
	PendingDiffs []models.Diff `json:"pending_diffs"`
	ClauseID     string        `json:"clause_id,omitempty"`
}

// approvalResponse is POST /review/{task_id}/approve's response.
type approvalResponse struct {
	DiffID    string `json:"diff_id"`
	NewStatus string `json:"new_status"`
	Message   string `json:"message"`
}

// batchApprovalResponse is POST /review/{task_id}/approve-batch's response.
type batchApprovalResponse struct {
	TaskID  string             `json:"task_id"`
	Results []approvalResponse `json:"results"`
}

// taskStatusResponse is the {task_id, status} shape shared by POST
// .../run and POST .../resume, both of which launch background graph
// execution and report back only whether that launch happened or was
// already in flight.
type taskStatusResponse struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
}

// reviewResultResponse is GET /review/{task_id}/result's response.
type reviewResultResponse struct {
	TaskID       string         `json:"task_id"`
	AllRisks     []models.Risk  `json:"all_risks"`
	AllDiffs     []models.Diff  `json:"all_diffs"`
	AllActions   []models.Action `json:"all_actions"`
	SummaryNotes string         `json:"summary_notes"`
}

// uploadResponse is POST /review/{task_id}/upload's response. document_id
// is always null here: parsing happens asynchronously in the worker pool,
// long after this handler has already responded.
type uploadResponse struct {
	JobID      string  `json:"job_id"`
	Status     string  `json:"status"`
	DocumentID *string `json:"document_id"`
}

// domainSummary is one entry of GET /domains's response.
type domainSummary struct {
	DomainID          string   `json:"domain_id"`
	Name              string   `json:"name"`
	Description       string   `json:"description"`
	SupportedSubtypes []string `json:"supported_subtypes"`
	ChecklistCount    int      `json:"checklist_count"`
	SkillsCount       int      `json:"skills_count"`
}

// domainDetail is GET /domains/{id}'s response.
type domainDetail struct {
	DomainID          string                  `json:"domain_id"`
	Name              string                  `json:"name"`
	Description       string                  `json:"description"`
	SupportedSubtypes []string                `json:"supported_subtypes"`
	ReviewChecklist   []models.ChecklistItem  `json:"review_checklist"`
	Skills            []domainSkillSummary    `json:"skills"`
}

type domainSkillSummary struct {
	SkillID string `json:"skill_id"`
	Name    string `json:"name"`
	Backend string `json:"backend"`
}
