package events

import "github.com/cosiris15/contract-review/pkg/models"

// UploadProgressPayload accompanies TypeUploadProgress.
type UploadProgressPayload struct {
	JobID    string `json:"job_id"`
	Stage    string `json:"stage"`
	Progress int    `json:"progress"`
}

// UploadCompletePayload accompanies TypeUploadComplete.
type UploadCompletePayload struct {
	JobID      string         `json:"job_id"`
	DocumentID string         `json:"document_id"`
	ResultMeta map[string]any `json:"result_meta,omitempty"`
}

// UploadErrorPayload accompanies TypeUploadError.
type UploadErrorPayload struct {
	JobID string `json:"job_id"`
	Error string `json:"error"`
}

// ReviewProgressPayload accompanies TypeReviewProgress, emitted by the SSE
// generator whenever current_clause_index changes.
type ReviewProgressPayload struct {
	TaskID             string `json:"task_id"`
	CurrentClauseIndex int    `json:"current_clause_index"`
	TotalClauses       int    `json:"total_clauses"`
	CurrentClauseID    string `json:"current_clause_id"`
	Message            string `json:"message"`
}

// DiffProposedPayload accompanies TypeDiffProposed: the full diff, pushed
// once per diff_id the first time the generator observes it pending.
type DiffProposedPayload = models.Diff

// DiffDecisionPayload accompanies TypeDiffApproved/TypeDiffRejected/
// TypeDiffRevised, emitted by the approval endpoints.
type DiffDecisionPayload struct {
	DiffID   string `json:"diff_id"`
	Decision string `json:"decision,omitempty"`
	Feedback string `json:"feedback,omitempty"`
}

// ReviewCompletePayload accompanies TypeReviewComplete.
type ReviewCompletePayload struct {
	TaskID  string `json:"task_id"`
	Summary string `json:"summary"`
}

// ReviewErrorPayload accompanies TypeReviewError, emitted when the
// generator can't find an active task or when the task's state carries an
// error.
type ReviewErrorPayload struct {
	Message string `json:"message"`
}

// ApprovalRequiredPayload accompanies TypeApprovalRequired.
type ApprovalRequiredPayload struct {
	TaskID       string `json:"task_id"`
	PendingCount int    `json:"pending_count"`
}

// ToolThinkingPayload, ToolCallPayload, ToolResultPayload, ToolErrorPayload
// accompany the interactive refinement engine's tool_* events.
type ToolThinkingPayload struct {
	Thought string `json:"thought"`
}

type ToolCallPayload struct {
	SkillID string         `json:"skill_id"`
	Args    map[string]any `json:"args,omitempty"`
}

type ToolResultPayload struct {
	SkillID string `json:"skill_id"`
	Result  any    `json:"result,omitempty"`
}

type ToolErrorPayload struct {
	SkillID string `json:"skill_id"`
	Error   string `json:"error"`
}

// DocUpdatePayload accompanies TypeDocUpdate: an incremental patch to the
// refined document text the interactive engine is producing.
type DocUpdatePayload struct {
	ClauseID string `json:"clause_id"`
	Text     string `json:"text"`
}

// MessageDeltaPayload/MessageDonePayload stream the engine's chat-style
// response the way an assistant turn streams token by token.
type MessageDeltaPayload struct {
	Delta string `json:"delta"`
}

type MessageDonePayload struct {
	Content string `json:"content"`
}

// SuggestionUpdatePayload carries a refreshed suggestion list.
type SuggestionUpdatePayload struct {
	Suggestions []string `json:"suggestions"`
}

// ErrorPayload accompanies the generic TypeError event.
type ErrorPayload struct {
	Message string `json:"message"`
}

// DonePayload accompanies TypeDone, the interactive engine's terminal event.
type DonePayload struct {
	Reason string `json:"reason,omitempty"`
}
