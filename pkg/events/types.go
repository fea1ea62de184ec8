// Package events implements the SSE protocol: a closed set of
// event types pushed to a per-task stream, a replay cache so events emitted
// before a client connects are still delivered, and an internal bus that
// fans events out to every goroutine (in this process, or another replica
// over websocket) watching a task.
package events

import "context"

// Type is one of the closed set of SSE event types a /review/{task_id}/events
// stream may emit.
type Type string

const (
	// Upload worker events.
	TypeUploadProgress Type = "upload_progress"
	TypeUploadComplete Type = "upload_complete"
	TypeUploadError    Type = "upload_error"

	// SSE generator events (polls graph state).
	TypeReviewProgress    Type = "review_progress"
	TypeDiffProposed      Type = "diff_proposed"
	TypeReviewComplete    Type = "review_complete"
	TypeReviewError       Type = "review_error"
	TypeApprovalRequired  Type = "approval_required"

	// Approval endpoint events.
	TypeDiffApproved Type = "diff_approved"
	TypeDiffRejected Type = "diff_rejected"
	TypeDiffRevised  Type = "diff_revised"

	// Interactive-mode refinement engine events.
	TypeToolThinking     Type = "tool_thinking"
	TypeToolCall         Type = "tool_call"
	TypeToolResult       Type = "tool_result"
	TypeToolError        Type = "tool_error"
	TypeDocUpdate        Type = "doc_update"
	TypeMessageDelta     Type = "message_delta"
	TypeMessageDone      Type = "message_done"
	TypeSuggestionUpdate Type = "suggestion_update"
	TypeError            Type = "error"
	TypeDone             Type = "done"
)

// Event is one payload pushed through the bus/cache/SSE stream for a task.
type Event struct {
	ID      int64  `json:"-"`
	Type    Type   `json:"-"`
	TaskID  string `json:"-"`
	Payload any    `json:"-"`
}

// Publisher is the narrow interface graph nodes, the upload manager, and the
// approval endpoints push events through; Bus is the only implementation.
type Publisher interface {
	Publish(ctx context.Context, taskID string, eventType Type, payload any) Event
}
