package models

import "time"

// SessionStatus is the lifecycle state of a review task's session row.
type SessionStatus string

const (
	SessionReviewing   SessionStatus = "reviewing"
	SessionInterrupted SessionStatus = "interrupted"
	SessionCompleted   SessionStatus = "completed"
	SessionFailed      SessionStatus = "failed"
)

// SessionRow is the persisted representation of a task's current graph
// state and control metadata, the system-of-record row backing resume after
// restart.
type SessionRow struct {
	TaskID             string        `json:"task_id"`
	Status             SessionStatus `json:"status"`
	DomainID           string        `json:"domain_id,omitempty"`
	DomainSubtype      string        `json:"domain_subtype,omitempty"`
	OurParty           string        `json:"our_party,omitempty"`
	Language           string        `json:"language,omitempty"`
	CurrentClauseIndex int           `json:"current_clause_index"`
	CurrentClauseID    string        `json:"current_clause_id,omitempty"`
	TotalClauses       int           `json:"total_clauses"`
	IsComplete         bool          `json:"is_complete"`
	IsInterrupted      bool          `json:"is_interrupted"`
	Error              string        `json:"error,omitempty"`

	// GraphState is the packed JSON payload; see pkg/session.Pack/Unpack for
	// the four-tier compression policy applied before every save.
	GraphState []byte `json:"graph_state"`
	GraphRunID string `json:"graph_run_id,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
