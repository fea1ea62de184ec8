// Package session persists review_sessions rows: one row per review task,
// holding the latest checkpointed graph state plus a denormalized summary
// used for listing/status endpoints without unpacking the full state.
// Grounded on original_source/.../session_manager.py's SessionManager.
package session

import "github.com/cosiris15/contract-review/pkg/models"

// Record is an alias for the shared row shape so callers across pkg/session,
// pkg/api and pkg/models agree on one type rather than each package
// maintaining its own copy.
type Record = models.SessionRow

// Status is an alias for models.SessionStatus, with package-local names for
// the three session-specific values this package derives automatically.
type Status = models.SessionStatus

const (
	StatusReviewing   = models.SessionReviewing
	StatusInterrupted = models.SessionInterrupted
	StatusCompleted   = models.SessionCompleted
	StatusFailed      = models.SessionFailed
)

// activeStatuses are the statuses list_active_sessions/ListActive surface
// for process-startup recovery: anything not yet completed or failed.
var activeStatuses = map[Status]bool{
	StatusReviewing:   true,
	StatusInterrupted: true,
}

func cloneRecord(r *Record) *Record {
	if r == nil {
		return nil
	}
	cp := *r
	cp.GraphState = append([]byte(nil), r.GraphState...)
	return &cp
}
