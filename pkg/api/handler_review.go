package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cosiris15/contract-review/pkg/events"
	"github.com/cosiris15/contract-review/pkg/graph"
	"github.com/cosiris15/contract-review/pkg/models"
	"github.com/cosiris15/contract-review/pkg/session"
)

// nextNodes mirrors original_source's `list(snapshot.next) if snapshot.next
// else []`: human_approval is this engine's only interrupt point, so the
// next-to-run node is non-empty exactly when the checkpoint is paused there.
func nextNodes(isInterrupted bool) []string {
	if !isInterrupted {
		return []string{}
	}
	return []string{string(graph.NodeHumanApproval)}
}

// startReview handles POST /review/start: it provisions a task's session
// row with its domain checklist but does NOT begin graph execution — that
// is POST .../run's job, once the primary document has been uploaded. This
// split from original_source's start_review (which launched the graph
// immediately) is necessary because the graph's first real node,
// parse_document, requires primary_structure to already be populated by the
// upload pipeline (see pkg/graph.Engine.nodeParseDocument).
func (s *Server) startReview(c *gin.Context) {
	var req startReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	if _, _, ok, err := s.sessions.LoadSession(c.Request.Context(), req.TaskID); err != nil {
		writeError(c, err)
		return
	} else if ok {
		conflict(c, fmt.Sprintf("task %s already has an active review session", req.TaskID))
		return
	}

	checklist := s.plugins.ReviewChecklistFor(req.DomainID)
	state := &models.GraphState{
		TaskID:          req.TaskID,
		OurParty:        req.OurParty,
		Language:        req.Language,
		DomainID:        req.DomainID,
		DomainSubtype:   req.DomainSubtype,
		MaterialType:    "contract",
		ReviewChecklist: checklist,
	}
	graphRunID := "run_" + req.TaskID

	if err := s.sessions.SaveSession(c.Request.Context(), req.TaskID, state, graphRunID, session.StatusReviewing); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, startReviewResponse{TaskID: req.TaskID, Status: string(session.StatusReviewing), GraphRunID: graphRunID})
}

// reviewStatus handles GET /review/{task_id}/status, grounded on
// original_source's get_review_status.
func (s *Server) reviewStatus(c *gin.Context) {
	taskID := c.Param("task_id")
	rec, state, ok, err := s.sessions.LoadSession(c.Request.Context(), taskID)
	if err != nil {
		writeError(c, err)
		return
	}
	if !ok {
		notFound(c, taskNotFound(taskID).Error())
		return
	}

	c.JSON(http.StatusOK, reviewStatusResponse{
		TaskID:             taskID,
		GraphRunID:         rec.GraphRunID,
		Status:             string(rec.Status),
		NextNodes:          nextNodes(rec.IsInterrupted),
		IsInterrupted:      rec.IsInterrupted,
		CurrentClauseID:    state.CurrentClauseID,
		CurrentClauseIndex: state.CurrentClauseIndex,
		TotalClauses:       len(state.ReviewChecklist),
		IsComplete:         state.IsComplete,
		Error:              state.Error,
	})
}

// pendingDiffs handles GET /review/{task_id}/pending-diffs.
func (s *Server) pendingDiffs(c *gin.Context) {
	taskID := c.Param("task_id")
	_, state, ok, err := s.sessions.LoadSession(c.Request.Context(), taskID)
	if err != nil {
		writeError(c, err)
		return
	}
	if !ok {
		notFound(c, taskNotFound(taskID).Error())
		return
	}

	c.JSON(http.StatusOK, pendingDiffsResponse{
		TaskID:       taskID,
		PendingDiffs: state.PendingDiffs,
		ClauseID:     state.CurrentClauseID,
	})
}

// approveDiff handles POST /review/{task_id}/approve: it merges one
// decision into the checkpointed state's user_decisions/user_feedback maps,
// mirroring original_source's approve_diff (graph.update_state), but
// against the session manager's checkpoint directly since there is no
// in-memory graph snapshot outside of a run in flight.
func (s *Server) approveDiff(c *gin.Context) {
	taskID := c.Param("task_id")
	var req approvalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	resp, err := s.applyApproval(c.Request.Context(), taskID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// approveBatch handles POST /review/{task_id}/approve-batch.
func (s *Server) approveBatch(c *gin.Context) {
	taskID := c.Param("task_id")
	var req batchApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	results := make([]approvalResponse, 0, len(req.Approvals))
	for _, approval := range req.Approvals {
		resp, err := s.applyApproval(c.Request.Context(), taskID, approval)
		if err != nil {
			writeError(c, err)
			return
		}
		results = append(results, resp)
	}
	c.JSON(http.StatusOK, batchApprovalResponse{TaskID: taskID, Results: results})
}

func (s *Server) applyApproval(ctx context.Context, taskID string, req approvalRequest) (approvalResponse, error) {
	rec, state, ok, err := s.sessions.LoadSession(ctx, taskID)
	if err != nil {
		return approvalResponse{}, err
	}
	if !ok {
		return approvalResponse{}, taskNotFound(taskID)
	}

	if state.UserDecisions == nil {
		state.UserDecisions = make(map[string]string)
	}
	if state.UserFeedback == nil {
		state.UserFeedback = make(map[string]string)
	}
	state.UserDecisions[req.DiffID] = req.Decision
	if req.Feedback != "" {
		state.UserFeedback[req.DiffID] = req.Feedback
	}

	if err := s.sessions.SaveSession(ctx, taskID, state, rec.GraphRunID, rec.Status); err != nil {
		return approvalResponse{}, err
	}

	newStatus := "rejected"
	eventType := events.TypeDiffRejected
	if req.Decision == "approve" {
		newStatus = "approved"
		eventType = events.TypeDiffApproved
	}
	s.bus.Publish(ctx, taskID, eventType, events.DiffDecisionPayload{
		DiffID: req.DiffID, Decision: req.Decision, Feedback: req.Feedback,
	})

	return approvalResponse{
		DiffID:    req.DiffID,
		NewStatus: newStatus,
		Message:   fmt.Sprintf("diff %s %s", req.DiffID, newStatus),
	}, nil
}

// runReview handles POST /review/{task_id}/run: it begins graph execution
// once the primary document has been uploaded and parsed, launching
// engine.Run in the background and returning immediately so the caller can
// follow progress over GET .../events.
func (s *Server) runReview(c *gin.Context) {
	taskID := c.Param("task_id")
	_, state, ok, err := s.sessions.LoadSession(c.Request.Context(), taskID)
	if err != nil {
		writeError(c, err)
		return
	}
	if !ok {
		notFound(c, taskNotFound(taskID).Error())
		return
	}
	if state.PrimaryStructure == nil {
		badRequest(c, "primary document has not finished uploading for task "+taskID)
		return
	}

	if !s.registry.TryStartRun(taskID) {
		c.JSON(http.StatusOK, taskStatusResponse{TaskID: taskID, Status: "running"})
		return
	}

	go s.runGraph(taskID, state)

	c.JSON(http.StatusOK, taskStatusResponse{TaskID: taskID, Status: "running"})
}

// resumeReview handles POST /review/{task_id}/resume: idempotent — a
// second call while a resume is already in flight is a no-op that returns
// status=resuming, matching original_source's resume_review.
func (s *Server) resumeReview(c *gin.Context) {
	taskID := c.Param("task_id")
	_, state, ok, err := s.sessions.LoadSession(c.Request.Context(), taskID)
	if err != nil {
		writeError(c, err)
		return
	}
	if !ok {
		notFound(c, taskNotFound(taskID).Error())
		return
	}

	if !s.registry.TryStartResume(taskID) {
		c.JSON(http.StatusOK, taskStatusResponse{TaskID: taskID, Status: "resuming"})
		return
	}

	go s.runGraphResume(taskID, state)

	c.JSON(http.StatusOK, taskStatusResponse{TaskID: taskID, Status: "resumed"})
}

// runGraph drives one engine.Run to completion or interruption in the
// background, recovering a panic in the engine's own dispatch loop: the
// only place a panic is allowed to propagate out of request handling is
// here, and it must be turned into a failed session rather than crashing
// the process.
func (s *Server) runGraph(taskID string, state *models.GraphState) {
	defer s.registry.FinishRun(taskID)
	defer s.recoverGraphPanic(taskID)

	result, err := s.reviewGraph.Run(context.Background(), state)
	s.finishGraphStep(taskID, result.State, result.Interrupted, err)
}

func (s *Server) runGraphResume(taskID string, state *models.GraphState) {
	defer s.registry.FinishResume(taskID)
	defer s.recoverGraphPanic(taskID)

	result, err := s.reviewGraph.Resume(context.Background(), state)
	s.finishGraphStep(taskID, result.State, result.Interrupted, err)
}

func (s *Server) finishGraphStep(taskID string, state *models.GraphState, interrupted bool, runErr error) {
	ctx := context.Background()
	if runErr != nil {
		slog.Error("api: graph run failed", "task_id", taskID, "error", runErr)
		_ = s.sessions.MarkSessionFailed(ctx, taskID, runErr.Error())
		s.bus.Publish(ctx, taskID, events.TypeReviewError, events.ReviewErrorPayload{Message: runErr.Error()})
		return
	}

	status := session.StatusReviewing
	switch {
	case state.IsComplete:
		status = session.StatusCompleted
	case interrupted || len(state.PendingDiffs) > 0:
		status = session.StatusInterrupted
	}

	rec, _, ok, _ := s.sessions.LoadSession(ctx, taskID)
	graphRunID := ""
	if ok {
		graphRunID = rec.GraphRunID
	}
	if err := s.sessions.SaveSession(ctx, taskID, state, graphRunID, status); err != nil {
		slog.Error("api: failed to checkpoint graph state", "task_id", taskID, "error", err)
	}

	if state.IsComplete {
		s.bus.Publish(ctx, taskID, events.TypeReviewComplete, events.ReviewCompletePayload{TaskID: taskID, Summary: state.SummaryNotes})
	}
}

func (s *Server) recoverGraphPanic(taskID string) {
	if r := recover(); r != nil {
		msg := fmt.Sprintf("graph panic: %v", r)
		slog.Error("api: recovered panic in graph dispatch", "task_id", taskID, "panic", r)
		_ = s.sessions.MarkSessionFailed(context.Background(), taskID, msg)
		s.bus.Publish(context.Background(), taskID, events.TypeReviewError, events.ReviewErrorPayload{Message: msg})
	}
}

// reviewResult handles GET /review/{task_id}/result: requires is_complete.
func (s *Server) reviewResult(c *gin.Context) {
	taskID := c.Param("task_id")
	_, state, ok, err := s.sessions.LoadSession(c.Request.Context(), taskID)
	if err != nil {
		writeError(c, err)
		return
	}
	if !ok {
		notFound(c, taskNotFound(taskID).Error())
		return
	}
	if !state.IsComplete {
		badRequest(c, "review for task "+taskID+" is not yet complete")
		return
	}

	c.JSON(http.StatusOK, reviewResultResponse{
		TaskID:       taskID,
		AllRisks:     state.AllRisks,
		AllDiffs:     state.AllDiffs,
		AllActions:   state.AllActions,
		SummaryNotes: state.SummaryNotes,
	})
}

// exportReview handles POST /review/{task_id}/export: only a docx source
// document can be exported with tracked changes. Rendering the exported
// file itself is an external collaborator (a docx writer) with no
// equivalent dependency available, so only the eligibility gate is
// implemented here (see DESIGN.md).
func (s *Server) exportReview(c *gin.Context) {
	taskID := c.Param("task_id")
	_, state, ok, err := s.sessions.LoadSession(c.Request.Context(), taskID)
	if err != nil {
		writeError(c, err)
		return
	}
	if !ok {
		notFound(c, taskNotFound(taskID).Error())
		return
	}

	var primary *models.TaskDocument
	for i := range state.Documents {
		if state.Documents[i].Role == string(models.RolePrimary) {
			primary = &state.Documents[i]
			break
		}
	}
	if primary == nil || !strings.HasSuffix(strings.ToLower(primary.Filename), ".docx") {
		badRequest(c, "task "+taskID+" has no docx primary document to export")
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"task_id": taskID, "status": "export_queued"})
}
