package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cosiris15/contract-review/pkg/events"
	"github.com/cosiris15/contract-review/pkg/graph"
	"github.com/cosiris15/contract-review/pkg/models"
	"github.com/cosiris15/contract-review/pkg/plugins"
	"github.com/cosiris15/contract-review/pkg/session"
	"github.com/cosiris15/contract-review/pkg/upload"
)

func newTestServer(t *testing.T) (*Server, *session.Manager, *upload.Manager, upload.ObjectStore) {
	t.Helper()

	sessions := session.NewManager(session.NewMemoryStore())
	uploads := upload.NewManager(upload.NewMemoryStore())
	objects := upload.NewMemoryObjectStore()
	cache := events.NewCache(0)
	bus := events.NewBus(cache)
	registry := graph.NewRegistry()

	registryPlugins := plugins.NewRegistry(nil)
	registryPlugins.Register(plugins.NewFIDICPlugin())

	reviewGraph := &graph.Engine{Checkpointer: sessions}

	s := NewServer(Deps{
		DB:          nil,
		Sessions:    sessions,
		Uploads:     uploads,
		Objects:     objects,
		ReviewGraph: reviewGraph,
		Registry:    registry,
		Bus:         bus,
		Cache:       cache,
		Plugins:     registryPlugins,
	})
	return s, sessions, uploads, objects
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestStartReview_RejectsDuplicateTaskID(t *testing.T) {
	s, _, _, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/v3/review/start", startReviewRequest{TaskID: "task-1", DomainID: "fidic"})
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp startReviewResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "task-1", resp.TaskID)
	assert.Equal(t, "reviewing", resp.Status)

	rec2 := doJSON(t, s, http.MethodPost, "/api/v3/review/start", startReviewRequest{TaskID: "task-1", DomainID: "fidic"})
	assert.Equal(t, http.StatusConflict, rec2.Code)
}

func TestStartReview_SeedsDomainChecklist(t *testing.T) {
	s, sessions, _, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/v3/review/start", startReviewRequest{TaskID: "task-2", DomainID: "fidic"})
	require.Equal(t, http.StatusOK, rec.Code)

	_, state, ok, err := sessions.LoadSession(context.Background(), "task-2")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, state.ReviewChecklist, 3)
}

func TestReviewStatus_NotFoundForUnknownTask(t *testing.T) {
	s, _, _, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v3/review/no-such-task/status", nil)
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReviewStatus_ReportsNextNodesWhileInterrupted(t *testing.T) {
	s, sessions, _, _ := newTestServer(t)
	ctx := context.Background()
	require.NoError(t, sessions.SaveSession(ctx, "task-paused", &models.GraphState{
		CurrentClauseID: "4.1",
		PendingDiffs:    []models.Diff{{DiffID: "diff-1", ClauseID: "4.1"}},
	}, "run-paused", ""))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v3/review/task-paused/status", nil)
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp reviewStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.IsInterrupted)
	assert.Equal(t, []string{"human_approval"}, resp.NextNodes)
}

func TestReviewStatus_NextNodesEmptyWhenNotInterrupted(t *testing.T) {
	s, sessions, _, _ := newTestServer(t)
	ctx := context.Background()
	require.NoError(t, sessions.SaveSession(ctx, "task-running", &models.GraphState{
		CurrentClauseID: "4.1",
	}, "run-running", ""))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v3/review/task-running/status", nil)
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp reviewStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.IsInterrupted)
	assert.Empty(t, resp.NextNodes)
}

func TestApproveDiff_MergesDecisionIntoCheckpointedState(t *testing.T) {
	s, sessions, _, _ := newTestServer(t)
	ctx := context.Background()
	require.NoError(t, sessions.SaveSession(ctx, "task-3", &models.GraphState{
		PendingDiffs: []models.Diff{{DiffID: "diff-1", ClauseID: "4.1"}},
	}, "run-3", ""))

	rec := doJSON(t, s, http.MethodPost, "/api/v3/review/task-3/approve", approvalRequest{DiffID: "diff-1", Decision: "approve"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp approvalResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "approved", resp.NewStatus)

	_, state, _, err := sessions.LoadSession(ctx, "task-3")
	require.NoError(t, err)
	assert.Equal(t, "approve", state.UserDecisions["diff-1"])
}

func TestApproveBatch_AppliesEveryDecision(t *testing.T) {
	s, sessions, _, _ := newTestServer(t)
	ctx := context.Background()
	require.NoError(t, sessions.SaveSession(ctx, "task-4", &models.GraphState{}, "run-4", ""))

	req := batchApprovalRequest{Approvals: []approvalRequest{
		{DiffID: "diff-a", Decision: "approve"},
		{DiffID: "diff-b", Decision: "reject", Feedback: "too aggressive"},
	}}
	rec := doJSON(t, s, http.MethodPost, "/api/v3/review/task-4/approve-batch", req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp batchApprovalResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "approved", resp.Results[0].NewStatus)
	assert.Equal(t, "rejected", resp.Results[1].NewStatus)

	_, state, _, err := sessions.LoadSession(ctx, "task-4")
	require.NoError(t, err)
	assert.Equal(t, "too aggressive", state.UserFeedback["diff-b"])
}

func TestRunReview_RejectsMissingPrimaryDocument(t *testing.T) {
	s, sessions, _, _ := newTestServer(t)
	ctx := context.Background()
	require.NoError(t, sessions.SaveSession(ctx, "task-5", &models.GraphState{}, "run-5", ""))

	rec := doJSON(t, s, http.MethodPost, "/api/v3/review/task-5/run", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRunReview_StartsOnceSerializedByRegistry(t *testing.T) {
	s, sessions, _, _ := newTestServer(t)
	ctx := context.Background()
	require.NoError(t, sessions.SaveSession(ctx, "task-6", &models.GraphState{
		PrimaryStructure: &models.DocumentStructure{TotalClauses: 1},
	}, "run-6", ""))

	require.True(t, s.registry.TryStartRun("task-6"))

	rec := doJSON(t, s, http.MethodPost, "/api/v3/review/task-6/run", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp taskStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "running", resp.Status)
}

func TestResumeReview_IsIdempotentWhileResumeInFlight(t *testing.T) {
	s, sessions, _, _ := newTestServer(t)
	ctx := context.Background()
	require.NoError(t, sessions.SaveSession(ctx, "task-7", &models.GraphState{}, "run-7", ""))

	require.True(t, s.registry.TryStartResume("task-7"))

	rec := doJSON(t, s, http.MethodPost, "/api/v3/review/task-7/resume", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp taskStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "resuming", resp.Status)
}

func TestReviewResult_RequiresCompletion(t *testing.T) {
	s, sessions, _, _ := newTestServer(t)
	ctx := context.Background()
	require.NoError(t, sessions.SaveSession(ctx, "task-8", &models.GraphState{}, "run-8", ""))

	rec := doJSON(t, s, http.MethodGet, "/api/v3/review/task-8/result", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	require.NoError(t, sessions.SaveSession(ctx, "task-8", &models.GraphState{
		IsComplete: true, SummaryNotes: "all clear",
	}, "run-8", ""))

	rec2 := doJSON(t, s, http.MethodGet, "/api/v3/review/task-8/result", nil)
	require.Equal(t, http.StatusOK, rec2.Code)
	var resp reviewResultResponse
	require.NoError(t, json.Unmarshal(rec2.Body.Bytes(), &resp))
	assert.Equal(t, "all clear", resp.SummaryNotes)
}

func TestExportReview_RequiresDocxPrimaryDocument(t *testing.T) {
	s, sessions, _, _ := newTestServer(t)
	ctx := context.Background()
	require.NoError(t, sessions.SaveSession(ctx, "task-9", &models.GraphState{
		Documents: []models.TaskDocument{{DocumentID: "doc-1", Role: "primary", Filename: "contract.pdf"}},
	}, "run-9", ""))

	rec := doJSON(t, s, http.MethodPost, "/api/v3/review/task-9/export", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	require.NoError(t, sessions.SaveSession(ctx, "task-9", &models.GraphState{
		Documents: []models.TaskDocument{{DocumentID: "doc-1", Role: "primary", Filename: "contract.docx"}},
	}, "run-9", ""))

	rec2 := doJSON(t, s, http.MethodPost, "/api/v3/review/task-9/export", nil)
	assert.Equal(t, http.StatusAccepted, rec2.Code)
}

func TestUploadDocument_QueuesJobWithoutDocumentID(t *testing.T) {
	s, sessions, uploads, _ := newTestServer(t)
	ctx := context.Background()
	require.NoError(t, sessions.SaveSession(ctx, "task-10", &models.GraphState{}, "run-10", ""))

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "contract.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("1 Scope\nSome text.\n"))
	require.NoError(t, err)
	require.NoError(t, w.WriteField("role", "primary"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v3/review/task-10/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp uploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Nil(t, resp.DocumentID)
	assert.Equal(t, "queued", resp.Status)

	jobs, err := uploads.GetJobsByTask(ctx, "task-10")
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "contract.txt", jobs[0].Filename)
}

func TestRetryUpload_OnlyAllowedFromFailed(t *testing.T) {
	s, _, uploads, _ := newTestServer(t)
	ctx := context.Background()
	job, err := uploads.CreateJob(ctx, "task-11", models.RolePrimary, "f.pdf", "key", "", "en")
	require.NoError(t, err)

	rec := doJSON(t, s, http.MethodPost, fmt.Sprintf("/api/v3/review/task-11/uploads/%s/retry", job.JobID), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	require.NoError(t, uploads.MarkJobRunning(ctx, job.JobID))
	require.NoError(t, uploads.MarkJobFailed(ctx, job.JobID, "boom"))

	rec2 := doJSON(t, s, http.MethodPost, fmt.Sprintf("/api/v3/review/task-11/uploads/%s/retry", job.JobID), nil)
	assert.Equal(t, http.StatusOK, rec2.Code)
}

func TestListDomains_ReturnsRegisteredPlugin(t *testing.T) {
	s, _, _, _ := newTestServer(t)
	rec := doJSON(t, s, http.MethodGet, "/api/v3/domains", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Domains []domainSummary `json:"domains"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Domains, 1)
	assert.Equal(t, "fidic", body.Domains[0].DomainID)
	assert.Equal(t, 3, body.Domains[0].ChecklistCount)
}

func TestGetDomain_UnknownDomainIsNotFound(t *testing.T) {
	s, _, _, _ := newTestServer(t)
	rec := doJSON(t, s, http.MethodGet, "/api/v3/domains/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetDomainChecklist_ReturnsItems(t *testing.T) {
	s, _, _, _ := newTestServer(t)
	rec := doJSON(t, s, http.MethodGet, "/api/v3/domains/fidic/checklist", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		DomainID  string                  `json:"domain_id"`
		Checklist []models.ChecklistItem `json:"checklist"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Checklist, 3)
}

func TestVersionHandler_ReturnsBody(t *testing.T) {
	s, _, _, _ := newTestServer(t)
	rec := doJSON(t, s, http.MethodGet, "/version", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
