package document

import (
	"context"
	"fmt"

	"github.com/cosiris15/contract-review/pkg/models"
	"github.com/cosiris15/contract-review/pkg/queue"
	"github.com/cosiris15/contract-review/pkg/session"
	"github.com/cosiris15/contract-review/pkg/upload"
)

// Executor implements pkg/queue.JobExecutor: it fetches an uploaded
// document's raw bytes, parses it into a DocumentStructure, and attaches
// the result to the task's checkpointed graph state so that the next
// /review/{task_id}/run finds primary_structure already populated, per
// pkg/graph.Engine.nodeParseDocument's contract ("attached by the upload
// pipeline before the graph run starts"). Grounded on
// original_source/.../document_loader.py + smart_parser.py's load-then-parse
// pipeline shape, condensed to the one deterministic fallback pattern (see
// parse.go) since LLM-assisted pattern detection is an external
// collaborator per the Non-goals.
type Executor struct {
	objects  upload.ObjectStore
	uploads  *upload.Manager
	sessions *session.Manager
}

// NewExecutor wires the collaborators an ingestion run needs.
func NewExecutor(objects upload.ObjectStore, uploads *upload.Manager, sessions *session.Manager) *Executor {
	return &Executor{objects: objects, uploads: uploads, sessions: sessions}
}

// Execute runs one upload job to completion. It reports stage progress via
// the upload manager as it goes; the caller (pkg/queue.Worker) is
// responsible for persisting Execute's terminal ExecutionResult.
func (e *Executor) Execute(ctx context.Context, job *models.UploadJob) *queue.ExecutionResult {
	_ = e.uploads.UpdateJobStage(ctx, job.JobID, models.StageLoading, 10)

	data, err := e.objects.Get(ctx, job.StorageKey)
	if err != nil {
		return &queue.ExecutionResult{Status: models.UploadFailed, Error: fmt.Errorf("loading document: %w", err)}
	}

	_ = e.uploads.UpdateJobStage(ctx, job.JobID, models.StageParsing, 50)

	documentID := models.NewDocumentID()
	structure := ParseText(documentID, string(data), models.ParserConfig{MaxDepth: 4})

	if err := e.attachToSession(ctx, job, documentID, structure); err != nil {
		return &queue.ExecutionResult{Status: models.UploadFailed, Error: fmt.Errorf("attaching document to session: %w", err)}
	}

	return &queue.ExecutionResult{
		Status: models.UploadSucceeded,
		ResultMeta: map[string]any{
			"document_id":   documentID,
			"total_clauses": structure.TotalClauses,
		},
	}
}

func (e *Executor) attachToSession(ctx context.Context, job *models.UploadJob, documentID string, structure *models.DocumentStructure) error {
	rec, state, ok, err := e.sessions.LoadSession(ctx, job.TaskID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("task %s has no session", job.TaskID)
	}

	state.Documents = append(state.Documents, models.TaskDocument{
		DocumentID: documentID,
		Role:       string(job.Role),
		Filename:   job.Filename,
		StorageKey: job.StorageKey,
	})
	if job.Role == models.RolePrimary {
		state.PrimaryStructure = structure
	}

	return e.sessions.SaveSession(ctx, job.TaskID, state, rec.GraphRunID, rec.Status)
}
