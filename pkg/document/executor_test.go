package document

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cosiris15/contract-review/pkg/models"
	"github.com/cosiris15/contract-review/pkg/session"
	"github.com/cosiris15/contract-review/pkg/upload"
)

func newTestExecutor() (*Executor, *upload.MemoryObjectStore, *upload.Manager, *session.Manager) {
	objects := upload.NewMemoryObjectStore()
	uploads := upload.NewManager(upload.NewMemoryStore())
	sessions := session.NewManager(session.NewMemoryStore())
	return NewExecutor(objects, uploads, sessions), objects, uploads, sessions
}

func TestExecutor_AttachesPrimaryDocumentToSessionState(t *testing.T) {
	ctx := context.Background()
	exec, objects, uploads, sessions := newTestExecutor()

	require.NoError(t, sessions.SaveSession(ctx, "task-1", &models.GraphState{}, "run-1", ""))

	key, err := objects.Put(ctx, []byte(threeClauseContract))
	require.NoError(t, err)
	job, err := uploads.CreateJob(ctx, "task-1", models.RolePrimary, "contract.txt", key, "Acme Inc", "en")
	require.NoError(t, err)

	result := exec.Execute(ctx, job)
	require.NoError(t, result.Error)
	assert.Equal(t, models.UploadSucceeded, result.Status)
	documentID, _ := result.ResultMeta["document_id"].(string)
	assert.NotEmpty(t, documentID)
	assert.Equal(t, 3, result.ResultMeta["total_clauses"])

	_, state, ok, err := sessions.LoadSession(ctx, "task-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, state.PrimaryStructure)
	assert.Equal(t, 3, state.PrimaryStructure.TotalClauses)
	require.Len(t, state.Documents, 1)
	assert.Equal(t, documentID, state.Documents[0].DocumentID)
	assert.Equal(t, "contract.txt", state.Documents[0].Filename)
}

func TestExecutor_ReferenceDocumentDoesNotSetPrimaryStructure(t *testing.T) {
	ctx := context.Background()
	exec, objects, uploads, sessions := newTestExecutor()

	require.NoError(t, sessions.SaveSession(ctx, "task-2", &models.GraphState{}, "run-2", ""))

	key, err := objects.Put(ctx, []byte(threeClauseContract))
	require.NoError(t, err)
	job, err := uploads.CreateJob(ctx, "task-2", models.RoleReference, "benchmark.txt", key, "", "en")
	require.NoError(t, err)

	result := exec.Execute(ctx, job)
	require.NoError(t, result.Error)
	assert.Equal(t, models.UploadSucceeded, result.Status)

	_, state, ok, err := sessions.LoadSession(ctx, "task-2")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Nil(t, state.PrimaryStructure)
	require.Len(t, state.Documents, 1)
	assert.Equal(t, "reference", state.Documents[0].Role)
}

func TestExecutor_FailsWhenObjectMissing(t *testing.T) {
	ctx := context.Background()
	exec, _, uploads, sessions := newTestExecutor()

	require.NoError(t, sessions.SaveSession(ctx, "task-3", &models.GraphState{}, "run-3", ""))
	job, err := uploads.CreateJob(ctx, "task-3", models.RolePrimary, "missing.txt", "no-such-key", "", "en")
	require.NoError(t, err)

	result := exec.Execute(ctx, job)
	assert.Equal(t, models.UploadFailed, result.Status)
	require.Error(t, result.Error)
}

func TestExecutor_FailsWhenTaskHasNoSession(t *testing.T) {
	ctx := context.Background()
	exec, objects, uploads, _ := newTestExecutor()

	key, err := objects.Put(ctx, []byte(threeClauseContract))
	require.NoError(t, err)
	job, err := uploads.CreateJob(ctx, "task-unknown", models.RolePrimary, "contract.txt", key, "", "en")
	require.NoError(t, err)

	result := exec.Execute(ctx, job)
	assert.Equal(t, models.UploadFailed, result.Status)
	require.Error(t, result.Error)
}
