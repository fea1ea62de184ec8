package api

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cosiris15/contract-review/pkg/models"
)

// uploadDocument handles POST /review/{task_id}/upload: the file is stored
// immediately and the ingestion job is queued, but document_id stays null
// in the response — parsing happens asynchronously in the worker pool (see
// pkg/document.Executor).
func (s *Server) uploadDocument(c *gin.Context) {
	taskID := c.Param("task_id")
	if _, _, ok, err := s.sessions.LoadSession(c.Request.Context(), taskID); err != nil {
		writeError(c, err)
		return
	} else if !ok {
		notFound(c, taskNotFound(taskID).Error())
		return
	}

	role := models.UploadRole(c.DefaultPostForm("role", string(models.RolePrimary)))
	ourParty := c.PostForm("our_party")
	language := c.DefaultPostForm("language", "en")

	fileHeader, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "missing multipart field \"file\": "+err.Error())
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		writeError(c, err)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		writeError(c, err)
		return
	}

	storageKey, err := s.objects.Put(c.Request.Context(), data)
	if err != nil {
		writeError(c, err)
		return
	}

	job, err := s.uploads.CreateJob(c.Request.Context(), taskID, role, fileHeader.Filename, storageKey, ourParty, language)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, uploadResponse{JobID: job.JobID, Status: string(job.Status), DocumentID: nil})
}

// listUploads handles GET /review/{task_id}/uploads.
func (s *Server) listUploads(c *gin.Context) {
	taskID := c.Param("task_id")
	jobs, err := s.uploads.GetJobsByTask(c.Request.Context(), taskID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task_id": taskID, "uploads": jobs})
}

// retryUpload handles POST /review/{task_id}/uploads/{job_id}/retry: 400
// unless the job's current status is failed.
func (s *Server) retryUpload(c *gin.Context) {
	jobID := c.Param("job_id")
	if err := s.uploads.MarkJobQueued(c.Request.Context(), jobID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"job_id": jobID, "status": string(models.UploadQueued)})
}
