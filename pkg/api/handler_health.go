package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cosiris15/contract-review/pkg/database"
	"github.com/cosiris15/contract-review/pkg/version"
)

// healthzResponse is GET /healthz's body, extended with the active review
// session count alongside database connection pool health.
type healthzResponse struct {
	Status         string                `json:"status"`
	Database       *database.HealthStatus `json:"database,omitempty"`
	ActiveSessions int                   `json:"active_sessions"`
	WorkerPool     *queuePoolHealth      `json:"worker_pool,omitempty"`
}

// queuePoolHealth is a narrow projection of queue.PoolHealth to avoid
// importing pkg/queue's full type into the JSON surface unadorned.
type queuePoolHealth struct {
	IsHealthy     bool `json:"is_healthy"`
	ActiveWorkers int  `json:"active_workers"`
	TotalWorkers  int  `json:"total_workers"`
	ActiveJobs    int  `json:"active_jobs"`
}

// healthzHandler handles GET /healthz: a database ping plus the active
// session count, suitable for unauthenticated liveness/readiness probes.
// Only this process's own components are checked — no LLM or object-store
// reachability — so an external collaborator outage never flaps this
// process's health.
func (s *Server) healthzHandler(c *gin.Context) {
	reqCtx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status := "healthy"
	httpStatus := http.StatusOK

	dbHealth, err := database.Health(reqCtx, s.db)
	if err != nil {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	resp := healthzResponse{Status: status, Database: dbHealth}

	if active, err := s.sessions.ListActiveSessions(reqCtx); err == nil {
		resp.ActiveSessions = len(active)
	}

	if s.workerPool != nil {
		ph := s.workerPool.Health()
		resp.WorkerPool = &queuePoolHealth{
			IsHealthy:     ph.IsHealthy,
			ActiveWorkers: ph.ActiveWorkers,
			TotalWorkers:  ph.TotalWorkers,
			ActiveJobs:    ph.ActiveJobs,
		}
	}

	resp.Status = status
	c.JSON(httpStatus, resp)
}

// versionHandler handles GET /version.
func (s *Server) versionHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"version":    version.Full(),
		"git_commit": version.GitCommit,
	})
}
