// Package api implements the HTTP surface of the review orchestrator: the
// /api/v3 route table, built on gin with Server-struct / Set*-wiring for
// collaborators that may attach after construction.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/cosiris15/contract-review/pkg/events"
	"github.com/cosiris15/contract-review/pkg/graph"
	"github.com/cosiris15/contract-review/pkg/plugins"
	"github.com/cosiris15/contract-review/pkg/queue"
	"github.com/cosiris15/contract-review/pkg/session"
	"github.com/cosiris15/contract-review/pkg/upload"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Server is the HTTP API server.
type Server struct {
	engine     *gin.Engine
	httpServer *http.Server

	db         *pgxpool.Pool
	sessions   *session.Manager
	uploads    *upload.Manager
	objects    upload.ObjectStore
	reviewGraph *graph.Engine
	registry   *graph.Registry
	bus        *events.Bus
	cache      *events.Cache
	plugins    *plugins.Registry
	workerPool *queue.WorkerPool // nil until set; health-only

	graphIdleWindow int64 // nanoseconds, for status reporting only

	// generatorsStarted tracks which tasks already have an events.Generator
	// poll loop running, so N concurrent SSE clients for one task share a
	// single generator instead of each spawning their own and duplicating
	// every published event.
	generatorsStarted sync.Map
}

// Deps bundles every collaborator NewServer wires into routes. All fields
// except WorkerPool are required; WorkerPool is nil when the worker pool
// lives in a separate process and is reported as absent by /healthz.
type Deps struct {
	DB          *pgxpool.Pool
	Sessions    *session.Manager
	Uploads     *upload.Manager
	Objects     upload.ObjectStore
	ReviewGraph *graph.Engine
	Registry    *graph.Registry
	Bus         *events.Bus
	Cache       *events.Cache
	Plugins     *plugins.Registry
	WorkerPool  *queue.WorkerPool
}

// NewServer wires Deps into a gin.Engine and registers every /api/v3 route.
func NewServer(deps Deps) *Server {
	gin.SetMode(gin.ReleaseMode)
	e := gin.New()
	e.Use(gin.Recovery(), requestLogger(), securityHeaders())

	s := &Server{
		engine:      e,
		db:          deps.DB,
		sessions:    deps.Sessions,
		uploads:     deps.Uploads,
		objects:     deps.Objects,
		reviewGraph: deps.ReviewGraph,
		registry:    deps.Registry,
		bus:         deps.Bus,
		cache:       deps.Cache,
		plugins:     deps.Plugins,
		workerPool:  deps.WorkerPool,
	}
	s.setupRoutes()
	return s
}

// SetWorkerPool wires the worker pool after construction, for processes
// that start the pool asynchronously from server startup.
func (s *Server) SetWorkerPool(pool *queue.WorkerPool) {
	s.workerPool = pool
}

func (s *Server) setupRoutes() {
	s.engine.GET("/healthz", s.healthzHandler)
	s.engine.GET("/version", s.versionHandler)

	v3 := s.engine.Group("/api/v3")

	review := v3.Group("/review")
	review.POST("/start", s.startReview)
	review.GET("/:task_id/status", s.reviewStatus)
	review.GET("/:task_id/pending-diffs", s.pendingDiffs)
	review.POST("/:task_id/approve", s.approveDiff)
	review.POST("/:task_id/approve-batch", s.approveBatch)
	review.POST("/:task_id/resume", s.resumeReview)
	review.POST("/:task_id/upload", s.uploadDocument)
	review.GET("/:task_id/uploads", s.listUploads)
	review.POST("/:task_id/uploads/:job_id/retry", s.retryUpload)
	review.POST("/:task_id/run", s.runReview)
	review.GET("/:task_id/events", s.reviewEvents)
	review.GET("/:task_id/result", s.reviewResult)
	review.POST("/:task_id/export", s.exportReview)

	domains := v3.Group("/domains")
	domains.GET("", s.listDomains)
	domains.GET("/:id", s.getDomain)
	domains.GET("/:id/checklist", s.getDomainChecklist)
}

// Start runs the HTTP server on addr (blocking).
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{Addr: addr, Handler: s.engine}
	return s.httpServer.ListenAndServe()
}

// StartWithListener runs the HTTP server on a pre-created listener, used by
// test infrastructure binding an OS-assigned port.
func (s *Server) StartWithListener(ln net.Listener) error {
	s.httpServer = &http.Server{Handler: s.engine}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the underlying gin.Engine, e.g. for httptest.NewServer in
// integration tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

var errTaskNotFound = errors.New("api: task not found")

func taskNotFound(taskID string) error {
	return fmt.Errorf("%w: %s", errTaskNotFound, taskID)
}
