package api

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cosiris15/contract-review/pkg/events"
)

// reviewEvents handles GET /review/{task_id}/events: an SSE stream of the
// closed event-type set in pkg/events, replaying anything cached since
// Last-Event-ID before switching to the live subscription. Ensures exactly
// one events.Generator poll loop runs per task regardless of how many
// clients connect.
func (s *Server) reviewEvents(c *gin.Context) {
	taskID := c.Param("task_id")
	events.SetSSEHeaders(c.Writer)

	s.ensureGeneratorRunning(taskID)

	afterID := int64(0)
	if last := c.GetHeader("Last-Event-ID"); last != "" {
		if parsed, err := strconv.ParseInt(last, 10, 64); err == nil {
			afterID = parsed
		}
	}

	for _, ev := range s.bus.Replay(taskID, afterID) {
		if err := events.WriteSSE(c.Writer, ev); err != nil {
			return
		}
	}

	ch, cancel := s.bus.Subscribe(taskID)
	defer cancel()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if err := events.WriteSSE(c.Writer, ev); err != nil {
				return
			}
			if ev.Type == events.TypeReviewComplete || ev.Type == events.TypeReviewError {
				return
			}
		}
	}
}

// ensureGeneratorRunning starts the per-task SSE generator poll loop the
// first time any client subscribes to taskID; it runs for the process
// lifetime of the review, independent of any one client's connection.
func (s *Server) ensureGeneratorRunning(taskID string) {
	if _, loaded := s.generatorsStarted.LoadOrStore(taskID, struct{}{}); loaded {
		return
	}
	generator := events.NewGenerator(s.sessions, s.bus)
	go func() {
		defer s.generatorsStarted.Delete(taskID)
		_ = generator.Run(context.Background(), taskID)
	}()
}
