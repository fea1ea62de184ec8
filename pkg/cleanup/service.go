// Package cleanup enforces the graph/event retention window by periodically
// purging completed and failed review_sessions rows, and sweeping the
// in-process event replay cache.
package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/cosiris15/contract-review/pkg/events"
	"github.com/cosiris15/contract-review/pkg/session"
)

// Service periodically enforces the retention window:
//   - deletes review_sessions completed/failed longer ago than the window
//   - sweeps the event cache of buckets idle longer than the window
//
// Both operations are idempotent and safe to run from multiple processes.
type Service struct {
	retention time.Duration
	interval  time.Duration
	sessions  *session.Manager
	cache     *events.Cache

	cancel context.CancelFunc
	done   chan struct{}
}

// NewService creates a new cleanup service. retention is the graph/event
// idle window (config.RetentionConfig.GraphIdleWindow); interval controls
// how often the sweep runs.
func NewService(retention, interval time.Duration, sessions *session.Manager, cache *events.Cache) *Service {
	return &Service{
		retention: retention,
		interval:  interval,
		sessions:  sessions,
		cache:     cache,
	}
}

// Start launches the background cleanup loop.
func (s *Service) Start(ctx context.Context) {
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go s.run(ctx)

	slog.Info("cleanup service started", "retention", s.retention, "interval", s.interval)
}

// Stop signals the cleanup loop to exit and waits for it to finish.
func (s *Service) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	slog.Info("cleanup service stopped")
}

func (s *Service) run(ctx context.Context) {
	defer close(s.done)

	s.runAll(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runAll(ctx)
		}
	}
}

func (s *Service) runAll(ctx context.Context) {
	s.purgeStaleSessions(ctx)
	if s.cache != nil {
		s.cache.Sweep(time.Now())
	}
}

func (s *Service) purgeStaleSessions(ctx context.Context) {
	count, err := s.sessions.PurgeStale(ctx, s.retention)
	if err != nil {
		slog.Error("retention: purging stale sessions failed", "error", err)
		return
	}
	if count > 0 {
		slog.Info("retention: purged stale review sessions", "count", count)
	}
}
