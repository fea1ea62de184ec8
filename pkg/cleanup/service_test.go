package cleanup

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cosiris15/contract-review/pkg/events"
	"github.com/cosiris15/contract-review/pkg/models"
	"github.com/cosiris15/contract-review/pkg/session"
)

func newTestManager() *session.Manager {
	return session.NewManager(session.NewMemoryStore())
}

func TestService_KeepsCompletedSessionsWithinRetention(t *testing.T) {
	mgr := newTestManager()
	ctx := context.Background()

	require.NoError(t, mgr.SaveSession(ctx, "task-1", &models.GraphState{TaskID: "task-1", IsComplete: true}, "", ""))
	require.NoError(t, mgr.MarkSessionCompleted(ctx, "task-1"))

	svc := NewService(24*time.Hour, time.Hour, mgr, events.NewCache(time.Hour))
	svc.runAll(ctx)

	_, _, ok, err := mgr.LoadSession(ctx, "task-1")
	require.NoError(t, err)
	assert.True(t, ok, "session within retention window must survive")
}

func TestService_PreservesActiveSessions(t *testing.T) {
	mgr := newTestManager()
	ctx := context.Background()

	require.NoError(t, mgr.SaveSession(ctx, "task-active", &models.GraphState{TaskID: "task-active"}, "", ""))

	svc := NewService(time.Nanosecond, time.Hour, mgr, events.NewCache(time.Hour))
	svc.runAll(ctx)

	_, _, ok, err := mgr.LoadSession(ctx, "task-active")
	require.NoError(t, err)
	assert.True(t, ok, "an in-progress session must never be purged regardless of age")
}

func TestService_PurgesStaleFailedSessions(t *testing.T) {
	mgr := newTestManager()
	ctx := context.Background()

	require.NoError(t, mgr.SaveSession(ctx, "task-fail", &models.GraphState{TaskID: "task-fail"}, "", ""))
	require.NoError(t, mgr.MarkSessionFailed(ctx, "task-fail", "boom"))

	svc := NewService(time.Nanosecond, time.Hour, mgr, events.NewCache(time.Hour))
	time.Sleep(time.Millisecond)
	svc.runAll(ctx)

	_, _, ok, err := mgr.LoadSession(ctx, "task-fail")
	require.NoError(t, err)
	assert.False(t, ok, "a failed session past the retention window must be purged")
}

func TestService_StartStopIsIdempotent(t *testing.T) {
	mgr := newTestManager()
	svc := NewService(time.Hour, time.Minute, mgr, events.NewCache(time.Hour))
	ctx := context.Background()

	svc.Start(ctx)
	svc.Start(ctx) // second Start is a no-op, must not panic or deadlock
	svc.Stop()
	svc.Stop() // second Stop is also a no-op
}
