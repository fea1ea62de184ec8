package events

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cosiris15/contract-review/pkg/models"
)

func TestCache_SinceFiltersByID(t *testing.T) {
	c := NewCache(time.Hour)
	c.Append(Event{ID: 1, TaskID: "t1", Type: TypeReviewProgress})
	c.Append(Event{ID: 2, TaskID: "t1", Type: TypeDiffProposed})
	c.Append(Event{ID: 1, TaskID: "t2", Type: TypeReviewProgress})

	got := c.Since("t1", 1)
	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].ID)

	assert.Len(t, c.Since("t1", 0), 2)
	assert.Empty(t, c.Since("missing", 0))
}

func TestCache_TrimsToMaxAndSweepsIdle(t *testing.T) {
	c := NewCache(time.Millisecond)
	for i := 0; i < maxCachedEvents+10; i++ {
		c.Append(Event{ID: int64(i + 1), TaskID: "t1"})
	}
	assert.Len(t, c.Since("t1", 0), maxCachedEvents)

	time.Sleep(5 * time.Millisecond)
	c.Sweep(time.Now())
	assert.Empty(t, c.Since("t1", 0))
}

func TestCache_DropRemovesBucket(t *testing.T) {
	c := NewCache(time.Hour)
	c.Append(Event{ID: 1, TaskID: "t1"})
	c.Drop("t1")
	assert.Empty(t, c.Since("t1", 0))
}

func TestBus_PublishDeliversToSubscriberAndCache(t *testing.T) {
	b := NewBus(NewCache(time.Hour))
	ch, cancel := b.Subscribe("t1")
	defer cancel()

	ev := b.Publish(context.Background(), "t1", TypeReviewProgress, ReviewProgressPayload{TaskID: "t1"})
	assert.Equal(t, TypeReviewProgress, ev.Type)

	select {
	case got := <-ch:
		assert.Equal(t, ev.ID, got.ID)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for subscriber delivery")
	}

	assert.Len(t, b.Replay("t1", 0), 1)
}

func TestBus_UnsubscribedTasksGetNoDelivery(t *testing.T) {
	b := NewBus(NewCache(time.Hour))
	b.Publish(context.Background(), "t1", TypeReviewProgress, nil)
	assert.Equal(t, 0, b.SubscriberCount("t1"))
}

func TestBus_CancelRemovesSubscriber(t *testing.T) {
	b := NewBus(NewCache(time.Hour))
	_, cancel := b.Subscribe("t1")
	require.Equal(t, 1, b.SubscriberCount("t1"))
	cancel()
	assert.Equal(t, 0, b.SubscriberCount("t1"))
}

type fakeReader struct {
	mu     sync.Mutex
	states map[string]*models.GraphState
}

func (r *fakeReader) set(taskID string, s *models.GraphState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.states == nil {
		r.states = map[string]*models.GraphState{}
	}
	r.states[taskID] = s
}

func (r *fakeReader) Load(_ context.Context, taskID string) (*models.GraphState, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.states[taskID]
	return s, ok, nil
}

func TestGenerator_EmitsProgressDiffsAndComplete(t *testing.T) {
	reader := &fakeReader{}
	reader.set("t1", &models.GraphState{
		TaskID:             "t1",
		CurrentClauseIndex: 1,
		ReviewChecklist:    []models.ChecklistItem{{ClauseID: "1"}, {ClauseID: "2"}},
		PendingDiffs:       []models.Diff{{DiffID: "d1"}},
		IsComplete:         true,
	})

	bus := NewBus(NewCache(time.Hour))
	sub, cancel := bus.Subscribe("t1")
	defer cancel()

	g := NewGenerator(reader, bus)
	g.PollInterval = time.Millisecond
	require.NoError(t, g.Run(context.Background(), "t1"))

	var types []Type
	for {
		select {
		case ev := <-sub:
			types = append(types, ev.Type)
		default:
			goto done
		}
	}
done:
	assert.Contains(t, types, TypeReviewProgress)
	assert.Contains(t, types, TypeDiffProposed)
	assert.Contains(t, types, TypeApprovalRequired)
	assert.Contains(t, types, TypeReviewComplete)
}

func TestGenerator_EmitsErrorWhenTaskMissing(t *testing.T) {
	reader := &fakeReader{}
	bus := NewBus(NewCache(time.Hour))
	sub, cancel := bus.Subscribe("ghost")
	defer cancel()

	g := NewGenerator(reader, bus)
	require.NoError(t, g.Run(context.Background(), "ghost"))

	select {
	case ev := <-sub:
		assert.Equal(t, TypeReviewError, ev.Type)
	case <-time.After(time.Second):
		t.Fatal("expected a review_error event")
	}
}

func TestGenerator_StopsOnStateError(t *testing.T) {
	reader := &fakeReader{}
	reader.set("t1", &models.GraphState{TaskID: "t1", Error: "clause analysis failed"})
	bus := NewBus(NewCache(time.Hour))
	sub, cancel := bus.Subscribe("t1")
	defer cancel()

	g := NewGenerator(reader, bus)
	require.NoError(t, g.Run(context.Background(), "t1"))

	for {
		select {
		case ev := <-sub:
			if ev.Type == TypeReviewProgress {
				continue
			}
			assert.Equal(t, TypeReviewError, ev.Type)
			assert.Equal(t, ReviewErrorPayload{Message: "clause analysis failed"}, ev.Payload)
			return
		case <-time.After(time.Second):
			t.Fatal("expected a review_error event")
		}
	}
}

func TestWriteSSE_FormatsFrame(t *testing.T) {
	rec := httptest.NewRecorder()
	SetSSEHeaders(rec)
	err := WriteSSE(rec, Event{ID: 7, Type: TypeReviewProgress, Payload: ReviewProgressPayload{TaskID: "t1"}})
	require.NoError(t, err)

	body := rec.Body.String()
	assert.Contains(t, body, "event: review_progress\n")
	assert.Contains(t, body, "id: 7\n")
	assert.Contains(t, body, `"task_id":"t1"`)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
}
