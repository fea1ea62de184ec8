package events

import (
	"context"
	"sync"
	"sync/atomic"
)

// subscriberBuffer bounds how many unconsumed events a slow SSE client can
// fall behind by before the bus starts skipping events for it; the client's next replay
// (via the Cache) recovers whatever it missed, same role as a
// catchup path for a connection that fell behind on a PG NOTIFY channel.
const subscriberBuffer = 32

// Bus is the in-process pub-sub fan-out: graph nodes, the upload manager and
// the approval handlers Publish into it, and the SSE handler Subscribes to
// receive events for one task. It is the review-domain replacement for the
// teacher's ConnectionManager, adapted from a WebSocket-registry-of-clients
// shape to a channel-registry-of-subscribers shape because the external
// transport here is SSE, not WebSocket (see relay.go for where
// coder/websocket is still exercised, as a cross-replica relay).
type Bus struct {
	cache *Cache

	mu   sync.Mutex
	subs map[string]map[int]chan Event // taskID -> subID -> chan
	next int

	nextEventID int64
}

var _ Publisher = (*Bus)(nil)

// NewBus constructs a Bus backed by cache for replay.
func NewBus(cache *Cache) *Bus {
	return &Bus{cache: cache, subs: make(map[string]map[int]chan Event)}
}

// Publish assigns the event the next monotonically increasing ID, appends it
// to the replay cache, and fans it out to every live subscriber for taskID.
// A subscriber whose channel is full is skipped rather than blocked — see
// subscriberBuffer.
func (b *Bus) Publish(ctx context.Context, taskID string, eventType Type, payload any) Event {
	ev := Event{
		ID:      atomic.AddInt64(&b.nextEventID, 1),
		Type:    eventType,
		TaskID:  taskID,
		Payload: payload,
	}
	if b.cache != nil {
		b.cache.Append(ev)
	}

	b.mu.Lock()
	subs := make([]chan Event, 0, len(b.subs[taskID]))
	for _, ch := range b.subs[taskID] {
		subs = append(subs, ch)
	}
	b.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- ev:
		case <-ctx.Done():
			return ev
		default:
		}
	}
	return ev
}

// Subscribe registers a new subscriber for taskID and returns a receive-only
// channel of its events plus a cancel func that must be called to unregister
// and release the channel.
func (b *Bus) Subscribe(taskID string) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	id := b.next
	b.next++
	if b.subs[taskID] == nil {
		b.subs[taskID] = make(map[int]chan Event)
	}
	b.subs[taskID][id] = ch
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if m, ok := b.subs[taskID]; ok {
			delete(m, id)
			if len(m) == 0 {
				delete(b.subs, taskID)
			}
		}
	}
	return ch, cancel
}

// Replay returns cached events for taskID after afterID, for an SSE handler
// to send before it starts reading from Subscribe's channel.
func (b *Bus) Replay(taskID string, afterID int64) []Event {
	if b.cache == nil {
		return nil
	}
	return b.cache.Since(taskID, afterID)
}

// SubscriberCount reports how many live subscribers a task currently has;
// mirrors subscriberCount, used in tests and diagnostics.
func (b *Bus) SubscriberCount(taskID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[taskID])
}
