package events

import (
	"sync"
	"time"
)

// maxCachedEvents bounds how many events a single task's replay buffer holds;
// mirrors catchupLimit from a connection manager, which capped a
// catchup response at 200 rows for the same reason (an unbounded backlog for
// a task nobody ever reconnects to should not grow forever).
const maxCachedEvents = 200

// Cache is the per-task replay buffer: events emitted before a client
// opens /review/{task_id}/events are held here so the SSE handler can replay
// them on connect instead of the client missing everything emitted during
// upload or early review. Entries for a task are dropped once the task has
// been idle past the retention window.
type Cache struct {
	mu        sync.Mutex
	retention time.Duration
	buckets   map[string]*bucket
}

type bucket struct {
	events   []Event
	lastSeen time.Time
}

// NewCache constructs a replay cache with the given retention window (the
// gen3 "active graphs" retention, default 3600s).
func NewCache(retention time.Duration) *Cache {
	return &Cache{retention: retention, buckets: make(map[string]*bucket)}
}

// Append records ev as the most recent event for its task, trimming the
// buffer to maxCachedEvents.
func (c *Cache) Append(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.buckets[ev.TaskID]
	if !ok {
		b = &bucket{}
		c.buckets[ev.TaskID] = b
	}
	b.events = append(b.events, ev)
	if len(b.events) > maxCachedEvents {
		b.events = b.events[len(b.events)-maxCachedEvents:]
	}
	b.lastSeen = time.Now()
}

// Since returns every cached event for taskID with ID greater than afterID,
// in emission order. afterID of 0 returns the whole buffer.
func (c *Cache) Since(taskID string, afterID int64) []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.buckets[taskID]
	if !ok {
		return nil
	}
	out := make([]Event, 0, len(b.events))
	for _, ev := range b.events {
		if ev.ID > afterID {
			out = append(out, ev)
		}
	}
	return out
}

// Drop discards a task's buffer once its review is complete and no further
// replay is expected.
func (c *Cache) Drop(taskID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.buckets, taskID)
}

// Sweep evicts buckets that have been idle past the retention window. The
// caller is expected to invoke this periodically (see StartSweeper).
func (c *Cache) Sweep(now time.Time) {
	if c.retention <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for taskID, b := range c.buckets {
		if now.Sub(b.lastSeen) > c.retention {
			delete(c.buckets, taskID)
		}
	}
}

// StartSweeper runs Sweep on a ticker until stop is closed, returning the
// stop channel so callers can shut it down on process exit.
func (c *Cache) StartSweeper(interval time.Duration) (stop chan struct{}) {
	stop = make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.Sweep(time.Now())
			case <-stop:
				return
			}
		}
	}()
	return stop
}
