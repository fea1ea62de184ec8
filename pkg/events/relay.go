package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
)

// relayWriteTimeout bounds a single frame send to a peer relay connection,
// same role as ConnectionManager.writeTimeout.
const relayWriteTimeout = 5 * time.Second

// wireEvent is Event's over-the-wire shape for the relay link: Event itself
// carries Payload as `any` with json:"-" tags (SSE encodes type/payload
// separately, see sse.go), so the relay needs its own envelope.
type wireEvent struct {
	ID      int64           `json:"id"`
	Type    Type            `json:"type"`
	TaskID  string          `json:"task_id"`
	Payload json.RawMessage `json:"payload"`
}

// RelayServer exposes this process's Bus over WebSocket so that another
// replica holding a subscriber for a task this process published to (e.g.
// one pod ran the graph, another pod's SSE handler serves the client) can
// mirror the event stream instead of missing it. This is the one place
// coder/websocket is exercised: the client-facing protocol is SSE, not
// WebSocket, but a pod-to-pod relay link has no HTTP/1.1
// streaming-response constraints, so a plain bidirectional socket fits.
type RelayServer struct {
	bus *Bus
}

// NewRelayServer constructs a relay server over bus.
func NewRelayServer(bus *Bus) *RelayServer {
	return &RelayServer{bus: bus}
}

// ServeHTTP upgrades the request to a WebSocket and streams every event
// Published for the task named by the "task_id" query parameter until the
// connection closes or the request's context is done.
func (s *RelayServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	taskID := r.URL.Query().Get("task_id")
	if taskID == "" {
		http.Error(w, "task_id is required", http.StatusBadRequest)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()
	ch, cancel := s.bus.Subscribe(taskID)
	defer cancel()

	for _, ev := range s.bus.Replay(taskID, 0) {
		if err := writeWireEvent(ctx, conn, ev); err != nil {
			return
		}
	}

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "")
			return
		case ev, ok := <-ch:
			if !ok {
				_ = conn.Close(websocket.StatusNormalClosure, "")
				return
			}
			if err := writeWireEvent(ctx, conn, ev); err != nil {
				slog.Warn("relay write failed", "task_id", taskID, "error", err)
				return
			}
		}
	}
}

func writeWireEvent(ctx context.Context, conn *websocket.Conn, ev Event) error {
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		return err
	}
	data, err := json.Marshal(wireEvent{ID: ev.ID, Type: ev.Type, TaskID: ev.TaskID, Payload: payload})
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, relayWriteTimeout)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageText, data)
}

// RelayClient dials a peer's RelayServer and republishes every event it
// receives into a local Bus, so a subscriber on this process sees events
// that were actually Published on the peer.
type RelayClient struct {
	bus *Bus
}

// NewRelayClient constructs a client that republishes into bus.
func NewRelayClient(bus *Bus) *RelayClient {
	return &RelayClient{bus: bus}
}

// Connect dials peerURL (ws://host:port/path?task_id=...) and republishes
// events until ctx is cancelled or the connection drops, returning the error
// that ended the loop (nil on clean shutdown via ctx).
func (c *RelayClient) Connect(ctx context.Context, peerURL string) error {
	conn, _, err := websocket.Dial(ctx, peerURL, nil)
	if err != nil {
		return err
	}
	defer conn.CloseNow()

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		var we wireEvent
		if err := json.Unmarshal(data, &we); err != nil {
			continue
		}
		var payload any
		_ = json.Unmarshal(we.Payload, &payload)
		c.bus.Publish(ctx, we.TaskID, we.Type, payload)
	}
}
