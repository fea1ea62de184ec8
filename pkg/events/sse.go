package events

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// SetSSEHeaders sets the response headers every /review/{task_id}/events
// stream needs before the first write: no buffering by an intermediate
// proxy, no caching, and the connection kept open.
func SetSSEHeaders(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
}

// WriteSSE writes one frame in the `event: <type>\n[id: <id>\n]data:
// <json>\n\n` shape and flushes it, grounded on the generator's
// _format_gen3_sse framing. w must also implement http.Flusher, which
// every net/http ResponseWriter serving a streamed response does.
func WriteSSE(w http.ResponseWriter, ev Event) error {
	data, err := json.Marshal(ev.Payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\n", ev.Type); err != nil {
		return err
	}
	if ev.ID > 0 {
		if _, err := fmt.Fprintf(w, "id: %d\n", ev.ID); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return err
	}
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}
