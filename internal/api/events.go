// ABOUTME: Server-Sent Events stream of inventory change notifications
// ABOUTME: Bridges synchronous inventory observers to a buffered per-client channel

package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/2389/store-inventory/internal/contract"
	"github.com/2389/store-inventory/internal/inventory"
)

// eventBuffer is the number of changes queued per client before new ones
// are dropped.
const eventBuffer = 64

// ChangeEvent is the JSON data of a "change" SSE event.
type ChangeEvent struct {
	Resource string `json:"resource"`
	Kind     string `json:"kind"`
	ID       int64  `json:"id,omitempty"`
	Rows     int64  `json:"rows"`
}

func changeEvent(c inventory.Change) ChangeEvent {
	return ChangeEvent{
		Resource: c.Resource.String(),
		Kind:     string(c.Kind),
		ID:       c.ID,
		Rows:     c.Rows,
	}
}

// handleEvents handles GET /api/events[?resource=items/3]. It sends a
// "ready" event with the subscription id, then one "change" event per
// notification until the client disconnects.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	res := contract.Collection()
	if raw := r.URL.Query().Get("resource"); raw != "" {
		parsed, err := contract.ParseResource(raw)
		if err != nil {
			s.sendJSONError(w, http.StatusBadRequest, "invalid resource")
			return
		}
		res = parsed
	}

	// Check streaming support before subscribing (fail fast)
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.logger.Error("streaming not supported")
		s.sendJSONError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	events := make(chan inventory.Change, eventBuffer)
	subID, err := s.inventory.Subscribe(r.Context(), res, inventory.ObserverFunc(func(c inventory.Change) {
		// Observers run on the writer's goroutine, so never block here
		select {
		case events <- c:
		default:
			s.logger.Warn("dropping change for slow event client", "resource", c.Resource.String())
		}
	}))
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	defer s.inventory.Unsubscribe(subID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	s.writeSSEEvent(w, "ready", map[string]string{
		"subscription_id": subID,
		"resource":        res.String(),
	})
	flusher.Flush()

	s.logger.Debug("event client connected", "resource", res.String(), "sub_id", subID)

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("event client disconnected", "sub_id", subID)
			return
		case <-s.done:
			s.writeSSEEvent(w, "shutdown", map[string]string{})
			flusher.Flush()
			return
		case c := <-events:
			s.writeSSEEvent(w, "change", changeEvent(c))
			flusher.Flush()
		}
	}
}

// formatSSEEvent formats an SSE event with the standard format:
// event: <eventType>\ndata: <data>\n\n
func formatSSEEvent(eventType, data string) string {
	return fmt.Sprintf("event: %s\ndata: %s\n\n", eventType, data)
}

// writeSSEEvent writes a single SSE event to the response writer.
func (s *Server) writeSSEEvent(w http.ResponseWriter, event string, data any) {
	dataJSON, err := json.Marshal(data)
	if err != nil {
		s.logger.Error("failed to marshal SSE data", "error", err)
		return
	}

	_, _ = fmt.Fprint(w, formatSSEEvent(event, string(dataJSON)))
}
