package notification

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/quorumhq/notify/pkg/logger"
	"github.com/quorumhq/notify/pkg/registry"
	"github.com/quorumhq/notify/pkg/response"
)

// heartbeatInterval is how often the live stream emits a heartbeat frame.
// It also refreshes the registry's liveness timestamp, so it must stay well
// below the registry's heartbeat TTL.
const heartbeatInterval = 25 * time.Second

// liveStream handles GET /api/live/{identity}: it registers the identity in
// the delivery registry and streams its events as server-sent events until
// the client disconnects or the connection is superseded.
func (h *Handler) liveStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		response.Error(w, response.ErrInternalServerError)
		return
	}

	identity := chi.URLParam(r, "identity")
	conn := h.live.Connect(identity)
	defer h.live.DisconnectConn(conn)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	writeSSE(w, registry.Event{Type: EventConnected, Data: map[string]any{
		"identity": identity,
		"conn_id":  conn.ID(),
	}})
	flusher.Flush()

	h.log.LogAttrs(r.Context(), slog.LevelDebug, "live stream opened",
		logger.Recipient(identity),
	)

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			h.live.Heartbeat(identity)
			writeSSE(w, registry.Event{Type: EventHeartbeat})
			flusher.Flush()
		case ev, open := <-conn.Events():
			if !open {
				// Superseded by a newer connection or swept by the registry.
				return
			}
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

// writeSSE renders one event as an SSE frame. The frame's event field carries
// the type so clients can use addEventListener; the data line carries the
// payload as JSON.
func writeSSE(w http.ResponseWriter, ev registry.Event) {
	payload, err := json.Marshal(ev.Data)
	if err != nil {
		payload = []byte("{}")
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, payload)
}
