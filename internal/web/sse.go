// Package web provides the real-time event surface: connected calendar views
// subscribe to a room's stream and receive the full updated room state
// whenever anyone's unavailability changes.
package web

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/r3labs/sse/v2"

	"github.com/mannaza/mannaza/internal/models"
)

// SSEHub fans room updates out to subscribed clients over server-sent events.
// Streams are created on demand, one per room; replay is disabled because each
// event carries complete room state, so a late subscriber only needs the next
// one.
type SSEHub struct {
	server *sse.Server
}

// NewSSEHub creates a hub ready to accept subscriptions
func NewSSEHub() *SSEHub {
	server := sse.New()
	server.AutoReplay = false
	server.AutoStream = true

	return &SSEHub{server: server}
}

// SetupRoutes registers the event endpoint on the given mux. Clients subscribe
// with GET /events?stream={roomID}.
func (h *SSEHub) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/events", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("X-Accel-Buffering", "no")

		if r.URL.Query().Get("stream") == "" {
			http.Error(w, "stream parameter is required", http.StatusBadRequest)
			return
		}
		h.server.ServeHTTP(w, r)
	})
}

// NotifyRoomUpdate publishes the room's current state to its stream. Intended
// to be registered as a room service update callback.
func (h *SSEHub) NotifyRoomUpdate(room *models.Room) {
	data, err := json.Marshal(room)
	if err != nil {
		log.Printf("Error marshalling room %s for SSE: %v", room.ID, err)
		return
	}

	h.server.CreateStream(room.ID)
	h.server.Publish(room.ID, &sse.Event{
		Event: []byte("room-update"),
		Data:  data,
	})
}

// Shutdown closes all client connections and streams
func (h *SSEHub) Shutdown() {
	h.server.Close()
}
