// Package api provides the HTTP handlers for the room coordination API
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/mannaza/mannaza/internal/models"
	"github.com/mannaza/mannaza/internal/service"
)

// HealthResponse represents the response for health check endpoints
type HealthResponse struct {
	Status string `json:"status"`
}

func writeHealth(w http.ResponseWriter, status int, health string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(HealthResponse{Status: health})
}

// HealthLiveHandler handles Kubernetes liveness probe requests
func HealthLiveHandler(w http.ResponseWriter, r *http.Request) {
	writeHealth(w, http.StatusOK, "UP")
}

// HealthReadyHandler returns a readiness probe that checks the room store is
// reachable. A lookup of a room that cannot exist is expected to come back
// not-found; any other error means the backend is down.
func HealthReadyHandler(svc *service.RoomService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, err := svc.GetRoom(r.Context(), "readiness-probe")
		if err != nil && !errors.Is(err, models.ErrRoomNotFound) {
			log.Printf("Readiness check failed: %v", err)
			writeHealth(w, http.StatusServiceUnavailable, "DOWN")
			return
		}
		writeHealth(w, http.StatusOK, "UP")
	}
}
