package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/mannaza/mannaza/internal/models"
	"github.com/mannaza/mannaza/internal/service"
)

// SetupRoutes configures the HTTP routes for the API
func SetupRoutes(svc *service.RoomService) *http.ServeMux {
	mux := http.NewServeMux()

	// Health check endpoints for Kubernetes; readiness exercises the store
	mux.HandleFunc("/health/live", HealthLiveHandler)
	mux.HandleFunc("/health/ready", HealthReadyHandler(svc))

	// Week choices offered during room creation
	mux.HandleFunc("/api/week-options", WeekOptionsHandler)

	// Room management and slot update endpoints
	roomHandler := NewRoomHandler(svc)
	mux.Handle("/api/rooms", roomHandler)
	mux.Handle("/api/rooms/", roomHandler)

	return mux
}

// WeekOptionsHandler handles GET /api/week-options?month=N, returning the week
// labels still selectable for that month. Fully-past weeks are left out.
func WeekOptionsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil || month < 1 || month > 12 {
		writeError(w, http.StatusBadRequest, "invalid_month", "month must be 1-12")
		return
	}

	options := models.WeekOptions(month, time.Now())
	if options == nil {
		options = []string{}
	}
	json.NewEncoder(w).Encode(map[string][]string{"weeks": options})
}
