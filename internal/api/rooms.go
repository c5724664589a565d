package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/mannaza/mannaza/internal/availability"
	"github.com/mannaza/mannaza/internal/models"
	"github.com/mannaza/mannaza/internal/service"
)

// RoomHandler handles HTTP requests for room management and slot updates
type RoomHandler struct {
	service *service.RoomService
	now     func() time.Time
}

// NewRoomHandler creates a new room handler backed by the given service
func NewRoomHandler(svc *service.RoomService) *RoomHandler {
	return &RoomHandler{
		service: svc,
		now:     time.Now,
	}
}

// ServeHTTP routes room requests.
// Path formats:
//
//	/api/rooms
//	/api/rooms/{roomID}
//	/api/rooms/{roomID}/verify
//	/api/rooms/{roomID}/messages
//	/api/rooms/{roomID}/slots/{dateKey}
//	/api/rooms/{roomID}/availability
func (h *RoomHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	pathParts := strings.Split(r.URL.Path, "/")
	var roomID, sub, subArg string
	if len(pathParts) >= 4 {
		roomID = pathParts[3]
	}
	if len(pathParts) >= 5 {
		sub = pathParts[4]
	}
	if len(pathParts) >= 6 {
		subArg = pathParts[5]
	}

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/api/rooms":
		h.createRoom(w, r)
	case r.Method == http.MethodGet && roomID != "" && sub == "":
		h.getRoom(w, r, roomID)
	case r.Method == http.MethodDelete && roomID != "" && sub == "":
		h.deleteRoom(w, r, roomID)
	case r.Method == http.MethodPost && roomID != "" && sub == "verify":
		h.verifyPassword(w, r, roomID)
	case r.Method == http.MethodPost && roomID != "" && sub == "messages":
		h.postMessage(w, r, roomID)
	case r.Method == http.MethodPut && roomID != "" && sub == "slots" && subArg != "":
		h.putSlots(w, r, roomID, subArg)
	case r.Method == http.MethodGet && roomID != "" && sub == "availability":
		h.getAvailability(w, r, roomID)
	default:
		http.NotFound(w, r)
	}
}

// createRoomRequest is the body for POST /api/rooms
type createRoomRequest struct {
	Title         string `json:"title"`
	TimeFrame     string `json:"time_frame"`
	SpecificMonth int    `json:"specific_month"`
	SpecificWeek  string `json:"specific_week"`
	MemberCount   int    `json:"member_count"`
	Password      string `json:"password"`
}

// createRoom handles POST /api/rooms to create a new room
func (h *RoomHandler) createRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("Error decoding room request: %v", err)
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}
	defer r.Body.Close()

	room, err := h.service.CreateRoom(r.Context(), service.CreateRoomParams{
		Title:         req.Title,
		TimeFrame:     models.TimeFrame(req.TimeFrame),
		SpecificMonth: req.SpecificMonth,
		SpecificWeek:  req.SpecificWeek,
		MemberCount:   req.MemberCount,
		Password:      req.Password,
	})
	if err != nil {
		var persistErr *service.PersistError
		if errors.As(err, &persistErr) {
			writeServiceError(w, err)
			return
		}
		// anything else at creation time is a validation problem
		writeError(w, http.StatusBadRequest, "invalid_room", err.Error())
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(room)
}

// getRoom handles GET /api/rooms/{roomID}
func (h *RoomHandler) getRoom(w http.ResponseWriter, r *http.Request, roomID string) {
	room, err := h.service.GetRoom(r.Context(), roomID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	json.NewEncoder(w).Encode(room)
}

// deleteRoom handles DELETE /api/rooms/{roomID}
func (h *RoomHandler) deleteRoom(w http.ResponseWriter, r *http.Request, roomID string) {
	if err := h.service.DeleteRoom(r.Context(), roomID); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"message": "Room deleted successfully",
	})
}

// verifyPassword handles POST /api/rooms/{roomID}/verify
func (h *RoomHandler) verifyPassword(w http.ResponseWriter, r *http.Request, roomID string) {
	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}
	defer r.Body.Close()

	ok, err := h.service.VerifyPassword(r.Context(), roomID, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	json.NewEncoder(w).Encode(map[string]bool{"valid": ok})
}

// postMessage handles POST /api/rooms/{roomID}/messages, the natural-language
// unavailability path
func (h *RoomHandler) postMessage(w http.ResponseWriter, r *http.Request, roomID string) {
	var req struct {
		SenderID string `json:"sender_id"`
		Message  string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}
	defer r.Body.Close()

	if req.SenderID == "" {
		writeError(w, http.StatusBadRequest, "missing_sender", "sender_id is required")
		return
	}

	result, err := h.service.ProcessMessage(r.Context(), roomID, req.SenderID, req.Message)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	json.NewEncoder(w).Encode(result)
}

// putSlots handles PUT /api/rooms/{roomID}/slots/{dateKey}, the structured
// update path. The interval list in the body replaces whatever the date key
// held before.
func (h *RoomHandler) putSlots(w http.ResponseWriter, r *http.Request, roomID, dateKey string) {
	date, err := models.ParseDateKey(dateKey)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date_key", "date key must be YYYYMMDD")
		return
	}

	var req struct {
		Intervals []models.UnavailableInterval `json:"intervals"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}
	defer r.Body.Close()

	if err := h.service.ApplyUnavailableSlots(r.Context(), roomID, date, req.Intervals); err != nil {
		writeServiceError(w, err)
		return
	}

	room, err := h.service.GetRoom(r.Context(), roomID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	json.NewEncoder(w).Encode(room)
}

// availabilityResponse answers GET /api/rooms/{roomID}/availability
type availabilityResponse struct {
	Date           string                 `json:"date"`
	AvailableHours []int                  `json:"available_hours"`
	Segments       []availability.Segment `json:"segments"`
	IsAvailable    *bool                  `json:"is_available,omitempty"`
}

// getAvailability handles GET /api/rooms/{roomID}/availability?date=YYYYMMDD.
// An optional time=HH:MM parameter adds a point query for that clock time.
func (h *RoomHandler) getAvailability(w http.ResponseWriter, r *http.Request, roomID string) {
	dateKey := r.URL.Query().Get("date")
	date, err := models.ParseDateKey(dateKey)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date_key", "date parameter must be YYYYMMDD")
		return
	}

	room, err := h.service.GetRoom(r.Context(), roomID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	now := h.now()
	resp := availabilityResponse{
		Date:           dateKey,
		AvailableHours: availability.AvailableHours(date, room.UnavailableSlotsByDate, now).Sorted(),
		Segments:       availability.SegmentCoverage(date, room.UnavailableSlotsByDate, now),
	}

	if clock := r.URL.Query().Get("time"); clock != "" {
		if _, err := models.ToMinutes(clock); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_time", "time parameter must be HH:MM")
			return
		}
		free := availability.IsAvailable(date, clock, room.UnavailableSlotsByDate)
		resp.IsAvailable = &free
	}

	json.NewEncoder(w).Encode(resp)
}
