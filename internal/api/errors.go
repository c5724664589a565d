package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/mannaza/mannaza/internal/extract"
	"github.com/mannaza/mannaza/internal/models"
	"github.com/mannaza/mannaza/internal/service"
)

// ErrorResponse is the JSON body for all error replies
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a stable machine-readable code alongside the message
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}

// writeServiceError maps service-layer errors onto HTTP responses. Each
// failure class gets its own code so clients can distinguish "fix your input"
// from "try again later".
func writeServiceError(w http.ResponseWriter, err error) {
	var rateErr *service.RateLimitError
	if errors.As(err, &rateErr) {
		w.Header().Set("Retry-After", fmt.Sprintf("%d", int(rateErr.RetryAfter.Round(time.Second).Seconds())))
		writeError(w, http.StatusTooManyRequests, "rate_limited", rateErr.Error())
		return
	}

	var extractErr *extract.ExtractionError
	if errors.As(err, &extractErr) {
		switch extractErr.Kind {
		case extract.KindParse:
			writeError(w, http.StatusUnprocessableEntity, "extraction_parse_failed",
				"the model reply could not be understood; please rephrase and try again")
		default:
			writeError(w, http.StatusBadGateway, "extraction_unavailable",
				"time extraction is temporarily unavailable; please try again")
		}
		return
	}

	var persistErr *service.PersistError
	if errors.As(err, &persistErr) {
		log.Printf("Persist failure: %v", persistErr)
		writeError(w, http.StatusServiceUnavailable, "persist_failed",
			"could not save; your submission was not applied and is safe to retry")
		return
	}

	switch {
	case errors.Is(err, models.ErrRoomNotFound):
		writeError(w, http.StatusNotFound, "room_not_found", "room not found")
	case errors.Is(err, models.ErrInvalidInterval):
		writeError(w, http.StatusBadRequest, "invalid_interval", err.Error())
	case errors.Is(err, service.ErrEmptyMessage):
		writeError(w, http.StatusBadRequest, "empty_message", "message must not be empty")
	case errors.Is(err, service.ErrNoTimesExtracted):
		writeError(w, http.StatusUnprocessableEntity, "no_times_extracted",
			"no time information found in the message")
	case errors.Is(err, service.ErrNoDatesInScope):
		writeError(w, http.StatusUnprocessableEntity, "no_dates_in_scope",
			"the mentioned dates fall outside this room's period")
	default:
		log.Printf("Unhandled service error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}
