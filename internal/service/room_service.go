package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mannaza/mannaza/internal/config"
	"github.com/mannaza/mannaza/internal/extract"
	"github.com/mannaza/mannaza/internal/models"
	"github.com/mannaza/mannaza/internal/repository"
	"github.com/mannaza/mannaza/internal/utils"
)

// RoomUpdateCallback is a function type for room update callbacks
type RoomUpdateCallback func(*models.Room)

// RoomService provides business logic for rooms: creation, the password gate,
// and the merge/update path that folds extracted unavailable slots into the
// store one date key at a time.
type RoomService struct {
	repo            repository.Repository
	extractor       extract.Extractor
	limiter         *MessageLimiter
	cfg             config.ServiceConfig
	now             func() time.Time
	updateCallbacks []RoomUpdateCallback
}

// NewRoomService creates a new RoomService with the given repository and extractor
func NewRoomService(repo repository.Repository, extractor extract.Extractor, cfg config.ServiceConfig) *RoomService {
	return &RoomService{
		repo:            repo,
		extractor:       extractor,
		limiter:         NewMessageLimiter(cfg),
		cfg:             cfg,
		now:             time.Now,
		updateCallbacks: make([]RoomUpdateCallback, 0),
	}
}

// SetClock overrides the service clock, for tests
func (s *RoomService) SetClock(now func() time.Time) {
	s.now = now
	s.limiter.now = now
}

// RegisterUpdateCallback registers a callback function to be called when room data changes
func (s *RoomService) RegisterUpdateCallback(callback RoomUpdateCallback) {
	s.updateCallbacks = append(s.updateCallbacks, callback)
}

// notifyUpdate calls all registered callbacks with the updated room
func (s *RoomService) notifyUpdate(room *models.Room) {
	for _, callback := range s.updateCallbacks {
		callback(room)
	}
}

// CreateRoomParams carries the organizer's answers from the creation flow
type CreateRoomParams struct {
	Title         string
	TimeFrame     models.TimeFrame
	SpecificMonth int
	SpecificWeek  string
	MemberCount   int
	Password      string
}

// CreateRoom validates the parameters and persists a new room with an empty
// slot map. A non-empty password is stored only as a bcrypt hash.
func (s *RoomService) CreateRoom(ctx context.Context, params CreateRoomParams) (*models.Room, error) {
	now := s.now()
	room := &models.Room{
		ID:                     uuid.NewString(),
		Title:                  params.Title,
		TimeFrame:              params.TimeFrame,
		SpecificMonth:          params.SpecificMonth,
		SpecificWeek:           params.SpecificWeek,
		MemberCount:            params.MemberCount,
		UnavailableSlotsByDate: models.UnavailableSlotsByDate{},
		CreatedAt:              now,
		UpdatedAt:              now,
	}

	if params.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		room.PasswordHash = string(hash)
		room.IsPasswordProtected = true
	}

	if err := room.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.SaveRoom(ctx, room); err != nil {
		return nil, &PersistError{RetrySafe: true, Err: err}
	}

	log.Printf("Created room %s (%s)", room.ID, utils.SanitizeLogString(room.Title))
	return room, nil
}

// GetRoom retrieves a room by ID
func (s *RoomService) GetRoom(ctx context.Context, id string) (*models.Room, error) {
	return s.repo.GetRoom(ctx, id)
}

// DeleteRoom removes a room by ID
func (s *RoomService) DeleteRoom(ctx context.Context, id string) error {
	return s.repo.DeleteRoom(ctx, id)
}

// VerifyPassword checks the room's shared-secret gate. Rooms without
// protection always pass.
func (s *RoomService) VerifyPassword(ctx context.Context, roomID, password string) (bool, error) {
	room, err := s.repo.GetRoom(ctx, roomID)
	if err != nil {
		return false, err
	}

	if !room.IsPasswordProtected {
		return true, nil
	}

	err = bcrypt.CompareHashAndPassword([]byte(room.PasswordHash), []byte(password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return false, fmt.Errorf("failed to compare password: %w", err)
	}
	return true, nil
}

// ApplyUnavailableSlots replaces the room's interval list for one date with
// newIntervals. Every interval is normalized first and the whole call is
// rejected on the first invalid one; the extraction path drops bad entries
// before it gets here, so an invalid interval on this path is caller input.
// On success the updated room is always broadcast to registered callbacks; on
// a persist failure nothing is broadcast, so local and remote state cannot
// diverge.
func (s *RoomService) ApplyUnavailableSlots(ctx context.Context, roomID string, date time.Time, intervals []models.UnavailableInterval) error {
	normalized := make([]models.UnavailableInterval, 0, len(intervals))
	for _, interval := range intervals {
		n, err := interval.Normalize()
		if err != nil {
			return err
		}
		normalized = append(normalized, n)
	}

	room, err := s.repo.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}

	dateKey := models.DateKey(date)
	if err := s.repo.SetUnavailableSlots(ctx, roomID, dateKey, normalized); err != nil {
		if errors.Is(err, models.ErrRoomNotFound) {
			return err
		}
		return &PersistError{RetrySafe: true, Err: err}
	}

	// broadcast the stored state; if the reload fails the write still landed,
	// so patch the pre-write snapshot rather than dropping the notification
	updated, err := s.repo.GetRoom(ctx, roomID)
	if err != nil {
		log.Printf("Error reloading room %s after slot update: %v", roomID, err)
		slots := room.UnavailableSlotsByDate.Clone()
		if slots == nil {
			slots = models.UnavailableSlotsByDate{}
		}
		slots[dateKey] = normalized
		room.UnavailableSlotsByDate = slots
		updated = room
	}
	s.notifyUpdate(updated)
	return nil
}

// MessageResult summarizes one processed natural-language message
type MessageResult struct {
	// AppliedDates holds the date keys whose interval lists were replaced
	AppliedDates []string `json:"applied_dates"`
	// SkippedDates holds extracted date keys outside the room's period
	SkippedDates []string `json:"skipped_dates,omitempty"`
}

// ProcessMessage runs the full pipeline for one participant message: rate
// limit, extraction, optional period filtering, then a per-date replace of the
// room's unavailable slots. Updates to a date key are last-write-wins; two
// concurrent messages touching the same date race and the later store arrival
// wins.
func (s *RoomService) ProcessMessage(ctx context.Context, roomID, senderID, message string) (*MessageResult, error) {
	if message == "" {
		return nil, ErrEmptyMessage
	}

	if err := s.limiter.Allow(senderID); err != nil {
		return nil, err
	}

	room, err := s.repo.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	extracted, err := s.extractor.Extract(ctx, extract.Request{
		Message:    message,
		Now:        now,
		TargetDate: s.targetDate(room, now),
		Existing:   room.UnavailableSlotsByDate,
	})
	if err != nil {
		return nil, err
	}

	if len(extracted) == 0 {
		return nil, ErrNoTimesExtracted
	}

	dateKeys := make([]string, 0, len(extracted))
	for key := range extracted {
		dateKeys = append(dateKeys, key)
	}
	sort.Strings(dateKeys)

	result := &MessageResult{}
	for _, dateKey := range dateKeys {
		intervals := extracted[dateKey]
		if len(intervals) == 0 {
			continue
		}

		date, err := models.ParseDateKey(dateKey)
		if err != nil {
			log.Printf("Skipping extracted entry with bad date key %s: %v", utils.SanitizeLogString(dateKey), err)
			continue
		}

		if s.cfg.FilterToPeriod && !room.ContainsDate(date, now) {
			result.SkippedDates = append(result.SkippedDates, dateKey)
			continue
		}

		if err := s.ApplyUnavailableSlots(ctx, roomID, date, intervals); err != nil {
			return result, err
		}
		result.AppliedDates = append(result.AppliedDates, dateKey)
	}

	if len(result.AppliedDates) == 0 {
		if len(result.SkippedDates) > 0 {
			return result, ErrNoDatesInScope
		}
		return nil, ErrNoTimesExtracted
	}

	log.Printf("Applied %d date(s) from message by %s in room %s",
		len(result.AppliedDates), utils.SanitizeLogString(senderID), roomID)
	return result, nil
}

// targetDate anchors the room's committed period as a concrete date for the
// extraction prompt: the first day of the room's month in the current year.
func (s *RoomService) targetDate(room *models.Room, now time.Time) time.Time {
	month := room.SpecificMonth
	if month < 1 || month > 12 {
		return now
	}
	return time.Date(now.Year(), time.Month(month), 1, 0, 0, 0, 0, now.Location())
}
