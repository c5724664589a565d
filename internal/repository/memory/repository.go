// Package memory provides an in-memory implementation of the room repository
package memory

import (
	"context"
	"sync"

	"github.com/mannaza/mannaza/internal/models"
)

// roomRecord is the stored form of a room; slots live beside the room so a
// per-date-key replace never rewrites the room document itself.
type roomRecord struct {
	room  models.Room
	slots models.UnavailableSlotsByDate
}

// Repository implements the repository interface with in-memory storage
type Repository struct {
	rooms map[string]*roomRecord
	mu    sync.RWMutex
}

// NewRepository creates a new in-memory repository
func NewRepository() *Repository {
	return &Repository{
		rooms: make(map[string]*roomRecord),
	}
}

// SaveRoom stores or overwrites a room document. Slot data already recorded
// for the room is preserved.
func (r *Repository) SaveRoom(ctx context.Context, room *models.Room) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, exists := r.rooms[room.ID]
	if !exists {
		record = &roomRecord{slots: make(models.UnavailableSlotsByDate)}
		r.rooms[room.ID] = record
	}
	record.room = *room

	// seed slots from the room itself on first save
	if !exists && room.UnavailableSlotsByDate != nil {
		record.slots = room.UnavailableSlotsByDate.Clone()
	}

	return nil
}

// GetRoom retrieves a room by ID with its full slot map
func (r *Repository) GetRoom(ctx context.Context, id string) (*models.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.rooms[id]
	if !ok {
		return nil, models.ErrRoomNotFound
	}

	room := record.room
	room.UnavailableSlotsByDate = record.slots.Clone()
	return &room, nil
}

// DeleteRoom removes a room and its slots by ID
func (r *Repository) DeleteRoom(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[id]; !ok {
		return models.ErrRoomNotFound
	}
	delete(r.rooms, id)
	return nil
}

// SetUnavailableSlots replaces the interval list stored under one date key.
// The write is last-write-wins; there is no per-key versioning.
func (r *Repository) SetUnavailableSlots(ctx context.Context, roomID, dateKey string, intervals []models.UnavailableInterval) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.rooms[roomID]
	if !ok {
		return models.ErrRoomNotFound
	}

	copied := make([]models.UnavailableInterval, len(intervals))
	copy(copied, intervals)
	record.slots[dateKey] = copied
	return nil
}

// GetUnavailableSlots returns the full slot map for a room
func (r *Repository) GetUnavailableSlots(ctx context.Context, roomID string) (models.UnavailableSlotsByDate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.rooms[roomID]
	if !ok {
		return nil, models.ErrRoomNotFound
	}
	return record.slots.Clone(), nil
}
