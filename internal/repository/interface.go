// Package repository defines the interface for room storage and selects a
// backend implementation.
package repository

import (
	"context"

	"github.com/mannaza/mannaza/internal/models"
)

// Repository is the contract every room store backend fulfils. Unavailable
// slots are addressed one date-key at a time and replaced wholesale per key;
// writes to different date-keys never conflict.
type Repository interface {
	// Room operations
	SaveRoom(ctx context.Context, room *models.Room) error
	GetRoom(ctx context.Context, id string) (*models.Room, error)
	DeleteRoom(ctx context.Context, id string) error

	// Slot operations. SetUnavailableSlots replaces the interval list stored
	// under one date key as a single write; sibling keys are untouched.
	SetUnavailableSlots(ctx context.Context, roomID, dateKey string, intervals []models.UnavailableInterval) error
	GetUnavailableSlots(ctx context.Context, roomID string) (models.UnavailableSlotsByDate, error)
}
