// Package redis provides a Redis/Valkey implementation of the room repository
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mannaza/mannaza/internal/config"
	"github.com/mannaza/mannaza/internal/models"
	"github.com/redis/go-redis/v9"
)

// roomState is the internal model for storing a room document in Redis.
// The password hash is excluded from the public JSON form of models.Room, so
// the stored form carries it explicitly.
type roomState struct {
	ID                  string           `json:"id"`
	Title               string           `json:"title"`
	TimeFrame           models.TimeFrame `json:"time_frame"`
	SpecificMonth       int              `json:"specific_month"`
	SpecificWeek        string           `json:"specific_week,omitempty"`
	MemberCount         int              `json:"member_count"`
	IsPasswordProtected bool             `json:"is_password_protected"`
	PasswordHash        string           `json:"password_hash,omitempty"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`
}

// Repository implements the repository interface with Redis storage. The room
// document is a JSON value; unavailable slots live in a hash with one field
// per date key so replacing a single date is one HSET.
type Repository struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRepository creates a new Redis repository
func NewRepository(cfg config.RedisConfig) (*Repository, error) {
	var client *redis.Client

	// Use URI if provided, otherwise build connection from individual parameters
	if cfg.URI != "" {
		opt, err := redis.ParseURL(cfg.URI)
		if err != nil {
			return nil, fmt.Errorf("failed to parse Redis URI: %w", err)
		}

		if opt.DB == 0 {
			opt.DB = cfg.DB
		}
		if opt.Password == "" && cfg.Password != "" {
			opt.Password = cfg.Password
		}

		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
			Username: cfg.Username,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
	}

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Repository{
		client:    client,
		keyPrefix: cfg.KeyPrefix,
		ttl:       cfg.RoomTTL,
	}, nil
}

// Close closes the Redis connection
func (r *Repository) Close() error {
	return r.client.Close()
}

// roomKey returns the Redis key for a room document
func (r *Repository) roomKey(id string) string {
	return fmt.Sprintf("%srooms:%s", r.keyPrefix, id)
}

// slotsKey returns the Redis key for a room's unavailable-slot hash
func (r *Repository) slotsKey(id string) string {
	return fmt.Sprintf("%srooms:%s:slots", r.keyPrefix, id)
}

// SaveRoom saves a room document to the repository
func (r *Repository) SaveRoom(ctx context.Context, room *models.Room) error {
	state := roomState{
		ID:                  room.ID,
		Title:               room.Title,
		TimeFrame:           room.TimeFrame,
		SpecificMonth:       room.SpecificMonth,
		SpecificWeek:        room.SpecificWeek,
		MemberCount:         room.MemberCount,
		IsPasswordProtected: room.IsPasswordProtected,
		PasswordHash:        room.PasswordHash,
		CreatedAt:           room.CreatedAt,
		UpdatedAt:           room.UpdatedAt,
	}

	data, err := json.Marshal(&state)
	if err != nil {
		return fmt.Errorf("failed to marshal room: %w", err)
	}

	if err := r.client.Set(ctx, r.roomKey(room.ID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save room: %w", err)
	}

	return nil
}

// GetRoom retrieves a room by ID, including its full slot map
func (r *Repository) GetRoom(ctx context.Context, id string) (*models.Room, error) {
	data, err := r.client.Get(ctx, r.roomKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, models.ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	var state roomState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal room: %w", err)
	}

	slots, err := r.GetUnavailableSlots(ctx, id)
	if err != nil && !errors.Is(err, models.ErrRoomNotFound) {
		return nil, err
	}
	if slots == nil {
		slots = make(models.UnavailableSlotsByDate)
	}

	return &models.Room{
		ID:                     state.ID,
		Title:                  state.Title,
		TimeFrame:              state.TimeFrame,
		SpecificMonth:          state.SpecificMonth,
		SpecificWeek:           state.SpecificWeek,
		MemberCount:            state.MemberCount,
		IsPasswordProtected:    state.IsPasswordProtected,
		PasswordHash:           state.PasswordHash,
		CreatedAt:              state.CreatedAt,
		UpdatedAt:              state.UpdatedAt,
		UnavailableSlotsByDate: slots,
	}, nil
}

// DeleteRoom removes a room document and its slot hash
func (r *Repository) DeleteRoom(ctx context.Context, id string) error {
	exists, err := r.client.Exists(ctx, r.roomKey(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to check if room exists: %w", err)
	}
	if exists == 0 {
		return models.ErrRoomNotFound
	}

	pipe := r.client.Pipeline()
	pipe.Del(ctx, r.roomKey(id))
	pipe.Del(ctx, r.slotsKey(id))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete room: %w", err)
	}

	return nil
}

// SetUnavailableSlots replaces the interval list stored under one date key.
// A hash field set is atomic per field, so sibling date keys are untouched.
// The room TTL is refreshed so active rooms never expire mid-use.
func (r *Repository) SetUnavailableSlots(ctx context.Context, roomID, dateKey string, intervals []models.UnavailableInterval) error {
	exists, err := r.client.Exists(ctx, r.roomKey(roomID)).Result()
	if err != nil {
		return fmt.Errorf("failed to check if room exists: %w", err)
	}
	if exists == 0 {
		return models.ErrRoomNotFound
	}

	data, err := json.Marshal(intervals)
	if err != nil {
		return fmt.Errorf("failed to marshal intervals: %w", err)
	}

	if err := r.client.HSet(ctx, r.slotsKey(roomID), dateKey, data).Err(); err != nil {
		return fmt.Errorf("failed to set unavailable slots: %w", err)
	}

	if r.ttl > 0 {
		pipe := r.client.Pipeline()
		pipe.Expire(ctx, r.roomKey(roomID), r.ttl)
		pipe.Expire(ctx, r.slotsKey(roomID), r.ttl)
		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("failed to refresh room expiry: %w", err)
		}
	}

	return nil
}

// GetUnavailableSlots returns the full slot map for a room
func (r *Repository) GetUnavailableSlots(ctx context.Context, roomID string) (models.UnavailableSlotsByDate, error) {
	fields, err := r.client.HGetAll(ctx, r.slotsKey(roomID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get unavailable slots: %w", err)
	}

	slots := make(models.UnavailableSlotsByDate, len(fields))
	for dateKey, raw := range fields {
		var intervals []models.UnavailableInterval
		if err := json.Unmarshal([]byte(raw), &intervals); err != nil {
			// a corrupt field must not hide the rest of the map
			continue
		}
		slots[dateKey] = intervals
	}

	return slots, nil
}
