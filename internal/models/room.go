package models

import (
	"fmt"
	"time"
)

// TimeFrame is the period granularity the organizer committed to at creation time
type TimeFrame string

const (
	TimeFrameMonth TimeFrame = "month"
	TimeFrameWeek  TimeFrame = "week"
)

// Member count bounds for a room
const (
	MinMemberCount = 1
	MaxMemberCount = 100
)

// Room is a named scheduling session with a committed target period and an
// accumulating map of participant-reported unavailable time.
type Room struct {
	ID                     string                 `json:"id"`
	Title                  string                 `json:"title"`
	TimeFrame              TimeFrame              `json:"time_frame"`
	SpecificMonth          int                    `json:"specific_month"`
	SpecificWeek           string                 `json:"specific_week,omitempty"`
	MemberCount            int                    `json:"member_count"`
	UnavailableSlotsByDate UnavailableSlotsByDate `json:"unavailable_slots_by_date"`
	IsPasswordProtected    bool                   `json:"is_password_protected"`
	PasswordHash           string                 `json:"-"`
	CreatedAt              time.Time              `json:"created_at"`
	UpdatedAt              time.Time              `json:"updated_at"`
}

// Validate checks the field constraints of a room. A room must carry a title,
// a period consistent with its time frame, and a member count within bounds.
func (r *Room) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("room ID is required")
	}
	if r.Title == "" {
		return fmt.Errorf("room title is required")
	}

	switch r.TimeFrame {
	case TimeFrameMonth:
		if r.SpecificMonth < 1 || r.SpecificMonth > 12 {
			return fmt.Errorf("specific month %d is out of range", r.SpecificMonth)
		}
	case TimeFrameWeek:
		if r.SpecificMonth < 1 || r.SpecificMonth > 12 {
			return fmt.Errorf("specific month %d is out of range", r.SpecificMonth)
		}
		if !IsWeekLabel(r.SpecificWeek) {
			return fmt.Errorf("specific week %q is not a known week label", r.SpecificWeek)
		}
	default:
		return fmt.Errorf("time frame %q is not month or week", r.TimeFrame)
	}

	if r.MemberCount < MinMemberCount || r.MemberCount > MaxMemberCount {
		return fmt.Errorf("member count %d is outside [%d,%d]", r.MemberCount, MinMemberCount, MaxMemberCount)
	}

	return nil
}
