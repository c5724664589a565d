// Package models defines the core data types for rooms and unavailable time slots
package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Common errors
var (
	// ErrInvalidInterval is returned when a time range is malformed or logically inconsistent
	ErrInvalidInterval = errors.New("invalid time interval")

	// ErrRoomNotFound is returned when a requested room does not exist in the store
	ErrRoomNotFound = errors.New("room not found")
)

// UnavailableInterval is a [start,end) clock-time range during which the
// reporting participant cannot meet. Both bounds use 24-hour HH:MM notation.
type UnavailableInterval struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Normalize rewrites "24:00" to "23:59" on either bound and validates the
// interval. After normalization both bounds must parse as HH:MM clock times
// and Start must be strictly before End, otherwise ErrInvalidInterval is
// returned.
func (i UnavailableInterval) Normalize() (UnavailableInterval, error) {
	normalized := UnavailableInterval{
		Start: normalizeClock(i.Start),
		End:   normalizeClock(i.End),
	}

	start, err := ToMinutes(normalized.Start)
	if err != nil {
		return UnavailableInterval{}, fmt.Errorf("%w: bad start %q", ErrInvalidInterval, i.Start)
	}

	end, err := ToMinutes(normalized.End)
	if err != nil {
		return UnavailableInterval{}, fmt.Errorf("%w: bad end %q", ErrInvalidInterval, i.End)
	}

	if start >= end {
		return UnavailableInterval{}, fmt.Errorf("%w: start %s is not before end %s", ErrInvalidInterval, normalized.Start, normalized.End)
	}

	return normalized, nil
}

// normalizeClock maps the midnight-exclusive notation to the last storable minute
func normalizeClock(clock string) string {
	if clock == "24:00" {
		return "23:59"
	}
	return clock
}

// ToMinutes converts an HH:MM clock time to minutes since midnight.
// All interval comparisons go through this conversion.
func ToMinutes(clock string) (int, error) {
	parts := strings.Split(clock, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("clock time %q is not HH:MM", clock)
	}

	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("clock time %q has a non-numeric hour", clock)
	}

	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("clock time %q has a non-numeric minute", clock)
	}

	if hours < 0 || hours > 23 || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("clock time %q is out of range", clock)
	}

	return hours*60 + minutes, nil
}

// UnavailableSlotsByDate maps a date key (YYYYMMDD) to the unavailable
// intervals recorded for that date. Interval lists are replaced wholesale per
// date key, never appended to, so a correction can fully supersede an earlier
// wrong entry.
type UnavailableSlotsByDate map[string][]UnavailableInterval

// Clone returns a deep copy of the map
func (s UnavailableSlotsByDate) Clone() UnavailableSlotsByDate {
	if s == nil {
		return nil
	}
	clone := make(UnavailableSlotsByDate, len(s))
	for key, intervals := range s {
		copied := make([]UnavailableInterval, len(intervals))
		copy(copied, intervals)
		clone[key] = copied
	}
	return clone
}

const dateKeyLayout = "20060102"

// DateKey formats a calendar date as the YYYYMMDD key used to address its
// interval list. The separator-free form doubles as a flat field name in the
// backing store.
func DateKey(t time.Time) string {
	return t.Format(dateKeyLayout)
}

// ParseDateKey parses a YYYYMMDD date key back into a calendar date.
func ParseDateKey(key string) (time.Time, error) {
	if len(key) != 8 {
		return time.Time{}, fmt.Errorf("date key %q is not YYYYMMDD", key)
	}
	t, err := time.ParseInLocation(dateKeyLayout, key, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("date key %q is not YYYYMMDD: %w", key, err)
	}
	return t, nil
}
