// Package availability answers free/busy queries over a room's unavailable
// slot map. All functions are pure and cheap enough to call once per calendar
// cell per render; callers memoize if they need to.
package availability

import (
	"fmt"
	"time"

	"github.com/mannaza/mannaza/internal/models"
)

// IsAvailable reports whether the given clock time (HH:MM) on date is free.
// A date with no recorded intervals is fully available; otherwise the time is
// blocked iff it falls inside [start,end) of any interval for that date.
// Overlapping intervals behave as their union.
func IsAvailable(date time.Time, clock string, slots models.UnavailableSlotsByDate) bool {
	intervals := slots[models.DateKey(date)]
	if len(intervals) == 0 {
		return true
	}

	at, err := models.ToMinutes(clock)
	if err != nil {
		// an unparseable query time falls inside no interval
		return true
	}

	for _, interval := range intervals {
		start, err := models.ToMinutes(interval.Start)
		if err != nil {
			continue
		}
		end, err := models.ToMinutes(interval.End)
		if err != nil {
			continue
		}
		if at >= start && at < end {
			return false
		}
	}
	return true
}

// HourSet is the set of free hours within a single date
type HourSet map[int]struct{}

// Contains reports whether hour is in the set
func (s HourSet) Contains(hour int) bool {
	_, ok := s[hour]
	return ok
}

// Sorted returns the hours in ascending order, never nil
func (s HourSet) Sorted() []int {
	hours := make([]int, 0, len(s))
	for h := 0; h < 24; h++ {
		if s.Contains(h) {
			hours = append(hours, h)
		}
	}
	return hours
}

// AvailableHours returns the set of hours (0-23) on date whose top of the hour
// is free. When date is today relative to now, hours at or before the current
// hour are excluded regardless of stored data; the past cannot be booked.
func AvailableHours(date time.Time, slots models.UnavailableSlotsByDate, now time.Time) HourSet {
	hours := make(HourSet)
	isToday := sameDay(date, now)

	for h := 0; h < 24; h++ {
		if isToday && h <= now.Hour() {
			continue
		}
		if IsAvailable(date, fmt.Sprintf("%02d:00", h), slots) {
			hours[h] = struct{}{}
		}
	}
	return hours
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// Segment is the free-hour coverage of one part of the day, used for the
// morning/afternoon/evening bars on the month view.
type Segment struct {
	Label     string `json:"label"`
	Available int    `json:"available"`
	Total     int    `json:"total"`
}

var daySegments = []struct {
	label string
	from  int
	to    int
}{
	{"morning", 6, 11},
	{"afternoon", 12, 17},
	{"evening", 18, 23},
}

// SegmentCoverage summarizes the free hours of date into the three day
// segments.
func SegmentCoverage(date time.Time, slots models.UnavailableSlotsByDate, now time.Time) []Segment {
	hours := AvailableHours(date, slots, now)

	segments := make([]Segment, 0, len(daySegments))
	for _, seg := range daySegments {
		available := 0
		for h := seg.from; h <= seg.to; h++ {
			if hours.Contains(h) {
				available++
			}
		}
		segments = append(segments, Segment{
			Label:     seg.label,
			Available: available,
			Total:     seg.to - seg.from + 1,
		})
	}
	return segments
}
