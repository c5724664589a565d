package models

import "time"

// Week-of-month labels as presented to organizers. A month is split into
// seven-day blocks counted from the 1st; the trailing block past day 28 is
// labelled "last" rather than "fifth".
const (
	WeekFirst  = "첫째 주"
	WeekSecond = "둘째 주"
	WeekThird  = "셋째 주"
	WeekFourth = "넷째 주"
	WeekLast   = "마지막 주"
)

var ordinalWeeks = []string{WeekFirst, WeekSecond, WeekThird, WeekFourth}

// IsWeekLabel reports whether label is one of the known week-of-month labels
func IsWeekLabel(label string) bool {
	if label == WeekLast {
		return true
	}
	for _, known := range ordinalWeeks {
		if label == known {
			return true
		}
	}
	return false
}

// weekBlock returns the 1-based seven-day block containing the given day of month
func weekBlock(day int) int {
	return (day-1)/7 + 1
}

func daysInMonth(year int, month time.Month) int {
	// day 0 of the next month is the last day of this one
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// WeekOfMonth returns the week label for a calendar date. Days 1-28 map to the
// four ordinal weeks; anything later is the last week.
func WeekOfMonth(date time.Time) string {
	block := weekBlock(date.Day())
	if block > len(ordinalWeeks) {
		return WeekLast
	}
	return ordinalWeeks[block-1]
}

// ContainsDate reports whether date falls inside the room's committed period.
// The room's month is always interpreted in the current year, so now supplies
// the reference year. For week rooms the date's week block must also match the
// committed week, where "last" means the block holding the final day of the
// month.
func (r *Room) ContainsDate(date, now time.Time) bool {
	if date.Year() != now.Year() || int(date.Month()) != r.SpecificMonth {
		return false
	}

	switch r.TimeFrame {
	case TimeFrameMonth:
		return true
	case TimeFrameWeek:
		block := weekBlock(date.Day())
		if r.SpecificWeek == WeekLast {
			return block == weekBlock(daysInMonth(date.Year(), date.Month()))
		}
		for i, label := range ordinalWeeks {
			if label == r.SpecificWeek {
				return block == i+1
			}
		}
	}
	return false
}

// WeekOptions returns the selectable week labels for the given month in now's
// year. Weeks that have already fully passed are excluded so the creation flow
// never offers a dead choice.
func WeekOptions(month int, now time.Time) []string {
	if month < 1 || month > 12 {
		return nil
	}

	year := now.Year()
	lastDay := daysInMonth(year, time.Month(month))
	lastBlock := weekBlock(lastDay)

	var options []string
	for block := 1; block <= lastBlock; block++ {
		endDay := block * 7
		if endDay > lastDay {
			endDay = lastDay
		}
		blockEnd := time.Date(year, time.Month(month), endDay, 23, 59, 59, 0, now.Location())
		if blockEnd.Before(now) {
			continue
		}
		if block > len(ordinalWeeks) {
			options = append(options, WeekLast)
		} else {
			options = append(options, ordinalWeeks[block-1])
		}
	}
	return options
}
