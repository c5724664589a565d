package extract

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mannaza/mannaza/internal/models"
)

// timeAnalysisPrompt instructs the model to extract unavailable time ranges
// from a free-form message. The current date and time let the model resolve
// relative phrases ("tomorrow", "next Friday"), and the existing slot summary
// lets it state deltas instead of re-deriving whole days.
const timeAnalysisPrompt = `You are an assistant that extracts time-availability information from a user's message and returns it as JSON.

Follow these rules when extracting unavailable time ranges:

1. Return clock times in 24-hour HH:MM format.
2. Dates are keyed as YYYYMMDD with no separators.
3. When no date is mentioned, resolve to the matching day relative to the current date.
4. When only a start time is given, assume the block lasts one hour.
5. Interpret vague phrases as: morning 06:00-10:00, lunch 12:00-14:00, evening 18:00-21:00.
6. Already-recorded unavailable times are listed below; only return dates whose ranges change.
7. If the message contains no usable time information, return an empty mapping.

Respond with JSON of exactly this shape and nothing else:
{
  "unavailableSlotsByDate": {
    "20240618": [
      {"start": "14:00", "end": "17:00"}
    ]
  }
}

Current date: %s
Current time: %s
Target date of the room: %s
Already recorded unavailable times: %s

Message to analyze: %s`

// buildPrompt assembles the single prompt sent to the completion service
func buildPrompt(req Request) string {
	return fmt.Sprintf(timeAnalysisPrompt,
		req.Now.Format("2006-01-02"),
		req.Now.Format("15:04"),
		req.TargetDate.Format("2006-01-02"),
		formatExistingSlots(req.Existing),
		req.Message,
	)
}

// formatExistingSlots serializes the current slot map into a compact one-line
// summary, e.g. "20240615: 14:00-16:00, 18:00-20:00 | 20240616: 09:00-10:00".
func formatExistingSlots(slots models.UnavailableSlotsByDate) string {
	if len(slots) == 0 {
		return "none yet"
	}

	keys := make([]string, 0, len(slots))
	for key := range slots {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	entries := make([]string, 0, len(keys))
	for _, key := range keys {
		ranges := make([]string, 0, len(slots[key]))
		for _, interval := range slots[key] {
			ranges = append(ranges, interval.Start+"-"+interval.End)
		}
		entries = append(entries, fmt.Sprintf("%s: %s", key, strings.Join(ranges, ", ")))
	}
	return strings.Join(entries, " | ")
}
