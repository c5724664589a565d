package service

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors surfaced to callers of the room service
var (
	// ErrNoTimesExtracted is returned when the model found no usable time
	// information in the message; a user-correctable input problem.
	ErrNoTimesExtracted = errors.New("no time information found in message")

	// ErrNoDatesInScope is returned when extraction succeeded but every
	// resulting date fell outside the room's committed period. Only possible
	// with period filtering enabled; also user-correctable.
	ErrNoDatesInScope = errors.New("no extracted dates fall inside the room's period")

	// ErrEmptyMessage is returned for blank message submissions
	ErrEmptyMessage = errors.New("message is empty")
)

// PersistError reports that a store write did not complete. Per-date-key
// writes are idempotent, so RetrySafe is normally true and re-submitting the
// same write verbatim is fine. Local state is never updated when the write
// fails, so nothing diverges.
type PersistError struct {
	RetrySafe bool
	Err       error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist failed (retry safe: %t): %v", e.RetrySafe, e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}

// RateLimitError reports that a sender is submitting too fast. RetryAfter
// tells the caller when a resubmission will be accepted.
type RateLimitError struct {
	RetryAfter time.Duration
	Reason     string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited (%s): retry in %s", e.Reason, e.RetryAfter.Round(time.Second))
}
