package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mannaza/mannaza/internal/models"
)

// ErrDraftStage is returned when a draft operation is attempted in the wrong
// stage, for example setting the member count before the period is committed.
var ErrDraftStage = errors.New("operation not valid in current draft stage")

// DraftStage identifies how far a room draft has progressed
type DraftStage int

const (
	StageCollectingTitle DraftStage = iota
	StageCollectingPeriod
	StageCollectingMemberCount
	StageCreated
)

func (s DraftStage) String() string {
	switch s {
	case StageCollectingTitle:
		return "collecting_title"
	case StageCollectingPeriod:
		return "collecting_period"
	case StageCollectingMemberCount:
		return "collecting_member_count"
	case StageCreated:
		return "created"
	default:
		return "unknown"
	}
}

// Draft accumulates a room's settings one question at a time. Answers are
// validated as they arrive and nothing is persisted until Create; abandoning a
// draft at any stage leaves no trace in the store.
type Draft struct {
	stage    DraftStage
	title    string
	frame    models.TimeFrame
	month    int
	week     string
	members  int
	password string
}

// NewDraft starts an empty draft at the title stage
func NewDraft() *Draft {
	return &Draft{stage: StageCollectingTitle}
}

// Stage returns the draft's current stage
func (d *Draft) Stage() DraftStage {
	return d.stage
}

// SetTitle records the meeting title and advances to the period stage
func (d *Draft) SetTitle(title string) error {
	if d.stage != StageCollectingTitle {
		return fmt.Errorf("%w: expected %s, in %s", ErrDraftStage, StageCollectingTitle, d.stage)
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return errors.New("title must not be empty")
	}
	d.title = title
	d.stage = StageCollectingPeriod
	return nil
}

// SetPeriod records the committed period and advances to the member count
// stage. For a month-scoped room week must be empty; for a week-scoped room it
// must be one of the recognized week labels.
func (d *Draft) SetPeriod(frame models.TimeFrame, month int, week string) error {
	if d.stage != StageCollectingPeriod {
		return fmt.Errorf("%w: expected %s, in %s", ErrDraftStage, StageCollectingPeriod, d.stage)
	}
	if month < 1 || month > 12 {
		return fmt.Errorf("month out of range: %d", month)
	}
	switch frame {
	case models.TimeFrameMonth:
		if week != "" {
			return errors.New("month-scoped room must not carry a week")
		}
	case models.TimeFrameWeek:
		if !models.IsWeekLabel(week) {
			return fmt.Errorf("unrecognized week label: %q", week)
		}
	default:
		return fmt.Errorf("unrecognized time frame: %q", frame)
	}
	d.frame = frame
	d.month = month
	d.week = week
	d.stage = StageCollectingMemberCount
	return nil
}

// SetMemberCount records the expected member count and completes data
// collection. The optional password may be set any time before Create.
func (d *Draft) SetMemberCount(count int) error {
	if d.stage != StageCollectingMemberCount {
		return fmt.Errorf("%w: expected %s, in %s", ErrDraftStage, StageCollectingMemberCount, d.stage)
	}
	if count < models.MinMemberCount || count > models.MaxMemberCount {
		return fmt.Errorf("member count out of range: %d", count)
	}
	d.members = count
	return nil
}

// SetPassword records an optional shared secret for the room
func (d *Draft) SetPassword(password string) {
	d.password = password
}

// Back steps the draft to the previous question. The previous answer is kept
// and may be overwritten; backing past the first stage is a no-op.
func (d *Draft) Back() {
	switch d.stage {
	case StageCollectingPeriod:
		d.stage = StageCollectingTitle
	case StageCollectingMemberCount:
		d.stage = StageCollectingPeriod
	}
}

// Create persists the draft as a real room. It fails if the member count was
// never committed, and on success marks the draft created so it cannot be
// submitted twice.
func (d *Draft) Create(ctx context.Context, svc *RoomService) (*models.Room, error) {
	if d.stage != StageCollectingMemberCount {
		return nil, fmt.Errorf("%w: draft not complete, in %s", ErrDraftStage, d.stage)
	}
	if d.members == 0 {
		return nil, fmt.Errorf("%w: member count not set", ErrDraftStage)
	}

	room, err := svc.CreateRoom(ctx, CreateRoomParams{
		Title:         d.title,
		TimeFrame:     d.frame,
		SpecificMonth: d.month,
		SpecificWeek:  d.week,
		MemberCount:   d.members,
		Password:      d.password,
	})
	if err != nil {
		return nil, err
	}
	d.stage = StageCreated
	return room, nil
}
