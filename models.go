package daybook

import (
	"time"

	"github.com/google/uuid"
)

type Task struct {
	ID          uuid.UUID `json:"id"`
	UserID      string    `json:"userId"`
	Description string    `json:"task"`
	StartTime   time.Time `json:"startTime"`
	EndTime     time.Time `json:"endTime"`
	Duration    int       `json:"duration"` // minutes
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Overlaps reports whether t and [start, end) share any instant.
func (t Task) Overlaps(start, end time.Time) bool {
	return t.StartTime.Before(end) && t.EndTime.After(start)
}

type Status string

const (
	StatusUpcoming  Status = "upcoming"
	StatusActive    Status = "active"
	StatusMissed    Status = "missed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

func (s Status) Valid() bool {
	switch s {
	case StatusUpcoming, StatusActive, StatusMissed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// OccupyingStatuses are the statuses whose tasks hold their interval: they
// block overlapping creations and are subtracted from free time. Missed tasks
// keep their interval since that time has already gone by.
var OccupyingStatuses = []Status{StatusUpcoming, StatusActive, StatusMissed}

type FreeSlot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (s FreeSlot) Minutes() int {
	return int(s.End.Sub(s.Start) / time.Minute)
}
