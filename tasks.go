package daybook

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type TaskRepo interface {
	InsertTask(context.Context, TaskRecord) (Task, error)
	GetTask(context.Context, uuid.UUID) (Task, error)
	GetByUser(ctx context.Context, userID string) ([]Task, error)
	// GetInRange returns tasks intersecting the closed interval [min, max],
	// ordered by start time. No statuses means any status.
	GetInRange(ctx context.Context, userID string, min, max time.Time, statuses ...Status) ([]Task, error)
	// GetOverlapping returns tasks with start < end and end > start.
	GetOverlapping(ctx context.Context, userID string, start, end time.Time, statuses ...Status) ([]Task, error)
	GetByMaxDuration(ctx context.Context, userID string, maxMinutes int) ([]Task, error)
	GetByStatus(ctx context.Context, userID string, statuses ...Status) ([]Task, error)
	// BulkTransition moves every task in tr.From() whose field is at or before
	// cutoff to tr.To() and returns the number of tasks moved.
	BulkTransition(ctx context.Context, tr Transition, field TimeField, cutoff time.Time) (int64, error)
	// TransitionTask applies tr to one task owned by userID, only if it is
	// still in tr.From().
	TransitionTask(ctx context.Context, userID string, id uuid.UUID, tr Transition) (Task, error)
}

type TaskRecord struct {
	UserID      string
	Description string
	StartTime   time.Time
	EndTime     time.Time
	Duration    int
	Status      Status
}
