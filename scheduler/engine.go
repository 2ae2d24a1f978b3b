// Package scheduler creates and queries tasks, rejecting overlaps and
// deriving the free time left in a day.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Thiht/transactor"
	"github.com/google/uuid"

	"github.com/benjamonnguyen/daybook"
	"github.com/benjamonnguyen/daybook/timeparse"
)

type Engine struct {
	repo  daybook.TaskRepo
	tx    transactor.Transactor
	l     daybook.Logger
	now   func() time.Time
	locks *userLocks
}

type Option func(*Engine)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

func NewEngine(repo daybook.TaskRepo, tx transactor.Transactor, logger daybook.Logger, opts ...Option) *Engine {
	e := &Engine{
		repo:  repo,
		tx:    tx,
		l:     logger,
		now:   time.Now,
		locks: newUserLocks(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type CreateTaskRequest struct {
	UserID      string
	Description string
	StartTime   time.Time
	Duration    int // minutes
}

// CreateTask schedules a new upcoming task. It fails with a
// *daybook.ConflictError when the interval overlaps an occupying task of the
// same user.
func (e *Engine) CreateTask(ctx context.Context, req CreateTaskRequest) (daybook.Task, error) {
	req.Description = strings.TrimSpace(req.Description)
	switch {
	case req.UserID == "":
		return daybook.Task{}, &daybook.ValidationError{Field: "uid", Reason: "required"}
	case req.Description == "":
		return daybook.Task{}, &daybook.ValidationError{Field: "task", Reason: "required"}
	case req.StartTime.IsZero():
		return daybook.Task{}, &daybook.ValidationError{Field: "startTime", Reason: "required"}
	case req.Duration <= 0:
		return daybook.Task{}, &daybook.ValidationError{Field: "duration", Reason: "must be a positive number of minutes"}
	}

	start := req.StartTime.Truncate(time.Second)
	if start.Before(e.now().Truncate(time.Minute)) {
		return daybook.Task{}, &daybook.ValidationError{Field: "startTime", Reason: "start time is in the past"}
	}
	end := start.Add(time.Duration(req.Duration) * time.Minute)

	unlock := e.locks.lock(req.UserID)
	defer unlock()

	var created daybook.Task
	err := e.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		overlapping, err := e.repo.GetOverlapping(ctx, req.UserID, start, end, daybook.OccupyingStatuses...)
		if err != nil {
			return fmt.Errorf("check overlap: %w", err)
		}
		if len(overlapping) > 0 {
			return &daybook.ConflictError{Task: overlapping[0]}
		}

		created, err = e.repo.InsertTask(ctx, daybook.TaskRecord{
			UserID:      req.UserID,
			Description: req.Description,
			StartTime:   start,
			EndTime:     end,
			Duration:    req.Duration,
			Status:      daybook.StatusUpcoming,
		})
		if err != nil {
			return fmt.Errorf("insert task: %w", err)
		}
		return nil
	})
	if err != nil {
		var conflict *daybook.ConflictError
		if errors.As(err, &conflict) {
			e.l.Info("rejected overlapping task", "uid", req.UserID, "start", start, "end", end, "conflict", conflict.Task.ID)
		}
		return daybook.Task{}, err
	}

	e.l.Info("created task", "uid", created.UserID, "id", created.ID, "start", created.StartTime, "duration", created.Duration)
	return created, nil
}

// ListAllTasks returns every task of the user by ascending start time.
func (e *Engine) ListAllTasks(ctx context.Context, userID string) ([]daybook.Task, error) {
	if userID == "" {
		return nil, &daybook.ValidationError{Field: "uid", Reason: "required"}
	}
	tasks, err := e.repo.GetByUser(ctx, userID)
	return orEmpty(tasks), err
}

// ListTasksForRange returns the tasks intersecting [start, end].
func (e *Engine) ListTasksForRange(ctx context.Context, userID string, start, end time.Time) ([]daybook.Task, error) {
	if userID == "" {
		return nil, &daybook.ValidationError{Field: "uid", Reason: "required"}
	}
	if end.Before(start) {
		return nil, &daybook.ValidationError{Field: "endDate", Reason: "end is before start"}
	}
	tasks, err := e.repo.GetInRange(ctx, userID, start, end)
	return orEmpty(tasks), err
}

// ListTasksForDay returns the tasks intersecting the local day containing day.
func (e *Engine) ListTasksForDay(ctx context.Context, userID string, day time.Time) ([]daybook.Task, error) {
	dayStart, dayEnd := timeparse.DayBounds(day)
	return e.ListTasksForRange(ctx, userID, dayStart, dayEnd.Add(-time.Second))
}

func (e *Engine) ListTasksByDurationCeiling(ctx context.Context, userID string, maxMinutes int) ([]daybook.Task, error) {
	if userID == "" {
		return nil, &daybook.ValidationError{Field: "uid", Reason: "required"}
	}
	if maxMinutes <= 0 {
		return nil, &daybook.ValidationError{Field: "duration", Reason: "must be a positive number of minutes"}
	}
	tasks, err := e.repo.GetByMaxDuration(ctx, userID, maxMinutes)
	return orEmpty(tasks), err
}

// GetTask returns one task of the user. Tasks owned by someone else are
// reported as not found.
func (e *Engine) GetTask(ctx context.Context, userID string, id uuid.UUID) (daybook.Task, error) {
	if userID == "" {
		return daybook.Task{}, &daybook.ValidationError{Field: "uid", Reason: "required"}
	}
	task, err := e.repo.GetTask(ctx, id)
	if err != nil {
		return daybook.Task{}, err
	}
	if task.UserID != userID {
		return daybook.Task{}, fmt.Errorf("task %s: %w", id, daybook.ErrNotFound)
	}
	return task, nil
}

// ComputeFreeSlots returns the gaps between the user's occupying tasks from
// max(now, start of day) to the end of the day.
func (e *Engine) ComputeFreeSlots(ctx context.Context, userID string, day time.Time) ([]daybook.FreeSlot, error) {
	if userID == "" {
		return nil, &daybook.ValidationError{Field: "uid", Reason: "required"}
	}
	dayStart, dayEnd := timeparse.DayBounds(day)

	pointer := dayStart
	if now := e.now(); now.After(pointer) {
		pointer = now
	}
	slots := []daybook.FreeSlot{}
	if !pointer.Before(dayEnd) {
		return slots, nil
	}

	tasks, err := e.repo.GetInRange(ctx, userID, dayStart, dayEnd, daybook.OccupyingStatuses...)
	if err != nil {
		return nil, err
	}

	for _, t := range tasks {
		if !t.EndTime.After(pointer) {
			continue
		}
		if t.StartTime.After(pointer) {
			slots = append(slots, daybook.FreeSlot{Start: pointer, End: minTime(t.StartTime, dayEnd)})
		}
		pointer = t.EndTime
		if !pointer.Before(dayEnd) {
			break
		}
	}
	if pointer.Before(dayEnd) {
		slots = append(slots, daybook.FreeSlot{Start: pointer, End: dayEnd})
	}

	return slots, nil
}

// UpdateStatus lets a user finish one of their active tasks. Only
// daybook.StatusCompleted and daybook.StatusCancelled are accepted.
func (e *Engine) UpdateStatus(ctx context.Context, userID string, id uuid.UUID, status daybook.Status) (daybook.Task, error) {
	if userID == "" {
		return daybook.Task{}, &daybook.ValidationError{Field: "uid", Reason: "required"}
	}
	tr, err := daybook.UserTransition(status)
	if err != nil {
		return daybook.Task{}, err
	}

	task, err := e.repo.TransitionTask(ctx, userID, id, tr)
	if errors.Is(err, daybook.ErrStatusChanged) {
		return task, &daybook.ValidationError{
			Field:  "taskStatus",
			Reason: fmt.Sprintf("task is %s; only %s tasks can be marked %s", task.Status, tr.From(), status),
		}
	}
	if err != nil {
		return daybook.Task{}, err
	}

	e.l.Info("updated task status", "uid", userID, "id", id, "transition", tr)
	return task, nil
}

func orEmpty(tasks []daybook.Task) []daybook.Task {
	if tasks == nil {
		return []daybook.Task{}
	}
	return tasks
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

// userLocks serializes task creation per user.
type userLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[string]*sync.Mutex)}
}

func (u *userLocks) lock(userID string) (unlock func()) {
	u.mu.Lock()
	m, ok := u.locks[userID]
	if !ok {
		m = &sync.Mutex{}
		u.locks[userID] = m
	}
	u.mu.Unlock()

	m.Lock()
	return m.Unlock
}
