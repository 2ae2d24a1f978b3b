// Package testutil provides in-memory fakes for tests.
package testutil

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/benjamonnguyen/daybook"
)

// FakeTaskRepo is an in-memory daybook.TaskRepo.
type FakeTaskRepo struct {
	mu    sync.RWMutex
	tasks map[uuid.UUID]daybook.Task

	Now func() time.Time

	// Error injection for testing
	InsertErr     error
	QueryErr      error
	BulkErr       error
	TransitionErr error

	// hooks
	BeforeInsert func(daybook.TaskRecord)
}

var _ daybook.TaskRepo = (*FakeTaskRepo)(nil)

func NewFakeTaskRepo() *FakeTaskRepo {
	return &FakeTaskRepo{
		tasks: make(map[uuid.UUID]daybook.Task),
		Now:   time.Now,
	}
}

// Put stores t as is, assigning an id when it has none.
func (f *FakeTaskRepo) Put(t daybook.Task) daybook.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Duration == 0 {
		t.Duration = int(t.EndTime.Sub(t.StartTime) / time.Minute)
	}
	if t.Status == "" {
		t.Status = daybook.StatusUpcoming
	}
	f.tasks[t.ID] = t
	return t
}

// Status returns the stored status of id.
func (f *FakeTaskRepo) Status(id uuid.UUID) daybook.Status {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.tasks[id].Status
}

func (f *FakeTaskRepo) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.tasks)
}

func (f *FakeTaskRepo) InsertTask(_ context.Context, rec daybook.TaskRecord) (daybook.Task, error) {
	if f.BeforeInsert != nil {
		f.BeforeInsert(rec)
	}
	if f.InsertErr != nil {
		return daybook.Task{}, f.InsertErr
	}
	if rec.Status == "" {
		rec.Status = daybook.StatusUpcoming
	}
	now := f.Now()
	return f.Put(daybook.Task{
		UserID:      rec.UserID,
		Description: rec.Description,
		StartTime:   rec.StartTime,
		EndTime:     rec.EndTime,
		Duration:    rec.Duration,
		Status:      rec.Status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}), nil
}

func (f *FakeTaskRepo) GetTask(_ context.Context, id uuid.UUID) (daybook.Task, error) {
	if f.QueryErr != nil {
		return daybook.Task{}, f.QueryErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	t, ok := f.tasks[id]
	if !ok {
		return daybook.Task{}, daybook.ErrNotFound
	}
	return t, nil
}

func (f *FakeTaskRepo) GetByUser(_ context.Context, userID string) ([]daybook.Task, error) {
	return f.filter(func(t daybook.Task) bool { return t.UserID == userID })
}

func (f *FakeTaskRepo) GetInRange(_ context.Context, userID string, min, max time.Time, statuses ...daybook.Status) ([]daybook.Task, error) {
	return f.filter(func(t daybook.Task) bool {
		return t.UserID == userID && !t.StartTime.After(max) && !t.EndTime.Before(min) && hasStatus(t, statuses)
	})
}

func (f *FakeTaskRepo) GetOverlapping(_ context.Context, userID string, start, end time.Time, statuses ...daybook.Status) ([]daybook.Task, error) {
	return f.filter(func(t daybook.Task) bool {
		return t.UserID == userID && t.Overlaps(start, end) && hasStatus(t, statuses)
	})
}

func (f *FakeTaskRepo) GetByMaxDuration(_ context.Context, userID string, maxMinutes int) ([]daybook.Task, error) {
	return f.filter(func(t daybook.Task) bool { return t.UserID == userID && t.Duration <= maxMinutes })
}

func (f *FakeTaskRepo) GetByStatus(_ context.Context, userID string, statuses ...daybook.Status) ([]daybook.Task, error) {
	return f.filter(func(t daybook.Task) bool { return t.UserID == userID && hasStatus(t, statuses) })
}

func (f *FakeTaskRepo) BulkTransition(_ context.Context, tr daybook.Transition, field daybook.TimeField, cutoff time.Time) (int64, error) {
	if f.BulkErr != nil {
		return 0, f.BulkErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, t := range f.tasks {
		if t.Status != tr.From() {
			continue
		}
		ts := t.StartTime
		if field == daybook.ByEndTime {
			ts = t.EndTime
		}
		if ts.After(cutoff) {
			continue
		}
		t.Status = tr.To()
		t.UpdatedAt = f.Now()
		f.tasks[id] = t
		n++
	}
	return n, nil
}

func (f *FakeTaskRepo) TransitionTask(_ context.Context, userID string, id uuid.UUID, tr daybook.Transition) (daybook.Task, error) {
	if f.TransitionErr != nil {
		return daybook.Task{}, f.TransitionErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	if !ok || t.UserID != userID {
		return daybook.Task{}, fmt.Errorf("task %s: %w", id, daybook.ErrNotFound)
	}
	if t.Status != tr.From() {
		return t, fmt.Errorf("task %s is %s: %w", id, t.Status, daybook.ErrStatusChanged)
	}
	t.Status = tr.To()
	t.UpdatedAt = f.Now()
	f.tasks[id] = t
	return t, nil
}

func (f *FakeTaskRepo) filter(keep func(daybook.Task) bool) ([]daybook.Task, error) {
	if f.QueryErr != nil {
		return nil, f.QueryErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	var out []daybook.Task
	for _, t := range f.tasks {
		if keep(t) {
			out = append(out, t)
		}
	}
	slices.SortFunc(out, func(a, b daybook.Task) int {
		return a.StartTime.Compare(b.StartTime)
	})
	return out, nil
}

func hasStatus(t daybook.Task, statuses []daybook.Status) bool {
	return len(statuses) == 0 || slices.Contains(statuses, t.Status)
}
