package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	txStdLib "github.com/Thiht/transactor/stdlib"
	"github.com/google/uuid"

	"github.com/benjamonnguyen/daybook"
)

const (
	SelectAll    = "SELECT id, user_id, description, start_time, end_time, duration, status, created_at, updated_at FROM tasks"
	OrderByStart = " ORDER BY start_time ASC, created_at ASC"
)

type taskEntity struct {
	ID          string
	UserID      string
	Description string
	StartTime   int64
	EndTime     int64
	Duration    int
	Status      string
	CreatedAt   int64
	UpdatedAt   int64
}

// taskRepo
type taskRepo struct {
	dbGetter txStdLib.DBGetter
	l        daybook.Logger
	now      func() time.Time
}

var _ daybook.TaskRepo = (*taskRepo)(nil)

func NewTaskRepo(dbGetter txStdLib.DBGetter, logger daybook.Logger) daybook.TaskRepo {
	return &taskRepo{
		l:        logger,
		dbGetter: dbGetter,
		now:      time.Now,
	}
}

func (r *taskRepo) InsertTask(ctx context.Context, task daybook.TaskRecord) (daybook.Task, error) {
	switch {
	case task.UserID == "":
		return daybook.Task{}, fmt.Errorf("provide required field 'UserID'")
	case task.Description == "":
		return daybook.Task{}, fmt.Errorf("provide required field 'Description'")
	case !task.EndTime.After(task.StartTime):
		return daybook.Task{}, fmt.Errorf("end time %s is not after start time %s", task.EndTime, task.StartTime)
	}
	if task.Status == "" {
		task.Status = daybook.StatusUpcoming
	}

	now := r.now()
	inserted := daybook.Task{
		ID:          uuid.New(),
		UserID:      task.UserID,
		Description: task.Description,
		StartTime:   task.StartTime,
		EndTime:     task.EndTime,
		Duration:    task.Duration,
		Status:      task.Status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	e := mapToTaskEntity(inserted)

	args := []any{
		e.ID,
		e.UserID,
		e.Description,
		e.StartTime,
		e.EndTime,
		e.Duration,
		e.Status,
		e.CreatedAt,
		e.UpdatedAt,
	}
	query := "INSERT INTO tasks (id, user_id, description, start_time, end_time, duration, status, created_at, updated_at) VALUES " + generateParameters(len(args))
	r.l.Debug("creating task", "query", query, "args", args)
	if _, err := r.dbGetter(ctx).ExecContext(ctx, query, args...); err != nil {
		return daybook.Task{}, err
	}

	return mapToTask(e), nil
}

func (r *taskRepo) GetTask(ctx context.Context, id uuid.UUID) (daybook.Task, error) {
	if id == uuid.Nil {
		return daybook.Task{}, fmt.Errorf("provide id")
	}

	row := r.dbGetter(ctx).QueryRowContext(
		ctx,
		fmt.Sprintf("%s WHERE id=?", SelectAll), id.String(),
	)

	return extractTask(row)
}

func (r *taskRepo) GetByUser(ctx context.Context, userID string) ([]daybook.Task, error) {
	if userID == "" {
		return nil, fmt.Errorf("provide userID")
	}

	return r.query(ctx, "GetByUser", SelectAll+" WHERE user_id=?"+OrderByStart, userID)
}

func (r *taskRepo) GetInRange(ctx context.Context, userID string, min, max time.Time, statuses ...daybook.Status) ([]daybook.Task, error) {
	if userID == "" {
		return nil, fmt.Errorf("provide userID")
	}

	query := SelectAll + " WHERE user_id=? AND start_time <= ? AND end_time >= ?"
	args := []any{userID, max.Unix(), min.Unix()}
	clause, statusArgs := statusClause(statuses)
	query += clause + OrderByStart
	args = append(args, statusArgs...)

	return r.query(ctx, "GetInRange", query, args...)
}

func (r *taskRepo) GetOverlapping(ctx context.Context, userID string, start, end time.Time, statuses ...daybook.Status) ([]daybook.Task, error) {
	if userID == "" {
		return nil, fmt.Errorf("provide userID")
	}

	query := SelectAll + " WHERE user_id=? AND start_time < ? AND end_time > ?"
	args := []any{userID, end.Unix(), start.Unix()}
	clause, statusArgs := statusClause(statuses)
	query += clause + OrderByStart
	args = append(args, statusArgs...)

	return r.query(ctx, "GetOverlapping", query, args...)
}

func (r *taskRepo) GetByMaxDuration(ctx context.Context, userID string, maxMinutes int) ([]daybook.Task, error) {
	if userID == "" {
		return nil, fmt.Errorf("provide userID")
	}

	return r.query(ctx, "GetByMaxDuration", SelectAll+" WHERE user_id=? AND duration <= ?"+OrderByStart, userID, maxMinutes)
}

func (r *taskRepo) GetByStatus(ctx context.Context, userID string, statuses ...daybook.Status) ([]daybook.Task, error) {
	if userID == "" {
		return nil, fmt.Errorf("provide userID")
	}

	clause, statusArgs := statusClause(statuses)
	args := append([]any{userID}, statusArgs...)
	return r.query(ctx, "GetByStatus", SelectAll+" WHERE user_id=?"+clause+OrderByStart, args...)
}

func (r *taskRepo) BulkTransition(ctx context.Context, tr daybook.Transition, field daybook.TimeField, cutoff time.Time) (int64, error) {
	var column string
	switch field {
	case daybook.ByStartTime:
		column = "start_time"
	case daybook.ByEndTime:
		column = "end_time"
	default:
		return 0, fmt.Errorf("unsupported time field %d", field)
	}

	query := fmt.Sprintf("UPDATE tasks SET status = ?, updated_at = ? WHERE status = ? AND %s <= ?", column)
	args := []any{string(tr.To()), r.now().Unix(), string(tr.From()), cutoff.Unix()}
	r.l.Debug("bulk transition", "transition", tr, "query", query, "args", args)
	res, err := r.dbGetter(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *taskRepo) TransitionTask(ctx context.Context, userID string, id uuid.UUID, tr daybook.Transition) (daybook.Task, error) {
	if userID == "" || id == uuid.Nil {
		return daybook.Task{}, fmt.Errorf("provide userID and id")
	}

	query := "UPDATE tasks SET status = ?, updated_at = ? WHERE id = ? AND user_id = ? AND status = ?"
	args := []any{string(tr.To()), r.now().Unix(), id.String(), userID, string(tr.From())}
	r.l.Debug("transitioning task", "transition", tr, "query", query, "args", args)
	res, err := r.dbGetter(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return daybook.Task{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return daybook.Task{}, err
	}

	current, err := r.GetTask(ctx, id)
	if err != nil {
		return daybook.Task{}, err
	}
	if current.UserID != userID {
		return daybook.Task{}, fmt.Errorf("task %s: %w", id, daybook.ErrNotFound)
	}
	if n == 0 {
		return current, fmt.Errorf("task %s is %s: %w", id, current.Status, daybook.ErrStatusChanged)
	}
	return current, nil
}

func (r *taskRepo) query(ctx context.Context, name, query string, args ...any) ([]daybook.Task, error) {
	r.l.Debug(name, "query", query, "args", args)
	rows, err := r.dbGetter(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	return extractTasks(rows)
}

func extractTasks(rows *sql.Rows) ([]daybook.Task, error) {
	var tasks []daybook.Task
	for rows.Next() {
		task, err := extractTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func extractTask(s scannable) (daybook.Task, error) {
	var e taskEntity
	if err := s.Scan(&e.ID, &e.UserID, &e.Description, &e.StartTime, &e.EndTime, &e.Duration, &e.Status, &e.CreatedAt, &e.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return daybook.Task{}, daybook.ErrNotFound
		}
		return daybook.Task{}, err
	}

	return mapToTask(e), nil
}

func mapToTaskEntity(task daybook.Task) taskEntity {
	return taskEntity{
		ID:          task.ID.String(),
		UserID:      task.UserID,
		Description: task.Description,
		StartTime:   task.StartTime.Unix(),
		EndTime:     task.EndTime.Unix(),
		Duration:    task.Duration,
		Status:      string(task.Status),
		CreatedAt:   task.CreatedAt.Unix(),
		UpdatedAt:   task.UpdatedAt.Unix(),
	}
}

func mapToTask(e taskEntity) daybook.Task {
	id, _ := uuid.Parse(e.ID)

	return daybook.Task{
		ID:          id,
		UserID:      e.UserID,
		Description: e.Description,
		StartTime:   time.Unix(e.StartTime, 0).Local(),
		EndTime:     time.Unix(e.EndTime, 0).Local(),
		Duration:    e.Duration,
		Status:      daybook.Status(e.Status),
		CreatedAt:   time.Unix(e.CreatedAt, 0).Local(),
		UpdatedAt:   time.Unix(e.UpdatedAt, 0).Local(),
	}
}
