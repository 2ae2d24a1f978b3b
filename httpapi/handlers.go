package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/benjamonnguyen/daybook"
	"github.com/benjamonnguyen/daybook/agent"
	"github.com/benjamonnguyen/daybook/scheduler"
	"github.com/benjamonnguyen/daybook/timeparse"
)

type ChatRequest struct {
	UID     string `json:"uid"`
	Message string `json:"message"`
}

type ChatResponse struct {
	Reply agent.Reply `json:"reply"`
}

type CreateTaskRequest struct {
	UID       string `json:"uid"`
	Task      string `json:"task"`
	StartTime phrase `json:"startTime"`
	Duration  phrase `json:"duration"`
}

type UpdateStatusRequest struct {
	UID        string         `json:"uid"`
	TaskStatus daybook.Status `json:"taskStatus"`
}

// phrase accepts a JSON string or number.
type phrase string

func (p *phrase) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*p = ""
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*p = phrase(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", b)
	}
	*p = phrase(n.String())
	return nil
}

func (s *Server) handleIndex(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "daybook is running",
	})
}

func (s *Server) handleChat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, &daybook.ValidationError{Reason: "invalid request body"})
		return
	}
	if req.UID == "" {
		s.fail(c, &daybook.ValidationError{Field: "uid", Reason: "required"})
		return
	}

	reply := s.chat.HandleMessage(c.Request.Context(), req.UID, req.Message)
	c.JSON(http.StatusOK, ChatResponse{Reply: reply})
}

func (s *Server) handleCreateTask(c *gin.Context) {
	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, &daybook.ValidationError{Reason: "invalid request body: " + err.Error()})
		return
	}

	now := s.now()
	var start time.Time
	if p := strings.TrimSpace(string(req.StartTime)); p != "" {
		var ok bool
		if start, ok = timeparse.ParseStartTime(p, now); !ok {
			s.fail(c, &daybook.ValidationError{Field: "startTime", Reason: fmt.Sprintf("could not understand %q", p)})
			return
		}
	}

	var minutes int
	if p := strings.TrimSpace(string(req.Duration)); p != "" {
		var ok bool
		if minutes, ok = timeparse.ParseDuration(p); !ok {
			s.fail(c, &daybook.ValidationError{Field: "duration", Reason: fmt.Sprintf("could not understand %q", p)})
			return
		}
	}

	task, err := s.sched.CreateTask(c.Request.Context(), scheduler.CreateTaskRequest{
		UserID:      req.UID,
		Description: req.Task,
		StartTime:   start,
		Duration:    minutes,
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Task created",
		"task":    task,
	})
}

func (s *Server) handleAllTasks(c *gin.Context) {
	tasks, err := s.sched.ListAllTasks(c.Request.Context(), c.Query("uid"))
	if err != nil {
		s.fail(c, err)
		return
	}
	s.tasks(c, tasks)
}

func (s *Server) handleGetTask(c *gin.Context) {
	id, err := uuid.Parse(c.Param("taskId"))
	if err != nil {
		s.fail(c, &daybook.ValidationError{Field: "taskId", Reason: "not a valid id"})
		return
	}

	task, err := s.sched.GetTask(c.Request.Context(), c.Query("uid"), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Task found",
		"task":    task,
	})
}

func (s *Server) handleTasksByDate(c *gin.Context) {
	day, err := s.queryDate(c, "date", "")
	if err != nil {
		s.fail(c, err)
		return
	}

	tasks, err := s.sched.ListTasksForDay(c.Request.Context(), c.Query("uid"), day)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.tasks(c, tasks)
}

func (s *Server) handleTasksByRange(c *gin.Context) {
	from, err := s.queryDate(c, "startDate", "")
	if err != nil {
		s.fail(c, err)
		return
	}
	to, err := s.queryDate(c, "endDate", "today")
	if err != nil {
		s.fail(c, err)
		return
	}

	start, _ := timeparse.DayBounds(from)
	_, end := timeparse.DayBounds(to)
	tasks, err := s.sched.ListTasksForRange(c.Request.Context(), c.Query("uid"), start, end.Add(-time.Second))
	if err != nil {
		s.fail(c, err)
		return
	}
	s.tasks(c, tasks)
}

func (s *Server) handleTasksByDuration(c *gin.Context) {
	p := c.Query("duration")
	minutes, ok := timeparse.ParseDuration(p)
	if !ok {
		s.fail(c, &daybook.ValidationError{Field: "duration", Reason: fmt.Sprintf("could not understand %q", p)})
		return
	}

	tasks, err := s.sched.ListTasksByDurationCeiling(c.Request.Context(), c.Query("uid"), minutes)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.tasks(c, tasks)
}

func (s *Server) handleFreeSlots(c *gin.Context) {
	day, err := s.queryDate(c, "date", "today")
	if err != nil {
		s.fail(c, err)
		return
	}

	slots, err := s.sched.ComputeFreeSlots(c.Request.Context(), c.Query("uid"), day)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   fmt.Sprintf("Found %d free slots", len(slots)),
		"freeSlots": slots,
	})
}

func (s *Server) handleUpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("taskId"))
	if err != nil {
		s.fail(c, &daybook.ValidationError{Field: "taskId", Reason: "not a valid id"})
		return
	}
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, &daybook.ValidationError{Reason: "invalid request body"})
		return
	}

	task, err := s.sched.UpdateStatus(c.Request.Context(), req.UID, id, req.TaskStatus)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("Task marked %s", task.Status),
		"task":    task,
	})
}

func (s *Server) tasks(c *gin.Context, tasks []daybook.Task) {
	if tasks == nil {
		tasks = []daybook.Task{}
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("Found %d tasks", len(tasks)),
		"tasks":   tasks,
	})
}

// queryDate parses the date in query parameter key, falling back to def when
// the parameter is absent. An empty def makes the parameter required.
func (s *Server) queryDate(c *gin.Context, key, def string) (time.Time, error) {
	p := strings.TrimSpace(c.DefaultQuery(key, def))
	if p == "" {
		return time.Time{}, &daybook.ValidationError{Field: key, Reason: "required"}
	}
	day, ok := timeparse.ParseDate(p, s.now())
	if !ok {
		return time.Time{}, &daybook.ValidationError{Field: key, Reason: fmt.Sprintf("could not understand %q", p)}
	}
	return day, nil
}

// fail writes err with the status code its kind maps to.
func (s *Server) fail(c *gin.Context, err error) {
	var verr *daybook.ValidationError
	var conflict *daybook.ConflictError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": verr.Error(),
			"field":   verr.Field,
		})
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"message": conflict.Error(),
			"task":    conflict.Task,
		})
	case errors.Is(err, daybook.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"message": "Task not found",
		})
	default:
		s.l.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Internal server error",
		})
	}
}
