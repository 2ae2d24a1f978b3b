// Package httpapi serves the task and chat JSON API over gin.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/benjamonnguyen/daybook"
	"github.com/benjamonnguyen/daybook/agent"
	"github.com/benjamonnguyen/daybook/scheduler"
)

// Scheduler is the part of *scheduler.Engine the handlers use.
type Scheduler interface {
	CreateTask(ctx context.Context, req scheduler.CreateTaskRequest) (daybook.Task, error)
	ListAllTasks(ctx context.Context, userID string) ([]daybook.Task, error)
	ListTasksForRange(ctx context.Context, userID string, start, end time.Time) ([]daybook.Task, error)
	ListTasksForDay(ctx context.Context, userID string, day time.Time) ([]daybook.Task, error)
	ListTasksByDurationCeiling(ctx context.Context, userID string, maxMinutes int) ([]daybook.Task, error)
	GetTask(ctx context.Context, userID string, id uuid.UUID) (daybook.Task, error)
	ComputeFreeSlots(ctx context.Context, userID string, day time.Time) ([]daybook.FreeSlot, error)
	UpdateStatus(ctx context.Context, userID string, id uuid.UUID, status daybook.Status) (daybook.Task, error)
}

type Chatter interface {
	HandleMessage(ctx context.Context, userID, text string) agent.Reply
}

type Server struct {
	sched  Scheduler
	chat   Chatter
	l      daybook.Logger
	now    func() time.Time
	router *gin.Engine
}

type Option func(*Server)

func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

func NewServer(sched Scheduler, chat Chatter, logger daybook.Logger, opts ...Option) *Server {
	router := gin.New()
	s := &Server{
		sched:  sched,
		chat:   chat,
		l:      logger,
		now:    time.Now,
		router: router,
	}
	for _, opt := range opts {
		opt(s)
	}

	router.Use(requestLogger(logger), gin.CustomRecovery(s.recovery))

	router.GET("/", s.handleIndex)

	api := router.Group("/api")
	{
		api.POST("/chat", s.handleChat)

		task := api.Group("/task")
		task.POST("", s.handleCreateTask)
		task.GET("/all", s.handleAllTasks)
		task.GET("/get/:taskId", s.handleGetTask)
		task.GET("/getTaskBySingleDate", s.handleTasksByDate)
		task.GET("/getTaskOfSpecificDateRange", s.handleTasksByRange)
		task.GET("/getTaskByDuration", s.handleTasksByDuration)
		task.GET("/getFreeSlots", s.handleFreeSlots)
		task.PATCH("/updateStatus/:taskId", s.handleUpdateStatus)
	}

	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// HTTPServer wraps the router in an *http.Server listening on addr.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

func requestLogger(logger daybook.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		keyvals := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", time.Since(start),
		}
		if status >= http.StatusInternalServerError {
			logger.Warn("request failed", keyvals...)
		} else {
			logger.Debug("request", keyvals...)
		}
	}
}

func (s *Server) recovery(c *gin.Context, recovered any) {
	s.l.Error("handler panicked", "path", c.Request.URL.Path, "panic", recovered)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"message": "Internal server error",
	})
}
