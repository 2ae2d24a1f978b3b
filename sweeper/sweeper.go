// Package sweeper advances task statuses as wall-clock time passes.
package sweeper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benjamonnguyen/daybook"
)

type Sweeper struct {
	repo daybook.TaskRepo
	l    daybook.Logger
	now  func() time.Time

	Interval time.Duration
	// Grace is how long an active task may run past its end before it is
	// considered missed.
	Grace time.Duration
}

func New(repo daybook.TaskRepo, logger daybook.Logger, interval, grace time.Duration) *Sweeper {
	return &Sweeper{
		repo:     repo,
		l:        logger,
		now:      time.Now,
		Interval: interval,
		Grace:    grace,
	}
}

// WithClock replaces time.Now and returns s.
func (s *Sweeper) WithClock(now func() time.Time) *Sweeper {
	s.now = now
	return s
}

// Run sweeps every Interval until ctx is done. A failed sweep is logged and
// retried on the next tick.
func (s *Sweeper) Run(ctx context.Context) {
	s.l.Info("starting sweeper", "interval", s.Interval, "grace", s.Grace)
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.l.Info("stopping sweeper")
			return
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil && !errors.Is(err, context.Canceled) {
				s.l.Error("failed sweep", "err", err)
			}
		}
	}
}

// Sweep moves overdue active tasks to missed, then started upcoming tasks to
// active. Failures are returned, not logged. Both updates only match their source status, so tasks a user has
// completed or cancelled are never touched.
func (s *Sweeper) Sweep(ctx context.Context) error {
	now := s.now()

	missed, missErr := s.repo.BulkTransition(ctx, daybook.TransitionMiss, daybook.ByEndTime, now.Add(-s.Grace))
	if missErr != nil {
		missErr = fmt.Errorf("miss overdue tasks: %w", missErr)
	}
	started, startErr := s.repo.BulkTransition(ctx, daybook.TransitionStart, daybook.ByStartTime, now)
	if startErr != nil {
		startErr = fmt.Errorf("start due tasks: %w", startErr)
	}

	s.l.Debug("swept", "missed", missed, "started", started)
	return errors.Join(missErr, startErr)
}
