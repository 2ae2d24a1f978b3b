package sweeper

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/benjamonnguyen/daybook"
	"github.com/benjamonnguyen/daybook/charmlog"
	"github.com/benjamonnguyen/daybook/testutil"
)

var now = time.Date(2025, 11, 17, 14, 20, 0, 0, time.Local)

func newTestSweeper(t *testing.T) (*Sweeper, *testutil.FakeTaskRepo, *testutil.Clock) {
	t.Helper()
	clock := testutil.NewClock(now)
	repo := testutil.NewFakeTaskRepo()
	repo.Now = clock.Now
	s := New(repo, charmlog.Discard(), 10*time.Second, 30*time.Second).WithClock(clock.Now)
	return s, repo, clock
}

func TestSweepGracePeriod(t *testing.T) {
	s, repo, _ := newTestSweeper(t)

	// both active since 10 minutes before their end
	overdue := repo.Put(daybook.Task{
		UserID: "u1", Description: "overdue",
		StartTime: now.Add(-10*time.Minute - 40*time.Second),
		EndTime:   now.Add(-40 * time.Second),
		Status:    daybook.StatusActive,
	})
	recent := repo.Put(daybook.Task{
		UserID: "u1", Description: "recent",
		StartTime: now.Add(-10*time.Minute - 5*time.Second),
		EndTime:   now.Add(-5 * time.Second),
		Status:    daybook.StatusActive,
	})

	if err := s.Sweep(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := repo.Status(overdue.ID); got != daybook.StatusMissed {
		t.Errorf("expected overdue task missed, got %s", got)
	}
	if got := repo.Status(recent.ID); got != daybook.StatusActive {
		t.Errorf("expected recent task still active, got %s", got)
	}
}

func TestSweepStartsUpcoming(t *testing.T) {
	s, repo, clock := newTestSweeper(t)

	due := repo.Put(daybook.Task{UserID: "u1", Description: "due", StartTime: now, EndTime: now.Add(time.Hour)})
	later := repo.Put(daybook.Task{UserID: "u1", Description: "later", StartTime: now.Add(time.Minute), EndTime: now.Add(time.Hour)})

	if err := s.Sweep(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := repo.Status(due.ID); got != daybook.StatusActive {
		t.Errorf("expected due task active, got %s", got)
	}
	if got := repo.Status(later.ID); got != daybook.StatusUpcoming {
		t.Errorf("expected later task upcoming, got %s", got)
	}

	clock.Advance(time.Minute)
	if err := s.Sweep(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := repo.Status(later.ID); got != daybook.StatusActive {
		t.Errorf("expected later task active after a minute, got %s", got)
	}
}

func TestSweepNeverTouchesTerminal(t *testing.T) {
	s, repo, clock := newTestSweeper(t)

	var ids []daybook.Task
	for _, status := range []daybook.Status{daybook.StatusCompleted, daybook.StatusCancelled} {
		ids = append(ids,
			repo.Put(daybook.Task{UserID: "u1", Description: "past", StartTime: now.Add(-2 * time.Hour), EndTime: now.Add(-time.Hour), Status: status}),
			repo.Put(daybook.Task{UserID: "u1", Description: "running", StartTime: now.Add(-time.Minute), EndTime: now.Add(time.Minute), Status: status}),
			repo.Put(daybook.Task{UserID: "u1", Description: "future", StartTime: now.Add(time.Hour), EndTime: now.Add(2 * time.Hour), Status: status}),
		)
	}

	for range 10 {
		if err := s.Sweep(context.Background()); err != nil {
			t.Fatal(err)
		}
		clock.Advance(30 * time.Minute)
	}

	for _, task := range ids {
		if got := repo.Status(task.ID); got != task.Status {
			t.Errorf("%s task changed from %s to %s", task.Description, task.Status, got)
		}
	}
}

func TestSweepWholeLifecycle(t *testing.T) {
	s, repo, clock := newTestSweeper(t)
	task := repo.Put(daybook.Task{UserID: "u1", Description: "t", StartTime: now.Add(time.Minute), EndTime: now.Add(11 * time.Minute)})

	steps := []struct {
		advance time.Duration
		want    daybook.Status
	}{
		{0, daybook.StatusUpcoming},
		{time.Minute, daybook.StatusActive},
		{10 * time.Minute, daybook.StatusActive},
		{20 * time.Second, daybook.StatusActive},
		{10 * time.Second, daybook.StatusMissed},
		{time.Hour, daybook.StatusMissed},
	}
	for i, step := range steps {
		clock.Advance(step.advance)
		if err := s.Sweep(context.Background()); err != nil {
			t.Fatal(err)
		}
		if got := repo.Status(task.ID); got != step.want {
			t.Fatalf("step %d: expected %s, got %s", i, step.want, got)
		}
	}
}

func TestSweepReportsFailure(t *testing.T) {
	s, repo, _ := newTestSweeper(t)
	repo.BulkErr = errors.New("locked")

	err := s.Sweep(context.Background())
	if !errors.Is(err, repo.BulkErr) {
		t.Fatalf("expected wrapped repo error, got %v", err)
	}
	if !strings.Contains(err.Error(), "miss overdue tasks") || !strings.Contains(err.Error(), "start due tasks") {
		t.Errorf("expected both phases in %q", err)
	}
}

func TestRunLogsEachFailedSweepOnce(t *testing.T) {
	var buf bytes.Buffer
	repo := testutil.NewFakeTaskRepo()
	repo.BulkErr = errors.New("locked")
	logger := charmlog.NewLogger(charmlog.Options{Writer: &buf, Level: "error"})
	s := New(repo, logger, time.Millisecond, time.Second).WithClock(testutil.NewClock(now).Now)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	out := buf.String()
	failed := strings.Count(out, "failed sweep")
	if entries := strings.Count(out, "ERRO"); entries != failed {
		t.Errorf("expected only %d failed sweep entries, got %d error entries:\n%s", failed, entries, out)
	}
	if failed == 0 {
		t.Fatal("expected failed sweeps to be logged")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	s, repo, _ := newTestSweeper(t)
	s.Interval = time.Millisecond
	task := repo.Put(daybook.Task{UserID: "u1", Description: "due", StartTime: now.Add(-time.Second), EndTime: now.Add(time.Hour)})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for repo.Status(task.ID) != daybook.StatusActive {
		select {
		case <-deadline:
			t.Fatal("sweeper never ran")
		case <-time.After(time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
