package main

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/timer"

	"github.com/benjamonnguyen/daybook"
)

// activeTimer counts down to the end of the running task.
type activeTimer struct {
	timer.Model
	task daybook.Task
}

func newActiveTimer(task daybook.Task, now time.Time) activeTimer {
	return activeTimer{
		Model: timer.NewWithInterval(task.EndTime.Sub(now), time.Second),
		task:  task,
	}
}

func (t activeTimer) running() bool {
	return t.task.Description != "" && !t.Timedout()
}

func (t activeTimer) View() string {
	left := ""
	if t.Timeout > time.Minute {
		left = fmt.Sprintf("%dm", int(t.Timeout.Round(time.Minute).Minutes()))
	} else {
		left = fmt.Sprintf("%ds", int(t.Timeout.Seconds()))
	}
	return fmt.Sprintf("Now: %s (ends %s, %s left)", t.task.Description, t.task.EndTime.Format("3:04 PM"), left)
}
