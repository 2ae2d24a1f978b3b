// Package agent runs the chat dialogue: it collects the fields a request
// needs over as many messages as it takes, then hands the request to the
// scheduler.
package agent

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/benjamonnguyen/daybook"
	"github.com/benjamonnguyen/daybook/intent"
	"github.com/benjamonnguyen/daybook/scheduler"
	"github.com/benjamonnguyen/daybook/timeparse"
)

const (
	timeFormat      = "3:04 PM"
	shortDateFormat = "Jan 2, 2006"
	longDateFormat  = "January 2, 2006"
	itemDateFormat  = "Mon Jan 2"
)

const helpText = `I didn't understand that. You can ask me to:
- Create a new task ("remind me to call mom at 7 pm for 20 minutes")
- Show all your tasks ("show all my tasks")
- Show tasks for a specific date ("what's on tomorrow")
- Find free time slots ("when am I free today")`

var questions = map[daybook.Field]string{
	daybook.FieldDescription: "What is the task?",
	daybook.FieldStartTime:   "When should it start? (e.g. 7 pm, tomorrow 9 AM, 2025-11-20 14:30)",
	daybook.FieldDuration:    "How long will it take? (e.g. 30 minutes, 1 hour 15 minutes)",
	daybook.FieldDate:        "Which date would you like to see? (e.g. 2025-11-17, today, or tomorrow)",
}

type Scheduler interface {
	CreateTask(ctx context.Context, req scheduler.CreateTaskRequest) (daybook.Task, error)
	ListAllTasks(ctx context.Context, userID string) ([]daybook.Task, error)
	ListTasksForDay(ctx context.Context, userID string, day time.Time) ([]daybook.Task, error)
	ComputeFreeSlots(ctx context.Context, userID string, day time.Time) ([]daybook.FreeSlot, error)
}

type Classifier interface {
	Classify(ctx context.Context, message string) intent.Decision
}

type Agent struct {
	sched      Scheduler
	classifier Classifier
	mem        daybook.MemoryStore
	l          daybook.Logger
	now        func() time.Time
}

func New(sched Scheduler, classifier Classifier, mem daybook.MemoryStore, logger daybook.Logger) *Agent {
	return &Agent{
		sched:      sched,
		classifier: classifier,
		mem:        mem,
		l:          logger,
		now:        time.Now,
	}
}

// WithClock replaces time.Now and returns a.
func (a *Agent) WithClock(now func() time.Time) *Agent {
	a.now = now
	return a
}

// HandleMessage advances the user's conversation by one message. It never
// fails: every error is turned into a reply.
func (a *Agent) HandleMessage(ctx context.Context, userID, text string) Reply {
	text = strings.TrimSpace(text)
	if userID == "" {
		return textReply("I need to know who you are before I can help.")
	}
	if text == "" {
		return textReply("Tell me what you'd like to do, for example \"when am I free today\".")
	}

	state := a.mem.Get(userID)
	if state.Awaiting != daybook.FieldNone && state.Intent != "" {
		a.l.Debug("filling field", "uid", userID, "field", state.Awaiting)
		var fields daybook.Fields
		fields.Set(state.Awaiting, text)
		none := daybook.FieldNone
		a.mem.Merge(userID, daybook.StatePatch{Fields: fields, Awaiting: &none})
	} else {
		d := a.classifier.Classify(ctx, text)
		if d.Intent == daybook.IntentUnknown {
			a.mem.Clear(userID)
			return textReply(helpText)
		}
		a.mem.Merge(userID, daybook.StatePatch{Intent: d.Intent, Fields: d.Fields})
	}

	state = a.mem.Get(userID)
	switch state.Intent {
	case daybook.IntentCreateTask:
		return a.createTask(ctx, userID, state)
	case daybook.IntentFetchAllTasks:
		return a.fetchAllTasks(ctx, userID)
	case daybook.IntentFetchTasksForDate:
		return a.fetchTasksForDate(ctx, userID, state)
	case daybook.IntentFetchFreeSlots:
		return a.fetchFreeSlots(ctx, userID, state)
	default:
		a.mem.Clear(userID)
		return textReply(helpText)
	}
}

// ask stores the normalized fields, marks field as awaited and returns the
// question for it. A rejected phrase is cleared and quoted back.
func (a *Agent) ask(userID string, state daybook.ConversationState, fields daybook.Fields, field daybook.Field, rejected string) Reply {
	a.mem.Clear(userID)
	a.mem.Merge(userID, daybook.StatePatch{Intent: state.Intent, Fields: fields, Awaiting: &field})

	if rejected != "" {
		return textReply("Sorry, I couldn't understand %q. %s", rejected, questions[field])
	}
	return textReply("%s", questions[field])
}

func (a *Agent) createTask(ctx context.Context, userID string, state daybook.ConversationState) Reply {
	now := a.now()
	in := state.Fields
	out := daybook.Fields{
		Description: strings.TrimSpace(in.Description),
		Date:        in.Date,
	}

	var start time.Time
	var startOK bool
	if in.StartTime != "" {
		p := in.StartTime
		if in.Date != "" && !timeparse.HasDayQualifier(p) {
			p = in.Date + " " + p
		}
		if start, startOK = timeparse.ParseStartTime(p, now); startOK {
			out.StartTime = timeparse.FormatStartTime(start)
		}
	}

	var minutes int
	var durationOK bool
	if in.Duration != "" {
		if minutes, durationOK = timeparse.ParseDuration(in.Duration); durationOK {
			out.Duration = strconv.Itoa(minutes)
		}
	}

	switch {
	case out.Description == "":
		return a.ask(userID, state, out, daybook.FieldDescription, "")
	case !startOK:
		return a.ask(userID, state, out, daybook.FieldStartTime, in.StartTime)
	case !durationOK:
		return a.ask(userID, state, out, daybook.FieldDuration, in.Duration)
	}

	defer a.mem.Clear(userID)
	task, err := a.sched.CreateTask(ctx, scheduler.CreateTaskRequest{
		UserID:      userID,
		Description: out.Description,
		StartTime:   start,
		Duration:    minutes,
	})
	if err != nil {
		return a.failure(userID, "create that task", err)
	}

	return textReply("Your task has been created!\n\nTask: %s\nDate: %s\nTime: %s to %s",
		task.Description,
		task.StartTime.Format(shortDateFormat),
		task.StartTime.Format(timeFormat),
		task.EndTime.Format(timeFormat),
	)
}

func (a *Agent) fetchAllTasks(ctx context.Context, userID string) Reply {
	defer a.mem.Clear(userID)

	tasks, err := a.sched.ListAllTasks(ctx, userID)
	if err != nil {
		return a.failure(userID, "fetch your tasks", err)
	}
	if len(tasks) == 0 {
		return textReply("You have no tasks scheduled.")
	}

	_, todayEnd := timeparse.DayBounds(a.now())
	todayStart := todayEnd.AddDate(0, 0, -1)
	today, upcoming := []TaskItem{}, []TaskItem{}
	for _, t := range tasks {
		switch {
		case !t.StartTime.Before(todayEnd):
			upcoming = append(upcoming, toItem(t, true))
		case !t.StartTime.Before(todayStart):
			today = append(today, toItem(t, false))
		}
	}

	return Reply{Kind: KindTaskList, TaskList: &TaskList{
		Count:    len(today),
		Tasks:    today,
		Upcoming: upcoming,
	}}
}

func (a *Agent) fetchTasksForDate(ctx context.Context, userID string, state daybook.ConversationState) Reply {
	day, ok := timeparse.ParseDate(state.Fields.Date, a.now())
	if !ok {
		return a.ask(userID, state, daybook.Fields{}, daybook.FieldDate, state.Fields.Date)
	}
	defer a.mem.Clear(userID)

	tasks, err := a.sched.ListTasksForDay(ctx, userID, day)
	if err != nil {
		return a.failure(userID, "fetch tasks for that date", err)
	}
	label := day.Format(longDateFormat)
	if len(tasks) == 0 {
		return textReply("No tasks found for %s.", label)
	}

	items := make([]TaskItem, 0, len(tasks))
	for _, t := range tasks {
		items = append(items, toItem(t, false))
	}
	return Reply{Kind: KindTaskList, TaskList: &TaskList{
		Count:     len(items),
		Tasks:     items,
		DateLabel: label,
	}}
}

func (a *Agent) fetchFreeSlots(ctx context.Context, userID string, state daybook.ConversationState) Reply {
	now := a.now()
	day := now
	if state.Fields.Date != "" {
		var ok bool
		if day, ok = timeparse.ParseDate(state.Fields.Date, now); !ok {
			return a.ask(userID, state, daybook.Fields{}, daybook.FieldDate, state.Fields.Date)
		}
	}
	defer a.mem.Clear(userID)

	slots, err := a.sched.ComputeFreeSlots(ctx, userID, day)
	if err != nil {
		return a.failure(userID, "fetch your free time", err)
	}
	label := day.Format(longDateFormat)
	if len(slots) == 0 {
		return textReply("No free time left on %s. Your schedule is fully booked!", label)
	}

	items := make([]SlotItem, 0, len(slots))
	for i, s := range slots {
		items = append(items, SlotItem{
			Slot:     i + 1,
			Start:    s.Start.Format(timeFormat),
			End:      slotEnd(s),
			Duration: timeparse.FormatDuration(s.Minutes()),
		})
	}
	return Reply{Kind: KindFreeSlots, FreeSlots: &FreeSlots{
		Date:  label,
		Count: len(items),
		Slots: items,
	}}
}

// failure turns an engine error into a reply. Memory is cleared by the
// caller.
func (a *Agent) failure(userID, action string, err error) Reply {
	var verr *daybook.ValidationError
	var conflict *daybook.ConflictError
	switch {
	case errors.As(err, &verr):
		return textReply("I couldn't %s: %s.", action, verr.Reason)
	case errors.As(err, &conflict):
		t := conflict.Task
		return textReply("That overlaps with %q (%s, %s to %s). Please pick another time.",
			t.Description,
			t.StartTime.Format(shortDateFormat),
			t.StartTime.Format(timeFormat),
			t.EndTime.Format(timeFormat),
		)
	default:
		a.l.Error("failed to "+action, "uid", userID, "err", err)
		return textReply("Sorry, something went wrong and I couldn't %s. Please try again.", action)
	}
}

func toItem(t daybook.Task, withDate bool) TaskItem {
	item := TaskItem{
		Description: t.Description,
		Start:       t.StartTime.Format(timeFormat),
		End:         t.EndTime.Format(timeFormat),
	}
	if withDate {
		item.Date = t.StartTime.Format(itemDateFormat)
	}
	return item
}

func slotEnd(s daybook.FreeSlot) string {
	if s.End.Hour() == 0 && s.End.Minute() == 0 {
		return "midnight"
	}
	return s.End.Format(timeFormat)
}
