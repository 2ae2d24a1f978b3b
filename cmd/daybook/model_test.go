package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/benjamonnguyen/daybook"
	"github.com/benjamonnguyen/daybook/agent"
	"github.com/benjamonnguyen/daybook/charmlog"
)

type fakeClient struct {
	reply    agent.Reply
	err      error
	active   daybook.Task
	hasTask  bool
	messages []string
	updates  []daybook.Status
}

func (f *fakeClient) Chat(_ context.Context, message string) (agent.Reply, error) {
	f.messages = append(f.messages, message)
	return f.reply, f.err
}

func (f *fakeClient) ActiveTask(context.Context) (daybook.Task, bool, error) {
	return f.active, f.hasTask, nil
}

func (f *fakeClient) UpdateStatus(_ context.Context, _ uuid.UUID, status daybook.Status) (daybook.Task, error) {
	f.updates = append(f.updates, status)
	t := f.active
	t.Status = status
	return t, nil
}

func enter(t *testing.T, m model, input string) (model, tea.Cmd) {
	t.Helper()
	m.userinput.SetValue(input)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return next.(model), cmd
}

func TestChatRoundTrip(t *testing.T) {
	fc := &fakeClient{reply: agent.Reply{Kind: agent.KindText, Text: "What is the task?"}}
	m := newModel(fc, charmlog.Discard())

	m, cmd := enter(t, m, "remind me")
	if !m.waiting {
		t.Error("expected model to wait for the reply")
	}
	if cmd == nil {
		t.Fatal("expected a chat command")
	}

	m, _ = enter(t, m, "again")
	if len(m.alerts) != 1 {
		t.Errorf("expected a single waiting alert, got %v", m.alerts)
	}

	next, _ := m.Update(ReplyMsg{reply: fc.reply})
	m = next.(model)
	if m.waiting {
		t.Error("expected waiting to clear")
	}
	if len(m.transcript) != 2 || !m.transcript[0].fromUser || m.transcript[1].text != "What is the task?" {
		t.Errorf("unexpected transcript %+v", m.transcript)
	}
}

func TestChatErrorIsAlert(t *testing.T) {
	m := newModel(&fakeClient{}, charmlog.Discard())
	m.waiting = true

	next, _ := m.Update(ErrorMsg{err: errors.New("connection refused")})
	m = next.(model)
	if m.waiting || len(m.alerts) != 1 || !strings.Contains(m.alerts[0], "connection refused") {
		t.Errorf("expected alert, got waiting=%v alerts=%v", m.waiting, m.alerts)
	}
	if m.quitting {
		t.Error("errors should not end the session")
	}
}

func TestFinishActive(t *testing.T) {
	now := time.Date(2025, 11, 17, 9, 10, 0, 0, time.Local)
	task := daybook.Task{
		ID:          uuid.New(),
		Description: "focus",
		StartTime:   now.Add(-10 * time.Minute),
		EndTime:     now.Add(20 * time.Minute),
		Status:      daybook.StatusActive,
	}
	fc := &fakeClient{active: task, hasTask: true}
	m := newModel(fc, charmlog.Discard())
	m.now = func() time.Time { return now }

	m, _ = enter(t, m, "/d")
	if len(m.alerts) != 1 || len(fc.updates) != 0 {
		t.Fatalf("expected no-running-task alert, got %v %v", m.alerts, fc.updates)
	}

	next, _ := m.Update(ActiveTaskMsg{task: task, ok: true})
	m = next.(model)
	if !m.active.running() || m.active.Timeout != 20*time.Minute {
		t.Fatalf("expected 20m countdown, got running=%v timeout=%s", m.active.running(), m.active.Timeout)
	}
	if !strings.Contains(m.active.View(), "focus") {
		t.Errorf("unexpected timer view %q", m.active.View())
	}

	_, cmd := m.finishActive(daybook.StatusCancelled)
	if cmd == nil {
		t.Fatal("expected a status command")
	}
	msg := cmd()
	if len(fc.updates) != 1 || fc.updates[0] != daybook.StatusCancelled {
		t.Fatalf("expected cancel request, got %v", fc.updates)
	}

	next, _ = m.Update(msg)
	m = next.(model)
	if m.active.running() {
		t.Error("expected timer to stop")
	}
}

func TestRunOnce(t *testing.T) {
	fc := &fakeClient{reply: agent.Reply{Kind: agent.KindText, Text: "You have no tasks scheduled."}}

	var out bytes.Buffer
	if code := runOnce(fc, []string{"show", "all", "my", "tasks"}, &out); code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if len(fc.messages) != 1 || fc.messages[0] != "show all my tasks" {
		t.Errorf("unexpected messages %v", fc.messages)
	}
	if !strings.Contains(out.String(), "no tasks") {
		t.Errorf("unexpected output %q", out.String())
	}

	fc.err = errors.New("boom")
	out.Reset()
	if code := runOnce(fc, []string{"hi"}, &out); code != 1 {
		t.Errorf("expected exit 1, got %d", code)
	}
}
