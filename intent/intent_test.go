package intent

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/benjamonnguyen/daybook"
	"github.com/benjamonnguyen/daybook/charmlog"
	"github.com/benjamonnguyen/daybook/testutil"
)

// Monday 2025-11-17 08:00 local
var now = time.Date(2025, 11, 17, 8, 0, 0, 0, time.Local)

func clock() time.Time { return now }

func TestKeywordStrategy(t *testing.T) {
	s := NewKeywordStrategy().WithClock(clock)

	tests := []struct {
		message string
		want    daybook.Intent
		date    string
	}{
		{"Remind me to call mom", daybook.IntentCreateTask, ""},
		{"schedule a dentist appointment tomorrow", daybook.IntentCreateTask, "2025-11-18"},
		{"please add a task", daybook.IntentCreateTask, ""},
		{"book the meeting room", daybook.IntentCreateTask, ""},
		{"When am I free today?", daybook.IntentFetchFreeSlots, "2025-11-17"},
		{"any free time tomorrow", daybook.IntentFetchFreeSlots, "2025-11-18"},
		{"show all my tasks", daybook.IntentFetchAllTasks, ""},
		{"list all tasks for tomorrow", daybook.IntentFetchAllTasks, "2025-11-18"},
		{"what's on tomorrow", daybook.IntentFetchTasksForDate, "2025-11-18"},
		{"tasks for 2025-11-20", daybook.IntentFetchTasksForDate, "2025-11-20"},
		{"what's my schedule today", daybook.IntentFetchTasksForDate, "2025-11-17"},
		{"show me my schedule", daybook.IntentFetchAllTasks, ""},
		{"my tasks", daybook.IntentFetchAllTasks, ""},
		{"hello there", "", ""},
		{"I lost my notebook", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			v, err := s.Classify(context.Background(), tt.message)
			if err != nil {
				t.Fatal(err)
			}
			if v.Intent != tt.want {
				t.Errorf("intent = %q, want %q", v.Intent, tt.want)
			}
			if v.Fields.Date != tt.date {
				t.Errorf("date = %q, want %q", v.Fields.Date, tt.date)
			}
		})
	}
}

func TestKeywordStrategyReadsTask(t *testing.T) {
	s := NewKeywordStrategy().WithClock(clock)

	tests := []struct {
		message string
		want    daybook.Fields
	}{
		{"remind me to call mom at 7 pm for 20 minutes",
			daybook.Fields{Description: "call mom", StartTime: "2025-11-17T19:00", Duration: "20"}},
		{"Schedule gym tomorrow at 6 AM for 1 hour 30 minutes",
			daybook.Fields{Description: "gym", StartTime: "2025-11-18T06:00", Duration: "90", Date: "2025-11-18"}},
		{"tomorrow remind me to stretch at 7:15 for 1h30m",
			daybook.Fields{Description: "stretch", StartTime: "2025-11-18T07:15", Duration: "90", Date: "2025-11-18"}},
		{"add a task: water the plants",
			daybook.Fields{Description: "water the plants"}},
		{"remind me to stretch",
			daybook.Fields{Description: "stretch"}},
		{"please add a task",
			daybook.Fields{}},
		{"remind me to call mom next friday at 3pm",
			daybook.Fields{Description: "call mom next friday"}},
		{"remind me to nap at noon for 3 hammers",
			daybook.Fields{Description: "nap for 3 hammers", StartTime: "2025-11-17T12:00"}},
	}
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			v, err := s.Classify(context.Background(), tt.message)
			if err != nil {
				t.Fatal(err)
			}
			if v.Intent != daybook.IntentCreateTask {
				t.Fatalf("intent = %q, want create", v.Intent)
			}
			if v.Fields != tt.want {
				t.Errorf("got %+v, want %+v", v.Fields, tt.want)
			}
		})
	}
}

func TestLLMStrategyNormalizesFields(t *testing.T) {
	ext := &testutil.FakeExtractor{Response: `Sure! Here you go:
{"intent": "create_task", "fields": {"task": "call mom", "startTime": "7 pm", "duration": "1 hour 20 minutes", "date": "tomorrow"}}`}
	s := NewLLMStrategy(ext, time.Second, charmlog.Discard()).WithClock(clock)

	v, err := s.Classify(context.Background(), "remind me to call mom tomorrow at 7 pm for 1 hour 20 minutes")
	if err != nil {
		t.Fatal(err)
	}
	want := daybook.Fields{
		Description: "call mom",
		StartTime:   "2025-11-18T19:00",
		Duration:    "80",
		Date:        "2025-11-18",
	}
	if v.Intent != daybook.IntentCreateTask || v.Fields != want {
		t.Errorf("got %s %+v, want %+v", v.Intent, v.Fields, want)
	}
	if ext.Calls() != 1 || !strings.Contains(ext.Prompts[0], "call mom tomorrow") {
		t.Errorf("unexpected prompts %v", ext.Prompts)
	}
}

func TestLLMStrategyDropsUnparsableFields(t *testing.T) {
	ext := &testutil.FakeExtractor{Response: `{"intent":"create_task","fields":{"task":"nap","startTime":"later","duration":null,"date":"someday"}}`}
	s := NewLLMStrategy(ext, time.Second, charmlog.Discard()).WithClock(clock)

	v, err := s.Classify(context.Background(), "nap later")
	if err != nil {
		t.Fatal(err)
	}
	if v.Fields != (daybook.Fields{Description: "nap"}) {
		t.Errorf("unexpected fields %+v", v.Fields)
	}
}

func TestLLMStrategyDropsStartWithUnparsableDate(t *testing.T) {
	for _, date := range []string{"next friday", "10/20", "saturday"} {
		t.Run(date, func(t *testing.T) {
			ext := &testutil.FakeExtractor{Response: `{"intent":"create_task","fields":{"task":"call mom","startTime":"3pm","duration":"30 minutes","date":"` + date + `"}}`}
			s := NewLLMStrategy(ext, time.Second, charmlog.Discard()).WithClock(clock)

			v, err := s.Classify(context.Background(), "call mom "+date+" at 3pm for 30 minutes")
			if err != nil {
				t.Fatal(err)
			}
			want := daybook.Fields{Description: "call mom", Duration: "30"}
			if v.Fields != want {
				t.Errorf("got %+v, want %+v", v.Fields, want)
			}
		})
	}
}

func TestLLMStrategyAcceptsNumericDuration(t *testing.T) {
	ext := &testutil.FakeExtractor{Response: `{"intent":"create_task","fields":{"task":"run","startTime":"6 pm","duration":45}}`}
	s := NewLLMStrategy(ext, time.Second, charmlog.Discard()).WithClock(clock)

	v, err := s.Classify(context.Background(), "run at 6 pm for 45")
	if err != nil {
		t.Fatal(err)
	}
	if v.Fields.Duration != "45" || v.Fields.StartTime != "2025-11-17T18:00" {
		t.Errorf("unexpected fields %+v", v.Fields)
	}
}

func TestLLMStrategyErrors(t *testing.T) {
	tests := []struct {
		name     string
		response string
		err      error
		want     error
	}{
		{"upstream", "", errors.New("connection refused"), daybook.ErrUpstreamUnavailable},
		{"no json", "I cannot help with that", nil, daybook.ErrExtractionMalformed},
		{"broken json", `{"intent": "create_task", "fields": {`, nil, daybook.ErrExtractionMalformed},
		{"two objects", `{"intent":"unknown"} {"intent":"create_task"}`, nil, daybook.ErrExtractionMalformed},
		{"bad intent", `{"intent":"fetch_task","fields":{}}`, nil, daybook.ErrExtractionMalformed},
		{"missing intent", `{"fields":{"task":"x"}}`, nil, daybook.ErrExtractionMalformed},
		{"bad field type", `{"intent":"create_task","fields":{"task":["x"]}}`, nil, daybook.ErrExtractionMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext := &testutil.FakeExtractor{Response: tt.response, Err: tt.err}
			s := NewLLMStrategy(ext, time.Second, charmlog.Discard()).WithClock(clock)
			if _, err := s.Classify(context.Background(), "x"); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestLLMStrategyTimeout(t *testing.T) {
	ext := &testutil.FakeExtractor{Respond: func(ctx context.Context, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}}
	s := NewLLMStrategy(ext, 10*time.Millisecond, charmlog.Discard())

	start := time.Now()
	_, err := s.Classify(context.Background(), "x")
	if !errors.Is(err, daybook.ErrUpstreamUnavailable) {
		t.Errorf("expected ErrUpstreamUnavailable, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("timeout not applied")
	}
}

func newClassifier(ext daybook.Extractor) *Classifier {
	return NewClassifier(charmlog.Discard(),
		NewKeywordStrategy().WithClock(clock),
		NewLLMStrategy(ext, time.Second, charmlog.Discard()).WithClock(clock),
	)
}

func TestClassifierKeywordWins(t *testing.T) {
	ext := &testutil.FakeExtractor{Response: `{"intent":"fetch_all_tasks","fields":{"task":"call mom","date":"2025-11-20"}}`}
	d := newClassifier(ext).Classify(context.Background(), "remind me to call mom today")

	if d.Intent != daybook.IntentCreateTask || d.By != "keyword" {
		t.Errorf("expected keyword create, got %s by %s", d.Intent, d.By)
	}
	if d.Fields.Description != "call mom" {
		t.Errorf("expected llm description, got %q", d.Fields.Description)
	}
	if d.Fields.Date != "2025-11-17" {
		t.Errorf("expected keyword date to win, got %q", d.Fields.Date)
	}
}

func TestClassifierDefersToLLM(t *testing.T) {
	ext := &testutil.FakeExtractor{Response: `{"intent":"create_task","fields":{"task":"water the plants","startTime":"6 pm","duration":"10 minutes"}}`}
	d := newClassifier(ext).Classify(context.Background(), "water the plants at 6 pm for 10 minutes")

	if d.Intent != daybook.IntentCreateTask || d.By != "llm" {
		t.Errorf("expected llm create, got %s by %s", d.Intent, d.By)
	}
	want := daybook.Fields{Description: "water the plants", StartTime: "2025-11-17T18:00", Duration: "10"}
	if d.Fields != want {
		t.Errorf("got %+v, want %+v", d.Fields, want)
	}
}

func TestClassifierPrefersLLMFreeText(t *testing.T) {
	ext := &testutil.FakeExtractor{Response: `{"intent":"create_task","fields":{"task":"call my mother","startTime":"8 pm","duration":null,"date":"tomorrow"}}`}
	d := newClassifier(ext).Classify(context.Background(), "remind me to call mom today at 7 pm for 20 minutes")

	if d.By != "keyword" {
		t.Errorf("expected keyword to decide the intent, got %s", d.By)
	}
	want := daybook.Fields{
		Description: "call my mother",
		StartTime:   "2025-11-18T20:00",
		Duration:    "20",
		Date:        "2025-11-17",
	}
	if d.Fields != want {
		t.Errorf("got %+v, want %+v", d.Fields, want)
	}
}

func TestClassifierDegradesToKeyword(t *testing.T) {
	ext := &testutil.FakeExtractor{Err: errors.New("503")}
	c := newClassifier(ext)

	d := c.Classify(context.Background(), "when am I free tomorrow")
	if d.Intent != daybook.IntentFetchFreeSlots || d.Fields.Date != "2025-11-18" {
		t.Errorf("expected keyword free slots for tomorrow, got %s %+v", d.Intent, d.Fields)
	}

	d = c.Classify(context.Background(), "good morning")
	if d.Intent != daybook.IntentUnknown || d.By != "" {
		t.Errorf("expected unknown, got %s by %s", d.Intent, d.By)
	}
}

func TestClassifierMalformedIsUnknown(t *testing.T) {
	ext := &testutil.FakeExtractor{Response: "no idea"}
	d := newClassifier(ext).Classify(context.Background(), "blah")
	if d.Intent != daybook.IntentUnknown {
		t.Errorf("expected unknown, got %s", d.Intent)
	}
}

func TestClassifierLLMUnknownStaysUnknown(t *testing.T) {
	ext := &testutil.FakeExtractor{Response: `{"intent":"unknown","fields":{}}`}
	d := newClassifier(ext).Classify(context.Background(), "tell me a joke")
	if d.Intent != daybook.IntentUnknown {
		t.Errorf("expected unknown, got %s", d.Intent)
	}
}
