package intent

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/benjamonnguyen/daybook"
	"github.com/benjamonnguyen/daybook/timeparse"
)

var (
	createCues = cues("remind me", "set a reminder", "schedule", "add task", "add a task",
		"create task", "create a task", "new task", "book")
	freeCues = cues("free time", "when am i free", "am i free", "free slot", "free slots",
		"empty slot", "empty slots", "available", "free on")
	allCues  = cues("all tasks", "all my tasks", "every task", "everything")
	listCues = cues("tasks", "task list", "agenda", "what do i have", "what's on", "whats on", "planned")

	// "my schedule" asks to see tasks, it does not schedule one.
	scheduleNoun = regexp.MustCompile(`\b(my|the|today's|tomorrow's|todays|tomorrows) schedule\b`)

	startPhraseRe = regexp.MustCompile(`(?i)\b(?:(?:today|tomorrow|tonight)\s+)?(?:at\s+)?` +
		`(?:\d{1,2}(?::\d{2})?\s*[ap]\.?\s?m\b\.?|(?:[01]?\d|2[0-3]):[0-5]\d\b|noon\b|midnight\b)` +
		`(?:\s+(?:today|tomorrow|tonight)\b)?`)
	durationPhraseRe = regexp.MustCompile(`(?i)\bfor\s+(?:about\s+)?(` + quantity + `(?:\s+(?:and\s+)?` + quantity + `|` + quantity + `)*)\b`)
	dayWordRe        = regexp.MustCompile(`(?i)\b(?:today|tomorrow|tonight)\b|\b\d{4}-\d{2}-\d{2}\b`)
	fillerRe         = regexp.MustCompile(`(?i)^(?:to|about|that)\s+`)
)

const quantity = `\d+(?:\.\d+)?\s*(?:hours?|hrs?|h|minutes?|mins?|m)`

// KeywordStrategy matches fixed phrases. It is deterministic and never fails.
type KeywordStrategy struct {
	now func() time.Time
}

func NewKeywordStrategy() *KeywordStrategy {
	return &KeywordStrategy{now: time.Now}
}

// WithClock replaces time.Now and returns s.
func (s *KeywordStrategy) WithClock(now func() time.Time) *KeywordStrategy {
	s.now = now
	return s
}

func (s *KeywordStrategy) Name() string { return "keyword" }

func (s *KeywordStrategy) Classify(_ context.Context, message string) (Verdict, error) {
	text := strings.ToLower(strings.Join(strings.Fields(message), " "))
	text = scheduleNoun.ReplaceAllString(text, "agenda")

	var v Verdict
	date, hasDate := timeparse.ParseDate(text, s.now())
	if hasDate {
		v.Fields.Date = timeparse.FormatDate(date)
	}

	switch {
	case createCues.MatchString(text):
		v.Intent = daybook.IntentCreateTask
		s.readTask(strings.Join(strings.Fields(message), " "), &v.Fields)
	case freeCues.MatchString(text):
		v.Intent = daybook.IntentFetchFreeSlots
	case allCues.MatchString(text):
		v.Intent = daybook.IntentFetchAllTasks
	case hasDate:
		v.Intent = daybook.IntentFetchTasksForDate
	case listCues.MatchString(text):
		v.Intent = daybook.IntentFetchAllTasks
	}

	return v, nil
}

// readTask fills description, start and duration from a create request
// such as "remind me to call mom at 7 pm for 20 minutes". A start next to a
// day it cannot resolve is left for the user to restate.
func (s *KeywordStrategy) readTask(message string, fields *daybook.Fields) {
	rest := message
	if loc := createCues.FindStringIndex(rest); loc != nil {
		rest = rest[loc[1]:]
	}

	if m := durationPhraseRe.FindStringSubmatchIndex(rest); m != nil {
		if minutes, ok := timeparse.ParseDuration(rest[m[2]:m[3]]); ok {
			fields.Duration = strconv.Itoa(minutes)
		}
		rest = rest[:m[0]] + " " + rest[m[1]:]
	}

	if m := startPhraseRe.FindStringIndex(rest); m != nil {
		p := rest[m[0]:m[1]]
		if !timeparse.HasUnresolvedDay(message) {
			if fields.Date != "" && !timeparse.HasDayQualifier(p) {
				p = fields.Date + " " + p
			}
			if t, ok := timeparse.ParseStartTime(p, s.now()); ok {
				fields.StartTime = timeparse.FormatStartTime(t)
			}
		}
		rest = rest[:m[0]] + " " + rest[m[1]:]
	}

	rest = dayWordRe.ReplaceAllString(rest, " ")
	rest = strings.Trim(strings.Join(strings.Fields(rest), " "), " :,.;!?-")
	fields.Description = fillerRe.ReplaceAllString(rest, "")
}

// cues matches any of phrases as whole words, ignoring case.
func cues(phrases ...string) *regexp.Regexp {
	quoted := make([]string, len(phrases))
	for i, p := range phrases {
		quoted[i] = regexp.QuoteMeta(p)
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
}
