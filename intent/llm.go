package intent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/benjamonnguyen/daybook"
	"github.com/benjamonnguyen/daybook/timeparse"
)

const promptTemplate = `You extract scheduling requests from chat messages.

Answer with exactly one JSON object and nothing else:

{
  "intent": "create_task" | "fetch_all_tasks" | "fetch_tasks_for_date" | "fetch_free_slots" | "unknown",
  "fields": {
    "task": string | null,
    "startTime": string | null,
    "duration": string | null,
    "date": string | null
  }
}

Rules:
- "task" is the activity, copied from the message.
- "startTime" is the shortest exact time phrase from the message, e.g. "8:50 p.m.", "tomorrow 7 AM", "at 5 in the evening".
- "duration" is the exact length phrase, e.g. "20 minutes", "1 hour 30 minutes".
- "date" is the exact day phrase, e.g. "today", "tomorrow", "2025-11-20".
- Do not guess. Use null for anything the message does not say.

Message: %q
`

var jsonObjectRe = regexp.MustCompile(`(?s)\{.*\}`)

// LLMStrategy asks an Extractor to read the message. Its fields are
// normalized; a field that does not normalize is dropped.
type LLMStrategy struct {
	ext     daybook.Extractor
	timeout time.Duration
	now     func() time.Time
	l       daybook.Logger
}

func NewLLMStrategy(ext daybook.Extractor, timeout time.Duration, logger daybook.Logger) *LLMStrategy {
	return &LLMStrategy{
		ext:     ext,
		timeout: timeout,
		now:     time.Now,
		l:       logger,
	}
}

// WithClock replaces time.Now and returns s.
func (s *LLMStrategy) WithClock(now func() time.Time) *LLMStrategy {
	s.now = now
	return s
}

func (s *LLMStrategy) Name() string { return "llm" }

// ReadsFreeText is true: the model reads description, start and duration
// better than fixed phrases do.
func (s *LLMStrategy) ReadsFreeText() bool { return true }

func (s *LLMStrategy) Classify(ctx context.Context, message string) (Verdict, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	raw, err := s.ext.Extract(ctx, fmt.Sprintf(promptTemplate, message))
	if err != nil {
		return Verdict{}, fmt.Errorf("%w: %v", daybook.ErrUpstreamUnavailable, err)
	}

	ex, err := parseExtraction(raw)
	if err != nil {
		return Verdict{}, err
	}

	return Verdict{
		Intent: ex.Intent,
		Fields: s.normalize(ex.Fields),
	}, nil
}

type extraction struct {
	Intent daybook.Intent  `json:"intent"`
	Fields extractedFields `json:"fields"`
}

type extractedFields struct {
	Task      phrase `json:"task"`
	StartTime phrase `json:"startTime"`
	Duration  phrase `json:"duration"`
	Date      phrase `json:"date"`
}

// phrase accepts a JSON string, number or null.
type phrase string

func (p *phrase) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*p = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*p = phrase(strings.TrimSpace(s))
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("want string, number or null, got %s", b)
		}
		*p = phrase(n.String())
	}
	return nil
}

func parseExtraction(raw string) (extraction, error) {
	obj := jsonObjectRe.FindString(raw)
	if obj == "" {
		return extraction{}, fmt.Errorf("%w: no JSON object in %q", daybook.ErrExtractionMalformed, raw)
	}

	var ex extraction
	dec := json.NewDecoder(strings.NewReader(obj))
	if err := dec.Decode(&ex); err != nil {
		return extraction{}, fmt.Errorf("%w: %v", daybook.ErrExtractionMalformed, err)
	}
	if dec.More() {
		return extraction{}, fmt.Errorf("%w: more than one JSON value", daybook.ErrExtractionMalformed)
	}
	if !ex.Intent.Valid() {
		return extraction{}, fmt.Errorf("%w: unknown intent %q", daybook.ErrExtractionMalformed, ex.Intent)
	}
	return ex, nil
}

func (s *LLMStrategy) normalize(in extractedFields) daybook.Fields {
	now := s.now()
	out := daybook.Fields{Description: string(in.Task)}

	var dateDropped bool
	if in.Date != "" {
		if d, ok := timeparse.ParseDate(string(in.Date), now); ok {
			out.Date = timeparse.FormatDate(d)
		} else {
			dateDropped = true
			s.l.Debug("dropped date", "phrase", in.Date)
		}
	}

	switch {
	case in.StartTime == "":
	case dateDropped:
		// a start time without its day would land on the wrong day
		s.l.Debug("dropped start time", "phrase", in.StartTime, "date", in.Date)
	default:
		p := string(in.StartTime)
		if out.Date != "" && !timeparse.HasDayQualifier(p) {
			p = out.Date + " " + p
		}
		if t, ok := timeparse.ParseStartTime(p, now); ok {
			out.StartTime = timeparse.FormatStartTime(t)
		} else {
			s.l.Debug("dropped start time", "phrase", in.StartTime)
		}
	}

	if in.Duration != "" {
		if m, ok := timeparse.ParseDuration(string(in.Duration)); ok {
			out.Duration = strconv.Itoa(m)
		} else {
			s.l.Debug("dropped duration", "phrase", in.Duration)
		}
	}

	return out
}
