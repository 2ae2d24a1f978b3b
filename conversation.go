package daybook

import (
	"context"
	"time"
)

type Intent string

const (
	IntentUnknown           Intent = "unknown"
	IntentCreateTask        Intent = "create_task"
	IntentFetchAllTasks     Intent = "fetch_all_tasks"
	IntentFetchTasksForDate Intent = "fetch_tasks_for_date"
	IntentFetchFreeSlots    Intent = "fetch_free_slots"
)

func (i Intent) Valid() bool {
	switch i {
	case IntentUnknown, IntentCreateTask, IntentFetchAllTasks, IntentFetchTasksForDate, IntentFetchFreeSlots:
		return true
	}
	return false
}

// Field names a slot of a task request.
type Field string

const (
	FieldNone        Field = ""
	FieldDescription Field = "description"
	FieldStartTime   Field = "start_time"
	FieldDuration    Field = "duration"
	FieldDate        Field = "date"
)

// Fields holds slot values as phrases. Once normalized, StartTime is
// "2006-01-02T15:04", Duration is whole minutes and Date is "2006-01-02".
type Fields struct {
	Description string `json:"task,omitempty"`
	StartTime   string `json:"startTime,omitempty"`
	Duration    string `json:"duration,omitempty"`
	Date        string `json:"date,omitempty"`
}

func (f Fields) Get(field Field) string {
	switch field {
	case FieldDescription:
		return f.Description
	case FieldStartTime:
		return f.StartTime
	case FieldDuration:
		return f.Duration
	case FieldDate:
		return f.Date
	}
	return ""
}

func (f *Fields) Set(field Field, value string) {
	switch field {
	case FieldDescription:
		f.Description = value
	case FieldStartTime:
		f.StartTime = value
	case FieldDuration:
		f.Duration = value
	case FieldDate:
		f.Date = value
	}
}

// Merge copies every non-empty field of other into f.
func (f *Fields) Merge(other Fields) {
	for _, field := range []Field{FieldDescription, FieldStartTime, FieldDuration, FieldDate} {
		if v := other.Get(field); v != "" {
			f.Set(field, v)
		}
	}
}

// ConversationState is the in-flight exchange of one user.
type ConversationState struct {
	Intent    Intent
	Fields    Fields
	Awaiting  Field
	UpdatedAt time.Time
}

func (s ConversationState) IsZero() bool {
	return s.Intent == "" && s.Fields == (Fields{}) && s.Awaiting == FieldNone
}

// StatePatch is merged into a ConversationState. Empty values leave the
// existing ones alone; Awaiting is only touched when non-nil.
type StatePatch struct {
	Intent   Intent
	Fields   Fields
	Awaiting *Field
}

// MemoryStore keeps ConversationState per user between messages. States are
// transient: implementations may drop them at any time, and a cleared or
// missing state reads back as the zero value.
type MemoryStore interface {
	Get(userID string) ConversationState
	Merge(userID string, patch StatePatch)
	Clear(userID string)
}

// Extractor sends a prompt to a language model and returns its raw answer.
type Extractor interface {
	Extract(ctx context.Context, prompt string) (string, error)
}
