package agent

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

type Kind string

const (
	KindText      Kind = "text"
	KindTaskList  Kind = "task_list"
	KindFreeSlots Kind = "free_slots"
)

// Reply is what the agent answers with: plain text or one structured payload.
type Reply struct {
	Kind      Kind
	Text      string
	TaskList  *TaskList
	FreeSlots *FreeSlots
}

type TaskItem struct {
	Description string `json:"description"`
	Start       string `json:"start"`
	End         string `json:"end"`
	Date        string `json:"date,omitempty"`
}

type TaskList struct {
	Count     int        `json:"count"`
	Tasks     []TaskItem `json:"tasks"`
	Upcoming  []TaskItem `json:"upcoming,omitempty"`
	DateLabel string     `json:"dateLabel,omitempty"`
}

type SlotItem struct {
	Slot     int    `json:"slot"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Duration string `json:"duration"`
}

type FreeSlots struct {
	Date  string     `json:"date"`
	Count int        `json:"count"`
	Slots []SlotItem `json:"slots"`
}

func textReply(format string, args ...any) Reply {
	return Reply{Kind: KindText, Text: fmt.Sprintf(format, args...)}
}

// MarshalJSON encodes text as a bare JSON string and payloads as an object
// tagged with "type".
func (r Reply) MarshalJSON() ([]byte, error) {
	switch r.Kind {
	case KindTaskList:
		return json.Marshal(struct {
			Type Kind `json:"type"`
			*TaskList
		}{r.Kind, r.TaskList})
	case KindFreeSlots:
		return json.Marshal(struct {
			Type Kind `json:"type"`
			*FreeSlots
		}{r.Kind, r.FreeSlots})
	default:
		return json.Marshal(r.Text)
	}
}

func (r *Reply) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		r.Kind = KindText
		return json.Unmarshal(b, &r.Text)
	}

	var tag struct {
		Type Kind `json:"type"`
	}
	if err := json.Unmarshal(b, &tag); err != nil {
		return err
	}
	switch tag.Type {
	case KindTaskList:
		r.Kind, r.TaskList = tag.Type, &TaskList{}
		return json.Unmarshal(b, r.TaskList)
	case KindFreeSlots:
		r.Kind, r.FreeSlots = tag.Type, &FreeSlots{}
		return json.Unmarshal(b, r.FreeSlots)
	}
	return fmt.Errorf("unknown reply type %q", tag.Type)
}

// String renders the reply as plain text.
func (r Reply) String() string {
	var sb strings.Builder
	switch r.Kind {
	case KindTaskList:
		l := r.TaskList
		if l.DateLabel != "" {
			fmt.Fprintf(&sb, "Tasks for %s (%d):\n", l.DateLabel, l.Count)
		} else {
			fmt.Fprintf(&sb, "Today (%d):\n", l.Count)
		}
		writeTasks(&sb, l.Tasks)
		if len(l.Upcoming) > 0 {
			fmt.Fprintf(&sb, "\nUpcoming (%d):\n", len(l.Upcoming))
			writeTasks(&sb, l.Upcoming)
		}
	case KindFreeSlots:
		s := r.FreeSlots
		fmt.Fprintf(&sb, "Free time on %s (%d):\n", s.Date, s.Count)
		for _, slot := range s.Slots {
			fmt.Fprintf(&sb, "%d. %s - %s (%s)\n", slot.Slot, slot.Start, slot.End, slot.Duration)
		}
	default:
		return r.Text
	}
	return strings.TrimRight(sb.String(), "\n")
}

func writeTasks(sb *strings.Builder, tasks []TaskItem) {
	if len(tasks) == 0 {
		sb.WriteString("  nothing\n")
	}
	for _, t := range tasks {
		if t.Date != "" {
			fmt.Fprintf(sb, "- %s  %s - %s  %s\n", t.Date, t.Start, t.End, t.Description)
		} else {
			fmt.Fprintf(sb, "- %s - %s  %s\n", t.Start, t.End, t.Description)
		}
	}
}
