package main

import (
	"github.com/benjamonnguyen/daybook"
	"github.com/benjamonnguyen/daybook/agent"
)

type ReplyMsg struct {
	reply agent.Reply
}

type ActiveTaskMsg struct {
	task daybook.Task
	ok   bool
}

type StatusUpdatedMsg struct {
	task daybook.Task
}

type RefreshMsg struct {
	gen int
}

// ErrorMsg is shown as an alert; the session keeps going.
type ErrorMsg struct {
	err error
}
