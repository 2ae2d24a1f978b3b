package main

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/benjamonnguyen/daybook/agent"
)

const (
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorReset  = "\033[0m"
)

var (
	faintStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Bold(false)
	userStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("221"))
	replyStyle = lipgloss.NewStyle().PaddingLeft(2)
)

func colorize(color string, s string) string {
	return color + s + colorReset
}

// entry is one line of the transcript.
type entry struct {
	fromUser bool
	text     string
}

func (e entry) Render(width int) string {
	if e.fromUser {
		return userStyle.Render("> " + e.text)
	}
	style := replyStyle
	if width > 4 {
		style = style.Width(width - 2)
	}
	return style.Render(e.text)
}

func renderReply(r agent.Reply) string {
	switch r.Kind {
	case agent.KindTaskList, agent.KindFreeSlots:
		lines := strings.Split(r.String(), "\n")
		lines[0] = colorize(colorCyan, lines[0])
		return strings.Join(lines, "\n")
	default:
		return r.String()
	}
}
