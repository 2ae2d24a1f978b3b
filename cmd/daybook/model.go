package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/timer"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/benjamonnguyen/daybook"
	"github.com/benjamonnguyen/daybook/agent"
)

const logo = `
	██████╗  █████╗ ██╗   ██╗██████╗  ██████╗  ██████╗ ██╗  ██╗
	██╔══██╗██╔══██╗╚██╗ ██╔╝██╔══██╗██╔═══██╗██╔═══██╗██║ ██╔╝
	██║  ██║███████║ ╚████╔╝ ██████╔╝██║   ██║██║   ██║█████╔╝
	██║  ██║██╔══██║  ╚██╔╝  ██╔══██╗██║   ██║██║   ██║██╔═██╗
	██████╔╝██║  ██║   ██║   ██████╔╝╚██████╔╝╚██████╔╝██║  ██╗
	╚═════╝ ╚═╝  ╚═╝   ╚═╝   ╚═════╝  ╚═════╝  ╚═════╝ ╚═╝  ╚═╝`

const programUsage = `Usage:
  daybook: start a chat session
  daybook <message>: send one message and print the reply`

const commandHelp = `COMMANDS:
  <message>: talk to your assistant, e.g. "remind me to call mom at 7 pm for 20 minutes"
  /d: mark the running task as completed
  /x: cancel the running task
  /r: refresh the running task
  /h: show this help
  /q: quit
`

const refreshInterval = 30 * time.Second

// Client is the part of *client.Client the chat session uses.
type Client interface {
	Chat(ctx context.Context, message string) (agent.Reply, error)
	ActiveTask(ctx context.Context) (daybook.Task, bool, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status daybook.Status) (daybook.Task, error)
}

type model struct {
	// children
	vp        viewport.Model
	userinput textinput.Model
	active    activeTimer

	// supplied
	l      daybook.Logger
	client Client

	// state
	transcript []entry
	alerts     []string
	waiting    bool
	refreshGen int
	quitting   bool
	h          int

	// configuration
	cmdTimeout time.Duration
	now        func() time.Time
}

func newModel(c Client, logger daybook.Logger) model {
	userinput := textinput.New()
	userinput.Focus()
	userinput.CharLimit = 280
	userinput.Placeholder = "ask me anything about your day"
	userinput.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("221"))

	return model{
		l:          logger,
		client:     c,
		cmdTimeout: 15 * time.Second,
		userinput:  userinput,
		vp:         viewport.New(0, 0),
		now:        time.Now,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.refreshActive, textinput.Blink)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var tiCmd, vpCmd, tCmd, cmd tea.Cmd

	m, cmd = m.updateParent(msg)

	// update children

	m.userinput, tiCmd = m.userinput.Update(msg)
	m.active.Model, tCmd = m.active.Update(msg)

	switch msg.(type) {
	case tea.KeyMsg:
		// vp updates on KeyMsg cause view flickering
	default:
		m.vp, vpCmd = m.vp.Update(msg)
	}

	return m, tea.Batch(tiCmd, vpCmd, cmd, tCmd)
}

func (m model) updateParent(msg tea.Msg) (model, tea.Cmd) {
	switch msg := msg.(type) {
	case ErrorMsg:
		m.waiting = false
		m.l.Error("request failed", "err", msg.err)
		m.addAlert(msg.err.Error(), colorRed)
		m.refreshView()
		return m, nil
	case ReplyMsg:
		m.waiting = false
		m.transcript = append(m.transcript, entry{text: renderReply(msg.reply)})
		m.refreshView()
		// a created task may already be running
		return m, m.refreshActive
	case ActiveTaskMsg:
		refresh := m.scheduleRefresh()
		if !msg.ok {
			m.active = activeTimer{}
			m.refreshView()
			return m, refresh
		}
		if msg.task.ID == m.active.task.ID && m.active.running() {
			return m, refresh
		}
		m.active = newActiveTimer(msg.task, m.now())
		m.refreshView()
		return m, tea.Batch(m.active.Init(), refresh)
	case StatusUpdatedMsg:
		m.active = activeTimer{}
		m.addAlert(fmt.Sprintf("%q marked %s", msg.task.Description, msg.task.Status), colorYellow)
		m.refreshView()
		return m, m.refreshActive
	case RefreshMsg:
		if msg.gen != m.refreshGen {
			return m, nil
		}
		return m, m.refreshActive
	case timer.TimeoutMsg:
		if msg.ID == m.active.ID() {
			m.addAlert(fmt.Sprintf("time is up for %q", m.active.task.Description), colorYellow)
			m.refreshView()
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.h = msg.Height
		m.userinput.Width = msg.Width
		m.vp.Width = msg.Width
		m.refreshView()
		return m, nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyEnter:
			input := strings.TrimSpace(m.userinput.Value())
			m.userinput.Reset()
			if input == "" {
				return m, nil
			}

			var cmd tea.Cmd
			m.alerts = nil
			m, cmd = m.handleInput(input)
			m.refreshView()
			return m, cmd
		case tea.KeyCtrlC:
			m.quitting = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m model) handleInput(input string) (model, tea.Cmd) {
	if strings.HasPrefix(input, "/") {
		switch strings.Fields(input)[0] {
		case "/d":
			return m.finishActive(daybook.StatusCompleted)
		case "/x":
			return m.finishActive(daybook.StatusCancelled)
		case "/r":
			return m, m.refreshActive
		case "/h":
			m.addAlert(commandHelp, colorYellow)
			return m, nil
		case "/q":
			m.quitting = true
			return m, tea.Quit
		default:
			m.addAlert(fmt.Sprintf("unknown command %s; /h for help", input), colorRed)
			return m, nil
		}
	}

	if m.waiting {
		m.addAlert("still waiting on the last reply", colorYellow)
		return m, nil
	}
	m.waiting = true
	m.transcript = append(m.transcript, entry{fromUser: true, text: input})
	return m, func() tea.Msg {
		timeout, cancel := m.newTimeout()
		defer cancel()
		reply, err := m.client.Chat(timeout, input)
		if err != nil {
			return ErrorMsg{err: err}
		}
		return ReplyMsg{reply: reply}
	}
}

func (m model) finishActive(status daybook.Status) (model, tea.Cmd) {
	if m.active.task.ID == uuid.Nil {
		m.addAlert("no running task", colorRed)
		return m, nil
	}
	id := m.active.task.ID
	return m, func() tea.Msg {
		timeout, cancel := m.newTimeout()
		defer cancel()
		task, err := m.client.UpdateStatus(timeout, id, status)
		if err != nil {
			return ErrorMsg{err: err}
		}
		return StatusUpdatedMsg{task: task}
	}
}

func (m model) refreshActive() tea.Msg {
	timeout, cancel := m.newTimeout()
	defer cancel()

	task, ok, err := m.client.ActiveTask(timeout)
	if err != nil {
		return ErrorMsg{err: err}
	}
	return ActiveTaskMsg{task: task, ok: ok}
}

// scheduleRefresh replaces any pending refresh tick with a new one.
func (m *model) scheduleRefresh() tea.Cmd {
	m.refreshGen++
	gen := m.refreshGen
	return tea.Tick(refreshInterval, func(time.Time) tea.Msg {
		return RefreshMsg{gen: gen}
	})
}

func (m model) renderFooter() string {
	if m.quitting {
		return ""
	}

	var footer strings.Builder
	footer.WriteRune('\n')
	footer.WriteString(m.userinput.View())
	footer.WriteString("\n\n")

	showQuit := true
	if m.waiting {
		footer.WriteString(faintStyle.Render("thinking..."))
		footer.WriteString("\n\n")
	}

	if m.active.running() {
		footer.WriteString(colorize(colorCyan, m.active.View()))
		footer.WriteString("\n\n")
		showQuit = false
	}

	if len(m.alerts) > 0 {
		footer.WriteString(strings.Join(m.alerts, "\n"))
		footer.WriteString("\n\n")
		showQuit = false
	}

	if showQuit {
		footer.WriteString(faintStyle.Render("(ctrl+c to quit)"))
		footer.WriteRune('\n')
	}

	return footer.String()
}

func (m model) renderTranscript() string {
	lines := make([]string, 0, len(m.transcript))
	for _, e := range m.transcript {
		lines = append(lines, e.Render(m.vp.Width))
	}
	return strings.Join(lines, "\n")
}

func (m model) View() string {
	return lipgloss.JoinVertical(0, m.vp.View(), m.renderFooter())
}

func (m model) newTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), m.cmdTimeout)
}

func (m *model) addAlert(alert string, c string) {
	m.alerts = append(m.alerts, colorize(c, alert))
}

func (m *model) refreshView() {
	content := m.renderTranscript()
	m.vp.SetContent(content)
	footerHeight := lipgloss.Height(m.renderFooter())
	m.vp.Height = max(0, min(lipgloss.Height(content), m.h-footerHeight))
	m.vp.GotoBottom()
}
