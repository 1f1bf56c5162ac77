// Package tui provides the live hub monitor: a terminal view of bus counters,
// per-agent queue state, and the trailing delivery history.
package tui

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/openagora/agora/internal/bus"
	"github.com/openagora/agora/internal/capability"
	"github.com/openagora/agora/internal/coordination"
	"github.com/openagora/agora/internal/envelope"
)

// refreshInterval is how often the monitor re-reads hub state.
const refreshInterval = 500 * time.Millisecond

// historyLines is how many trailing deliveries the monitor shows.
const historyLines = 12

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	statStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	historyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	noticeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
)

type tickMsg time.Time

// demoDoneMsg reports the outcome of a demo action triggered from the keys.
type demoDoneMsg struct {
	summary string
	err     error
}

// Model is the bubbletea model for the monitor.
type Model struct {
	hub   *coordination.Hub
	table table.Model

	stats   bus.Stats
	history []envelope.Envelope
	notice  string
	asked   int

	width  int
	height int
}

// New creates a monitor over a started hub.
func New(hub *coordination.Hub) Model {
	columns := []table.Column{
		{Title: "Agent", Width: 16},
		{Title: "Role", Width: 24},
		{Title: "State", Width: 8},
		{Title: "In", Width: 5},
		{Title: "Out", Width: 5},
		{Title: "Dropped", Width: 8},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.Bold(true).BorderStyle(lipgloss.NormalBorder()).BorderBottom(true)
	s.Selected = s.Selected.Foreground(lipgloss.Color("0")).Background(lipgloss.Color("12"))
	t.SetStyles(s)

	m := Model{hub: hub, table: t}
	m.refresh()
	return m
}

// Run starts the monitor and blocks until the user quits.
func Run(hub *coordination.Hub) error {
	p := tea.NewProgram(New(hub), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "a":
			m.notice = "asking..."
			m.asked++
			return m, m.demoAsk(m.asked)
		case "d":
			m.notice = "debating..."
			return m, m.demoDebate()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetHeight(max(msg.Height-historyLines-8, 4))

	case tickMsg:
		m.refresh()
		return m, tick()

	case demoDoneMsg:
		if msg.err != nil {
			m.notice = failStyle.Render(msg.err.Error())
		} else {
			m.notice = noticeStyle.Render(msg.summary)
		}
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// refresh re-reads hub state into the model.
func (m *Model) refresh() {
	m.stats = m.hub.Bus().Stats()

	statuses := m.hub.Bus().AgentStatuses()
	names := make([]string, 0, len(statuses))
	for name := range statuses {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([]table.Row, 0, len(names))
	for _, name := range names {
		s := statuses[name]
		rows = append(rows, table.Row{
			s.Name,
			s.Role,
			string(s.State),
			fmt.Sprintf("%d", s.InboundSize),
			fmt.Sprintf("%d", s.OutboundSize),
			fmt.Sprintf("%d", s.Dropped),
		})
	}
	m.table.SetRows(rows)

	history := m.hub.Bus().History()
	if len(history) > historyLines {
		history = history[len(history)-historyLines:]
	}
	m.history = history
}

// demoAsk submits a demo request through the hub.
func (m Model) demoAsk(n int) tea.Cmd {
	hub := m.hub
	return func() tea.Msg {
		reply, err := hub.Ask(context.Background(), fmt.Sprintf("monitor demo request %d", n), 0)
		if err != nil {
			return demoDoneMsg{err: err}
		}
		return demoDoneMsg{summary: "answered by " + reply.Sender}
	}
}

// demoDebate starts a demo debate among every debate-capable agent.
func (m Model) demoDebate() tea.Cmd {
	hub := m.hub
	return func() tea.Msg {
		result, err := hub.Debate(
			"monitor demo debate",
			"is the system healthy?",
			[]string{capability.TagDebate},
			0,
		)
		if err != nil {
			return demoDoneMsg{err: err}
		}
		return demoDoneMsg{summary: "debate " + result.String("debate_id") + " concluded"}
	}
}

// View implements tea.Model.
func (m Model) View() string {
	header := headerStyle.Render("AGORA MONITOR")
	stats := statStyle.Render(fmt.Sprintf(
		"sent %d · delivered %d · failed %d · agents %d · queue %d",
		m.stats.Sent, m.stats.Delivered, m.stats.Failed, m.stats.Agents, m.stats.QueueDepth,
	))

	lines := make([]string, 0, len(m.history))
	for _, env := range m.history {
		recipient := env.Recipient
		if recipient == "" {
			recipient = "*"
		}
		lines = append(lines, historyStyle.Render(fmt.Sprintf(
			"%s  %-22s %s → %s",
			env.Timestamp.Format("15:04:05"), env.Type, env.Sender, recipient,
		)))
	}
	history := lipgloss.JoinVertical(lipgloss.Left, lines...)

	help := helpStyle.Render("a ask · d debate · q quit")
	if m.notice != "" {
		help = m.notice + "   " + help
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		stats,
		"",
		m.table.View(),
		"",
		headerStyle.Render("RECENT DELIVERIES"),
		history,
		"",
		help,
	)
}
