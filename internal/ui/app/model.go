package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	coachdto "flux/internal/modules/coach/dto"
	insightdto "flux/internal/modules/insight/dto"
	trackerdto "flux/internal/modules/tracker/dto"
	"flux/internal/ui/components"
	"flux/internal/ui/theme"
	"flux/internal/ui/views/checkin"
	"flux/internal/ui/views/dashboard"
)

// ─── ports ───────────────────────────────────────────────────────────────────

type trackerPort interface {
	Preview(level int) trackerdto.CheckInOutput
	CheckIn(ctx context.Context, level int) (trackerdto.CheckInOutput, error)
	Override(ctx context.Context, mode string) (trackerdto.DayOutput, error)
	CompleteHabit(ctx context.Context, habitID string) (trackerdto.DayOutput, error)
	ResetDay(ctx context.Context) (trackerdto.DayOutput, error)
	Snapshot(ctx context.Context) (trackerdto.StateOutput, error)
}

type insightPort interface {
	Overview(ctx context.Context) (insightdto.OverviewOutput, error)
}

type coachPort interface {
	CheckIn(ctx context.Context, level int, tags []string, note string) (coachdto.CheckInOutput, error)
	Tip(ctx context.Context, habitID string) (coachdto.TipOutput, error)
	DailySummary(ctx context.Context) (coachdto.SummaryOutput, error)
	Enabled() bool
}

// ─── messages ────────────────────────────────────────────────────────────────

// StateChangedMsg is sent by the store subscription after every mutation.
type StateChangedMsg struct {
	State trackerdto.StateOutput
}

type snapshotMsg struct {
	state trackerdto.StateOutput
	err   error
}

type overviewMsg struct {
	overview insightdto.OverviewOutput
	err      error
}

type checkedInMsg struct {
	out    trackerdto.CheckInOutput
	source string
	err    error
}

type actionMsg struct {
	status string
	err    error
}

// ─── keys ────────────────────────────────────────────────────────────────────

type keyMap struct {
	Complete key.Binding
	CheckIn  key.Binding
	Tip      key.Binding
	Weekly   key.Binding
	Palette  key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Complete: key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "complete habit")),
		CheckIn:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "check in again")),
		Tip:      key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "coach tip")),
		Weekly:   key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "weekly report")),
		Palette:  key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "command")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:     key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Complete, k.Weekly, k.Palette, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Complete, k.CheckIn, k.Tip},
		{k.Weekly, k.Palette},
		{k.Help, k.Quit},
	}
}

// ─── model ───────────────────────────────────────────────────────────────────

type screen int

const (
	screenLoading screen = iota
	screenCheckIn
	screenDashboard
)

// Model routes between the check-in slider and the dashboard. It renders
// whatever the store last published and never mutates state itself.
type Model struct {
	ctx     context.Context
	tracker trackerPort
	insight insightPort
	coach   coachPort

	screen    screen
	checkIn   checkin.Model
	dashboard dashboard.Model
	palette   components.Palette
	keys      keyMap
	help      help.Model
	showHelp  bool

	state  trackerdto.StateOutput
	status string
	width  int
	height int
}

func NewModel(ctx context.Context, tracker trackerPort, insight insightPort, coach coachPort) Model {
	return Model{
		ctx:       ctx,
		tracker:   tracker,
		insight:   insight,
		coach:     coach,
		screen:    screenLoading,
		dashboard: dashboard.New(),
		palette:   components.NewPalette(),
		keys:      defaultKeys(),
		help:      help.New(),
		status:    "ready",
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.snapshotCmd(), m.overviewCmd())
}

func (m Model) assisted() bool {
	return m.coach != nil && m.coach.Enabled()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.palette.Visible() {
		var cmd tea.Cmd
		m.palette, cmd = m.palette.Update(msg)
		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.palette.SetWidth(min(msg.Width-4, 80))
		m.checkIn.SetWidth(msg.Width)
		m.dashboard.SetSize(msg.Width, msg.Height-4)
		return m, nil

	case snapshotMsg:
		if msg.err != nil {
			m.status = "load failed: " + msg.err.Error()
			return m, nil
		}
		return m, m.applyState(msg.state)

	case StateChangedMsg:
		return m, m.applyState(msg.State)

	case overviewMsg:
		if msg.err != nil {
			m.status = "insights unavailable: " + msg.err.Error()
			return m, nil
		}
		m.dashboard.SetOverview(msg.overview)
		return m, nil

	case checkin.SubmitMsg:
		m.status = "checking in…"
		return m, m.checkInCmd(msg.Level, msg.Assisted)

	case checkedInMsg:
		if msg.err != nil {
			m.status = "saved locally only: " + msg.err.Error()
		} else {
			m.status = fmt.Sprintf("checked in at %d (%s)", msg.out.Level, msg.source)
		}
		if msg.out.Negotiate {
			m.checkIn.Negotiate(msg.out)
			m.screen = screenCheckIn
			return m, m.overviewCmd()
		}
		m.screen = screenDashboard
		return m, m.overviewCmd()

	case checkin.NegotiatedMsg:
		m.screen = screenDashboard
		if !msg.Force {
			m.status = "survival plan accepted"
			return m, nil
		}
		return m, m.overrideCmd("maintenance")

	case actionMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
		} else {
			m.status = msg.status
		}
		return m, nil

	case components.PaletteSubmitMsg:
		return m, m.executePalette(msg.Input)

	case components.PaletteCancelMsg:
		m.status = "ready"
		return m, nil

	case tea.KeyMsg:
		if m.showHelp {
			if key.Matches(msg, m.keys.Help) || msg.String() == "esc" {
				m.showHelp = false
			}
			return m, nil
		}
		if m.screen == screenDashboard && m.dashboard.Filtering() {
			break
		}
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.showHelp = true
			return m, nil
		case key.Matches(msg, m.keys.Palette):
			return m, m.palette.Open()
		}
		if m.screen == screenDashboard {
			switch {
			case key.Matches(msg, m.keys.Complete):
				if id, ok := m.dashboard.SelectedHabitID(); ok {
					return m, m.completeCmd(id)
				}
				return m, nil
			case key.Matches(msg, m.keys.CheckIn):
				m.checkIn = m.newCheckIn()
				m.screen = screenCheckIn
				return m, nil
			case key.Matches(msg, m.keys.Tip):
				if id, ok := m.dashboard.SelectedHabitID(); ok {
					return m, m.tipCmd(id)
				}
				return m, nil
			}
		}
	}

	var cmd tea.Cmd
	switch m.screen {
	case screenCheckIn:
		m.checkIn, cmd = m.checkIn.Update(msg)
	case screenDashboard:
		m.dashboard, cmd = m.dashboard.Update(msg)
	}
	return m, cmd
}

func (m *Model) applyState(state trackerdto.StateOutput) tea.Cmd {
	m.state = state
	cmd := m.dashboard.SetState(state)
	if m.screen == screenLoading {
		if state.Today.CheckedIn {
			m.screen = screenDashboard
		} else {
			m.checkIn = m.newCheckIn()
			m.screen = screenCheckIn
		}
	}
	return cmd
}

func (m Model) newCheckIn() checkin.Model {
	level := -1
	if m.state.Today.Level != nil {
		level = *m.state.Today.Level
	}
	c := checkin.New(m.tracker, level, m.assisted())
	c.SetWidth(m.width)
	return c
}

// ─── view ────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	header := m.renderHeader()
	status := m.renderStatus()
	contentH := max(1, m.height-lipgloss.Height(header)-lipgloss.Height(status))

	var content string
	switch {
	case m.showHelp:
		content = lipgloss.NewStyle().Width(m.width).Height(contentH).Render(m.help.View(m.keys))
	case m.palette.Visible():
		content = lipgloss.Place(m.width, contentH, lipgloss.Center, lipgloss.Center, m.palette.View())
	case m.screen == screenCheckIn:
		content = lipgloss.Place(m.width, contentH, lipgloss.Center, lipgloss.Center, m.checkIn.View())
	case m.screen == screenDashboard:
		content = m.dashboard.View()
	default:
		content = theme.Muted.Render("loading…")
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, content, status)
}

func (m Model) renderHeader() string {
	today := m.state.Today
	parts := []string{theme.Title.Render("flux"), theme.Muted.Render(today.Date)}
	if today.CheckedIn && today.Level != nil {
		parts = append(parts, theme.Mode(today.Mode).Render(fmt.Sprintf("%s %d", today.Mode, *today.Level)))
	}
	if name := m.state.Profile.Name; name != "" {
		parts = append(parts, theme.Muted.Render(name))
	}
	bar := strings.Join(parts, theme.Muted.Render(" │ "))
	return lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar) + "\n"
}

func (m Model) renderStatus() string {
	right := theme.Muted.Render("?:help  :::command  q:quit")
	gap := max(1, m.width-lipgloss.Width(m.status)-lipgloss.Width(right))
	bar := m.status + strings.Repeat(" ", gap) + right
	return "\n" + lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar)
}

// ─── palette ─────────────────────────────────────────────────────────────────

func (m Model) executePalette(input string) tea.Cmd {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return nil
	}
	switch parts[0] {
	case "override":
		if len(parts) < 2 {
			return status("usage: override <survival|maintenance|expansion>")
		}
		return m.overrideCmd(parts[1])
	case "done":
		if len(parts) < 2 {
			return status("usage: done <habit-id>")
		}
		return m.completeCmd(parts[1])
	case "tip":
		if len(parts) < 2 {
			return status("usage: tip <habit-id>")
		}
		return m.tipCmd(parts[1])
	case "summary":
		return m.summaryCmd()
	case "reset-day":
		return func() tea.Msg {
			day, err := m.tracker.ResetDay(m.ctx)
			return actionMsg{status: "new day " + day.Date, err: err}
		}
	case "weekly":
		return tea.Batch(m.overviewCmd(), status("weekly report refreshed, press w"))
	default:
		return status("unknown command: " + parts[0])
	}
}

// ─── commands ────────────────────────────────────────────────────────────────

func status(text string) tea.Cmd {
	return func() tea.Msg { return actionMsg{status: text} }
}

func (m Model) snapshotCmd() tea.Cmd {
	return func() tea.Msg {
		state, err := m.tracker.Snapshot(m.ctx)
		return snapshotMsg{state: state, err: err}
	}
}

func (m Model) overviewCmd() tea.Cmd {
	return func() tea.Msg {
		overview, err := m.insight.Overview(m.ctx)
		return overviewMsg{overview: overview, err: err}
	}
}

func (m Model) checkInCmd(level int, assisted bool) tea.Cmd {
	return func() tea.Msg {
		if assisted && m.coach != nil {
			out, err := m.coach.CheckIn(m.ctx, level, nil, "")
			return checkedInMsg{out: out.CheckInOutput, source: out.Source, err: err}
		}
		out, err := m.tracker.CheckIn(m.ctx, level)
		return checkedInMsg{out: out, source: "heuristic", err: err}
	}
}

func (m Model) overrideCmd(mode string) tea.Cmd {
	return func() tea.Msg {
		day, err := m.tracker.Override(m.ctx, mode)
		return actionMsg{status: "mode set to " + day.Mode, err: err}
	}
}

func (m Model) completeCmd(habitID string) tea.Cmd {
	return func() tea.Msg {
		_, err := m.tracker.CompleteHabit(m.ctx, habitID)
		return actionMsg{status: "completed " + habitID, err: err}
	}
}

func (m Model) tipCmd(habitID string) tea.Cmd {
	return func() tea.Msg {
		if m.coach == nil {
			return actionMsg{status: "coach not configured"}
		}
		tip, err := m.coach.Tip(m.ctx, habitID)
		return actionMsg{status: tip.Tip, err: err}
	}
}

func (m Model) summaryCmd() tea.Cmd {
	return func() tea.Msg {
		if m.coach == nil {
			return actionMsg{status: "coach not configured"}
		}
		summary, err := m.coach.DailySummary(m.ctx)
		return actionMsg{status: summary.Summary, err: err}
	}
}
