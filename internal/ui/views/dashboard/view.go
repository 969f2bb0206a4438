package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	insightdto "flux/internal/modules/insight/dto"
	trackerdto "flux/internal/modules/tracker/dto"
	"flux/internal/ui/theme"
)

type habitItem struct {
	habit trackerdto.HabitOutput
}

func (i habitItem) Title() string {
	title := i.habit.Icon + " " + i.habit.Title
	if i.habit.Completed {
		return "✓ " + title
	}
	return "  " + title
}

func (i habitItem) Description() string {
	if i.habit.Current.Minutes > 0 {
		return fmt.Sprintf("%s · %d min", i.habit.Current.Text, i.habit.Current.Minutes)
	}
	return i.habit.Current.Text
}

func (i habitItem) FilterValue() string { return i.habit.Title }

// Model shows today's plan for the active mode, an optional forecast banner
// and, toggled with w, the weekly report.
type Model struct {
	state      trackerdto.StateOutput
	overview   insightdto.OverviewOutput
	habits     list.Model
	report     viewport.Model
	showWeekly bool
	width      int
	height     int
}

func New() Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(theme.Lavender).BorderForeground(theme.Lavender)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.Foreground(theme.Sapphire).BorderForeground(theme.Lavender)

	l := list.New(nil, delegate, 0, 0)
	l.Title = "Today"
	l.Styles.Title = theme.Title
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	vp := viewport.New(0, 0)
	vp.Style = lipgloss.NewStyle().Background(theme.Mantle).Foreground(theme.Text)

	return Model{habits: l, report: vp}
}

func (m *Model) SetState(state trackerdto.StateOutput) tea.Cmd {
	m.state = state
	items := make([]list.Item, len(state.Habits))
	for i, habit := range state.Habits {
		items[i] = habitItem{habit: habit}
	}
	m.habits.Title = "Today · " + state.Today.Mode
	return m.habits.SetItems(items)
}

func (m *Model) SetOverview(overview insightdto.OverviewOutput) {
	m.overview = overview
	m.report.SetContent(renderMarkdown(overview.Weekly.Markdown, m.width))
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	bannerH := lipgloss.Height(m.banner())
	m.habits.SetSize(width, max(3, height-bannerH-2))
	m.report.Width = width
	m.report.Height = max(3, height-bannerH-2)
	m.report.SetContent(renderMarkdown(m.overview.Weekly.Markdown, width))
}

func (m Model) ShowingWeekly() bool { return m.showWeekly }

func (m Model) Filtering() bool {
	return m.habits.FilterState() == list.Filtering
}

func (m Model) SelectedHabitID() (string, bool) {
	if item, ok := m.habits.SelectedItem().(habitItem); ok {
		return item.habit.ID, true
	}
	return "", false
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "w" && !m.Filtering() {
		m.showWeekly = !m.showWeekly
		return m, nil
	}
	var cmd tea.Cmd
	if m.showWeekly {
		m.report, cmd = m.report.Update(msg)
	} else {
		m.habits, cmd = m.habits.Update(msg)
	}
	return m, cmd
}

func (m Model) View() string {
	body := m.habits.View()
	if m.showWeekly {
		body = m.report.View()
	}
	if banner := m.banner(); banner != "" {
		return lipgloss.JoinVertical(lipgloss.Left, banner, "", body)
	}
	return body
}

func (m Model) banner() string {
	f := m.overview.Forecast
	if f == nil {
		return ""
	}
	head := theme.Hot.Render(strings.ToUpper(f.Type))
	detail := theme.Muted.Render(fmt.Sprintf("avg %d · %d%% confidence · %d %ss", f.AvgEnergy, f.Confidence, f.Samples, f.Weekday))
	return theme.Banner(f.Type).Width(max(20, m.width-2)).Render(head + "  " + f.Message + "\n" + detail)
}

func renderMarkdown(content string, width int) string {
	if strings.TrimSpace(content) == "" {
		return theme.Muted.Render("No report yet.")
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath("dark"),
		glamour.WithWordWrap(max(20, width-4)),
	)
	if err != nil {
		return content
	}
	out, err := r.Render(content)
	if err != nil {
		return content
	}
	return out
}
