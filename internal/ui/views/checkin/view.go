package checkin

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	trackerdto "flux/internal/modules/tracker/dto"
	"flux/internal/ui/theme"
)

const (
	coarseStep   = 5
	defaultLevel = 50
)

// Previewer resolves a slider position to its feedback without committing.
type Previewer interface {
	Preview(level int) trackerdto.CheckInOutput
}

// SubmitMsg asks the app to commit a check-in at Level. Assisted routes it
// through the analysis provider.
type SubmitMsg struct {
	Level    int
	Assisted bool
}

// NegotiatedMsg carries the user's answer to a survival result. Force means
// maintenance was chosen over the easier plan.
type NegotiatedMsg struct {
	Force bool
}

type stage int

const (
	stageSlider stage = iota
	stageNegotiate
)

type Model struct {
	port     Previewer
	level    int
	preview  trackerdto.CheckInOutput
	result   trackerdto.CheckInOutput
	stage    stage
	assisted bool
	bar      progress.Model
	width    int
}

// New starts the slider at level, or mid-scale when level is negative.
func New(port Previewer, level int, assisted bool) Model {
	if level < 0 {
		level = defaultLevel
	}
	bar := progress.New(progress.WithSolidFill(string(theme.Yellow)), progress.WithoutPercentage())
	m := Model{port: port, level: level, assisted: assisted, bar: bar}
	m.refresh()
	return m
}

func (m *Model) refresh() {
	m.preview = m.port.Preview(m.level)
	m.bar.FullColor = string(theme.ModeColor(m.preview.Mode))
}

func (m Model) Level() int { return m.level }

func (m Model) Negotiating() bool { return m.stage == stageNegotiate }

// Negotiate switches to the confirmation prompt for a committed result.
func (m *Model) Negotiate(result trackerdto.CheckInOutput) {
	m.result = result
	m.stage = stageNegotiate
}

func (m *Model) SetWidth(w int) {
	m.width = w
	m.bar.Width = max(10, min(w-8, 60))
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	if m.stage == stageNegotiate {
		switch key.String() {
		case "y", "enter":
			m.stage = stageSlider
			return m, emit(NegotiatedMsg{Force: false})
		case "m":
			m.stage = stageSlider
			return m, emit(NegotiatedMsg{Force: true})
		}
		return m, nil
	}
	switch key.String() {
	case "left", "h":
		m.level = clamp(m.level - coarseStep)
	case "right", "l":
		m.level = clamp(m.level + coarseStep)
	case "-":
		m.level = clamp(m.level - 1)
	case "+", "=":
		m.level = clamp(m.level + 1)
	case "enter":
		return m, emit(SubmitMsg{Level: m.level})
	case "a":
		if m.assisted {
			return m, emit(SubmitMsg{Level: m.level, Assisted: true})
		}
		return m, nil
	default:
		return m, nil
	}
	m.refresh()
	return m, nil
}

func (m Model) View() string {
	if m.stage == stageNegotiate {
		return m.negotiationView()
	}
	var sb strings.Builder
	sb.WriteString(theme.Title.Render("How much energy do you have?") + "\n\n")
	sb.WriteString(m.bar.ViewAs(float64(m.level)/100) + fmt.Sprintf("  %3d\n\n", m.level))
	sb.WriteString(theme.Mode(m.preview.Mode).Render(m.preview.Icon+" "+m.preview.Label) + "\n")
	sb.WriteString(theme.Muted.Render(m.preview.Somatic) + "\n\n")
	hint := "←/→ adjust  -/+ fine  enter check in"
	if m.assisted {
		hint += "  a check in with coach"
	}
	sb.WriteString(theme.Muted.Render(hint))
	return theme.Pane.Width(max(20, m.width-4)).Render(sb.String())
}

func (m Model) negotiationView() string {
	var sb strings.Builder
	sb.WriteString(theme.Mode(m.result.Mode).Render(m.result.Icon+" "+m.result.Label) + "\n\n")
	sb.WriteString("Energy is low today. Take the easier plan?\n")
	if m.result.Reasoning != "" {
		sb.WriteString(theme.Muted.Render(m.result.Reasoning) + "\n")
	}
	sb.WriteString("\n" + theme.Muted.Render("y accept survival plan  m push to maintenance"))
	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.Red).
		Padding(0, 1).
		Width(max(20, m.width-4)).
		Render(sb.String())
}

func clamp(level int) int {
	return max(0, min(100, level))
}

func emit(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}
