package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"flux/internal/ui/theme"
)

type PaletteSubmitMsg struct{ Input string }

type PaletteCancelMsg struct{}

const (
	maxHints   = 5
	maxHistory = 20
)

var (
	paletteStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Peach).
			Background(theme.Mantle).
			Foreground(theme.Text).
			Padding(0, 1)

	hintStyle = lipgloss.NewStyle().Foreground(theme.Subtext0)
)

// PaletteHints lists the commands the app model executes; keep it in step
// with executePalette.
var PaletteHints = []string{
	"override <survival|maintenance|expansion>",
	"done <habit-id>",
	"tip <habit-id>",
	"summary",
	"reset-day",
	"weekly",
}

// Palette is the ":" command line. It remembers submitted commands so up and
// down recall them, and tab completes the command word.
type Palette struct {
	input   textinput.Model
	visible bool
	width   int

	history []string
	recall  int
}

func NewPalette() Palette {
	ti := textinput.New()
	ti.Placeholder = "override, done, tip, summary..."
	ti.CharLimit = 128
	return Palette{input: ti}
}

func (p Palette) Visible() bool { return p.visible }

func (p *Palette) Open() tea.Cmd {
	p.visible = true
	p.recall = len(p.history)
	p.input.SetValue("")
	return p.input.Focus()
}

func (p *Palette) SetWidth(w int) { p.width = w }

// History returns submitted commands, oldest first.
func (p Palette) History() []string {
	return append([]string(nil), p.history...)
}

func (p Palette) Update(msg tea.Msg) (Palette, tea.Cmd) {
	if !p.visible {
		return p, nil
	}
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			p.close()
			return p, func() tea.Msg { return PaletteCancelMsg{} }
		case "enter":
			val := strings.TrimSpace(p.input.Value())
			p.remember(val)
			p.close()
			return p, func() tea.Msg { return PaletteSubmitMsg{Input: val} }
		case "tab":
			if verb, ok := Complete(p.input.Value()); ok {
				p.input.SetValue(verb)
				p.input.CursorEnd()
			}
			return p, nil
		case "up":
			if p.recall > 0 {
				p.recall--
				p.input.SetValue(p.history[p.recall])
				p.input.CursorEnd()
			}
			return p, nil
		case "down":
			if p.recall < len(p.history) {
				p.recall++
				value := ""
				if p.recall < len(p.history) {
					value = p.history[p.recall]
				}
				p.input.SetValue(value)
				p.input.CursorEnd()
			}
			return p, nil
		}
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd
}

func (p *Palette) close() {
	p.visible = false
	p.input.Blur()
}

func (p *Palette) remember(val string) {
	if val == "" || (len(p.history) > 0 && p.history[len(p.history)-1] == val) {
		return
	}
	p.history = append(p.history, val)
	if len(p.history) > maxHistory {
		p.history = p.history[len(p.history)-maxHistory:]
	}
}

// Matching returns up to five hints starting with prefix.
func Matching(prefix string) []string {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	var out []string
	for _, h := range PaletteHints {
		if prefix == "" || strings.HasPrefix(h, prefix) {
			out = append(out, h)
			if len(out) == maxHints {
				break
			}
		}
	}
	return out
}

// Complete expands a unique command-word prefix, keeping a trailing space
// when the command takes an argument.
func Complete(prefix string) (string, bool) {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" || strings.Contains(prefix, " ") {
		return "", false
	}
	hints := Matching(prefix)
	if len(hints) != 1 {
		return "", false
	}
	verb, _, hasArgs := strings.Cut(hints[0], " ")
	if hasArgs {
		verb += " "
	}
	return verb, true
}

func (p Palette) View() string {
	if !p.visible {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(theme.Title.Render("Command") + "\n")
	sb.WriteString(": " + p.input.View() + "\n")
	if hints := Matching(p.input.Value()); len(hints) > 0 {
		sb.WriteString("\n")
		for _, h := range hints {
			sb.WriteString(hintStyle.Render("  "+h) + "\n")
		}
	}
	w := p.width
	if w < 20 {
		w = 64
	}
	return paletteStyle.Width(w - 2).Render(sb.String())
}
