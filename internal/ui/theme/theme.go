package theme

import "github.com/charmbracelet/lipgloss"

var (
	Base     = lipgloss.Color("#1e1e2e")
	Mantle   = lipgloss.Color("#181825")
	Surface1 = lipgloss.Color("#45475a")
	Text     = lipgloss.Color("#cdd6f4")
	Subtext0 = lipgloss.Color("#a6adc8")
	Lavender = lipgloss.Color("#b4befe")
	Sapphire = lipgloss.Color("#74c7ec")
	Green    = lipgloss.Color("#a6e3a1")
	Yellow   = lipgloss.Color("#f9e2af")
	Red      = lipgloss.Color("#f38ba8")
	Peach    = lipgloss.Color("#fab387")

	Pane = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Surface1).
		Background(Mantle).
		Foreground(Text).
		Padding(0, 1)

	Title = lipgloss.NewStyle().Foreground(Sapphire).Bold(true)
	Muted = lipgloss.NewStyle().Foreground(Subtext0)
	Hot   = lipgloss.NewStyle().Foreground(Peach).Bold(true)
	Done  = lipgloss.NewStyle().Foreground(Green).Strikethrough(true)
)

// ModeColor maps an operating mode to its accent. Unknown modes are muted.
func ModeColor(mode string) lipgloss.Color {
	switch mode {
	case "survival":
		return Red
	case "maintenance":
		return Yellow
	case "expansion":
		return Green
	default:
		return Subtext0
	}
}

func Mode(mode string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(ModeColor(mode)).Bold(true)
}

// Banner frames a forecast. Warnings use the survival accent.
func Banner(kind string) lipgloss.Style {
	accent := Green
	if kind == "warning" {
		accent = Red
	}
	return lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(accent).
		Foreground(Text).
		PaddingLeft(1)
}
