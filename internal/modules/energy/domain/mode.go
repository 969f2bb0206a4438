package domain

import (
	"fmt"
	"strings"
)

// Mode is the difficulty tier applied to every habit for the day.
type Mode string

const (
	Survival    Mode = "survival"
	Maintenance Mode = "maintenance"
	Expansion   Mode = "expansion"
)

var Modes = []Mode{Survival, Maintenance, Expansion}

func (m Mode) Valid() bool {
	switch m {
	case Survival, Maintenance, Expansion:
		return true
	default:
		return false
	}
}

func (m Mode) String() string {
	return string(m)
}

func ParseMode(raw string) (Mode, error) {
	mode := Mode(strings.ToLower(strings.TrimSpace(raw)))
	if !mode.Valid() {
		return "", fmt.Errorf("unknown mode %q", raw)
	}
	return mode, nil
}

// Feedback is the renderer-facing description of a mode.
type Feedback struct {
	Mode  Mode
	Label string
	Icon  string
}

func Describe(mode Mode) Feedback {
	switch mode {
	case Survival:
		return Feedback{Mode: Survival, Label: "Survival Mode", Icon: "🛡️"}
	case Expansion:
		return Feedback{Mode: Expansion, Label: "Expansion Mode", Icon: "🚀"}
	default:
		return Feedback{Mode: Maintenance, Label: "Maintenance Mode", Icon: "⚖️"}
	}
}

// SomaticLabel maps a level to the body sensations the slider suggests.
func SomaticLabel(level int) string {
	switch {
	case level <= 20:
		return "Rigid body • Mental fog"
	case level <= 40:
		return "Slowness • Heaviness"
	case level <= 60:
		return "Steady • Normal breathing"
	case level <= 80:
		return "Alert • Lightness"
	default:
		return "Sharp mind • Up for a challenge"
	}
}
