package checkin

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	trackerdto "flux/internal/modules/tracker/dto"
)

type bandPreview struct{}

func (bandPreview) Preview(level int) trackerdto.CheckInOutput {
	switch {
	case level <= 30:
		return trackerdto.CheckInOutput{Level: level, Mode: "survival", Negotiate: true}
	case level >= 70:
		return trackerdto.CheckInOutput{Level: level, Mode: "expansion"}
	default:
		return trackerdto.CheckInOutput{Level: level, Mode: "maintenance"}
	}
}

func press(m Model, key string) (Model, tea.Msg) {
	var msg tea.KeyMsg
	switch key {
	case "left":
		msg = tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		msg = tea.KeyMsg{Type: tea.KeyRight}
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	m, cmd := m.Update(msg)
	if cmd == nil {
		return m, nil
	}
	return m, cmd()
}

func TestSliderClampsAndPreviews(t *testing.T) {
	t.Parallel()
	m := New(bandPreview{}, 95, false)
	m, _ = press(m, "right")
	m, _ = press(m, "right")
	if m.Level() != 100 {
		t.Fatalf("expected clamp at 100, got %d", m.Level())
	}
	if m.preview.Mode != "expansion" {
		t.Fatalf("expected expansion preview, got %q", m.preview.Mode)
	}
	for i := 0; i < 30; i++ {
		m, _ = press(m, "left")
	}
	if m.Level() != 0 || m.preview.Mode != "survival" {
		t.Fatalf("expected survival at 0, got %d %q", m.Level(), m.preview.Mode)
	}
	m, _ = press(m, "+")
	if m.Level() != 1 {
		t.Fatalf("expected fine step, got %d", m.Level())
	}
}

func TestEnterSubmitsCurrentLevel(t *testing.T) {
	t.Parallel()
	m := New(bandPreview{}, -1, false)
	_, msg := press(m, "enter")
	submit, ok := msg.(SubmitMsg)
	if !ok || submit.Level != 50 || submit.Assisted {
		t.Fatalf("unexpected msg: %#v", msg)
	}
}

func TestAssistedSubmitOnlyWhenEnabled(t *testing.T) {
	t.Parallel()
	if _, msg := press(New(bandPreview{}, 40, false), "a"); msg != nil {
		t.Fatalf("expected no msg without coach, got %#v", msg)
	}
	_, msg := press(New(bandPreview{}, 40, true), "a")
	if submit, ok := msg.(SubmitMsg); !ok || !submit.Assisted {
		t.Fatalf("expected assisted submit, got %#v", msg)
	}
}

func TestNegotiationAnswers(t *testing.T) {
	t.Parallel()
	m := New(bandPreview{}, 20, false)
	m.Negotiate(trackerdto.CheckInOutput{Level: 20, Mode: "survival", Negotiate: true})
	if !m.Negotiating() {
		t.Fatalf("expected negotiation stage")
	}
	m, msg := press(m, "m")
	if got, ok := msg.(NegotiatedMsg); !ok || !got.Force {
		t.Fatalf("expected forced maintenance, got %#v", msg)
	}
	if m.Negotiating() {
		t.Fatalf("negotiation should end after an answer")
	}
	m.Negotiate(trackerdto.CheckInOutput{Mode: "survival"})
	_, msg = press(m, "y")
	if got, ok := msg.(NegotiatedMsg); !ok || got.Force {
		t.Fatalf("expected accepted plan, got %#v", msg)
	}
}
