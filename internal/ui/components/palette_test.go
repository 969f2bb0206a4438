package components

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestMatchingFiltersByPrefix(t *testing.T) {
	t.Parallel()
	got := Matching("do")
	if len(got) != 1 || got[0] != "done <habit-id>" {
		t.Fatalf("unexpected hints: %v", got)
	}
	if all := Matching(""); len(all) != maxHints {
		t.Fatalf("expected %d hints, got %d", maxHints, len(all))
	}
}

func TestPaletteSubmitEmitsTrimmedInput(t *testing.T) {
	t.Parallel()
	p := NewPalette()
	p.Open()
	for _, r := range " summary " {
		p, _ = p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	p, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if p.Visible() {
		t.Fatalf("palette should close on enter")
	}
	msg, ok := cmd().(PaletteSubmitMsg)
	if !ok || msg.Input != "summary" {
		t.Fatalf("unexpected msg: %#v", cmd())
	}
}

func TestCompleteExpandsUniqueVerb(t *testing.T) {
	t.Parallel()
	cases := map[string]struct {
		want string
		ok   bool
	}{
		"ov":   {want: "override ", ok: true},
		"su":   {want: "summary", ok: true},
		"":     {},
		"zz":   {},
		"do x": {},
	}
	for prefix, tc := range cases {
		got, ok := Complete(prefix)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("Complete(%q) = %q, %v", prefix, got, ok)
		}
	}
}

func TestPaletteRecallsHistory(t *testing.T) {
	t.Parallel()
	p := NewPalette()
	for _, input := range []string{"summary", "weekly", "weekly"} {
		p.Open()
		for _, r := range input {
			p, _ = p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		}
		p, _ = p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	}
	if got := p.History(); len(got) != 2 || got[0] != "summary" || got[1] != "weekly" {
		t.Fatalf("unexpected history %v", got)
	}
	p.Open()
	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyUp})
	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyUp})
	p, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if msg, ok := cmd().(PaletteSubmitMsg); !ok || msg.Input != "summary" {
		t.Fatalf("expected recalled summary, got %#v", cmd())
	}
}
