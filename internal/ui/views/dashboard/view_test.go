package dashboard

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	insightdto "flux/internal/modules/insight/dto"
	trackerdto "flux/internal/modules/tracker/dto"
)

func sampleState() trackerdto.StateOutput {
	return trackerdto.StateOutput{
		Today: trackerdto.DayOutput{Date: "2026-03-02", Mode: "maintenance"},
		Habits: []trackerdto.HabitOutput{
			{ID: "h_seed_01", Title: "Movement", Current: trackerdto.VariantOutput{Mode: "maintenance", Text: "Walk 20 min", Minutes: 20}},
			{ID: "h_seed_02", Title: "Reading", Current: trackerdto.VariantOutput{Mode: "maintenance", Text: "Read 15 min"}, Completed: true},
		},
	}
}

func TestSetStateListsHabitsForMode(t *testing.T) {
	t.Parallel()
	m := New()
	m.SetSize(80, 20)
	m.SetState(sampleState())
	id, ok := m.SelectedHabitID()
	if !ok || id != "h_seed_01" {
		t.Fatalf("expected first habit selected, got %q %v", id, ok)
	}
	if !strings.Contains(m.View(), "Walk 20 min") {
		t.Fatalf("view misses current variant:\n%s", m.View())
	}
	if got := (habitItem{habit: sampleState().Habits[1]}).Title(); !strings.HasPrefix(got, "✓") {
		t.Fatalf("completed habit not marked: %q", got)
	}
}

func TestForecastBannerOnlyWhenPresent(t *testing.T) {
	t.Parallel()
	m := New()
	m.SetSize(80, 20)
	if m.banner() != "" {
		t.Fatalf("expected no banner without forecast")
	}
	m.SetOverview(insightdto.OverviewOutput{Forecast: &insightdto.ForecastOutput{
		Type: "warning", AvgEnergy: 23, Confidence: 50, Samples: 5, Weekday: "Monday", Message: "Mondays run low.",
	}})
	if banner := m.banner(); !strings.Contains(banner, "WARNING") || !strings.Contains(banner, "50% confidence") {
		t.Fatalf("unexpected banner: %s", banner)
	}
}

func TestWeeklyToggle(t *testing.T) {
	t.Parallel()
	m := New()
	m.SetSize(80, 20)
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("w")})
	if !m.ShowingWeekly() {
		t.Fatalf("expected weekly view")
	}
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("w")})
	if m.ShowingWeekly() {
		t.Fatalf("expected habits view")
	}
}
