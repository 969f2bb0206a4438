package app

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	coachdto "flux/internal/modules/coach/dto"
	insightdto "flux/internal/modules/insight/dto"
	trackerdto "flux/internal/modules/tracker/dto"
)

type fakeTracker struct {
	state     trackerdto.StateOutput
	overrides []string
	completed []string
}

func (f *fakeTracker) Preview(level int) trackerdto.CheckInOutput {
	mode := "maintenance"
	if level <= 30 {
		mode = "survival"
	}
	return trackerdto.CheckInOutput{Level: level, Mode: mode, Negotiate: mode == "survival"}
}

func (f *fakeTracker) CheckIn(_ context.Context, level int) (trackerdto.CheckInOutput, error) {
	out := f.Preview(level)
	f.state.Today.CheckedIn = true
	f.state.Today.Level = &level
	f.state.Today.Mode = out.Mode
	return out, nil
}

func (f *fakeTracker) Override(_ context.Context, mode string) (trackerdto.DayOutput, error) {
	f.overrides = append(f.overrides, mode)
	f.state.Today.Mode = mode
	return f.state.Today, nil
}

func (f *fakeTracker) CompleteHabit(_ context.Context, habitID string) (trackerdto.DayOutput, error) {
	f.completed = append(f.completed, habitID)
	return f.state.Today, nil
}

func (f *fakeTracker) ResetDay(context.Context) (trackerdto.DayOutput, error) {
	return trackerdto.DayOutput{Date: "2026-03-03"}, nil
}

func (f *fakeTracker) Snapshot(context.Context) (trackerdto.StateOutput, error) {
	return f.state, nil
}

type fakeInsight struct{}

func (fakeInsight) Overview(context.Context) (insightdto.OverviewOutput, error) {
	return insightdto.OverviewOutput{}, nil
}

type fakeCoach struct{ enabled bool }

func (c fakeCoach) CheckIn(_ context.Context, level int, _ []string, _ string) (coachdto.CheckInOutput, error) {
	return coachdto.CheckInOutput{CheckInOutput: trackerdto.CheckInOutput{Level: level, Mode: "expansion"}, Source: "ai"}, nil
}

func (fakeCoach) Tip(_ context.Context, habitID string) (coachdto.TipOutput, error) {
	return coachdto.TipOutput{HabitID: habitID, Tip: "Start with one page."}, nil
}

func (fakeCoach) DailySummary(context.Context) (coachdto.SummaryOutput, error) {
	return coachdto.SummaryOutput{Summary: "Steady day."}, nil
}

func (c fakeCoach) Enabled() bool { return c.enabled }

func newTestModel(tracker *fakeTracker) Model {
	tracker.state.Today.Date = "2026-03-02"
	tracker.state.Habits = []trackerdto.HabitOutput{{ID: "h_seed_02", Title: "Reading"}}
	m := NewModel(context.Background(), tracker, fakeInsight{}, fakeCoach{})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return next.(Model)
}

// drive feeds msg to the model and then every message its commands yield,
// breadth first, until no command remains.
func drive(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	queue := []tea.Msg{msg}
	for steps := 0; len(queue) > 0; steps++ {
		if steps > 50 {
			t.Fatalf("message loop did not settle")
		}
		next, cmd := m.Update(queue[0])
		m = next.(Model)
		queue = queue[1:]
		queue = append(queue, run(cmd)...)
	}
	return m
}

func run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, run(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

func TestStartsOnCheckInWhenDayIsFresh(t *testing.T) {
	t.Parallel()
	tracker := &fakeTracker{}
	m := drive(t, newTestModel(tracker), snapshotMsg{state: tracker.state})
	if m.screen != screenCheckIn {
		t.Fatalf("expected check-in screen, got %v", m.screen)
	}
}

func TestSurvivalCheckInNegotiatesAndForcesMaintenance(t *testing.T) {
	t.Parallel()
	tracker := &fakeTracker{}
	m := drive(t, newTestModel(tracker), snapshotMsg{state: tracker.state})
	m = drive(t, m, checkedInMsgFor(tracker, 20))
	if !m.checkIn.Negotiating() {
		t.Fatalf("expected negotiation after survival check-in")
	}
	m = drive(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("m")})
	if len(tracker.overrides) != 1 || tracker.overrides[0] != "maintenance" {
		t.Fatalf("expected maintenance override, got %v", tracker.overrides)
	}
	if m.screen != screenDashboard {
		t.Fatalf("expected dashboard after negotiation")
	}
}

func TestDashboardCompletesSelectedHabit(t *testing.T) {
	t.Parallel()
	tracker := &fakeTracker{}
	level := 55
	tracker.state.Today = trackerdto.DayOutput{Date: "2026-03-02", CheckedIn: true, Level: &level, Mode: "maintenance"}
	m := newTestModel(tracker)
	m = drive(t, m, snapshotMsg{state: tracker.state})
	if m.screen != screenDashboard {
		t.Fatalf("expected dashboard for a checked-in day")
	}
	m = drive(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if len(tracker.completed) != 1 || tracker.completed[0] != "h_seed_02" {
		t.Fatalf("expected completion of selected habit, got %v", tracker.completed)
	}
	if m.status != "completed h_seed_02" {
		t.Fatalf("unexpected status %q", m.status)
	}
}

func TestPaletteOverrideRoutesToTracker(t *testing.T) {
	t.Parallel()
	tracker := &fakeTracker{}
	m := newTestModel(tracker)
	m.executePalette("override expansion")()
	if len(tracker.overrides) != 1 || tracker.overrides[0] != "expansion" {
		t.Fatalf("expected expansion override, got %v", tracker.overrides)
	}
	msg := m.executePalette("bogus")()
	if got, ok := msg.(actionMsg); !ok || got.status != "unknown command: bogus" {
		t.Fatalf("unexpected msg %#v", msg)
	}
}

func checkedInMsgFor(tracker *fakeTracker, level int) tea.Msg {
	out, err := tracker.CheckIn(context.Background(), level)
	return checkedInMsg{out: out, source: "heuristic", err: err}
}
