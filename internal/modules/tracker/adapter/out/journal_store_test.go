package out_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	energy "flux/internal/modules/energy/domain"
	"flux/internal/modules/tracker/adapter/out"
	"flux/internal/modules/tracker/domain"
)

func TestJournalKeepsUserTextOnRewrite(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	journal := out.NewMarkdownJournal(dir)
	session := domain.NewDailySession("2026-03-02")
	session.SetEnergy(64, energy.Maintenance)
	session.CompletedHabits = []string{"h_seed_01"}
	entry := domain.DayEntry{
		Session:   session,
		Profile:   domain.Profile{Name: "Ada"},
		Completed: []domain.HabitDefinition{domain.DefaultHabits()[0]},
		ClosedAt:  time.Date(2026, 3, 2, 22, 0, 0, 0, time.UTC),
	}
	path, err := journal.SaveDay(context.Background(), entry)
	if err != nil {
		t.Fatalf("save day: %v", err)
	}
	if path != filepath.Join(dir, "2026", "03", "2026-03-02.md") {
		t.Fatalf("unexpected path %s", path)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	content := string(raw)
	for _, want := range []string{"energy_level: 64", "Walk 20 min", "Day 2026-03-02 · Ada"} {
		if !strings.Contains(content, want) {
			t.Fatalf("journal missing %q:\n%s", want, content)
		}
	}

	if err := os.WriteFile(path, []byte(content+"\nPersonal reflection.\n"), 0o644); err != nil {
		t.Fatalf("append user text: %v", err)
	}
	entry.Session.Note = "late note"
	if _, err := journal.SaveDay(context.Background(), entry); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	raw, _ = os.ReadFile(path)
	if !strings.Contains(string(raw), "Personal reflection.") || !strings.Contains(string(raw), "late note") {
		t.Fatalf("rewrite lost content:\n%s", raw)
	}
	if strings.Count(string(raw), "flux:day:start") != 1 {
		t.Fatalf("generated block duplicated:\n%s", raw)
	}
}

func TestJournalRejectsBadDate(t *testing.T) {
	t.Parallel()
	journal := out.NewMarkdownJournal(t.TempDir())
	if _, err := journal.SaveDay(context.Background(), domain.DayEntry{Session: domain.NewDailySession("yesterday")}); err == nil {
		t.Fatalf("bad date must fail")
	}
}
