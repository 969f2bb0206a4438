package out

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	energy "flux/internal/modules/energy/domain"
	"flux/internal/modules/tracker/domain"
	trackerout "flux/internal/modules/tracker/port/out"
	"flux/internal/platform/markdown"
)

const journalSchemaVersion = 1

var dayBlock = markdown.Block{Start: "<!-- flux:day:start -->", End: "<!-- flux:day:end -->"}

// MarkdownJournal writes one note per closed day under dir/YYYY/MM. Closing
// the same date again rewrites only the generated block, so text the user
// added around it is kept.
type MarkdownJournal struct {
	dir string
}

func NewMarkdownJournal(dir string) trackerout.JournalStore {
	return &MarkdownJournal{dir: dir}
}

func (j *MarkdownJournal) SaveDay(_ context.Context, entry domain.DayEntry) (string, error) {
	date, err := time.Parse("2006-01-02", entry.Session.Date)
	if err != nil {
		return "", fmt.Errorf("parse session date %q: %w", entry.Session.Date, err)
	}
	path := filepath.Join(j.dir, date.Format("2006"), date.Format("01"), entry.Session.Date+".md")
	note, _, err := markdown.ReadNote(path)
	if err != nil {
		return "", err
	}

	meta := map[string]any{}
	for key, value := range note.Meta {
		meta[key] = value
	}
	meta["schema_version"] = journalSchemaVersion
	meta["type"] = "day"
	meta["date"] = entry.Session.Date
	meta["energy_context"] = string(entry.Session.Mode())
	meta["completed_habits"] = append([]string{}, entry.Session.CompletedHabits...)
	meta["closed_at"] = entry.ClosedAt.Format(time.RFC3339)
	if entry.Session.EnergyLevel != nil {
		meta["energy_level"] = *entry.Session.EnergyLevel
	}
	note = markdown.Note{Meta: meta, Body: dayBlock.Replace(note.Body, renderDay(entry))}
	if err := markdown.WriteNote(path, note); err != nil {
		return "", err
	}
	return path, nil
}

func renderDay(entry domain.DayEntry) string {
	session := entry.Session
	mode := session.Mode()
	feedback := energy.Describe(mode)
	var b strings.Builder
	title := session.Date
	if name := strings.TrimSpace(entry.Profile.Name); name != "" {
		title += " · " + name
	}
	fmt.Fprintf(&b, "# Day %s\n\n", title)
	if session.EnergyLevel != nil {
		fmt.Fprintf(&b, "- Energy: %d (%s %s)\n", *session.EnergyLevel, feedback.Icon, feedback.Label)
		fmt.Fprintf(&b, "- Body: %s\n", energy.SomaticLabel(*session.EnergyLevel))
	}
	fmt.Fprintf(&b, "- Completed: %d\n", len(session.CompletedHabits))
	if len(entry.Completed) > 0 {
		b.WriteString("\n## Habits\n\n")
		for _, habit := range entry.Completed {
			variant := habit.Variant(mode)
			fmt.Fprintf(&b, "- %s %s: %s (%d min)\n", habit.Icon, habit.Title, variant.Text, variant.TargetDurationMinutes)
		}
	}
	if note := strings.TrimSpace(session.Note); note != "" {
		fmt.Fprintf(&b, "\n## Note\n\n%s\n", note)
	}
	if reasoning := strings.TrimSpace(session.AIReasoning); reasoning != "" {
		fmt.Fprintf(&b, "\n## Coach\n\n%s\n", reasoning)
	}
	return strings.TrimRight(b.String(), "\n")
}
