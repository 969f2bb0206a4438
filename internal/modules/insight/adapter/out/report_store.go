package out

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"flux/internal/modules/insight/domain"
	insightout "flux/internal/modules/insight/port/out"
	"flux/internal/platform/markdown"
)

var weeklyBlock = markdown.Block{Start: "<!-- flux:weekly:start -->", End: "<!-- flux:weekly:end -->"}

// MarkdownReportStore writes weekly reports as notes under dir/weekly, one
// per ISO week unless the caller names a path.
type MarkdownReportStore struct {
	dir string
}

func NewMarkdownReportStore(dir string) insightout.ReportStore {
	return &MarkdownReportStore{dir: dir}
}

func (s *MarkdownReportStore) SaveWeekly(_ context.Context, report domain.Report, path string) (string, error) {
	if path == "" {
		year, week := report.To.ISOWeek()
		path = filepath.Join(s.dir, "weekly", fmt.Sprintf("%d-W%02d.md", year, week))
	}
	note, _, err := markdown.ReadNote(path)
	if err != nil {
		return "", err
	}
	meta := map[string]any{}
	for key, value := range note.Meta {
		meta[key] = value
	}
	meta["type"] = "weekly_report"
	meta["period"] = report.Period
	meta["from"] = report.From.Format(time.RFC3339)
	meta["to"] = report.To.Format(time.RFC3339)
	meta["avg_energy"] = report.AvgEnergy
	meta["completions"] = report.Completions
	meta["top_tags"] = append([]string{}, report.TopTags...)
	meta["log_count"] = report.LogCount
	note = markdown.Note{Meta: meta, Body: weeklyBlock.Replace(note.Body, report.Markdown())}
	if err := markdown.WriteNote(path, note); err != nil {
		return "", err
	}
	return path, nil
}
