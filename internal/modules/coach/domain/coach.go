package domain

import (
	"fmt"
	"strings"
)

const HistoryWindowDays = 7

// Analysis is what a provider answers for a check-in.
type Analysis struct {
	Context       string `json:"context"`
	Reasoning     string `json:"reasoning"`
	ActionableTip string `json:"actionable_tip"`
}

type AnalysisRequest struct {
	Level   int
	Tags    []string
	Note    string
	History string
}

// DaySummary is the closing view of a day sent to a provider.
type DaySummary struct {
	Name      string
	Goal      string
	Date      string
	Level     *int
	Mode      string
	Completed []string
	Pending   []string
	Note      string
}

type Source string

const (
	SourceProvider  Source = "ai"
	SourceHeuristic Source = "heuristic"
	SourceFallback  Source = "fallback"
)

// HeuristicTip is used when no provider answers.
func HeuristicTip(mode, variantText string, minutes int) string {
	if strings.TrimSpace(variantText) == "" {
		return fmt.Sprintf("%s mode: keep it small and just start.", capitalize(mode))
	}
	return fmt.Sprintf("%s mode: %s (%d min). Start before you feel ready.", capitalize(mode), variantText, minutes)
}

func HeuristicSummary(day DaySummary) string {
	total := len(day.Completed) + len(day.Pending)
	if day.Level == nil {
		return fmt.Sprintf("No check-in today; %d of %d habits done.", len(day.Completed), total)
	}
	return fmt.Sprintf("Energy %d in %s mode; %d of %d habits done.", *day.Level, day.Mode, len(day.Completed), total)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

type Tip struct {
	HabitID string
	Mode    string
	Text    string
	Source  Source
	Cached  bool
}

type Summary struct {
	Date   string
	Text   string
	Source Source
}
