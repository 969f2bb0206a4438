package domain

import (
	"strings"
	"testing"
	"time"
)

func TestTopTagsBreaksTiesByFirstSeen(t *testing.T) {
	t.Parallel()
	got := TopTags([]string{"rain", "coffee", "rain", "gym", "coffee", "sleep", "gym"}, 3)
	if strings.Join(got, ",") != "rain,coffee,gym" {
		t.Fatalf("unexpected top tags: %v", got)
	}
	if got := TopTags([]string{"solo"}, 3); len(got) != 1 {
		t.Fatalf("expected a single tag, got %v", got)
	}
}

func TestWeeklyInsightBands(t *testing.T) {
	t.Parallel()
	cases := []struct {
		checkIns, avg int
		tags          []string
		prefix        string
	}{
		{0, 0, nil, "Not enough data"},
		{3, 61, nil, "High-energy week"},
		{3, 60, nil, "Stable week"},
		{3, 40, nil, "Stable week"},
		{3, 39, []string{"rain"}, "Recovery week"},
	}
	for _, tc := range cases {
		got := WeeklyInsight(tc.checkIns, tc.avg, tc.tags)
		if !strings.HasPrefix(got, tc.prefix) {
			t.Fatalf("avg %d: expected %q prefix, got %q", tc.avg, tc.prefix, got)
		}
	}
	if got := WeeklyInsight(2, 30, []string{"rain"}); !strings.HasSuffix(got, `"rain".`) {
		t.Fatalf("top tag not appended: %q", got)
	}
}

func TestRoundingAndConfidence(t *testing.T) {
	t.Parallel()
	if RoundHalfUp(22.5) != 23 || RoundHalfUp(22.49) != 22 {
		t.Fatalf("unexpected rounding")
	}
	if Confidence(5) != 50 || Confidence(14) != 100 {
		t.Fatalf("unexpected confidence")
	}
	if !strings.Contains(ForecastMessage(ForecastWarning, time.Monday, 23), "Mondays") {
		t.Fatalf("message should name the weekday")
	}
}
