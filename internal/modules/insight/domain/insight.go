package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

type ForecastType string

const (
	ForecastWarning     ForecastType = "warning"
	ForecastOpportunity ForecastType = "opportunity"
)

const (
	DefaultMinSamples = 5
	ReportWindow      = 7 * 24 * time.Hour
	TopTagCount       = 3
)

type Forecast struct {
	Type       ForecastType
	AvgEnergy  int
	Confidence int
	Samples    int
	Weekday    time.Weekday
	Message    string
}

type Report struct {
	Period      string
	From        time.Time
	To          time.Time
	AvgEnergy   int
	CheckIns    int
	Completions int
	TopTags     []string
	Insight     string
	LogCount    int
}

// RoundHalfUp rounds to the nearest integer, halves away from zero for
// the non-negative levels used here.
func RoundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

// Confidence grows by ten points per sample up to 100.
func Confidence(samples int) int {
	return min(samples*10, 100)
}

func ForecastMessage(kind ForecastType, day time.Weekday, avg int) string {
	switch kind {
	case ForecastWarning:
		return fmt.Sprintf("Your history says %ss tend to be hard (%d%% average energy).", day, avg)
	case ForecastOpportunity:
		return fmt.Sprintf("You usually shine on %ss! High historical average (%d%%).", day, avg)
	default:
		return ""
	}
}

// WeeklyInsight bands the average energy of the window.
func WeeklyInsight(checkIns, avg int, topTags []string) string {
	if checkIns == 0 {
		return "Not enough data this week."
	}
	var insight string
	switch {
	case avg > 60:
		insight = "High-energy week. A good moment for an expansion sprint!"
	case avg < 40:
		insight = "Recovery week. Your body is asking for rest."
	default:
		insight = "Stable week. Consistency is key."
	}
	if len(topTags) > 0 {
		insight += fmt.Sprintf(" Your recurring theme was: %q.", topTags[0])
	}
	return insight
}

// TopTags returns the n most frequent tags; ties keep first-seen order.
func TopTags(tags []string, n int) []string {
	counts := map[string]int{}
	order := []string{}
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := counts[tag]; !ok {
			order = append(order, tag)
		}
		counts[tag]++
	}
	top := make([]string, 0, n)
	used := map[string]bool{}
	for len(top) < n && len(top) < len(order) {
		best := ""
		for _, tag := range order {
			if used[tag] {
				continue
			}
			if best == "" || counts[tag] > counts[best] {
				best = tag
			}
		}
		used[best] = true
		top = append(top, best)
	}
	return top
}

// Markdown renders the report as a note body.
func (r Report) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Weekly report\n\n_%s · %s – %s_\n\n", r.Period, r.From.Format("Jan 2"), r.To.Format("Jan 2"))
	fmt.Fprintf(&b, "| metric | value |\n|---|---|\n")
	fmt.Fprintf(&b, "| average energy | %d%% |\n", r.AvgEnergy)
	fmt.Fprintf(&b, "| check-ins | %d |\n", r.CheckIns)
	fmt.Fprintf(&b, "| habits completed | %d |\n", r.Completions)
	fmt.Fprintf(&b, "| events logged | %d |\n\n", r.LogCount)
	if len(r.TopTags) > 0 {
		fmt.Fprintf(&b, "**Top tags:** %s\n\n", strings.Join(r.TopTags, ", "))
	}
	fmt.Fprintf(&b, "> %s\n", r.Insight)
	return b.String()
}
