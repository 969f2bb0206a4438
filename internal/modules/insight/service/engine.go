package service

import (
	"time"

	analyticsdomain "flux/internal/modules/analytics/domain"
	energy "flux/internal/modules/energy/domain"
	"flux/internal/modules/insight/domain"
	insightout "flux/internal/modules/insight/port/out"
	"flux/internal/platform/clock"
)

// Engine derives forecasts and reports from the event log. It never writes.
type Engine struct {
	events     insightout.EventSource
	clock      clock.Clock
	location   *time.Location
	minSamples int
	banding    energy.Banding
}

type Option func(*Engine)

// WithLocation sets the zone that decides an event's weekday.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.location = loc
		}
	}
}

func WithMinSamples(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.minSamples = n
		}
	}
}

func WithBanding(b energy.Banding) Option {
	return func(e *Engine) {
		if b.Validate() == nil {
			e.banding = b
		}
	}
}

func NewEngine(events insightout.EventSource, clock clock.Clock, opts ...Option) *Engine {
	e := &Engine{
		events:     events,
		clock:      clock,
		location:   time.UTC,
		minSamples: domain.DefaultMinSamples,
		banding:    energy.DefaultBanding(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ForecastToday averages past check-ins that fell on today's weekday. It
// returns nil below the sample minimum and for mid-range averages.
func (e *Engine) ForecastToday() *domain.Forecast {
	today := e.clock.Now().In(e.location).Weekday()
	total, samples := 0, 0
	for _, event := range e.events.All() {
		checkIn, ok := event.CheckIn()
		if !ok || event.Time().In(e.location).Weekday() != today {
			continue
		}
		total += checkIn.Level
		samples++
	}
	if samples < e.minSamples {
		return nil
	}
	avg := domain.RoundHalfUp(float64(total) / float64(samples))
	var kind domain.ForecastType
	switch {
	case float64(avg) <= e.banding.SurvivalMax:
		kind = domain.ForecastWarning
	case float64(avg) >= e.banding.ExpansionMin:
		kind = domain.ForecastOpportunity
	default:
		return nil
	}
	return &domain.Forecast{
		Type:       kind,
		AvgEnergy:  avg,
		Confidence: domain.Confidence(samples),
		Samples:    samples,
		Weekday:    today,
		Message:    domain.ForecastMessage(kind, today, avg),
	}
}

// WeeklyReport summarizes the trailing seven days.
func (e *Engine) WeeklyReport() domain.Report {
	now := e.clock.Now()
	from := now.Add(-domain.ReportWindow)
	cutoff := from.UnixMilli()

	var (
		window      []analyticsdomain.Event
		tags        []string
		total       int
		checkIns    int
		completions int
	)
	for _, event := range e.events.All() {
		if event.Timestamp < cutoff {
			continue
		}
		window = append(window, event)
		if checkIn, ok := event.CheckIn(); ok {
			total += checkIn.Level
			checkIns++
			tags = append(tags, checkIn.Tags...)
			continue
		}
		if event.Type == analyticsdomain.TypeHabitCompleted {
			completions++
		}
	}
	avg := 0
	if checkIns > 0 {
		avg = domain.RoundHalfUp(float64(total) / float64(checkIns))
	}
	top := domain.TopTags(tags, domain.TopTagCount)
	return domain.Report{
		Period:      "Last 7 days",
		From:        from.In(e.location),
		To:          now.In(e.location),
		AvgEnergy:   avg,
		CheckIns:    checkIns,
		Completions: completions,
		TopTags:     top,
		Insight:     domain.WeeklyInsight(checkIns, avg, top),
		LogCount:    len(window),
	}
}
