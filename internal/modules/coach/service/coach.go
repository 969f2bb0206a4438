package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"flux/internal/modules/coach/domain"
	coachout "flux/internal/modules/coach/port/out"
	trackerdto "flux/internal/modules/tracker/dto"
	trackerin "flux/internal/modules/tracker/port/in"
	apperrors "flux/internal/platform/errors"
	"flux/internal/platform/metrics"
)

const (
	defaultTimeout   = 15 * time.Second
	tipCacheSize     = 128
	tipCacheTTL      = 6 * time.Hour
	defaultPerMinute = 20
)

var errRateLimited = errors.New("provider rate limit reached")

// Coach is the calling layer around an optional provider. The tracker never
// talks to the provider; every provider failure ends in the heuristic path.
type Coach struct {
	provider coachout.Provider
	history  coachout.HistorySource
	tracker  trackerin.Usecase
	limiter  *rate.Limiter
	tips     *expirable.LRU[string, string]
	timeout  time.Duration
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

type Config struct {
	Timeout           time.Duration
	RequestsPerMinute int
}

type Option func(*Coach)

func WithLogger(logger *zap.Logger) Option {
	return func(c *Coach) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Coach) { c.metrics = m }
}

// NewCoach accepts a nil provider; the coach then only uses heuristics.
func NewCoach(provider coachout.Provider, history coachout.HistorySource, tracker trackerin.Usecase, cfg Config, opts ...Option) *Coach {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = defaultPerMinute
	}
	c := &Coach{
		provider: provider,
		history:  history,
		tracker:  tracker,
		limiter:  rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), max(1, cfg.RequestsPerMinute/4)),
		tips:     expirable.NewLRU[string, string](tipCacheSize, nil, tipCacheTTL),
		timeout:  cfg.Timeout,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Coach) Enabled() bool {
	return c.provider != nil
}

// call runs op against the provider under the rate limit and timeout.
func (c *Coach) call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	if c.provider == nil {
		return apperrors.ErrProviderUnavailable
	}
	if !c.limiter.Allow() {
		c.metrics.ProviderCall(op, "limited")
		return errRateLimited
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	start := time.Now()
	err := fn(ctx)
	if err != nil {
		c.metrics.ProviderCall(op, "error")
		c.logger.Warn("provider call failed",
			zap.String("op", op), zap.Duration("latency", time.Since(start)), zap.Error(err))
		return fmt.Errorf("%w: %s: %v", apperrors.ErrProviderUnavailable, op, err)
	}
	c.metrics.ProviderCall(op, "ok")
	c.logger.Debug("provider call", zap.String("op", op), zap.Duration("latency", time.Since(start)))
	return nil
}

// CheckIn asks the provider for an analysis and falls back to the heuristic
// check-in on any failure, so a check-in always completes.
func (c *Coach) CheckIn(ctx context.Context, level int, tags []string, note string) (trackerdto.CheckInOutput, domain.Source, error) {
	heuristic := func(source domain.Source) (trackerdto.CheckInOutput, domain.Source, error) {
		out, err := c.tracker.CheckIn(ctx, trackerdto.CheckInInput{Level: level, Tags: tags, Note: note})
		return out, source, err
	}
	if c.provider == nil {
		return heuristic(domain.SourceHeuristic)
	}

	request := domain.AnalysisRequest{Level: level, Tags: tags, Note: note}
	if c.history != nil {
		request.History = c.history.RecentContext(domain.HistoryWindowDays)
	}
	var analysis domain.Analysis
	err := c.call(ctx, "analyze", func(ctx context.Context) error {
		var err error
		analysis, err = c.provider.Analyze(ctx, request)
		return err
	})
	if err != nil {
		c.logger.Info("check-in falling back to heuristic", zap.Error(err))
		return heuristic(domain.SourceFallback)
	}
	out, err := c.tracker.CheckInWithAnalysis(ctx, trackerdto.AnalysisCheckInInput{
		Level:         level,
		Context:       analysis.Context,
		Reasoning:     analysis.Reasoning,
		ActionableTip: analysis.ActionableTip,
		Tags:          tags,
		Note:          note,
	})
	return out, domain.SourceProvider, err
}

// Tip returns a short coaching line for a habit in today's mode. Provider
// answers are cached per habit and mode.
func (c *Coach) Tip(ctx context.Context, habitID string) (domain.Tip, error) {
	state, err := c.tracker.Snapshot(ctx)
	if err != nil {
		return domain.Tip{}, err
	}
	var habit *trackerdto.HabitOutput
	for i := range state.Habits {
		if state.Habits[i].ID == habitID {
			habit = &state.Habits[i]
			break
		}
	}
	if habit == nil {
		return domain.Tip{}, fmt.Errorf("%w: habit %q", apperrors.ErrNotFound, habitID)
	}
	mode := habit.Current.Mode
	tip := domain.Tip{HabitID: habitID, Mode: mode}
	key := habitID + "|" + mode
	if cached, ok := c.tips.Get(key); ok {
		tip.Text, tip.Source, tip.Cached = cached, domain.SourceProvider, true
		return tip, nil
	}

	level := 50
	if state.Today.Level != nil {
		level = *state.Today.Level
	}
	var text string
	err = c.call(ctx, "micro_coach", func(ctx context.Context) error {
		var err error
		text, err = c.provider.MicroCoach(ctx, habit.Title, level)
		if err == nil && strings.TrimSpace(text) == "" {
			err = errors.New("empty coaching message")
		}
		return err
	})
	if err != nil {
		tip.Text = domain.HeuristicTip(mode, habit.Current.Text, habit.Current.Minutes)
		tip.Source = domain.SourceHeuristic
		return tip, nil
	}
	text = strings.TrimSpace(text)
	c.tips.Add(key, text)
	tip.Text, tip.Source = text, domain.SourceProvider
	return tip, nil
}

// DailySummary closes the day in one sentence.
func (c *Coach) DailySummary(ctx context.Context) (domain.Summary, error) {
	state, err := c.tracker.Snapshot(ctx)
	if err != nil {
		return domain.Summary{}, err
	}
	day := domain.DaySummary{
		Name:  state.Profile.Name,
		Goal:  state.Profile.Goal,
		Date:  state.Today.Date,
		Level: state.Today.Level,
		Mode:  state.Today.Mode,
		Note:  state.Today.Note,
	}
	for _, habit := range state.Habits {
		if habit.Completed {
			day.Completed = append(day.Completed, habit.Title)
		} else {
			day.Pending = append(day.Pending, habit.Title)
		}
	}
	history := ""
	if c.history != nil {
		history = c.history.RecentContext(domain.HistoryWindowDays)
	}
	var text string
	err = c.call(ctx, "daily_summary", func(ctx context.Context) error {
		var err error
		text, err = c.provider.DailySummary(ctx, day, history)
		if err == nil && strings.TrimSpace(text) == "" {
			err = errors.New("empty summary")
		}
		return err
	})
	if err != nil {
		return domain.Summary{Date: day.Date, Text: domain.HeuristicSummary(day), Source: domain.SourceHeuristic}, nil
	}
	return domain.Summary{Date: day.Date, Text: strings.TrimSpace(text), Source: domain.SourceProvider}, nil
}
