package service_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	analyticsout "flux/internal/modules/analytics/adapter/out"
	analyticsdomain "flux/internal/modules/analytics/domain"
	analyticsservice "flux/internal/modules/analytics/service"
	analyticsusecase "flux/internal/modules/analytics/usecase"
	"flux/internal/modules/coach/domain"
	"flux/internal/modules/coach/service"
	energy "flux/internal/modules/energy/domain"
	trackerout "flux/internal/modules/tracker/adapter/out"
	trackerservice "flux/internal/modules/tracker/service"
	trackerusecase "flux/internal/modules/tracker/usecase"
	apperrors "flux/internal/platform/errors"
	"flux/internal/platform/id"
	"flux/internal/platform/kv"
)

type fakeClock struct{ now time.Time }

func (c fakeClock) Now() time.Time { return c.now }

type fakeProvider struct {
	mu          sync.Mutex
	analysis    domain.Analysis
	err         error
	tip         string
	calls       int
	lastHistory string
}

func (p *fakeProvider) Analyze(_ context.Context, request domain.AnalysisRequest) (domain.Analysis, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.lastHistory = request.History
	return p.analysis, p.err
}

func (p *fakeProvider) MicroCoach(context.Context, string, int) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return p.tip, p.err
}

func (p *fakeProvider) DailySummary(context.Context, domain.DaySummary, string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return "A steady day.", p.err
}

func newCoach(t *testing.T, provider *fakeProvider, rpm int) (*service.Coach, *analyticsservice.EventLog) {
	t.Helper()
	clk := fakeClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
	backend := kv.NewMemoryStore()
	eventLog := analyticsservice.NewEventLog(analyticsout.NewKVEventStore(backend), clk, id.UUID{})
	store := trackerservice.NewStore(trackerout.NewKVStateStore(backend), eventLog, energy.NewClassifier(energy.DefaultBanding()), clk, id.Short{})
	tracker := trackerusecase.NewInteractor(store, analyticsusecase.NewInteractor(eventLog))
	cfg := service.Config{RequestsPerMinute: rpm}
	if provider == nil {
		return service.NewCoach(nil, eventLog, tracker, cfg), eventLog
	}
	return service.NewCoach(provider, eventLog, tracker, cfg), eventLog
}

func lastType(log *analyticsservice.EventLog) analyticsdomain.EventType {
	all := log.All()
	return all[len(all)-1].Type
}

func TestCheckInUsesProviderAnalysis(t *testing.T) {
	t.Parallel()
	provider := &fakeProvider{analysis: domain.Analysis{Context: "expansion", Reasoning: "well rested", ActionableTip: "go long"}}
	coach, log := newCoach(t, provider, 60)
	out, source, err := coach.CheckIn(context.Background(), 45, []string{"rested"}, "")
	if err != nil {
		t.Fatalf("check-in: %v", err)
	}
	if source != domain.SourceProvider || out.Mode != "expansion" || out.Tip != "go long" {
		t.Fatalf("unexpected result: %+v source=%s", out, source)
	}
	if lastType(log) != analyticsdomain.TypeNeuralCheckIn {
		t.Fatalf("expected neural check-in event, got %s", lastType(log))
	}

	if _, _, err := coach.CheckIn(context.Background(), 30, nil, ""); err != nil {
		t.Fatalf("second check-in: %v", err)
	}
	if !strings.Contains(provider.lastHistory, "level=45") {
		t.Fatalf("provider should receive recent history, got %q", provider.lastHistory)
	}
}

func TestCheckInFallsBackOnProviderError(t *testing.T) {
	t.Parallel()
	provider := &fakeProvider{err: errors.New("timeout")}
	coach, log := newCoach(t, provider, 60)
	out, source, err := coach.CheckIn(context.Background(), 20, nil, "")
	if err != nil {
		t.Fatalf("fallback check-in must succeed: %v", err)
	}
	if source != domain.SourceFallback || out.Mode != "survival" {
		t.Fatalf("unexpected fallback: %+v source=%s", out, source)
	}
	if lastType(log) != analyticsdomain.TypeEnergyCheckIn {
		t.Fatalf("fallback must record a heuristic check-in")
	}
}

func TestCheckInWithoutProviderIsHeuristic(t *testing.T) {
	t.Parallel()
	coach, _ := newCoach(t, nil, 0)
	if coach.Enabled() {
		t.Fatalf("coach without provider must report disabled")
	}
	out, source, err := coach.CheckIn(context.Background(), 85, nil, "")
	if err != nil || source != domain.SourceHeuristic || out.Mode != "expansion" {
		t.Fatalf("unexpected heuristic check-in: %+v source=%s err=%v", out, source, err)
	}
}

func TestRateLimitFallsBack(t *testing.T) {
	t.Parallel()
	provider := &fakeProvider{analysis: domain.Analysis{Context: "maintenance"}}
	coach, _ := newCoach(t, provider, 1)
	if _, source, _ := coach.CheckIn(context.Background(), 50, nil, ""); source != domain.SourceProvider {
		t.Fatalf("first call should reach the provider, got %s", source)
	}
	if _, source, _ := coach.CheckIn(context.Background(), 50, nil, ""); source != domain.SourceFallback {
		t.Fatalf("second call within the minute should be limited, got %s", source)
	}
	if provider.calls != 1 {
		t.Fatalf("limited call must not reach the provider, calls=%d", provider.calls)
	}
}

func TestTipIsCachedPerHabitAndMode(t *testing.T) {
	t.Parallel()
	provider := &fakeProvider{tip: "Just open the book."}
	coach, _ := newCoach(t, provider, 60)
	first, err := coach.Tip(context.Background(), "h_seed_02")
	if err != nil || first.Text != "Just open the book." || first.Cached {
		t.Fatalf("unexpected first tip: %+v err=%v", first, err)
	}
	second, err := coach.Tip(context.Background(), "h_seed_02")
	if err != nil || !second.Cached || provider.calls != 1 {
		t.Fatalf("second tip should be cached: %+v calls=%d", second, provider.calls)
	}
	if _, err := coach.Tip(context.Background(), "missing"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("unknown habit must be not found, got %v", err)
	}
}

func TestTipAndSummaryFallBackToHeuristics(t *testing.T) {
	t.Parallel()
	coach, _ := newCoach(t, &fakeProvider{err: errors.New("down")}, 60)
	tip, err := coach.Tip(context.Background(), "h_seed_01")
	if err != nil || tip.Source != domain.SourceHeuristic || !strings.Contains(tip.Text, "Walk 20 min") {
		t.Fatalf("unexpected heuristic tip: %+v err=%v", tip, err)
	}
	summary, err := coach.DailySummary(context.Background())
	if err != nil || summary.Source != domain.SourceHeuristic || !strings.Contains(summary.Text, "0 of 3") {
		t.Fatalf("unexpected heuristic summary: %+v err=%v", summary, err)
	}
}
