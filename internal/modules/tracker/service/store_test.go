package service_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	analyticsdomain "flux/internal/modules/analytics/domain"
	energy "flux/internal/modules/energy/domain"
	trackerout "flux/internal/modules/tracker/adapter/out"
	"flux/internal/modules/tracker/domain"
	"flux/internal/modules/tracker/service"
	apperrors "flux/internal/platform/errors"
	"flux/internal/platform/kv"
)

type fakeClock struct{ now time.Time }

func (c fakeClock) Now() time.Time { return c.now }

type fakeID struct{ value string }

func (f fakeID) New() string { return f.value }

type fakeRecorder struct {
	mu     sync.Mutex
	events []analyticsdomain.Payload
	err    error
}

func (r *fakeRecorder) Append(_ context.Context, payload analyticsdomain.Payload) (analyticsdomain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, payload)
	return analyticsdomain.Event{ID: "x", Type: payload.EventType()}, r.err
}

func (r *fakeRecorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []string{}
	for _, p := range r.events {
		out = append(out, string(p.EventType()))
	}
	return out
}

type failingState struct{}

func (failingState) Load(_ context.Context, defaults domain.State) (domain.State, bool, error) {
	return defaults, false, nil
}

func (failingState) Save(context.Context, domain.State) error {
	return errors.New("disk full")
}

type fakeJournal struct {
	entries []domain.DayEntry
	err     error
}

func (j *fakeJournal) SaveDay(_ context.Context, entry domain.DayEntry) (string, error) {
	j.entries = append(j.entries, entry)
	return "/journal/" + entry.Session.Date + ".md", j.err
}

var monday = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func newStore(t *testing.T, backend kv.Store, recorder *fakeRecorder, opts ...service.Option) *service.Store {
	t.Helper()
	store := service.NewStore(trackerout.NewKVStateStore(backend), recorder,
		energy.NewClassifier(energy.DefaultBanding()), fakeClock{now: monday}, fakeID{value: "abc123"}, opts...)
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("load store: %v", err)
	}
	return store
}

func TestFirstStartSeedsDefaults(t *testing.T) {
	t.Parallel()
	store := newStore(t, kv.NewMemoryStore(), &fakeRecorder{})
	state := store.State()
	if state.Profile.OnboardingCompleted || state.Today.Date != "2026-03-02" {
		t.Fatalf("unexpected initial state: %+v", state)
	}
	if len(state.Habits) != 3 || state.Today.CheckedIn() {
		t.Fatalf("expected seeded habits and empty day, got %+v", state)
	}
}

func TestCheckInThenCompleteScenario(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	recorder := &fakeRecorder{}
	store := newStore(t, kv.NewMemoryStore(), recorder)

	mode, err := store.CheckIn(ctx, 85, nil, "")
	if err != nil || mode != energy.Expansion {
		t.Fatalf("check-in: mode=%s err=%v", mode, err)
	}
	if err := store.CompleteHabit(ctx, "h1"); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if err := store.CompleteHabit(ctx, "h1"); err != nil {
		t.Fatalf("repeat complete must not fail: %v", err)
	}
	if got := strings.Join(recorder.types(), ","); got != "ENERGY_CHECK_IN,HABIT_COMPLETED" {
		t.Fatalf("unexpected events: %s", got)
	}
	completion := recorder.events[1].(analyticsdomain.HabitCompleted)
	if completion.ContextUsed != energy.Expansion || completion.EnergyLevel == nil || *completion.EnergyLevel != 85 {
		t.Fatalf("unexpected completion payload: %+v", completion)
	}
	if got := store.State().Today.CompletedHabits; len(got) != 1 || got[0] != "h1" {
		t.Fatalf("expected h1 once, got %v", got)
	}
}

func TestCompleteWithoutCheckInUsesMaintenance(t *testing.T) {
	t.Parallel()
	recorder := &fakeRecorder{}
	store := newStore(t, kv.NewMemoryStore(), recorder)
	if err := store.CompleteHabit(context.Background(), "h_seed_01"); err != nil {
		t.Fatalf("complete: %v", err)
	}
	completion := recorder.events[0].(analyticsdomain.HabitCompleted)
	if completion.ContextUsed != energy.Maintenance || completion.EnergyLevel != nil {
		t.Fatalf("unexpected completion payload: %+v", completion)
	}
}

func TestResetDayClearsLevelAndContextTogether(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	journal := &fakeJournal{}
	store := newStore(t, kv.NewMemoryStore(), &fakeRecorder{}, service.WithJournal(journal))
	if _, err := store.CheckIn(ctx, 40, []string{"coffee"}, "slow start"); err != nil {
		t.Fatalf("check-in: %v", err)
	}
	today := store.State().Today
	if today.EnergyLevel == nil || today.EnergyContext == nil {
		t.Fatalf("check-in must set level and context together")
	}
	if err := store.CompleteHabit(ctx, "h_seed_02"); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if err := store.ResetDay(ctx); err != nil {
		t.Fatalf("reset day: %v", err)
	}
	state := store.State()
	if state.Today.EnergyLevel != nil || state.Today.EnergyContext != nil || len(state.Today.CompletedHabits) != 0 {
		t.Fatalf("reset day must clear the session: %+v", state.Today)
	}
	if len(state.Habits) != 3 {
		t.Fatalf("reset day must keep habits")
	}
	if len(journal.entries) != 1 || journal.entries[0].Completed[0].Title != "Reading" {
		t.Fatalf("expected one journal entry with completed habit, got %+v", journal.entries)
	}

	if err := store.ResetDay(ctx); err != nil {
		t.Fatalf("second reset: %v", err)
	}
	if len(journal.entries) != 1 {
		t.Fatalf("a day without check-in must not be journaled")
	}
}

func TestJournalFailureStillResets(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	journal := &fakeJournal{err: errors.New("read-only")}
	store := newStore(t, kv.NewMemoryStore(), &fakeRecorder{}, service.WithJournal(journal))
	if _, err := store.CheckIn(ctx, 50, nil, ""); err != nil {
		t.Fatalf("check-in: %v", err)
	}
	err := store.ResetDay(ctx)
	if !errors.Is(err, apperrors.ErrPersistence) {
		t.Fatalf("expected journal failure to surface, got %v", err)
	}
	if store.State().Today.CheckedIn() {
		t.Fatalf("day must be reset even when the journal fails")
	}
}

func TestPersistenceFailureIsOptimistic(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	recorder := &fakeRecorder{}
	store := service.NewStore(failingState{}, recorder, energy.NewClassifier(energy.DefaultBanding()), fakeClock{now: monday}, fakeID{value: "x"})
	notified := 0
	store.Subscribe(func(domain.State) { notified++ })

	mode, err := store.CheckIn(ctx, 10, nil, "")
	if !errors.Is(err, apperrors.ErrPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
	if mode != energy.Survival || !store.State().Today.CheckedIn() {
		t.Fatalf("in-memory change must still apply")
	}
	if notified != 1 || len(recorder.events) != 1 {
		t.Fatalf("notification and event must still happen, notified=%d events=%d", notified, len(recorder.events))
	}
}

func TestEventFailureSurfaces(t *testing.T) {
	t.Parallel()
	recorder := &fakeRecorder{err: apperrors.ErrPersistence}
	store := newStore(t, kv.NewMemoryStore(), recorder)
	if err := store.CompleteHabit(context.Background(), "h1"); !errors.Is(err, apperrors.ErrPersistence) {
		t.Fatalf("expected event error to surface, got %v", err)
	}
	if !store.State().Today.HasCompleted("h1") {
		t.Fatalf("completion must stay in memory")
	}
}

func TestRoundTripThroughBackend(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	backend := kv.NewMemoryStore()
	first := newStore(t, backend, &fakeRecorder{})
	if _, err := first.CheckIn(ctx, 72, nil, ""); err != nil {
		t.Fatalf("check-in: %v", err)
	}
	if _, err := first.AddHabit(ctx, domain.HabitDefinition{
		Title:  "Journal",
		Levels: map[energy.Mode]domain.Variant{energy.Maintenance: {Text: "Write 5 lines", TargetDurationMinutes: 5}},
	}); err != nil {
		t.Fatalf("add habit: %v", err)
	}
	if err := first.CompleteHabit(ctx, "journal-abc123"); err != nil {
		t.Fatalf("complete: %v", err)
	}

	second := newStore(t, backend, &fakeRecorder{})
	a, b := first.State(), second.State()
	if len(a.Habits) != len(b.Habits) || b.Habits[3].ID != "journal-abc123" {
		t.Fatalf("habits differ after reload: %+v", b.Habits)
	}
	if *b.Today.EnergyLevel != 72 || b.Today.Mode() != energy.Expansion || !b.Today.HasCompleted("journal-abc123") {
		t.Fatalf("session differs after reload: %+v", b.Today)
	}
}

func TestCorruptStateFallsBackToDefaults(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	backend := kv.NewMemoryStore()
	if err := backend.SetItem(ctx, trackerout.StateKey, "{oops"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	store := newStore(t, backend, &fakeRecorder{})
	if len(store.State().Habits) != 3 {
		t.Fatalf("expected defaults after corruption")
	}
	if raw, ok, _ := backend.GetItem(ctx, trackerout.StateKey+kv.CorruptSuffix); !ok || raw != "{oops" {
		t.Fatalf("corrupt blob should be quarantined")
	}
}

func TestCheckInWithAnalysis(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	recorder := &fakeRecorder{}
	store := newStore(t, kv.NewMemoryStore(), recorder)

	mode, err := store.CheckInWithAnalysis(ctx, 25, domain.Analysis{Context: "expansion", Reasoning: "rested", ActionableTip: "go"}, []string{"run"}, "")
	if err != nil || mode != energy.Expansion {
		t.Fatalf("analysis check-in: mode=%s err=%v", mode, err)
	}
	neural := recorder.events[0].(analyticsdomain.NeuralCheckIn)
	if neural.Level != 25 || neural.Tip != "go" || neural.Tags[0] != "run" {
		t.Fatalf("unexpected neural payload: %+v", neural)
	}

	mode, err = store.CheckInWithAnalysis(ctx, 60, domain.Analysis{Context: "turbo", Reasoning: "unsure"}, nil, "")
	if err != nil || mode != energy.Maintenance {
		t.Fatalf("invalid context must fall back: mode=%s err=%v", mode, err)
	}
	if got := store.State().Today.AIReasoning; got != "fallback: unsure" {
		t.Fatalf("reasoning must be flagged as fallback, got %q", got)
	}
}

func TestOutOfRangeLevelIsClamped(t *testing.T) {
	t.Parallel()
	recorder := &fakeRecorder{}
	store := newStore(t, kv.NewMemoryStore(), recorder)
	mode, err := store.CheckIn(context.Background(), 140, nil, "")
	if err != nil || mode != energy.Maintenance {
		t.Fatalf("out of range: mode=%s err=%v", mode, err)
	}
	if level := *store.State().Today.EnergyLevel; level != 100 {
		t.Fatalf("expected clamped level, got %d", level)
	}
}

func TestOverrideContext(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	recorder := &fakeRecorder{}
	store := newStore(t, kv.NewMemoryStore(), recorder)

	if err := store.OverrideContext(ctx, energy.Expansion); err != nil {
		t.Fatalf("override: %v", err)
	}
	today := store.State().Today
	if today.Mode() != energy.Expansion || today.EnergyLevel == nil || *today.EnergyLevel != 85 {
		t.Fatalf("override without check-in must pair a level: %+v", today)
	}
	first := recorder.events[0].(analyticsdomain.ContextOverride)
	if first.Level != nil {
		t.Fatalf("override without prior level must record null level")
	}

	if _, err := store.CheckIn(ctx, 20, nil, ""); err != nil {
		t.Fatalf("check-in: %v", err)
	}
	if err := store.OverrideContext(ctx, energy.Maintenance); err != nil {
		t.Fatalf("override: %v", err)
	}
	today = store.State().Today
	if today.Mode() != energy.Maintenance || *today.EnergyLevel != 20 {
		t.Fatalf("override must keep the level: %+v", today)
	}
	last := recorder.events[2].(analyticsdomain.ContextOverride)
	if last.Context != energy.Maintenance || *last.Level != 20 {
		t.Fatalf("unexpected override payload: %+v", last)
	}
	if err := store.OverrideContext(ctx, energy.Mode("turbo")); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("unknown mode must be rejected, got %v", err)
	}
}

func TestRemoveHabitUnknownIsSilent(t *testing.T) {
	t.Parallel()
	store := newStore(t, kv.NewMemoryStore(), &fakeRecorder{})
	notified := 0
	store.Subscribe(func(domain.State) { notified++ })
	if err := store.RemoveHabit(context.Background(), "missing"); err != nil {
		t.Fatalf("remove unknown: %v", err)
	}
	if notified != 0 {
		t.Fatalf("no-op removal must not notify")
	}
	if err := store.RemoveHabit(context.Background(), "h_seed_01"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if notified != 1 || len(store.State().Habits) != 2 {
		t.Fatalf("removal must persist and notify once")
	}
}

func TestAddHabitValidation(t *testing.T) {
	t.Parallel()
	store := newStore(t, kv.NewMemoryStore(), &fakeRecorder{})
	_, err := store.AddHabit(context.Background(), domain.HabitDefinition{
		Title:  "Swim",
		Levels: map[energy.Mode]domain.Variant{energy.Expansion: {Text: "1km"}},
	})
	if !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("habit without maintenance must be rejected, got %v", err)
	}
	added, err := store.AddHabit(context.Background(), domain.HabitDefinition{
		Title:  "Café Time",
		Levels: map[energy.Mode]domain.Variant{energy.Maintenance: {Text: "Sit down"}},
	})
	if err != nil || added.ID != "cafe-time-abc123" {
		t.Fatalf("unexpected habit id %q err=%v", added.ID, err)
	}
}

func TestUpdateProfileRecordsChangedFieldsOnly(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	recorder := &fakeRecorder{}
	store := newStore(t, kv.NewMemoryStore(), recorder)
	name, goal := "Ada", "Run a 10k"
	if err := store.UpdateProfile(ctx, domain.ProfilePatch{Name: &name, Goal: &goal}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := store.UpdateProfile(ctx, domain.ProfilePatch{Name: &name}); err != nil {
		t.Fatalf("repeat update: %v", err)
	}
	if len(recorder.events) != 1 {
		t.Fatalf("unchanged patch must not record, got %d events", len(recorder.events))
	}
	update := recorder.events[0].(analyticsdomain.ProfileUpdate)
	if *update.Name != "Ada" || *update.Goal != "Run a 10k" || update.Archetype != nil {
		t.Fatalf("unexpected profile payload: %+v", update)
	}
}

func TestSubscribersSeeCallOrderAndCanUnsubscribe(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newStore(t, kv.NewMemoryStore(), &fakeRecorder{})
	var seen []int
	unsubscribe := store.Subscribe(func(state domain.State) {
		if state.Today.EnergyLevel != nil {
			seen = append(seen, *state.Today.EnergyLevel)
		}
	})
	for _, level := range []int{10, 50, 90} {
		if _, err := store.CheckIn(ctx, level, nil, ""); err != nil {
			t.Fatalf("check-in: %v", err)
		}
	}
	unsubscribe()
	if _, err := store.CheckIn(ctx, 30, nil, ""); err != nil {
		t.Fatalf("check-in: %v", err)
	}
	if len(seen) != 3 || seen[0] != 10 || seen[2] != 90 {
		t.Fatalf("unexpected notifications: %v", seen)
	}
}

func TestResetAllRestoresDefaults(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newStore(t, kv.NewMemoryStore(), &fakeRecorder{})
	name := "Ada"
	if err := store.UpdateProfile(ctx, domain.ProfilePatch{Name: &name}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := store.RemoveHabit(ctx, "h_seed_01"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := store.ResetAll(ctx); err != nil {
		t.Fatalf("reset all: %v", err)
	}
	state := store.State()
	if state.Profile.Name != "" || len(state.Habits) != 3 {
		t.Fatalf("expected defaults, got %+v", state)
	}
}

type blockingJournal struct {
	entered chan struct{}
	release chan struct{}
}

func (j *blockingJournal) SaveDay(context.Context, domain.DayEntry) (string, error) {
	close(j.entered)
	<-j.release
	return "/journal/2026-03-02.md", nil
}

func TestResetDayJournalDoesNotBlockReaders(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	journal := &blockingJournal{entered: make(chan struct{}), release: make(chan struct{})}
	store := newStore(t, kv.NewMemoryStore(), &fakeRecorder{}, service.WithJournal(journal))
	if _, err := store.CheckIn(ctx, 55, nil, ""); err != nil {
		t.Fatalf("check-in: %v", err)
	}

	reset := make(chan error, 1)
	go func() { reset <- store.ResetDay(ctx) }()
	<-journal.entered

	read := make(chan domain.State, 1)
	go func() { read <- store.State() }()
	select {
	case state := <-read:
		if !state.Today.CheckedIn() {
			t.Fatalf("day must not be reset before its journal entry is written")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("State blocked while the journal was being written")
	}

	close(journal.release)
	if err := <-reset; err != nil {
		t.Fatalf("reset day: %v", err)
	}
	if store.State().Today.CheckedIn() {
		t.Fatalf("expected a fresh day after reset")
	}
}
