package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	analyticsdomain "flux/internal/modules/analytics/domain"
	energy "flux/internal/modules/energy/domain"
	"flux/internal/modules/tracker/domain"
	trackerout "flux/internal/modules/tracker/port/out"
	"flux/internal/platform/clock"
	apperrors "flux/internal/platform/errors"
	"flux/internal/platform/id"
	"flux/internal/platform/metrics"
	"flux/internal/platform/slug"
)

const fallbackPrefix = "fallback: "

// Listener receives a private copy of the state after every mutation. It
// must not call back into the store synchronously.
type Listener func(domain.State)

type listenerEntry struct {
	id int
	fn Listener
}

// Store is the only writer of the tracker state. Actions are serialized;
// each one mutates memory, saves the state blob, records its event and then
// notifies listeners in registration order.
type Store struct {
	actionMu sync.Mutex

	mu        sync.RWMutex
	state     domain.State
	listeners []listenerEntry
	nextID    int

	classifier energy.Classifier
	states     trackerout.StateStore
	events     trackerout.EventRecorder
	journal    trackerout.JournalStore
	clock      clock.Clock
	ids        id.Generator
	location   *time.Location
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

type Option func(*Store)

func WithJournal(journal trackerout.JournalStore) Option {
	return func(s *Store) { s.journal = journal }
}

func WithLocation(loc *time.Location) Option {
	return func(s *Store) {
		if loc != nil {
			s.location = loc
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

func NewStore(states trackerout.StateStore, events trackerout.EventRecorder, classifier energy.Classifier, clock clock.Clock, ids id.Generator, opts ...Option) *Store {
	s := &Store{
		classifier: classifier,
		states:     states,
		events:     events,
		clock:      clock,
		ids:        ids,
		location:   time.UTC,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.state = domain.DefaultState(s.today())
	return s
}

func (s *Store) today() string {
	return clock.DateStamp(s.clock.Now(), s.location)
}

// Load reads the persisted state over defaults. A corrupt blob has been
// quarantined by the state store and defaults are kept.
func (s *Store) Load(ctx context.Context) error {
	s.actionMu.Lock()
	defer s.actionMu.Unlock()
	defaults := domain.DefaultState(s.today())
	state, found, err := s.states.Load(ctx, defaults)
	switch {
	case errors.Is(err, apperrors.ErrCorruptData):
		s.logger.Error("state corrupt, using defaults", zap.Error(err))
		state = defaults
	case err != nil:
		return err
	case !found:
		state = defaults
	}
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	s.logger.Debug("state loaded", zap.Bool("found", found), zap.Int("habits", len(state.Habits)))
	return nil
}

// Reload re-reads the stored state after an external write and notifies
// listeners. Last write wins.
func (s *Store) Reload(ctx context.Context) error {
	if err := s.Load(ctx); err != nil {
		return err
	}
	s.actionMu.Lock()
	defer s.actionMu.Unlock()
	s.notify(s.State())
	return nil
}

// State returns a copy of the current state.
func (s *Store) State() domain.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

func (s *Store) Classifier() energy.Classifier {
	return s.classifier
}

// Subscribe registers fn and returns a func that removes it.
func (s *Store) Subscribe(fn Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	entryID := s.nextID
	s.listeners = append(s.listeners, listenerEntry{id: entryID, fn: fn})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, entry := range s.listeners {
			if entry.id == entryID {
				s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

func (s *Store) notify(state domain.State) {
	s.mu.RLock()
	listeners := append([]listenerEntry(nil), s.listeners...)
	s.mu.RUnlock()
	for _, entry := range listeners {
		entry.fn(state.Clone())
	}
}

// change is what a mutation reports back to commit.
type change struct {
	noop  bool
	event analyticsdomain.Payload
	extra error
}

// commit runs one action. Persistence failures are returned joined, after
// the in-memory change and the notification have happened.
func (s *Store) commit(ctx context.Context, action string, mutate func(state *domain.State) change) error {
	return s.commitAfter(ctx, action, nil, mutate)
}

// commitAfter runs before on a snapshot ahead of mutate. before may do slow
// I/O: it holds only actionMu, so State readers are not blocked, and no other
// action can change the state it saw.
func (s *Store) commitAfter(ctx context.Context, action string, before func(state domain.State) error, mutate func(state *domain.State) change) error {
	s.actionMu.Lock()
	defer s.actionMu.Unlock()

	var beforeErr error
	if before != nil {
		beforeErr = before(s.State())
	}

	s.mu.Lock()
	c := mutate(&s.state)
	if c.extra == nil {
		c.extra = beforeErr
	} else if beforeErr != nil {
		c.extra = errors.Join(beforeErr, c.extra)
	}
	if c.noop {
		s.mu.Unlock()
		return nil
	}
	snapshot := s.state.Clone()
	s.mu.Unlock()

	var errs []error
	if c.extra != nil {
		errs = append(errs, c.extra)
	}
	if err := s.states.Save(ctx, snapshot); err != nil {
		s.logger.Warn("state not persisted", zap.String("action", action), zap.Error(err))
		errs = append(errs, fmt.Errorf("%w: %s: %v", apperrors.ErrPersistence, action, err))
	}
	if c.event != nil {
		if _, err := s.events.Append(ctx, c.event); err != nil {
			s.logger.Warn("event not recorded", zap.String("action", action), zap.Error(err))
			errs = append(errs, err)
		}
	}
	s.notify(snapshot)
	return errors.Join(errs...)
}

// normalizeLevel clamps level into [0,100] and reports whether it was valid.
func normalizeLevel(level int) (int, bool) {
	switch {
	case level < energy.MinLevel:
		return energy.MinLevel, false
	case level > energy.MaxLevel:
		return energy.MaxLevel, false
	default:
		return level, true
	}
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := map[string]bool{}
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		key := strings.ToLower(tag)
		if tag == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, tag)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// CheckIn resolves the mode with the heuristic classifier. It always
// completes; an out-of-range level is clamped and resolves to maintenance.
func (s *Store) CheckIn(ctx context.Context, level int, tags []string, note string) (energy.Mode, error) {
	stored, valid := normalizeLevel(level)
	mode := s.classifier.Classify(float64(level), tags...)
	if !valid {
		s.logger.Warn("energy level out of range", zap.Int("level", level), zap.Int("stored", stored))
	}
	tags = cleanTags(tags)
	note = strings.TrimSpace(note)
	err := s.commit(ctx, "check-in", func(state *domain.State) change {
		state.Today.SetEnergy(stored, mode)
		state.Today.Note = note
		state.Today.AIReasoning = ""
		return change{event: analyticsdomain.EnergyCheckIn{Level: stored, Context: mode, Tags: tags, Note: note}}
	})
	s.metrics.CheckIn(string(mode), "heuristic")
	return mode, err
}

// CheckInWithAnalysis takes the mode from an external analysis. An unknown
// context resolves to maintenance and the reasoning is marked as a fallback.
func (s *Store) CheckInWithAnalysis(ctx context.Context, level int, analysis domain.Analysis, tags []string, note string) (energy.Mode, error) {
	stored, valid := normalizeLevel(level)
	reasoning := strings.TrimSpace(analysis.Reasoning)
	source := "ai"
	mode, err := energy.ParseMode(analysis.Context)
	if err != nil || !valid {
		s.logger.Warn("external analysis rejected",
			zap.String("context", analysis.Context), zap.Int("level", level), zap.Bool("level_valid", valid))
		mode = energy.Maintenance
		reasoning = fallbackPrefix + reasoning
		source = "fallback"
	}
	tip := strings.TrimSpace(analysis.ActionableTip)
	tags = cleanTags(tags)
	note = strings.TrimSpace(note)
	commitErr := s.commit(ctx, "neural check-in", func(state *domain.State) change {
		state.Today.SetEnergy(stored, mode)
		state.Today.Note = note
		state.Today.AIReasoning = reasoning
		return change{event: analyticsdomain.NeuralCheckIn{
			Level: stored, Context: mode, Reasoning: reasoning, Tip: tip, Tags: tags, Note: note,
		}}
	})
	s.metrics.CheckIn(string(mode), source)
	return mode, commitErr
}

// OverrideContext forces mode for the day. Without a prior check-in the level
// is set to the middle of the forced band so level and context stay paired.
func (s *Store) OverrideContext(ctx context.Context, mode energy.Mode) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: unknown mode %q", apperrors.ErrInvalidInput, mode)
	}
	return s.commit(ctx, "override", func(state *domain.State) change {
		var previous *int
		level := s.bandMidpoint(mode)
		if state.Today.EnergyLevel != nil {
			current := *state.Today.EnergyLevel
			previous = &current
			level = current
		}
		state.Today.SetEnergy(level, mode)
		return change{event: analyticsdomain.ContextOverride{Context: mode, Level: previous}}
	})
}

func (s *Store) bandMidpoint(mode energy.Mode) int {
	b := s.classifier.Banding()
	switch mode {
	case energy.Survival:
		return int(b.SurvivalMax / 2)
	case energy.Expansion:
		return int((b.ExpansionMin + energy.MaxLevel) / 2)
	default:
		return int((b.SurvivalMax + b.ExpansionMin) / 2)
	}
}

// AddHabit stores def under a freshly generated id and returns the stored copy.
func (s *Store) AddHabit(ctx context.Context, def domain.HabitDefinition) (domain.HabitDefinition, error) {
	def.Title = strings.TrimSpace(def.Title)
	if err := def.Validate(); err != nil {
		return domain.HabitDefinition{}, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}
	def = def.Clone()
	def.ID = slug.Make(def.Title) + "-" + s.ids.New()
	err := s.commit(ctx, "add habit", func(state *domain.State) change {
		state.Habits = append(state.Habits, def)
		return change{}
	})
	s.logger.Info("habit added", zap.String("habit_id", def.ID))
	return def.Clone(), err
}

// RemoveHabit is a silent no-op for unknown ids.
func (s *Store) RemoveHabit(ctx context.Context, habitID string) error {
	return s.commit(ctx, "remove habit", func(state *domain.State) change {
		for i, habit := range state.Habits {
			if habit.ID == habitID {
				state.Habits = append(state.Habits[:i], state.Habits[i+1:]...)
				return change{}
			}
		}
		return change{noop: true}
	})
}

// CompleteHabit is idempotent per day: a repeat call records nothing.
func (s *Store) CompleteHabit(ctx context.Context, habitID string) error {
	habitID = strings.TrimSpace(habitID)
	if habitID == "" {
		return fmt.Errorf("%w: habit id is required", apperrors.ErrInvalidInput)
	}
	return s.commit(ctx, "complete habit", func(state *domain.State) change {
		if state.Today.HasCompleted(habitID) {
			return change{noop: true}
		}
		state.Today.CompletedHabits = append(state.Today.CompletedHabits, habitID)
		var level *int
		if state.Today.EnergyLevel != nil {
			current := *state.Today.EnergyLevel
			level = &current
		}
		return change{event: analyticsdomain.HabitCompleted{
			HabitID: habitID, EnergyLevel: level, ContextUsed: state.Today.Mode(),
		}}
	})
}

// UpdateProfile merges patch and records only the fields that changed.
func (s *Store) UpdateProfile(ctx context.Context, patch domain.ProfilePatch) error {
	return s.commit(ctx, "update profile", func(state *domain.State) change {
		changed := patch.Apply(&state.Profile)
		if changed.Empty() {
			return change{}
		}
		return change{event: profileEvent(changed)}
	})
}

func profileEvent(changed domain.ProfilePatch) analyticsdomain.ProfileUpdate {
	event := analyticsdomain.ProfileUpdate{
		Name:                changed.Name,
		Archetype:           changed.Archetype,
		Chronotype:          changed.Chronotype,
		Goal:                changed.Goal,
		OnboardingCompleted: changed.OnboardingCompleted,
	}
	if changed.RemoteAccount != nil {
		event.RemoteAccount = &analyticsdomain.AccountRef{ID: changed.RemoteAccount.ID, Email: changed.RemoteAccount.Email}
	}
	return event
}

// ResetDay closes the current day: a checked-in day is written to the journal
// first, then today is replaced by a fresh session. Habits, profile and the
// event log are untouched.
func (s *Store) ResetDay(ctx context.Context) error {
	now := s.clock.Now()
	return s.commitAfter(ctx, "reset day", func(state domain.State) error {
		return s.journalDay(ctx, state, now)
	}, func(state *domain.State) change {
		state.Today = domain.NewDailySession(clock.DateStamp(now, s.location))
		return change{}
	})
}

func (s *Store) journalDay(ctx context.Context, state domain.State, closedAt time.Time) error {
	if s.journal == nil || !state.Today.CheckedIn() {
		return nil
	}
	entry := domain.DayEntry{Session: state.Today, Profile: state.Profile, ClosedAt: closedAt}
	for _, habitID := range state.Today.CompletedHabits {
		if habit, ok := state.Habit(habitID); ok {
			entry.Completed = append(entry.Completed, habit)
		}
	}
	path, err := s.journal.SaveDay(ctx, entry)
	if err != nil {
		s.logger.Warn("day journal not written", zap.String("date", state.Today.Date), zap.Error(err))
		return fmt.Errorf("%w: journal: %v", apperrors.ErrPersistence, err)
	}
	s.logger.Info("day journal written", zap.String("path", path))
	return nil
}

// ResetAll restores the default state. The event log is cleared by the caller.
func (s *Store) ResetAll(ctx context.Context) error {
	date := s.today()
	return s.commit(ctx, "reset all", func(state *domain.State) change {
		*state = domain.DefaultState(date)
		return change{}
	})
}
