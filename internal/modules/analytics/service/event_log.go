package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"flux/internal/modules/analytics/domain"
	analyticsout "flux/internal/modules/analytics/port/out"
	"flux/internal/platform/clock"
	apperrors "flux/internal/platform/errors"
	"flux/internal/platform/id"
	"flux/internal/platform/metrics"
)

// EventLog is the append-only record every analytics read-path queries.
// The full log is held in memory and written back as one blob on each append.
type EventLog struct {
	mu         sync.Mutex
	store      analyticsout.EventStore
	clock      clock.Clock
	ids        id.Generator
	logger     *zap.Logger
	metrics    *metrics.Metrics
	replicator analyticsout.Replicator
	location   *time.Location

	events []domain.Event
	// persisted counts the prefix of events known to be durable.
	persisted int
}

type Option func(*EventLog)

func WithLogger(logger *zap.Logger) Option {
	return func(l *EventLog) {
		if logger != nil {
			l.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(l *EventLog) { l.metrics = m }
}

func WithReplicator(r analyticsout.Replicator) Option {
	return func(l *EventLog) { l.replicator = r }
}

// WithLocation sets the zone used to render dates in RecentContext.
func WithLocation(loc *time.Location) Option {
	return func(l *EventLog) {
		if loc != nil {
			l.location = loc
		}
	}
}

func NewEventLog(store analyticsout.EventStore, clock clock.Clock, ids id.Generator, opts ...Option) *EventLog {
	l := &EventLog{
		store:    store,
		clock:    clock,
		ids:      ids,
		logger:   zap.NewNop(),
		location: time.UTC,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reconciles memory with the stored log. The store read and the swap
// happen under the same lock as Append, so no append can fall between them.
// Events held here but missing from a non-empty blob (another process saved
// over them) are kept and written back. An empty or missing blob is a reset
// and wins over events already persisted; unsaved appends survive either way.
func (l *EventLog) Load(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	stored, err := l.store.Load(ctx)
	if err != nil {
		if !errors.Is(err, apperrors.ErrCorruptData) {
			return err
		}
		l.logger.Error("event log corrupt, starting empty", zap.Error(err))
		stored = nil
	}
	if sameIDs(stored, l.events) {
		l.persisted = len(l.events)
		return nil
	}

	known := make(map[string]struct{}, len(stored))
	for _, event := range stored {
		known[event.ID] = struct{}{}
	}
	var kept, unsaved []domain.Event
	for i, event := range l.events {
		if _, ok := known[event.ID]; ok {
			continue
		}
		if i >= l.persisted {
			unsaved = append(unsaved, event)
			kept = append(kept, event)
		} else if len(stored) > 0 {
			kept = append(kept, event)
		}
	}
	l.events = append(stored, kept...)
	l.persisted = len(stored)
	l.logger.Debug("event log loaded", zap.Int("events", len(l.events)), zap.Int("kept", len(kept)))
	if len(kept) == 0 {
		return nil
	}
	if err := l.store.Save(ctx, l.events); err != nil {
		l.logger.Warn("kept events not written back", zap.Int("kept", len(kept)), zap.Error(err))
		return nil
	}
	l.persisted = len(l.events)
	l.enqueue(unsaved)
	return nil
}

func sameIDs(a, b []domain.Event) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			return false
		}
	}
	return true
}

// Append stores a new event and returns it. On a save failure the event is
// still kept in memory and the error wraps ErrPersistence.
func (l *EventLog) Append(ctx context.Context, payload domain.Payload) (domain.Event, error) {
	event, err := domain.NewEvent(l.ids.New(), l.clock.Now(), payload)
	if err != nil {
		return domain.Event{}, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
	l.metrics.EventAppended(string(event.Type))
	if err := l.store.Save(ctx, l.events); err != nil {
		l.logger.Warn("event not persisted",
			zap.String("event_id", event.ID),
			zap.String("type", string(event.Type)),
			zap.Int("unsaved", len(l.events)-l.persisted),
			zap.Error(err))
		return event, fmt.Errorf("%w: append %s: %v", apperrors.ErrPersistence, event.Type, err)
	}
	l.flushReplication()
	return event, nil
}

func (l *EventLog) flushReplication() {
	pending := l.events[l.persisted:]
	l.persisted = len(l.events)
	l.enqueue(pending)
}

func (l *EventLog) enqueue(events []domain.Event) {
	if l.replicator == nil {
		return
	}
	for _, event := range events {
		if !l.replicator.Enqueue(event) {
			l.logger.Warn("replication queue full", zap.String("event_id", event.ID))
		}
	}
}

func (l *EventLog) All() []domain.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.Event(nil), l.events...)
}

func (l *EventLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}

func (l *EventLog) Query(match func(domain.Event) bool) []domain.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := []domain.Event{}
	for _, event := range l.events {
		if match(event) {
			out = append(out, event)
		}
	}
	return out
}

// HabitHistory returns the completions of habitID, newest first. Insertion
// order is the chronology; timestamps may repeat or step backwards.
func (l *EventLog) HabitHistory(habitID string) []domain.Event {
	return l.newestFirst(func(e domain.Event) bool {
		completion, ok := e.Completion()
		return ok && completion.HabitID == habitID
	})
}

func (l *EventLog) newestFirst(match func(domain.Event) bool) []domain.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := []domain.Event{}
	for i := len(l.events) - 1; i >= 0; i-- {
		if match(l.events[i]) {
			out = append(out, l.events[i])
		}
	}
	return out
}

// ChainData returns at most n of the latest completions for habitID.
func (l *EventLog) ChainData(habitID string, n int) []domain.Event {
	history := l.HabitHistory(habitID)
	if n >= 0 && len(history) > n {
		history = history[:n]
	}
	return history
}

// RecentContext renders the check-ins of the trailing windowDays days,
// newest first, one line each. The output only depends on the events and
// the configured location.
func (l *EventLog) RecentContext(windowDays int) string {
	if windowDays <= 0 {
		return ""
	}
	cutoff := l.clock.Now().Add(-time.Duration(windowDays) * 24 * time.Hour).UnixMilli()
	checkIns := l.newestFirst(func(e domain.Event) bool {
		return e.Timestamp >= cutoff && domain.IsCheckIn(e)
	})
	lines := make([]string, 0, len(checkIns))
	for _, event := range checkIns {
		checkIn, _ := event.CheckIn()
		line := fmt.Sprintf("%s level=%d context=%s",
			event.Time().In(l.location).Format("2006-01-02 15:04"), checkIn.Level, checkIn.Context)
		if len(checkIn.Tags) > 0 {
			line += " tags=" + strings.Join(checkIn.Tags, ",")
		}
		if note := strings.TrimSpace(checkIn.Note); note != "" {
			line += fmt.Sprintf(" note=%q", note)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (l *EventLog) Export() ([]byte, error) {
	events := l.All()
	if events == nil {
		events = []domain.Event{}
	}
	raw, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export events: %w", err)
	}
	return raw, nil
}

// Clear erases the whole log. Only full data resets call it.
func (l *EventLog) Clear(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = nil
	l.persisted = 0
	if err := l.store.Clear(ctx); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
	l.logger.Info("event log cleared")
	return nil
}
