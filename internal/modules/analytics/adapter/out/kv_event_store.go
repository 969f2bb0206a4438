package out

import (
	"context"
	"encoding/json"
	"fmt"

	"flux/internal/modules/analytics/domain"
	analyticsout "flux/internal/modules/analytics/port/out"
	apperrors "flux/internal/platform/errors"
	"flux/internal/platform/kv"
)

const EventsKey = "events"

type KVEventStore struct {
	store kv.Store
	key   string
}

func NewKVEventStore(store kv.Store) analyticsout.EventStore {
	return &KVEventStore{store: store, key: EventsKey}
}

// Load returns ErrCorruptData after moving an unreadable blob aside.
func (s *KVEventStore) Load(ctx context.Context) ([]domain.Event, error) {
	raw, ok, err := s.store.GetItem(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("%w: load events: %v", apperrors.ErrPersistence, err)
	}
	if !ok {
		return nil, nil
	}
	events := []domain.Event{}
	if err := json.Unmarshal([]byte(raw), &events); err != nil {
		if qerr := kv.Quarantine(ctx, s.store, s.key, raw); qerr != nil {
			return nil, fmt.Errorf("%w: decode events: %v (%v)", apperrors.ErrCorruptData, err, qerr)
		}
		return nil, fmt.Errorf("%w: decode events: %v", apperrors.ErrCorruptData, err)
	}
	return events, nil
}

func (s *KVEventStore) Save(ctx context.Context, events []domain.Event) error {
	if events == nil {
		events = []domain.Event{}
	}
	raw, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("encode events: %w", err)
	}
	if err := s.store.SetItem(ctx, s.key, string(raw)); err != nil {
		return fmt.Errorf("save events: %w", err)
	}
	return nil
}

func (s *KVEventStore) Clear(ctx context.Context) error {
	if err := s.store.RemoveItem(ctx, s.key); err != nil {
		return fmt.Errorf("clear events: %w", err)
	}
	return nil
}
