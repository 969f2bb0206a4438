package out

import (
	"context"
	"encoding/json"
	"fmt"

	"flux/internal/modules/tracker/domain"
	trackerout "flux/internal/modules/tracker/port/out"
	apperrors "flux/internal/platform/errors"
	"flux/internal/platform/kv"
)

const StateKey = "state"

type KVStateStore struct {
	store kv.Store
	key   string
}

func NewKVStateStore(store kv.Store) trackerout.StateStore {
	return &KVStateStore{store: store, key: StateKey}
}

func (s *KVStateStore) Load(ctx context.Context, defaults domain.State) (domain.State, bool, error) {
	raw, ok, err := s.store.GetItem(ctx, s.key)
	if err != nil {
		return domain.State{}, false, fmt.Errorf("%w: load state: %v", apperrors.ErrPersistence, err)
	}
	if !ok {
		return defaults, false, nil
	}
	state, err := domain.DecodeState([]byte(raw), defaults)
	if err != nil {
		if qerr := kv.Quarantine(ctx, s.store, s.key, raw); qerr != nil {
			return domain.State{}, true, fmt.Errorf("%w: %v (%v)", apperrors.ErrCorruptData, err, qerr)
		}
		return domain.State{}, true, fmt.Errorf("%w: %v", apperrors.ErrCorruptData, err)
	}
	return state, true, nil
}

func (s *KVStateStore) Save(ctx context.Context, state domain.State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := s.store.SetItem(ctx, s.key, string(raw)); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}
