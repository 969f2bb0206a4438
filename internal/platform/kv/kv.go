// Package kv is the durable key-value backend shared by the tracker state and
// the analytics log. Keys are flat names; callers own disjoint key sets.
package kv

import (
	"context"
	"fmt"
	"strings"
)

// Store is the minimal storage contract. A missing key is reported through ok=false,
// never through an error.
type Store interface {
	GetItem(ctx context.Context, key string) (value string, ok bool, err error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
}

func validateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("kv key is required")
	}
	if strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return fmt.Errorf("kv key %q contains path characters", key)
	}
	return nil
}

// CorruptSuffix names the key a damaged blob is moved to.
const CorruptSuffix = ".corrupt"

// Quarantine copies an unreadable blob to key+CorruptSuffix and removes the
// original so the next load starts from defaults.
func Quarantine(ctx context.Context, store Store, key, raw string) error {
	if err := store.SetItem(ctx, key+CorruptSuffix, raw); err != nil {
		return fmt.Errorf("quarantine %s: %w", key, err)
	}
	if err := store.RemoveItem(ctx, key); err != nil {
		return fmt.Errorf("remove corrupt %s: %w", key, err)
	}
	return nil
}
