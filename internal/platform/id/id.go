package id

import (
	"github.com/google/uuid"
	"github.com/lithammer/shortuuid/v4"
)

// Generator creates opaque identifiers.
type Generator interface {
	New() string
}

// UUID yields random (v4) UUIDs; safe for many ids within the same millisecond.
type UUID struct{}

func (UUID) New() string {
	return uuid.NewString()
}

// Short yields base57 short UUIDs, used where ids end up in user-facing commands.
type Short struct{}

func (Short) New() string {
	return shortuuid.New()
}
