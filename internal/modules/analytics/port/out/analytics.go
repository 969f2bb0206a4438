package out

import (
	"context"

	"flux/internal/modules/analytics/domain"
)

// EventStore persists the whole log as one blob.
type EventStore interface {
	Load(ctx context.Context) ([]domain.Event, error)
	Save(ctx context.Context, events []domain.Event) error
	Clear(ctx context.Context) error
}

// Replicator receives every event once it is durable locally. Enqueue must
// not block.
type Replicator interface {
	Enqueue(event domain.Event) bool
}
