package out

import (
	"context"

	analyticsdomain "flux/internal/modules/analytics/domain"
	"flux/internal/modules/tracker/domain"
)

// StateStore persists the state blob. found is false when nothing has been
// stored yet.
type StateStore interface {
	Load(ctx context.Context, defaults domain.State) (state domain.State, found bool, err error)
	Save(ctx context.Context, state domain.State) error
}

// EventRecorder is the write side of the analytics log.
type EventRecorder interface {
	Append(ctx context.Context, payload analyticsdomain.Payload) (analyticsdomain.Event, error)
}

// JournalStore writes the closing note of a day and returns its path.
type JournalStore interface {
	SaveDay(ctx context.Context, entry domain.DayEntry) (string, error)
}
