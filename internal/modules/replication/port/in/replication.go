package in

import (
	"context"

	"flux/internal/modules/replication/dto"
)

type Usecase interface {
	Start(ctx context.Context)
	// Enqueue never blocks; false means the record was dropped.
	Enqueue(record dto.Record) bool
	// Submit waits for queue space.
	Submit(ctx context.Context, record dto.Record) error
	Stats() dto.StatsOutput
	// Close flushes what is queued, then stops the worker.
	Close(ctx context.Context) error
}
