package out

import (
	"context"

	"flux/internal/modules/replication/domain"
)

// Sink receives batches of records. Push must be idempotent per record id:
// a retried batch may contain records the sink already accepted.
type Sink interface {
	Name() string
	Push(ctx context.Context, records []domain.Record) error
	Close() error
}
