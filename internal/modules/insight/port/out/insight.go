package out

import (
	"context"

	analyticsdomain "flux/internal/modules/analytics/domain"
	"flux/internal/modules/insight/domain"
)

// EventSource is the read side of the analytics log.
type EventSource interface {
	All() []analyticsdomain.Event
}

type ReportStore interface {
	SaveWeekly(ctx context.Context, report domain.Report, path string) (string, error)
}
