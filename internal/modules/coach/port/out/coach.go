package out

import (
	"context"

	"flux/internal/modules/coach/domain"
)

// Provider is an external classifier and coach. Any error makes the caller
// fall back to the heuristic path.
type Provider interface {
	Analyze(ctx context.Context, request domain.AnalysisRequest) (domain.Analysis, error)
	MicroCoach(ctx context.Context, habitTitle string, level int) (string, error)
	DailySummary(ctx context.Context, day domain.DaySummary, history string) (string, error)
}

// HistorySource renders recent check-ins as conversational memory.
type HistorySource interface {
	RecentContext(windowDays int) string
}
