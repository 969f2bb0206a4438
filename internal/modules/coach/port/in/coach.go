package in

import (
	"context"

	"flux/internal/modules/coach/dto"
)

type Usecase interface {
	CheckIn(ctx context.Context, input dto.CheckInInput) (dto.CheckInOutput, error)
	Tip(ctx context.Context, habitID string) (dto.TipOutput, error)
	DailySummary(ctx context.Context) (dto.SummaryOutput, error)
	Enabled() bool
}
