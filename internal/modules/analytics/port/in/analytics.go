package in

import (
	"context"

	"flux/internal/modules/analytics/dto"
)

type Usecase interface {
	List(ctx context.Context, input dto.ListInput) ([]dto.EventOutput, error)
	HabitHistory(ctx context.Context, input dto.HistoryInput) ([]dto.EventOutput, error)
	RecentContext(ctx context.Context, windowDays int) (string, error)
	Export(ctx context.Context) ([]byte, error)
	Clear(ctx context.Context) error
}
