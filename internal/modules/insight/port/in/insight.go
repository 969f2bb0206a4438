package in

import (
	"context"

	"flux/internal/modules/insight/dto"
)

type Usecase interface {
	Forecast(ctx context.Context) (*dto.ForecastOutput, error)
	WeeklyReport(ctx context.Context) (dto.ReportOutput, error)
	Overview(ctx context.Context) (dto.OverviewOutput, error)
	ExportWeekly(ctx context.Context, input dto.ExportInput) (dto.ExportOutput, error)
}
