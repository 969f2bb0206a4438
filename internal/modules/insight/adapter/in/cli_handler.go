package in

import (
	"context"

	"flux/internal/modules/insight/dto"
	insightin "flux/internal/modules/insight/port/in"
)

type CLIHandler struct {
	usecase insightin.Usecase
}

func NewCLIHandler(usecase insightin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Forecast(ctx context.Context) (*dto.ForecastOutput, error) {
	return h.usecase.Forecast(ctx)
}

func (h CLIHandler) WeeklyReport(ctx context.Context) (dto.ReportOutput, error) {
	return h.usecase.WeeklyReport(ctx)
}

func (h CLIHandler) Overview(ctx context.Context) (dto.OverviewOutput, error) {
	return h.usecase.Overview(ctx)
}

func (h CLIHandler) ExportWeekly(ctx context.Context, path string) (dto.ExportOutput, error) {
	return h.usecase.ExportWeekly(ctx, dto.ExportInput{Path: path})
}
