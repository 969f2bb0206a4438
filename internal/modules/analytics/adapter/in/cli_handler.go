package in

import (
	"context"

	"flux/internal/modules/analytics/dto"
	analyticsin "flux/internal/modules/analytics/port/in"
)

type CLIHandler struct {
	usecase analyticsin.Usecase
}

func NewCLIHandler(usecase analyticsin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) List(ctx context.Context, eventType string, limit int) ([]dto.EventOutput, error) {
	return h.usecase.List(ctx, dto.ListInput{Type: eventType, Limit: limit})
}

func (h CLIHandler) HabitHistory(ctx context.Context, habitID string, limit int) ([]dto.EventOutput, error) {
	return h.usecase.HabitHistory(ctx, dto.HistoryInput{HabitID: habitID, Limit: limit})
}

func (h CLIHandler) RecentContext(ctx context.Context, windowDays int) (string, error) {
	return h.usecase.RecentContext(ctx, windowDays)
}

func (h CLIHandler) Export(ctx context.Context) ([]byte, error) {
	return h.usecase.Export(ctx)
}

func (h CLIHandler) Clear(ctx context.Context) error {
	return h.usecase.Clear(ctx)
}
