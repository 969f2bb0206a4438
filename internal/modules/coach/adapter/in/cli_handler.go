package in

import (
	"context"

	"flux/internal/modules/coach/dto"
	coachin "flux/internal/modules/coach/port/in"
)

type CLIHandler struct {
	usecase coachin.Usecase
}

func NewCLIHandler(usecase coachin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) CheckIn(ctx context.Context, level int, tags []string, note string) (dto.CheckInOutput, error) {
	return h.usecase.CheckIn(ctx, dto.CheckInInput{Level: level, Tags: tags, Note: note})
}

func (h CLIHandler) Tip(ctx context.Context, habitID string) (dto.TipOutput, error) {
	return h.usecase.Tip(ctx, habitID)
}

func (h CLIHandler) DailySummary(ctx context.Context) (dto.SummaryOutput, error) {
	return h.usecase.DailySummary(ctx)
}

// Enabled reports whether an analysis provider is configured.
func (h CLIHandler) Enabled() bool {
	return h.usecase.Enabled()
}
