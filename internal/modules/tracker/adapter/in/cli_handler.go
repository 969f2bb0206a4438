package in

import (
	"context"

	"flux/internal/modules/tracker/dto"
	trackerin "flux/internal/modules/tracker/port/in"
)

type CLIHandler struct {
	usecase trackerin.Usecase
}

func NewCLIHandler(usecase trackerin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) CheckIn(ctx context.Context, level int, tags []string, note string) (dto.CheckInOutput, error) {
	return h.usecase.CheckIn(ctx, dto.CheckInInput{Level: level, Tags: tags, Note: note})
}

func (h CLIHandler) Override(ctx context.Context, mode string) (dto.DayOutput, error) {
	return h.usecase.Override(ctx, mode)
}

func (h CLIHandler) AddHabit(ctx context.Context, input dto.AddHabitInput) (dto.HabitOutput, error) {
	return h.usecase.AddHabit(ctx, input)
}

func (h CLIHandler) RemoveHabit(ctx context.Context, habitID string) error {
	return h.usecase.RemoveHabit(ctx, habitID)
}

func (h CLIHandler) CompleteHabit(ctx context.Context, habitID string) (dto.DayOutput, error) {
	return h.usecase.CompleteHabit(ctx, habitID)
}

func (h CLIHandler) UpdateProfile(ctx context.Context, input dto.ProfileInput) (dto.ProfileOutput, error) {
	return h.usecase.UpdateProfile(ctx, input)
}

func (h CLIHandler) ResetDay(ctx context.Context) (dto.DayOutput, error) {
	return h.usecase.ResetDay(ctx)
}

func (h CLIHandler) ResetAll(ctx context.Context) error {
	return h.usecase.ResetAll(ctx)
}

func (h CLIHandler) Snapshot(ctx context.Context) (dto.StateOutput, error) {
	return h.usecase.Snapshot(ctx)
}
