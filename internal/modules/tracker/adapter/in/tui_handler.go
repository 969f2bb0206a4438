package in

import (
	"context"

	"flux/internal/modules/tracker/dto"
	trackerin "flux/internal/modules/tracker/port/in"
)

// TUIHandler exposes the interactive subset of the tracker, including the
// live preview the check-in slider renders on every keystroke.
type TUIHandler struct {
	usecase trackerin.Usecase
}

func NewTUIHandler(usecase trackerin.Usecase) TUIHandler {
	return TUIHandler{usecase: usecase}
}

func (h TUIHandler) Preview(level int) dto.CheckInOutput {
	return h.usecase.Preview(level, nil)
}

func (h TUIHandler) CheckIn(ctx context.Context, level int) (dto.CheckInOutput, error) {
	return h.usecase.CheckIn(ctx, dto.CheckInInput{Level: level})
}

func (h TUIHandler) Override(ctx context.Context, mode string) (dto.DayOutput, error) {
	return h.usecase.Override(ctx, mode)
}

func (h TUIHandler) CompleteHabit(ctx context.Context, habitID string) (dto.DayOutput, error) {
	return h.usecase.CompleteHabit(ctx, habitID)
}

func (h TUIHandler) ResetDay(ctx context.Context) (dto.DayOutput, error) {
	return h.usecase.ResetDay(ctx)
}

func (h TUIHandler) Snapshot(ctx context.Context) (dto.StateOutput, error) {
	return h.usecase.Snapshot(ctx)
}

func (h TUIHandler) Subscribe(fn func(dto.StateOutput)) func() {
	return h.usecase.Subscribe(fn)
}
