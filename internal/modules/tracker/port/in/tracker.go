package in

import (
	"context"

	"flux/internal/modules/tracker/dto"
)

type Usecase interface {
	CheckIn(ctx context.Context, input dto.CheckInInput) (dto.CheckInOutput, error)
	CheckInWithAnalysis(ctx context.Context, input dto.AnalysisCheckInInput) (dto.CheckInOutput, error)
	Override(ctx context.Context, mode string) (dto.DayOutput, error)
	Preview(level int, tags []string) dto.CheckInOutput
	AddHabit(ctx context.Context, input dto.AddHabitInput) (dto.HabitOutput, error)
	RemoveHabit(ctx context.Context, habitID string) error
	CompleteHabit(ctx context.Context, habitID string) (dto.DayOutput, error)
	UpdateProfile(ctx context.Context, input dto.ProfileInput) (dto.ProfileOutput, error)
	ResetDay(ctx context.Context) (dto.DayOutput, error)
	ResetAll(ctx context.Context) error
	Snapshot(ctx context.Context) (dto.StateOutput, error)
	// Subscribe registers fn for every state change and returns its cancel func.
	Subscribe(fn func(dto.StateOutput)) func()
}
