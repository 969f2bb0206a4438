package usecase

import (
	"context"

	"flux/internal/modules/coach/dto"
	coachin "flux/internal/modules/coach/port/in"
	"flux/internal/modules/coach/service"
)

type Interactor struct {
	coach *service.Coach
}

func NewInteractor(coach *service.Coach) coachin.Usecase {
	return &Interactor{coach: coach}
}

func (i *Interactor) CheckIn(ctx context.Context, input dto.CheckInInput) (dto.CheckInOutput, error) {
	out, source, err := i.coach.CheckIn(ctx, input.Level, input.Tags, input.Note)
	return dto.CheckInOutput{CheckInOutput: out, Source: string(source)}, err
}

func (i *Interactor) Tip(ctx context.Context, habitID string) (dto.TipOutput, error) {
	tip, err := i.coach.Tip(ctx, habitID)
	if err != nil {
		return dto.TipOutput{}, err
	}
	return dto.TipOutput{HabitID: tip.HabitID, Mode: tip.Mode, Tip: tip.Text, Source: string(tip.Source), Cached: tip.Cached}, nil
}

func (i *Interactor) DailySummary(ctx context.Context) (dto.SummaryOutput, error) {
	summary, err := i.coach.DailySummary(ctx)
	if err != nil {
		return dto.SummaryOutput{}, err
	}
	return dto.SummaryOutput{Date: summary.Date, Summary: summary.Text, Source: string(summary.Source)}, nil
}

func (i *Interactor) Enabled() bool {
	return i.coach.Enabled()
}
