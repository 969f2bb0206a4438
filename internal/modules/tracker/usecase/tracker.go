package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	analyticsin "flux/internal/modules/analytics/port/in"
	energy "flux/internal/modules/energy/domain"
	"flux/internal/modules/tracker/domain"
	"flux/internal/modules/tracker/dto"
	trackerin "flux/internal/modules/tracker/port/in"
	"flux/internal/modules/tracker/service"
	apperrors "flux/internal/platform/errors"
)

type Interactor struct {
	store  *service.Store
	events analyticsin.Usecase
}

func NewInteractor(store *service.Store, events analyticsin.Usecase) trackerin.Usecase {
	return &Interactor{store: store, events: events}
}

func (i *Interactor) CheckIn(ctx context.Context, input dto.CheckInInput) (dto.CheckInOutput, error) {
	_, err := i.store.CheckIn(ctx, input.Level, input.Tags, input.Note)
	return checkInOutput(i.store.State().Today, ""), err
}

func (i *Interactor) CheckInWithAnalysis(ctx context.Context, input dto.AnalysisCheckInInput) (dto.CheckInOutput, error) {
	analysis := domain.Analysis{Context: input.Context, Reasoning: input.Reasoning, ActionableTip: input.ActionableTip}
	_, err := i.store.CheckInWithAnalysis(ctx, input.Level, analysis, input.Tags, input.Note)
	return checkInOutput(i.store.State().Today, strings.TrimSpace(input.ActionableTip)), err
}

func (i *Interactor) Override(ctx context.Context, mode string) (dto.DayOutput, error) {
	parsed, err := energy.ParseMode(mode)
	if err != nil {
		return dto.DayOutput{}, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}
	err = i.store.OverrideContext(ctx, parsed)
	return dayOutput(i.store.State().Today), err
}

func (i *Interactor) Preview(level int, tags []string) dto.CheckInOutput {
	mode := i.store.Classifier().Classify(float64(level), tags...)
	feedback := energy.Describe(mode)
	return dto.CheckInOutput{
		Level:     level,
		Mode:      string(mode),
		Label:     feedback.Label,
		Icon:      feedback.Icon,
		Somatic:   energy.SomaticLabel(level),
		Negotiate: energy.NeedsNegotiation(mode),
	}
}

func (i *Interactor) AddHabit(ctx context.Context, input dto.AddHabitInput) (dto.HabitOutput, error) {
	def := domain.HabitDefinition{
		Title:    input.Title,
		Category: strings.TrimSpace(input.Category),
		Icon:     strings.TrimSpace(input.Icon),
		Levels:   map[energy.Mode]domain.Variant{},
	}
	for rawMode, variant := range input.Levels {
		mode, err := energy.ParseMode(rawMode)
		if err != nil {
			return dto.HabitOutput{}, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
		}
		def.Levels[mode] = domain.Variant{Text: strings.TrimSpace(variant.Text), TargetDurationMinutes: variant.Minutes}
	}
	stored, err := i.store.AddHabit(ctx, def)
	if stored.ID == "" {
		return dto.HabitOutput{}, err
	}
	return habitOutput(stored, i.store.State().Today), err
}

func (i *Interactor) RemoveHabit(ctx context.Context, habitID string) error {
	return i.store.RemoveHabit(ctx, strings.TrimSpace(habitID))
}

func (i *Interactor) CompleteHabit(ctx context.Context, habitID string) (dto.DayOutput, error) {
	err := i.store.CompleteHabit(ctx, habitID)
	return dayOutput(i.store.State().Today), err
}

func (i *Interactor) UpdateProfile(ctx context.Context, input dto.ProfileInput) (dto.ProfileOutput, error) {
	patch := domain.ProfilePatch{
		Name:                input.Name,
		Archetype:           input.Archetype,
		Chronotype:          input.Chronotype,
		Goal:                input.Goal,
		OnboardingCompleted: input.OnboardingCompleted,
	}
	if input.RemoteAccountID != nil || input.RemoteAccountEmail != nil {
		current := i.store.State().Profile.RemoteAccount
		account := domain.RemoteAccount{}
		if current != nil {
			account = *current
		}
		if input.RemoteAccountID != nil {
			account.ID = strings.TrimSpace(*input.RemoteAccountID)
		}
		if input.RemoteAccountEmail != nil {
			account.Email = strings.TrimSpace(*input.RemoteAccountEmail)
		}
		if account.ID == "" {
			return dto.ProfileOutput{}, fmt.Errorf("%w: remote account id is required", apperrors.ErrInvalidInput)
		}
		patch.RemoteAccount = &account
	}
	err := i.store.UpdateProfile(ctx, patch)
	return profileOutput(i.store.State().Profile), err
}

func (i *Interactor) ResetDay(ctx context.Context) (dto.DayOutput, error) {
	err := i.store.ResetDay(ctx)
	return dayOutput(i.store.State().Today), err
}

// ResetAll wipes the state and the analytics log.
func (i *Interactor) ResetAll(ctx context.Context) error {
	var errs []error
	if err := i.store.ResetAll(ctx); err != nil {
		errs = append(errs, err)
	}
	if i.events != nil {
		if err := i.events.Clear(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (i *Interactor) Snapshot(_ context.Context) (dto.StateOutput, error) {
	return stateOutput(i.store.State()), nil
}

func (i *Interactor) Subscribe(fn func(dto.StateOutput)) func() {
	return i.store.Subscribe(func(state domain.State) {
		fn(stateOutput(state))
	})
}

func checkInOutput(today domain.DailySession, tip string) dto.CheckInOutput {
	mode := today.Mode()
	feedback := energy.Describe(mode)
	out := dto.CheckInOutput{
		Mode:      string(mode),
		Label:     feedback.Label,
		Icon:      feedback.Icon,
		Reasoning: today.AIReasoning,
		Tip:       tip,
		Negotiate: energy.NeedsNegotiation(mode),
	}
	if today.EnergyLevel != nil {
		out.Level = *today.EnergyLevel
		out.Somatic = energy.SomaticLabel(out.Level)
	}
	return out
}

func dayOutput(today domain.DailySession) dto.DayOutput {
	out := dto.DayOutput{
		Date:        today.Date,
		CheckedIn:   today.CheckedIn(),
		Completed:   append([]string{}, today.CompletedHabits...),
		Note:        today.Note,
		AIReasoning: today.AIReasoning,
	}
	if today.EnergyLevel != nil {
		level := *today.EnergyLevel
		out.Level = &level
	}
	if today.EnergyContext != nil {
		out.Mode = string(*today.EnergyContext)
	}
	return out
}

func habitOutput(habit domain.HabitDefinition, today domain.DailySession) dto.HabitOutput {
	mode := today.Mode()
	current := habit.Variant(mode)
	out := dto.HabitOutput{
		ID:        habit.ID,
		Title:     habit.Title,
		Category:  habit.Category,
		Icon:      habit.Icon,
		Current:   dto.VariantOutput{Mode: string(mode), Text: current.Text, Minutes: current.TargetDurationMinutes},
		Completed: today.HasCompleted(habit.ID),
	}
	for _, m := range energy.Modes {
		variant := habit.Variant(m)
		out.Levels = append(out.Levels, dto.VariantOutput{Mode: string(m), Text: variant.Text, Minutes: variant.TargetDurationMinutes})
	}
	return out
}

func profileOutput(profile domain.Profile) dto.ProfileOutput {
	out := dto.ProfileOutput{
		Name:                profile.Name,
		Archetype:           profile.Archetype,
		Chronotype:          profile.Chronotype,
		Goal:                profile.Goal,
		OnboardingCompleted: profile.OnboardingCompleted,
	}
	if profile.RemoteAccount != nil {
		out.RemoteAccountID = profile.RemoteAccount.ID
		out.RemoteAccountEmail = profile.RemoteAccount.Email
	}
	return out
}

func stateOutput(state domain.State) dto.StateOutput {
	out := dto.StateOutput{
		Profile: profileOutput(state.Profile),
		Today:   dayOutput(state.Today),
		Habits:  make([]dto.HabitOutput, 0, len(state.Habits)),
	}
	for _, habit := range state.Habits {
		out.Habits = append(out.Habits, habitOutput(habit, state.Today))
	}
	return out
}
