package dto

type CheckInInput struct {
	Level int
	Tags  []string
	Note  string
}

type AnalysisCheckInInput struct {
	Level         int
	Context       string
	Reasoning     string
	ActionableTip string
	Tags          []string
	Note          string
}

type CheckInOutput struct {
	Level     int
	Mode      string
	Label     string
	Icon      string
	Somatic   string
	Reasoning string
	Tip       string
	// Negotiate is set when the resolved mode should be confirmed by the user.
	Negotiate bool
}

type VariantInput struct {
	Text    string
	Minutes int
}

type AddHabitInput struct {
	Title    string
	Category string
	Icon     string
	Levels   map[string]VariantInput
}

type VariantOutput struct {
	Mode    string
	Text    string
	Minutes int
}

type HabitOutput struct {
	ID        string
	Title     string
	Category  string
	Icon      string
	Current   VariantOutput
	Levels    []VariantOutput
	Completed bool
}

type DayOutput struct {
	Date        string
	Level       *int
	Mode        string
	CheckedIn   bool
	Completed   []string
	Note        string
	AIReasoning string
}

type ProfileInput struct {
	Name                *string
	Archetype           *string
	Chronotype          *string
	Goal                *string
	RemoteAccountID     *string
	RemoteAccountEmail  *string
	OnboardingCompleted *bool
}

type ProfileOutput struct {
	Name                string
	Archetype           string
	Chronotype          string
	Goal                string
	RemoteAccountID     string
	RemoteAccountEmail  string
	OnboardingCompleted bool
}

type StateOutput struct {
	Profile ProfileOutput
	Today   DayOutput
	Habits  []HabitOutput
}
