package domain

import (
	"time"

	energy "flux/internal/modules/energy/domain"
)

// DailySession is the "today" record. EnergyLevel and EnergyContext are set
// and cleared together.
type DailySession struct {
	Date            string       `json:"date"`
	EnergyLevel     *int         `json:"energyLevel"`
	EnergyContext   *energy.Mode `json:"energyContext"`
	CompletedHabits []string     `json:"completedHabits"`
	Note            string       `json:"note,omitempty"`
	AIReasoning     string       `json:"aiReasoning,omitempty"`
}

func NewDailySession(date string) DailySession {
	return DailySession{Date: date, CompletedHabits: []string{}}
}

func (d DailySession) CheckedIn() bool {
	return d.EnergyLevel != nil && d.EnergyContext != nil
}

func (d DailySession) HasCompleted(habitID string) bool {
	for _, id := range d.CompletedHabits {
		if id == habitID {
			return true
		}
	}
	return false
}

// Mode is the context used for the day, maintenance until a check-in.
func (d DailySession) Mode() energy.Mode {
	if d.EnergyContext == nil {
		return energy.Maintenance
	}
	return *d.EnergyContext
}

func (d *DailySession) SetEnergy(level int, mode energy.Mode) {
	d.EnergyLevel = &level
	d.EnergyContext = &mode
}

func (d DailySession) Clone() DailySession {
	if d.EnergyLevel != nil {
		level := *d.EnergyLevel
		d.EnergyLevel = &level
	}
	if d.EnergyContext != nil {
		mode := *d.EnergyContext
		d.EnergyContext = &mode
	}
	d.CompletedHabits = append([]string{}, d.CompletedHabits...)
	return d
}

// Analysis is the normalized answer of an external classifier.
type Analysis struct {
	Context       string `json:"context"`
	Reasoning     string `json:"reasoning"`
	ActionableTip string `json:"actionable_tip"`
}

// DayEntry is what gets written to the journal when a day is closed.
type DayEntry struct {
	Session   DailySession
	Profile   Profile
	Completed []HabitDefinition
	ClosedAt  time.Time
}
