package domain

import (
	"encoding/json"
	"fmt"
)

type State struct {
	Profile Profile           `json:"profile"`
	Today   DailySession      `json:"dailySession"`
	Habits  []HabitDefinition `json:"habits"`
}

// legacySession picks up blobs written before the session key was renamed.
type legacySession struct {
	DailySession json.RawMessage `json:"dailySession"`
	Today        json.RawMessage `json:"today"`
}

func DefaultState(date string) State {
	return State{
		Profile: Profile{},
		Today:   NewDailySession(date),
		Habits:  DefaultHabits(),
	}
}

func (s State) Clone() State {
	out := State{Profile: s.Profile, Today: s.Today.Clone()}
	if s.Profile.RemoteAccount != nil {
		account := *s.Profile.RemoteAccount
		out.Profile.RemoteAccount = &account
	}
	out.Habits = make([]HabitDefinition, 0, len(s.Habits))
	for _, habit := range s.Habits {
		out.Habits = append(out.Habits, habit.Clone())
	}
	return out
}

func (s State) Habit(id string) (HabitDefinition, bool) {
	for _, habit := range s.Habits {
		if habit.ID == id {
			return habit, true
		}
	}
	return HabitDefinition{}, false
}

// DecodeState decodes raw over defaults: keys missing from raw keep their
// default values, present keys win.
func DecodeState(raw []byte, defaults State) (State, error) {
	state := defaults.Clone()
	// Decoding into the default slice would merge seed levels into stored habits.
	state.Habits = nil
	if err := json.Unmarshal(raw, &state); err != nil {
		return State{}, fmt.Errorf("decode state: %w", err)
	}
	var legacy legacySession
	if err := json.Unmarshal(raw, &legacy); err == nil && legacy.DailySession == nil && legacy.Today != nil {
		if err := json.Unmarshal(legacy.Today, &state.Today); err != nil {
			return State{}, fmt.Errorf("decode legacy session: %w", err)
		}
	}
	if state.Habits == nil {
		state.Habits = defaults.Clone().Habits
	}
	if state.Today.CompletedHabits == nil {
		state.Today.CompletedHabits = []string{}
	}
	if (state.Today.EnergyLevel == nil) != (state.Today.EnergyContext == nil) {
		state.Today.EnergyLevel = nil
		state.Today.EnergyContext = nil
	}
	return state, nil
}
