package domain

import (
	"fmt"
	"strings"

	energy "flux/internal/modules/energy/domain"
)

type Variant struct {
	Text                  string `json:"text"`
	TargetDurationMinutes int    `json:"targetDurationMinutes"`
}

type HabitDefinition struct {
	ID       string                  `json:"id"`
	Title    string                  `json:"title"`
	Category string                  `json:"category,omitempty"`
	Icon     string                  `json:"icon,omitempty"`
	Levels   map[energy.Mode]Variant `json:"levels"`
}

// Variant returns the plan for mode, falling back to maintenance.
func (h HabitDefinition) Variant(mode energy.Mode) Variant {
	if v, ok := h.Levels[mode]; ok {
		return v
	}
	return h.Levels[energy.Maintenance]
}

func (h HabitDefinition) Validate() error {
	if strings.TrimSpace(h.Title) == "" {
		return fmt.Errorf("habit title is required")
	}
	maintenance, ok := h.Levels[energy.Maintenance]
	if !ok || strings.TrimSpace(maintenance.Text) == "" {
		return fmt.Errorf("habit %q needs a maintenance variant", h.Title)
	}
	for mode, variant := range h.Levels {
		if !mode.Valid() {
			return fmt.Errorf("habit %q has unknown level %q", h.Title, mode)
		}
		if variant.TargetDurationMinutes < 0 {
			return fmt.Errorf("habit %q has a negative duration for %s", h.Title, mode)
		}
	}
	return nil
}

func (h HabitDefinition) Clone() HabitDefinition {
	levels := make(map[energy.Mode]Variant, len(h.Levels))
	for mode, variant := range h.Levels {
		levels[mode] = variant
	}
	h.Levels = levels
	return h
}

func DefaultHabits() []HabitDefinition {
	return []HabitDefinition{
		{
			ID: "h_seed_01", Title: "Movement", Category: "health", Icon: "🏃",
			Levels: map[energy.Mode]Variant{
				energy.Survival:    {Text: "Stretch 3 min", TargetDurationMinutes: 3},
				energy.Maintenance: {Text: "Walk 20 min", TargetDurationMinutes: 20},
				energy.Expansion:   {Text: "Workout 45 min", TargetDurationMinutes: 45},
			},
		},
		{
			ID: "h_seed_02", Title: "Reading", Category: "mind", Icon: "📚",
			Levels: map[energy.Mode]Variant{
				energy.Survival:    {Text: "Read 1 page", TargetDurationMinutes: 2},
				energy.Maintenance: {Text: "Read 15 min", TargetDurationMinutes: 15},
				energy.Expansion:   {Text: "Read a chapter", TargetDurationMinutes: 30},
			},
		},
		{
			ID: "h_seed_03", Title: "Meditation", Category: "spirit", Icon: "🧘",
			Levels: map[energy.Mode]Variant{
				energy.Survival:    {Text: "3 breaths", TargetDurationMinutes: 1},
				energy.Maintenance: {Text: "Mindfulness 10 min", TargetDurationMinutes: 10},
				energy.Expansion:   {Text: "Meditate 20 min", TargetDurationMinutes: 20},
			},
		},
	}
}
