package domain

import (
	"encoding/json"
	"fmt"
	"time"

	energy "flux/internal/modules/energy/domain"
)

type EventType string

const (
	TypeEnergyCheckIn   EventType = "ENERGY_CHECK_IN"
	TypeNeuralCheckIn   EventType = "NEURAL_CHECK_IN"
	TypeContextOverride EventType = "CONTEXT_OVERRIDE"
	TypeHabitCompleted  EventType = "HABIT_COMPLETED"
	TypeProfileUpdate   EventType = "PROFILE_UPDATE"
)

// Payload is implemented by every typed event body.
type Payload interface {
	EventType() EventType
}

type EnergyCheckIn struct {
	Level   int         `json:"level"`
	Context energy.Mode `json:"context"`
	Tags    []string    `json:"tags,omitempty"`
	Note    string      `json:"note,omitempty"`
}

type NeuralCheckIn struct {
	Level     int         `json:"level"`
	Context   energy.Mode `json:"context"`
	Reasoning string      `json:"reasoning,omitempty"`
	Tip       string      `json:"tip,omitempty"`
	Tags      []string    `json:"tags,omitempty"`
	Note      string      `json:"note,omitempty"`
}

type ContextOverride struct {
	Context energy.Mode `json:"context"`
	Level   *int        `json:"level"`
}

type HabitCompleted struct {
	HabitID     string      `json:"habitId"`
	EnergyLevel *int        `json:"energyLevel"`
	ContextUsed energy.Mode `json:"contextUsed"`
}

type AccountRef struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}

// ProfileUpdate carries only the fields that changed.
type ProfileUpdate struct {
	Name                *string     `json:"name,omitempty"`
	Archetype           *string     `json:"archetype,omitempty"`
	Chronotype          *string     `json:"chronotype,omitempty"`
	Goal                *string     `json:"goal,omitempty"`
	RemoteAccount       *AccountRef `json:"remoteAccount,omitempty"`
	OnboardingCompleted *bool       `json:"onboardingCompleted,omitempty"`
}

func (p ProfileUpdate) Empty() bool {
	return p.Name == nil && p.Archetype == nil && p.Chronotype == nil && p.Goal == nil &&
		p.RemoteAccount == nil && p.OnboardingCompleted == nil
}

// Unknown keeps events of types this build does not know about so they
// survive a load/save cycle unchanged.
type Unknown struct {
	Type EventType
	Raw  json.RawMessage
}

func (EnergyCheckIn) EventType() EventType   { return TypeEnergyCheckIn }
func (NeuralCheckIn) EventType() EventType   { return TypeNeuralCheckIn }
func (ContextOverride) EventType() EventType { return TypeContextOverride }
func (HabitCompleted) EventType() EventType  { return TypeHabitCompleted }
func (ProfileUpdate) EventType() EventType   { return TypeProfileUpdate }
func (u Unknown) EventType() EventType       { return u.Type }

type Event struct {
	ID        string
	Type      EventType
	Timestamp int64
	Payload   Payload
}

func NewEvent(id string, at time.Time, payload Payload) (Event, error) {
	if id == "" {
		return Event{}, fmt.Errorf("event id is required")
	}
	if payload == nil {
		return Event{}, fmt.Errorf("event payload is required")
	}
	return Event{ID: id, Type: payload.EventType(), Timestamp: at.UnixMilli(), Payload: payload}, nil
}

func (e Event) Time() time.Time {
	return time.UnixMilli(e.Timestamp).UTC()
}

// CheckIn is the common view over both check-in event kinds.
type CheckIn struct {
	Level   int
	Context energy.Mode
	Tags    []string
	Note    string
}

func (e Event) CheckIn() (CheckIn, bool) {
	switch p := e.Payload.(type) {
	case EnergyCheckIn:
		return CheckIn{Level: p.Level, Context: p.Context, Tags: p.Tags, Note: p.Note}, true
	case NeuralCheckIn:
		return CheckIn{Level: p.Level, Context: p.Context, Tags: p.Tags, Note: p.Note}, true
	default:
		return CheckIn{}, false
	}
}

func (e Event) Completion() (HabitCompleted, bool) {
	p, ok := e.Payload.(HabitCompleted)
	return p, ok
}

func IsCheckIn(e Event) bool {
	_, ok := e.CheckIn()
	return ok
}

type wireEvent struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	Timestamp int64           `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

func (e Event) MarshalJSON() ([]byte, error) {
	var raw json.RawMessage
	if unknown, ok := e.Payload.(Unknown); ok {
		raw = unknown.Raw
	} else if e.Payload != nil {
		encoded, err := json.Marshal(e.Payload)
		if err != nil {
			return nil, fmt.Errorf("marshal %s payload: %w", e.Type, err)
		}
		raw = encoded
	}
	if len(raw) == 0 {
		raw = json.RawMessage("null")
	}
	return json.Marshal(wireEvent{ID: e.ID, Type: e.Type, Timestamp: e.Timestamp, Payload: raw})
}

func (e *Event) UnmarshalJSON(data []byte) error {
	var wire wireEvent
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	payload, err := DecodePayload(wire.Type, wire.Payload)
	if err != nil {
		return err
	}
	*e = Event{ID: wire.ID, Type: wire.Type, Timestamp: wire.Timestamp, Payload: payload}
	return nil
}

// DecodePayload decodes raw into the typed payload for t. Types without a
// typed variant, and known types whose body does not match it, come back as
// Unknown with the raw bytes intact.
func DecodePayload(t EventType, raw json.RawMessage) (Payload, error) {
	var (
		payload Payload
		err     error
	)
	switch t {
	case TypeEnergyCheckIn:
		var p EnergyCheckIn
		err = json.Unmarshal(raw, &p)
		payload = p
	case TypeNeuralCheckIn:
		var p NeuralCheckIn
		err = json.Unmarshal(raw, &p)
		payload = p
	case TypeContextOverride:
		var p ContextOverride
		err = json.Unmarshal(raw, &p)
		payload = p
	case TypeHabitCompleted:
		var p HabitCompleted
		err = json.Unmarshal(raw, &p)
		payload = p
	case TypeProfileUpdate:
		var p ProfileUpdate
		err = json.Unmarshal(raw, &p)
		payload = p
	default:
		if t == "" {
			return nil, fmt.Errorf("event type is required")
		}
		return Unknown{Type: t, Raw: append(json.RawMessage(nil), raw...)}, nil
	}
	if err != nil || len(raw) == 0 {
		return Unknown{Type: t, Raw: append(json.RawMessage(nil), raw...)}, nil
	}
	return payload, nil
}
