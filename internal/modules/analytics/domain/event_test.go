package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	energy "flux/internal/modules/energy/domain"
)

func TestEventJSONShape(t *testing.T) {
	t.Parallel()
	at := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	event, err := NewEvent("e-1", at, HabitCompleted{HabitID: "h1", ContextUsed: energy.Maintenance})
	if err != nil {
		t.Fatalf("new event: %v", err)
	}
	raw, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"id":"e-1","type":"HABIT_COMPLETED","timestamp":1772443800000,"payload":{"habitId":"h1","energyLevel":null,"contextUsed":"maintenance"}}`
	if string(raw) != want {
		t.Fatalf("unexpected wire form:\n got %s\nwant %s", raw, want)
	}
}

func TestUnknownEventsSurviveRoundTrip(t *testing.T) {
	t.Parallel()
	input := `[{"id":"a","type":"FOCUS_SESSION","timestamp":1,"payload":{"minutes":25}},{"id":"b","type":"ENERGY_CHECK_IN","timestamp":2,"payload":{"level":40,"context":"maintenance","tags":["coffee"]}}]`
	var events []Event
	if err := json.Unmarshal([]byte(input), &events); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	unknown, ok := events[0].Payload.(Unknown)
	if !ok || unknown.Type != "FOCUS_SESSION" {
		t.Fatalf("expected unknown payload, got %#v", events[0].Payload)
	}
	checkIn, ok := events[1].CheckIn()
	if !ok || checkIn.Level != 40 || checkIn.Tags[0] != "coffee" {
		t.Fatalf("unexpected check-in view: %+v ok=%t", checkIn, ok)
	}
	out, err := json.Marshal(events)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(out), `"payload":{"minutes":25}`) {
		t.Fatalf("unknown payload not preserved: %s", out)
	}
}

func TestMalformedKnownPayloadKeptRaw(t *testing.T) {
	t.Parallel()
	var event Event
	if err := json.Unmarshal([]byte(`{"id":"x","type":"HABIT_COMPLETED","timestamp":3,"payload":{"habitId":42}}`), &event); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := event.Completion(); ok {
		t.Fatalf("malformed payload must not decode as a completion")
	}
	if event.Type != TypeHabitCompleted {
		t.Fatalf("type tag must be kept, got %s", event.Type)
	}
	if err := json.Unmarshal([]byte(`{"id":"y","timestamp":3,"payload":{}}`), &event); err == nil {
		t.Fatalf("missing type must fail")
	}
}

func TestProfileUpdateEmpty(t *testing.T) {
	t.Parallel()
	if !(ProfileUpdate{}).Empty() {
		t.Fatalf("zero update should be empty")
	}
	name := "Ada"
	if (ProfileUpdate{Name: &name}).Empty() {
		t.Fatalf("update with name should not be empty")
	}
}
