package dto

import (
	"encoding/json"
	"time"
)

type EventOutput struct {
	ID        string
	Type      string
	Timestamp time.Time
	Payload   json.RawMessage
}

type ListInput struct {
	Type  string
	Limit int
}

type HistoryInput struct {
	HabitID string
	Limit   int
}
