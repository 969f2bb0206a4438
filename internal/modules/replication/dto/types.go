package dto

import "encoding/json"

type Record struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Timestamp int64           `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

type StatsOutput struct {
	Sink     string `json:"sink"`
	Queued   int    `json:"queued"`
	Pushed   int    `json:"pushed"`
	Dropped  int    `json:"dropped"`
	Failures int    `json:"failures"`
}
