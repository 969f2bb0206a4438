package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var ErrQueueClosed = errors.New("replication queue closed")

// Record is the wire form of one analytics event. Payload is kept opaque so
// sinks never depend on the event model.
type Record struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Timestamp int64           `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

func (r Record) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("record id is required")
	}
	if r.Type == "" {
		return fmt.Errorf("record %s: type is required", r.ID)
	}
	return nil
}

type Policy struct {
	MaxAttempts int
	BackoffBase time.Duration
	BackoffMax  time.Duration
	BatchSize   int
	QueueSize   int
	// PushesPerSecond paces sink calls. Zero disables pacing.
	PushesPerSecond float64
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:     5,
		BackoffBase:     500 * time.Millisecond,
		BackoffMax:      30 * time.Second,
		BatchSize:       32,
		QueueSize:       256,
		PushesPerSecond: 2,
	}
}

// Normalize replaces unset fields with defaults.
func (p Policy) Normalize() Policy {
	d := DefaultPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = d.MaxAttempts
	}
	if p.BackoffBase <= 0 {
		p.BackoffBase = d.BackoffBase
	}
	if p.BackoffMax < p.BackoffBase {
		p.BackoffMax = max(d.BackoffMax, p.BackoffBase)
	}
	if p.BatchSize <= 0 {
		p.BatchSize = d.BatchSize
	}
	if p.QueueSize <= 0 {
		p.QueueSize = d.QueueSize
	}
	if p.PushesPerSecond < 0 {
		p.PushesPerSecond = 0
	}
	return p
}

// Backoff returns the wait before retry number attempt (1-based):
// base doubled per previous attempt, capped at BackoffMax.
func (p Policy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	wait := p.BackoffBase
	for i := 1; i < attempt; i++ {
		wait *= 2
		if wait >= p.BackoffMax {
			return p.BackoffMax
		}
	}
	if wait > p.BackoffMax {
		return p.BackoffMax
	}
	return wait
}

type Stats struct {
	Sink     string
	Queued   int
	Pushed   int
	Dropped  int
	Failures int
}
