package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"flux/internal/modules/analytics/domain"
	"flux/internal/modules/analytics/dto"
	analyticsin "flux/internal/modules/analytics/port/in"
	"flux/internal/modules/analytics/service"
	apperrors "flux/internal/platform/errors"
)

type Interactor struct {
	log *service.EventLog
}

func NewInteractor(log *service.EventLog) analyticsin.Usecase {
	return &Interactor{log: log}
}

func (i *Interactor) List(_ context.Context, input dto.ListInput) ([]dto.EventOutput, error) {
	wanted := domain.EventType(strings.ToUpper(strings.TrimSpace(input.Type)))
	events := i.log.Query(func(e domain.Event) bool {
		return wanted == "" || e.Type == wanted
	})
	if input.Limit > 0 && len(events) > input.Limit {
		events = events[len(events)-input.Limit:]
	}
	return toOutputs(events)
}

func (i *Interactor) HabitHistory(_ context.Context, input dto.HistoryInput) ([]dto.EventOutput, error) {
	if strings.TrimSpace(input.HabitID) == "" {
		return nil, fmt.Errorf("%w: habit id is required", apperrors.ErrInvalidInput)
	}
	limit := input.Limit
	if limit <= 0 {
		limit = -1
	}
	return toOutputs(i.log.ChainData(input.HabitID, limit))
}

func (i *Interactor) RecentContext(_ context.Context, windowDays int) (string, error) {
	if windowDays <= 0 {
		return "", fmt.Errorf("%w: window must be positive", apperrors.ErrInvalidInput)
	}
	return i.log.RecentContext(windowDays), nil
}

func (i *Interactor) Export(_ context.Context) ([]byte, error) {
	return i.log.Export()
}

func (i *Interactor) Clear(ctx context.Context) error {
	return i.log.Clear(ctx)
}

func toOutputs(events []domain.Event) ([]dto.EventOutput, error) {
	out := make([]dto.EventOutput, 0, len(events))
	for _, event := range events {
		var raw json.RawMessage
		if unknown, ok := event.Payload.(domain.Unknown); ok {
			raw = unknown.Raw
		} else {
			encoded, err := json.Marshal(event.Payload)
			if err != nil {
				return nil, fmt.Errorf("encode %s payload: %w", event.Type, err)
			}
			raw = encoded
		}
		out = append(out, dto.EventOutput{
			ID:        event.ID,
			Type:      string(event.Type),
			Timestamp: event.Time(),
			Payload:   raw,
		})
	}
	return out, nil
}
