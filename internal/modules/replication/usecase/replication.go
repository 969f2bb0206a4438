package usecase

import (
	"context"
	"fmt"

	"flux/internal/modules/replication/domain"
	"flux/internal/modules/replication/dto"
	replicationin "flux/internal/modules/replication/port/in"
	"flux/internal/modules/replication/service"
	apperrors "flux/internal/platform/errors"
)

type Interactor struct {
	replicator *service.Replicator
}

func NewInteractor(replicator *service.Replicator) replicationin.Usecase {
	return &Interactor{replicator: replicator}
}

func (i *Interactor) Start(ctx context.Context) {
	i.replicator.Start(ctx)
}

func (i *Interactor) Enqueue(record dto.Record) bool {
	rec := toDomain(record)
	if rec.Validate() != nil {
		return false
	}
	return i.replicator.Enqueue(rec)
}

func (i *Interactor) Submit(ctx context.Context, record dto.Record) error {
	rec := toDomain(record)
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}
	return i.replicator.Submit(ctx, rec)
}

func (i *Interactor) Stats() dto.StatsOutput {
	stats := i.replicator.Stats()
	return dto.StatsOutput{
		Sink:     stats.Sink,
		Queued:   stats.Queued,
		Pushed:   stats.Pushed,
		Dropped:  stats.Dropped,
		Failures: stats.Failures,
	}
}

func (i *Interactor) Close(ctx context.Context) error {
	return i.replicator.Close(ctx)
}

func toDomain(record dto.Record) domain.Record {
	return domain.Record{
		ID:        record.ID,
		Type:      record.Type,
		Timestamp: record.Timestamp,
		Payload:   record.Payload,
	}
}
