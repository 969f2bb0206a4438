package out

import (
	"encoding/json"

	"go.uber.org/zap"

	"flux/internal/modules/analytics/domain"
	analyticsout "flux/internal/modules/analytics/port/out"
	replicationdto "flux/internal/modules/replication/dto"
	replicationin "flux/internal/modules/replication/port/in"
)

// ReplicationBridge hands durable events to the replication queue in their
// stored wire shape.
type ReplicationBridge struct {
	replication replicationin.Usecase
	logger      *zap.Logger
}

func NewReplicationBridge(replication replicationin.Usecase, logger *zap.Logger) analyticsout.Replicator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReplicationBridge{replication: replication, logger: logger}
}

func (b *ReplicationBridge) Enqueue(event domain.Event) bool {
	record, err := ToRecord(event)
	if err != nil {
		b.logger.Warn("event not replicable", zap.String("event_id", event.ID), zap.Error(err))
		return false
	}
	return b.replication.Enqueue(record)
}

// ToRecord encodes event exactly as the event store persists it.
func ToRecord(event domain.Event) (replicationdto.Record, error) {
	raw, err := json.Marshal(event)
	if err != nil {
		return replicationdto.Record{}, err
	}
	var record replicationdto.Record
	if err := json.Unmarshal(raw, &record); err != nil {
		return replicationdto.Record{}, err
	}
	return record, nil
}
