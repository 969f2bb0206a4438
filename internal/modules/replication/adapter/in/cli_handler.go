package in

import (
	"context"
	"errors"
	"fmt"

	"flux/internal/modules/replication/dto"
	replicationin "flux/internal/modules/replication/port/in"
)

type CLIHandler struct {
	usecase replicationin.Usecase
}

func NewCLIHandler(usecase replicationin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

// Drain replicates every record, waiting for queue space, then closes the
// replicator so the call returns once the sink has seen everything it will.
func (h CLIHandler) Drain(ctx context.Context, records []dto.Record) (dto.StatsOutput, error) {
	h.usecase.Start(ctx)
	var submitErr error
	for _, record := range records {
		if err := h.usecase.Submit(ctx, record); err != nil {
			submitErr = fmt.Errorf("queue %s: %w", record.ID, err)
			break
		}
	}
	closeErr := h.usecase.Close(ctx)
	return h.usecase.Stats(), errors.Join(submitErr, closeErr)
}

func (h CLIHandler) Stats() dto.StatsOutput {
	return h.usecase.Stats()
}
