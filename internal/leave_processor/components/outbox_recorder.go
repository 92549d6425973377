package components

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/leave-balance-ledger/internal/domain/outbox"
	"github.com/leave-balance-ledger/internal/domain/shared"
)

// OutboxRecorder writes lifecycle events to the outbox inside the caller's
// transaction, so an event exists if and only if its transition committed.
type OutboxRecorder struct {
	outboxRepo outbox.Repository
	logger     *slog.Logger
}

func NewOutboxRecorder(outboxRepo outbox.Repository, logger *slog.Logger) *OutboxRecorder {
	return &OutboxRecorder{
		outboxRepo: outboxRepo,
		logger:     logger,
	}
}

// Record stores the event as a pending outbox message
func (r *OutboxRecorder) Record(ctx context.Context, tx pgx.Tx, event *shared.LeaveEvent) error {
	logger := r.logger
	if event.CorrelationID != "" {
		logger = r.logger.With("correlation_id", event.CorrelationID)
	}

	message, err := outbox.NewMessage(event)
	if err != nil {
		logger.Error("Failed to create new outbox message (marshal payload)",
			"request_id", event.RequestID.String(),
			"error", err,
		)
		return fmt.Errorf("failed to create outbox message payload for request %s: %w", event.RequestID.String(), err)
	}

	if err = r.outboxRepo.WithTx(tx).Create(ctx, message); err != nil {
		logger.Error("Failed to create outbox message",
			"request_id", event.RequestID.String(),
			"event_type", string(event.EventType),
			"error", err,
		)
		return fmt.Errorf("failed to create outbox message for request %s: %w", event.RequestID.String(), err)
	}

	logger.Debug("Outbox message created",
		"request_id", event.RequestID.String(),
		"event_type", string(event.EventType),
		"outbox_id", message.ID,
	)
	return nil
}
