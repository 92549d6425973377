package outbox_poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/leave-balance-ledger/internal/domain/history"
	"github.com/leave-balance-ledger/internal/domain/outbox"
	"github.com/leave-balance-ledger/internal/domain/shared"
	"github.com/leave-balance-ledger/internal/platform/messaging/producers"
)

// errPoisonMessage marks a message that was already parked and must not be retried
var errPoisonMessage = errors.New("poison outbox message")

// EventRelay delivers one outbox message to its downstream stores
type EventRelay interface {
	Relay(ctx context.Context, message *outbox.Message) error
}

// EventRelayImpl writes the status transition to the history store, publishes the
// event to Kafka, then marks the message PROCESSED. Every step tolerates a replay
// of a message that was partly delivered before.
type EventRelayImpl struct {
	outboxRepo  outbox.Repository
	historyRepo history.Repository
	publisher   producers.EventPublisher
	dlq         producers.DeadLetterPublisher
	logger      *slog.Logger
}

func NewEventRelay(
	outboxRepo outbox.Repository,
	historyRepo history.Repository,
	publisher producers.EventPublisher,
	dlq producers.DeadLetterPublisher,
	logger *slog.Logger,
) EventRelay {
	return &EventRelayImpl{
		outboxRepo:  outboxRepo,
		historyRepo: historyRepo,
		publisher:   publisher,
		dlq:         dlq,
		logger:      logger,
	}
}

func (r *EventRelayImpl) Relay(ctx context.Context, message *outbox.Message) error {
	event, err := message.LeaveEvent()
	if err != nil {
		r.logger.Error("Failed to unmarshal leave event from outbox payload",
			"outbox_id", message.ID, "event_id", message.EventID.String(), "error", err,
		)
		if updateErr := r.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusFailedToPublish); updateErr != nil {
			r.logger.Error("Also failed to update outbox status to FAILED_TO_PUBLISH after unmarshal error", "outbox_id", message.ID, "update_error", updateErr)
		}
		parkMessage(ctx, r.dlq, message, "undecodable outbox payload: "+err.Error(), r.logger)
		return fmt.Errorf("unmarshal payload for outbox %d failed: %w: %w", message.ID, errPoisonMessage, err)
	}

	logger := r.logger.With("outbox_id", message.ID, "event_id", event.EventID.String())
	if event.CorrelationID != "" {
		logger = logger.With("correlation_id", event.CorrelationID)
	}

	if err := r.historyRepo.Append(ctx, history.FromEvent(event)); err != nil {
		if !errors.Is(err, history.ErrDuplicateEntry{}) {
			logger.Error("Failed to append status history entry", "request_id", event.RequestID.String(), "error", err)
			return fmt.Errorf("failed to append history for event %s: %w", event.EventID, err)
		}
		logger.Info("Status history entry already recorded", "request_id", event.RequestID.String())
	}

	if err := r.publisher.PublishEvent(ctx, event); err != nil {
		return fmt.Errorf("failed to publish event %s: %w", event.EventID, err)
	}

	if err := r.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusProcessed); err != nil {
		logger.Error("Failed to update outbox message status to PROCESSED", "error", err)
		return fmt.Errorf("event %s delivered, but failed to mark outbox %d as PROCESSED: %w", event.EventID, message.ID, err)
	}

	logger.Info("Outbox message relayed", "event_type", string(event.EventType), "request_id", event.RequestID.String())
	return nil
}

// parkMessage copies a message that will not be retried to the DLQ, when one is configured
func parkMessage(ctx context.Context, dlq producers.DeadLetterPublisher, message *outbox.Message, reason string, logger *slog.Logger) {
	if dlq == nil {
		return
	}
	err := dlq.PublishToDLQ(ctx, message.EventID.String(), message.Payload, reason)
	if err != nil && !errors.Is(err, producers.ErrDLQDisabled) {
		logger.Error("Failed to publish outbox message to DLQ", "outbox_id", message.ID, "error", err)
	}
}
