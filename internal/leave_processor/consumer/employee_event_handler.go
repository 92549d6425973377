package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/leave-balance-ledger/internal/domain/shared"
	"github.com/leave-balance-ledger/internal/leave_processor/service"
	"github.com/leave-balance-ledger/internal/platform/messaging/producers"
)

// EmployeeEventHandler applies employee directory updates read from Kafka
type EmployeeEventHandler struct {
	directory service.DirectorySyncService
	producer  producers.DeadLetterPublisher
	logger    *slog.Logger
}

func NewEmployeeEventHandler(
	logger *slog.Logger,
	directory service.DirectorySyncService,
	producer producers.DeadLetterPublisher,
) *EmployeeEventHandler {
	return &EmployeeEventHandler{
		directory: directory,
		producer:  producer,
		logger:    logger,
	}
}

// HandleMessage decodes and applies one event. Messages that can never succeed are
// parked in the DLQ and acknowledged; other failures are returned so the offset
// is not committed.
func (h *EmployeeEventHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var event shared.EmployeeEvent
	if err := json.Unmarshal(value, &event); err != nil {
		return h.deadLetter(ctx, key, value, "Failed to unmarshal employee event", err)
	}

	err := h.directory.SyncEmployee(ctx, &event)
	if err == nil {
		h.logger.Debug("Applied employee event", "employee_id", event.EmployeeID.String())
		return nil
	}

	var validation shared.ValidationError
	if errors.As(err, &validation) {
		return h.deadLetter(ctx, key, value, "Rejected employee event", err)
	}

	h.logger.Error("Failed to apply employee event",
		"employee_id", event.EmployeeID.String(),
		"error", err,
	)
	return fmt.Errorf("applying employee event %s failed: %w", event.EmployeeID, err)
}

func (h *EmployeeEventHandler) deadLetter(ctx context.Context, key, value []byte, msg string, cause error) error {
	h.logger.Error(msg, "error", cause, "message_key", string(key))

	if h.producer != nil {
		reason := fmt.Sprintf("%s: %s", msg, cause.Error())
		err := h.producer.PublishToDLQ(ctx, string(key), value, reason)
		if err == nil {
			return nil
		}
		h.logger.Error("Failed to publish message to DLQ",
			"dlq_error", err,
			"original_error", cause,
			"message_key", string(key),
		)
	}
	return fmt.Errorf("%s: %w", msg, cause)
}
