package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/leave-balance-ledger/internal/config"
	"github.com/leave-balance-ledger/internal/domain/shared"
	"github.com/segmentio/kafka-go"
)

const (
	headerEventType     = "event-type"
	headerCorrelationID = "correlation-id"
)

// LeaveEventProducer writes lifecycle events keyed by request id, so every event of
// a request lands on the same partition in order.
type LeaveEventProducer struct {
	logger *slog.Logger
	writer KafkaWriter // Interface for testability
	topic  string
}

// NewLeaveEventProducer ensures the event topic exists and opens a synchronous writer
func NewLeaveEventProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*LeaveEventProducer, error) {
	if cfg.LeaveEventsTopic == "" {
		return nil, fmt.Errorf("kafka leave events topic is not configured")
	}

	conn, err := kafka.DialContext(ctx, "tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for leave event producer: %w", err)
	}
	defer conn.Close()

	if err := ensureTopic(conn, cfg.LeaveEventsTopic, cfg.NumPartitions, cfg.ReplicationFactor, topicReadBackoff, logger); err != nil {
		return nil, fmt.Errorf("failed to ensure leave events topic %s exists: %w", cfg.LeaveEventsTopic, err)
	}

	// The outbox marks a message processed only after the write is acknowledged,
	// so the writer stays synchronous.
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.LeaveEventsTopic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		WriteTimeout: cfg.MaxWait,
	}

	return NewLeaveEventProducerWithWriter(logger, writer, cfg.LeaveEventsTopic), nil
}

func NewLeaveEventProducerWithWriter(logger *slog.Logger, writer KafkaWriter, topic string) *LeaveEventProducer {
	return &LeaveEventProducer{logger: logger, writer: writer, topic: topic}
}

func (p *LeaveEventProducer) PublishEvent(ctx context.Context, event *shared.LeaveEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal leave event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.RequestID.String()),
		Value: value,
		Headers: []kafka.Header{
			{Key: headerEventType, Value: []byte(event.EventType)},
		},
	}
	if event.CorrelationID != "" {
		msg.Headers = append(msg.Headers, kafka.Header{Key: headerCorrelationID, Value: []byte(event.CorrelationID)})
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish leave event",
			"topic", p.topic,
			"event_id", event.EventID.String(),
			"event_type", string(event.EventType),
			"error", err,
		)
		return fmt.Errorf("failed to publish leave event to %s: %w", p.topic, err)
	}

	p.logger.Debug("Published leave event",
		"topic", p.topic,
		"event_id", event.EventID.String(),
		"event_type", string(event.EventType),
	)
	return nil
}

func (p *LeaveEventProducer) Close() error {
	p.logger.Info("Closing leave event producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
