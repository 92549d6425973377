package producers

import (
	"context"

	"github.com/leave-balance-ledger/internal/domain/shared"
	"github.com/segmentio/kafka-go"
)

// EventPublisher publishes leave lifecycle events to the event topic
type EventPublisher interface {
	PublishEvent(ctx context.Context, event *shared.LeaveEvent) error
	Close() error
}

// DeadLetterPublisher handles publishing messages to a Dead Letter Queue
type DeadLetterPublisher interface {
	PublishToDLQ(ctx context.Context, key string, originalMessageValue []byte, reason string) error
	Close() error
}

// KafkaWriter wraps kafka.Writer methods for testing
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Ensure implementations satisfy their interfaces (compile-time check)
var (
	_ EventPublisher      = (*LeaveEventProducer)(nil)
	_ DeadLetterPublisher = (*DLQProducer)(nil)
	_ KafkaWriter         = (*kafka.Writer)(nil)
)
