package consumers

import (
	"context"
	"log/slog"
	"time"

	"github.com/leave-balance-ledger/internal/config"
	"github.com/segmentio/kafka-go"
)

type MessageHandler func(ctx context.Context, key []byte, value []byte) error

// Consumer defines the message queue consumer interface
type Consumer interface {
	Subscribe(ctx context.Context, handler MessageHandler) error
	Close() error
}

// MessageReader wraps kafka.Reader methods for testing
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConsumer implements Consumer using a Kafka consumer group
type KafkaConsumer struct {
	reader  MessageReader
	topic   string
	groupID string
	backoff time.Duration
	logger  *slog.Logger
}

var _ Consumer = (*KafkaConsumer)(nil)

// NewKafkaConsumer creates a group reader on topic
func NewKafkaConsumer(logger *slog.Logger, cfg *config.KafkaConfig, topic string) *KafkaConsumer {
	startOffset := kafka.FirstOffset
	if cfg.StartOffset == kafka.LastOffset {
		startOffset = kafka.LastOffset
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     []string{cfg.Brokers},
		Topic:       topic,
		GroupID:     cfg.ConsumerGroup,
		MinBytes:    cfg.MinBytes,
		MaxBytes:    cfg.MaxBytes,
		MaxWait:     cfg.MaxWait,
		StartOffset: startOffset,
	})
	return NewKafkaConsumerWithReader(logger, reader, topic, cfg.ConsumerGroup)
}

func NewKafkaConsumerWithReader(logger *slog.Logger, reader MessageReader, topic, groupID string) *KafkaConsumer {
	return &KafkaConsumer{
		reader:  reader,
		topic:   topic,
		groupID: groupID,
		backoff: time.Second,
		logger:  logger.With("topic", topic, "group_id", groupID),
	}
}

// Subscribe starts a goroutine feeding messages to handler until ctx is cancelled.
// Offsets are committed only after handler succeeds.
func (c *KafkaConsumer) Subscribe(ctx context.Context, handler MessageHandler) error {
	c.logger.Info("Subscribed to Kafka topic")

	go func() {
		for {
			if ctx.Err() != nil {
				c.logger.Info("Context canceled, stopping consumer")
				return
			}
			c.consumeOne(ctx, handler)
		}
	}()

	return nil
}

func (c *KafkaConsumer) consumeOne(ctx context.Context, handler MessageHandler) {
	msg, err := c.reader.FetchMessage(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		c.logger.Error("Failed to fetch message from Kafka", "error", err)
		time.Sleep(c.backoff)
		return
	}

	logger := c.logger.With("partition", msg.Partition, "offset", msg.Offset, "key", string(msg.Key))
	logger.Debug("Received message from Kafka")

	if err := handler(ctx, msg.Key, msg.Value); err != nil {
		// Failed messages are not committed so a restart replays them
		logger.Error("Failed to process message, will not commit offset", "error", err)
		return
	}

	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		logger.Error("Failed to commit message after successful processing", "error", err)
		return
	}
	logger.Debug("Message committed successfully")
}

func (c *KafkaConsumer) Close() error {
	if c.reader != nil {
		return c.reader.Close()
	}
	return nil
}
