package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
)

// DLQTopicPrefix is the prefix for dead-letter topics.
const DLQTopicPrefix = TopicPrefix + ".dlq"

// DLQProducer publishes failed messages to a dead-letter queue topic.
type DLQProducer struct {
	writer messageWriter
	logger *slog.Logger
}

// NewDLQProducer creates a DLQ producer writing synchronously, one message
// per batch.
func NewDLQProducer(brokers []string, logger *slog.Logger) *DLQProducer {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.LeastBytes{},
		BatchSize:              1,
		BatchTimeout:           100 * time.Millisecond,
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &DLQProducer{writer: w, logger: logger}
}

// DLQTopic constructs the DLQ topic name for a given source topic.
func DLQTopic(originalTopic string) string {
	return fmt.Sprintf("%s.%s", DLQTopicPrefix, originalTopic)
}

// DeadLetterMessage copies msg to its DLQ topic, recording where it came
// from and why it failed in dlq.* headers.
func DeadLetterMessage(msg kafka.Message, lastErr error, consumerGroup string) kafka.Message {
	headers := make([]kafka.Header, 0, len(msg.Headers)+5)
	headers = append(headers, msg.Headers...)
	headers = append(headers,
		kafka.Header{Key: "dlq.original_topic", Value: []byte(msg.Topic)},
		kafka.Header{Key: "dlq.original_partition", Value: []byte(strconv.Itoa(msg.Partition))},
		kafka.Header{Key: "dlq.original_offset", Value: []byte(strconv.FormatInt(msg.Offset, 10))},
		kafka.Header{Key: "dlq.consumer_group", Value: []byte(consumerGroup)},
	)
	if lastErr != nil {
		headers = append(headers, kafka.Header{Key: "dlq.error", Value: []byte(lastErr.Error())})
	}
	return kafka.Message{
		Topic:   DLQTopic(msg.Topic),
		Key:     msg.Key,
		Value:   msg.Value,
		Headers: headers,
	}
}

// Publish sends a failed message to the corresponding DLQ topic.
func (d *DLQProducer) Publish(ctx context.Context, msg kafka.Message, lastErr error, consumerGroup string) error {
	dlqMsg := DeadLetterMessage(msg, lastErr, consumerGroup)
	if err := d.writer.WriteMessages(ctx, dlqMsg); err != nil {
		d.logger.Error("failed to publish message to DLQ",
			slog.String("dlq_topic", dlqMsg.Topic),
			slog.Int64("offset", msg.Offset),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("publish to DLQ %s: %w", dlqMsg.Topic, err)
	}

	d.logger.Warn("message sent to DLQ",
		slog.String("dlq_topic", dlqMsg.Topic),
		slog.String("original_topic", msg.Topic),
		slog.Int64("offset", msg.Offset),
		slog.String("consumer_group", consumerGroup),
	)
	return nil
}

// Close closes the DLQ producer.
func (d *DLQProducer) Close() error {
	return d.writer.Close()
}
