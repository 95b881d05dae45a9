package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
)

// ProducerConfig configures the writer behind a Producer.
type ProducerConfig struct {
	Brokers      []string
	BatchSize    int
	BatchTimeout time.Duration
	Async        bool
}

// DefaultProducerConfig writes synchronously with a short batching window;
// quote requests are low volume and the caller wants the write confirmed.
func DefaultProducerConfig(brokers []string) ProducerConfig {
	return ProducerConfig{Brokers: brokers, BatchSize: 100, BatchTimeout: 10 * time.Millisecond}
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes Events. It is safe for concurrent use.
type Producer struct {
	writer  messageWriter
	brokers []string
	logger  *slog.Logger
}

// NewProducer builds a Producer. No connection is made until the first
// Publish.
func NewProducer(cfg ProducerConfig, logger *slog.Logger) *Producer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Producer{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Balancer:               &kafka.Hash{},
			BatchSize:              cfg.BatchSize,
			BatchTimeout:           cfg.BatchTimeout,
			Async:                  cfg.Async,
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
		},
		brokers: cfg.Brokers,
		logger:  logger,
	}
}

// Message encodes event for topic. The key is the aggregate id, so every
// event of one quote lands on one partition; the caller's trace context is
// injected into the headers.
func Message(ctx context.Context, topic string, event *Event) (kafka.Message, error) {
	raw, err := event.Marshal()
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode %s event: %w", event.EventType, err)
	}
	msg := kafka.Message{Topic: topic, Key: []byte(event.AggregateID), Value: raw}
	headers := NewHeaderCarrier(&msg)
	headers.Set("event_type", event.EventType)
	headers.Set("source", event.Source)
	if event.CorrelationID != "" {
		headers.Set("correlation_id", event.CorrelationID)
	}
	otel.GetTextMapPropagator().Inject(ctx, headers)
	return msg, nil
}

// Publish writes event to topic and waits for the brokers to acknowledge it.
func (p *Producer) Publish(ctx context.Context, topic string, event *Event) error {
	msg, err := Message(ctx, topic, event)
	if err != nil {
		return err
	}

	began := time.Now()
	err = p.writer.WriteMessages(ctx, msg)
	producerDuration.WithLabelValues(topic).Observe(time.Since(began).Seconds())

	log := p.logger.With(slog.String("topic", topic), slog.String("event_type", event.EventType))
	if err != nil {
		producerErrors.WithLabelValues(topic).Inc()
		log.ErrorContext(ctx, "kafka write failed", slog.String("error", err.Error()))
		return fmt.Errorf("publish event to %s: %w", topic, err)
	}
	producerPublished.WithLabelValues(topic).Inc()
	log.DebugContext(ctx, "event published", slog.String("aggregate_id", event.AggregateID))
	return nil
}

// Ping reports whether any configured broker answers.
func (p *Producer) Ping(ctx context.Context) error {
	return PingBrokers(ctx, p.brokers)
}

// PingBrokers succeeds as soon as one broker returns its cluster metadata.
func PingBrokers(ctx context.Context, brokers []string) error {
	if len(brokers) == 0 {
		return errors.New("kafka: no brokers configured")
	}
	var errs []error
	for _, addr := range brokers {
		if err := pingBroker(ctx, addr); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", addr, err))
			continue
		}
		return nil
	}
	return fmt.Errorf("kafka: no broker reachable: %w", errors.Join(errs...))
}

func pingBroker(ctx context.Context, addr string) error {
	conn, err := kafka.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	defer conn.Close()
	_, err = conn.Brokers()
	return err
}

// Close flushes pending writes.
func (p *Producer) Close() error {
	return p.writer.Close()
}
