package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// maxHandlerRetries is how many times one message is handed to the Handler
// before it is dead-lettered.
const maxHandlerRetries = 3

const instrumentation = "github.com/uniclima/storefront/pkg/kafka"

// Handler processes one decoded event. Returning an error triggers a retry.
type Handler func(ctx context.Context, event *Event) error

// ConsumerConfig selects the topic and group a Consumer reads.
type ConsumerConfig struct {
	Brokers  []string
	GroupID  string
	Topic    string
	MinBytes int
	MaxBytes int
	// RetryBackoff grows linearly with the attempt number. Defaults to 100ms.
	RetryBackoff time.Duration
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type deadLetterer interface {
	Publish(ctx context.Context, msg kafka.Message, lastErr error, consumerGroup string) error
}

// Consumer feeds one topic to a Handler. Every fetched message is committed
// once handled, dead-lettered or dropped, so a poison message never blocks
// the partition.
type Consumer struct {
	reader  messageReader
	cfg     ConsumerConfig
	handler Handler
	dlq     deadLetterer
	logger  *slog.Logger

	closeOnce sync.Once
}

// NewConsumer joins cfg.GroupID on cfg.Topic.
func NewConsumer(cfg ConsumerConfig, handler Handler, logger *slog.Logger) *Consumer {
	return newConsumer(kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.GroupID,
		Topic:    cfg.Topic,
		MinBytes: cfg.MinBytes,
		MaxBytes: cfg.MaxBytes,
	}), cfg, handler, logger)
}

func newConsumer(r messageReader, cfg ConsumerConfig, handler Handler, logger *slog.Logger) *Consumer {
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 100 * time.Millisecond
	}
	return &Consumer{reader: r, cfg: cfg, handler: handler, logger: logger}
}

// WithDLQ sends messages that exhaust their retries to d. A nil d keeps the
// current behaviour of logging and dropping them.
func (c *Consumer) WithDLQ(d *DLQProducer) *Consumer {
	if d != nil {
		c.dlq = d
	}
	return c
}

// Start consumes until ctx is cancelled, then closes the reader. It returns
// nil on a clean shutdown.
func (c *Consumer) Start(ctx context.Context) error {
	defer c.Close()
	log := c.logger.With(slog.String("topic", c.cfg.Topic), slog.String("group", c.cfg.GroupID))
	log.Info("consumer started")

	for {
		msg, err := c.reader.FetchMessage(ctx)
		switch {
		case ctx.Err() != nil:
			log.Info("consumer stopping")
			return nil
		case err != nil:
			log.Error("fetch failed", slog.String("error", err.Error()))
			continue
		}
		consumerReceived.WithLabelValues(msg.Topic, c.cfg.GroupID).Inc()

		if err := c.process(ctx, msg); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			log.Error("message dropped", slog.Int64("offset", msg.Offset), slog.String("error", err.Error()))
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			log.Error("commit failed", slog.Int64("offset", msg.Offset), slog.String("error", err.Error()))
		}
	}
}

func (c *Consumer) process(ctx context.Context, msg kafka.Message) error {
	ctx = otel.GetTextMapPropagator().Extract(ctx, NewHeaderCarrier(&msg))
	ctx, span := otel.Tracer(instrumentation).Start(ctx, "kafka.consume "+msg.Topic,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.destination.name", msg.Topic),
			attribute.String("messaging.consumer.group.name", c.cfg.GroupID),
			attribute.Int("messaging.kafka.partition", msg.Partition),
			attribute.Int64("messaging.kafka.offset", msg.Offset),
		),
	)
	defer span.End()

	event, err := UnmarshalEvent(msg.Value)
	if err != nil {
		span.RecordError(err)
		c.logger.ErrorContext(ctx, "undecodable message", slog.String("topic", msg.Topic), slog.String("error", err.Error()))
		return c.deadLetter(ctx, msg, err)
	}

	began := time.Now()
	err = c.handleWithRetry(ctx, msg, event)
	consumerDuration.WithLabelValues(msg.Topic, c.cfg.GroupID).Observe(time.Since(began).Seconds())
	if errors.Is(err, context.Canceled) {
		return err
	}
	if err != nil {
		consumerFailed.WithLabelValues(msg.Topic, c.cfg.GroupID).Inc()
		span.RecordError(err)
		c.logger.ErrorContext(ctx, "handler gave up",
			slog.String("event_type", event.EventType),
			slog.String("aggregate_id", event.AggregateID),
			slog.String("error", err.Error()),
		)
		return c.deadLetter(ctx, msg, err)
	}
	consumerProcessed.WithLabelValues(msg.Topic, c.cfg.GroupID).Inc()
	return nil
}

// handleWithRetry calls the handler up to maxHandlerRetries times, waiting
// attempt*RetryBackoff between calls. It returns the last handler error, or
// ctx's error when cancelled while waiting.
func (c *Consumer) handleWithRetry(ctx context.Context, msg kafka.Message, event *Event) error {
	var err error
	for attempt := 1; ; attempt++ {
		if err = c.handler(ctx, event); err == nil {
			return nil
		}
		c.logger.WarnContext(ctx, "handler failed",
			slog.String("event_type", event.EventType),
			slog.Int64("offset", msg.Offset),
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()),
		)
		if attempt == maxHandlerRetries {
			return err
		}
		wait := time.NewTimer(time.Duration(attempt) * c.cfg.RetryBackoff)
		select {
		case <-ctx.Done():
			wait.Stop()
			return ctx.Err()
		case <-wait.C:
		}
	}
}

func (c *Consumer) deadLetter(ctx context.Context, msg kafka.Message, cause error) error {
	if c.dlq == nil {
		return fmt.Errorf("no dead-letter topic for offset %d: %w", msg.Offset, cause)
	}
	if err := c.dlq.Publish(ctx, msg, cause, c.cfg.GroupID); err != nil {
		return err
	}
	consumerDeadLettered.WithLabelValues(msg.Topic, c.cfg.GroupID).Inc()
	return nil
}

// Close releases the reader. Later calls are no-ops.
func (c *Consumer) Close() error {
	var err error
	c.closeOnce.Do(func() { err = c.reader.Close() })
	return err
}
