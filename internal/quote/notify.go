package quote

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	_ "time/tzdata"

	pkgkafka "github.com/uniclima/storefront/pkg/kafka"
)

// Notification is a message to the sales team about one quote request.
type Notification struct {
	QuoteID string
	To      string
	Subject string
	Body    string
}

// Sender delivers notifications through one channel.
type Sender interface {
	Name() string
	Send(ctx context.Context, n *Notification) error
}

// LogSender writes notifications to the log. It stands in until a mail
// relay is configured.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a log-only sender.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Name() string { return "log" }

func (s *LogSender) Send(ctx context.Context, n *Notification) error {
	s.logger.InfoContext(ctx, "sales notification",
		slog.String("quote_id", n.QuoteID),
		slog.String("to", n.To),
		slog.String("subject", n.Subject),
		slog.String("body", n.Body),
	)
	return nil
}

// Notifier turns quote.requested events into sales notifications.
type Notifier struct {
	sender     Sender
	salesEmail string
	logger     *slog.Logger
}

// NewNotifier creates a notifier addressing salesEmail.
func NewNotifier(sender Sender, salesEmail string, logger *slog.Logger) *Notifier {
	return &Notifier{sender: sender, salesEmail: salesEmail, logger: logger}
}

// Handle processes one event. Events of other types are ignored.
func (n *Notifier) Handle(ctx context.Context, event *pkgkafka.Event) error {
	if event.EventType != TopicRequested {
		n.logger.WarnContext(ctx, "unknown event type received",
			slog.String("event_type", event.EventType),
			slog.String("event_id", event.EventID),
		)
		return nil
	}

	var q Quote
	if err := event.UnmarshalData(&q); err != nil {
		return fmt.Errorf("decode quote request %s: %w", event.AggregateID, err)
	}

	msg := Compose(&q, n.salesEmail)
	if err := n.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("send via %s: %w", n.sender.Name(), err)
	}
	return nil
}

// Compose renders the notification for q.
func Compose(q *Quote, to string) *Notification {
	comment := q.Comment
	if comment == "" {
		comment = "(sin comentarios)"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Producto: %s\n", q.ProductName)
	fmt.Fprintf(&b, "ID: %s\n", q.ProductID)
	fmt.Fprintf(&b, "Cliente: %s\n", q.Name)
	fmt.Fprintf(&b, "Email: %s\n", q.Email)
	fmt.Fprintf(&b, "Teléfono: %s\n", q.Phone)
	fmt.Fprintf(&b, "Comentario: %s\n", comment)
	fmt.Fprintf(&b, "Fecha: %s\n", q.CreatedAt.In(madrid).Format("2/1/2006, 15:04:05"))

	return &Notification{
		QuoteID: q.ID,
		To:      to,
		Subject: "Nueva solicitud de presupuesto: " + q.ProductName,
		Body:    b.String(),
	}
}

var madrid = loadLocation("Europe/Madrid")

func loadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ConsumerConfig locates the topic the notifier reads.
type ConsumerConfig struct {
	Brokers []string
	GroupID string
}

// NewConsumer builds the notifier's Kafka consumer: duplicate events are
// dropped through store, and events that exhaust their retries go to dlq
// when it is non-nil.
func NewConsumer(cfg ConsumerConfig, n *Notifier, store pkgkafka.IdempotencyStore, dlq *pkgkafka.DLQProducer, logger *slog.Logger) *pkgkafka.Consumer {
	handler := pkgkafka.IdempotentHandler(store, n.Handle, logger)
	c := pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.GroupID,
		Topic:    TopicRequested,
		MinBytes: 1,
		MaxBytes: 10e6,
	}, handler, logger)
	return c.WithDLQ(dlq)
}
