package quote

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	pkgkafka "github.com/uniclima/storefront/pkg/kafka"
	"github.com/uniclima/storefront/pkg/logger"
)

// TopicRequested carries a quote.requested event per stored request.
var TopicRequested = pkgkafka.Topic("quote", "requested")

// EventSource names this service on published events.
const EventSource = "storefront"

// Publisher is the subset of *pkgkafka.Producer the service uses.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Service accepts quote requests.
type Service struct {
	repo      Repository
	publisher Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewService creates a quote service. A nil publisher disables events.
func NewService(repo Repository, publisher Publisher, logger *slog.Logger) *Service {
	return &Service{repo: repo, publisher: publisher, logger: logger, now: time.Now}
}

// Submit validates, normalizes and stores a request, then announces it.
// Validation failures are returned as *ValidationError. A failed publish is
// logged but does not fail the request, since the quote is already stored.
func (s *Service) Submit(ctx context.Context, in Input) (*Quote, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}

	q := Normalize(in)
	q.ID = uuid.New().String()
	q.CreatedAt = s.now().UTC()

	if err := s.repo.Create(ctx, &q); err != nil {
		return nil, fmt.Errorf("store quote request: %w", err)
	}

	s.logger.InfoContext(ctx, "quote request received",
		slog.String("quote_id", q.ID),
		slog.String("product_id", q.ProductID),
		slog.String("product_name", q.ProductName),
		slog.String("customer", q.Name),
		slog.String("email", q.Email),
	)

	if s.publisher != nil {
		if err := s.publish(ctx, &q); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish quote request",
				slog.String("quote_id", q.ID),
				slog.String("error", err.Error()),
			)
		}
	}
	return &q, nil
}

func (s *Service) publish(ctx context.Context, q *Quote) error {
	event, err := pkgkafka.NewEvent(TopicRequested, q.ID, "quote_request", EventSource, q)
	if err != nil {
		return err
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		event.WithCorrelationID(id)
	}
	return s.publisher.Publish(ctx, TopicRequested, event)
}

// Get returns a stored request.
func (s *Service) Get(ctx context.Context, id string) (*Quote, error) {
	return s.repo.GetByID(ctx, id)
}
