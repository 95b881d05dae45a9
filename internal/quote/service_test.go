package quote

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	pkgkafka "github.com/uniclima/storefront/pkg/kafka"
	"github.com/uniclima/storefront/pkg/logger"
)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) Create(ctx context.Context, q *Quote) error {
	return m.Called(ctx, q).Error(0)
}

func (m *mockRepository) GetByID(ctx context.Context, id string) (*Quote, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Quote), args.Error(1)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, topic string, event *pkgkafka.Event) error {
	return m.Called(ctx, topic, event).Error(0)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixedService(repo Repository, pub Publisher) *Service {
	s := NewService(repo, pub, testLogger())
	s.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return s
}

func TestSubmit_StoresAndPublishes(t *testing.T) {
	repo := new(mockRepository)
	pub := new(mockPublisher)
	ctx := logger.WithCorrelationID(context.Background(), "corr-1")

	repo.On("Create", mock.Anything, mock.AnythingOfType("*quote.Quote")).Return(nil)
	pub.On("Publish", mock.Anything, TopicRequested, mock.MatchedBy(func(e *pkgkafka.Event) bool {
		var q Quote
		return e.EventType == TopicRequested &&
			e.CorrelationID == "corr-1" &&
			e.UnmarshalData(&q) == nil &&
			q.Email == "ana@example.com" &&
			e.AggregateID == q.ID
	})).Return(nil)

	q, err := fixedService(repo, pub).Submit(ctx, validInput())
	require.NoError(t, err)

	assert.Len(t, q.ID, 36)
	assert.Equal(t, "ana@example.com", q.Email)
	assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), q.CreatedAt)
	repo.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestSubmit_ValidationStopsEarly(t *testing.T) {
	repo := new(mockRepository)
	in := validInput()
	in.Email = "nope"

	_, err := fixedService(repo, nil).Submit(context.Background(), in)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"El formato del email no es válido"}, verr.Details)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSubmit_RepositoryError(t *testing.T) {
	repo := new(mockRepository)
	pub := new(mockPublisher)
	repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down"))

	_, err := fixedService(repo, pub).Submit(context.Background(), validInput())
	assert.ErrorContains(t, err, "store quote request")
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmit_PublishFailureIsNotFatal(t *testing.T) {
	repo := new(mockRepository)
	pub := new(mockPublisher)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	pub.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker down"))

	q, err := fixedService(repo, pub).Submit(context.Background(), validInput())
	require.NoError(t, err)
	assert.NotEmpty(t, q.ID)
}

func TestSubmit_NilPublisher(t *testing.T) {
	repo := new(mockRepository)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)

	_, err := fixedService(repo, nil).Submit(context.Background(), validInput())
	require.NoError(t, err)
}

func TestGet(t *testing.T) {
	repo := new(mockRepository)
	want := sampleQuote()
	repo.On("GetByID", mock.Anything, want.ID).Return(want, nil)

	got, err := fixedService(repo, nil).Get(context.Background(), want.ID)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
