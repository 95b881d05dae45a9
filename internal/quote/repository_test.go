package quote

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniclima/storefront/pkg/database"
	apperrors "github.com/uniclima/storefront/pkg/errors"
)

func sampleQuote() *Quote {
	return &Quote{
		ID:          "0b9f4c1e-6f0c-4d8e-9a57-3c1d2e4f5a6b",
		Name:        "Ana García",
		Email:       "ana@example.com",
		Phone:       "600123456",
		Comment:     "",
		ProductID:   "42",
		ProductName: "Válvula de Gas",
		CreatedAt:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

var quoteColumns = []string{"id", "name", "email", "phone", "comment", "product_id", "product_name", "created_at"}

func TestPostgresRepository_Create(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	q := sampleQuote()
	mock.ExpectExec("INSERT INTO quote_requests").
		WithArgs(q.ID, q.Name, q.Email, q.Phone, q.Comment, q.ProductID, q.ProductName, q.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, NewPostgresRepository(mock).Create(context.Background(), q))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_Create_Error(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("INSERT INTO quote_requests").WillReturnError(errors.New("boom"))

	err = NewPostgresRepository(mock).Create(context.Background(), sampleQuote())
	assert.ErrorContains(t, err, "insert quote request")
}

func TestPostgresRepository_GetByID(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	q := sampleQuote()
	mock.ExpectQuery("SELECT (.+) FROM quote_requests").
		WithArgs(q.ID).
		WillReturnRows(pgxmock.NewRows(quoteColumns).
			AddRow(q.ID, q.Name, q.Email, q.Phone, q.Comment, q.ProductID, q.ProductName, q.CreatedAt))

	got, err := NewPostgresRepository(mock).GetByID(context.Background(), q.ID)
	require.NoError(t, err)
	assert.Equal(t, q, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_GetByID_NotFound(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT (.+) FROM quote_requests").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err = NewPostgresRepository(mock).GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
