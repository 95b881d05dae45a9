package quote

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/uniclima/storefront/pkg/database"
	apperrors "github.com/uniclima/storefront/pkg/errors"
)

// Repository persists quote requests.
type Repository interface {
	Create(ctx context.Context, q *Quote) error
	GetByID(ctx context.Context, id string) (*Quote, error)
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	pool database.DBTX
}

// NewPostgresRepository creates a PostgreSQL-backed quote repository.
func NewPostgresRepository(pool database.DBTX) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Create inserts a quote request.
func (r *PostgresRepository) Create(ctx context.Context, q *Quote) (err error) {
	query := `
		INSERT INTO quote_requests (id, name, email, phone, comment, product_id, product_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	ctx, end := database.TraceQuery(ctx, "CreateQuoteRequest", query)
	defer func() { end(err) }()

	_, err = r.pool.Exec(ctx, query,
		q.ID,
		q.Name,
		q.Email,
		q.Phone,
		q.Comment,
		q.ProductID,
		q.ProductName,
		q.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert quote request: %w", err)
	}
	return nil
}

// GetByID retrieves a quote request by its ID.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (_ *Quote, err error) {
	query := `
		SELECT id, name, email, phone, comment, product_id, product_name, created_at
		FROM quote_requests
		WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "GetQuoteRequest", query)
	defer func() { end(err) }()

	var q Quote
	err = r.pool.QueryRow(ctx, query, id).Scan(
		&q.ID,
		&q.Name,
		&q.Email,
		&q.Phone,
		&q.Comment,
		&q.ProductID,
		&q.ProductName,
		&q.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("quote request", id)
		}
		return nil, fmt.Errorf("get quote request: %w", err)
	}
	return &q, nil
}
