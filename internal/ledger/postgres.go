package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/uniclima/storefront/pkg/database"
	apperrors "github.com/uniclima/storefront/pkg/errors"
)

// Repository implements Recorder using PostgreSQL.
type Repository struct {
	pool database.DBTX
}

var _ Recorder = (*Repository)(nil)

// NewRepository creates a PostgreSQL-backed ledger.
func NewRepository(pool database.DBTX) *Repository {
	return &Repository{pool: pool}
}

// Start inserts a new run in the running state.
func (r *Repository) Start(ctx context.Context, kind Kind, source string, dryRun bool) (_ *Run, err error) {
	run := &Run{
		ID:        uuid.New().String(),
		Kind:      kind,
		Source:    source,
		Status:    StatusRunning,
		DryRun:    dryRun,
		StartedAt: time.Now().UTC(),
	}

	query := `
		INSERT INTO import_runs (id, kind, source, status, dry_run, started_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	ctx, end := database.TraceQuery(ctx, "StartImportRun", query)
	defer func() { end(err) }()

	if _, err = r.pool.Exec(ctx, query, run.ID, string(run.Kind), run.Source, string(run.Status), run.DryRun, run.StartedAt); err != nil {
		return nil, fmt.Errorf("insert import run: %w", err)
	}
	return run, nil
}

// RecordRowError appends an errored row to its run.
func (r *Repository) RecordRowError(ctx context.Context, e RowError) (err error) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO import_row_errors (run_id, row_number, sku, message, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	ctx, end := database.TraceQuery(ctx, "RecordImportRowError", query)
	defer func() { end(err) }()

	if _, err = r.pool.Exec(ctx, query, e.RunID, e.Row, e.SKU, e.Message, e.CreatedAt); err != nil {
		return fmt.Errorf("insert import row error: %w", err)
	}
	return nil
}

// Finish stores the run's final counts and status.
func (r *Repository) Finish(ctx context.Context, run *Run, cause error) (err error) {
	finish(run, cause, time.Now().UTC())

	var failure *string
	if run.Failure != "" {
		failure = &run.Failure
	}

	query := `
		UPDATE import_runs
		SET status = $1, imported = $2, skipped = $3, errored = $4, total = $5,
		    failure = $6, finished_at = $7
		WHERE id = $8`

	ctx, end := database.TraceQuery(ctx, "FinishImportRun", query)
	defer func() { end(err) }()

	ct, err := r.pool.Exec(ctx, query,
		string(run.Status),
		run.Imported,
		run.Skipped,
		run.Errored,
		run.Total,
		failure,
		run.FinishedAt,
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("update import run: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("import run", run.ID)
	}
	return nil
}

// Get returns a run by id.
func (r *Repository) Get(ctx context.Context, id string) (_ *Run, err error) {
	query := `
		SELECT id, kind, source, status, dry_run, imported, skipped, errored, total,
		       failure, started_at, finished_at
		FROM import_runs
		WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "GetImportRun", query)
	defer func() { end(err) }()

	var (
		run          Run
		kind, status string
		failure      *string
	)
	err = r.pool.QueryRow(ctx, query, id).Scan(
		&run.ID,
		&kind,
		&run.Source,
		&status,
		&run.DryRun,
		&run.Imported,
		&run.Skipped,
		&run.Errored,
		&run.Total,
		&failure,
		&run.StartedAt,
		&run.FinishedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("import run", id)
		}
		return nil, fmt.Errorf("get import run: %w", err)
	}
	run.Kind = Kind(kind)
	run.Status = Status(status)
	if failure != nil {
		run.Failure = *failure
	}
	return &run, nil
}

// RowErrors lists the errored rows of a run in row order.
func (r *Repository) RowErrors(ctx context.Context, runID string) (_ []RowError, err error) {
	query := `
		SELECT run_id, row_number, sku, message, created_at
		FROM import_row_errors
		WHERE run_id = $1
		ORDER BY row_number`

	ctx, end := database.TraceQuery(ctx, "ListImportRowErrors", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("list import row errors: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (RowError, error) {
		var e RowError
		err := row.Scan(&e.RunID, &e.Row, &e.SKU, &e.Message, &e.CreatedAt)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan import row errors: %w", err)
	}
	return out, nil
}
