package diagnostics

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/uniclima/storefront/migrations"
	"github.com/uniclima/storefront/pkg/database"
)

// MigrationResult lists what a Migrate call applied and everything
// recorded afterwards.
type MigrationResult struct {
	Applied []string
	All     []database.AppliedMigration
}

// Migrate applies the pending embedded migrations.
func Migrate(ctx context.Context, db database.DBTX, logger *slog.Logger) (*MigrationResult, error) {
	applied, err := database.RunMigrations(ctx, db, migrations.FS, logger)
	if err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	all, err := database.AppliedMigrations(ctx, db)
	if err != nil {
		return nil, err
	}
	return &MigrationResult{Applied: applied, All: all}, nil
}
