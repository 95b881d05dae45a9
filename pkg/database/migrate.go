package database

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

const migrationSuffix = ".up.sql"

// MigrationFiles returns the names of all *.up.sql files at the root of
// migrations, sorted lexically. The sort order is the apply order.
func MigrationFiles(migrations fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(migrations, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), migrationSuffix) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

// RunMigrations applies every pending *.up.sql file of migrations in name
// order, each in its own transaction together with its schema_migrations
// row, and returns the versions it applied. A dropped connection restarts
// the pass up to three times; SQL errors stop it at once.
func RunMigrations(ctx context.Context, db DBTX, migrations fs.FS, logger *slog.Logger) ([]string, error) {
	var applied []string
	err := retry(ctx, logger, "run migrations", IsConnectionError, func() error {
		done, err := migrateOnce(ctx, db, migrations, logger)
		applied = append(applied, done...)
		return err
	})
	return applied, err
}

// AppliedMigration is a row of schema_migrations.
type AppliedMigration struct {
	Version   string
	AppliedAt time.Time
}

// AppliedMigrations lists recorded migrations, oldest first. A missing
// tracking table yields an empty list.
func AppliedMigrations(ctx context.Context, db DBTX) ([]AppliedMigration, error) {
	var exists bool
	if err := db.QueryRow(ctx, "SELECT to_regclass('public.schema_migrations') IS NOT NULL").Scan(&exists); err != nil {
		return nil, fmt.Errorf("check schema_migrations: %w", err)
	}
	if !exists {
		return nil, nil
	}

	rows, err := db.Query(ctx, "SELECT version, applied_at FROM schema_migrations ORDER BY version")
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (AppliedMigration, error) {
		var m AppliedMigration
		err := row.Scan(&m.Version, &m.AppliedAt)
		return m, err
	})
}

const createMigrationsTable = `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version    TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`

func migrateOnce(ctx context.Context, db DBTX, migrations fs.FS, logger *slog.Logger) ([]string, error) {
	if _, err := db.Exec(ctx, createMigrationsTable); err != nil {
		return nil, fmt.Errorf("create schema_migrations table: %w", err)
	}
	names, err := MigrationFiles(migrations)
	if err != nil {
		return nil, err
	}

	var applied []string
	for _, name := range names {
		var done bool
		if err := db.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)", name).Scan(&done); err != nil {
			return applied, fmt.Errorf("check migration %s: %w", name, err)
		}
		if done {
			logger.Debug("migration already applied", slog.String("version", name))
			continue
		}
		if err := applyMigration(ctx, db, migrations, name); err != nil {
			return applied, err
		}
		applied = append(applied, name)
		logger.Info("migration applied", slog.String("version", name))
	}
	return applied, nil
}

// applyMigration runs one file and records it in the same transaction.
func applyMigration(ctx context.Context, db DBTX, migrations fs.FS, name string) error {
	script, err := fs.ReadFile(migrations, name)
	if err != nil {
		return fmt.Errorf("read migration %s: %w", name, err)
	}
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin migration %s: %w", name, err)
	}
	step := "execute"
	_, err = tx.Exec(ctx, string(script))
	if err == nil {
		step = "record"
		_, err = tx.Exec(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", name)
	}
	if err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("%s migration %s: %w", step, name, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit migration %s: %w", name, err)
	}
	return nil
}
