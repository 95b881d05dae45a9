// Package diagnostics inspects the catalog database and explains common
// connection failures.
package diagnostics

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/uniclima/storefront/pkg/database"
)

// MaxListedTables bounds the tables Check lists by name.
const MaxListedTables = 10

// Report is what Check found.
type Report struct {
	// Version is the server banner up to its first comma.
	Version string
	// Tables are backend tables in the public schema, by name.
	Tables []string
	// TableCount counts every table in the public schema.
	TableCount int
}

// Fresh reports whether the backend schema has not been created yet.
func (r *Report) Fresh() bool {
	return len(r.Tables) == 0
}

const (
	versionQuery = `SELECT version()`
	tablesQuery  = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public'
		  AND (table_name LIKE '%vendure%' OR table_name LIKE '%product%' OR table_name LIKE '%channel%')
		ORDER BY table_name
		LIMIT $1`
	countQuery = `
		SELECT COUNT(*)
		FROM information_schema.tables
		WHERE table_schema = 'public'`
)

// Check runs the read-only inspection queries against db.
func Check(ctx context.Context, db database.DBTX) (*Report, error) {
	var rep Report

	var banner string
	if err := db.QueryRow(ctx, versionQuery).Scan(&banner); err != nil {
		return nil, fmt.Errorf("query server version: %w", err)
	}
	rep.Version, _, _ = strings.Cut(banner, ",")

	rows, err := db.Query(ctx, tablesQuery, MaxListedTables)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	rep.Tables, err = pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan tables: %w", err)
	}

	if err := db.QueryRow(ctx, countQuery).Scan(&rep.TableCount); err != nil {
		return nil, fmt.Errorf("count tables: %w", err)
	}
	return &rep, nil
}

// SQLSTATE codes with a dedicated hint.
const (
	CodeInvalidCatalogName = "3D000"
	CodeInvalidPassword    = "28P01"
)

// Hint returns troubleshooting lines for a connection error, or nil when
// the error has no known cause. dbName is the database that was requested.
func Hint(err error, dbName string) []string {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case CodeInvalidCatalogName:
			return []string{
				"Database does not exist. Create it with:",
				fmt.Sprintf("  CREATE DATABASE %s;", dbName),
			}
		case CodeInvalidPassword:
			return []string{"Authentication failed. Check your DB_USERNAME and DB_PASSWORD"}
		}
	}
	if database.IsConnectionError(err) {
		return []string{
			"Troubleshooting tips:",
			"  1. Make sure PostgreSQL is running",
			"  2. Check if the database container is up: docker-compose up db",
			"  3. Verify the DB_HOST in your .env file",
		}
	}
	return nil
}
