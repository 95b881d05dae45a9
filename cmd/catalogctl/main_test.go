package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniclima/storefront/internal/backend"
	"github.com/uniclima/storefront/internal/backend/memory"
	"github.com/uniclima/storefront/internal/config"
	"github.com/uniclima/storefront/internal/diagnostics"
	"github.com/uniclima/storefront/pkg/database"
)

const exportCSV = "ID,Tipo,SKU,Nombre,Publicado,Descripción corta,Descripción,¿Existencias?,Inventario,Precio rebajado,Precio normal,Categorías,Etiquetas,Imágenes\n" +
	`17,simple,ABC123,Válvula de Gas,1,,<p>Válvula original</p>,1,10,,"45,99",Válvulas de Gas,Saunier Duval,` + "\n" +
	`18,simple,,Sin SKU,1,,,1,1,,"10,00",,,` + "\n" +
	`19,simple,DEF456,Placa electrónica,0,Placa,,1,2,"80,00",,Placas,Junkers,` + "\n"

type harness struct {
	t      *testing.T
	cfg    *config.Catalog
	admin  *memory.Backend
	db     Pool
	dbErr  error
	stdout bytes.Buffer
	stderr bytes.Buffer

	adminOpened int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return &harness{
		t: t,
		cfg: &config.Catalog{
			Environment:  "test",
			LogLevel:     "error",
			LogFormat:    "text",
			Database:     config.Database{Host: "localhost", Port: 5432, Name: "vendure", User: "vendure"},
			LanguageCode: "es",
			CSVPath:      filepath.Join(t.TempDir(), "missing.csv"),
		},
		admin: memory.New(),
	}
}

func (h *harness) deps() deps {
	return deps{
		loadConfig: func() (*config.Catalog, error) { return h.cfg, nil },
		openAdmin: func(context.Context, *config.Catalog, *slog.Logger) (backend.Session, error) {
			h.adminOpened++
			return h.admin, nil
		},
		openDB: func(context.Context, *config.Catalog, *slog.Logger) (Pool, error) {
			if h.dbErr != nil {
				return nil, h.dbErr
			}
			if h.db == nil {
				return nil, errors.New("no database in this test")
			}
			return h.db, nil
		},
		stdout: &h.stdout,
		stderr: &h.stderr,
	}
}

func (h *harness) run(args ...string) error {
	h.stdout.Reset()
	h.stderr.Reset()
	return execute(context.Background(), args, h.deps())
}

func (h *harness) mockDB() pgxmock.PgxPoolIface {
	h.t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(h.t, err)
	h.db = mock
	return mock
}

func writeExport(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wc-product-export.csv")
	require.NoError(t, os.WriteFile(path, []byte(exportCSV), 0o600))
	return path
}

func TestSeed(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run("seed"))

	out := h.stdout.String()
	assert.Contains(t, out, "Seeding completed.")
	assert.Contains(t, out, "Zone:             1 created, 0 existing")
	assert.Contains(t, out, "Next step: Run the WooCommerce import")
	assert.Equal(t, 1, h.admin.CallCount("CreateZone"))
	assert.Equal(t, 1, h.adminOpened)
	assert.Equal(t, 1, h.admin.CallCount("Close"))

	// A second seed finds everything in place.
	require.NoError(t, h.run("seed"))
	assert.Contains(t, h.stdout.String(), "Zone:             0 created, 1 existing")
	assert.Equal(t, 1, h.admin.CallCount("CreateZone"))
}

func TestSeed_UnknownReferenceFile(t *testing.T) {
	h := newHarness(t)

	err := h.run("seed", "--reference", filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "open reference data")
	assert.Zero(t, h.adminOpened)
}

func TestImport(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.run("seed"))

	require.NoError(t, h.run("import", "--file", writeExport(t)))

	out := h.stdout.String()
	assert.Contains(t, out, "Import completed (live).")
	assert.Contains(t, out, "Imported: 2")
	assert.Contains(t, out, "Skipped:  1")
	assert.Contains(t, out, "Errors:   0")
	assert.Contains(t, out, "Total:    3")

	products := h.admin.Products()
	require.Len(t, products, 2)
	assert.Equal(t, "valvula-de-gas", products[0].Slug)
	assert.Len(t, h.admin.Variants(), 2)

	// Re-importing skips every row by slug.
	require.NoError(t, h.run("import", "--file", writeExport(t)))
	assert.Contains(t, h.stdout.String(), "Skipped:  3")
	assert.Len(t, h.admin.Products(), 2)
}

func TestImport_FileFromConfig(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.run("seed"))
	h.cfg.CSVPath = writeExport(t)

	require.NoError(t, h.run("import", "--limit", "1"))
	assert.Contains(t, h.stdout.String(), "Total:    1")
	assert.Len(t, h.admin.Products(), 1)
}

func TestImport_DryRunWritesNothing(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.run("seed"))

	require.NoError(t, h.run("import", "--dry-run", "--file", writeExport(t)))

	assert.Contains(t, h.stdout.String(), "Import completed (dry run).")
	assert.Contains(t, h.stdout.String(), "Imported: 2")
	assert.Empty(t, h.admin.Products())
	assert.Zero(t, h.admin.CallCount("CreateProduct"))
}

func TestImport_MissingFile(t *testing.T) {
	h := newHarness(t)

	err := h.run("import")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CSV file not found at: "+h.cfg.CSVPath)
	assert.Zero(t, h.adminOpened)
}

func TestImport_NegativeLimit(t *testing.T) {
	h := newHarness(t)

	err := h.run("import", "--limit", "-1", "--file", writeExport(t))
	assert.ErrorContains(t, err, "--limit must not be negative")
}

func TestImport_RecordsRunInLedger(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.run("seed"))

	h.cfg.LedgerEnabled = true
	mock := h.mockDB()
	mock.ExpectExec("INSERT INTO import_runs").
		WithArgs(pgxmock.AnyArg(), "import", pgxmock.AnyArg(), "running", false, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("UPDATE import_runs").
		WithArgs("completed", 2, 1, 0, 3, (*string)(nil), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, h.run("import", "--file", writeExport(t)))
	assert.Contains(t, h.stdout.String(), "catalogctl runs ")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImport_LedgerUnavailable(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.run("seed"))
	h.cfg.LedgerEnabled = true
	h.dbErr = errors.New("dial tcp: connection refused")

	require.NoError(t, h.run("import", "--file", writeExport(t)))
	assert.Contains(t, h.stdout.String(), "Imported: 2")
}

func TestLedgerMissingTables(t *testing.T) {
	missing := &pgconn.PgError{Code: "42P01", Message: `relation "import_runs" does not exist`}

	h := newHarness(t)
	h.cfg.LedgerEnabled = true

	mock := h.mockDB()
	mock.ExpectExec("INSERT INTO import_runs").
		WithArgs(pgxmock.AnyArg(), "seed", "embedded", "running", false, pgxmock.AnyArg()).
		WillReturnError(missing)

	require.NoError(t, h.run("seed"))
	assert.Contains(t, h.stdout.String(), "Seeding completed.")
	assert.Equal(t, 1, h.admin.CallCount("CreateZone"))
	assert.NoError(t, mock.ExpectationsWereMet())

	mock = h.mockDB()
	mock.ExpectExec("INSERT INTO import_runs").
		WithArgs(pgxmock.AnyArg(), "import", pgxmock.AnyArg(), "running", false, pgxmock.AnyArg()).
		WillReturnError(missing)

	require.NoError(t, h.run("import", "--file", writeExport(t)))
	out := h.stdout.String()
	assert.Contains(t, out, "Imported: 2")
	assert.NotContains(t, out, "catalogctl runs ")
	assert.Len(t, h.admin.Products(), 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminSessionFailure(t *testing.T) {
	h := newHarness(t)
	d := h.deps()
	d.openAdmin = func(context.Context, *config.Catalog, *slog.Logger) (backend.Session, error) {
		return nil, &backend.ResultError{Code: "INVALID_CREDENTIALS_ERROR", Message: "The provided credentials are invalid"}
	}

	err := execute(context.Background(), []string{"seed"}, d)
	assert.ErrorContains(t, err, "open admin session")
	assert.Contains(t, h.stderr.String(), "INVALID_CREDENTIALS_ERROR")
}

func TestConfigError(t *testing.T) {
	h := newHarness(t)
	d := h.deps()
	d.loadConfig = func() (*config.Catalog, error) { return nil, errors.New("DB_NAME is required") }

	err := execute(context.Background(), []string{"db:check"}, d)
	assert.ErrorContains(t, err, "DB_NAME is required")
	assert.Contains(t, h.stderr.String(), "Error: load config")
}

func TestDBCheck(t *testing.T) {
	h := newHarness(t)
	mock := h.mockDB()
	mock.ExpectQuery("SELECT version").
		WillReturnRows(pgxmock.NewRows([]string{"version"}).AddRow("PostgreSQL 16.2 on x86_64-pc-linux-gnu, 64-bit"))
	mock.ExpectQuery("SELECT table_name").
		WithArgs(diagnostics.MaxListedTables).
		WillReturnRows(pgxmock.NewRows([]string{"table_name"}).AddRow("channel").AddRow("product"))
	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(87))

	require.NoError(t, h.run("db:check"))

	out := h.stdout.String()
	assert.Contains(t, out, "Checking database connection...")
	assert.Contains(t, out, "Successfully connected to PostgreSQL!")
	assert.Contains(t, out, "PostgreSQL Version: PostgreSQL 16.2 on x86_64-pc-linux-gnu\n")
	assert.Contains(t, out, "Vendure tables found:\n  - channel\n  - product\n")
	assert.Contains(t, out, "Total tables in database: 87")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDBCheck_FreshDatabase(t *testing.T) {
	h := newHarness(t)
	mock := h.mockDB()
	mock.ExpectQuery("SELECT version").
		WillReturnRows(pgxmock.NewRows([]string{"version"}).AddRow("PostgreSQL 16.2"))
	mock.ExpectQuery("SELECT table_name").
		WithArgs(diagnostics.MaxListedTables).
		WillReturnRows(pgxmock.NewRows([]string{"table_name"}))
	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))

	require.NoError(t, h.run("db:check"))
	assert.Contains(t, h.stdout.String(), "No Vendure tables found (fresh database)\nRun migrations to initialize the schema.")
}

func TestDBCheck_MissingDatabase(t *testing.T) {
	h := newHarness(t)
	h.cfg.Database.Name = "uniclima"
	h.dbErr = &pgconn.PgError{Code: diagnostics.CodeInvalidCatalogName, Message: `database "uniclima" does not exist`}

	err := h.run("db:check")
	require.Error(t, err)
	assert.Contains(t, h.stdout.String(), "Database connection failed")
	assert.Contains(t, h.stdout.String(), "CREATE DATABASE uniclima;")
}

func TestRuns(t *testing.T) {
	h := newHarness(t)
	mock := h.mockDB()

	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	finished := started.Add(90 * time.Second)
	mock.ExpectQuery("FROM import_runs").
		WithArgs("run-1").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "kind", "source", "status", "dry_run", "imported", "skipped", "errored", "total",
			"failure", "started_at", "finished_at",
		}).AddRow("run-1", "import", "export.csv", "completed", false, 40, 2, 1, 43, (*string)(nil), started, &finished))
	mock.ExpectQuery("FROM import_row_errors").
		WithArgs("run-1").
		WillReturnRows(pgxmock.NewRows([]string{"run_id", "row_number", "sku", "message", "created_at"}).
			AddRow("run-1", 12, "XYZ9", "create product: boom", finished))

	require.NoError(t, h.run("runs", "run-1"))

	out := h.stdout.String()
	assert.Contains(t, out, "Run:      run-1")
	assert.Contains(t, out, "Status:   completed")
	assert.Contains(t, out, "Finished: 2026-03-01T12:01:30Z (1m30s)")
	assert.Contains(t, out, "Counts:   imported=40 skipped=2 errors=1 total=43")
	assert.Contains(t, out, "row 12  XYZ9  create product: boom")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRuns_RequiresID(t *testing.T) {
	h := newHarness(t)
	assert.Error(t, h.run("runs"))
}
