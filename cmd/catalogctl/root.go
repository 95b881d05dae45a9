package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/uniclima/storefront/internal/backend"
	"github.com/uniclima/storefront/internal/backend/vendure"
	"github.com/uniclima/storefront/internal/config"
	"github.com/uniclima/storefront/internal/ledger"
	"github.com/uniclima/storefront/pkg/database"
	"github.com/uniclima/storefront/pkg/httpclient"
	"github.com/uniclima/storefront/pkg/logger"
	"github.com/uniclima/storefront/pkg/tracing"
)

// releaseTimeout bounds logout and flush calls made after ctx is done.
const releaseTimeout = 10 * time.Second

// Pool is the database handle commands run queries through.
type Pool interface {
	database.DBTX
	Close()
}

// deps opens the external connections a command needs.
type deps struct {
	loadConfig func() (*config.Catalog, error)
	openAdmin  func(ctx context.Context, cfg *config.Catalog, log *slog.Logger) (backend.Session, error)
	openDB     func(ctx context.Context, cfg *config.Catalog, log *slog.Logger) (Pool, error)
	stdout     io.Writer
	stderr     io.Writer
}

func defaultDeps() deps {
	return deps{
		loadConfig: config.LoadCatalog,
		openAdmin:  openVendure,
		openDB:     openPostgres,
		stdout:     os.Stdout,
		stderr:     os.Stderr,
	}
}

func openVendure(ctx context.Context, cfg *config.Catalog, log *slog.Logger) (backend.Session, error) {
	doer := httpclient.NewCircuitBreakerClient(
		httpclient.New(cfg.Upstream.HTTPClient()),
		cfg.Upstream.Breaker("admin-api"),
		log,
	)
	return vendure.Open(ctx, doer, vendure.Config{
		Endpoint:     cfg.AdminAPIURL,
		ChannelToken: cfg.ChannelToken,
		LanguageCode: cfg.LanguageCode,
		Username:     cfg.AdminUsername,
		Password:     cfg.AdminPassword,
	}, log)
}

func openPostgres(ctx context.Context, cfg *config.Catalog, log *slog.Logger) (Pool, error) {
	pgCfg := cfg.Database.Postgres()
	pool, err := database.NewPostgresPoolWithLogger(ctx, &pgCfg, log)
	if err != nil {
		return nil, err
	}
	database.SetSlowQueryLogging(time.Duration(cfg.Database.SlowQueryThresholdMs)*time.Millisecond, log)
	return pool, nil
}

// cli is the state shared by every subcommand once the root has run its
// setup.
type cli struct {
	deps

	cfg *config.Catalog
	log *slog.Logger
	out io.Writer

	cleanups []func(context.Context) error
}

// execute runs catalogctl with args and releases everything setup acquired,
// whatever the outcome.
func execute(ctx context.Context, args []string, d deps) error {
	c := &cli{deps: d}
	root := newRootCmd(c)
	root.SetArgs(args)
	root.SetOut(d.stdout)
	root.SetErr(d.stderr)

	err := root.ExecuteContext(ctx)
	if err != nil {
		if c.log != nil {
			c.log.Error("command failed", slog.String("error", err.Error()))
		} else {
			fmt.Fprintf(d.stderr, "Error: %v\n", err)
		}
	}
	c.release()
	return err
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "catalogctl",
		Short:         "Seed and import the Uniclima catalog",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd)
		},
	}
	root.AddCommand(
		newDBCheckCmd(c),
		newMigrateCmd(c),
		newSeedCmd(c),
		newImportCmd(c),
		newRunsCmd(c),
	)
	return root
}

func (c *cli) setup(cmd *cobra.Command) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	c.cfg = cfg
	c.out = cmd.OutOrStdout()
	c.log = logger.NewWithFormat("catalogctl", cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
	slog.SetDefault(c.log)

	shutdownTracer, err := tracing.InitTracer(cmd.Context(), cfg.Telemetry.Tracing("catalogctl", cfg.Environment, version))
	if err != nil {
		return fmt.Errorf("initialize tracing: %w", err)
	}
	c.onRelease(shutdownTracer)

	if cfg.MetricsAddr != "" {
		c.serveMetrics(cfg.MetricsAddr)
	}
	return nil
}

// serveMetrics exposes the process metrics for the duration of the run so a
// scraper or pushgateway sidecar can read the import counters.
func (c *cli) serveMetrics(addr string) {
	srv := &http.Server{
		Addr:              addr,
		Handler:           promhttp.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.log.Warn("metrics server error", slog.String("addr", addr), slog.String("error", err.Error()))
		}
	}()
	c.log.Info("serving metrics", slog.String("addr", addr))
	c.onRelease(srv.Shutdown)
}

func (c *cli) onRelease(fn func(context.Context) error) {
	c.cleanups = append(c.cleanups, fn)
}

// release runs the registered cleanups in reverse order.
func (c *cli) release() {
	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()
	for i := len(c.cleanups) - 1; i >= 0; i-- {
		if err := c.cleanups[i](ctx); err != nil && c.log != nil {
			c.log.Warn("cleanup failed", slog.String("error", err.Error()))
		}
	}
	c.cleanups = nil
}

// session opens the admin session. The returned close function logs out
// with a context that outlives cancellation of ctx.
func (c *cli) session(ctx context.Context) (backend.Session, func(), error) {
	s, err := c.openAdmin(ctx, c.cfg, c.log)
	if err != nil {
		return nil, nil, fmt.Errorf("open admin session: %w", err)
	}
	closeFn := func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
		defer cancel()
		if err := s.Close(ctx); err != nil {
			c.log.Warn("failed to close admin session", slog.String("error", err.Error()))
		}
	}
	return s, closeFn, nil
}

// recorder returns the run ledger. When the ledger database is unreachable
// the run continues unrecorded.
func (c *cli) recorder(ctx context.Context) (ledger.Recorder, func()) {
	if !c.cfg.LedgerEnabled {
		return ledger.Nop{}, func() {}
	}
	pool, err := c.openDB(ctx, c.cfg, c.log)
	if err != nil {
		c.log.Warn("run ledger unavailable, continuing without it",
			slog.String("error", err.Error()),
		)
		return ledger.Nop{}, func() {}
	}
	return ledger.NewRepository(pool), pool.Close
}

// startRun opens a run in rec. A ledger that cannot record the run, for
// example because migrate has not created its tables yet, is swapped for
// ledger.Nop so the catalog command still goes ahead.
func (c *cli) startRun(ctx context.Context, rec ledger.Recorder, kind ledger.Kind, source string, dryRun bool) (ledger.Recorder, *ledger.Run) {
	run, err := rec.Start(ctx, kind, source, dryRun)
	if err == nil {
		return rec, run
	}
	c.log.Warn("run ledger rejected the run, continuing without it",
		slog.String("kind", string(kind)),
		slog.String("error", err.Error()),
	)
	rec = ledger.Nop{}
	run, _ = rec.Start(ctx, kind, source, dryRun)
	return rec, run
}

// finishRun closes run in the ledger even when ctx was cancelled.
func (c *cli) finishRun(ctx context.Context, rec ledger.Recorder, run *ledger.Run, cause error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()
	if err := rec.Finish(ctx, run, cause); err != nil {
		c.log.Warn("failed to finish run", slog.String("run_id", run.ID), slog.String("error", err.Error()))
	}
}

func (c *cli) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}
