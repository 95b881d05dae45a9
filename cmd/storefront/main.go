package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/uniclima/storefront/internal/config"
	"github.com/uniclima/storefront/internal/storefront/app"
	pkgconfig "github.com/uniclima/storefront/pkg/config"
	"github.com/uniclima/storefront/pkg/logger"
	"github.com/uniclima/storefront/pkg/tracing"
)

var version = "dev"

func main() {
	if err := pkgconfig.LoadDotEnv(); err != nil {
		slog.Error("failed to load .env", slog.String("error", err.Error()))
		os.Exit(1)
	}

	cfg, err := config.LoadStorefront()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log := logger.NewWithFormat("storefront", cfg.LogLevel, cfg.LogFormat, os.Stdout)
	slog.SetDefault(log)
	log.Info("starting storefront gateway",
		slog.String("environment", cfg.Environment),
		slog.String("version", version),
		slog.Int("http_port", cfg.HTTPPort),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	shutdownTracer, err := tracing.InitTracer(ctx, cfg.Telemetry.Tracing("storefront", cfg.Environment, version))
	if err != nil {
		log.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := run(ctx, cfg, log); err != nil {
		log.Error("application error", slog.String("error", err.Error()))
		_ = shutdownTracer(context.Background())
		os.Exit(1)
	}

	if err := shutdownTracer(context.Background()); err != nil {
		log.Warn("tracer shutdown error", slog.String("error", err.Error()))
	}
	log.Info("storefront gateway stopped")
}

func run(ctx context.Context, cfg *config.Storefront, log *slog.Logger) error {
	application, err := app.NewApp(cfg, log)
	if err != nil {
		return err
	}
	return application.Run(ctx)
}
