package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/uniclima/storefront/internal/config"
	"github.com/uniclima/storefront/internal/quote"
	"github.com/uniclima/storefront/internal/shop"
	"github.com/uniclima/storefront/internal/storefront/cache"
	handler "github.com/uniclima/storefront/internal/storefront/handler/http"
	"github.com/uniclima/storefront/pkg/database"
	"github.com/uniclima/storefront/pkg/graphql"
	"github.com/uniclima/storefront/pkg/health"
	"github.com/uniclima/storefront/pkg/httpclient"
	pkgkafka "github.com/uniclima/storefront/pkg/kafka"
	"github.com/uniclima/storefront/pkg/middleware"
)

// App wires together all dependencies and runs the storefront gateway.
type App struct {
	cfg        *config.Storefront
	logger     *slog.Logger
	pool       *pgxpool.Pool
	rdb        *redis.Client
	producer   *pkgkafka.Producer
	dlq        *pkgkafka.DLQProducer
	consumer   *pkgkafka.Consumer
	httpServer *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Storefront, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// PostgreSQL stores quote requests.
	pgCfg := cfg.Database.Postgres()
	pool, err := database.NewPostgresPoolWithLogger(ctx, &pgCfg, logger)
	if err != nil {
		return nil, err
	}
	database.RegisterPoolMetrics(pool, "storefront")
	database.SetSlowQueryLogging(time.Duration(cfg.Database.SlowQueryThresholdMs)*time.Millisecond, logger)
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.Database.Host),
		slog.Int("port", cfg.Database.Port),
		slog.String("database", cfg.Database.Name),
	)

	// Redis backs the catalog cache and the notifier's idempotency store.
	rdb, err := database.NewRedisClient(ctx, cfg.RedisConfig())
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis", slog.String("addr", cfg.RedisConfig().Addr()))

	// Shop API client behind retries and a circuit breaker.
	doer := httpclient.NewCircuitBreakerClient(
		httpclient.New(cfg.Upstream.HTTPClient()),
		cfg.Upstream.Breaker("shop-api"),
		logger,
	)
	opts := []graphql.Option{
		graphql.WithName("shop-api"),
		graphql.WithLogger(logger),
		graphql.WithLanguageCode(cfg.LanguageCode),
	}
	if cfg.ChannelToken != "" {
		opts = append(opts, graphql.WithChannelToken(cfg.ChannelToken))
	}
	shopClient := shop.New(graphql.New(doer, cfg.ShopAPIURL, opts...), logger)
	catalog := cache.NewCachedCatalog(shopClient, rdb, cfg.CatalogTTL, logger)

	a := &App{cfg: cfg, logger: logger, pool: pool, rdb: rdb}

	// Quote events are optional: without brokers quotes are only stored.
	var publisher quote.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		a.dlq = pkgkafka.NewDLQProducer(cfg.KafkaBrokers, logger)
		publisher = a.producer

		notifier := quote.NewNotifier(quote.NewLogSender(logger), cfg.QuoteNotifyEmail, logger)
		store := pkgkafka.NewRedisIdempotencyStore(rdb, "quote-notify:", cfg.IdempotencyWindow)
		a.consumer = quote.NewConsumer(quote.ConsumerConfig{
			Brokers: cfg.KafkaBrokers,
			GroupID: cfg.QuoteNotifyGroup,
		}, notifier, store, a.dlq, logger)
		logger.Info("kafka quote events enabled", slog.Any("brokers", cfg.KafkaBrokers))
	} else {
		logger.Warn("KAFKA_BROKERS not set, quote events disabled")
	}

	quoteService := quote.NewService(quote.NewPostgresRepository(pool), publisher, logger)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.RegisterNonCritical("redis", func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	healthHandler.RegisterNonCritical("shop-api", doer.Check)
	if a.producer != nil {
		healthHandler.RegisterNonCritical("kafka", a.producer.Ping)
	}

	// HTTP router.
	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.CORSAllowedOrigins
	cors.Environment = cfg.Environment
	var pprofCIDRs []string
	if cfg.PprofEnabled {
		pprofCIDRs = cfg.PprofAllowedCIDRs
	}
	router := handler.NewRouter(
		handler.RouterConfig{
			CORS:          cors,
			QuoteLimit:    middleware.RateLimitConfig{RPS: cfg.QuoteRateLimitRPS, Burst: cfg.QuoteRateLimitBurst},
			AuthLimit:     middleware.RateLimitConfig{RPS: cfg.AuthRateLimitRPS, Burst: cfg.AuthRateLimitBurst},
			CatalogMaxAge: cfg.CatalogMaxAge,
			PprofCIDRs:    pprofCIDRs,
		},
		handler.NewQuoteHandler(quoteService, logger),
		handler.NewShopHandler(shopClient, catalog, logger),
		healthHandler,
		logger,
	)

	a.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return a, nil
}

// Run starts the HTTP server and the quote notifier, then blocks until the
// context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	if a.consumer != nil {
		go func() {
			if err := a.consumer.Start(ctx); err != nil {
				a.logger.Error("kafka consumer error", slog.String("error", err.Error()))
			}
		}()
	}

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case runErr = <-errCh:
	}

	a.Shutdown()
	return runErr
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	if a.consumer != nil {
		if err := a.consumer.Close(); err != nil {
			a.logger.Error("kafka consumer close error", slog.String("error", err.Error()))
		}
	}
	if a.dlq != nil {
		if err := a.dlq.Close(); err != nil {
			a.logger.Error("kafka dlq producer close error", slog.String("error", err.Error()))
		}
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
	}

	if err := a.rdb.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
	}
	a.pool.Close()

	a.logger.Info("application shutdown complete")
}
