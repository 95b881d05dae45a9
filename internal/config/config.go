// Package config holds the environment-driven configuration of the
// catalogctl and storefront binaries.
package config

import (
	"fmt"
	"net/url"
	"time"

	pkgconfig "github.com/uniclima/storefront/pkg/config"
	"github.com/uniclima/storefront/pkg/database"
	"github.com/uniclima/storefront/pkg/httpclient"
	"github.com/uniclima/storefront/pkg/tracing"
)

// Database is the PostgreSQL connection used by db:check, migrations, the
// import ledger and quote storage. Variable names follow the Vendure server.
type Database struct {
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     int    `env:"DB_PORT" envDefault:"5432"`
	Name     string `env:"DB_NAME" envDefault:"vendure"`
	User     string `env:"DB_USERNAME" envDefault:"vendure"`
	Password string `env:"DB_PASSWORD" envDefault:"vendure"`
	SSLMode  string `env:"DB_SSL_MODE" envDefault:"disable"`

	MaxConns int32 `env:"DB_MAX_CONNS" envDefault:"10"`
	MinConns int32 `env:"DB_MIN_CONNS" envDefault:"1"`

	SlowQueryThresholdMs int `env:"LOG_SLOW_QUERY_MS" envDefault:"500"`
}

// Postgres converts d into pool settings.
func (d Database) Postgres() database.PostgresConfig {
	cfg := database.DefaultPostgresConfig()
	cfg.Host = d.Host
	cfg.Port = d.Port
	cfg.DBName = d.Name
	cfg.User = d.User
	cfg.Password = d.Password
	cfg.SSLMode = d.SSLMode
	cfg.MaxConns = d.MaxConns
	cfg.MinConns = d.MinConns
	return cfg
}

// Upstream tunes the HTTP client and circuit breaker in front of Vendure.
type Upstream struct {
	Timeout      time.Duration `env:"VENDURE_TIMEOUT" envDefault:"30s"`
	MaxRetries   int           `env:"VENDURE_MAX_RETRIES" envDefault:"3"`
	RetryWaitMin time.Duration `env:"VENDURE_RETRY_WAIT_MIN" envDefault:"500ms"`
	RetryWaitMax time.Duration `env:"VENDURE_RETRY_WAIT_MAX" envDefault:"5s"`

	BreakerFailureRatio float64       `env:"VENDURE_BREAKER_FAILURE_RATIO" envDefault:"0.5"`
	BreakerMinRequests  uint32        `env:"VENDURE_BREAKER_MIN_REQUESTS" envDefault:"5"`
	BreakerTimeout      time.Duration `env:"VENDURE_BREAKER_TIMEOUT" envDefault:"30s"`
}

// HTTPClient converts u into client settings.
func (u Upstream) HTTPClient() httpclient.Config {
	cfg := httpclient.DefaultConfig()
	cfg.Timeout = u.Timeout
	cfg.MaxRetries = u.MaxRetries
	cfg.RetryWaitMin = u.RetryWaitMin
	cfg.RetryWaitMax = u.RetryWaitMax
	return cfg
}

// Breaker converts u into circuit breaker settings named name.
func (u Upstream) Breaker(name string) httpclient.CircuitBreakerConfig {
	cfg := httpclient.DefaultCircuitBreakerConfig(name)
	cfg.FailureRatio = u.BreakerFailureRatio
	cfg.MinRequests = u.BreakerMinRequests
	cfg.Timeout = u.BreakerTimeout
	return cfg
}

// Telemetry configures OpenTelemetry export.
type Telemetry struct {
	Enabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	Endpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	SampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// Tracing converts t into tracer settings for service.
func (t Telemetry) Tracing(service, environment, version string) tracing.Config {
	cfg := tracing.DefaultConfig(service)
	cfg.Enabled = t.Enabled
	cfg.OTLPEndpoint = t.Endpoint
	cfg.SampleRate = t.SampleRate
	cfg.Environment = environment
	if version != "" {
		cfg.ServiceVersion = version
	}
	return cfg
}

// Catalog is the configuration of the catalogctl command.
type Catalog struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"text"`

	Database  Database
	Upstream  Upstream
	Telemetry Telemetry

	AdminAPIURL   string `env:"VENDURE_ADMIN_API_URL" envDefault:"http://localhost:3000/admin-api"`
	ChannelToken  string `env:"VENDURE_CHANNEL_TOKEN"`
	LanguageCode  string `env:"VENDURE_LANGUAGE_CODE" envDefault:"es"`
	AdminUsername string `env:"SUPERADMIN_USERNAME" envDefault:"superadmin"`
	AdminPassword string `env:"SUPERADMIN_PASSWORD" envDefault:"superadmin"`

	ReferenceFile string `env:"REFERENCE_DATA_FILE"`
	CSVPath       string `env:"IMPORT_CSV_PATH" envDefault:"wc-product-export.csv"`

	// Ledger records seed and import runs in PostgreSQL.
	LedgerEnabled bool `env:"IMPORT_LEDGER_ENABLED" envDefault:"true"`

	// MetricsAddr, when set, serves /metrics for the duration of a run.
	MetricsAddr string `env:"CATALOG_METRICS_ADDR"`
}

// LoadCatalog reads catalogctl configuration from the environment.
func LoadCatalog() (*Catalog, error) {
	cfg := &Catalog{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load catalog config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Catalog) validate() error {
	if err := c.Database.validate(); err != nil {
		return err
	}
	if err := validateURL("VENDURE_ADMIN_API_URL", c.AdminAPIURL); err != nil {
		return err
	}
	if c.AdminUsername == "" {
		return fmt.Errorf("SUPERADMIN_USERNAME is required")
	}
	if c.LanguageCode == "" {
		return fmt.Errorf("VENDURE_LANGUAGE_CODE is required")
	}
	if err := c.Upstream.validate(); err != nil {
		return err
	}
	return c.Telemetry.validate()
}

// Storefront is the configuration of the storefront gateway.
type Storefront struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"json"`

	HTTPPort int `env:"STOREFRONT_HTTP_PORT" envDefault:"8080"`

	Database  Database
	Upstream  Upstream
	Telemetry Telemetry

	ShopAPIURL   string `env:"VENDURE_SHOP_API_URL" envDefault:"http://localhost:3000/shop-api"`
	ChannelToken string `env:"VENDURE_CHANNEL_TOKEN"`
	LanguageCode string `env:"VENDURE_LANGUAGE_CODE" envDefault:"es"`

	RedisHost     string        `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int           `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	CatalogTTL    time.Duration `env:"CATALOG_CACHE_TTL" envDefault:"5m"`

	// KafkaBrokers empty disables quote event publication.
	KafkaBrokers      []string      `env:"KAFKA_BROKERS" envSeparator:","`
	QuoteNotifyGroup  string        `env:"QUOTE_NOTIFY_GROUP" envDefault:"storefront-quote-notifier"`
	QuoteNotifyEmail  string        `env:"QUOTE_NOTIFY_EMAIL" envDefault:"ventas@uniclima.es"`
	IdempotencyWindow time.Duration `env:"QUOTE_IDEMPOTENCY_TTL" envDefault:"24h"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:3001" envSeparator:","`

	// CatalogMaxAge is the browser Cache-Control max-age of catalog reads, in seconds.
	CatalogMaxAge int `env:"CATALOG_MAX_AGE" envDefault:"60"`

	QuoteRateLimitRPS   float64 `env:"QUOTE_RATE_LIMIT_RPS" envDefault:"0.2"`
	QuoteRateLimitBurst int     `env:"QUOTE_RATE_LIMIT_BURST" envDefault:"5"`
	AuthRateLimitRPS    float64 `env:"AUTH_RATE_LIMIT_RPS" envDefault:"1"`
	AuthRateLimitBurst  int     `env:"AUTH_RATE_LIMIT_BURST" envDefault:"10"`

	PprofEnabled      bool     `env:"PPROF_ENABLED" envDefault:"false"`
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"10.0.0.0/8,172.16.0.0/12,192.168.0.0/16,127.0.0.0/8,::1/128" envSeparator:","`
}

// LoadStorefront reads storefront configuration from the environment.
func LoadStorefront() (*Storefront, error) {
	cfg := &Storefront{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Storefront) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if err := c.Database.validate(); err != nil {
		return err
	}
	if err := validateURL("VENDURE_SHOP_API_URL", c.ShopAPIURL); err != nil {
		return err
	}
	if c.RedisHost == "" {
		return fmt.Errorf("REDIS_HOST is required")
	}
	if c.QuoteRateLimitRPS > 0 && c.QuoteRateLimitBurst < 1 {
		return fmt.Errorf("QUOTE_RATE_LIMIT_BURST must be at least 1, got %d", c.QuoteRateLimitBurst)
	}
	if c.AuthRateLimitRPS > 0 && c.AuthRateLimitBurst < 1 {
		return fmt.Errorf("AUTH_RATE_LIMIT_BURST must be at least 1, got %d", c.AuthRateLimitBurst)
	}
	if c.CatalogTTL < 0 {
		return fmt.Errorf("CATALOG_CACHE_TTL must not be negative, got %s", c.CatalogTTL)
	}
	if err := c.Upstream.validate(); err != nil {
		return err
	}
	return c.Telemetry.validate()
}

// RedisConfig converts the Redis settings.
func (c *Storefront) RedisConfig() database.RedisConfig {
	return database.RedisConfig{
		Host:     c.RedisHost,
		Port:     c.RedisPort,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
}

func (d Database) validate() error {
	if d.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if d.Port < 1 || d.Port > 65535 {
		return fmt.Errorf("invalid DB_PORT: %d", d.Port)
	}
	if d.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	return nil
}

func (u Upstream) validate() error {
	if u.MaxRetries < 0 {
		return fmt.Errorf("VENDURE_MAX_RETRIES must not be negative, got %d", u.MaxRetries)
	}
	if u.BreakerFailureRatio <= 0 || u.BreakerFailureRatio > 1.0 {
		return fmt.Errorf("VENDURE_BREAKER_FAILURE_RATIO must be in (0, 1], got %f", u.BreakerFailureRatio)
	}
	return nil
}

func (t Telemetry) validate() error {
	if t.SampleRate < 0 || t.SampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", t.SampleRate)
	}
	return nil
}

func validateURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s must be an absolute URL, got %q", name, raw)
	}
	return nil
}
