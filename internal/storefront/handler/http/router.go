package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/uniclima/storefront/pkg/health"
	"github.com/uniclima/storefront/pkg/middleware"
)

// RouterConfig holds the HTTP concerns that vary per deployment.
type RouterConfig struct {
	CORS          middleware.CORSConfig
	QuoteLimit    middleware.RateLimitConfig
	AuthLimit     middleware.RateLimitConfig
	CatalogMaxAge int
	PprofCIDRs    []string
}

// NewRouter creates a chi router with the quote endpoint, the shop facade
// and the operational endpoints.
func NewRouter(
	cfg RouterConfig,
	quotes *QuoteHandler,
	shopHandler *ShopHandler,
	healthHandler *health.Handler,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("storefront"))
	r.Use(middleware.Tracing("storefront"))
	r.Use(middleware.ShopSession())
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	if len(cfg.PprofCIDRs) > 0 {
		middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)
	}

	// Quote form endpoint, kept at the path the storefront posts to.
	r.Route("/api/presupuesto", func(r chi.Router) {
		r.With(middleware.RateLimit(cfg.QuoteLimit, logger)).Post("/", quotes.Submit)
		r.MethodNotAllowed(quotes.MethodNotAllowed)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ShopSession)

		r.Get("/quotes/{id}", quotes.Get)

		r.Group(func(r chi.Router) {
			r.Use(middleware.CacheControl(cfg.CatalogMaxAge))

			r.Get("/products", shopHandler.ListProducts)
			r.Get("/products/{slug}", shopHandler.GetProduct)
			r.Get("/collections", shopHandler.ListCollections)
			r.Get("/collections/{slug}/products", shopHandler.CollectionProducts)
			r.Get("/search", shopHandler.Search)
			r.Get("/facets", shopHandler.ListFacets)
		})

		r.Route("/auth", func(r chi.Router) {
			r.Use(middleware.RateLimit(cfg.AuthLimit, logger))

			r.Post("/login", shopHandler.Login)
			r.Post("/register", shopHandler.Register)
			r.Post("/verify", shopHandler.Verify)
			r.Post("/password-reset/request", shopHandler.RequestPasswordReset)
			r.Post("/password-reset", shopHandler.ResetPassword)
			r.With(middleware.RequireShopSession).Post("/logout", shopHandler.Logout)
		})

		r.Route("/account", func(r chi.Router) {
			r.Use(middleware.RequireShopSession)

			r.Get("/", shopHandler.GetAccount)
			r.Patch("/", shopHandler.UpdateAccount)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", shopHandler.GetCart)
			r.Post("/lines", shopHandler.AddLine)
			r.Patch("/lines/{lineId}", shopHandler.AdjustLine)
			r.Delete("/lines/{lineId}", shopHandler.RemoveLine)
		})
	})

	return r
}
