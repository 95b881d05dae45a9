package middleware

import (
	"log/slog"
	"net/http"

	"github.com/uniclima/storefront/pkg/logger"
)

// RequestLogger stores a request-scoped logger in the context, enriched with
// correlation_id, trace_id and span_id, plus shop_session=true when the
// caller presented a shop token. Handlers read it with logger.FromContext.
//
// Mount it after RequestLogging, Tracing and ShopSession.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			enriched := logger.WithContext(ctx, base)
			if ShopTokenFromContext(ctx) != "" {
				enriched = enriched.With(slog.Bool("shop_session", true))
			}

			next.ServeHTTP(w, r.WithContext(logger.NewContext(ctx, enriched)))
		})
	}
}
