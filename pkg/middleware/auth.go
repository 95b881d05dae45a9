package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/uniclima/storefront/pkg/httputil"
)

// ShopTokenHeader carries a refreshed shop session token back to the browser.
const ShopTokenHeader = "X-Shop-Token"

type shopTokenKey struct{}

// WithShopToken stores the customer's shop session token in ctx.
func WithShopToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, shopTokenKey{}, token)
}

// ShopTokenFromContext returns the token stored by ShopSession, or "".
func ShopTokenFromContext(ctx context.Context) string {
	if tok, ok := ctx.Value(shopTokenKey{}).(string); ok {
		return tok
	}
	return ""
}

// ShopSession lifts an optional "Authorization: Bearer <token>" header into
// the request context. The token is opaque here; the commerce backend is the
// one that validates it. A malformed header is rejected with 401.
func ShopSession() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}

			scheme, token, ok := strings.Cut(authHeader, " ")
			token = strings.TrimSpace(token)
			if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
				writeAuthError(w, "invalid authorization header format")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithShopToken(r.Context(), token)))
		})
	}
}

// RequireShopSession rejects requests that reach it without a shop token.
// Mount it after ShopSession.
func RequireShopSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ShopTokenFromContext(r.Context()) == "" {
			writeAuthError(w, "missing authorization header")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeAuthError(w http.ResponseWriter, message string) {
	httputil.WriteJSON(w, http.StatusUnauthorized, httputil.Response{
		Error: &httputil.ErrorResponse{Code: "UNAUTHORIZED", Message: message},
	})
}
