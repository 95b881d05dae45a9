package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

func TestShopSession_NoHeaderPassesThrough(t *testing.T) {
	var token string
	h := ShopSession()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token = ShopTokenFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, token)
}

func TestShopSession_BearerStored(t *testing.T) {
	var token string
	h := ShopSession()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token = ShopTokenFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/account", nil)
	req.Header.Set("Authorization", "bearer abc123")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "abc123", token)
}

func TestShopSession_MalformedHeader(t *testing.T) {
	for _, header := range []string{"Basic dXNlcjpwYXNz", "Bearer", "Bearer   ", "token"} {
		h := ShopSession()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatalf("handler reached for %q", header)
		}))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, header)
	}
}

func TestRequireShopSession(t *testing.T) {
	r := chi.NewRouter()
	r.Use(ShopSession())
	r.With(RequireShopSession).Get("/api/account", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/account", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "UNAUTHORIZED")

	req := httptest.NewRequest(http.MethodGet, "/api/account", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
