package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCacheControl(t *testing.T) {
	h := CacheControl(300)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products", nil))
	assert.Equal(t, "public, max-age=300", rec.Header().Get("Cache-Control"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/presupuesto", nil))
	assert.Empty(t, rec.Header().Get("Cache-Control"))

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req = req.WithContext(WithShopToken(req.Context(), "tok"))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "private, no-store", rec.Header().Get("Cache-Control"))
}
