package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func corsRequest(cfg CORSConfig, method, origin string) (*httptest.ResponseRecorder, bool) {
	reached := false
	h := CORS(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	}))
	req := httptest.NewRequest(method, "/api/presupuesto", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec, reached
}

func productionCORS(origins ...string) CORSConfig {
	return CORSConfig{AllowedOrigins: origins, Environment: "production"}
}

func TestCORS_AllowOrigin(t *testing.T) {
	tests := []struct {
		name     string
		cfg      CORSConfig
		origin   string
		want     string
		wantVary bool
	}{
		{"development allows any", DefaultCORSConfig(), "http://localhost:3001", "*", false},
		{"development without origin", DefaultCORSConfig(), "", "*", false},
		{"listed origin echoed", productionCORS("https://uniclima.es", "https://www.uniclima.es"), "https://www.uniclima.es", "https://www.uniclima.es", true},
		{"unlisted origin gets nothing", productionCORS("https://uniclima.es"), "https://evil.example", "", false},
		{"no origin gets nothing", productionCORS("https://uniclima.es"), "", "", false},
		{"explicit wildcard in production", productionCORS("https://uniclima.es", "*"), "https://partner.example", "*", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, reached := corsRequest(tt.cfg, http.MethodPost, tt.origin)
			assert.True(t, reached)
			assert.Equal(t, tt.want, rec.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tt.wantVary, rec.Header().Get("Vary") == "Origin")
		})
	}
}

func TestCORS_Preflight(t *testing.T) {
	rec, reached := corsRequest(productionCORS("https://uniclima.es"), http.MethodOptions, "https://uniclima.es")

	assert.False(t, reached)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "GET, POST, PUT, PATCH, DELETE, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Accept, Authorization, Content-Type, X-Correlation-ID, X-Shop-Token", rec.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "3600", rec.Header().Get("Access-Control-Max-Age"))
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))
	assert.Empty(t, rec.Header().Get("Access-Control-Expose-Headers"))
}

func TestCORS_CustomConfig(t *testing.T) {
	cfg := CORSConfig{
		AllowedOrigins:   []string{"https://uniclima.es"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost},
		AllowedHeaders:   []string{"Content-Type"},
		ExposedHeaders:   []string{ShopTokenHeader},
		MaxAge:           600,
		AllowCredentials: true,
	}
	rec, _ := corsRequest(cfg, http.MethodGet, "https://uniclima.es")

	assert.Equal(t, "GET, POST", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type", rec.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "X-Shop-Token", rec.Header().Get("Access-Control-Expose-Headers"))
	assert.Equal(t, "600", rec.Header().Get("Access-Control-Max-Age"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestDefaultCORSConfig_ExposesSessionHeaders(t *testing.T) {
	cfg := DefaultCORSConfig()
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Contains(t, cfg.AllowedHeaders, ShopTokenHeader)
	assert.ElementsMatch(t, []string{CorrelationIDHeader, ShopTokenHeader}, cfg.ExposedHeaders)

	cfg.AllowedMethods[0] = "TRACE"
	assert.Equal(t, http.MethodGet, DefaultCORSConfig().AllowedMethods[0])
}
