package middleware

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
)

// CORSConfig describes which browser origins may call the storefront API.
// A "*" entry, or Environment "development", allows every origin.
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	MaxAge           int // seconds
	AllowCredentials bool
	Environment      string
}

var (
	defaultCORSMethods = []string{
		http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions,
	}
	defaultCORSHeaders = []string{"Accept", "Authorization", "Content-Type", CorrelationIDHeader, ShopTokenHeader}
)

// DefaultCORSConfig allows any origin and exposes the correlation and shop
// session headers so the web client can persist the session token.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedOrigins: []string{"*"},
		AllowedMethods: slices.Clone(defaultCORSMethods),
		AllowedHeaders: slices.Clone(defaultCORSHeaders),
		ExposedHeaders: []string{CorrelationIDHeader, ShopTokenHeader},
		MaxAge:         3600,
		Environment:    "development",
	}
}

type corsPolicy struct {
	anyOrigin   bool
	origins     map[string]bool
	static      http.Header
	credentials bool
}

func newCORSPolicy(cfg CORSConfig) corsPolicy {
	methods := cfg.AllowedMethods
	if len(methods) == 0 {
		methods = defaultCORSMethods
	}
	headers := cfg.AllowedHeaders
	if len(headers) == 0 {
		headers = defaultCORSHeaders
	}
	maxAge := cfg.MaxAge
	if maxAge == 0 {
		maxAge = 3600
	}

	p := corsPolicy{
		anyOrigin:   cfg.Environment == "development" || slices.Contains(cfg.AllowedOrigins, "*"),
		origins:     make(map[string]bool, len(cfg.AllowedOrigins)),
		static:      http.Header{},
		credentials: cfg.AllowCredentials,
	}
	for _, o := range cfg.AllowedOrigins {
		p.origins[o] = true
	}
	p.static.Set("Access-Control-Allow-Methods", strings.Join(methods, ", "))
	p.static.Set("Access-Control-Allow-Headers", strings.Join(headers, ", "))
	p.static.Set("Access-Control-Max-Age", strconv.Itoa(maxAge))
	if len(cfg.ExposedHeaders) > 0 {
		p.static.Set("Access-Control-Expose-Headers", strings.Join(cfg.ExposedHeaders, ", "))
	}
	if cfg.AllowCredentials {
		p.static.Set("Access-Control-Allow-Credentials", "true")
	}
	return p
}

func (p corsPolicy) apply(h http.Header, origin string) {
	switch {
	case p.anyOrigin:
		h.Set("Access-Control-Allow-Origin", "*")
	case origin != "" && p.origins[origin]:
		h.Set("Access-Control-Allow-Origin", origin)
		h.Add("Vary", "Origin")
	}
	for k, v := range p.static {
		h[k] = v
	}
}

// CORS sets the cross-origin headers on every response and answers
// preflight requests with 204 without reaching the router.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	policy := newCORSPolicy(cfg)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			policy.apply(w.Header(), r.Header.Get("Origin"))
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
