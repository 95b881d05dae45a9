package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestLabels = []string{"service", "method", "route", "status"}

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests served, by chi route pattern.",
	}, requestLabels)

	httpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency, by chi route pattern.",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	}, requestLabels)

	httpInFlight = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "http_requests_in_flight",
		Help: "HTTP requests currently being served.",
	}, []string{"service"})
)

// routeLabel keeps metric cardinality bounded: product slugs and quote ids
// collapse into their chi pattern, unmatched paths into "unmatched".
func routeLabel(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// PrometheusMetrics counts and times requests per route. The upper bucket
// matches the router's 30s handler timeout.
func PrometheusMetrics(service string) func(http.Handler) http.Handler {
	inFlight := httpInFlight.WithLabelValues(service)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			inFlight.Inc()
			defer inFlight.Dec()

			start := time.Now()
			sw := wrapWriter(w)
			next.ServeHTTP(sw, r)

			labels := prometheus.Labels{
				"service": service,
				"method":  r.Method,
				"route":   routeLabel(r),
				"status":  strconv.Itoa(sw.status),
			}
			httpRequests.With(labels).Inc()
			httpLatency.With(labels).Observe(time.Since(start).Seconds())
		})
	}
}
