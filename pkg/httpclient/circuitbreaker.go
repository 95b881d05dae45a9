package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker/v2"
)

// CircuitBreakerConfig sizes one breaker. The breaker opens once at least
// MinRequests were made in the current Interval and FailureRatio of them
// failed; it stays open for Timeout and then lets MaxRequests probes through.
type CircuitBreakerConfig struct {
	Name         string
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	FailureRatio float64
	MinRequests  uint32
}

func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:         name,
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      30 * time.Second,
		FailureRatio: 0.5,
		MinRequests:  5,
	}
}

var breakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Name: "circuit_breaker_state",
	Help: "Upstream circuit breaker state: 0 closed, 1 half-open, 2 open.",
}, []string{"name"})

var stateGauge = map[gobreaker.State]float64{
	gobreaker.StateClosed:   0,
	gobreaker.StateHalfOpen: 1,
	gobreaker.StateOpen:     2,
}

// ErrCircuitOpen is wrapped by every request rejected without reaching the
// upstream.
var ErrCircuitOpen = gobreaker.ErrOpenState

// ServerError reports a 5xx from the upstream. Those count against the
// breaker; 4xx answers are returned to the caller untouched.
type ServerError struct {
	Breaker    string
	StatusCode int
	Body       string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("%s: server error %d: %s", e.Breaker, e.StatusCode, e.Body)
}

// CircuitBreakerClient guards a Client so a failing Vendure API is not
// hammered by every storefront request.
type CircuitBreakerClient struct {
	name    string
	client  *Client
	breaker *gobreaker.CircuitBreaker[*http.Response]
}

var _ Doer = (*CircuitBreakerClient)(nil)

func NewCircuitBreakerClient(client *Client, cfg CircuitBreakerConfig, logger *slog.Logger) *CircuitBreakerClient {
	breakerState.WithLabelValues(cfg.Name).Set(stateGauge[gobreaker.StateClosed])
	cb := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.Requests >= cfg.MinRequests &&
				float64(c.TotalFailures) >= cfg.FailureRatio*float64(c.Requests)
		},
		// A caller that went away says nothing about the upstream.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			breakerState.WithLabelValues(name).Set(stateGauge[to])
			logger.Warn("circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})
	return &CircuitBreakerClient{name: cfg.Name, client: client, breaker: cb}
}

// Do sends req through the breaker. While the breaker is open or saturated
// with probes it fails fast with an error wrapping the gobreaker sentinel.
func (c *CircuitBreakerClient) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		resp, err := c.client.Do(ctx, req)
		if err != nil || resp.StatusCode < 500 {
			return resp, err
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, &ServerError{Breaker: c.name, StatusCode: resp.StatusCode, Body: string(body)}
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = fmt.Errorf("%s: %w", c.name, err)
	}
	return resp, err
}

func (c *CircuitBreakerClient) State() gobreaker.State {
	return c.breaker.State()
}

// Check fails while the breaker is open, for use as a readiness check.
func (c *CircuitBreakerClient) Check(context.Context) error {
	if c.State() == gobreaker.StateOpen {
		return fmt.Errorf("%s: %w", c.name, ErrCircuitOpen)
	}
	return nil
}
