package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net"
	"net/http"
	"time"
)

// Doer sends one logical request. Client and CircuitBreakerClient both
// satisfy it, so GraphQL transports can take either.
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Config tunes a Client.
type Config struct {
	Timeout         time.Duration
	MaxRetries      int
	RetryWaitMin    time.Duration
	RetryWaitMax    time.Duration
	MaxConnsPerHost int
}

func DefaultConfig() Config {
	return Config{
		Timeout:         30 * time.Second,
		MaxRetries:      3,
		RetryWaitMin:    time.Second,
		RetryWaitMax:    5 * time.Second,
		MaxConnsPerHost: 100,
	}
}

type noRetryKey struct{}

// WithoutRetry limits Do to a single attempt for requests made with the
// returned context. Mutations such as addItemToOrder use it.
func WithoutRetry(ctx context.Context) context.Context {
	return context.WithValue(ctx, noRetryKey{}, true)
}

// Client is an http.Client that retries network failures and 5xx answers
// with capped exponential backoff.
type Client struct {
	hc  *http.Client
	cfg Config
}

func New(cfg Config) *Client {
	dialer := &net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}
	return &Client{
		cfg: cfg,
		hc: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				DialContext:           dialer.DialContext,
				ForceAttemptHTTP2:     true,
				MaxIdleConns:          100,
				MaxIdleConnsPerHost:   cfg.MaxConnsPerHost,
				MaxConnsPerHost:       cfg.MaxConnsPerHost,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ExpectContinueTimeout: time.Second,
			},
		},
	}
}

// attempts is how many times req may be sent. A body that cannot be
// rewound through GetBody is sent once.
func (c *Client) attempts(ctx context.Context, req *http.Request) int {
	if off, _ := ctx.Value(noRetryKey{}).(bool); off {
		return 1
	}
	if req.Body != nil && req.Body != http.NoBody && req.GetBody == nil {
		return 1
	}
	return c.cfg.MaxRetries + 1
}

// backoff is the wait before retry n (n >= 1).
func (c *Client) backoff(n int) time.Duration {
	d := c.cfg.RetryWaitMin
	for i := 1; i < n && d < c.cfg.RetryWaitMax; i++ {
		d *= 2
	}
	return jitter(min(d, c.cfg.RetryWaitMax))
}

// Do sends req, retrying network errors and 5xx answers other than 501.
// The last 5xx response is returned as is once retries run out.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)
	limit := c.attempts(ctx, req)

	for n := 1; ; n++ {
		if n > 1 {
			if err := sleep(ctx, c.backoff(n-1)); err != nil {
				return nil, err
			}
			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, fmt.Errorf("rewind request body: %w", err)
				}
				req.Body = body
			}
		}

		resp, err := c.hc.Do(req)
		last := n >= limit
		switch {
		case err != nil && retryable(err) && !last:
			continue
		case err != nil:
			return nil, fmt.Errorf("http request failed after %d attempts: %w", n, err)
		case resp.StatusCode >= 500 && resp.StatusCode != http.StatusNotImplemented && !last:
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
			continue
		}
		return resp, nil
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// jitter moves d by up to a quarter in either direction.
func jitter(d time.Duration) time.Duration {
	quarter := int64(d) / 4
	if quarter <= 0 {
		return d
	}
	return d - time.Duration(quarter) + time.Duration(rand.Int64N(2*quarter+1))
}

// retryable reports transport-level failures. Cancellation is not one.
func retryable(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr)
}
