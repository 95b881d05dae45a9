package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	connectAttempts = 3
	firstBackoff    = time.Second

	cannotConnectNow = "57P03"
)

// backoff is the wait after failed attempt n (0-based): 1s, 2s, 4s, each
// moved by up to a quarter either way.
func backoff(n int) time.Duration {
	base := firstBackoff << max(n, 0)
	quarter := int64(base) / 4
	return base - time.Duration(quarter) + time.Duration(rand.Int64N(2*quarter+1)) // #nosec G404 -- jitter only
}

// retry runs fn up to connectAttempts times while retryIf accepts its error.
func retry(ctx context.Context, logger *slog.Logger, op string, retryIf func(error) bool, fn func() error) error {
	var err error
	for n := 0; n < connectAttempts; n++ {
		if err = fn(); err == nil || !retryIf(err) {
			return err
		}
		if n == connectAttempts-1 {
			break
		}
		wait := backoff(n)
		if logger != nil {
			logger.Warn(op+" failed, retrying",
				slog.Int("attempt", n+1),
				slog.Int("max_attempts", connectAttempts),
				slog.Duration("backoff", wait),
				slog.String("error", err.Error()),
			)
		}
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return fmt.Errorf("%s: cancelled while retrying: %w", op, ctx.Err())
		case <-t.C:
		}
	}
	return fmt.Errorf("%s after %d attempts: %w", op, connectAttempts, err)
}

// Message fragments of transient network failures, as surfaced by pgx and
// the net package.
var connectionFailures = []string{
	"connection refused",
	"connection reset",
	"connection timed out",
	"broken pipe",
	"no such host",
	"i/o timeout",
	"dial tcp",
	"EOF",
	"server closed the connection unexpectedly",
	"could not connect",
}

// IsConnectionError separates a lost or refused connection, which is worth
// retrying, from errors the server reported, which are not. A server that
// is still starting up counts as a connection failure.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// SQLSTATE class 08 is connection exception.
		return strings.HasPrefix(pgErr.Code, "08") || pgErr.Code == cannotConnectNow
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	msg := err.Error()
	for _, frag := range connectionFailures {
		if strings.Contains(msg, frag) {
			return true
		}
	}
	return false
}
