package httpclient

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/uniclima/storefront/pkg/errors"
)

const (
	maxErrorBody    = 1 << 20
	maxErrorExcerpt = 200
)

// ParseResponseError translates a non-2xx response that carried no usable
// payload into an error. Statuses a caller can act on become AppErrors;
// everything else is a plain error naming the upstream. The body is fully
// consumed and closed.
func ParseResponseError(resp *http.Response, upstream string) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return fmt.Errorf("%s returned status %d (failed to read body: %w)", upstream, resp.StatusCode, err)
	}
	msg := fmt.Sprintf("%s returned status %d: %s", upstream, resp.StatusCode, excerpt(body, resp.StatusCode))

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return apperrors.Unauthorized(msg)
	case http.StatusForbidden:
		return apperrors.Forbidden(msg)
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return apperrors.ServiceUnavailable(msg)
	default:
		return fmt.Errorf("%s", msg)
	}
}

// excerpt shortens body to something fit for a log line. Markup pages from
// proxies are replaced by the status text.
func excerpt(body []byte, status int) string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] == '<' {
		return http.StatusText(status)
	}
	s := strings.Join(strings.Fields(string(body)), " ")
	if len(s) > maxErrorExcerpt {
		s = s[:maxErrorExcerpt] + "..."
	}
	return s
}
