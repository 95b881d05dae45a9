package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		sentinel error
		code     string
		status   int
		message  string
	}{
		{"not found", NotFound("import run", "4b1d"), ErrNotFound, "NOT_FOUND", http.StatusNotFound, `import run "4b1d" not found`},
		{"invalid input", InvalidInput("email is required"), ErrInvalidInput, "INVALID_INPUT", http.StatusBadRequest, "email is required"},
		{"unauthorized", Unauthorized("shop session expired"), ErrUnauthorized, "UNAUTHORIZED", http.StatusUnauthorized, "shop session expired"},
		{"forbidden", Forbidden("channel token rejected"), ErrForbidden, "FORBIDDEN", http.StatusForbidden, "channel token rejected"},
		{"unavailable", ServiceUnavailable("shop-api breaker open"), ErrServiceUnavail, "SERVICE_UNAVAILABLE", http.StatusServiceUnavailable, "shop-api breaker open"},
		{"precondition", PreconditionFailed("brand facet missing, run seed first"), ErrPrecondition, "PRECONDITION_FAILED", http.StatusPreconditionFailed, "brand facet missing, run seed first"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.sentinel)
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.Status)
			assert.Equal(t, tt.message, tt.err.Message)
			assert.Equal(t, fmt.Sprintf("%s: %s: %v", tt.code, tt.message, tt.sentinel), tt.err.Error())
		})
	}
}

func TestNew_UnknownSentinel(t *testing.T) {
	cause := errors.New("disk full")
	err := New(cause, "could not record run")

	assert.Equal(t, "INTERNAL_ERROR", err.Code)
	assert.Equal(t, http.StatusInternalServerError, err.Status)
	assert.ErrorIs(t, err, cause)
}

func TestAppError_WithoutCause(t *testing.T) {
	err := &AppError{Code: "RATE_LIMITED", Message: "slow down"}
	assert.Equal(t, "RATE_LIMITED: slow down", err.Error())
	assert.Nil(t, err.Unwrap())
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{"app error", Unauthorized("x"), "UNAUTHORIZED", http.StatusUnauthorized},
		{"wrapped app error", fmt.Errorf("login: %w", Forbidden("x")), "FORBIDDEN", http.StatusForbidden},
		{"bare sentinel", ErrAlreadyExists, "ALREADY_EXISTS", http.StatusConflict},
		{"wrapped sentinel", Wrap(ErrNotFound, "load quote"), "NOT_FOUND", http.StatusNotFound},
		{"custom status wins", &AppError{Code: "RATE_LIMITED", Status: http.StatusTooManyRequests, Err: ErrServiceUnavail}, "RATE_LIMITED", http.StatusTooManyRequests},
		{"unknown", errors.New("boom"), "INTERNAL_ERROR", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, status := Classify(tt.err)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.status, HTTPStatus(tt.err))
		})
	}
}

func TestKindsAreDistinct(t *testing.T) {
	seen := map[string]bool{}
	for _, k := range kinds {
		require.False(t, seen[k.code], k.code)
		seen[k.code] = true
		for _, other := range kinds {
			if other.sentinel != k.sentinel {
				assert.NotErrorIs(t, k.sentinel, other.sentinel)
			}
		}
	}
}

func TestWrap(t *testing.T) {
	err := Wrap(ErrPrecondition, "import aborted")
	assert.EqualError(t, err, "import aborted: precondition failed")
	assert.ErrorIs(t, err, ErrPrecondition)
}
