package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel kinds. Wrap them, or build an AppError with New, and callers can
// classify the failure with errors.Is.
var (
	ErrNotFound       = errors.New("resource not found")
	ErrAlreadyExists  = errors.New("resource already exists")
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrServiceUnavail = errors.New("service unavailable")

	// ErrPrecondition marks a fatal precondition failure: required reference
	// data or input is missing and the operation must not start.
	ErrPrecondition = errors.New("precondition failed")
)

type kind struct {
	sentinel error
	code     string
	status   int
}

var kinds = []kind{
	{ErrNotFound, "NOT_FOUND", http.StatusNotFound},
	{ErrAlreadyExists, "ALREADY_EXISTS", http.StatusConflict},
	{ErrInvalidInput, "INVALID_INPUT", http.StatusBadRequest},
	{ErrUnauthorized, "UNAUTHORIZED", http.StatusUnauthorized},
	{ErrForbidden, "FORBIDDEN", http.StatusForbidden},
	{ErrPrecondition, "PRECONDITION_FAILED", http.StatusPreconditionFailed},
	{ErrServiceUnavail, "SERVICE_UNAVAILABLE", http.StatusServiceUnavailable},
}

// AppError is an error with a stable machine code and the HTTP status the
// storefront answers with.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

// New builds an AppError of the given sentinel kind. An unknown sentinel
// yields an INTERNAL_ERROR wrapping it.
func New(sentinel error, message string) *AppError {
	for _, k := range kinds {
		if k.sentinel == sentinel {
			return &AppError{Code: k.code, Message: message, Status: k.status, Err: sentinel}
		}
	}
	return &AppError{Code: "INTERNAL_ERROR", Message: message, Status: http.StatusInternalServerError, Err: sentinel}
}

// NotFound reports a missing resource by its identifier (id, slug or code).
func NotFound(resource, id string) *AppError {
	return New(ErrNotFound, fmt.Sprintf("%s %q not found", resource, id))
}

// InvalidInput reports a request the caller must fix.
func InvalidInput(message string) *AppError { return New(ErrInvalidInput, message) }

// Unauthorized reports a missing or rejected session.
func Unauthorized(message string) *AppError { return New(ErrUnauthorized, message) }

// Forbidden reports an authenticated caller lacking permission.
func Forbidden(message string) *AppError { return New(ErrForbidden, message) }

// ServiceUnavailable reports an upstream that is down or shedding load.
func ServiceUnavailable(message string) *AppError { return New(ErrServiceUnavail, message) }

// PreconditionFailed creates a 412 error. Commands treat it as fatal.
func PreconditionFailed(message string) *AppError { return New(ErrPrecondition, message) }

// Wrap annotates err with message, keeping it classifiable.
func Wrap(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}

// Classify returns the code and HTTP status for err: an AppError's own, else
// the first sentinel err wraps, else INTERNAL_ERROR/500.
func Classify(err error) (code string, status int) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code, appErr.Status
	}
	for _, k := range kinds {
		if errors.Is(err, k.sentinel) {
			return k.code, k.status
		}
	}
	return "INTERNAL_ERROR", http.StatusInternalServerError
}

// HTTPStatus returns the HTTP status the storefront answers err with.
func HTTPStatus(err error) int {
	_, status := Classify(err)
	return status
}
