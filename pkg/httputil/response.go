package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	apperrors "github.com/uniclima/storefront/pkg/errors"
	"github.com/uniclima/storefront/pkg/logger"
	"github.com/uniclima/storefront/pkg/validator"
)

// Response is the JSON envelope of every /api/v1 response.
type Response struct {
	Data  any            `json:"data,omitempty"`
	Error *ErrorResponse `json:"error,omitempty"`
}

// ErrorResponse is the error half of Response.
type ErrorResponse struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// Messages for bare sentinels; an AppError brings its own.
var defaultMessages = map[string]string{
	"NOT_FOUND":           "resource not found",
	"ALREADY_EXISTS":      "resource already exists",
	"UNAUTHORIZED":        "authentication required",
	"FORBIDDEN":           "access denied",
	"PRECONDITION_FAILED": "precondition failed",
	"SERVICE_UNAVAILABLE": "upstream service unavailable",
	"INTERNAL_ERROR":      "an internal error occurred",
}

// WriteJSON encodes v with the given status. Encoding errors are dropped
// because the status line is already on the wire.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError answers with the code and status apperrors.Classify assigns to
// err. Only 500s are logged, through the request-scoped logger when the
// RequestLogger middleware stored one and fallback otherwise. Internal
// details never reach the body.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	code, status := apperrors.Classify(err)

	message := defaultMessages[code]
	var appErr *apperrors.AppError
	switch {
	case errors.As(err, &appErr) && status != http.StatusInternalServerError:
		message = appErr.Message
	case code == "INVALID_INPUT":
		message = err.Error()
	}

	if status == http.StatusInternalServerError {
		l := logger.FromContext(r.Context())
		if l == slog.Default() && fallback != nil {
			l = fallback
		}
		l.ErrorContext(r.Context(), "request failed",
			slog.String("error", err.Error()),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
	}

	WriteJSON(w, status, Response{Error: &ErrorResponse{
		Code:      code,
		Message:   message,
		RequestID: logger.CorrelationIDFromContext(r.Context()),
	}})
}

// WriteValidationError answers 400 with per-field messages when err came from
// the validator, or with err's text otherwise (malformed JSON, wrong types).
func WriteValidationError(w http.ResponseWriter, err error) {
	resp := &ErrorResponse{Code: "INVALID_INPUT", Message: err.Error()}
	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		resp = &ErrorResponse{Code: "VALIDATION_ERROR", Message: "request validation failed", Fields: valErr.Fields()}
	}
	WriteJSON(w, http.StatusBadRequest, Response{Error: resp})
}

// ParseUUID parses a path parameter, answering 400 INVALID_PARAMETER and
// returning false when it is not a UUID.
func ParseUUID(w http.ResponseWriter, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(param)
	if err != nil {
		WriteJSON(w, http.StatusBadRequest, Response{Error: &ErrorResponse{
			Code:    "INVALID_PARAMETER",
			Message: "invalid UUID: " + param,
		}})
		return uuid.Nil, false
	}
	return id, true
}
