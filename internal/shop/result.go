package shop

import (
	"encoding/json"
	"fmt"
)

// ErrorCode identifies a named error member of a result union.
type ErrorCode string

const (
	ErrInvalidCredentials        ErrorCode = "INVALID_CREDENTIALS_ERROR"
	ErrNotVerified               ErrorCode = "NOT_VERIFIED_ERROR"
	ErrNativeAuthStrategy        ErrorCode = "NATIVE_AUTH_STRATEGY_ERROR"
	ErrMissingPassword           ErrorCode = "MISSING_PASSWORD_ERROR"
	ErrPasswordValidation        ErrorCode = "PASSWORD_VALIDATION_ERROR"
	ErrPasswordResetTokenInvalid ErrorCode = "PASSWORD_RESET_TOKEN_INVALID_ERROR"
	ErrPasswordResetTokenExpired ErrorCode = "PASSWORD_RESET_TOKEN_EXPIRED_ERROR"
	ErrVerificationTokenInvalid  ErrorCode = "VERIFICATION_TOKEN_INVALID_ERROR"
	ErrVerificationTokenExpired  ErrorCode = "VERIFICATION_TOKEN_EXPIRED_ERROR"
	ErrOrderModification         ErrorCode = "ORDER_MODIFICATION_ERROR"
	ErrOrderLimit                ErrorCode = "ORDER_LIMIT_ERROR"
	ErrNegativeQuantity          ErrorCode = "NEGATIVE_QUANTITY_ERROR"
	ErrInsufficientStock         ErrorCode = "INSUFFICIENT_STOCK_ERROR"
)

// ErrorResult is the error member of a result union.
type ErrorResult struct {
	Typename string    `json:"__typename"`
	Code     ErrorCode `json:"errorCode"`
	Message  string    `json:"message"`

	// Set on PasswordValidationError.
	ValidationErrorMessage string `json:"validationErrorMessage,omitempty"`
	// Set on InsufficientStockError.
	QuantityAvailable *int `json:"quantityAvailable,omitempty"`
}

func (e *ErrorResult) Error() string {
	if e.ValidationErrorMessage != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Message, e.ValidationErrorMessage)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Result is a decoded union: exactly one of Value and Err is set, and
// Typename names the member that came back.
type Result[T any] struct {
	Typename string       `json:"__typename"`
	Value    *T           `json:"value,omitempty"`
	Err      *ErrorResult `json:"error,omitempty"`
}

// OK reports whether the success member came back.
func (r Result[T]) OK() bool {
	return r.Err == nil && r.Value != nil
}

// Is reports whether the result is the error member with code.
func (r Result[T]) Is(code ErrorCode) bool {
	return r.Err != nil && r.Err.Code == code
}

// decodeResult decodes raw into the success type when its __typename is one
// of success, and into an ErrorResult when it carries an errorCode.
func decodeResult[T any](raw json.RawMessage, success ...string) (Result[T], error) {
	var probe ErrorResult
	if err := json.Unmarshal(raw, &probe); err != nil {
		return Result[T]{}, fmt.Errorf("decode result union: %w", err)
	}
	if probe.Code != "" {
		return Result[T]{Typename: probe.Typename, Err: &probe}, nil
	}
	for _, s := range success {
		if probe.Typename == s {
			var v T
			if err := json.Unmarshal(raw, &v); err != nil {
				return Result[T]{}, fmt.Errorf("decode %s: %w", s, err)
			}
			return Result[T]{Typename: probe.Typename, Value: &v}, nil
		}
	}
	return Result[T]{}, fmt.Errorf("unexpected result type %q", probe.Typename)
}
