package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// MaxBodyBytes bounds the JSON bodies DecodeAndValidate reads.
const MaxBodyBytes = 1 << 20

var validate = newValidate()

// looseEmail accepts anything shaped like local@domain.tld, matching what the
// storefront forms accept client-side.
var looseEmail = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON name when one is declared.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	_ = v.RegisterValidation("trimmed_min", func(fl validator.FieldLevel) bool {
		n, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		return utf8.RuneCountInString(strings.TrimSpace(fl.Field().String())) >= n
	})
	_ = v.RegisterValidation("loose_email", func(fl validator.FieldLevel) bool {
		return looseEmail.MatchString(fl.Field().String())
	})
	return v
}

// Validate checks s against its `validate` struct tags. Tag violations come
// back as *ValidationError.
func Validate(s any) error {
	err := validate.Struct(s)
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		return &ValidationError{Errors: fieldErrs}
	}
	return err
}

// ValidationError lists the failed fields of one struct.
type ValidationError struct {
	Errors validator.ValidationErrors
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		msgs = append(msgs, fmt.Sprintf("field '%s' %s", fe.Field(), describe(fe)))
	}
	return strings.Join(msgs, "; ")
}

// Fields maps each failed field's JSON name to a readable message.
func (e *ValidationError) Fields() map[string]string {
	fields := make(map[string]string, len(e.Errors))
	for _, fe := range e.Errors {
		fields[fe.Field()] = describe(fe)
	}
	return fields
}

// Messages per tag; %s receives the tag parameter.
var tagMessages = map[string]string{
	"required":    "is required",
	"email":       "must be a valid email address",
	"loose_email": "must be a valid email address",
	"trimmed_min": "must be at least %s characters after trimming",
	"min":         "must be at least %s",
	"max":         "must be at most %s",
	"gte":         "must be greater than or equal to %s",
	"lte":         "must be less than or equal to %s",
	"uuid":        "must be a valid UUID",
	"url":         "must be a valid URL",
	"oneof":       "must be one of: %s",
}

func describe(fe validator.FieldError) string {
	msg, ok := tagMessages[fe.Tag()]
	if !ok {
		return fmt.Sprintf("failed on '%s' validation", fe.Tag())
	}
	if !strings.Contains(msg, "%s") {
		return msg
	}
	param := fe.Param()
	if (fe.Tag() == "min" || fe.Tag() == "max") && fe.Kind() == reflect.String {
		param += " characters"
	}
	return fmt.Sprintf(msg, param)
}

// DecodeAndValidate decodes a JSON body of at most MaxBodyBytes into dst and
// validates it. Decoding failures are returned as plain errors, tag
// violations as *ValidationError.
func DecodeAndValidate(r *http.Request, dst any) error {
	if err := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes)).Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return Validate(dst)
}
