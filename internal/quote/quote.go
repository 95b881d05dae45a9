// Package quote handles customer requests for a price quote on a product:
// validation, sanitising, persistence and notification of the sales team.
package quote

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/uniclima/storefront/pkg/validator"
)

// Quote is a stored quote request. Text fields are HTML-escaped.
type Quote struct {
	ID          string    `json:"id"`
	Name        string    `json:"nombre"`
	Email       string    `json:"email"`
	Phone       string    `json:"telefono"`
	Comment     string    `json:"comentario"`
	ProductID   string    `json:"productoId"`
	ProductName string    `json:"productoNombre"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Input is the request body as sent by the storefront form. Fields are
// untyped so that a value of the wrong JSON type is reported like a
// missing one.
type Input struct {
	Name        any `json:"nombre"`
	Email       any `json:"email"`
	Phone       any `json:"telefono"`
	Comment     any `json:"comentario"`
	ProductID   any `json:"productoId"`
	ProductName any `json:"productoNombre"`
}

// DecodeInput parses a JSON request body.
func DecodeInput(body []byte) (Input, error) {
	var in Input
	if err := json.Unmarshal(body, &in); err != nil {
		return Input{}, err
	}
	return in, nil
}

type form struct {
	Name        string `json:"nombre" validate:"required,trimmed_min=2,max=100"`
	Email       string `json:"email" validate:"required,loose_email"`
	Phone       string `json:"telefono" validate:"required,trimmed_min=9,max=20"`
	Comment     string `json:"comentario" validate:"omitempty,max=1000"`
	ProductID   string `json:"productoId" validate:"required"`
	ProductName string `json:"productoNombre" validate:"required"`
}

func (in Input) form() form {
	return form{
		Name:        str(in.Name),
		Email:       str(in.Email),
		Phone:       str(in.Phone),
		Comment:     str(in.Comment),
		ProductID:   str(in.ProductID),
		ProductName: str(in.ProductName),
	}
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

// messages maps field and failed rule to the message shown to customers.
var messages = map[string]map[string]string{
	"nombre": {
		"required":    "El nombre es requerido",
		"trimmed_min": "El nombre debe tener al menos 2 caracteres",
		"max":         "El nombre no puede exceder 100 caracteres",
	},
	"email": {
		"required":    "El email es requerido",
		"loose_email": "El formato del email no es válido",
	},
	"telefono": {
		"required":    "El teléfono es requerido",
		"trimmed_min": "El teléfono debe tener al menos 9 caracteres",
		"max":         "El teléfono no puede exceder 20 caracteres",
	},
	"comentario": {
		"max": "El comentario no puede exceder 1000 caracteres",
	},
	"productoId": {
		"required": "El ID del producto es requerido",
	},
	"productoNombre": {
		"required": "El nombre del producto es requerido",
	},
}

// ValidationError lists every failed rule, in field order.
type ValidationError struct {
	Details []string
}

func (e *ValidationError) Error() string {
	return "Datos inválidos: " + strings.Join(e.Details, "; ")
}

// Validate checks in and returns a *ValidationError when any rule fails.
func Validate(in Input) error {
	err := validator.Validate(in.form())
	if err == nil {
		return nil
	}
	var verr *validator.ValidationError
	if !errors.As(err, &verr) {
		return err
	}
	details := make([]string, 0, len(verr.Errors))
	for _, fe := range verr.Errors {
		msg, ok := messages[fe.Field()][fe.Tag()]
		if !ok {
			msg = fe.Field() + " no es válido"
		}
		details = append(details, msg)
	}
	return &ValidationError{Details: details}
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#x27;",
	"/", "&#x2F;",
)

// Sanitize escapes HTML metacharacters, including '/'.
func Sanitize(s string) string {
	return htmlEscaper.Replace(s)
}

// Normalize trims and escapes a validated input. The email is lowercased
// instead of escaped; product fields are escaped without trimming.
func Normalize(in Input) Quote {
	f := in.form()
	return Quote{
		Name:        Sanitize(strings.TrimSpace(f.Name)),
		Email:       strings.ToLower(strings.TrimSpace(f.Email)),
		Phone:       Sanitize(strings.TrimSpace(f.Phone)),
		Comment:     Sanitize(strings.TrimSpace(f.Comment)),
		ProductID:   Sanitize(f.ProductID),
		ProductName: Sanitize(f.ProductName),
	}
}
