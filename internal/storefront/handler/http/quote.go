package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/uniclima/storefront/internal/quote"
	"github.com/uniclima/storefront/pkg/httputil"
)

const (
	quoteAccepted     = "Solicitud de presupuesto recibida correctamente. Nos pondremos en contacto contigo pronto."
	quoteInvalid      = "Datos inválidos"
	quoteInternal     = "Error interno del servidor. Por favor, intenta de nuevo más tarde."
	quoteWrongMethod  = "Método no permitido. Usa POST para enviar solicitudes de presupuesto."
	maxQuoteBodyBytes = 64 << 10
)

// quoteResponse is the body the storefront's quote form expects.
type quoteResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Error   string   `json:"error,omitempty"`
	Details []string `json:"details,omitempty"`
}

// QuoteService is what the quote endpoints need from the quote package.
type QuoteService interface {
	Submit(ctx context.Context, in quote.Input) (*quote.Quote, error)
	Get(ctx context.Context, id string) (*quote.Quote, error)
}

// QuoteHandler serves quote requests.
type QuoteHandler struct {
	service QuoteService
	logger  *slog.Logger
}

// NewQuoteHandler creates a new quote HTTP handler.
func NewQuoteHandler(svc QuoteService, logger *slog.Logger) *QuoteHandler {
	return &QuoteHandler{service: svc, logger: logger}
}

// Submit handles POST /api/presupuesto
func (h *QuoteHandler) Submit(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxQuoteBodyBytes))
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	in, err := quote.DecodeInput(body)
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	if _, err := h.service.Submit(r.Context(), in); err != nil {
		var verr *quote.ValidationError
		if errors.As(err, &verr) {
			httputil.WriteJSON(w, http.StatusBadRequest, quoteResponse{
				Error:   quoteInvalid,
				Details: verr.Details,
			})
			return
		}
		h.internalError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, quoteResponse{Success: true, Message: quoteAccepted})
}

// MethodNotAllowed answers any method other than POST on /api/presupuesto.
func (h *QuoteHandler) MethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Allow", http.MethodPost)
	httputil.WriteJSON(w, http.StatusMethodNotAllowed, quoteResponse{Error: quoteWrongMethod})
}

// Get handles GET /api/v1/quotes/{id}
func (h *QuoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	q, err := h.service.Get(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: q})
}

func (h *QuoteHandler) internalError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.ErrorContext(r.Context(), "error processing quote request",
		slog.String("error", err.Error()),
	)
	httputil.WriteJSON(w, http.StatusInternalServerError, quoteResponse{Error: quoteInternal})
}
