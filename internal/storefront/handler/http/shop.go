package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/uniclima/storefront/internal/shop"
	"github.com/uniclima/storefront/internal/storefront/cache"
	apperrors "github.com/uniclima/storefront/pkg/errors"
	"github.com/uniclima/storefront/pkg/graphql"
	"github.com/uniclima/storefront/pkg/httpclient"
	"github.com/uniclima/storefront/pkg/httputil"
	"github.com/uniclima/storefront/pkg/pagination"
	"github.com/uniclima/storefront/pkg/validator"
)

// Account covers the customer and cart operations of the shop API. Every
// call runs in the customer session carried by ctx.
type Account interface {
	Login(ctx context.Context, email, password string, rememberMe bool) (shop.Result[shop.CurrentUser], error)
	Register(ctx context.Context, in shop.RegisterInput) (shop.Result[shop.Success], error)
	Verify(ctx context.Context, token, password string) (shop.Result[shop.CurrentUser], error)
	Logout(ctx context.Context) error
	RequestPasswordReset(ctx context.Context, email string) (shop.Result[shop.Success], error)
	ResetPassword(ctx context.Context, token, password string) (shop.Result[shop.CurrentUser], error)
	ActiveCustomer(ctx context.Context) (*shop.Customer, error)
	UpdateCustomer(ctx context.Context, in shop.UpdateCustomerInput) (*shop.Customer, error)
	ActiveOrder(ctx context.Context) (*shop.Order, error)
	AddItem(ctx context.Context, variantID string, quantity int) (shop.Result[shop.Order], error)
	AdjustLine(ctx context.Context, lineID string, quantity int) (shop.Result[shop.Order], error)
	RemoveLine(ctx context.Context, lineID string) (shop.Result[shop.Order], error)
}

// ShopHandler exposes the shop API as a JSON facade.
type ShopHandler struct {
	account Account
	catalog cache.Catalog
	logger  *slog.Logger
}

// NewShopHandler creates a new shop HTTP handler.
func NewShopHandler(account Account, catalog cache.Catalog, logger *slog.Logger) *ShopHandler {
	return &ShopHandler{account: account, catalog: catalog, logger: logger}
}

// --- Request DTOs ---

// LoginRequest is the JSON request body for logging in.
type LoginRequest struct {
	Email      string `json:"email" validate:"required,loose_email"`
	Password   string `json:"password" validate:"required"`
	RememberMe bool   `json:"remember_me"`
}

// RegisterRequest is the JSON request body for creating an account.
type RegisterRequest struct {
	Email     string `json:"email" validate:"required,loose_email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"required,trimmed_min=1,max=100"`
	LastName  string `json:"last_name" validate:"required,trimmed_min=1,max=100"`
	Phone     string `json:"phone" validate:"omitempty,max=20"`
}

// VerifyRequest is the JSON request body for verifying an account.
type VerifyRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password"`
}

// PasswordResetRequest asks for a reset token.
type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,loose_email"`
}

// ResetPasswordRequest sets a new password.
type ResetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

// UpdateAccountRequest changes the customer's details. Absent fields are
// left unchanged.
type UpdateAccountRequest struct {
	FirstName *string `json:"first_name" validate:"omitempty,trimmed_min=1,max=100"`
	LastName  *string `json:"last_name" validate:"omitempty,trimmed_min=1,max=100"`
	Phone     *string `json:"phone" validate:"omitempty,max=20"`
}

// AddLineRequest is the JSON request body for adding to the cart.
type AddLineRequest struct {
	VariantID string `json:"variant_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gte=1"`
}

// AdjustLineRequest is the JSON request body for changing a line quantity.
type AdjustLineRequest struct {
	Quantity int `json:"quantity" validate:"gte=0"`
}

// --- Catalog ---

// ListProducts handles GET /api/v1/products
func (h *ShopHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)
	opts := shop.ListOptionsFrom(params)
	if sort := sortFromQuery(r); sort != nil {
		opts.Sort = sort
	}

	list, err := h.catalog.Products(r.Context(), opts)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, pagination.NewResult(list.Items, list.TotalItems, params))
}

// GetProduct handles GET /api/v1/products/{slug}
func (h *ShopHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	p, err := h.catalog.ProductBySlug(r.Context(), slug)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if p == nil {
		h.writeError(w, r, apperrors.NotFound("product", slug))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: p})
}

// ListCollections handles GET /api/v1/collections
func (h *ShopHandler) ListCollections(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)
	list, err := h.catalog.Collections(r.Context(), shop.ListOptionsFrom(params))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, pagination.NewResult(list.Items, list.TotalItems, params))
}

// CollectionProducts handles GET /api/v1/collections/{slug}/products
func (h *ShopHandler) CollectionProducts(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	params := pagination.FromRequest(r)
	c, err := h.catalog.CollectionProducts(r.Context(), slug, shop.ListOptionsFrom(params))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if c == nil {
		h.writeError(w, r, apperrors.NotFound("collection", slug))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]any{
		"collection": map[string]string{
			"id":          c.ID,
			"name":        c.Name,
			"slug":        c.Slug,
			"description": c.Description,
		},
		"products": pagination.NewResult(c.ProductVariants.Items, c.ProductVariants.TotalItems, params),
	}})
}

// searchResponse adds facet counts to a page of search hits.
type searchResponse struct {
	pagination.Result[shop.SearchItem]
	Facets []shop.FacetValueCount `json:"facets"`
}

// Search handles GET /api/v1/search?q=&collection=&facet=
func (h *ShopHandler) Search(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)
	q := r.URL.Query()
	in := shop.SearchInput{
		Term:           strings.TrimSpace(q.Get("q")),
		CollectionSlug: q.Get("collection"),
		FacetValueIDs:  q["facet"],
		GroupByProduct: true,
		Take:           params.Take(),
		Skip:           params.Skip(),
	}

	res, err := h.catalog.Search(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	facets := res.FacetValues
	if facets == nil {
		facets = []shop.FacetValueCount{}
	}
	httputil.WriteJSON(w, http.StatusOK, searchResponse{
		Result: pagination.NewResult(res.Items, res.TotalItems, params),
		Facets: facets,
	})
}

// ListFacets handles GET /api/v1/facets
func (h *ShopHandler) ListFacets(w http.ResponseWriter, r *http.Request) {
	facets, err := h.catalog.Facets(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: facets})
}

// --- Auth ---

// Login handles POST /api/v1/auth/login
func (h *ShopHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.account.Login(r.Context(), strings.TrimSpace(req.Email), req.Password, req.RememberMe)
	writeResult(h, w, r, res, err)
}

// Register handles POST /api/v1/auth/register
func (h *ShopHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.account.Register(r.Context(), shop.RegisterInput{
		EmailAddress: strings.ToLower(strings.TrimSpace(req.Email)),
		Password:     req.Password,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		PhoneNumber:  strings.TrimSpace(req.Phone),
	})
	if err == nil && res.OK() {
		httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: res.Value})
		return
	}
	writeResult(h, w, r, res, err)
}

// Verify handles POST /api/v1/auth/verify
func (h *ShopHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.account.Verify(r.Context(), req.Token, req.Password)
	writeResult(h, w, r, res, err)
}

// Logout handles POST /api/v1/auth/logout
func (h *ShopHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.account.Logout(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RequestPasswordReset handles POST /api/v1/auth/password-reset/request
func (h *ShopHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req PasswordResetRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.account.RequestPasswordReset(r.Context(), strings.TrimSpace(req.Email))
	if err == nil && res.OK() {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	writeResult(h, w, r, res, err)
}

// ResetPassword handles POST /api/v1/auth/password-reset
func (h *ShopHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.account.ResetPassword(r.Context(), req.Token, req.Password)
	writeResult(h, w, r, res, err)
}

// --- Account ---

// GetAccount handles GET /api/v1/account
func (h *ShopHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	c, err := h.account.ActiveCustomer(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if c == nil {
		h.writeError(w, r, apperrors.Unauthorized("session expired"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: c})
}

// UpdateAccount handles PATCH /api/v1/account
func (h *ShopHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	var req UpdateAccountRequest
	if !h.decode(w, r, &req) {
		return
	}
	c, err := h.account.UpdateCustomer(r.Context(), shop.UpdateCustomerInput{
		FirstName:   trimmed(req.FirstName),
		LastName:    trimmed(req.LastName),
		PhoneNumber: trimmed(req.Phone),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: c})
}

// --- Cart ---

// GetCart handles GET /api/v1/cart. An empty cart is returned as null data.
func (h *ShopHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	o, err := h.account.ActiveOrder(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, struct {
		Data *shop.Order `json:"data"`
	}{o})
}

// AddLine handles POST /api/v1/cart/lines
func (h *ShopHandler) AddLine(w http.ResponseWriter, r *http.Request) {
	var req AddLineRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.account.AddItem(r.Context(), req.VariantID, req.Quantity)
	writeResult(h, w, r, res, err)
}

// AdjustLine handles PATCH /api/v1/cart/lines/{lineId}
func (h *ShopHandler) AdjustLine(w http.ResponseWriter, r *http.Request) {
	var req AdjustLineRequest
	if !h.decode(w, r, &req) {
		return
	}
	lineID := chi.URLParam(r, "lineId")
	var (
		res shop.Result[shop.Order]
		err error
	)
	if req.Quantity == 0 {
		res, err = h.account.RemoveLine(r.Context(), lineID)
	} else {
		res, err = h.account.AdjustLine(r.Context(), lineID, req.Quantity)
	}
	writeResult(h, w, r, res, err)
}

// RemoveLine handles DELETE /api/v1/cart/lines/{lineId}
func (h *ShopHandler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	res, err := h.account.RemoveLine(r.Context(), chi.URLParam(r, "lineId"))
	writeResult(h, w, r, res, err)
}

// --- Helpers ---

// decode reads and validates a JSON body, writing the 400 itself on failure.
func (h *ShopHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := validator.DecodeAndValidate(r, dst); err != nil {
		httputil.WriteValidationError(w, err)
		return false
	}
	return true
}

// writeResult writes the success member of res, or maps its error member
// to a status code.
func writeResult[T any](h *ShopHandler, w http.ResponseWriter, r *http.Request, res shop.Result[T], err error) {
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if res.Err != nil {
		httputil.WriteJSON(w, resultStatus(res.Err.Code), httputil.Response{
			Error: &httputil.ErrorResponse{
				Code:    string(res.Err.Code),
				Message: resultMessage(res.Err),
			},
		})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: res.Value})
}

func resultStatus(code shop.ErrorCode) int {
	switch code {
	case shop.ErrInvalidCredentials:
		return http.StatusUnauthorized
	case shop.ErrNotVerified, shop.ErrNativeAuthStrategy:
		return http.StatusForbidden
	case shop.ErrPasswordResetTokenExpired, shop.ErrVerificationTokenExpired:
		return http.StatusGone
	case shop.ErrInsufficientStock, shop.ErrOrderModification, shop.ErrOrderLimit:
		return http.StatusConflict
	case shop.ErrPasswordResetTokenInvalid, shop.ErrVerificationTokenInvalid:
		return http.StatusBadRequest
	default:
		return http.StatusUnprocessableEntity
	}
}

func resultMessage(e *shop.ErrorResult) string {
	if e.ValidationErrorMessage != "" {
		return e.Message + ": " + e.ValidationErrorMessage
	}
	return e.Message
}

// writeError maps shop API transport failures before the generic mapping.
func (h *ShopHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var gqlErr *graphql.Error
	switch {
	case errors.As(err, &gqlErr) && gqlErr.Forbidden():
		err = apperrors.Unauthorized("shop session is not authorized for this operation")
	case errors.Is(err, httpclient.ErrCircuitOpen):
		err = apperrors.ServiceUnavailable("shop API temporarily unavailable")
	}
	httputil.WriteError(w, r, err, h.logger)
}

// sortFromQuery reads sort=<field> or sort=-<field> for descending order.
func sortFromQuery(r *http.Request) map[string]string {
	v := r.URL.Query().Get("sort")
	if v == "" {
		return nil
	}
	dir := "ASC"
	if strings.HasPrefix(v, "-") {
		dir = "DESC"
		v = v[1:]
	}
	switch v {
	case "name", "createdAt", "updatedAt":
		return map[string]string{v: dir}
	}
	return nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}
