package shop

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/uniclima/storefront/pkg/graphql"
)

// Client calls the Shop API. The customer session travels in the context
// (graphql.WithSession); without one the calls are anonymous.
type Client struct {
	gql    *graphql.Client
	logger *slog.Logger
}

// New wraps a Shop API GraphQL client.
func New(gql *graphql.Client, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{gql: gql, logger: logger}
}

func unionMutation[T any](ctx context.Context, c *Client, doc, field string, vars map[string]any, success ...string) (Result[T], error) {
	var out map[string]json.RawMessage
	if err := c.gql.Mutate(ctx, doc, vars, &out); err != nil {
		return Result[T]{}, err
	}
	raw, ok := out[field]
	if !ok || string(raw) == "null" {
		return Result[T]{}, fmt.Errorf("%s: empty result", field)
	}
	res, err := decodeResult[T](raw, success...)
	if err != nil {
		return Result[T]{}, fmt.Errorf("%s: %w", field, err)
	}
	if res.Err != nil {
		c.logger.DebugContext(ctx, "shop operation returned error result",
			slog.String("operation", field),
			slog.String("error_code", string(res.Err.Code)),
		)
	}
	return res, nil
}

// Login authenticates a customer. On success the session in ctx receives
// the new auth token.
func (c *Client) Login(ctx context.Context, email, password string, rememberMe bool) (Result[CurrentUser], error) {
	return unionMutation[CurrentUser](ctx, c, loginMutation, "login",
		map[string]any{"username": email, "password": password, "rememberMe": rememberMe}, "CurrentUser")
}

// Register creates a customer account pending verification.
func (c *Client) Register(ctx context.Context, in RegisterInput) (Result[Success], error) {
	return unionMutation[Success](ctx, c, registerMutation, "registerCustomerAccount",
		map[string]any{"input": in}, "Success")
}

// Verify confirms an account with the emailed token. password is only
// needed when the account was registered without one.
func (c *Client) Verify(ctx context.Context, token, password string) (Result[CurrentUser], error) {
	vars := map[string]any{"token": token}
	if password != "" {
		vars["password"] = password
	}
	return unionMutation[CurrentUser](ctx, c, verifyMutation, "verifyCustomerAccount", vars, "CurrentUser")
}

// Logout ends the session in ctx.
func (c *Client) Logout(ctx context.Context) error {
	var out struct {
		Logout Success `json:"logout"`
	}
	if err := c.gql.Mutate(ctx, logoutMutation, nil, &out); err != nil {
		return err
	}
	if !out.Logout.Success {
		return fmt.Errorf("logout: not acknowledged")
	}
	return nil
}

// RequestPasswordReset emails a reset token.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) (Result[Success], error) {
	return unionMutation[Success](ctx, c, requestPasswordResetMutation, "requestPasswordReset",
		map[string]any{"emailAddress": email}, "Success")
}

// ResetPassword sets a new password using a reset token.
func (c *Client) ResetPassword(ctx context.Context, token, password string) (Result[CurrentUser], error) {
	return unionMutation[CurrentUser](ctx, c, resetPasswordMutation, "resetPassword",
		map[string]any{"token": token, "password": password}, "CurrentUser")
}

// ActiveCustomer returns the logged-in customer, or nil when anonymous.
func (c *Client) ActiveCustomer(ctx context.Context) (*Customer, error) {
	var out struct {
		ActiveCustomer *Customer `json:"activeCustomer"`
	}
	if err := c.gql.Query(ctx, activeCustomerQuery, nil, &out); err != nil {
		return nil, err
	}
	return out.ActiveCustomer, nil
}

// UpdateCustomer changes the logged-in customer's details.
func (c *Client) UpdateCustomer(ctx context.Context, in UpdateCustomerInput) (*Customer, error) {
	var out struct {
		UpdateCustomer Customer `json:"updateCustomer"`
	}
	if err := c.gql.Mutate(ctx, updateCustomerMutation, map[string]any{"input": in}, &out); err != nil {
		return nil, err
	}
	return &out.UpdateCustomer, nil
}

// ActiveOrder returns the session's cart, or nil when there is none.
func (c *Client) ActiveOrder(ctx context.Context) (*Order, error) {
	var out struct {
		ActiveOrder *Order `json:"activeOrder"`
	}
	if err := c.gql.Query(ctx, activeOrderQuery, nil, &out); err != nil {
		return nil, err
	}
	return out.ActiveOrder, nil
}

// AddItem adds quantity of a variant to the cart.
func (c *Client) AddItem(ctx context.Context, variantID string, quantity int) (Result[Order], error) {
	return unionMutation[Order](ctx, c, addItemToOrderMutation, "addItemToOrder",
		map[string]any{"productVariantId": variantID, "quantity": quantity}, "Order")
}

// AdjustLine sets the quantity of a cart line.
func (c *Client) AdjustLine(ctx context.Context, lineID string, quantity int) (Result[Order], error) {
	return unionMutation[Order](ctx, c, adjustOrderLineMutation, "adjustOrderLine",
		map[string]any{"lineId": lineID, "quantity": quantity}, "Order")
}

// RemoveLine drops a cart line.
func (c *Client) RemoveLine(ctx context.Context, lineID string) (Result[Order], error) {
	return unionMutation[Order](ctx, c, removeOrderLineMutation, "removeOrderLine",
		map[string]any{"lineId": lineID}, "Order")
}

// Products lists products.
func (c *Client) Products(ctx context.Context, opts ListOptions) (List[Product], error) {
	var out struct {
		Products List[Product] `json:"products"`
	}
	if err := c.gql.Query(ctx, productsQuery, map[string]any{"options": opts.vars()}, &out); err != nil {
		return List[Product]{}, err
	}
	return out.Products, nil
}

// ProductBySlug returns the product, or nil when no product has slug.
func (c *Client) ProductBySlug(ctx context.Context, slug string) (*Product, error) {
	var out struct {
		Product *Product `json:"product"`
	}
	if err := c.gql.Query(ctx, productBySlugQuery, map[string]any{"slug": slug}, &out); err != nil {
		return nil, err
	}
	return out.Product, nil
}

// Collections lists collections.
func (c *Client) Collections(ctx context.Context, opts ListOptions) (List[Collection], error) {
	var out struct {
		Collections List[Collection] `json:"collections"`
	}
	if err := c.gql.Query(ctx, collectionsQuery, map[string]any{"options": opts.vars()}, &out); err != nil {
		return List[Collection]{}, err
	}
	return out.Collections, nil
}

// CollectionProducts returns a collection with a page of its variants, or
// nil when no collection has slug.
func (c *Client) CollectionProducts(ctx context.Context, slug string, opts ListOptions) (*CollectionProducts, error) {
	var out struct {
		Collection *CollectionProducts `json:"collection"`
	}
	vars := map[string]any{"slug": slug, "options": opts.vars()}
	if err := c.gql.Query(ctx, collectionProductsQuery, vars, &out); err != nil {
		return nil, err
	}
	return out.Collection, nil
}

// Search runs a catalog search.
func (c *Client) Search(ctx context.Context, in SearchInput) (*SearchResult, error) {
	var out struct {
		Search SearchResult `json:"search"`
	}
	if err := c.gql.Query(ctx, searchQuery, map[string]any{"input": in}, &out); err != nil {
		return nil, err
	}
	return &out.Search, nil
}

// Facets lists facets with their values.
func (c *Client) Facets(ctx context.Context) ([]Facet, error) {
	var out struct {
		Facets List[Facet] `json:"facets"`
	}
	if err := c.gql.Query(ctx, facetsQuery, nil, &out); err != nil {
		return nil, err
	}
	return out.Facets.Items, nil
}
