// Package vendure implements backend.Admin on top of the Vendure Admin
// GraphQL API. A Client is one authenticated administrator session: Open
// logs in, Close logs out.
package vendure

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/uniclima/storefront/internal/backend"
	"github.com/uniclima/storefront/pkg/graphql"
	"github.com/uniclima/storefront/pkg/httpclient"
)

// listPageSize is the page size for list queries; the API caps take at 100
// by default.
const listPageSize = 100

// Config locates the Admin API and holds the administrator credentials.
type Config struct {
	Endpoint     string
	ChannelToken string
	LanguageCode string
	Username     string
	Password     string
}

// Client is an authenticated Admin API session.
type Client struct {
	gql     *graphql.Client
	session *graphql.Session
	logger  *slog.Logger
}

var _ backend.Session = (*Client)(nil)

// Open logs in as the configured administrator.
func Open(ctx context.Context, doer httpclient.Doer, cfg Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	opts := []graphql.Option{graphql.WithName("admin-api"), graphql.WithLogger(logger)}
	if cfg.ChannelToken != "" {
		opts = append(opts, graphql.WithChannelToken(cfg.ChannelToken))
	}
	if cfg.LanguageCode != "" {
		opts = append(opts, graphql.WithLanguageCode(cfg.LanguageCode))
	}

	c := &Client{
		gql:     graphql.New(doer, cfg.Endpoint, opts...),
		session: graphql.NewSession(""),
		logger:  logger,
	}

	var out struct {
		Login struct {
			errorResult
			ID         string `json:"id"`
			Identifier string `json:"identifier"`
		} `json:"login"`
	}
	err := c.mutate(ctx, loginMutation, map[string]any{"username": cfg.Username, "password": cfg.Password}, &out)
	if err != nil {
		return nil, fmt.Errorf("vendure login: %w", err)
	}
	if err := out.Login.err("CurrentUser"); err != nil {
		return nil, fmt.Errorf("vendure login: %w", err)
	}
	if c.session.Token() == "" {
		return nil, fmt.Errorf("vendure login: no session token in response; is authOptions.tokenMethod set to bearer?")
	}

	logger.InfoContext(ctx, "admin session opened",
		slog.String("endpoint", cfg.Endpoint),
		slog.String("user", out.Login.Identifier),
	)
	return c, nil
}

// Close logs out, invalidating the session token.
func (c *Client) Close(ctx context.Context) error {
	if c.session.Token() == "" {
		return nil
	}
	var out struct {
		Logout struct {
			Success bool `json:"success"`
		} `json:"logout"`
	}
	if err := c.mutate(ctx, logoutMutation, nil, &out); err != nil {
		return fmt.Errorf("vendure logout: %w", err)
	}
	c.session.SetToken("")
	c.logger.DebugContext(ctx, "admin session closed")
	return nil
}

func (c *Client) query(ctx context.Context, q string, vars map[string]any, out any) error {
	return c.gql.Query(graphql.WithSession(ctx, c.session), q, vars, out)
}

func (c *Client) mutate(ctx context.Context, q string, vars map[string]any, out any) error {
	return c.gql.Mutate(graphql.WithSession(ctx, c.session), q, vars, out)
}

// DefaultChannel returns the channel the session is bound to.
func (c *Client) DefaultChannel(ctx context.Context) (backend.Channel, error) {
	var out struct {
		ActiveChannel channelWire `json:"activeChannel"`
	}
	if err := c.query(ctx, activeChannelQuery, nil, &out); err != nil {
		return backend.Channel{}, fmt.Errorf("get active channel: %w", err)
	}
	return out.ActiveChannel.channel(), nil
}

// UpdateChannelZones sets the default tax and shipping zones of a channel.
func (c *Client) UpdateChannelZones(ctx context.Context, channelID, taxZoneID, shippingZoneID string) (backend.Channel, error) {
	vars := map[string]any{"input": map[string]any{
		"id":                    channelID,
		"defaultTaxZoneId":      taxZoneID,
		"defaultShippingZoneId": shippingZoneID,
	}}
	var out struct {
		UpdateChannel channelWire `json:"updateChannel"`
	}
	if err := c.mutate(ctx, updateChannelMutation, vars, &out); err != nil {
		return backend.Channel{}, fmt.Errorf("update channel %s: %w", channelID, err)
	}
	if err := out.UpdateChannel.err("Channel"); err != nil {
		return backend.Channel{}, fmt.Errorf("update channel %s: %w", channelID, err)
	}
	return out.UpdateChannel.channel(), nil
}

// ListZones returns the first page of zones.
func (c *Client) ListZones(ctx context.Context) ([]backend.Zone, error) {
	var out struct {
		Zones list[zoneWire] `json:"zones"`
	}
	vars := map[string]any{"options": listOptions(backend.ListOptions{Take: listPageSize})}
	if err := c.query(ctx, zonesQuery, vars, &out); err != nil {
		return nil, fmt.Errorf("list zones: %w", err)
	}
	zones := make([]backend.Zone, 0, len(out.Zones.Items))
	for _, z := range out.Zones.Items {
		zones = append(zones, z.zone())
	}
	return zones, nil
}

// CreateCountry creates a country with its translated names.
func (c *Client) CreateCountry(ctx context.Context, in backend.CreateCountryInput) (backend.Country, error) {
	vars := map[string]any{"input": map[string]any{
		"code":         in.Code,
		"enabled":      in.Enabled,
		"translations": translations(in.Translations),
	}}
	var out struct {
		CreateCountry struct {
			ID   string `json:"id"`
			Code string `json:"code"`
			Name string `json:"name"`
		} `json:"createCountry"`
	}
	if err := c.mutate(ctx, createCountryMutation, vars, &out); err != nil {
		return backend.Country{}, fmt.Errorf("create country %s: %w", in.Code, err)
	}
	r := out.CreateCountry
	return backend.Country{ID: r.ID, Code: r.Code, Name: r.Name}, nil
}

// CreateZone creates a zone containing the given member countries.
func (c *Client) CreateZone(ctx context.Context, in backend.CreateZoneInput) (backend.Zone, error) {
	members := in.MemberIDs
	if members == nil {
		members = []string{}
	}
	vars := map[string]any{"input": map[string]any{"name": in.Name, "memberIds": members}}
	var out struct {
		CreateZone zoneWire `json:"createZone"`
	}
	if err := c.mutate(ctx, createZoneMutation, vars, &out); err != nil {
		return backend.Zone{}, fmt.Errorf("create zone %s: %w", in.Name, err)
	}
	return out.CreateZone.zone(), nil
}

// ListTaxCategories returns the first page of tax categories.
func (c *Client) ListTaxCategories(ctx context.Context) ([]backend.TaxCategory, error) {
	var out struct {
		TaxCategories list[struct {
			ID        string `json:"id"`
			Name      string `json:"name"`
			IsDefault bool   `json:"isDefault"`
		}] `json:"taxCategories"`
	}
	vars := map[string]any{"options": listOptions(backend.ListOptions{Take: listPageSize})}
	if err := c.query(ctx, taxCategoriesQuery, vars, &out); err != nil {
		return nil, fmt.Errorf("list tax categories: %w", err)
	}
	cats := make([]backend.TaxCategory, 0, len(out.TaxCategories.Items))
	for _, tc := range out.TaxCategories.Items {
		cats = append(cats, backend.TaxCategory{ID: tc.ID, Name: tc.Name, IsDefault: tc.IsDefault})
	}
	return cats, nil
}

// CreateTaxCategory creates a tax category.
func (c *Client) CreateTaxCategory(ctx context.Context, in backend.CreateTaxCategoryInput) (backend.TaxCategory, error) {
	vars := map[string]any{"input": map[string]any{"name": in.Name, "isDefault": in.IsDefault}}
	var out struct {
		CreateTaxCategory struct {
			ID        string `json:"id"`
			Name      string `json:"name"`
			IsDefault bool   `json:"isDefault"`
		} `json:"createTaxCategory"`
	}
	if err := c.mutate(ctx, createTaxCategoryMutation, vars, &out); err != nil {
		return backend.TaxCategory{}, fmt.Errorf("create tax category %s: %w", in.Name, err)
	}
	r := out.CreateTaxCategory
	return backend.TaxCategory{ID: r.ID, Name: r.Name, IsDefault: r.IsDefault}, nil
}

// CreateTaxRate creates a tax rate for a category in a zone.
func (c *Client) CreateTaxRate(ctx context.Context, in backend.CreateTaxRateInput) (backend.TaxRate, error) {
	vars := map[string]any{"input": map[string]any{
		"name":       in.Name,
		"enabled":    in.Enabled,
		"value":      in.Value,
		"categoryId": in.CategoryID,
		"zoneId":     in.ZoneID,
	}}
	var out struct {
		CreateTaxRate struct {
			ID    string  `json:"id"`
			Name  string  `json:"name"`
			Value float64 `json:"value"`
		} `json:"createTaxRate"`
	}
	if err := c.mutate(ctx, createTaxRateMutation, vars, &out); err != nil {
		return backend.TaxRate{}, fmt.Errorf("create tax rate %s: %w", in.Name, err)
	}
	r := out.CreateTaxRate
	return backend.TaxRate{ID: r.ID, Name: r.Name, Value: r.Value}, nil
}

// ListFacets returns the facets matching opts.
func (c *Client) ListFacets(ctx context.Context, opts backend.ListOptions) ([]backend.Facet, error) {
	var out struct {
		Facets list[struct {
			ID   string `json:"id"`
			Code string `json:"code"`
			Name string `json:"name"`
		}] `json:"facets"`
	}
	if err := c.query(ctx, facetsQuery, map[string]any{"options": listOptions(opts)}, &out); err != nil {
		return nil, fmt.Errorf("list facets: %w", err)
	}
	facets := make([]backend.Facet, 0, len(out.Facets.Items))
	for _, f := range out.Facets.Items {
		facets = append(facets, backend.Facet{ID: f.ID, Code: f.Code, Name: f.Name})
	}
	return facets, nil
}

// CreateFacet creates a facet without values.
func (c *Client) CreateFacet(ctx context.Context, in backend.CreateFacetInput) (backend.Facet, error) {
	vars := map[string]any{"input": map[string]any{
		"code":         in.Code,
		"isPrivate":    in.IsPrivate,
		"translations": translations(in.Translations),
	}}
	var out struct {
		CreateFacet struct {
			ID   string `json:"id"`
			Code string `json:"code"`
			Name string `json:"name"`
		} `json:"createFacet"`
	}
	if err := c.mutate(ctx, createFacetMutation, vars, &out); err != nil {
		return backend.Facet{}, fmt.Errorf("create facet %s: %w", in.Code, err)
	}
	r := out.CreateFacet
	return backend.Facet{ID: r.ID, Code: r.Code, Name: r.Name}, nil
}

// ListFacetValues pages through every facet value.
func (c *Client) ListFacetValues(ctx context.Context) ([]backend.FacetValue, error) {
	var values []backend.FacetValue
	for skip := 0; ; skip += listPageSize {
		var out struct {
			FacetValues list[facetValueWire] `json:"facetValues"`
		}
		vars := map[string]any{"options": listOptions(backend.ListOptions{Take: listPageSize, Skip: skip})}
		if err := c.query(ctx, facetValuesQuery, vars, &out); err != nil {
			return nil, fmt.Errorf("list facet values: %w", err)
		}
		for _, fv := range out.FacetValues.Items {
			values = append(values, fv.facetValue())
		}
		if len(out.FacetValues.Items) < listPageSize || len(values) >= out.FacetValues.TotalItems {
			return values, nil
		}
	}
}

// CreateFacetValues creates all values in a single mutation.
func (c *Client) CreateFacetValues(ctx context.Context, in []backend.CreateFacetValueInput) ([]backend.FacetValue, error) {
	inputs := make([]map[string]any, 0, len(in))
	for _, v := range in {
		inputs = append(inputs, map[string]any{
			"facetId":      v.FacetID,
			"code":         v.Code,
			"translations": translations(v.Translations),
		})
	}
	var out struct {
		CreateFacetValues []facetValueWire `json:"createFacetValues"`
	}
	if err := c.mutate(ctx, createFacetValuesMutation, map[string]any{"input": inputs}, &out); err != nil {
		return nil, fmt.Errorf("create facet values: %w", err)
	}
	values := make([]backend.FacetValue, 0, len(out.CreateFacetValues))
	for _, fv := range out.CreateFacetValues {
		values = append(values, fv.facetValue())
	}
	return values, nil
}

// ListCollections returns the collections matching opts.
func (c *Client) ListCollections(ctx context.Context, opts backend.ListOptions) ([]backend.Collection, error) {
	var out struct {
		Collections list[collectionWire] `json:"collections"`
	}
	if err := c.query(ctx, collectionsQuery, map[string]any{"options": listOptions(opts)}, &out); err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	cols := make([]backend.Collection, 0, len(out.Collections.Items))
	for _, col := range out.Collections.Items {
		cols = append(cols, col.collection())
	}
	return cols, nil
}

// CreateCollection creates a collection with no filters, under ParentID when set.
func (c *Client) CreateCollection(ctx context.Context, in backend.CreateCollectionInput) (backend.Collection, error) {
	input := map[string]any{
		"isPrivate":    in.IsPrivate,
		"translations": translations(in.Translations),
		"filters":      []any{},
	}
	if in.ParentID != "" {
		input["parentId"] = in.ParentID
	}
	var out struct {
		CreateCollection collectionWire `json:"createCollection"`
	}
	if err := c.mutate(ctx, createCollectionMutation, map[string]any{"input": input}, &out); err != nil {
		return backend.Collection{}, fmt.Errorf("create collection: %w", err)
	}
	return out.CreateCollection.collection(), nil
}

// ListStockLocations returns the first page of stock locations.
func (c *Client) ListStockLocations(ctx context.Context) ([]backend.StockLocation, error) {
	var out struct {
		StockLocations list[struct {
			ID          string `json:"id"`
			Name        string `json:"name"`
			Description string `json:"description"`
		}] `json:"stockLocations"`
	}
	vars := map[string]any{"options": listOptions(backend.ListOptions{Take: listPageSize})}
	if err := c.query(ctx, stockLocationsQuery, vars, &out); err != nil {
		return nil, fmt.Errorf("list stock locations: %w", err)
	}
	locs := make([]backend.StockLocation, 0, len(out.StockLocations.Items))
	for _, l := range out.StockLocations.Items {
		locs = append(locs, backend.StockLocation{ID: l.ID, Name: l.Name, Description: l.Description})
	}
	return locs, nil
}

// CreateStockLocation creates a stock location.
func (c *Client) CreateStockLocation(ctx context.Context, in backend.CreateStockLocationInput) (backend.StockLocation, error) {
	vars := map[string]any{"input": map[string]any{"name": in.Name, "description": in.Description}}
	var out struct {
		CreateStockLocation struct {
			ID          string `json:"id"`
			Name        string `json:"name"`
			Description string `json:"description"`
		} `json:"createStockLocation"`
	}
	if err := c.mutate(ctx, createStockLocationMutation, vars, &out); err != nil {
		return backend.StockLocation{}, fmt.Errorf("create stock location %s: %w", in.Name, err)
	}
	r := out.CreateStockLocation
	return backend.StockLocation{ID: r.ID, Name: r.Name, Description: r.Description}, nil
}

// FindProductBySlug returns the product with slug, or nil when there is none.
func (c *Client) FindProductBySlug(ctx context.Context, slug string) (*backend.Product, error) {
	vars := map[string]any{"options": map[string]any{
		"take":   1,
		"filter": map[string]any{"slug": map[string]any{"eq": slug}},
	}}
	var out struct {
		Products list[struct {
			ID      string `json:"id"`
			Name    string `json:"name"`
			Slug    string `json:"slug"`
			Enabled bool   `json:"enabled"`
		}] `json:"products"`
	}
	if err := c.query(ctx, productBySlugQuery, vars, &out); err != nil {
		return nil, fmt.Errorf("find product %s: %w", slug, err)
	}
	if out.Products.TotalItems == 0 || len(out.Products.Items) == 0 {
		return nil, nil
	}
	p := out.Products.Items[0]
	return &backend.Product{ID: p.ID, Name: p.Name, Slug: p.Slug, Enabled: p.Enabled}, nil
}

// CreateProduct creates a product with its facet values. Variants are added separately.
func (c *Client) CreateProduct(ctx context.Context, in backend.CreateProductInput) (backend.Product, error) {
	ids := in.FacetValueIDs
	if ids == nil {
		ids = []string{}
	}
	vars := map[string]any{"input": map[string]any{
		"enabled":       in.Enabled,
		"translations":  translations(in.Translations),
		"facetValueIds": ids,
	}}
	var out struct {
		CreateProduct struct {
			ID      string `json:"id"`
			Name    string `json:"name"`
			Slug    string `json:"slug"`
			Enabled bool   `json:"enabled"`
		} `json:"createProduct"`
	}
	if err := c.mutate(ctx, createProductMutation, vars, &out); err != nil {
		return backend.Product{}, fmt.Errorf("create product: %w", err)
	}
	r := out.CreateProduct
	return backend.Product{ID: r.ID, Name: r.Name, Slug: r.Slug, Enabled: r.Enabled}, nil
}

// CreateProductVariant creates one variant with stock on hand at the given locations.
func (c *Client) CreateProductVariant(ctx context.Context, in backend.CreateProductVariantInput) (backend.ProductVariant, error) {
	levels := make([]map[string]any, 0, len(in.StockLevels))
	for _, l := range in.StockLevels {
		levels = append(levels, map[string]any{"stockLocationId": l.StockLocationID, "stockOnHand": l.StockOnHand})
	}
	input := map[string]any{
		"productId":     in.ProductID,
		"sku":           in.SKU,
		"price":         in.Price,
		"taxCategoryId": in.TaxCategoryID,
		"stockLevels":   levels,
		"translations":  translations(in.Translations),
	}
	if in.TrackInventory != "" {
		input["trackInventory"] = string(in.TrackInventory)
	}
	var out struct {
		CreateProductVariants []*variantWire `json:"createProductVariants"`
	}
	if err := c.mutate(ctx, createProductVariantsMutation, map[string]any{"input": []any{input}}, &out); err != nil {
		return backend.ProductVariant{}, fmt.Errorf("create variant %s: %w", in.SKU, err)
	}
	if len(out.CreateProductVariants) == 0 || out.CreateProductVariants[0] == nil {
		return backend.ProductVariant{}, fmt.Errorf("create variant %s: empty response", in.SKU)
	}
	return out.CreateProductVariants[0].variant(), nil
}
