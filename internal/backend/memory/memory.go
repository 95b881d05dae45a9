// Package memory is an in-process backend.Admin. It backs dry runs and
// pipeline tests, and records every call it receives.
package memory

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/uniclima/storefront/internal/backend"
	"github.com/uniclima/storefront/pkg/slug"
)

// Backend is a map-backed Admin. The zero value is not usable; call New.
type Backend struct {
	mu sync.Mutex

	nextID int
	calls  []string

	channel        backend.Channel
	zones          []backend.Zone
	countries      []backend.Country
	taxCategories  []backend.TaxCategory
	taxRates       []backend.TaxRate
	facets         []backend.Facet
	facetValues    []backend.FacetValue
	collections    []backend.Collection
	stockLocations []backend.StockLocation
	products       []backend.Product
	variants       []backend.ProductVariant

	failures map[string]error
}

var _ backend.Session = (*Backend)(nil)

// New returns an empty backend with a default channel.
func New() *Backend {
	b := &Backend{failures: map[string]error{}}
	b.channel = backend.Channel{ID: b.id(), Code: "__default_channel__"}
	return b
}

// Snapshot copies the reference data of src so a dry run can resolve the
// same entities without touching src.
func Snapshot(ctx context.Context, src backend.Admin) (*Backend, error) {
	b := New()
	var err error
	if b.channel, err = src.DefaultChannel(ctx); err != nil {
		return nil, err
	}
	if b.zones, err = src.ListZones(ctx); err != nil {
		return nil, err
	}
	if b.taxCategories, err = src.ListTaxCategories(ctx); err != nil {
		return nil, err
	}
	if b.facets, err = src.ListFacets(ctx, backend.ListOptions{Take: 100}); err != nil {
		return nil, err
	}
	if b.facetValues, err = src.ListFacetValues(ctx); err != nil {
		return nil, err
	}
	if b.collections, err = src.ListCollections(ctx, backend.ListOptions{Take: 100}); err != nil {
		return nil, err
	}
	if b.stockLocations, err = src.ListStockLocations(ctx); err != nil {
		return nil, err
	}
	b.nextID = 1_000_000
	return b, nil
}

// FailOn makes the next calls to method return err. A nil err clears it.
func (b *Backend) FailOn(method string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		delete(b.failures, method)
		return
	}
	b.failures[method] = err
}

// Calls returns the method names received so far, in order.
func (b *Backend) Calls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

// CallCount returns how many times method was called.
func (b *Backend) CallCount(method string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.calls {
		if c == method {
			n++
		}
	}
	return n
}

// Products returns the created products.
func (b *Backend) Products() []backend.Product {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]backend.Product(nil), b.products...)
}

// Variants returns the created variants.
func (b *Backend) Variants() []backend.ProductVariant {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]backend.ProductVariant(nil), b.variants...)
}

// TaxRates returns the created tax rates.
func (b *Backend) TaxRates() []backend.TaxRate {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]backend.TaxRate(nil), b.taxRates...)
}

// Countries returns the created countries.
func (b *Backend) Countries() []backend.Country {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]backend.Country(nil), b.countries...)
}

// begin records method and returns its injected failure. Callers hold mu.
func (b *Backend) begin(method string) error {
	b.calls = append(b.calls, method)
	return b.failures[method]
}

func (b *Backend) id() string {
	b.nextID++
	return strconv.Itoa(b.nextID)
}

// Close records the call; there is nothing to release.
func (b *Backend) Close(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.begin("Close")
}

// DefaultChannel returns the single in-memory channel.
func (b *Backend) DefaultChannel(context.Context) (backend.Channel, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin("DefaultChannel"); err != nil {
		return backend.Channel{}, err
	}
	return b.channel, nil
}

// UpdateChannelZones sets the default zones of the in-memory channel.
func (b *Backend) UpdateChannelZones(_ context.Context, channelID, taxZoneID, shippingZoneID string) (backend.Channel, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin("UpdateChannelZones"); err != nil {
		return backend.Channel{}, err
	}
	if channelID != b.channel.ID {
		return backend.Channel{}, fmt.Errorf("channel %s not found", channelID)
	}
	b.channel.DefaultTaxZoneID = taxZoneID
	b.channel.DefaultShippingZoneID = shippingZoneID
	return b.channel, nil
}

// ListZones returns the stored zones in creation order.
func (b *Backend) ListZones(context.Context) ([]backend.Zone, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin("ListZones"); err != nil {
		return nil, err
	}
	return append([]backend.Zone(nil), b.zones...), nil
}

// CreateCountry stores a country.
func (b *Backend) CreateCountry(_ context.Context, in backend.CreateCountryInput) (backend.Country, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin("CreateCountry"); err != nil {
		return backend.Country{}, err
	}
	c := backend.Country{ID: b.id(), Code: in.Code, Name: firstName(in.Translations)}
	b.countries = append(b.countries, c)
	return c, nil
}

// CreateZone stores a zone.
func (b *Backend) CreateZone(_ context.Context, in backend.CreateZoneInput) (backend.Zone, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin("CreateZone"); err != nil {
		return backend.Zone{}, err
	}
	z := backend.Zone{ID: b.id(), Name: in.Name, MemberIDs: append([]string(nil), in.MemberIDs...)}
	b.zones = append(b.zones, z)
	return z, nil
}

// ListTaxCategories returns the stored tax categories.
func (b *Backend) ListTaxCategories(context.Context) ([]backend.TaxCategory, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin("ListTaxCategories"); err != nil {
		return nil, err
	}
	return append([]backend.TaxCategory(nil), b.taxCategories...), nil
}

// CreateTaxCategory stores a tax category. A new default clears the previous one.
func (b *Backend) CreateTaxCategory(_ context.Context, in backend.CreateTaxCategoryInput) (backend.TaxCategory, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin("CreateTaxCategory"); err != nil {
		return backend.TaxCategory{}, err
	}
	if in.IsDefault {
		for i := range b.taxCategories {
			b.taxCategories[i].IsDefault = false
		}
	}
	tc := backend.TaxCategory{ID: b.id(), Name: in.Name, IsDefault: in.IsDefault}
	b.taxCategories = append(b.taxCategories, tc)
	return tc, nil
}

// CreateTaxRate stores a tax rate.
func (b *Backend) CreateTaxRate(_ context.Context, in backend.CreateTaxRateInput) (backend.TaxRate, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin("CreateTaxRate"); err != nil {
		return backend.TaxRate{}, err
	}
	r := backend.TaxRate{ID: b.id(), Name: in.Name, Value: in.Value}
	b.taxRates = append(b.taxRates, r)
	return r, nil
}

// ListFacets returns the stored facets filtered by opts.
func (b *Backend) ListFacets(_ context.Context, opts backend.ListOptions) ([]backend.Facet, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin("ListFacets"); err != nil {
		return nil, err
	}
	return page(b.facets, opts), nil
}

// CreateFacet stores a facet, rejecting a duplicate code.
func (b *Backend) CreateFacet(_ context.Context, in backend.CreateFacetInput) (backend.Facet, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin("CreateFacet"); err != nil {
		return backend.Facet{}, err
	}
	for _, f := range b.facets {
		if f.Code == in.Code {
			return backend.Facet{}, fmt.Errorf("facet code %q already exists", in.Code)
		}
	}
	f := backend.Facet{ID: b.id(), Code: in.Code, Name: firstName(in.Translations)}
	b.facets = append(b.facets, f)
	return f, nil
}

// ListFacetValues returns every stored facet value.
func (b *Backend) ListFacetValues(context.Context) ([]backend.FacetValue, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin("ListFacetValues"); err != nil {
		return nil, err
	}
	return append([]backend.FacetValue(nil), b.facetValues...), nil
}

// CreateFacetValues stores values under existing facets.
func (b *Backend) CreateFacetValues(_ context.Context, in []backend.CreateFacetValueInput) ([]backend.FacetValue, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin("CreateFacetValues"); err != nil {
		return nil, err
	}
	out := make([]backend.FacetValue, 0, len(in))
	for _, v := range in {
		facetCode := ""
		for _, f := range b.facets {
			if f.ID == v.FacetID {
				facetCode = f.Code
			}
		}
		if facetCode == "" {
			return nil, fmt.Errorf("facet %s not found", v.FacetID)
		}
		fv := backend.FacetValue{ID: b.id(), Code: v.Code, Name: firstName(v.Translations), FacetID: v.FacetID, FacetCode: facetCode}
		b.facetValues = append(b.facetValues, fv)
		out = append(out, fv)
	}
	return out, nil
}

// ListCollections returns the stored collections filtered by opts.
func (b *Backend) ListCollections(_ context.Context, opts backend.ListOptions) ([]backend.Collection, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin("ListCollections"); err != nil {
		return nil, err
	}
	return page(b.collections, opts), nil
}

// CreateCollection stores a collection named after its first translation.
func (b *Backend) CreateCollection(_ context.Context, in backend.CreateCollectionInput) (backend.Collection, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin("CreateCollection"); err != nil {
		return backend.Collection{}, err
	}
	c := backend.Collection{ID: b.id(), ParentID: in.ParentID}
	if len(in.Translations) > 0 {
		c.Name = in.Translations[0].Name
		c.Slug = in.Translations[0].Slug
	}
	b.collections = append(b.collections, c)
	return c, nil
}

// ListStockLocations returns the stored stock locations.
func (b *Backend) ListStockLocations(context.Context) ([]backend.StockLocation, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin("ListStockLocations"); err != nil {
		return nil, err
	}
	return append([]backend.StockLocation(nil), b.stockLocations...), nil
}

// CreateStockLocation stores a stock location.
func (b *Backend) CreateStockLocation(_ context.Context, in backend.CreateStockLocationInput) (backend.StockLocation, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin("CreateStockLocation"); err != nil {
		return backend.StockLocation{}, err
	}
	l := backend.StockLocation{ID: b.id(), Name: in.Name, Description: in.Description}
	b.stockLocations = append(b.stockLocations, l)
	return l, nil
}

// FindProductBySlug returns the stored product with slug, or nil.
func (b *Backend) FindProductBySlug(_ context.Context, s string) (*backend.Product, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin("FindProductBySlug"); err != nil {
		return nil, err
	}
	for i := range b.products {
		if b.products[i].Slug == s {
			p := b.products[i]
			return &p, nil
		}
	}
	return nil, nil
}

// CreateProduct stores a product. The slug falls back to one generated from
// the name, and duplicate slugs are rejected.
func (b *Backend) CreateProduct(_ context.Context, in backend.CreateProductInput) (backend.Product, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin("CreateProduct"); err != nil {
		return backend.Product{}, err
	}
	p := backend.Product{ID: b.id(), Enabled: in.Enabled}
	if len(in.Translations) > 0 {
		p.Name = in.Translations[0].Name
		p.Slug = in.Translations[0].Slug
	}
	if p.Slug == "" {
		p.Slug = slug.Generate(p.Name)
	}
	for _, existing := range b.products {
		if existing.Slug == p.Slug {
			return backend.Product{}, fmt.Errorf("product slug %q already exists", p.Slug)
		}
	}
	b.products = append(b.products, p)
	return p, nil
}

// CreateProductVariant stores a variant for an existing product.
func (b *Backend) CreateProductVariant(_ context.Context, in backend.CreateProductVariantInput) (backend.ProductVariant, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin("CreateProductVariant"); err != nil {
		return backend.ProductVariant{}, err
	}
	if in.TaxCategoryID == "" {
		return backend.ProductVariant{}, fmt.Errorf("variant %s: tax category is required", in.SKU)
	}
	v := backend.ProductVariant{ID: b.id(), ProductID: in.ProductID, SKU: in.SKU, Price: in.Price}
	for _, l := range in.StockLevels {
		v.StockOnHand += l.StockOnHand
	}
	b.variants = append(b.variants, v)
	return v, nil
}

func firstName(ts []backend.Translation) string {
	if len(ts) == 0 {
		return ""
	}
	return ts[0].Name
}

func page[T any](items []T, opts backend.ListOptions) []T {
	start := min(opts.Skip, len(items))
	end := len(items)
	if opts.Take > 0 {
		end = min(start+opts.Take, end)
	}
	return append([]T(nil), items[start:end]...)
}
