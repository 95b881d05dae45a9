// Package backend describes the commerce backend operations the seed and
// import pipelines depend on. Implementations live in subpackages: vendure
// talks to the Admin GraphQL API, memory keeps everything in process.
package backend

import (
	"context"
	"fmt"
)

// LanguageCode is an ISO 639-1 code used for translations.
type LanguageCode string

const (
	LanguageES LanguageCode = "es"
	LanguageEN LanguageCode = "en"
)

// GlobalFlag mirrors the backend's tri-state inventory settings.
type GlobalFlag string

const (
	FlagTrue    GlobalFlag = "TRUE"
	FlagFalse   GlobalFlag = "FALSE"
	FlagInherit GlobalFlag = "INHERIT"
)

// Translation is a localized name, with optional slug and description.
type Translation struct {
	LanguageCode LanguageCode `json:"languageCode"`
	Name         string       `json:"name"`
	Slug         string       `json:"slug,omitempty"`
	Description  string       `json:"description,omitempty"`
}

// Channel is a sales channel.
type Channel struct {
	ID                    string
	Code                  string
	DefaultTaxZoneID      string
	DefaultShippingZoneID string
}

// Zone groups countries for tax and shipping.
type Zone struct {
	ID        string
	Name      string
	MemberIDs []string
}

// Country is a zone member.
type Country struct {
	ID   string
	Code string
	Name string
}

// TaxCategory classifies variants for tax purposes.
type TaxCategory struct {
	ID        string
	Name      string
	IsDefault bool
}

// TaxRate applies a percentage to a tax category inside a zone.
type TaxRate struct {
	ID    string
	Name  string
	Value float64
}

// Facet is a product attribute such as brand.
type Facet struct {
	ID   string
	Code string
	Name string
}

// FacetValue is one value of a facet.
type FacetValue struct {
	ID        string
	Code      string
	Name      string
	FacetID   string
	FacetCode string
}

// Collection is a product category.
type Collection struct {
	ID       string
	Name     string
	Slug     string
	ParentID string
}

// StockLocation is a warehouse holding stock.
type StockLocation struct {
	ID          string
	Name        string
	Description string
}

// Product is a catalog product.
type Product struct {
	ID      string
	Name    string
	Slug    string
	Enabled bool
}

// ProductVariant is a purchasable SKU of a product.
type ProductVariant struct {
	ID          string
	ProductID   string
	SKU         string
	Price       int64
	StockOnHand int
}

// ListOptions bounds a list query.
type ListOptions struct {
	Take int
	Skip int
}

// CreateCountryInput creates a country.
type CreateCountryInput struct {
	Code         string
	Enabled      bool
	Translations []Translation
}

// CreateZoneInput creates a zone with the given member countries.
type CreateZoneInput struct {
	Name      string
	MemberIDs []string
}

// CreateTaxCategoryInput creates a tax category.
type CreateTaxCategoryInput struct {
	Name      string
	IsDefault bool
}

// CreateTaxRateInput creates a tax rate.
type CreateTaxRateInput struct {
	Name       string
	Enabled    bool
	Value      float64
	CategoryID string
	ZoneID     string
}

// CreateFacetInput creates a facet.
type CreateFacetInput struct {
	Code         string
	IsPrivate    bool
	Translations []Translation
}

// CreateFacetValueInput creates a value under FacetID.
type CreateFacetValueInput struct {
	FacetID      string
	Code         string
	Translations []Translation
}

// CreateCollectionInput creates a collection. Translations carry the slug.
type CreateCollectionInput struct {
	ParentID     string
	IsPrivate    bool
	Translations []Translation
}

// CreateStockLocationInput creates a stock location.
type CreateStockLocationInput struct {
	Name        string
	Description string
}

// CreateProductInput creates a product.
type CreateProductInput struct {
	Enabled       bool
	Translations  []Translation
	FacetValueIDs []string
}

// StockLevelInput sets the stock held at one location.
type StockLevelInput struct {
	StockLocationID string
	StockOnHand     int
}

// CreateProductVariantInput creates a variant of ProductID.
type CreateProductVariantInput struct {
	ProductID      string
	SKU            string
	Price          int64
	TaxCategoryID  string
	TrackInventory GlobalFlag
	StockLevels    []StockLevelInput
	Translations   []Translation
}

// Admin is the administrative API surface used by seeding and import.
type Admin interface {
	DefaultChannel(ctx context.Context) (Channel, error)
	UpdateChannelZones(ctx context.Context, channelID, taxZoneID, shippingZoneID string) (Channel, error)

	ListZones(ctx context.Context) ([]Zone, error)
	CreateCountry(ctx context.Context, in CreateCountryInput) (Country, error)
	CreateZone(ctx context.Context, in CreateZoneInput) (Zone, error)

	ListTaxCategories(ctx context.Context) ([]TaxCategory, error)
	CreateTaxCategory(ctx context.Context, in CreateTaxCategoryInput) (TaxCategory, error)
	CreateTaxRate(ctx context.Context, in CreateTaxRateInput) (TaxRate, error)

	ListFacets(ctx context.Context, opts ListOptions) ([]Facet, error)
	CreateFacet(ctx context.Context, in CreateFacetInput) (Facet, error)
	ListFacetValues(ctx context.Context) ([]FacetValue, error)
	CreateFacetValues(ctx context.Context, in []CreateFacetValueInput) ([]FacetValue, error)

	ListCollections(ctx context.Context, opts ListOptions) ([]Collection, error)
	CreateCollection(ctx context.Context, in CreateCollectionInput) (Collection, error)

	ListStockLocations(ctx context.Context) ([]StockLocation, error)
	CreateStockLocation(ctx context.Context, in CreateStockLocationInput) (StockLocation, error)

	// FindProductBySlug returns nil, nil when no product has slug.
	FindProductBySlug(ctx context.Context, slug string) (*Product, error)
	CreateProduct(ctx context.Context, in CreateProductInput) (Product, error)
	CreateProductVariant(ctx context.Context, in CreateProductVariantInput) (ProductVariant, error)
}

// Session is an Admin bound to an authenticated session. Close ends the
// session and must be called on every exit path.
type Session interface {
	Admin
	Close(ctx context.Context) error
}

// ResultError is an error member of a GraphQL result union, such as
// InvalidCredentialsError.
type ResultError struct {
	Code    string
	Message string
}

func (e *ResultError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}
