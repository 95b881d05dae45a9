// Package shop is a typed client for the Vendure Shop GraphQL API. Mutations
// that answer with a result union return a Result whose error member is
// distinguishable by ErrorCode.
package shop

import (
	"github.com/uniclima/storefront/pkg/pagination"
)

// List is a page of items with the total across pages.
type List[T any] struct {
	Items      []T `json:"items"`
	TotalItems int `json:"totalItems"`
}

// ListOptions pages and sorts a list query.
type ListOptions struct {
	Take int
	Skip int
	// Sort maps a field to ASC or DESC.
	Sort map[string]string
}

// ListOptionsFrom converts pagination parameters.
func ListOptionsFrom(p pagination.Params) ListOptions {
	return ListOptions{Take: p.Take(), Skip: p.Skip()}
}

func (o ListOptions) vars() map[string]any {
	m := map[string]any{}
	if o.Take > 0 {
		m["take"] = o.Take
	}
	if o.Skip > 0 {
		m["skip"] = o.Skip
	}
	if len(o.Sort) > 0 {
		m["sort"] = o.Sort
	}
	return m
}

type Asset struct {
	ID      string `json:"id"`
	Preview string `json:"preview"`
	Source  string `json:"source,omitempty"`
}

type FacetRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type FacetValue struct {
	ID    string    `json:"id"`
	Name  string    `json:"name"`
	Code  string    `json:"code,omitempty"`
	Facet *FacetRef `json:"facet,omitempty"`
}

type Facet struct {
	ID     string       `json:"id"`
	Name   string       `json:"name"`
	Code   string       `json:"code"`
	Values []FacetValue `json:"values"`
}

// Variant prices are in cents.
type Variant struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	SKU          string `json:"sku"`
	Price        int64  `json:"price"`
	PriceWithTax int64  `json:"priceWithTax"`
	StockLevel   string `json:"stockLevel"`
}

type Product struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	Slug          string       `json:"slug"`
	Description   string       `json:"description"`
	FeaturedAsset *Asset       `json:"featuredAsset"`
	Variants      []Variant    `json:"variants"`
	FacetValues   []FacetValue `json:"facetValues"`
}

type CollectionRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug,omitempty"`
}

type Collection struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Slug          string          `json:"slug"`
	Description   string          `json:"description"`
	FeaturedAsset *Asset          `json:"featuredAsset"`
	Parent        *CollectionRef  `json:"parent"`
	Children      []CollectionRef `json:"children"`
}

type ProductRef struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Slug          string `json:"slug"`
	FeaturedAsset *Asset `json:"featuredAsset"`
}

type CollectionVariant struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Price        int64      `json:"price"`
	PriceWithTax int64      `json:"priceWithTax"`
	Product      ProductRef `json:"product"`
}

// CollectionProducts is a collection with a page of its variants.
type CollectionProducts struct {
	ID              string                  `json:"id"`
	Name            string                  `json:"name"`
	Slug            string                  `json:"slug"`
	Description     string                  `json:"description"`
	ProductVariants List[CollectionVariant] `json:"productVariants"`
}

// SearchPrice is either a single price (Value) or a range (Min, Max).
type SearchPrice struct {
	Value *int64 `json:"value,omitempty"`
	Min   *int64 `json:"min,omitempty"`
	Max   *int64 `json:"max,omitempty"`
}

// Bounds returns the price range, collapsing a single price to [v, v].
func (p SearchPrice) Bounds() (low, high int64) {
	if p.Value != nil {
		return *p.Value, *p.Value
	}
	if p.Min != nil {
		low = *p.Min
	}
	if p.Max != nil {
		high = *p.Max
	}
	return low, high
}

type SearchItem struct {
	ProductID          string      `json:"productId"`
	ProductName        string      `json:"productName"`
	Slug               string      `json:"slug"`
	Description        string      `json:"description"`
	PriceWithTax       SearchPrice `json:"priceWithTax"`
	ProductAsset       *Asset      `json:"productAsset"`
	ProductVariantID   string      `json:"productVariantId"`
	ProductVariantName string      `json:"productVariantName"`
	SKU                string      `json:"sku"`
	FacetValueIDs      []string    `json:"facetValueIds"`
}

type FacetValueCount struct {
	Count      int        `json:"count"`
	FacetValue FacetValue `json:"facetValue"`
}

type SearchResult struct {
	Items       []SearchItem      `json:"items"`
	TotalItems  int               `json:"totalItems"`
	FacetValues []FacetValueCount `json:"facetValues"`
}

// SearchInput filters a search.
type SearchInput struct {
	Term           string   `json:"term,omitempty"`
	FacetValueIDs  []string `json:"facetValueIds,omitempty"`
	CollectionSlug string   `json:"collectionSlug,omitempty"`
	GroupByProduct bool     `json:"groupByProduct"`
	Take           int      `json:"take,omitempty"`
	Skip           int      `json:"skip,omitempty"`
}

type CurrentUser struct {
	ID         string `json:"id"`
	Identifier string `json:"identifier"`
}

type Success struct {
	Success bool `json:"success"`
}

type Country struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type Address struct {
	ID                     string  `json:"id"`
	FullName               string  `json:"fullName"`
	StreetLine1            string  `json:"streetLine1"`
	StreetLine2            string  `json:"streetLine2"`
	City                   string  `json:"city"`
	Province               string  `json:"province"`
	PostalCode             string  `json:"postalCode"`
	Country                Country `json:"country"`
	PhoneNumber            string  `json:"phoneNumber"`
	DefaultShippingAddress bool    `json:"defaultShippingAddress"`
	DefaultBillingAddress  bool    `json:"defaultBillingAddress"`
}

type OrderSummary struct {
	ID        string `json:"id"`
	Code      string `json:"code"`
	State     string `json:"state"`
	Total     int64  `json:"total"`
	CreatedAt string `json:"createdAt"`
}

type Customer struct {
	ID           string             `json:"id"`
	Title        string             `json:"title"`
	FirstName    string             `json:"firstName"`
	LastName     string             `json:"lastName"`
	EmailAddress string             `json:"emailAddress"`
	PhoneNumber  string             `json:"phoneNumber"`
	Addresses    []Address          `json:"addresses"`
	Orders       List[OrderSummary] `json:"orders"`
}

type LineVariant struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	SKU     string      `json:"sku,omitempty"`
	Price   int64       `json:"price"`
	Product *ProductRef `json:"product,omitempty"`
}

type OrderLine struct {
	ID             string      `json:"id"`
	Quantity       int         `json:"quantity"`
	UnitPrice      int64       `json:"unitPrice"`
	LinePrice      int64       `json:"linePrice"`
	ProductVariant LineVariant `json:"productVariant"`
}

type Order struct {
	ID            string      `json:"id"`
	Code          string      `json:"code"`
	State         string      `json:"state"`
	TotalQuantity int         `json:"totalQuantity"`
	SubTotal      int64       `json:"subTotal"`
	Shipping      int64       `json:"shipping"`
	Total         int64       `json:"total"`
	Lines         []OrderLine `json:"lines"`
}

// RegisterInput registers a customer account.
type RegisterInput struct {
	EmailAddress string `json:"emailAddress"`
	Password     string `json:"password,omitempty"`
	FirstName    string `json:"firstName,omitempty"`
	LastName     string `json:"lastName,omitempty"`
	PhoneNumber  string `json:"phoneNumber,omitempty"`
}

// UpdateCustomerInput changes the active customer's details.
type UpdateCustomerInput struct {
	FirstName   *string `json:"firstName,omitempty"`
	LastName    *string `json:"lastName,omitempty"`
	PhoneNumber *string `json:"phoneNumber,omitempty"`
}
