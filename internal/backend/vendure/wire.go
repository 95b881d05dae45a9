package vendure

import (
	"github.com/uniclima/storefront/internal/backend"
)

type ref struct {
	ID   string `json:"id"`
	Code string `json:"code,omitempty"`
}

type errorResult struct {
	Typename  string `json:"__typename"`
	ErrorCode string `json:"errorCode"`
	Message   string `json:"message"`
}

// err returns the union's error member, or nil for a success type.
func (r errorResult) err(success string) error {
	if r.Typename == success || (r.Typename == "" && r.ErrorCode == "") {
		return nil
	}
	return &backend.ResultError{Code: r.ErrorCode, Message: r.Message}
}

type channelWire struct {
	errorResult
	ID                  string `json:"id"`
	Code                string `json:"code"`
	DefaultTaxZone      *ref   `json:"defaultTaxZone"`
	DefaultShippingZone *ref   `json:"defaultShippingZone"`
}

func (w channelWire) channel() backend.Channel {
	ch := backend.Channel{ID: w.ID, Code: w.Code}
	if w.DefaultTaxZone != nil {
		ch.DefaultTaxZoneID = w.DefaultTaxZone.ID
	}
	if w.DefaultShippingZone != nil {
		ch.DefaultShippingZoneID = w.DefaultShippingZone.ID
	}
	return ch
}

type zoneWire struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Members []ref  `json:"members"`
}

func (w zoneWire) zone() backend.Zone {
	z := backend.Zone{ID: w.ID, Name: w.Name}
	for _, m := range w.Members {
		z.MemberIDs = append(z.MemberIDs, m.ID)
	}
	return z
}

type facetValueWire struct {
	ID    string `json:"id"`
	Code  string `json:"code"`
	Name  string `json:"name"`
	Facet ref    `json:"facet"`
}

func (w facetValueWire) facetValue() backend.FacetValue {
	return backend.FacetValue{ID: w.ID, Code: w.Code, Name: w.Name, FacetID: w.Facet.ID, FacetCode: w.Facet.Code}
}

type collectionWire struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Slug   string `json:"slug"`
	Parent *ref   `json:"parent"`
}

func (w collectionWire) collection() backend.Collection {
	c := backend.Collection{ID: w.ID, Name: w.Name, Slug: w.Slug}
	if w.Parent != nil {
		c.ParentID = w.Parent.ID
	}
	return c
}

type stockLevelWire struct {
	StockLocationID string `json:"stockLocationId"`
	StockOnHand     int    `json:"stockOnHand"`
}

type variantWire struct {
	ID          string           `json:"id"`
	SKU         string           `json:"sku"`
	Price       int64            `json:"price"`
	Product     ref              `json:"product"`
	StockLevels []stockLevelWire `json:"stockLevels"`
}

func (w variantWire) variant() backend.ProductVariant {
	v := backend.ProductVariant{ID: w.ID, ProductID: w.Product.ID, SKU: w.SKU, Price: w.Price}
	for _, l := range w.StockLevels {
		v.StockOnHand += l.StockOnHand
	}
	return v
}

type list[T any] struct {
	Items      []T `json:"items"`
	TotalItems int `json:"totalItems"`
}

func listOptions(opts backend.ListOptions) map[string]any {
	o := map[string]any{}
	if opts.Take > 0 {
		o["take"] = opts.Take
	}
	if opts.Skip > 0 {
		o["skip"] = opts.Skip
	}
	return o
}

func translations(ts []backend.Translation) []map[string]any {
	out := make([]map[string]any, 0, len(ts))
	for _, t := range ts {
		m := map[string]any{"languageCode": string(t.LanguageCode), "name": t.Name}
		if t.Slug != "" {
			m["slug"] = t.Slug
		}
		if t.Description != "" {
			m["description"] = t.Description
		}
		out = append(out, m)
	}
	return out
}
