// Package refdata loads the reference entities an import resolves rows
// against: brand and condition facet values, collections, the default tax
// category and the default stock location.
package refdata

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/uniclima/storefront/internal/backend"
	"github.com/uniclima/storefront/internal/reference"
	apperrors "github.com/uniclima/storefront/pkg/errors"
	"github.com/uniclima/storefront/pkg/slug"
)

// pageSize bounds the facet and collection listings.
const pageSize = 100

var (
	// ErrBrandFacetMissing means the seed has not created the brand facet.
	ErrBrandFacetMissing = apperrors.PreconditionFailed("brand facet not found; run the seed first: catalogctl seed")
	// ErrTaxCategoryMissing means the backend has no tax category at all.
	ErrTaxCategoryMissing = apperrors.PreconditionFailed("no tax category found; run the seed first: catalogctl seed")
)

// Options selects the facets to read and the stock location to create when
// the backend has none.
type Options struct {
	BrandFacet     string
	ConditionFacet string
	StockLocation  backend.CreateStockLocationInput
	Logger         *slog.Logger
}

// OptionsFrom derives Options from a reference table.
func OptionsFrom(ref *reference.Data, logger *slog.Logger) Options {
	return Options{
		BrandFacet:     ref.BrandFacet.Code,
		ConditionFacet: ref.ConditionFacet.Code,
		StockLocation: backend.CreateStockLocationInput{
			Name:        ref.StockLocation.Name,
			Description: ref.StockLocation.Description,
		},
		Logger: logger,
	}
}

// Set is the loaded reference data.
type Set struct {
	// Brands is keyed by the slug of the facet value name.
	Brands map[string]backend.FacetValue
	// Conditions is keyed by facet value code.
	Conditions map[string]backend.FacetValue
	// Collections is keyed by slug.
	Collections   map[string]backend.Collection
	TaxCategory   backend.TaxCategory
	StockLocation backend.StockLocation
}

// Brand resolves a brand name through its slug.
func (s *Set) Brand(name string) (backend.FacetValue, bool) {
	if name == "" {
		return backend.FacetValue{}, false
	}
	fv, ok := s.Brands[slug.Generate(name)]
	return fv, ok
}

// Condition resolves a condition code.
func (s *Set) Condition(code string) (backend.FacetValue, bool) {
	fv, ok := s.Conditions[code]
	return fv, ok
}

// Collection resolves a category name through its slug.
func (s *Set) Collection(name string) (backend.Collection, bool) {
	c, ok := s.Collections[slug.Generate(name)]
	return c, ok
}

// Load reads the reference data through admin. A missing brand facet or tax
// category is fatal. A missing stock location is created from opts.
func Load(ctx context.Context, admin backend.Admin, opts Options) (*Set, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ctx, span := otel.Tracer("github.com/uniclima/storefront/internal/refdata").Start(ctx, "refdata.Load")
	defer span.End()

	facets, err := admin.ListFacets(ctx, backend.ListOptions{Take: pageSize})
	if err != nil {
		return nil, fmt.Errorf("load facets: %w", err)
	}
	var brandFacet, conditionFacet *backend.Facet
	for i := range facets {
		switch facets[i].Code {
		case opts.BrandFacet:
			if brandFacet == nil {
				brandFacet = &facets[i]
			}
		case opts.ConditionFacet:
			if conditionFacet == nil {
				conditionFacet = &facets[i]
			}
		}
	}
	if brandFacet == nil {
		return nil, ErrBrandFacetMissing
	}

	values, err := admin.ListFacetValues(ctx)
	if err != nil {
		return nil, fmt.Errorf("load facet values: %w", err)
	}
	set := &Set{
		Brands:      make(map[string]backend.FacetValue),
		Conditions:  make(map[string]backend.FacetValue),
		Collections: make(map[string]backend.Collection),
	}
	for _, fv := range values {
		if fv.FacetID == brandFacet.ID {
			putFirst(set.Brands, slug.Generate(fv.Name), fv)
		}
		if conditionFacet != nil && fv.FacetID == conditionFacet.ID {
			putFirst(set.Conditions, fv.Code, fv)
		}
	}
	logger.InfoContext(ctx, "found brand facet values", slog.Int("count", len(set.Brands)))

	collections, err := admin.ListCollections(ctx, backend.ListOptions{Take: pageSize})
	if err != nil {
		return nil, fmt.Errorf("load collections: %w", err)
	}
	for _, c := range collections {
		putFirst(set.Collections, c.Slug, c)
	}
	logger.InfoContext(ctx, "found collections", slog.Int("count", len(set.Collections)))

	taxCategories, err := admin.ListTaxCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("load tax categories: %w", err)
	}
	if len(taxCategories) == 0 {
		return nil, ErrTaxCategoryMissing
	}
	set.TaxCategory = taxCategories[0]
	for _, tc := range taxCategories {
		if tc.IsDefault {
			set.TaxCategory = tc
			break
		}
	}
	logger.InfoContext(ctx, "using tax category", slog.String("name", set.TaxCategory.Name))

	locations, err := admin.ListStockLocations(ctx)
	if err != nil {
		return nil, fmt.Errorf("load stock locations: %w", err)
	}
	if len(locations) > 0 {
		set.StockLocation = locations[0]
	} else {
		loc, err := admin.CreateStockLocation(ctx, opts.StockLocation)
		if err != nil {
			return nil, fmt.Errorf("create default stock location: %w", err)
		}
		set.StockLocation = loc
		logger.InfoContext(ctx, "created default stock location", slog.String("name", loc.Name))
	}

	span.SetAttributes(
		attribute.Int("refdata.brands", len(set.Brands)),
		attribute.Int("refdata.collections", len(set.Collections)),
	)
	return set, nil
}

func putFirst[V any](m map[string]V, key string, v V) {
	if _, ok := m[key]; !ok {
		m[key] = v
	}
}
