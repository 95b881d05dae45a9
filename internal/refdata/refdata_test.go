package refdata

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniclima/storefront/internal/backend"
	"github.com/uniclima/storefront/internal/backend/memory"
	"github.com/uniclima/storefront/internal/reference"
	apperrors "github.com/uniclima/storefront/pkg/errors"
)

func tr(name string) []backend.Translation {
	return []backend.Translation{{LanguageCode: backend.LanguageES, Name: name}}
}

// seeded returns a backend holding brand and condition facets, two
// collections and a default tax category.
func seeded(t *testing.T) *memory.Backend {
	t.Helper()
	ctx := context.Background()
	b := memory.New()

	brand, err := b.CreateFacet(ctx, backend.CreateFacetInput{Code: "brand", Translations: tr("Marca")})
	require.NoError(t, err)
	cond, err := b.CreateFacet(ctx, backend.CreateFacetInput{Code: "condition", Translations: tr("Estado")})
	require.NoError(t, err)
	_, err = b.CreateFacetValues(ctx, []backend.CreateFacetValueInput{
		{FacetID: brand.ID, Code: "saunier-duval", Translations: tr("Saunier Duval")},
		{FacetID: brand.ID, Code: "junkers", Translations: tr("Junkers")},
		{FacetID: brand.ID, Code: "junkers-2", Translations: tr("JUNKERS")},
		{FacetID: cond.ID, Code: "reacondicionado", Translations: tr("Reacondicionado")},
		{FacetID: cond.ID, Code: "nuevo", Translations: tr("Nuevo")},
	})
	require.NoError(t, err)

	for _, c := range []struct{ name, slug string }{{"Bombas", "bombas"}, {"Válvulas de Gas", "valvulas-de-gas"}} {
		_, err := b.CreateCollection(ctx, backend.CreateCollectionInput{
			Translations: []backend.Translation{{LanguageCode: backend.LanguageES, Name: c.name, Slug: c.slug}},
		})
		require.NoError(t, err)
	}

	_, err = b.CreateTaxCategory(ctx, backend.CreateTaxCategoryInput{Name: "Reducido"})
	require.NoError(t, err)
	_, err = b.CreateTaxCategory(ctx, backend.CreateTaxCategoryInput{Name: "IVA Standard", IsDefault: true})
	require.NoError(t, err)
	return b
}

func opts() Options {
	return OptionsFrom(reference.Default(), nil)
}

func TestLoad(t *testing.T) {
	b := seeded(t)

	set, err := Load(context.Background(), b, opts())
	require.NoError(t, err)

	assert.Len(t, set.Brands, 2)
	saunier, ok := set.Brand("Saunier Duval")
	require.True(t, ok)
	assert.Equal(t, "saunier-duval", saunier.Code)

	junkers, ok := set.Brand("junkers")
	require.True(t, ok)
	assert.Equal(t, "junkers", junkers.Code, "first match wins on slug collisions")

	_, ok = set.Brand("")
	assert.False(t, ok)

	_, ok = set.Condition("reacondicionado")
	assert.True(t, ok)

	col, ok := set.Collection("Válvulas de Gas")
	require.True(t, ok)
	assert.Equal(t, "valvulas-de-gas", col.Slug)

	assert.Equal(t, "IVA Standard", set.TaxCategory.Name)
	assert.Equal(t, "Almacén Principal", set.StockLocation.Name)
	assert.Equal(t, 1, b.CallCount("CreateStockLocation"))
}

func TestLoad_ReusesExistingStockLocation(t *testing.T) {
	b := seeded(t)
	_, err := b.CreateStockLocation(context.Background(), backend.CreateStockLocationInput{Name: "Nave 1"})
	require.NoError(t, err)

	set, err := Load(context.Background(), b, opts())
	require.NoError(t, err)
	assert.Equal(t, "Nave 1", set.StockLocation.Name)
	assert.Equal(t, 1, b.CallCount("CreateStockLocation"))
}

func TestLoad_FallsBackToFirstTaxCategory(t *testing.T) {
	ctx := context.Background()
	b := memory.New()
	_, err := b.CreateFacet(ctx, backend.CreateFacetInput{Code: "brand"})
	require.NoError(t, err)
	_, err = b.CreateTaxCategory(ctx, backend.CreateTaxCategoryInput{Name: "General"})
	require.NoError(t, err)

	set, err := Load(ctx, b, opts())
	require.NoError(t, err)
	assert.Equal(t, "General", set.TaxCategory.Name)
	assert.Empty(t, set.Conditions)
}

func TestLoad_MissingBrandFacet(t *testing.T) {
	b := memory.New()

	_, err := Load(context.Background(), b, opts())

	assert.True(t, errors.Is(err, ErrBrandFacetMissing))
	assert.True(t, errors.Is(err, apperrors.ErrPrecondition))
	assert.Zero(t, b.CallCount("ListFacetValues"))
}

func TestLoad_MissingTaxCategory(t *testing.T) {
	ctx := context.Background()
	b := memory.New()
	_, err := b.CreateFacet(ctx, backend.CreateFacetInput{Code: "brand"})
	require.NoError(t, err)

	_, err = Load(ctx, b, opts())

	assert.True(t, errors.Is(err, ErrTaxCategoryMissing))
	assert.Zero(t, b.CallCount("ListStockLocations"))
}

func TestLoad_BackendError(t *testing.T) {
	b := seeded(t)
	b.FailOn("ListCollections", errors.New("connection reset"))

	_, err := Load(context.Background(), b, opts())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "load collections")
}
