package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniclima/storefront/internal/backend"
)

func TestBackend_ProductLifecycle(t *testing.T) {
	b := New()
	ctx := context.Background()

	p, err := b.FindProductBySlug(ctx, "bomba")
	require.NoError(t, err)
	assert.Nil(t, p)

	created, err := b.CreateProduct(ctx, backend.CreateProductInput{
		Enabled:      true,
		Translations: []backend.Translation{{LanguageCode: backend.LanguageES, Name: "Bomba", Slug: "bomba"}},
	})
	require.NoError(t, err)

	found, err := b.FindProductBySlug(ctx, "bomba")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)

	_, err = b.CreateProduct(ctx, backend.CreateProductInput{
		Translations: []backend.Translation{{LanguageCode: backend.LanguageES, Name: "Bomba", Slug: "bomba"}},
	})
	assert.Error(t, err)

	v, err := b.CreateProductVariant(ctx, backend.CreateProductVariantInput{
		ProductID:     created.ID,
		SKU:           "B-1",
		Price:         1000,
		TaxCategoryID: "1",
		StockLevels:   []backend.StockLevelInput{{StockLocationID: "1", StockOnHand: 4}},
	})
	require.NoError(t, err)
	assert.Equal(t, 4, v.StockOnHand)
	assert.Len(t, b.Variants(), 1)
}

func TestBackend_VariantRequiresTaxCategory(t *testing.T) {
	b := New()
	_, err := b.CreateProductVariant(context.Background(), backend.CreateProductVariantInput{SKU: "X"})
	assert.Error(t, err)
}

func TestBackend_FailOn(t *testing.T) {
	b := New()
	boom := errors.New("boom")
	b.FailOn("ListZones", boom)

	_, err := b.ListZones(context.Background())
	assert.ErrorIs(t, err, boom)

	b.FailOn("ListZones", nil)
	_, err = b.ListZones(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 2, b.CallCount("ListZones"))
}

func TestBackend_FacetValuesResolveFacetCode(t *testing.T) {
	b := New()
	ctx := context.Background()

	f, err := b.CreateFacet(ctx, backend.CreateFacetInput{Code: "brand"})
	require.NoError(t, err)

	_, err = b.CreateFacetValues(ctx, []backend.CreateFacetValueInput{{FacetID: f.ID, Code: "baxi"}})
	require.NoError(t, err)

	values, err := b.ListFacetValues(ctx)
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.Equal(t, "brand", values[0].FacetCode)

	_, err = b.CreateFacetValues(ctx, []backend.CreateFacetValueInput{{FacetID: "nope", Code: "x"}})
	assert.Error(t, err)
}

func TestBackend_ListPaging(t *testing.T) {
	b := New()
	ctx := context.Background()
	for _, s := range []string{"a", "b", "c"} {
		_, err := b.CreateCollection(ctx, backend.CreateCollectionInput{Translations: []backend.Translation{{Name: s, Slug: s}}})
		require.NoError(t, err)
	}

	cols, err := b.ListCollections(ctx, backend.ListOptions{Take: 2})
	require.NoError(t, err)
	assert.Len(t, cols, 2)

	cols, err = b.ListCollections(ctx, backend.ListOptions{Take: 2, Skip: 2})
	require.NoError(t, err)
	require.Len(t, cols, 1)
	assert.Equal(t, "c", cols[0].Slug)

	cols, err = b.ListCollections(ctx, backend.ListOptions{Skip: 10})
	require.NoError(t, err)
	assert.Empty(t, cols)
}

func TestSnapshot_CopiesReferenceData(t *testing.T) {
	src := New()
	ctx := context.Background()
	f, err := src.CreateFacet(ctx, backend.CreateFacetInput{Code: "brand"})
	require.NoError(t, err)
	_, err = src.CreateFacetValues(ctx, []backend.CreateFacetValueInput{{FacetID: f.ID, Code: "baxi"}})
	require.NoError(t, err)
	_, err = src.CreateTaxCategory(ctx, backend.CreateTaxCategoryInput{Name: "IVA Standard", IsDefault: true})
	require.NoError(t, err)

	snap, err := Snapshot(ctx, src)
	require.NoError(t, err)

	_, err = snap.CreateProduct(ctx, backend.CreateProductInput{Translations: []backend.Translation{{Name: "Bomba", Slug: "bomba"}}})
	require.NoError(t, err)

	assert.Empty(t, src.Products())
	assert.Len(t, snap.Products(), 1)
	cats, err := snap.ListTaxCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, "IVA Standard", cats[0].Name)
	assert.Zero(t, src.CallCount("CreateProduct"))
}
