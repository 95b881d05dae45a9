package seed

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniclima/storefront/internal/backend"
	"github.com/uniclima/storefront/internal/backend/memory"
	"github.com/uniclima/storefront/internal/reference"
)

func TestRun_EmptyBackend(t *testing.T) {
	ctx := context.Background()
	ref := reference.Default()
	b := memory.New()

	rep, err := New(b, ref, nil).Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, Count{Created: 1}, rep.Zone)
	assert.Equal(t, Count{Created: 1}, rep.Channel)
	assert.Equal(t, Count{Created: 1}, rep.Tax)
	assert.Equal(t, Count{Created: 1}, rep.BrandFacet)
	assert.Equal(t, Count{Created: len(ref.Brands)}, rep.Brands)
	assert.Equal(t, Count{Created: 1}, rep.ConditionFacet)
	assert.Equal(t, Count{Created: 1}, rep.RootCollection)
	assert.Equal(t, Count{Created: len(ref.Categories)}, rep.Collections)

	countries := b.Countries()
	require.Len(t, countries, 1)
	assert.Equal(t, "ES", countries[0].Code)

	zones, err := b.ListZones(ctx)
	require.NoError(t, err)
	require.Len(t, zones, 1)
	assert.Equal(t, ref.Zone.Name, zones[0].Name)
	assert.Equal(t, []string{countries[0].ID}, zones[0].MemberIDs)

	ch, err := b.DefaultChannel(ctx)
	require.NoError(t, err)
	assert.Equal(t, zones[0].ID, ch.DefaultTaxZoneID)
	assert.Equal(t, zones[0].ID, ch.DefaultShippingZoneID)

	cats, err := b.ListTaxCategories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, "IVA Standard", cats[0].Name)
	assert.True(t, cats[0].IsDefault)

	rates := b.TaxRates()
	require.Len(t, rates, 1)
	assert.Equal(t, 21.0, rates[0].Value)
}

func TestRun_CollectionsHangFromRoot(t *testing.T) {
	ctx := context.Background()
	ref := reference.Default()
	b := memory.New()

	_, err := New(b, ref, nil).Run(ctx)
	require.NoError(t, err)

	cols, err := b.ListCollections(ctx, backend.ListOptions{Take: 100})
	require.NoError(t, err)
	require.Len(t, cols, len(ref.Categories)+1)

	root := cols[0]
	assert.Equal(t, "todos-los-productos", root.Slug)
	assert.Empty(t, root.ParentID)
	for _, c := range cols[1:] {
		assert.Equal(t, root.ID, c.ParentID, c.Slug)
	}
}

func TestRun_FacetValues(t *testing.T) {
	ctx := context.Background()
	ref := reference.Default()
	b := memory.New()

	_, err := New(b, ref, nil).Run(ctx)
	require.NoError(t, err)

	values, err := b.ListFacetValues(ctx)
	require.NoError(t, err)

	byFacet := map[string][]string{}
	for _, v := range values {
		byFacet[v.FacetCode] = append(byFacet[v.FacetCode], v.Code)
	}
	assert.Len(t, byFacet["brand"], len(ref.Brands))
	assert.Contains(t, byFacet["brand"], "saunier-duval")
	assert.ElementsMatch(t, []string{"reacondicionado", "nuevo"}, byFacet["condition"])
}

func TestRun_Idempotent(t *testing.T) {
	ctx := context.Background()
	ref := reference.Default()
	b := memory.New()
	p := New(b, ref, nil)

	_, err := p.Run(ctx)
	require.NoError(t, err)
	createdCollections := b.CallCount("CreateCollection")
	createdValues := b.CallCount("CreateFacetValues")

	rep, err := p.Run(ctx)
	require.NoError(t, err)

	assert.Zero(t, rep.Created())
	assert.Equal(t, Count{Existing: 1}, rep.Zone)
	assert.Equal(t, Count{Existing: 1}, rep.Channel)
	assert.Equal(t, Count{Existing: 1}, rep.Tax)
	assert.Equal(t, Count{Existing: len(ref.Brands)}, rep.Brands)
	assert.Equal(t, Count{Existing: 1}, rep.ConditionFacet)
	assert.Equal(t, Count{Existing: 1}, rep.RootCollection)
	assert.Equal(t, Count{Existing: len(ref.Categories)}, rep.Collections)

	assert.Equal(t, createdCollections, b.CallCount("CreateCollection"))
	assert.Equal(t, createdValues, b.CallCount("CreateFacetValues"))
	assert.Equal(t, 1, b.CallCount("UpdateChannelZones"))
	assert.Len(t, b.TaxRates(), 1)
}

func TestRun_AddsOnlyMissingBrands(t *testing.T) {
	ctx := context.Background()
	ref := reference.Default()
	b := memory.New()

	brand, err := b.CreateFacet(ctx, backend.CreateFacetInput{Code: "brand"})
	require.NoError(t, err)
	_, err = b.CreateFacetValues(ctx, []backend.CreateFacetValueInput{
		{FacetID: brand.ID, Code: "junkers"},
		{FacetID: brand.ID, Code: "baxi"},
	})
	require.NoError(t, err)

	rep, err := New(b, ref, nil).Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, Count{Existing: 1}, rep.BrandFacet)
	assert.Equal(t, Count{Created: len(ref.Brands) - 2, Existing: 2}, rep.Brands)
}

func TestRun_ExistingTaxCategorySkipsRate(t *testing.T) {
	ctx := context.Background()
	b := memory.New()
	_, err := b.CreateTaxCategory(ctx, backend.CreateTaxCategoryInput{Name: "IVA Standard"})
	require.NoError(t, err)

	rep, err := New(b, reference.Default(), nil).Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, Count{Existing: 1}, rep.Tax)
	assert.Empty(t, b.TaxRates())
	assert.Equal(t, 1, b.CallCount("CreateTaxCategory"))
}

func TestRun_StopsOnFailure(t *testing.T) {
	ctx := context.Background()
	b := memory.New()
	boom := errors.New("boom")
	b.FailOn("CreateTaxRate", boom)

	rep, err := New(b, reference.Default(), nil).Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "seed tax")

	assert.Equal(t, 1, rep.Zone.Created)
	assert.Equal(t, 1, rep.Channel.Created)
	assert.Zero(t, b.CallCount("CreateFacet"))
	assert.Zero(t, b.CallCount("CreateCollection"))
}

func TestRootTranslations(t *testing.T) {
	ts := rootTranslations(reference.Default().RootCollection)
	require.Len(t, ts, 2)
	assert.Equal(t, backend.LanguageES, ts[0].LanguageCode)
	assert.Equal(t, "todos-los-productos", ts[0].Slug)
	assert.Equal(t, backend.LanguageEN, ts[1].LanguageCode)
	assert.Equal(t, "all-products", ts[1].Slug)
}
