// Package seed creates the reference entities the catalog import depends
// on. Every step is create-if-absent, so running the seed again only
// reports what already exists.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/uniclima/storefront/internal/backend"
	"github.com/uniclima/storefront/internal/reference"
	"github.com/uniclima/storefront/pkg/slug"
)

const (
	tracerName = "github.com/uniclima/storefront/internal/seed"
	pageSize   = 100
)

// Count tallies one step's outcome.
type Count struct {
	Created  int `json:"created"`
	Existing int `json:"existing"`
}

// Report summarizes a seed run.
type Report struct {
	Zone           Count `json:"zone"`
	Channel        Count `json:"channel"`
	Tax            Count `json:"tax"`
	BrandFacet     Count `json:"brand_facet"`
	Brands         Count `json:"brands"`
	ConditionFacet Count `json:"condition_facet"`
	RootCollection Count `json:"root_collection"`
	Collections    Count `json:"collections"`
}

// Created is the number of entities created or updated across all steps.
func (r *Report) Created() int {
	return r.Zone.Created + r.Channel.Created + r.Tax.Created + r.BrandFacet.Created +
		r.Brands.Created + r.ConditionFacet.Created + r.RootCollection.Created + r.Collections.Created
}

// LogValue renders the report as a structured log group.
func (r *Report) LogValue() slog.Value {
	attr := func(name string, c Count) slog.Attr {
		return slog.Group(name, slog.Int("created", c.Created), slog.Int("existing", c.Existing))
	}
	return slog.GroupValue(
		attr("zone", r.Zone),
		attr("channel", r.Channel),
		attr("tax", r.Tax),
		attr("brand_facet", r.BrandFacet),
		attr("brands", r.Brands),
		attr("condition_facet", r.ConditionFacet),
		attr("root_collection", r.RootCollection),
		attr("collections", r.Collections),
	)
}

// Pipeline seeds a backend from a reference table.
type Pipeline struct {
	admin  backend.Admin
	ref    *reference.Data
	logger *slog.Logger
}

// New creates a seed pipeline.
func New(admin backend.Admin, ref *reference.Data, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{admin: admin, ref: ref, logger: logger}
}

// state carries entities resolved by earlier steps to later ones.
type state struct {
	channel    backend.Channel
	zone       backend.Zone
	facets     []backend.Facet
	brandFacet backend.Facet
	root       backend.Collection
}

// Run applies every step in order. Steps already applied are not undone
// when a later one fails.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "seed.Run")
	defer span.End()

	p.logger.InfoContext(ctx, "starting data seeding")

	rep := &Report{}
	st := &state{}
	steps := []struct {
		name string
		fn   func(context.Context, *state, *Report) error
	}{
		{"zone", p.seedZone},
		{"channel", p.seedChannel},
		{"tax", p.seedTax},
		{"brand_facet", p.seedBrandFacet},
		{"brands", p.seedBrands},
		{"condition_facet", p.seedConditionFacet},
		{"collections", p.seedCollections},
	}
	for _, s := range steps {
		stepCtx, stepSpan := otel.Tracer(tracerName).Start(ctx, "seed."+s.name)
		err := s.fn(stepCtx, st, rep)
		if err != nil {
			stepSpan.RecordError(err)
			stepSpan.SetStatus(codes.Error, err.Error())
			stepSpan.End()
			span.SetStatus(codes.Error, err.Error())
			return rep, fmt.Errorf("seed %s: %w", s.name, err)
		}
		stepSpan.End()
	}

	span.SetAttributes(attribute.Int("seed.created", rep.Created()))
	p.logger.InfoContext(ctx, "seeding completed",
		slog.Any("report", rep),
		slog.Int("brands_available", len(p.ref.Brands)),
		slog.Int("categories_available", len(p.ref.Categories)),
	)
	return rep, nil
}

func (p *Pipeline) seedZone(ctx context.Context, st *state, rep *Report) error {
	ch, err := p.admin.DefaultChannel(ctx)
	if err != nil {
		return err
	}
	st.channel = ch

	zones, err := p.admin.ListZones(ctx)
	if err != nil {
		return err
	}
	for _, z := range zones {
		if z.Name == p.ref.Zone.Name {
			st.zone = z
			rep.Zone.Existing++
			p.logger.InfoContext(ctx, "zone already exists", slog.String("zone", z.Name))
			return nil
		}
	}

	country, err := p.admin.CreateCountry(ctx, backend.CreateCountryInput{
		Code:         p.ref.Zone.Country.Code,
		Enabled:      true,
		Translations: named(p.ref.Zone.Country.Names),
	})
	if err != nil {
		return err
	}
	zone, err := p.admin.CreateZone(ctx, backend.CreateZoneInput{
		Name:      p.ref.Zone.Name,
		MemberIDs: []string{country.ID},
	})
	if err != nil {
		return err
	}
	st.zone = zone
	rep.Zone.Created++
	p.logger.InfoContext(ctx, "created zone and country",
		slog.String("zone", zone.Name),
		slog.String("country", country.Code),
	)
	return nil
}

func (p *Pipeline) seedChannel(ctx context.Context, st *state, rep *Report) error {
	if st.channel.DefaultTaxZoneID == st.zone.ID {
		rep.Channel.Existing++
		p.logger.InfoContext(ctx, "channel already uses zone as default tax zone", slog.String("zone", st.zone.Name))
		return nil
	}
	ch, err := p.admin.UpdateChannelZones(ctx, st.channel.ID, st.zone.ID, st.zone.ID)
	if err != nil {
		return err
	}
	st.channel = ch
	rep.Channel.Created++
	p.logger.InfoContext(ctx, "assigned default tax and shipping zone", slog.String("zone", st.zone.Name))
	return nil
}

func (p *Pipeline) seedTax(ctx context.Context, st *state, rep *Report) error {
	cats, err := p.admin.ListTaxCategories(ctx)
	if err != nil {
		return err
	}
	for _, tc := range cats {
		if tc.Name == p.ref.Tax.Category {
			rep.Tax.Existing++
			p.logger.InfoContext(ctx, "tax category already exists", slog.String("tax_category", tc.Name))
			return nil
		}
	}

	tc, err := p.admin.CreateTaxCategory(ctx, backend.CreateTaxCategoryInput{Name: p.ref.Tax.Category, IsDefault: true})
	if err != nil {
		return err
	}
	rate, err := p.admin.CreateTaxRate(ctx, backend.CreateTaxRateInput{
		Name:       p.ref.Tax.RateName,
		Enabled:    true,
		Value:      p.ref.Tax.Rate,
		CategoryID: tc.ID,
		ZoneID:     st.zone.ID,
	})
	if err != nil {
		return err
	}
	rep.Tax.Created++
	p.logger.InfoContext(ctx, "created tax category and rate",
		slog.String("tax_category", tc.Name),
		slog.String("tax_rate", rate.Name),
		slog.Float64("value", rate.Value),
	)
	return nil
}

func (p *Pipeline) seedBrandFacet(ctx context.Context, st *state, rep *Report) error {
	facets, err := p.admin.ListFacets(ctx, backend.ListOptions{Take: pageSize})
	if err != nil {
		return err
	}
	st.facets = facets

	if f, ok := findFacet(facets, p.ref.BrandFacet.Code); ok {
		st.brandFacet = f
		rep.BrandFacet.Existing++
		p.logger.InfoContext(ctx, "brand facet already exists", slog.String("code", f.Code))
		return nil
	}
	f, err := p.admin.CreateFacet(ctx, backend.CreateFacetInput{
		Code:         p.ref.BrandFacet.Code,
		Translations: named(p.ref.BrandFacet.Names),
	})
	if err != nil {
		return err
	}
	st.brandFacet = f
	rep.BrandFacet.Created++
	p.logger.InfoContext(ctx, "created brand facet", slog.String("code", f.Code))
	return nil
}

func (p *Pipeline) seedBrands(ctx context.Context, st *state, rep *Report) error {
	values, err := p.admin.ListFacetValues(ctx)
	if err != nil {
		return err
	}
	existing := make(map[string]bool)
	for _, fv := range values {
		if fv.FacetID == st.brandFacet.ID {
			existing[fv.Code] = true
		}
	}

	for _, brand := range p.ref.Brands {
		code := slug.Generate(brand)
		if existing[code] {
			rep.Brands.Existing++
			continue
		}
		_, err := p.admin.CreateFacetValues(ctx, []backend.CreateFacetValueInput{{
			FacetID: st.brandFacet.ID,
			Code:    code,
			Translations: []backend.Translation{
				{LanguageCode: backend.LanguageES, Name: brand},
				{LanguageCode: backend.LanguageEN, Name: brand},
			},
		}})
		if err != nil {
			return fmt.Errorf("brand %q: %w", brand, err)
		}
		existing[code] = true
		rep.Brands.Created++
		p.logger.InfoContext(ctx, "created brand", slog.String("brand", brand), slog.String("code", code))
	}

	if rep.Brands.Created == 0 {
		p.logger.InfoContext(ctx, "all brand facet values already exist")
	} else {
		p.logger.InfoContext(ctx, "created brand facet values", slog.Int("count", rep.Brands.Created))
	}
	return nil
}

func (p *Pipeline) seedConditionFacet(ctx context.Context, st *state, rep *Report) error {
	if f, ok := findFacet(st.facets, p.ref.ConditionFacet.Code); ok {
		rep.ConditionFacet.Existing++
		p.logger.InfoContext(ctx, "condition facet already exists", slog.String("code", f.Code))
		return nil
	}
	f, err := p.admin.CreateFacet(ctx, backend.CreateFacetInput{
		Code:         p.ref.ConditionFacet.Code,
		Translations: named(p.ref.ConditionFacet.Names),
	})
	if err != nil {
		return err
	}
	for _, v := range p.ref.ConditionFacet.Values {
		_, err := p.admin.CreateFacetValues(ctx, []backend.CreateFacetValueInput{{
			FacetID:      f.ID,
			Code:         v.Code,
			Translations: named(v.Names),
		}})
		if err != nil {
			return fmt.Errorf("condition %q: %w", v.Code, err)
		}
	}
	rep.ConditionFacet.Created++
	p.logger.InfoContext(ctx, "created condition facet with values",
		slog.String("code", f.Code),
		slog.Int("values", len(p.ref.ConditionFacet.Values)),
	)
	return nil
}

func (p *Pipeline) seedCollections(ctx context.Context, st *state, rep *Report) error {
	cols, err := p.admin.ListCollections(ctx, backend.ListOptions{Take: pageSize})
	if err != nil {
		return err
	}
	slugs := make(map[string]bool, len(cols))
	for _, c := range cols {
		slugs[c.Slug] = true
		if c.Slug == p.ref.RootCollection.Slug && st.root.ID == "" {
			st.root = c
		}
	}

	if st.root.ID != "" {
		rep.RootCollection.Existing++
	} else {
		root, err := p.admin.CreateCollection(ctx, backend.CreateCollectionInput{
			Translations: rootTranslations(p.ref.RootCollection),
		})
		if err != nil {
			return fmt.Errorf("root collection: %w", err)
		}
		st.root = root
		slugs[p.ref.RootCollection.Slug] = true
		rep.RootCollection.Created++
		p.logger.InfoContext(ctx, "created root collection", slog.String("slug", p.ref.RootCollection.Slug))
	}

	for _, category := range p.ref.Categories {
		s := slug.Generate(category)
		if slugs[s] {
			rep.Collections.Existing++
			continue
		}
		_, err := p.admin.CreateCollection(ctx, backend.CreateCollectionInput{
			ParentID: st.root.ID,
			Translations: []backend.Translation{
				{LanguageCode: backend.LanguageES, Name: category, Slug: s, Description: "Piezas de repuesto: " + category},
				{LanguageCode: backend.LanguageEN, Name: category, Slug: s + "-en", Description: "Spare parts: " + category},
			},
		})
		if err != nil {
			return fmt.Errorf("collection %q: %w", category, err)
		}
		slugs[s] = true
		rep.Collections.Created++
		p.logger.InfoContext(ctx, "created collection", slog.String("category", category), slog.String("slug", s))
	}

	if rep.Collections.Created == 0 {
		p.logger.InfoContext(ctx, "all category collections already exist")
	} else {
		p.logger.InfoContext(ctx, "created category collections", slog.Int("count", rep.Collections.Created))
	}
	return nil
}

func findFacet(facets []backend.Facet, code string) (backend.Facet, bool) {
	for _, f := range facets {
		if f.Code == code {
			return f, true
		}
	}
	return backend.Facet{}, false
}

func named(names reference.Names) []backend.Translation {
	out := make([]backend.Translation, 0, len(names))
	for _, lang := range languages(names) {
		out = append(out, backend.Translation{LanguageCode: backend.LanguageCode(lang), Name: names[lang]})
	}
	return out
}

// languages lists the translated languages with Spanish first, since it is
// the channel default and the one list queries return.
func languages(names reference.Names) []string {
	langs := names.Languages()
	sort.SliceStable(langs, func(i, j int) bool {
		return langs[i] == string(backend.LanguageES) && langs[j] != string(backend.LanguageES)
	})
	return langs
}

// rootTranslations gives the Spanish translation the canonical slug and the
// English one its own slug; other languages get slug-<lang>.
func rootTranslations(c reference.Collection) []backend.Translation {
	out := make([]backend.Translation, 0, len(c.Names))
	for _, lang := range languages(c.Names) {
		s := c.Slug + "-" + lang
		switch backend.LanguageCode(lang) {
		case backend.LanguageES:
			s = c.Slug
		case backend.LanguageEN:
			if c.EnglishSlug != "" {
				s = c.EnglishSlug
			}
		}
		out = append(out, backend.Translation{
			LanguageCode: backend.LanguageCode(lang),
			Name:         c.Names[lang],
			Slug:         s,
			Description:  c.Descriptions[lang],
		})
	}
	return out
}
