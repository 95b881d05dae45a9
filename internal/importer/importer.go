// Package importer creates catalog products from WooCommerce export rows.
// Rows are processed in a single forward pass; a failing row is recorded
// and the pass continues.
package importer

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/uniclima/storefront/internal/backend"
	"github.com/uniclima/storefront/internal/catalog"
	"github.com/uniclima/storefront/internal/ledger"
	"github.com/uniclima/storefront/internal/refdata"
)

const tracerName = "github.com/uniclima/storefront/internal/importer"

// DefaultProgressEvery is how many imported products go between progress
// log lines.
const DefaultProgressEvery = 10

// Outcome is the terminal state of a row.
type Outcome string

const (
	OutcomeImported Outcome = "imported"
	OutcomeSkipped  Outcome = "skipped"
	OutcomeErrored  Outcome = "errored"
)

// Summary counts row outcomes.
type Summary struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
	Errored  int `json:"errored"`
	Total    int `json:"total"`
}

func (s *Summary) add(o Outcome) {
	switch o {
	case OutcomeImported:
		s.Imported++
	case OutcomeSkipped:
		s.Skipped++
	case OutcomeErrored:
		s.Errored++
	}
}

// LogValue renders the summary as a structured log group.
func (s Summary) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("imported", s.Imported),
		slog.Int("skipped", s.Skipped),
		slog.Int("errors", s.Errored),
		slog.Int("total", s.Total),
	)
}

// Options tunes an import.
type Options struct {
	// Condition is the condition facet value code given to every product.
	Condition string
	// Limit caps the rows processed. Zero means all rows.
	Limit int
	// ProgressEvery defaults to DefaultProgressEvery.
	ProgressEvery int
	// Recorder receives errored rows. Nil disables recording.
	Recorder ledger.Recorder
	// Run is the ledger run rows are recorded under. Its counts are
	// updated when Run returns.
	Run    *ledger.Run
	Logger *slog.Logger
}

// Importer turns rows into products and variants.
type Importer struct {
	admin  backend.Admin
	refs   *refdata.Set
	opts   Options
	logger *slog.Logger

	// seen holds slugs created during this run.
	seen map[string]bool
}

// New creates an importer over admin using the loaded reference data.
func New(admin backend.Admin, refs *refdata.Set, opts Options) *Importer {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.ProgressEvery <= 0 {
		opts.ProgressEvery = DefaultProgressEvery
	}
	if opts.Recorder == nil {
		opts.Recorder = ledger.Nop{}
	}
	return &Importer{
		admin:  admin,
		refs:   refs,
		opts:   opts,
		logger: opts.Logger,
		seen:   make(map[string]bool),
	}
}

// Run imports items in order. It stops early only when ctx is done.
func (im *Importer) Run(ctx context.Context, items []catalog.Item) (Summary, error) {
	if im.opts.Limit > 0 && len(items) > im.opts.Limit {
		items = items[:im.opts.Limit]
	}

	var sum Summary
	defer func() {
		if run := im.opts.Run; run != nil {
			run.Imported, run.Skipped, run.Errored, run.Total = sum.Imported, sum.Skipped, sum.Errored, sum.Total
		}
	}()

	im.logger.InfoContext(ctx, "starting product import", slog.Int("rows", len(items)))

	for _, it := range items {
		if err := ctx.Err(); err != nil {
			return sum, fmt.Errorf("import interrupted at row %d: %w", it.Row, err)
		}

		outcome := im.Import(ctx, it)
		sum.add(outcome)
		sum.Total++
		rowsTotal.WithLabelValues(string(outcome)).Inc()

		if outcome == OutcomeImported && sum.Imported%im.opts.ProgressEvery == 0 {
			im.logger.InfoContext(ctx, "import progress", slog.Int("imported", sum.Imported))
		}
	}

	im.logger.InfoContext(ctx, "import completed", slog.Any("summary", sum))
	return sum, nil
}

// Import runs one row through the pipeline and returns its outcome.
// Failures are logged and recorded rather than returned.
func (im *Importer) Import(ctx context.Context, it catalog.Item) Outcome {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "import.row")
	defer span.End()
	span.SetAttributes(
		attribute.Int("import.row", it.Row),
		attribute.String("import.sku", it.SKU),
	)

	outcome, err := im.importItem(ctx, it)
	span.SetAttributes(attribute.String("import.outcome", string(outcome)))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		im.logger.ErrorContext(ctx, "error importing product",
			slog.String("sku", it.SKU),
			slog.Int("row", it.Row),
			slog.String("error", err.Error()),
		)
		im.recordError(ctx, it, err)
	}
	return outcome
}

func (im *Importer) importItem(ctx context.Context, it catalog.Item) (Outcome, error) {
	if !it.Importable() {
		im.logger.DebugContext(ctx, "skipping row without SKU or name", slog.Int("row", it.Row))
		return OutcomeSkipped, nil
	}

	slug := it.Slug()
	if im.seen[slug] {
		im.logger.InfoContext(ctx, "product already exists, skipping", slog.String("name", it.Name), slog.String("slug", slug))
		return OutcomeSkipped, nil
	}
	existing, err := im.admin.FindProductBySlug(ctx, slug)
	if err != nil {
		return OutcomeErrored, fmt.Errorf("find product %q: %w", slug, err)
	}
	if existing != nil {
		im.seen[slug] = true
		im.logger.InfoContext(ctx, "product already exists, skipping", slog.String("name", it.Name), slog.String("slug", slug))
		return OutcomeSkipped, nil
	}

	category := it.Category()
	if c, ok := im.refs.Collection(category); ok {
		im.logger.DebugContext(ctx, "category collection found", slog.String("category", category), slog.String("collection_id", c.ID))
	} else {
		im.logger.DebugContext(ctx, "category collection not found", slog.String("category", category))
	}

	var facetValueIDs []string
	if brand := it.Brand(); brand != "" {
		if fv, ok := im.refs.Brand(brand); ok {
			facetValueIDs = append(facetValueIDs, fv.ID)
		} else {
			im.logger.DebugContext(ctx, "brand not found", slog.String("brand", brand))
		}
	}
	if fv, ok := im.refs.Condition(im.opts.Condition); ok {
		facetValueIDs = append(facetValueIDs, fv.ID)
	}

	product, err := im.admin.CreateProduct(ctx, backend.CreateProductInput{
		Enabled: it.Enabled(),
		Translations: []backend.Translation{{
			LanguageCode: backend.LanguageES,
			Name:         it.Name,
			Slug:         slug,
			Description:  it.PlainDescription(),
		}},
		FacetValueIDs: facetValueIDs,
	})
	if err != nil {
		return OutcomeErrored, fmt.Errorf("create product: %w", err)
	}
	im.seen[slug] = true

	price := it.Price()
	stock := it.StockOnHand()
	_, err = im.admin.CreateProductVariant(ctx, backend.CreateProductVariantInput{
		ProductID:      product.ID,
		SKU:            it.SKU,
		Price:          price,
		TaxCategoryID:  im.refs.TaxCategory.ID,
		TrackInventory: backend.FlagTrue,
		StockLevels: []backend.StockLevelInput{{
			StockLocationID: im.refs.StockLocation.ID,
			StockOnHand:     stock,
		}},
		Translations: []backend.Translation{{LanguageCode: backend.LanguageES, Name: it.Name}},
	})
	if err != nil {
		return OutcomeErrored, fmt.Errorf("create variant %s: %w", it.SKU, err)
	}

	im.logger.InfoContext(ctx, "imported product",
		slog.String("sku", it.SKU),
		slog.String("name", it.Name),
		slog.Int64("price", price),
		slog.Int("stock", stock),
	)
	return OutcomeImported, nil
}

func (im *Importer) recordError(ctx context.Context, it catalog.Item, cause error) {
	e := ledger.RowError{Row: it.Row, SKU: it.SKU, Message: cause.Error()}
	if im.opts.Run != nil {
		e.RunID = im.opts.Run.ID
	}
	if err := im.opts.Recorder.RecordRowError(ctx, e); err != nil {
		im.logger.WarnContext(ctx, "failed to record row error", slog.Int("row", it.Row), slog.String("error", err.Error()))
	}
}
