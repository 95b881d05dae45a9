package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/uniclima/storefront/internal/backend"
	"github.com/uniclima/storefront/internal/catalog"
	"github.com/uniclima/storefront/internal/importer"
	"github.com/uniclima/storefront/internal/ledger"
	"github.com/uniclima/storefront/internal/refdata"
	"github.com/uniclima/storefront/internal/reference"
	"github.com/uniclima/storefront/pkg/logger"
)

type importOptions struct {
	file      string
	reference string
	dryRun    bool
	limit     int
}

func newImportCmd(c *cli) *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import products from a WooCommerce CSV export",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("file") {
				opts.file = c.cfg.CSVPath
			}
			if !cmd.Flags().Changed("reference") {
				opts.reference = c.cfg.ReferenceFile
			}
			if opts.limit < 0 {
				return fmt.Errorf("--limit must not be negative, got %d", opts.limit)
			}
			return c.importProducts(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "CSV export path (default: IMPORT_CSV_PATH)")
	cmd.Flags().StringVar(&opts.reference, "reference", "", "Reference data YAML (default: embedded table)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Run the pipeline without creating anything in Vendure")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "Process only the first N rows (0 = all)")
	return cmd
}

func (c *cli) importProducts(cmd *cobra.Command, opts importOptions) error {
	ctx := cmd.Context()

	items, err := catalog.ReadFile(opts.file)
	if err != nil {
		return err
	}
	c.log.Info("read product export", slog.String("file", opts.file), slog.Int("rows", len(items)))

	ref, err := reference.Load(opts.reference)
	if err != nil {
		return err
	}

	session, closeSession, err := c.session(ctx)
	if err != nil {
		return err
	}
	defer closeSession()

	var admin backend.Admin = session
	if opts.dryRun {
		if admin, err = importer.DryRun(ctx, session); err != nil {
			return err
		}
		c.log.Info("dry run: no changes will be written to Vendure")
	}

	refs, err := refdata.Load(ctx, admin, refdata.OptionsFrom(ref, c.log))
	if err != nil {
		return fmt.Errorf("load reference data: %w", err)
	}

	rec, closeLedger := c.recorder(ctx)
	defer closeLedger()

	rec, run := c.startRun(ctx, rec, ledger.KindImport, opts.file, opts.dryRun)
	ctx = logger.WithRunID(ctx, run.ID)

	sum, err := importer.New(admin, refs, importer.Options{
		Condition: ref.DefaultCondition,
		Limit:     opts.limit,
		Recorder:  rec,
		Run:       run,
		Logger:    logger.WithContext(ctx, c.log),
	}).Run(ctx, items)
	c.finishRun(ctx, rec, run, err)
	if err != nil {
		return err
	}

	mode := "live"
	if opts.dryRun {
		mode = "dry run"
	}
	c.printf("\nImport completed (%s).\n", mode)
	c.printf("  Imported: %d\n  Skipped:  %d\n  Errors:   %d\n  Total:    %d\n",
		sum.Imported, sum.Skipped, sum.Errored, sum.Total)
	if run.ID != "" {
		c.printf("\nRun %s recorded. Inspect errored rows with:\n  catalogctl runs %s\n", run.ID, run.ID)
	}
	return nil
}
