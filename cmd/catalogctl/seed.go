package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/uniclima/storefront/internal/ledger"
	"github.com/uniclima/storefront/internal/reference"
	"github.com/uniclima/storefront/internal/seed"
	"github.com/uniclima/storefront/pkg/logger"
)

// defaultReferenceSource is the ledger source of runs using the embedded
// reference table.
const defaultReferenceSource = "embedded"

func newSeedCmd(c *cli) *cobra.Command {
	var refFile string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the zone, tax, facets and collections the import relies on",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("reference") {
				refFile = c.cfg.ReferenceFile
			}
			return c.seed(cmd, refFile)
		},
	}
	cmd.Flags().StringVar(&refFile, "reference", "", "Reference data YAML (default: embedded table)")
	return cmd
}

func (c *cli) seed(cmd *cobra.Command, refFile string) error {
	ctx := cmd.Context()

	ref, err := reference.Load(refFile)
	if err != nil {
		return err
	}

	session, closeSession, err := c.session(ctx)
	if err != nil {
		return err
	}
	defer closeSession()

	rec, closeLedger := c.recorder(ctx)
	defer closeLedger()

	source := refFile
	if source == "" {
		source = defaultReferenceSource
	}
	rec, run := c.startRun(ctx, rec, ledger.KindSeed, source, false)
	ctx = logger.WithRunID(ctx, run.ID)
	log := logger.WithContext(ctx, c.log)

	rep, err := seed.New(session, ref, log).Run(ctx)
	if rep != nil {
		run.Imported = rep.Created()
		run.Total = run.Imported + existing(rep)
		run.Skipped = run.Total - run.Imported
	}
	c.finishRun(ctx, rec, run, err)
	if err != nil {
		return err
	}

	c.printf("\nSeeding completed.\n")
	c.printf("  Zone:             %d created, %d existing\n", rep.Zone.Created, rep.Zone.Existing)
	c.printf("  Channel:          %d updated, %d unchanged\n", rep.Channel.Created, rep.Channel.Existing)
	c.printf("  Tax:              %d created, %d existing\n", rep.Tax.Created, rep.Tax.Existing)
	c.printf("  Brand facet:      %d created, %d existing\n", rep.BrandFacet.Created, rep.BrandFacet.Existing)
	c.printf("  Brands:           %d created, %d existing\n", rep.Brands.Created, rep.Brands.Existing)
	c.printf("  Condition facet:  %d created, %d existing\n", rep.ConditionFacet.Created, rep.ConditionFacet.Existing)
	c.printf("  Root collection:  %d created, %d existing\n", rep.RootCollection.Created, rep.RootCollection.Existing)
	c.printf("  Collections:      %d created, %d existing\n", rep.Collections.Created, rep.Collections.Existing)
	c.printf("\nBrands available: %d\nCategories available: %d\n", len(ref.Brands), len(ref.Categories))
	c.printf("\nNext step: Run the WooCommerce import\n  catalogctl import --file %s\n", c.cfg.CSVPath)

	log.Debug("seed run recorded", slog.String("status", string(run.Status)))
	return nil
}

func existing(rep *seed.Report) int {
	return rep.Zone.Existing + rep.Channel.Existing + rep.Tax.Existing + rep.BrandFacet.Existing +
		rep.Brands.Existing + rep.ConditionFacet.Existing + rep.RootCollection.Existing + rep.Collections.Existing
}
