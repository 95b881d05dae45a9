package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/uniclima/storefront/internal/ledger"
)

func newRunsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "runs <run-id>",
		Short: "Show a recorded seed or import run and its errored rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			pool, err := c.openDB(ctx, c.cfg, c.log)
			if err != nil {
				c.printHint(err)
				return err
			}
			defer pool.Close()

			repo := ledger.NewRepository(pool)
			run, err := repo.Get(ctx, args[0])
			if err != nil {
				return err
			}
			rows, err := repo.RowErrors(ctx, run.ID)
			if err != nil {
				return err
			}
			c.printRun(run, rows)
			return nil
		},
	}
}

func (c *cli) printRun(run *ledger.Run, rows []ledger.RowError) {
	c.printf("Run:      %s\n", run.ID)
	c.printf("Kind:     %s\n", run.Kind)
	c.printf("Source:   %s\n", run.Source)
	c.printf("Status:   %s\n", run.Status)
	c.printf("Dry run:  %t\n", run.DryRun)
	c.printf("Started:  %s\n", run.StartedAt.Format(time.RFC3339))
	if run.FinishedAt != nil {
		c.printf("Finished: %s (%s)\n", run.FinishedAt.Format(time.RFC3339), run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
	}
	if run.Failure != "" {
		c.printf("Failure:  %s\n", run.Failure)
	}
	c.printf("Counts:   imported=%d skipped=%d errors=%d total=%d\n", run.Imported, run.Skipped, run.Errored, run.Total)

	if len(rows) == 0 {
		return
	}
	c.printf("\nErrored rows:\n")
	for _, r := range rows {
		c.printf("  row %d  %s  %s\n", r.Row, r.SKU, r.Message)
	}
}
