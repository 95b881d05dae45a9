package main

import (
	"github.com/spf13/cobra"

	"github.com/uniclima/storefront/internal/diagnostics"
)

func newMigrateCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the ledger and quote schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			pool, err := c.openDB(ctx, c.cfg, c.log)
			if err != nil {
				c.printHint(err)
				return err
			}
			defer pool.Close()

			res, err := diagnostics.Migrate(ctx, pool, c.log)
			if err != nil {
				return err
			}

			if len(res.Applied) == 0 {
				c.printf("Schema is up to date.\n")
			}
			for _, v := range res.Applied {
				c.printf("Applied %s\n", v)
			}
			c.printf("%d migrations recorded.\n", len(res.All))
			return nil
		},
	}
}
