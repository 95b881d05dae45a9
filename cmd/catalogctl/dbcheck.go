package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/uniclima/storefront/internal/diagnostics"
)

func newDBCheckCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "db:check",
		Short: "Check the catalog database connection and schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.dbCheck(cmd)
		},
	}
}

func (c *cli) dbCheck(cmd *cobra.Command) error {
	ctx := cmd.Context()
	db := c.cfg.Database

	c.printf("Checking database connection...\n")
	c.printf("  Host: %s:%d\n  Database: %s\n  User: %s\n\n", db.Host, db.Port, db.Name, db.User)

	pool, err := c.openDB(ctx, c.cfg, c.log)
	if err != nil {
		c.printf("Database connection failed: %v\n", err)
		c.printHint(err)
		return err
	}
	defer pool.Close()

	rep, err := diagnostics.Check(ctx, pool)
	if err != nil {
		c.printf("Database check failed: %v\n", err)
		c.printHint(err)
		return err
	}

	c.printf("Successfully connected to PostgreSQL!\n")
	c.printf("PostgreSQL Version: %s\n\n", rep.Version)
	if rep.Fresh() {
		c.printf("No Vendure tables found (fresh database)\n")
		c.printf("Run migrations to initialize the schema.\n")
	} else {
		c.printf("Vendure tables found:\n")
		for _, t := range rep.Tables {
			c.printf("  - %s\n", t)
		}
	}
	c.printf("\nTotal tables in database: %d\n", rep.TableCount)
	return nil
}

func (c *cli) printHint(err error) {
	if lines := diagnostics.Hint(err, c.cfg.Database.Name); len(lines) > 0 {
		c.printf("\n%s\n", strings.Join(lines, "\n"))
	}
}
