// Command catalogctl seeds the Uniclima Vendure catalog, imports the
// WooCommerce product export and inspects the catalog database.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	pkgconfig "github.com/uniclima/storefront/pkg/config"
)

var version = "dev"

func main() {
	if err := pkgconfig.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := execute(ctx, os.Args[1:], defaultDeps())
	cancel()
	if err != nil {
		os.Exit(1)
	}
}
