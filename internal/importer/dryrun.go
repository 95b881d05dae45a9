package importer

import (
	"context"
	"fmt"

	"github.com/uniclima/storefront/internal/backend"
	"github.com/uniclima/storefront/internal/backend/memory"
)

// dryRun writes to an in-memory copy of the reference data and reads
// products from both the copy and the live backend, so rows that would be
// skipped for an existing slug are still skipped.
type dryRun struct {
	*memory.Backend
	live backend.Admin
}

// DryRun returns an Admin that never calls a create operation on live.
func DryRun(ctx context.Context, live backend.Admin) (backend.Admin, error) {
	snap, err := memory.Snapshot(ctx, live)
	if err != nil {
		return nil, fmt.Errorf("snapshot reference data: %w", err)
	}
	return &dryRun{Backend: snap, live: live}, nil
}

func (d *dryRun) FindProductBySlug(ctx context.Context, slug string) (*backend.Product, error) {
	p, err := d.Backend.FindProductBySlug(ctx, slug)
	if err != nil || p != nil {
		return p, err
	}
	return d.live.FindProductBySlug(ctx, slug)
}
