// Package cache keeps anonymous catalog reads from the shop API in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"github.com/uniclima/storefront/internal/shop"
	"github.com/uniclima/storefront/pkg/graphql"
)

const keyPrefix = "catalog:"

var lookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "storefront_catalog_cache_lookups_total",
	Help: "Catalog cache lookups by operation and result.",
}, []string{"operation", "result"})

// Catalog is the read side of the shop API.
type Catalog interface {
	Products(ctx context.Context, opts shop.ListOptions) (shop.List[shop.Product], error)
	ProductBySlug(ctx context.Context, slug string) (*shop.Product, error)
	Collections(ctx context.Context, opts shop.ListOptions) (shop.List[shop.Collection], error)
	CollectionProducts(ctx context.Context, slug string, opts shop.ListOptions) (*shop.CollectionProducts, error)
	Search(ctx context.Context, in shop.SearchInput) (*shop.SearchResult, error)
	Facets(ctx context.Context) ([]shop.Facet, error)
}

// CachedCatalog serves Catalog reads from Redis and fills misses from next.
// Requests made within a customer session bypass the cache, since prices
// and stock may depend on the customer.
type CachedCatalog struct {
	next   Catalog
	client redis.Cmdable
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedCatalog wraps next. A zero ttl disables caching.
func NewCachedCatalog(next Catalog, client redis.Cmdable, ttl time.Duration, logger *slog.Logger) *CachedCatalog {
	return &CachedCatalog{next: next, client: client, ttl: ttl, logger: logger}
}

func (c *CachedCatalog) Products(ctx context.Context, opts shop.ListOptions) (shop.List[shop.Product], error) {
	return cached(ctx, c, "products", opts, func() (shop.List[shop.Product], error) {
		return c.next.Products(ctx, opts)
	})
}

func (c *CachedCatalog) ProductBySlug(ctx context.Context, slug string) (*shop.Product, error) {
	return cached(ctx, c, "product", slug, func() (*shop.Product, error) {
		return c.next.ProductBySlug(ctx, slug)
	})
}

func (c *CachedCatalog) Collections(ctx context.Context, opts shop.ListOptions) (shop.List[shop.Collection], error) {
	return cached(ctx, c, "collections", opts, func() (shop.List[shop.Collection], error) {
		return c.next.Collections(ctx, opts)
	})
}

func (c *CachedCatalog) CollectionProducts(ctx context.Context, slug string, opts shop.ListOptions) (*shop.CollectionProducts, error) {
	args := struct {
		Slug string
		Opts shop.ListOptions
	}{slug, opts}
	return cached(ctx, c, "collection", args, func() (*shop.CollectionProducts, error) {
		return c.next.CollectionProducts(ctx, slug, opts)
	})
}

func (c *CachedCatalog) Search(ctx context.Context, in shop.SearchInput) (*shop.SearchResult, error) {
	return cached(ctx, c, "search", in, func() (*shop.SearchResult, error) {
		return c.next.Search(ctx, in)
	})
}

func (c *CachedCatalog) Facets(ctx context.Context) ([]shop.Facet, error) {
	return cached(ctx, c, "facets", nil, func() ([]shop.Facet, error) {
		return c.next.Facets(ctx)
	})
}

// Purge drops every cached catalog entry and returns how many were removed.
func (c *CachedCatalog) Purge(ctx context.Context) (int, error) {
	var removed int
	iter := c.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return removed, fmt.Errorf("redis del %s: %w", iter.Val(), err)
		}
		removed++
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("redis scan catalog keys: %w", err)
	}
	return removed, nil
}

// Key returns the Redis key for operation op called with args.
func Key(op string, args any) (string, error) {
	if args == nil {
		return keyPrefix + op, nil
	}
	b, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("marshal cache key: %w", err)
	}
	return keyPrefix + op + ":" + string(b), nil
}

// cached is read-through: Redis failures are logged and the read goes to
// the backend.
func cached[T any](ctx context.Context, c *CachedCatalog, op string, args any, fetch func() (T, error)) (T, error) {
	if c.ttl <= 0 || graphql.SessionFromContext(ctx).Token() != "" {
		lookups.WithLabelValues(op, "bypass").Inc()
		return fetch()
	}

	key, err := Key(op, args)
	if err != nil {
		return fetch()
	}

	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var v T
		if err := json.Unmarshal(data, &v); err == nil {
			lookups.WithLabelValues(op, "hit").Inc()
			return v, nil
		}
		c.logger.WarnContext(ctx, "discarding undecodable cache entry", slog.String("key", key))
	case !errors.Is(err, redis.Nil):
		lookups.WithLabelValues(op, "error").Inc()
		c.logger.WarnContext(ctx, "catalog cache read failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return fetch()
	}

	lookups.WithLabelValues(op, "miss").Inc()
	v, err := fetch()
	if err != nil {
		return v, err
	}

	data, err = json.Marshal(v)
	if err != nil {
		return v, nil
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "catalog cache write failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
	return v, nil
}
