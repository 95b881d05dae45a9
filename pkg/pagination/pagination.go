// Package pagination converts page/per_page query strings into the
// take/skip window list queries expect, and wraps listed items with page
// metadata for JSON responses.
package pagination

import (
	"math"
	"net/http"
	"strconv"
)

const (
	// DefaultPerPage matches the storefront product grid.
	DefaultPerPage = 24
	// MaxPerPage is the largest take the shop API accepts for list queries.
	MaxPerPage = 100
)

// Params is a 1-based page request.
type Params struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

// DefaultParams returns the first page with the default page size.
func DefaultParams() Params {
	return Params{Page: 1, PerPage: DefaultPerPage}
}

// queryInt reads a positive integer no larger than limit, or returns def.
func queryInt(r *http.Request, key string, def, limit int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v < 1 || v > limit {
		return def
	}
	return v
}

// FromRequest reads ?page= and ?per_page=. Missing, malformed or out of
// range values keep their defaults.
func FromRequest(r *http.Request) Params {
	return Params{
		Page:    queryInt(r, "page", 1, math.MaxInt32),
		PerPage: queryInt(r, "per_page", DefaultPerPage, MaxPerPage),
	}
}

// Take is the number of items to request.
func (p Params) Take() int { return p.PerPage }

// Skip is the number of items before the current page.
func (p Params) Skip() int { return (p.Page - 1) * p.PerPage }

// Result is the JSON shape of a listed page.
type Result[T any] struct {
	Data       []T  `json:"data"`
	TotalCount int  `json:"total_count"`
	Page       int  `json:"page"`
	PerPage    int  `json:"per_page"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// NewResult wraps one page of data out of totalCount items. Data is never
// rendered as null.
func NewResult[T any](data []T, totalCount int, params Params) Result[T] {
	if data == nil {
		data = []T{}
	}
	if params.PerPage <= 0 {
		params.PerPage = DefaultPerPage
	}
	pages := (totalCount + params.PerPage - 1) / params.PerPage
	return Result[T]{
		Data:       data,
		TotalCount: totalCount,
		Page:       params.Page,
		PerPage:    params.PerPage,
		TotalPages: pages,
		HasNext:    params.Page < pages,
		HasPrev:    params.Page > 1,
	}
}
