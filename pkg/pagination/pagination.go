// Package pagination provides request-side pagination parameter parsing and
// offset pagination over pre-sorted slices.
package pagination

import (
	"net/http"
	"strconv"
	"strings"
)

const (
	// DefaultPageSize is used when pageSize is not specified.
	DefaultPageSize = 50
	// MaxPageSize is the upper bound for pageSize.
	MaxPageSize = 500
)

// Params holds parsed pagination and ordering parameters from an HTTP
// request query string.
type Params struct {
	Page      int    // 1-based page number.
	PageSize  int    // Max items per page (clamped to [1, MaxPageSize]).
	OrderBy   string // Public sort key (store-specific allow-list).
	SortOrder string // "ASC" or "DESC" (default "ASC").
}

// Result holds one page of items together with the unpaginated total, so
// the dashboard can render page controls and progress denominators.
type Result struct {
	Items    any `json:"items"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
}

// Parse extracts pagination parameters from the request URL query string.
// The parameters are: page, pageSize, orderBy, sortOrder.
func Parse(r *http.Request) Params {
	q := r.URL.Query()

	page := 1
	if v := q.Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}

	pageSize := DefaultPageSize
	if v := q.Get("pageSize"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			pageSize = n
		}
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	sortOrder := "ASC"
	if strings.EqualFold(q.Get("sortOrder"), "desc") {
		sortOrder = "DESC"
	}

	return Params{
		Page:      page,
		PageSize:  pageSize,
		OrderBy:   q.Get("orderBy"),
		SortOrder: sortOrder,
	}
}

// Normalize fills zero fields with defaults and clamps pageSize.
func (p Params) Normalize() Params {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	if p.SortOrder != "DESC" {
		p.SortOrder = "ASC"
	}
	return p
}

// Offset returns the row offset for SQL-side pagination.
func (p Params) Offset() int {
	p = p.Normalize()
	return (p.Page - 1) * p.PageSize
}

// Slice applies offset pagination to a pre-sorted slice and returns the
// page together with the total length of the input.
func Slice[T any](items []T, p Params) ([]T, int) {
	p = p.Normalize()
	total := len(items)
	start := p.Offset()
	if start >= total {
		return []T{}, total
	}
	end := start + p.PageSize
	if end > total {
		end = total
	}
	return items[start:end], total
}
