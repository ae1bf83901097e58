// Package pagination normalizes list parameters and builds the page
// envelope returned by every index endpoint.
package pagination

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"communityboard/internal/apperr"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
	// keeps (page-1)*limit far from overflowing
	MaxPage = 1_000_000
	DefaultSort  = "created_at"
)

type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// Sortable maps API sort field names to SQL columns. Only whitelisted
// columns ever reach a query.
type Sortable map[string]string

type Params struct {
	Page   int
	Limit  int
	SortBy string
	Order  Order
	column string
}

// Parse reads page, limit, sort_by and order from query values.
func Parse(values url.Values, sortable Sortable) (Params, error) {
	page, err := intParam(values, "page", DefaultPage)
	if err != nil {
		return Params{}, err
	}
	if page > MaxPage {
		return Params{}, apperr.Newf(apperr.ErrValidation, "page must not exceed %d", MaxPage)
	}
	limit, err := intParam(values, "limit", DefaultLimit)
	if err != nil {
		return Params{}, err
	}
	if limit > MaxLimit {
		return Params{}, apperr.Newf(apperr.ErrValidation, "limit must not exceed %d", MaxLimit)
	}

	return New(page, limit, values.Get("sort_by"), values.Get("order"), sortable), nil
}

// New builds params from already validated numbers. Unknown sort fields
// fall back to created_at, unknown orders to descending.
func New(page, limit int, sortBy, order string, sortable Sortable) Params {
	p := Params{Page: page, Limit: limit, SortBy: sortBy, Order: Order(strings.ToLower(order))}

	column, ok := sortable[p.SortBy]
	if !ok {
		p.SortBy = DefaultSort
		column = DefaultSort
		if c, ok := sortable[DefaultSort]; ok {
			column = c
		}
	}
	p.column = column

	if p.Order != Asc && p.Order != Desc {
		p.Order = Desc
	}
	return p
}

func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// OrderBy returns the ORDER BY expression, e.g. "p.created_at DESC".
func (p Params) OrderBy() string {
	column := p.column
	if column == "" {
		column = DefaultSort
	}
	return fmt.Sprintf("%s %s", column, strings.ToUpper(string(p.Order)))
}

type Pagination struct {
	Current int `json:"current"`
	Limit   int `json:"limit"`
	Records int `json:"records"`
	Pages   int `json:"pages"`
}

type Page[T any] struct {
	Pagination Pagination `json:"pagination"`
	Data       []T        `json:"data"`
}

// NewPage echoes the requested page and limit and computes the page count.
func NewPage[T any](p Params, records int, data []T) Page[T] {
	if data == nil {
		data = []T{}
	}
	return Page[T]{
		Pagination: Pagination{
			Current: p.Page,
			Limit:   p.Limit,
			Records: records,
			Pages:   Pages(records, p.Limit),
		},
		Data: data,
	}
}

// Pages is ceil(records/limit); zero records means zero pages.
func Pages(records, limit int) int {
	if records <= 0 || limit <= 0 {
		return 0
	}
	return (records + limit - 1) / limit
}

func intParam(values url.Values, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, apperr.Newf(apperr.ErrValidation, "%s must be a positive integer", key)
	}
	return n, nil
}
