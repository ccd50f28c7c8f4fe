package api

import (
	"net/http"
	"strconv"
)

// The dashboard's alert table pages through results with ?page and
// ?per_page. per_page is capped so one request cannot pull the whole
// alert history across the wire.
const (
	DefaultPerPage = 50
	MaxPerPage     = 200
)

// PaginationParams holds the parsed paging window for a list request.
type PaginationParams struct {
	Page    int
	PerPage int
}

// ParsePagination reads the paging parameters from the query string.
// Missing or malformed values fall back to page 1 with the default size.
func ParsePagination(r *http.Request) PaginationParams {
	q := r.URL.Query()
	return PaginationParams{
		Page:    positiveInt(q.Get("page"), 1, 0),
		PerPage: positiveInt(q.Get("per_page"), DefaultPerPage, MaxPerPage),
	}
}

// positiveInt parses raw as a positive integer, falling back to def.
// A non-zero limit clamps the result.
func positiveInt(raw string, def, limit int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	if limit > 0 && n > limit {
		return limit
	}
	return n
}

// Offset converts the page number into the store's row offset.
func (p PaginationParams) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// TotalPages reports how many pages the result set spans.
func (p PaginationParams) TotalPages(total int64) int {
	if p.PerPage <= 0 {
		return 0
	}
	return int((total + int64(p.PerPage) - 1) / int64(p.PerPage))
}
