package utils

import (
	"net/http"
	"strconv"
)

// Page size bounds for list endpoints.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	// MaxPage keeps (page-1)*limit far from int overflow.
	MaxPage = 1_000_000
)

// GetPaginationParams parses page and limit query parameters from a request.
// Returns page (default 1, capped at MaxPage) and limit (default DefaultPageSize,
// capped at MaxPageSize).
func GetPaginationParams(r *http.Request) (page, limit int) {
	q := r.URL.Query()

	page, err := strconv.Atoi(q.Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}

	limit, err = strconv.Atoi(q.Get("limit"))
	if err != nil || limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit
}
