// internal/app/system/paging/paging.go

// Package paging parses the limit/offset query parameters used by list
// endpoints.
package paging

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
)

// DefaultLimit is applied when the client sends no limit.
const DefaultLimit = 50

// MaxLimit caps client-supplied limits.
const MaxLimit = 200

// Parse extracts limit and offset from the request query. Missing or
// malformed values fall back to DefaultLimit and 0; limit is clamped to
// MaxLimit.
func Parse(r *http.Request) (limit, offset int64) {
	limit = DefaultLimit
	if s := query.Get(r, "limit"); s != "" {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if s := query.Get(r, "offset"); s != "" {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil && n > 0 {
			offset = n
		}
	}
	return limit, offset
}
