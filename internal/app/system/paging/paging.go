// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
)

// DefaultLimit is the page size when the caller does not ask for one.
const DefaultLimit = 50

// MaxLimit caps the page size a caller can request.
const MaxLimit = 100

// Params holds the parsed limit/page query parameters (1-based page).
type Params struct {
	Limit int
	Page  int
}

// Parse extracts limit and page from the request query, clamping both to
// sane values. Absent or invalid parameters fall back to defaults.
func Parse(r *http.Request) Params {
	p := Params{Limit: DefaultLimit, Page: 1}

	if s := query.Get(r, "limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			p.Limit = n
			if p.Limit > MaxLimit {
				p.Limit = MaxLimit
			}
		}
	}
	if s := query.Get(r, "page"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			p.Page = n
		}
	}
	return p
}

// Skip returns the number of documents to skip for Mongo Find().SetSkip.
func (p Params) Skip() int64 {
	return int64(p.Page-1) * int64(p.Limit)
}

// Limit64 returns the limit as int64 for Mongo Find().SetLimit.
func (p Params) Limit64() int64 {
	return int64(p.Limit)
}

// Pages returns the total page count for a collection total.
func (p Params) Pages(total int64) int {
	if total == 0 {
		return 0
	}
	pages := total / int64(p.Limit)
	if total%int64(p.Limit) != 0 {
		pages++
	}
	return int(pages)
}
