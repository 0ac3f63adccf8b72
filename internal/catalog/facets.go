// Package catalog filters, sorts and paginates a product snapshot against a
// facet state. The engine keeps no memory between calls; the Browser type is
// the caller-side owner of a facet state.
package catalog

import (
	"strings"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// SortKey is one of the fixed catalog orderings.
type SortKey string

const (
	SortNewest    SortKey = "newest"
	SortPriceAsc  SortKey = "price_asc"
	SortPriceDesc SortKey = "price_desc"
	SortNameAsc   SortKey = "name_asc"
	SortNameDesc  SortKey = "name_desc"
)

var sortAliases = map[string]SortKey{
	"newest":     SortNewest,
	"latest":     SortNewest,
	"price_asc":  SortPriceAsc,
	"price-asc":  SortPriceAsc,
	"price_desc": SortPriceDesc,
	"price-desc": SortPriceDesc,
	"name_asc":   SortNameAsc,
	"name-asc":   SortNameAsc,
	"name_desc":  SortNameDesc,
	"name-desc":  SortNameDesc,
}

// ParseSortKey maps a user supplied sort name to a SortKey. Both the
// underscore and the dash spellings are accepted; anything else is newest.
func ParseSortKey(s string) SortKey {
	if key, ok := sortAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return key
	}
	return SortNewest
}

// IsValidSortKey reports whether s names a known ordering.
func IsValidSortKey(s string) bool {
	_, ok := sortAliases[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// SearchMode selects who evaluates the free-text query.
type SearchMode string

const (
	// SearchLocal matches the query as a case-insensitive substring of the
	// product name.
	SearchLocal SearchMode = "local"
	// SearchExternal means the snapshot was already narrowed by a search
	// backend; the engine ignores the query string.
	SearchExternal SearchMode = "external"
)

// ParseSearchMode defaults to SearchLocal.
func ParseSearchMode(s string) SearchMode {
	if SearchMode(strings.ToLower(s)) == SearchExternal {
		return SearchExternal
	}
	return SearchLocal
}

// FacetState is the full set of catalog facets. A price bound of 0 means
// unbounded on that side.
type FacetState struct {
	CategoryIDs []int64 `json:"category_ids"`
	PriceMin    float64 `json:"price_min"`
	PriceMax    float64 `json:"price_max"`
	Query       string  `json:"query"`
	Sort        SortKey `json:"sort"`
	Page        int     `json:"page"`
	PageSize    int     `json:"page_size"`
}

// Normalize returns a copy of f with end-user input brought into range:
// negative bounds become 0, inverted bounds are swapped and page values are
// clamped. It never rejects input.
func (f FacetState) Normalize() FacetState {
	out := f
	out.CategoryIDs = append([]int64(nil), f.CategoryIDs...)

	if out.PriceMin < 0 {
		out.PriceMin = 0
	}
	if out.PriceMax < 0 {
		out.PriceMax = 0
	}
	if out.PriceMin > 0 && out.PriceMax > 0 && out.PriceMin > out.PriceMax {
		out.PriceMin, out.PriceMax = out.PriceMax, out.PriceMin
	}

	out.Query = strings.TrimSpace(out.Query)
	out.Sort = ParseSortKey(string(out.Sort))

	if out.Page < 1 {
		out.Page = 1
	}
	if out.PageSize < 1 {
		out.PageSize = DefaultPageSize
	}
	if out.PageSize > MaxPageSize {
		out.PageSize = MaxPageSize
	}
	return out
}

func (f FacetState) categorySet() map[int64]struct{} {
	if len(f.CategoryIDs) == 0 {
		return nil
	}
	set := make(map[int64]struct{}, len(f.CategoryIDs))
	for _, id := range f.CategoryIDs {
		set[id] = struct{}{}
	}
	return set
}
