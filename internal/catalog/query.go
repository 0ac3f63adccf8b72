package catalog

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/javajoker/storefront-backend/internal/models"
)

// Options holds the per-deployment settings of the engine.
type Options struct {
	SearchMode SearchMode
	// Locale drives name collation and case folding. The zero tag collates
	// with the root order.
	Locale language.Tag
}

// Result is a disposable view of one query. From and To are 1-based and
// inclusive; both are 0 when the page is empty.
type Result struct {
	Items        []models.Product `json:"items"`
	TotalMatches int              `json:"total_matches"`
	TotalPages   int              `json:"total_pages"`
	Page         int              `json:"page"`
	PageSize     int              `json:"page_size"`
	From         int              `json:"from"`
	To           int              `json:"to"`
	Facets       FacetState       `json:"facets"`
}

// Query filters, stable-sorts and paginates products. The snapshot is not
// modified and every call starts from scratch.
func Query(products []models.Product, facets FacetState, opts Options) Result {
	f := facets.Normalize()

	matched := filter(products, f, opts)
	sortProducts(matched, f.Sort, opts.Locale)

	res := Result{
		Items:        []models.Product{},
		TotalMatches: len(matched),
		TotalPages:   totalPages(len(matched), f.PageSize),
		Page:         f.Page,
		PageSize:     f.PageSize,
		Facets:       f,
	}

	// Compare before multiplying; a huge page must not overflow start.
	if f.Page-1 >= (len(matched)+f.PageSize-1)/f.PageSize {
		return res
	}
	start := (f.Page - 1) * f.PageSize
	end := start + f.PageSize
	if end > len(matched) {
		end = len(matched)
	}

	res.Items = make([]models.Product, 0, end-start)
	for _, p := range matched[start:end] {
		res.Items = append(res.Items, *p)
	}
	res.From = start + 1
	res.To = end
	return res
}

func filter(products []models.Product, f FacetState, opts Options) []*models.Product {
	categories := f.categorySet()

	var needle string
	var fold cases.Caser
	searching := opts.SearchMode != SearchExternal && f.Query != ""
	if searching {
		fold = cases.Fold()
		needle = fold.String(f.Query)
	}

	out := make([]*models.Product, 0, len(products))
	for i := range products {
		p := &products[i]

		if categories != nil && !p.InCategory(categories) {
			continue
		}
		if f.PriceMin > 0 && p.Price < f.PriceMin {
			continue
		}
		if f.PriceMax > 0 && p.Price > f.PriceMax {
			continue
		}
		if searching && !strings.Contains(fold.String(p.Name), needle) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func sortProducts(products []*models.Product, key SortKey, locale language.Tag) {
	var less func(a, b *models.Product) bool

	switch key {
	case SortPriceAsc:
		less = func(a, b *models.Product) bool { return a.Price < b.Price }
	case SortPriceDesc:
		less = func(a, b *models.Product) bool { return a.Price > b.Price }
	case SortNameAsc, SortNameDesc:
		col := collate.New(locale, collate.IgnoreCase)
		sign := 1
		if key == SortNameDesc {
			sign = -1
		}
		less = func(a, b *models.Product) bool {
			return sign*col.CompareString(a.Name, b.Name) < 0
		}
	default:
		// Newest is the snapshot's own order.
		return
	}

	sort.SliceStable(products, func(i, j int) bool {
		return less(products[i], products[j])
	})
}

func totalPages(n, size int) int {
	if n == 0 {
		return 0
	}
	return (n + size - 1) / size
}

// PriceBounds returns the lowest and highest base price in the snapshot, or
// zeros when it is empty.
func PriceBounds(products []models.Product) (lo, hi float64) {
	for i, p := range products {
		if i == 0 || p.Price < lo {
			lo = p.Price
		}
		if i == 0 || p.Price > hi {
			hi = p.Price
		}
	}
	return lo, hi
}
