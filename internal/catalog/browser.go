package catalog

import (
	"sync"

	"github.com/javajoker/storefront-backend/internal/models"
)

// Browser owns one shopper's facet state. Every write is serialised through
// its mutex, and every change other than SetPage sends the shopper back to
// page 1 so a stale page number never points past the new result set.
type Browser struct {
	mu     sync.Mutex
	facets FacetState
	opts   Options
}

func NewBrowser(initial FacetState, opts Options) *Browser {
	return &Browser{facets: initial.Normalize(), opts: opts}
}

// Facets returns a copy of the current state.
func (b *Browser) Facets() FacetState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.facets.Normalize()
}

// Query runs the engine against products with the current state.
func (b *Browser) Query(products []models.Product) Result {
	return Query(products, b.Facets(), b.opts)
}

func (b *Browser) SetCategories(ids []int64) {
	b.update(func(f *FacetState) {
		f.CategoryIDs = append([]int64(nil), ids...)
	})
}

// ToggleCategory adds id to the selected categories, or removes it if it is
// already selected.
func (b *Browser) ToggleCategory(id int64) {
	b.update(func(f *FacetState) {
		for i, existing := range f.CategoryIDs {
			if existing == id {
				f.CategoryIDs = append(f.CategoryIDs[:i:i], f.CategoryIDs[i+1:]...)
				return
			}
		}
		f.CategoryIDs = append(f.CategoryIDs, id)
	})
}

func (b *Browser) SetPriceRange(lo, hi float64) {
	b.update(func(f *FacetState) {
		f.PriceMin = lo
		f.PriceMax = hi
	})
}

func (b *Browser) SetQuery(q string) {
	b.update(func(f *FacetState) { f.Query = q })
}

func (b *Browser) SetSort(key SortKey) {
	b.update(func(f *FacetState) { f.Sort = key })
}

func (b *Browser) SetPageSize(size int) {
	b.update(func(f *FacetState) { f.PageSize = size })
}

// ClearFilters drops categories, price range and query. Sort and page size
// are kept.
func (b *Browser) ClearFilters() {
	b.update(func(f *FacetState) {
		f.CategoryIDs = nil
		f.PriceMin = 0
		f.PriceMax = 0
		f.Query = ""
	})
}

// SetPage is the only mutation that keeps the other facets and the page
// number independent.
func (b *Browser) SetPage(page int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.facets.Page = page
	b.facets = b.facets.Normalize()
}

func (b *Browser) update(mutate func(*FacetState)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	mutate(&b.facets)
	b.facets.Page = 1
	b.facets = b.facets.Normalize()
}
