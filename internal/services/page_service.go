// internal/services/page_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/javajoker/storefront-backend/internal/catalog"
	"github.com/javajoker/storefront-backend/internal/models"
	"github.com/javajoker/storefront-backend/internal/sections"
)

// defaultGridLimit applies to product grids that do not set a limit.
const defaultGridLimit = 8

type PageService struct {
	repo     PageRepository
	products *ProductService
}

type PageView struct {
	Slug     string            `json:"slug"`
	Theme    string            `json:"theme"`
	Title    string            `json:"title"`
	Sections []RenderedSection `json:"sections"`
}

// RenderedSection is a section together with the catalog data it shows.
type RenderedSection struct {
	ID       string           `json:"id"`
	Type     sections.Kind    `json:"type"`
	Settings sections.Section `json:"settings"`
	Data     interface{}      `json:"data,omitempty"`
}

type ProductDetailsData struct {
	ProductDetail
	Related []models.Product `json:"related,omitempty"`
}

func NewPageService(repo PageRepository, products *ProductService) *PageService {
	return &PageService{repo: repo, products: products}
}

// GetPage decodes the stored sections of a page and attaches the products
// and categories each one needs. lines are the caller's cart lines, if any.
func (s *PageService) GetPage(ctx context.Context, slug string, lines []models.CartLine) (*PageView, error) {
	page, err := s.repo.GetPage(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPageNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	raw := page.Sections
	if raw == "" {
		raw = "[]"
	}
	list, err := sections.Decode([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("page %q: %w", slug, err)
	}

	r := &pageRenderer{ctx: ctx, products: s.products, lines: lines}
	if err := sections.DispatchAll(list, r); err != nil {
		return nil, err
	}

	return &PageView{
		Slug:     page.Slug,
		Theme:    page.Theme,
		Title:    page.Title,
		Sections: r.out,
	}, nil
}

// SavePage validates the section list before storing it.
func (s *PageService) SavePage(ctx context.Context, page *models.Page) error {
	if _, err := sections.Decode([]byte(page.Sections)); err != nil {
		return err
	}
	if err := s.repo.SavePage(ctx, page); err != nil {
		return fmt.Errorf("failed to save page: %w", err)
	}
	return nil
}

// pageRenderer implements sections.Handler.
type pageRenderer struct {
	ctx      context.Context
	products *ProductService
	lines    []models.CartLine
	out      []RenderedSection
}

func (r *pageRenderer) emit(s sections.Section, data interface{}) error {
	r.out = append(r.out, RenderedSection{ID: s.SectionID(), Type: s.Kind(), Settings: s, Data: data})
	return nil
}

func (r *pageRenderer) Hero(s *sections.Hero) error {
	return r.emit(s, nil)
}

func (r *pageRenderer) RichText(s *sections.RichText) error {
	return r.emit(s, nil)
}

func (r *pageRenderer) Footer(s *sections.Footer) error {
	return r.emit(s, nil)
}

func (r *pageRenderer) ProductGrid(s *sections.ProductGrid) error {
	limit := s.Limit
	if limit <= 0 {
		limit = defaultGridLimit
	}

	if len(s.ProductIDs) > 0 {
		items := make([]models.Product, 0, len(s.ProductIDs))
		for _, id := range s.ProductIDs {
			if len(items) == limit {
				break
			}
			p, err := r.products.GetProduct(r.ctx, id)
			if errors.Is(err, ErrProductNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			items = append(items, *p)
		}
		return r.emit(s, items)
	}

	result, err := r.products.ListProducts(r.ctx, catalog.FacetState{
		CategoryIDs: s.CategoryIDs,
		Sort:        catalog.ParseSortKey(s.Sort),
		Page:        1,
		PageSize:    limit,
	})
	if err != nil {
		return err
	}
	return r.emit(s, result.Items)
}

func (r *pageRenderer) ProductDetails(s *sections.ProductDetails) error {
	detail, err := r.products.GetProductDetail(r.ctx, s.ProductID, r.lines)
	if err != nil {
		return err
	}

	data := &ProductDetailsData{ProductDetail: *detail}
	if s.ShowRelated && len(detail.Product.CategoryIDs) > 0 {
		related, err := r.products.ListProducts(r.ctx, catalog.FacetState{
			CategoryIDs: detail.Product.CategoryIDs,
			Page:        1,
			PageSize:    defaultGridLimit + 1,
		})
		if err != nil {
			return err
		}
		for _, p := range related.Items {
			if p.ID != detail.Product.ID && len(data.Related) < defaultGridLimit {
				data.Related = append(data.Related, p)
			}
		}
	}
	return r.emit(s, data)
}

func (r *pageRenderer) CategoryList(s *sections.CategoryList) error {
	all, err := r.products.ListCategories(r.ctx)
	if err != nil {
		return err
	}
	if len(s.CategoryIDs) == 0 {
		return r.emit(s, all)
	}

	byID := make(map[int64]models.Category, len(all))
	for _, c := range all {
		byID[c.ID] = c
	}
	picked := make([]models.Category, 0, len(s.CategoryIDs))
	for _, id := range s.CategoryIDs {
		if c, ok := byID[id]; ok {
			picked = append(picked, c)
		}
	}
	return r.emit(s, picked)
}

var _ sections.Handler = (*pageRenderer)(nil)
