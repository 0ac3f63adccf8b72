// internal/services/product_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/javajoker/storefront-backend/internal/catalog"
	"github.com/javajoker/storefront-backend/internal/config"
	"github.com/javajoker/storefront-backend/internal/models"
	"github.com/javajoker/storefront-backend/internal/variants"
)

type ProductService struct {
	repo              CatalogRepository
	stockIsMaintained bool
	queryOptions      catalog.Options
}

// ResolveRequest carries the shopper's choices as variant type id to option
// id. Frozen prices are never accepted from the client.
type ResolveRequest struct {
	Selection map[int64]int64 `json:"selection"`
	Quantity  int             `json:"quantity" validate:"min=0"`
}

type SelectRequest struct {
	Selection     map[int64]int64 `json:"selection"`
	VariantTypeID int64           `json:"variant_type_id" validate:"required"`
	OptionID      int64           `json:"option_id" validate:"required"`
	Quantity      int             `json:"quantity" validate:"min=0"`
}

type QuantityRequest struct {
	Selection map[int64]int64 `json:"selection"`
	Quantity  int             `json:"quantity" validate:"min=0"`
	Op        string          `json:"op" validate:"required,oneof=inc dec"`
}

// ResolveResult is the product page state after one interaction.
type ResolveResult struct {
	ProductID  int64               `json:"product_id"`
	Selection  models.Selection    `json:"selection"`
	Resolution variants.Resolution `json:"resolution"`
}

type ProductDetail struct {
	Product *models.Product `json:"product"`
	ResolveResult
}

type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

func NewProductService(repo CatalogRepository, cfg *config.Config) *ProductService {
	locale, err := language.Parse(cfg.Shop.Locale)
	if err != nil {
		locale = language.English
	}

	return &ProductService{
		repo:              repo,
		stockIsMaintained: cfg.Shop.StockMaintained,
		queryOptions: catalog.Options{
			SearchMode: catalog.ParseSearchMode(cfg.Shop.SearchMode),
			Locale:     locale,
		},
	}
}

func (s *ProductService) StockIsMaintained() bool {
	return s.stockIsMaintained
}

// ListProducts runs the catalog engine over the current snapshot.
func (s *ProductService) ListProducts(ctx context.Context, facets catalog.FacetState) (catalog.Result, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return catalog.Result{}, fmt.Errorf("failed to load products: %w", err)
	}
	return catalog.Query(products, facets, s.queryOptions), nil
}

func (s *ProductService) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	product, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return product, nil
}

// GetProductDetail returns the product with its default selection resolved
// for a quantity of one.
func (s *ProductService) GetProductDetail(ctx context.Context, id int64, lines []models.CartLine) (*ProductDetail, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	sel := variants.DefaultSelection(product)
	return &ProductDetail{
		Product:       product,
		ResolveResult: s.resolve(product, sel, 1, lines),
	}, nil
}

func (s *ProductService) Resolve(ctx context.Context, id int64, req *ResolveRequest, lines []models.CartLine) (*ResolveResult, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	sel := variants.FromChoices(product, req.Selection)
	res := s.resolve(product, sel, req.Quantity, lines)
	return &res, nil
}

// Select applies one option click and re-clamps the quantity against the
// stock of the new combination.
func (s *ProductService) Select(ctx context.Context, id int64, req *SelectRequest, lines []models.CartLine) (*ResolveResult, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	sel := variants.Select(product, variants.FromChoices(product, req.Selection), req.VariantTypeID, req.OptionID)
	qty := variants.Clamp(req.Quantity, s.remaining(product, sel, lines), s.stockIsMaintained)

	res := s.resolve(product, sel, qty, lines)
	return &res, nil
}

// StepQuantity moves the quantity stepper one unit.
func (s *ProductService) StepQuantity(ctx context.Context, id int64, req *QuantityRequest, lines []models.CartLine) (*ResolveResult, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	sel := variants.FromChoices(product, req.Selection)
	var qty int
	switch req.Op {
	case "inc":
		qty = variants.Increment(req.Quantity, s.remaining(product, sel, lines), s.stockIsMaintained)
	case "dec":
		qty = variants.Decrement(req.Quantity)
	default:
		return nil, fmt.Errorf("unknown quantity operation %q", req.Op)
	}

	res := s.resolve(product, sel, qty, lines)
	return &res, nil
}

func (s *ProductService) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	return categories, nil
}

func (s *ProductService) PriceRange(ctx context.Context) (*PriceRange, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	lo, hi := catalog.PriceBounds(products)
	return &PriceRange{Min: lo, Max: hi}, nil
}

func (s *ProductService) resolve(p *models.Product, sel models.Selection, qty int, lines []models.CartLine) ResolveResult {
	key := variants.ComputeCombinationKey(p, sel)
	inCart := variants.InCartQuantity(p, key, lines)

	return ResolveResult{
		ProductID:  p.ID,
		Selection:  sel,
		Resolution: variants.Resolve(p, sel, qty, s.stockIsMaintained, inCart),
	}
}

func (s *ProductService) remaining(p *models.Product, sel models.Selection, lines []models.CartLine) int {
	key := variants.ComputeCombinationKey(p, sel)
	return variants.RemainingStock(variants.ResolveStock(p, key), variants.InCartQuantity(p, key, lines))
}
