// internal/handlers/product.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/storefront-backend/internal/catalog"
	"github.com/javajoker/storefront-backend/internal/i18n"
	"github.com/javajoker/storefront-backend/internal/services"
	"github.com/javajoker/storefront-backend/internal/utils"
)

type ProductHandler struct {
	productService *services.ProductService
	cartService    *services.CartService
}

func NewProductHandler(productService *services.ProductService, cartService *services.CartService) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		cartService:    cartService,
	}
}

// GET /products
func (h *ProductHandler) GetProducts(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	params := utils.GetPaginationParams(c)

	result, err := h.productService.ListProducts(c.Request.Context(), catalog.FacetState{
		CategoryIDs: params.Categories,
		PriceMin:    params.PriceMin,
		PriceMax:    params.PriceMax,
		Query:       params.Search,
		Sort:        catalog.ParseSortKey(params.Sort),
		Page:        params.Page,
		PageSize:    params.Limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	pagination := utils.PaginationResult{
		Page:       result.Page,
		Limit:      result.PageSize,
		Total:      int64(result.TotalMatches),
		TotalPages: result.TotalPages,
		From:       result.From,
		To:         result.To,
	}

	message := i18n.T(lang, i18n.KeyCatalogFound, result.TotalMatches)
	if result.TotalMatches == 0 {
		message = i18n.T(lang, i18n.KeyCatalogNoMatches)
	}

	utils.SetPaginationHeaders(c, pagination)
	utils.SuccessResponseWithMeta(c, result.Items, gin.H{
		"message": message,
		"facets":  result.Facets,
		"pagination": gin.H{
			"page":        pagination.Page,
			"limit":       pagination.Limit,
			"total":       pagination.Total,
			"total_pages": pagination.TotalPages,
			"from":        pagination.From,
			"to":          pagination.To,
		},
	})
}

// GET /products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := productIDParam(c)
	if !ok {
		return
	}

	detail, err := h.productService.GetProductDetail(c.Request.Context(), id, cartLines(c, h.cartService))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, detail)
}

// POST /products/:id/resolve
func (h *ProductHandler) Resolve(c *gin.Context) {
	id, ok := productIDParam(c)
	if !ok {
		return
	}

	var req services.ResolveRequest
	if !bindJSON(c, &req) {
		return
	}
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	result, err := h.productService.Resolve(c.Request.Context(), id, &req, cartLines(c, h.cartService))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, result)
}

// POST /products/:id/select
func (h *ProductHandler) Select(c *gin.Context) {
	id, ok := productIDParam(c)
	if !ok {
		return
	}

	var req services.SelectRequest
	if !bindJSON(c, &req) {
		return
	}
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	result, err := h.productService.Select(c.Request.Context(), id, &req, cartLines(c, h.cartService))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, result)
}

// POST /products/:id/quantity
func (h *ProductHandler) StepQuantity(c *gin.Context) {
	id, ok := productIDParam(c)
	if !ok {
		return
	}

	var req services.QuantityRequest
	if !bindJSON(c, &req) {
		return
	}
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	result, err := h.productService.StepQuantity(c.Request.Context(), id, &req, cartLines(c, h.cartService))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, result)
}

// GET /catalog/price-range
func (h *ProductHandler) GetPriceRange(c *gin.Context) {
	bounds, err := h.productService.PriceRange(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, bounds)
}

// GET /categories
func (h *ProductHandler) GetCategories(c *gin.Context) {
	categories, err := h.productService.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"categories": categories,
	})
}
