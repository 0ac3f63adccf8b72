// internal/handlers/page.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/storefront-backend/internal/services"
	"github.com/javajoker/storefront-backend/internal/utils"
)

type PageHandler struct {
	pageService *services.PageService
	cartService *services.CartService
}

func NewPageHandler(pageService *services.PageService, cartService *services.CartService) *PageHandler {
	return &PageHandler{
		pageService: pageService,
		cartService: cartService,
	}
}

// GET /pages/:slug
func (h *PageHandler) GetPage(c *gin.Context) {
	page, err := h.pageService.GetPage(c.Request.Context(), c.Param("slug"), cartLines(c, h.cartService))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, page)
}
