// internal/handlers/cart.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/javajoker/storefront-backend/internal/i18n"
	"github.com/javajoker/storefront-backend/internal/services"
	"github.com/javajoker/storefront-backend/internal/utils"
)

type CartHandler struct {
	cartService *services.CartService
}

func NewCartHandler(cartService *services.CartService) *CartHandler {
	return &CartHandler{
		cartService: cartService,
	}
}

// POST /sessions
func (h *CartHandler) StartSession(c *gin.Context) {
	token, err := h.cartService.StartSession(c.Request.Context(), utils.GetLangFromContext(c))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, token)
}

// GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	sid, ok := requireSession(c)
	if !ok {
		return
	}

	cart, err := h.cartService.GetCart(c.Request.Context(), sid)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, cart)
}

// POST /cart/lines
func (h *CartHandler) AddLine(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	sid, ok := requireSession(c)
	if !ok {
		return
	}

	var req services.AddLineRequest
	if !bindJSON(c, &req) {
		return
	}

	cart, err := h.cartService.AddLine(c.Request.Context(), sid, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyCartAdded),
		"cart":    cart,
	})
}

// POST /cart/lines/:id/increment
func (h *CartHandler) IncrementLine(c *gin.Context) {
	h.updateLine(c, func(c *gin.Context, s *lineScope) (*services.CartView, error) {
		return h.cartService.IncrementLine(c.Request.Context(), s.session, s.line)
	})
}

// POST /cart/lines/:id/decrement
func (h *CartHandler) DecrementLine(c *gin.Context) {
	h.updateLine(c, func(c *gin.Context, s *lineScope) (*services.CartView, error) {
		return h.cartService.DecrementLine(c.Request.Context(), s.session, s.line)
	})
}

// PUT /cart/lines/:id
func (h *CartHandler) SetLineQuantity(c *gin.Context) {
	var req services.SetQuantityRequest
	h.updateLine(c, func(c *gin.Context, s *lineScope) (*services.CartView, error) {
		if !bindJSON(c, &req) {
			return nil, nil
		}
		if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
			utils.ValidationErrorResponse(c, validationErrors)
			return nil, nil
		}
		return h.cartService.SetLineQuantity(c.Request.Context(), s.session, s.line, &req)
	})
}

// PUT /cart/lines/:id/variants
func (h *CartHandler) UpdateLineVariants(c *gin.Context) {
	var req services.UpdateVariantsRequest
	h.updateLine(c, func(c *gin.Context, s *lineScope) (*services.CartView, error) {
		if !bindJSON(c, &req) {
			return nil, nil
		}
		if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
			utils.ValidationErrorResponse(c, validationErrors)
			return nil, nil
		}
		return h.cartService.UpdateLineVariants(c.Request.Context(), s.session, s.line, &req)
	})
}

// DELETE /cart/lines/:id
func (h *CartHandler) RemoveLine(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	h.updateLine(c, func(c *gin.Context, s *lineScope) (*services.CartView, error) {
		s.message = i18n.T(lang, i18n.KeyCartRemoved)
		return h.cartService.RemoveLine(c.Request.Context(), s.session, s.line)
	})
}

// DELETE /cart
func (h *CartHandler) ClearCart(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	sid, ok := requireSession(c)
	if !ok {
		return
	}

	cart, err := h.cartService.ClearCart(c.Request.Context(), sid)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyCartCleared),
		"cart":    cart,
	})
}

type lineScope struct {
	session, line uuid.UUID
	message       string
}

// updateLine resolves the session and line id, runs fn and writes the cart.
// fn returns a nil view when it has already written a response.
func (h *CartHandler) updateLine(c *gin.Context, fn func(*gin.Context, *lineScope) (*services.CartView, error)) {
	sid, ok := requireSession(c)
	if !ok {
		return
	}
	lineID, ok := uuidParam(c, "id", "cart line")
	if !ok {
		return
	}

	scope := &lineScope{session: sid, line: lineID, message: i18n.T(utils.GetLangFromContext(c), i18n.KeyCartUpdated)}
	cart, err := fn(c, scope)
	if err != nil {
		respondError(c, err)
		return
	}
	if cart == nil {
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": scope.message,
		"cart":    cart,
	})
}
