// internal/handlers/payment.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/storefront-backend/internal/i18n"
	"github.com/javajoker/storefront-backend/internal/services"
	"github.com/javajoker/storefront-backend/internal/utils"
)

type PaymentHandler struct {
	paymentService *services.PaymentService
}

func NewPaymentHandler(paymentService *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

// POST /cart/checkout
func (h *PaymentHandler) Checkout(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	sid, ok := requireSession(c)
	if !ok {
		return
	}

	var req services.CheckoutRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.paymentService.Checkout(c.Request.Context(), sid, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyCheckoutSuccess),
		"order":   order,
	})
}

// GET /orders/:id
func (h *PaymentHandler) GetOrder(c *gin.Context) {
	sid, ok := requireSession(c)
	if !ok {
		return
	}
	orderID, ok := uuidParam(c, "id", "order")
	if !ok {
		return
	}

	order, err := h.paymentService.GetSessionOrder(c.Request.Context(), sid, orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"order": order,
	})
}

// POST /orders/:id/confirm
func (h *PaymentHandler) ConfirmPayment(c *gin.Context) {
	sid, ok := requireSession(c)
	if !ok {
		return
	}
	orderID, ok := uuidParam(c, "id", "order")
	if !ok {
		return
	}

	var req services.ConfirmPaymentRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.paymentService.ConfirmPayment(c.Request.Context(), sid, orderID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"order": order,
	})
}
