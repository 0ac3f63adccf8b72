// internal/handlers/admin.go
package handlers

import (
	"io"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/storefront-backend/internal/i18n"
	"github.com/javajoker/storefront-backend/internal/services"
	"github.com/javajoker/storefront-backend/internal/utils"
)

// maxUploadedSnapshot bounds snapshots posted inline.
const maxUploadedSnapshot = 32 << 20

type AdminHandler struct {
	snapshotService *services.SnapshotService
	paymentService  *services.PaymentService
}

func NewAdminHandler(snapshotService *services.SnapshotService, paymentService *services.PaymentService) *AdminHandler {
	return &AdminHandler{
		snapshotService: snapshotService,
		paymentService:  paymentService,
	}
}

// POST /admin/snapshots/import
func (h *AdminHandler) ImportSnapshot(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.ImportRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}

	result, err := h.snapshotService.Import(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyAdminImportDone),
		"import":  result,
	})
}

// PUT /admin/snapshots/current
// The request body is the snapshot document itself.
func (h *AdminHandler) UploadSnapshot(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxUploadedSnapshot+1))
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeySnapshotInvalid), err.Error())
		return
	}
	if len(data) > maxUploadedSnapshot {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeySnapshotInvalid), "snapshot too large")
		return
	}

	result, err := h.snapshotService.ImportBytes(c.Request.Context(), data)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyAdminImportDone),
		"import":  result,
	})
}

// GET /admin/orders
func (h *AdminHandler) GetOrders(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	if params.Sort == "newest" {
		params.Sort = "created_at"
	}
	params.Search = c.Query("status")

	result, err := h.paymentService.ListOrders(c.Request.Context(), params)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.PaginatedResponse(c, *result)
}

// GET /admin/orders/:id
func (h *AdminHandler) GetOrder(c *gin.Context) {
	orderID, ok := uuidParam(c, "id", "order")
	if !ok {
		return
	}

	order, err := h.paymentService.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"order": order,
	})
}
