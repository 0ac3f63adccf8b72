// internal/handlers/errors.go
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/storefront-backend/internal/i18n"
	"github.com/javajoker/storefront-backend/internal/models"
	"github.com/javajoker/storefront-backend/internal/services"
	"github.com/javajoker/storefront-backend/internal/utils"
)

// respondError maps a service error onto the response envelope.
func respondError(c *gin.Context, err error) {
	lang := utils.GetLangFromContext(c)

	if validationErrors := utils.GetValidationErrors(err); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	var checkoutErr *services.CheckoutError
	switch {
	case errors.As(err, &checkoutErr):
		utils.UnprocessableResponse(c, "CART_UNFULFILLABLE", i18n.T(lang, i18n.KeyCheckoutUnfulfilled), checkoutErr.Issues)
	case errors.Is(err, services.ErrProductNotFound):
		utils.NotFoundResponse(c, "product")
	case errors.Is(err, services.ErrLineNotFound):
		utils.NotFoundResponse(c, "cart_line")
	case errors.Is(err, services.ErrSessionNotFound):
		utils.NotFoundResponse(c, "session")
	case errors.Is(err, services.ErrPageNotFound):
		utils.NotFoundResponse(c, "page")
	case errors.Is(err, services.ErrOrderNotFound):
		utils.NotFoundResponse(c, "order")
	case errors.Is(err, services.ErrSnapshotNotFound):
		utils.NotFoundResponse(c, "snapshot")
	case errors.Is(err, services.ErrSessionClosed):
		utils.ConflictResponse(c, i18n.T(lang, i18n.KeySessionExpired))
	case errors.Is(err, services.ErrCartEmpty):
		utils.UnprocessableResponse(c, "CART_EMPTY", i18n.T(lang, i18n.KeyCartEmpty), nil)
	case errors.Is(err, services.ErrIncompleteSelection):
		utils.UnprocessableResponse(c, "INCOMPLETE_SELECTION", i18n.T(lang, i18n.KeyProductSelectVariant), nil)
	case errors.Is(err, services.ErrNotSatisfiable):
		utils.UnprocessableResponse(c, "OUT_OF_STOCK", i18n.T(lang, i18n.KeyProductOutOfStock), nil)
	case errors.Is(err, services.ErrInvalidQuantity):
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyCartQuantity), nil)
	case errors.Is(err, services.ErrPaymentMethod):
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyPaymentMethodInvalid), nil)
	case errors.Is(err, services.ErrPaymentFailed):
		utils.ErrorResponse(c, http.StatusPaymentRequired, "PAYMENT_FAILED", i18n.T(lang, i18n.KeyPaymentFailed), nil)
	case errors.Is(err, services.ErrSnapshotInvalid):
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeySnapshotInvalid), err.Error())
	default:
		logrus.WithError(err).WithField("path", c.Request.URL.Path).Error("Unhandled service error")
		utils.InternalErrorResponse(c, "")
	}
}

// bindJSON decodes the request body, replying with 400 on failure.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		lang := utils.GetLangFromContext(c)
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return false
	}
	return true
}

func productIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		utils.BadRequestResponse(c, "Invalid product ID", nil)
		return 0, false
	}
	return id, true
}

func uuidParam(c *gin.Context, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid "+label+" ID", nil)
		return uuid.Nil, false
	}
	return id, true
}

// sessionID reads the cart session set by the session middleware.
func sessionID(c *gin.Context) (uuid.UUID, bool) {
	raw, ok := utils.GetSessionIDFromContext(c)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// requireSession is sessionID for routes behind SessionRequired.
func requireSession(c *gin.Context) (uuid.UUID, bool) {
	id, ok := sessionID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
	}
	return id, ok
}

// cartLines returns the lines of the optional session, or nil. A session that
// cannot be read only loses the in-cart stock adjustment.
func cartLines(c *gin.Context, carts *services.CartService) []models.CartLine {
	id, ok := sessionID(c)
	if !ok {
		return nil
	}
	lines, err := carts.Lines(c.Request.Context(), id)
	if err != nil {
		logrus.WithError(err).WithField("session_id", id).Debug("Ignoring unreadable cart session")
		return nil
	}
	return lines
}
