// internal/services/errors.go
package services

import (
	"errors"

	"github.com/javajoker/storefront-backend/internal/cart"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrSessionNotFound = errors.New("cart session not found")
	ErrSessionClosed   = errors.New("cart session is no longer open")
	ErrCartEmpty       = errors.New("cart is empty")
	ErrPageNotFound    = errors.New("page not found")
	ErrOrderNotFound   = errors.New("order not found")
	ErrPaymentMethod   = errors.New("payment method not available")
	ErrPaymentFailed   = errors.New("payment failed")
	ErrSnapshotInvalid = errors.New("invalid catalog snapshot")

	// Cart store errors, re-exported so handlers only depend on services.
	ErrLineNotFound        = cart.ErrLineNotFound
	ErrIncompleteSelection = cart.ErrIncompleteSelection
	ErrNotSatisfiable      = cart.ErrNotSatisfiable
	ErrInvalidQuantity     = cart.ErrInvalidQuantity
)
