// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess = "success"
	KeyError   = "error"

	// Cart sessions
	KeySessionRequired     = "session.required"
	KeySessionInvalidToken = "session.invalid_token"
	KeySessionExpired      = "session.expired"
	KeySessionNotFound     = "session.not_found"

	// Products
	KeyProductNotFound      = "product.not_found"
	KeyProductOutOfStock    = "product.out_of_stock"
	KeyProductLimitedStock  = "product.limited_stock"
	KeyProductSelectVariant = "product.select_variant"
	KeyCatalogNoMatches     = "catalog.no_matches"
	KeyCatalogFound         = "catalog.found"

	// Cart
	KeyCartLineNotFound = "cart_line.not_found"
	KeyCartEmpty        = "cart.empty"
	KeyCartAdded        = "cart.added"
	KeyCartUpdated      = "cart.updated"
	KeyCartRemoved      = "cart.removed"
	KeyCartCleared      = "cart.cleared"
	KeyCartQuantity     = "cart.invalid_quantity"

	// Checkout
	KeyCheckoutSuccess      = "checkout.success"
	KeyCheckoutUnfulfilled  = "checkout.unfulfilled"
	KeyPaymentFailed        = "payment.failed"
	KeyPaymentMethodInvalid = "payment.method_invalid"

	// Pages
	KeyPageNotFound = "page.not_found"

	// Admin
	KeyAdminAccessDenied = "admin.access_denied"
	KeyAdminImportDone   = "admin.import_done"
	KeySnapshotNotFound  = "snapshot.not_found"
	KeySnapshotInvalid   = "snapshot.invalid"
	KeyOrderNotFound     = "order.not_found"
	KeyOrderConfirmed    = "order.confirmed_subject"

	// Validation
	KeyValidationRequired = "validation.required"
	KeyValidationInvalid  = "validation.invalid"

	// Rate limiting
	KeyRateLimited = "rate.limited"
)
