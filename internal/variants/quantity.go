package variants

import (
	"github.com/javajoker/storefront-backend/internal/models"
)

// Increment steps qty up by one, clamped at available when stock is
// maintained. It never exceeds available, so with zero stock the result is 0.
func Increment(qty, available int, stockIsMaintained bool) int {
	qty++
	if stockIsMaintained && qty > available {
		qty = nonNegative(available)
	}
	return qty
}

// Decrement steps qty down by one with a floor of 1. Reaching zero is only
// possible by removing the line.
func Decrement(qty int) int {
	if qty-1 < 1 {
		return 1
	}
	return qty - 1
}

// Clamp brings qty back inside [1, available]. Used after a variant swap
// lowers the ceiling under an in-progress quantity.
func Clamp(qty, available int, stockIsMaintained bool) int {
	if stockIsMaintained && qty > available {
		qty = available
	}
	if qty < 1 {
		qty = 1
	}
	return qty
}

// RemainingStock is what is still purchasable once the cart's holdings are
// taken out, floored at zero.
func RemainingStock(available, inCart int) int {
	return nonNegative(available - inCart)
}

// InCartQuantity sums the cart quantities drawing on the same stock as key.
// Variant-managed products share stock per combination; flat-stock products
// share one counter across every line of the product.
func InCartQuantity(p *models.Product, key CombinationKey, lines []models.CartLine) int {
	total := 0
	for _, line := range lines {
		if line.ProductID != p.ID {
			continue
		}
		if p.StockManagedByVariant && line.CombinationKey != key.String() {
			continue
		}
		total += line.Quantity
	}
	return total
}
