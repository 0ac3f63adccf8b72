// internal/utils/money.go
package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// SumPrices adds monetary amounts exactly and returns the float result used by
// the JSON surface. 0.1+0.2 yields 0.3, not 0.30000000000000004.
func SumPrices(base float64, deltas ...float64) float64 {
	total := decimal.NewFromFloat(base)
	for _, d := range deltas {
		total = total.Add(decimal.NewFromFloat(d))
	}
	return total.InexactFloat64()
}

// LineTotal multiplies a unit price by a quantity.
func LineTotal(unitPrice float64, qty int) float64 {
	return decimal.NewFromFloat(unitPrice).Mul(decimal.NewFromInt(int64(qty))).InexactFloat64()
}

// ToMinorUnits converts an amount to the smallest currency unit, rounding
// half away from zero.
func ToMinorUnits(amount float64) int64 {
	return decimal.NewFromFloat(amount).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// FormatMoney renders an amount with two decimals and the currency code,
// e.g. "12.10 USD".
func FormatMoney(amount float64, currency string) string {
	return decimal.NewFromFloat(amount).StringFixed(2) + " " + strings.ToUpper(currency)
}
