package variants

import (
	"github.com/javajoker/storefront-backend/internal/models"
	"github.com/javajoker/storefront-backend/internal/utils"
)

// ComputeCombinationKey builds the stock key from the mandatory selections
// only. Optional selections never influence which stock row is read.
func ComputeCombinationKey(p *models.Product, sel models.Selection) CombinationKey {
	if len(MissingMandatory(p, sel)) > 0 {
		return Incomplete
	}

	ids := make([]int64, 0, len(p.VariantTypes))
	for i := range p.VariantTypes {
		vt := &p.VariantTypes[i]
		if vt.IsMandatory {
			ids = append(ids, sel[vt.ID].OptionID)
		}
	}
	return NewCombinationKey(ids)
}

// ResolveStock returns the purchasable quantity for key. Products without
// variant-managed stock use their flat quantity whatever the key.
func ResolveStock(p *models.Product, key CombinationKey) int {
	if !p.StockManagedByVariant {
		return nonNegative(p.Quantity)
	}
	if !key.IsComplete() {
		return 0
	}
	for _, row := range p.StockCombinations {
		if row.CombinationKey == key.String() {
			return nonNegative(row.Quantity)
		}
	}
	return 0
}

// ComputePrice is the base price plus the frozen delta of every selected
// option, optional add-ons included.
func ComputePrice(p *models.Product, sel models.Selection) float64 {
	return utils.SumPrices(p.Price, deltas(p, sel)...)
}

// ComputeRegularPrice applies the same deltas to the product's old price. It
// returns nil when the product has no old price.
func ComputeRegularPrice(p *models.Product, sel models.Selection) *float64 {
	if p.OldPrice == nil || *p.OldPrice == 0 {
		return nil
	}
	price := utils.SumPrices(*p.OldPrice, deltas(p, sel)...)
	return &price
}

// IsQuantitySatisfiable reports whether requested units can be bought. When
// the shop does not maintain stock every request is satisfiable.
func IsQuantitySatisfiable(available, requested int, stockIsMaintained bool) bool {
	if !stockIsMaintained {
		return true
	}
	return requested <= available
}

// Resolution is the disposable view model of one product page state.
type Resolution struct {
	CombinationKey CombinationKey `json:"combination_key"`
	Complete       bool           `json:"complete"`
	MissingTypes   []int64        `json:"missing_variant_types,omitempty"`
	AvailableStock int            `json:"available_stock"`
	RemainingStock int            `json:"remaining_stock"`
	Unlimited      bool           `json:"unlimited"`
	Price          float64        `json:"price"`
	RegularPrice   *float64       `json:"regular_price,omitempty"`
	Quantity       int            `json:"quantity"`
	Satisfiable    bool           `json:"satisfiable"`
	CanAddToCart   bool           `json:"can_add_to_cart"`
}

// Resolve runs every engine operation for one selection. inCart is the
// quantity the shopper's cart already holds against the same stock bucket
// (see InCartQuantity).
func Resolve(p *models.Product, sel models.Selection, quantity int, stockIsMaintained bool, inCart int) Resolution {
	key := ComputeCombinationKey(p, sel)
	available := ResolveStock(p, key)
	remaining := RemainingStock(available, inCart)
	missing := MissingMandatory(p, sel)

	return Resolution{
		CombinationKey: key,
		Complete:       len(missing) == 0,
		MissingTypes:   missing,
		AvailableStock: available,
		RemainingStock: remaining,
		Unlimited:      !stockIsMaintained,
		Price:          ComputePrice(p, sel),
		RegularPrice:   ComputeRegularPrice(p, sel),
		Quantity:       quantity,
		Satisfiable:    quantity >= 1 && IsQuantitySatisfiable(available, quantity, stockIsMaintained),
		CanAddToCart: len(missing) == 0 && quantity >= 1 &&
			IsQuantitySatisfiable(remaining, quantity, stockIsMaintained),
	}
}

func deltas(p *models.Product, sel models.Selection) []float64 {
	clean := Sanitize(p, sel)
	out := make([]float64, 0, len(clean))
	for _, typeID := range clean.TypeIDs() {
		out = append(out, clean[typeID].Price)
	}
	return out
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
