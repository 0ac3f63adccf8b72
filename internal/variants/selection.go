package variants

import (
	"github.com/javajoker/storefront-backend/internal/models"
)

// Freeze captures an option as it currently appears in the snapshot.
func Freeze(vt *models.VariantType, opt *models.VariantOption) models.SelectedOption {
	selected := models.SelectedOption{
		VariantTypeID: vt.ID,
		OptionID:      opt.ID,
		OptionName:    opt.Name,
		TypeTitle:     vt.Title,
		Price:         opt.Price,
	}
	if opt.ImageURL != nil {
		selected.ImageURL = *opt.ImageURL
	}
	return selected
}

// Sanitize returns a copy of sel without entries that no longer exist in the
// product: unknown variant types, or options missing from their type. A
// selection can go stale when the catalog is refreshed under an open page.
func Sanitize(p *models.Product, sel models.Selection) models.Selection {
	out := make(models.Selection, len(sel))
	for typeID, chosen := range sel {
		vt, ok := p.VariantType(typeID)
		if !ok {
			continue
		}
		if _, ok := vt.Option(chosen.OptionID); !ok {
			continue
		}
		chosen.VariantTypeID = typeID
		out[typeID] = chosen
	}
	return out
}

// DefaultSelection picks the first option of every mandatory variant type.
func DefaultSelection(p *models.Product) models.Selection {
	sel := models.Selection{}
	for i := range p.VariantTypes {
		vt := &p.VariantTypes[i]
		if !vt.IsMandatory || len(vt.Options) == 0 {
			continue
		}
		sel[vt.ID] = Freeze(vt, &vt.Options[0])
	}
	return sel
}

// Select applies one click on an option and returns the new selection; sel is
// not modified. Clicking the option already chosen for an optional type clears
// that type. Mandatory types can only be switched to another option. Clicks on
// ids unknown to the product leave the selection as it was.
func Select(p *models.Product, sel models.Selection, typeID, optionID int64) models.Selection {
	out := Sanitize(p, sel)

	vt, ok := p.VariantType(typeID)
	if !ok {
		return out
	}
	opt, ok := vt.Option(optionID)
	if !ok {
		return out
	}

	if current, ok := out[typeID]; ok && current.OptionID == optionID && !vt.IsMandatory {
		delete(out, typeID)
		return out
	}

	out[typeID] = Freeze(vt, opt)
	return out
}

// MissingMandatory lists the mandatory variant types without a valid choice,
// in product order.
func MissingMandatory(p *models.Product, sel models.Selection) []int64 {
	var missing []int64
	for i := range p.VariantTypes {
		vt := &p.VariantTypes[i]
		if !vt.IsMandatory {
			continue
		}
		chosen, ok := sel[vt.ID]
		if !ok {
			missing = append(missing, vt.ID)
			continue
		}
		if _, ok := vt.Option(chosen.OptionID); !ok {
			missing = append(missing, vt.ID)
		}
	}
	return missing
}

// FromChoices freezes a client supplied type id to option id mapping against
// the current snapshot. Unknown ids are dropped, and prices always come from
// the snapshot, never from the client.
func FromChoices(p *models.Product, choices map[int64]int64) models.Selection {
	sel := models.Selection{}
	for typeID, optionID := range choices {
		vt, ok := p.VariantType(typeID)
		if !ok {
			continue
		}
		opt, ok := vt.Option(optionID)
		if !ok {
			continue
		}
		sel[typeID] = Freeze(vt, opt)
	}
	return sel
}

// Choices reduces a selection to its type id to option id mapping.
func Choices(sel models.Selection) map[int64]int64 {
	out := make(map[int64]int64, len(sel))
	for typeID, opt := range sel {
		out[typeID] = opt.OptionID
	}
	return out
}
