// internal/models/product.go
package models

import (
	"time"

	"github.com/lib/pq"
)

// Product is a catalog snapshot row. Ids come from the upstream catalog, so
// they are plain integers rather than generated uuids.
type Product struct {
	ID                    int64         `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Name                  string        `json:"name" gorm:"size:255;not null"`
	Slug                  string        `json:"slug,omitempty" gorm:"size:255;index"`
	Description           string        `json:"description,omitempty" gorm:"type:text"`
	ImageURL              string        `json:"image_url,omitempty"`
	Price                 float64       `json:"price" gorm:"type:decimal(12,2);not null"`
	OldPrice              *float64      `json:"old_price,omitempty" gorm:"type:decimal(12,2)"`
	Quantity              int           `json:"quantity" gorm:"default:0"`
	StockManagedByVariant bool          `json:"is_stock_manage_by_variant" gorm:"default:false"`
	CategoryIDs           pq.Int64Array `json:"category_ids" gorm:"type:bigint[]"`
	IsActive              bool          `json:"is_active" gorm:"not null;index"`
	Serial                int           `json:"serial,omitempty"`
	CreatedAt             time.Time     `json:"created_at"`
	UpdatedAt             time.Time     `json:"updated_at"`

	// Relationships
	VariantTypes      []VariantType      `json:"variant_types,omitempty" gorm:"foreignKey:ProductID"`
	StockCombinations []StockCombination `json:"stocks,omitempty" gorm:"foreignKey:ProductID"`
}

type VariantType struct {
	ID          int64           `json:"id" gorm:"primaryKey;autoIncrement:false"`
	ProductID   int64           `json:"product_id" gorm:"not null;index"`
	Title       string          `json:"title" gorm:"size:100;not null"`
	IsMandatory bool            `json:"is_mandatory" gorm:"default:false"`
	Position    int             `json:"position" gorm:"default:0"`
	Options     []VariantOption `json:"variants" gorm:"foreignKey:VariantTypeID"`
}

// VariantOption carries a price delta relative to the product base price.
// Negative deltas are legal.
type VariantOption struct {
	ID            int64   `json:"id" gorm:"primaryKey;autoIncrement:false"`
	VariantTypeID int64   `json:"variant_type_id" gorm:"not null;index"`
	Name          string  `json:"name" gorm:"size:100;not null"`
	Price         float64 `json:"price" gorm:"type:decimal(12,2);default:0"`
	ImageURL      *string `json:"image_url,omitempty"`
	Position      int     `json:"position" gorm:"default:0"`
}

// StockCombination holds the quantity for one canonical combination key.
// A missing row means zero stock.
type StockCombination struct {
	ID             int64  `json:"id" gorm:"primaryKey"`
	ProductID      int64  `json:"product_id" gorm:"not null;uniqueIndex:idx_stock_product_combination"`
	CombinationKey string `json:"combination" gorm:"size:255;not null;uniqueIndex:idx_stock_product_combination"`
	Quantity       int    `json:"quantity" gorm:"default:0"`
	IsActive       bool   `json:"is_active" gorm:"not null"`
}

type Category struct {
	ID       int64  `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Name     string `json:"name" gorm:"size:100;not null"`
	ParentID *int64 `json:"parent_id,omitempty" gorm:"index"`
	ImageURL string `json:"image_url,omitempty"`
}

// VariantType looks up a variant type of the product by id.
func (p *Product) VariantType(id int64) (*VariantType, bool) {
	for i := range p.VariantTypes {
		if p.VariantTypes[i].ID == id {
			return &p.VariantTypes[i], true
		}
	}
	return nil, false
}

// Option looks up an option of the variant type by id.
func (vt *VariantType) Option(id int64) (*VariantOption, bool) {
	for i := range vt.Options {
		if vt.Options[i].ID == id {
			return &vt.Options[i], true
		}
	}
	return nil, false
}

// InCategory reports whether the product belongs to any of the given categories.
func (p *Product) InCategory(ids map[int64]struct{}) bool {
	for _, id := range p.CategoryIDs {
		if _, ok := ids[id]; ok {
			return true
		}
	}
	return false
}
