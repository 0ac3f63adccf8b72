// internal/models/cart.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// CartSession is the persisted envelope of one shopper's cart.
type CartSession struct {
	BaseModel
	Status    SessionStatus `json:"status" gorm:"type:varchar(20);default:'open';index"`
	ExpiresAt *time.Time    `json:"expires_at"`
	Locale    string        `json:"locale,omitempty" gorm:"size:10"`

	Lines []CartLine `json:"lines,omitempty" gorm:"foreignKey:SessionID"`
}

// CartLine freezes the price and option names seen at add-to-cart time, so a
// later catalog change does not reprice lines already in the cart.
type CartLine struct {
	BaseModel
	SessionID      uuid.UUID `json:"session_id" gorm:"type:uuid;not null;index"`
	ProductID      int64     `json:"product_id" gorm:"not null;index"`
	ProductName    string    `json:"product_name" gorm:"size:255"`
	ImageURL       string    `json:"image_url,omitempty"`
	Selection      Selection `json:"selected_variants" gorm:"type:jsonb"`
	CombinationKey string    `json:"combination_key,omitempty" gorm:"size:255"`
	Quantity       int       `json:"qty" gorm:"not null"`
	UnitPrice      float64   `json:"price" gorm:"type:decimal(12,2);not null"`
}
