// internal/models/order.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type Order struct {
	BaseModel
	SessionID        uuid.UUID     `json:"session_id" gorm:"type:uuid;not null;index"`
	Lines            JSONB         `json:"lines" gorm:"type:jsonb"`
	ItemCount        int           `json:"item_count"`
	Subtotal         float64       `json:"subtotal" gorm:"type:decimal(12,2);not null"`
	Currency         string        `json:"currency" gorm:"size:3"`
	PaymentMethod    PaymentMethod `json:"payment_method" gorm:"size:20"`
	PaymentReference string        `json:"payment_reference,omitempty" gorm:"size:255"`
	ClientSecret     string        `json:"client_secret,omitempty" gorm:"-"`
	Status           OrderStatus   `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	ProcessedAt      *time.Time    `json:"processed_at"`
	ShippingInfo     JSONB         `json:"shipping_info,omitempty" gorm:"type:jsonb"`
	Notes            string        `json:"notes,omitempty" gorm:"type:text"`
}
