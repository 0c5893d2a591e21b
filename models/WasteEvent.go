package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// WasteEvent records a quantity of product lost, in the product's unit.
type WasteEvent struct {
	Model
	ProductID string    `gorm:"size:36;index;not null" json:"product_id"`
	Product   *Product  `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Quantity  float64   `gorm:"not null" json:"quantity"`
	Date      time.Time `gorm:"index;not null" json:"date"`
	Note      string    `gorm:"size:500" json:"note,omitempty"`
}

// Cost is the wasted quantity times the product cost per unit.
func (w WasteEvent) Cost() decimal.Decimal {
	if w.Product == nil {
		return decimal.Zero
	}
	return decimal.NewFromFloat(w.Quantity).Mul(w.Product.Cost())
}
