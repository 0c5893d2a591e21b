package models

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// ProductStatus is derived from the expiry date; it is never persisted.
type ProductStatus string

const (
	StatusOK         ProductStatus = "OK"
	StatusNearExpiry ProductStatus = "NEAR_EXPIRY"
	StatusExpired    ProductStatus = "EXPIRED"
)

// NearExpiryDays is the number of days before expiry at which a product is flagged.
const NearExpiryDays = 7

// Product is a stocked ingredient at a location. Quantity is always expressed
// in the product's own Unit.
type Product struct {
	Model
	LocationID  string              `gorm:"size:36;index;not null" json:"location_id"`
	Location    *Location           `gorm:"foreignKey:LocationID" json:"location,omitempty"`
	Name        string              `gorm:"not null" json:"name"`
	Quantity    float64             `gorm:"not null;default:0" json:"quantity"`
	Unit        string              `gorm:"size:32;not null" json:"unit"`
	CostPerUnit decimal.NullDecimal `gorm:"type:decimal(20,4)" json:"cost_per_unit"`
	ExpiryDate  time.Time           `gorm:"index;not null" json:"expiry_date"`
	ImageURL    string              `json:"image_url,omitempty"`
}

// Cost returns the cost per unit, treating a missing cost as zero.
func (p Product) Cost() decimal.Decimal {
	if !p.CostPerUnit.Valid {
		return decimal.Zero
	}
	return p.CostPerUnit.Decimal
}

// Status classifies the product relative to now. Days to expiry are rounded up,
// so anything expiring later today still counts as zero days left.
func (p Product) Status(now time.Time) ProductStatus {
	return StatusAt(p.ExpiryDate, now)
}

// StatusAt classifies an expiry instant relative to now.
func StatusAt(expiry, now time.Time) ProductStatus {
	days := math.Ceil(expiry.Sub(now).Hours() / 24)
	switch {
	case days < 0:
		return StatusExpired
	case days <= NearExpiryDays:
		return StatusNearExpiry
	default:
		return StatusOK
	}
}
