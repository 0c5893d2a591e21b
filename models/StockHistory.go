package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StockMovementType tags the origin of a stock history row.
type StockMovementType string

const (
	MovementManual   StockMovementType = "MANUAL"
	MovementSales    StockMovementType = "SALES"
	MovementDelivery StockMovementType = "DELIVERY"
	MovementWaste    StockMovementType = "WASTE"
)

// StockHistory is the append-only audit trail of stock changes. Quantity is
// signed: negative for consumption or removal, positive for additions.
type StockHistory struct {
	ID        string            `gorm:"primaryKey;size:36" json:"id"`
	ProductID string            `gorm:"size:36;index;not null" json:"product_id"`
	Product   *Product          `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Quantity  float64           `gorm:"not null" json:"quantity"`
	Unit      string            `gorm:"size:32" json:"unit"`
	Type      StockMovementType `gorm:"size:16;index;not null" json:"type"`
	Note      string            `gorm:"size:500" json:"note"`
	CreatedAt time.Time         `gorm:"index" json:"created_at"`
}

// BeforeCreate assigns a UUID to new history rows.
func (h *StockHistory) BeforeCreate(*gorm.DB) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	return nil
}
