package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// DailySales is one append-only sale entry for a recipe.
type DailySales struct {
	Model
	RecipeID        string              `gorm:"size:36;index;not null" json:"recipe_id"`
	Recipe          *Recipe             `gorm:"foreignKey:RecipeID" json:"recipe,omitempty"`
	LocationID      *string             `gorm:"size:36;index" json:"location_id,omitempty"`
	Quantity        int                 `gorm:"not null" json:"quantity"`
	Date            time.Time           `gorm:"index;not null" json:"date"`
	UnitPrice       decimal.NullDecimal `gorm:"type:decimal(20,4)" json:"unit_price"`
	TotalRevenue    decimal.NullDecimal `gorm:"type:decimal(20,4)" json:"total_revenue"`
	WeatherSnapshot datatypes.JSON      `json:"weather_snapshot,omitempty"`
}

// Revenue returns the recorded revenue, treating a missing value as zero.
func (s DailySales) Revenue() decimal.Decimal {
	if !s.TotalRevenue.Valid {
		return decimal.Zero
	}
	return s.TotalRevenue.Decimal
}
