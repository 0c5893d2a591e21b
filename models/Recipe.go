package models

import (
	"github.com/shopspring/decimal"
)

// Recipe is a sellable item made from product ingredients.
type Recipe struct {
	Model
	BusinessID   string              `gorm:"size:36;index;not null" json:"business_id"`
	Name         string              `gorm:"not null" json:"name"`
	Description  string              `gorm:"type:text" json:"description,omitempty"`
	SellingPrice decimal.NullDecimal `gorm:"type:decimal(20,4)" json:"selling_price"`
	Ingredients  []RecipeIngredient  `gorm:"foreignKey:RecipeID" json:"ingredients"`
}

// RecipeIngredient is the amount of a product used by one sold unit of a recipe.
// A recipe may list the same product more than once.
type RecipeIngredient struct {
	Model
	RecipeID  string   `gorm:"size:36;index;not null" json:"recipe_id"`
	ProductID string   `gorm:"size:36;index;not null" json:"product_id"`
	Product   *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Quantity  float64  `gorm:"not null" json:"quantity"`
	Unit      string   `gorm:"size:32;not null" json:"unit"`
	Position  int      `gorm:"not null;default:0" json:"position"`
}

// Cost is the ingredient quantity times the product cost per unit. Ingredients
// without a loaded product cost nothing.
func (ri RecipeIngredient) Cost() decimal.Decimal {
	if ri.Product == nil {
		return decimal.Zero
	}
	return decimal.NewFromFloat(ri.Quantity).Mul(ri.Product.Cost())
}

// TotalCost sums the cost of every ingredient line.
func (r Recipe) TotalCost() decimal.Decimal {
	total := decimal.Zero
	for _, ingredient := range r.Ingredients {
		total = total.Add(ingredient.Cost())
	}
	return total
}

// GrossMarginPercent returns (price - cost) / price * 100. The second value is
// false when the recipe has no positive selling price.
func (r Recipe) GrossMarginPercent() (decimal.Decimal, bool) {
	if !r.SellingPrice.Valid || !r.SellingPrice.Decimal.IsPositive() {
		return decimal.Zero, false
	}
	price := r.SellingPrice.Decimal
	return price.Sub(r.TotalCost()).Div(price).Mul(decimal.NewFromInt(100)), true
}
