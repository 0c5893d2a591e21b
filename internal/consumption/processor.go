// Package consumption turns sales, deliveries, manual adjustments and waste
// into product quantity changes, each paired with a stock history row in the
// same transaction.
package consumption

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	applog "snaptrack/internal/log"
	"snaptrack/internal/store"
	"snaptrack/models"
)

// Options tunes a Processor.
type Options struct {
	// StrictUnits makes a sale fail with a *MismatchError when an ingredient
	// unit does not match its product's unit family. When false the ingredient
	// is skipped and reported in Report.Skipped.
	StrictUnits bool
	// Now overrides the clock, mostly for tests.
	Now func() time.Time
}

// Processor applies stock movements through a store.
type Processor struct {
	store *store.Store
	opts  Options
}

// New constructs a Processor.
func New(s *store.Store, opts Options) (*Processor, error) {
	if s == nil {
		return nil, errors.New("consumption: store is nil")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Processor{store: s, opts: opts}, nil
}

// Result describes the stock consumed for one ingredient line.
type Result struct {
	ProductID         string  `json:"product_id"`
	ProductName       string  `json:"product_name"`
	ConsumedAmount    float64 `json:"consumed_amount"`
	Unit              string  `json:"unit"`
	RemainingQuantity float64 `json:"remaining_quantity"`
}

// Skipped is an ingredient line left untouched because its unit could not be
// converted into the product unit.
type Skipped struct {
	ProductID      string  `json:"product_id"`
	ProductName    string  `json:"product_name"`
	ProductUnit    string  `json:"product_unit"`
	IngredientUnit string  `json:"ingredient_unit"`
	Required       float64 `json:"required"`
}

// Report is the outcome of consuming stock for one sale.
type Report struct {
	Results []Result  `json:"results"`
	Skipped []Skipped `json:"skipped,omitempty"`
}

// ProcessSale deducts the ingredients of quantitySold portions of a recipe
// from stock and returns one Result per processed ingredient.
func (p *Processor) ProcessSale(ctx context.Context, recipeID string, quantitySold int) ([]Result, error) {
	report, err := p.ProcessSaleReport(ctx, recipeID, quantitySold)
	if err != nil {
		return nil, err
	}
	return report.Results, nil
}

// ProcessSaleReport is ProcessSale, additionally reporting skipped ingredients.
func (p *Processor) ProcessSaleReport(ctx context.Context, recipeID string, quantitySold int) (Report, error) {
	if quantitySold <= 0 {
		return Report{}, ErrInvalidQuantity
	}

	var report Report
	err := p.store.Transaction(ctx, func(tx *store.Store) error {
		recipe, err := loadRecipe(ctx, tx, recipeID)
		if err != nil {
			return err
		}
		report, err = p.consume(ctx, tx, recipe, quantitySold)
		return err
	})
	if err != nil {
		return Report{}, err
	}
	return report, nil
}

func loadRecipe(ctx context.Context, tx *store.Store, recipeID string) (models.Recipe, error) {
	recipe, err := tx.Recipe(ctx, recipeID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Recipe{}, fmt.Errorf("%w: %s", ErrRecipeNotFound, recipeID)
	}
	return recipe, err
}

func loadProduct(ctx context.Context, tx *store.Store, productID string) (models.Product, error) {
	product, err := tx.ProductForUpdate(ctx, productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Product{}, fmt.Errorf("%w: %s", ErrProductNotFound, productID)
	}
	return product, err
}

// consume runs inside the caller's transaction. Products are re-read per line
// so a recipe listing the same product twice deducts both lines.
func (p *Processor) consume(ctx context.Context, tx *store.Store, recipe models.Recipe, quantitySold int) (Report, error) {
	report := Report{Results: make([]Result, 0, len(recipe.Ingredients))}
	note := fmt.Sprintf("Sales: %dx %s", quantitySold, recipe.Name)

	for _, ingredient := range recipe.Ingredients {
		product, err := loadProduct(ctx, tx, ingredient.ProductID)
		if err != nil {
			return Report{}, err
		}

		required := ingredient.Quantity * float64(quantitySold)
		remaining, ok := subtract(product.Quantity, product.Unit, required, ingredient.Unit)
		if !ok {
			mismatch := &MismatchError{
				ProductID:   product.ID,
				ProductName: product.Name,
				ProductUnit: product.Unit,
				Unit:        ingredient.Unit,
			}
			if p.opts.StrictUnits {
				return Report{}, mismatch
			}
			applog.Warn(ctx, "skipping ingredient with mismatched unit",
				"recipe", recipe.ID,
				"product", product.ID,
				"product_unit", product.Unit,
				"ingredient_unit", ingredient.Unit,
			)
			report.Skipped = append(report.Skipped, Skipped{
				ProductID:      product.ID,
				ProductName:    product.Name,
				ProductUnit:    product.Unit,
				IngredientUnit: ingredient.Unit,
				Required:       required,
			})
			continue
		}

		if err := tx.SetProductQuantity(ctx, product.ID, remaining); err != nil {
			return Report{}, err
		}

		if err := tx.AppendHistory(ctx, &models.StockHistory{
			ProductID: product.ID,
			Quantity:  -required,
			Unit:      ingredient.Unit,
			Type:      models.MovementSales,
			Note:      note,
		}); err != nil {
			return Report{}, err
		}

		report.Results = append(report.Results, Result{
			ProductID:         product.ID,
			ProductName:       product.Name,
			ConsumedAmount:    required,
			Unit:              ingredient.Unit,
			RemainingQuantity: remaining,
		})
	}

	applog.Debug(ctx, "sale consumed",
		"recipe", recipe.ID,
		"quantity", quantitySold,
		"processed", len(report.Results),
		"skipped", len(report.Skipped),
	)
	return report, nil
}
