package consumption

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	applog "snaptrack/internal/log"
	"snaptrack/internal/store"
	"snaptrack/internal/units"
	"snaptrack/models"
)

// DefaultShelfLife is applied to delivered items without an expiry date.
const DefaultShelfLife = 7 * 24 * time.Hour

// SaleInput describes a sale to record.
type SaleInput struct {
	RecipeID        string
	Quantity        int
	Date            time.Time
	LocationID      string
	UnitPrice       decimal.NullDecimal
	TotalRevenue    decimal.NullDecimal
	WeatherSnapshot datatypes.JSON
}

// SaleReceipt is the persisted sale together with its stock consumption.
type SaleReceipt struct {
	Sale        models.DailySales `json:"sale"`
	Consumption Report            `json:"consumption"`
}

// RecordSale appends a sales ledger entry and consumes the recipe's
// ingredients in one transaction. Revenue is taken from TotalRevenue, else
// UnitPrice times quantity, else the recipe selling price times quantity.
func (p *Processor) RecordSale(ctx context.Context, in SaleInput) (SaleReceipt, error) {
	if in.Quantity <= 0 {
		return SaleReceipt{}, ErrInvalidQuantity
	}
	if in.Date.IsZero() {
		in.Date = p.opts.Now()
	}

	var receipt SaleReceipt
	err := p.store.Transaction(ctx, func(tx *store.Store) error {
		recipe, err := loadRecipe(ctx, tx, in.RecipeID)
		if err != nil {
			return err
		}

		sale := models.DailySales{
			RecipeID:        recipe.ID,
			Quantity:        in.Quantity,
			Date:            in.Date,
			UnitPrice:       in.UnitPrice,
			TotalRevenue:    saleRevenue(in, recipe),
			WeatherSnapshot: in.WeatherSnapshot,
		}
		if in.LocationID != "" {
			if _, err := tx.Location(ctx, in.LocationID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: %s", ErrLocationNotFound, in.LocationID)
				}
				return err
			}
			locationID := in.LocationID
			sale.LocationID = &locationID
		}

		if err := tx.CreateSale(ctx, &sale); err != nil {
			return err
		}

		report, err := p.consume(ctx, tx, recipe, in.Quantity)
		if err != nil {
			return err
		}

		receipt = SaleReceipt{Sale: sale, Consumption: report}
		return nil
	})
	if err != nil {
		return SaleReceipt{}, err
	}

	applog.Info(ctx, "sale recorded", "sale", receipt.Sale.ID, "recipe", in.RecipeID, "quantity", in.Quantity)
	return receipt, nil
}

func saleRevenue(in SaleInput, recipe models.Recipe) decimal.NullDecimal {
	quantity := decimal.NewFromInt(int64(in.Quantity))
	switch {
	case in.TotalRevenue.Valid:
		return in.TotalRevenue
	case in.UnitPrice.Valid:
		return decimal.NewNullDecimal(in.UnitPrice.Decimal.Mul(quantity))
	case recipe.SellingPrice.Valid:
		return decimal.NewNullDecimal(recipe.SellingPrice.Decimal.Mul(quantity))
	default:
		return decimal.NullDecimal{}
	}
}

// AdjustmentType is the direction of a manual stock adjustment.
type AdjustmentType string

const (
	AdjustAdd    AdjustmentType = "ADD"
	AdjustRemove AdjustmentType = "REMOVE"
)

// Adjustment is a manual stock correction. An empty Unit means the product's
// own unit.
type Adjustment struct {
	Quantity float64
	Unit     string
	Type     AdjustmentType
	Reason   string
}

// AdjustStock applies a manual correction to a product and records a MANUAL
// history row. The adjustment unit must share the product's unit family.
func (p *Processor) AdjustStock(ctx context.Context, productID string, adj Adjustment) (models.Product, error) {
	if adj.Quantity <= 0 {
		return models.Product{}, ErrInvalidQuantity
	}
	var sign float64
	switch adj.Type {
	case AdjustAdd:
		sign = 1
	case AdjustRemove:
		sign = -1
	default:
		return models.Product{}, ErrInvalidAdjustment
	}

	var updated models.Product
	err := p.store.Transaction(ctx, func(tx *store.Store) error {
		product, err := loadProduct(ctx, tx, productID)
		if err != nil {
			return err
		}

		unit := adj.Unit
		if strings.TrimSpace(unit) == "" {
			unit = product.Unit
		}

		quantity, ok := subtract(product.Quantity, product.Unit, -sign*adj.Quantity, unit)
		if !ok {
			return &MismatchError{ProductID: product.ID, ProductName: product.Name, ProductUnit: product.Unit, Unit: unit}
		}

		product.Quantity = quantity
		if err := tx.SetProductQuantity(ctx, product.ID, product.Quantity); err != nil {
			return err
		}

		note := adj.Reason
		if strings.TrimSpace(note) == "" {
			note = "Manual " + string(adj.Type)
		}
		if err := tx.AppendHistory(ctx, &models.StockHistory{
			ProductID: product.ID,
			Quantity:  sign * adj.Quantity,
			Unit:      unit,
			Type:      models.MovementManual,
			Note:      note,
		}); err != nil {
			return err
		}

		updated = product
		return nil
	})
	if err != nil {
		return models.Product{}, err
	}

	applog.Info(ctx, "stock adjusted", "product", productID, "type", adj.Type, "quantity", adj.Quantity, "unit", adj.Unit)
	return updated, nil
}

// DeliveryItem is one line of an incoming delivery. A zero ExpiryDate means
// DefaultShelfLife from now.
type DeliveryItem struct {
	Name        string
	Quantity    float64
	Unit        string
	ExpiryDate  time.Time
	CostPerUnit decimal.NullDecimal
	ImageURL    string
}

// IngestDelivery creates one product per item at a location, each with a
// DELIVERY history row, all in one transaction.
func (p *Processor) IngestDelivery(ctx context.Context, locationID string, items []DeliveryItem) ([]models.Product, error) {
	for _, item := range items {
		if strings.TrimSpace(item.Name) == "" {
			return nil, fmt.Errorf("%w: name must not be empty", ErrInvalidDelivery)
		}
		if item.Quantity < 0 {
			return nil, fmt.Errorf("%w: %s", ErrInvalidQuantity, item.Name)
		}
		if strings.TrimSpace(item.Unit) == "" {
			return nil, fmt.Errorf("%w: %s has no unit", ErrInvalidDelivery, item.Name)
		}
	}

	now := p.opts.Now()
	products := make([]models.Product, 0, len(items))
	err := p.store.Transaction(ctx, func(tx *store.Store) error {
		if _, err := tx.Location(ctx, locationID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", ErrLocationNotFound, locationID)
			}
			return err
		}

		for _, item := range items {
			expiry := item.ExpiryDate
			if expiry.IsZero() {
				expiry = now.Add(DefaultShelfLife)
			}
			product := models.Product{
				LocationID:  locationID,
				Name:        strings.TrimSpace(item.Name),
				Quantity:    item.Quantity,
				Unit:        units.Normalize(item.Unit),
				CostPerUnit: item.CostPerUnit,
				ExpiryDate:  expiry,
				ImageURL:    item.ImageURL,
			}
			if err := tx.CreateProduct(ctx, &product); err != nil {
				return err
			}
			if err := tx.AppendHistory(ctx, &models.StockHistory{
				ProductID: product.ID,
				Quantity:  product.Quantity,
				Unit:      product.Unit,
				Type:      models.MovementDelivery,
				Note:      "Bulk ingest",
			}); err != nil {
				return err
			}
			products = append(products, product)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	applog.Info(ctx, "delivery ingested", "location", locationID, "items", len(products))
	return products, nil
}

// WasteInput describes lost stock. An empty Unit means the product's unit and
// a zero Date means now.
type WasteInput struct {
	Quantity float64
	Unit     string
	Date     time.Time
	Note     string
}

// RecordWaste appends a waste event, decrements the product and records a
// WASTE history row in one transaction. The event quantity is stored in the
// product's unit so waste cost stays consistent with cost per unit.
func (p *Processor) RecordWaste(ctx context.Context, productID string, in WasteInput) (models.WasteEvent, error) {
	if in.Quantity <= 0 {
		return models.WasteEvent{}, ErrInvalidQuantity
	}
	if in.Date.IsZero() {
		in.Date = p.opts.Now()
	}

	var event models.WasteEvent
	err := p.store.Transaction(ctx, func(tx *store.Store) error {
		product, err := loadProduct(ctx, tx, productID)
		if err != nil {
			return err
		}

		unit := in.Unit
		if strings.TrimSpace(unit) == "" {
			unit = product.Unit
		}
		lost, ok := convert(in.Quantity, unit, product.Unit)
		if !ok {
			return &MismatchError{ProductID: product.ID, ProductName: product.Name, ProductUnit: product.Unit, Unit: unit}
		}
		remaining := product.Quantity - lost

		event = models.WasteEvent{ProductID: product.ID, Quantity: lost, Date: in.Date, Note: in.Note}
		if err := tx.CreateWaste(ctx, &event); err != nil {
			return err
		}
		if err := tx.SetProductQuantity(ctx, product.ID, remaining); err != nil {
			return err
		}

		note := in.Note
		if strings.TrimSpace(note) == "" {
			note = "Waste"
		}
		return tx.AppendHistory(ctx, &models.StockHistory{
			ProductID: product.ID,
			Quantity:  -in.Quantity,
			Unit:      unit,
			Type:      models.MovementWaste,
			Note:      note,
		})
	})
	if err != nil {
		return models.WasteEvent{}, err
	}

	applog.Info(ctx, "waste recorded", "product", productID, "quantity", event.Quantity)
	return event, nil
}
