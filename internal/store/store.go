// Package store is the repository layer over gorm. Every component receives a
// *Store (or an interface it satisfies) through its constructor; there is no
// package-level database handle.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"snaptrack/models"
)

// Store wraps a gorm handle, either the root connection or an open transaction.
type Store struct {
	db *gorm.DB
}

// New returns a Store over db.
func New(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, errors.New("store: database handle is nil")
	}
	return &Store{db: db}, nil
}

// DB exposes the underlying gorm handle.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Transaction runs fn inside a single database transaction. The Store passed to
// fn is bound to that transaction; returning an error rolls everything back.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// Businesses lists every business ordered by name.
func (s *Store) Businesses(ctx context.Context) ([]models.Business, error) {
	var businesses []models.Business
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&businesses).Error; err != nil {
		return nil, fmt.Errorf("list businesses: %w", err)
	}
	return businesses, nil
}

// Location loads a location by id.
func (s *Store) Location(ctx context.Context, id string) (models.Location, error) {
	var location models.Location
	if err := s.db.WithContext(ctx).First(&location, "id = ?", id).Error; err != nil {
		return models.Location{}, fmt.Errorf("load location %s: %w", id, err)
	}
	return location, nil
}

// Recipe loads a recipe with its ingredient lines and their products.
func (s *Store) Recipe(ctx context.Context, id string) (models.Recipe, error) {
	var recipe models.Recipe
	err := s.db.WithContext(ctx).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC, created_at ASC") }).
		Preload("Ingredients.Product").
		First(&recipe, "id = ?", id).Error
	if err != nil {
		return models.Recipe{}, fmt.Errorf("load recipe %s: %w", id, err)
	}
	return recipe, nil
}

// RecipesWithCost lists the recipes of a business with everything needed to
// compute their total cost and gross margin.
func (s *Store) RecipesWithCost(ctx context.Context, businessID string) ([]models.Recipe, error) {
	var recipes []models.Recipe
	err := s.db.WithContext(ctx).
		Where("business_id = ?", businessID).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC, created_at ASC") }).
		Preload("Ingredients.Product").
		Order("name ASC").
		Find(&recipes).Error
	if err != nil {
		return nil, fmt.Errorf("list recipes for business %s: %w", businessID, err)
	}
	return recipes, nil
}

// CreateRecipe inserts a recipe together with its ingredient lines.
func (s *Store) CreateRecipe(ctx context.Context, recipe *models.Recipe) error {
	db := s.db.WithContext(ctx)
	if err := db.Omit(clause.Associations).Create(recipe).Error; err != nil {
		return fmt.Errorf("create recipe %q: %w", recipe.Name, err)
	}
	for i := range recipe.Ingredients {
		ingredient := &recipe.Ingredients[i]
		ingredient.RecipeID = recipe.ID
		ingredient.Position = i
		if err := db.Omit(clause.Associations).Create(ingredient).Error; err != nil {
			return fmt.Errorf("create ingredient for recipe %q: %w", recipe.Name, err)
		}
	}
	return nil
}

// Product loads a product by id.
func (s *Store) Product(ctx context.Context, id string) (models.Product, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return models.Product{}, fmt.Errorf("load product %s: %w", id, err)
	}
	return product, nil
}

// ProductForUpdate loads a product and, on databases that support it, locks
// the row until the surrounding transaction ends.
func (s *Store) ProductForUpdate(ctx context.Context, id string) (models.Product, error) {
	var product models.Product
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&product, "id = ?", id).Error
	if err != nil {
		return models.Product{}, fmt.Errorf("load product %s: %w", id, err)
	}
	return product, nil
}

// Products lists the products held by every location of a business.
func (s *Store) Products(ctx context.Context, businessID string) ([]models.Product, error) {
	var products []models.Product
	err := s.db.WithContext(ctx).
		Joins("JOIN locations ON locations.id = products.location_id").
		Where("locations.business_id = ?", businessID).
		Order("products.expiry_date ASC, products.name ASC").
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("list products for business %s: %w", businessID, err)
	}
	return products, nil
}

// CreateProduct inserts a new product.
func (s *Store) CreateProduct(ctx context.Context, product *models.Product) error {
	product.ExpiryDate = product.ExpiryDate.UTC()
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(product).Error; err != nil {
		return fmt.Errorf("create product %q: %w", product.Name, err)
	}
	return nil
}

// SetProductQuantity overwrites the stored quantity of a product.
func (s *Store) SetProductQuantity(ctx context.Context, id string, quantity float64) error {
	result := s.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Update("quantity", quantity)
	if result.Error != nil {
		return fmt.Errorf("update product %s quantity: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("update product %s quantity: %w", id, gorm.ErrRecordNotFound)
	}
	return nil
}

// AppendHistory inserts one stock history row.
func (s *Store) AppendHistory(ctx context.Context, entry *models.StockHistory) error {
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(entry).Error; err != nil {
		return fmt.Errorf("append stock history for product %s: %w", entry.ProductID, err)
	}
	return nil
}

// History lists the stock history of a product, newest first.
func (s *Store) History(ctx context.Context, productID string) ([]models.StockHistory, error) {
	var entries []models.StockHistory
	err := s.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC, id DESC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("list stock history for product %s: %w", productID, err)
	}
	return entries, nil
}

// CreateSale inserts one sales ledger entry.
func (s *Store) CreateSale(ctx context.Context, sale *models.DailySales) error {
	sale.Date = sale.Date.UTC()
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(sale).Error; err != nil {
		return fmt.Errorf("create sale for recipe %s: %w", sale.RecipeID, err)
	}
	return nil
}

// Sales lists the sales of a business dated within [from, to], with each
// recipe's ingredients and products preloaded.
func (s *Store) Sales(ctx context.Context, businessID string, from, to time.Time) ([]models.DailySales, error) {
	var sales []models.DailySales
	err := s.db.WithContext(ctx).
		Joins("JOIN recipes ON recipes.id = daily_sales.recipe_id").
		Where("recipes.business_id = ?", businessID).
		Where("daily_sales.date >= ? AND daily_sales.date <= ?", from.UTC(), to.UTC()).
		Preload("Recipe.Ingredients.Product").
		Order("daily_sales.date ASC").
		Find(&sales).Error
	if err != nil {
		return nil, fmt.Errorf("list sales for business %s: %w", businessID, err)
	}
	return sales, nil
}

// CreateWaste inserts one waste event.
func (s *Store) CreateWaste(ctx context.Context, event *models.WasteEvent) error {
	event.Date = event.Date.UTC()
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(event).Error; err != nil {
		return fmt.Errorf("create waste event for product %s: %w", event.ProductID, err)
	}
	return nil
}

// WasteEvents lists the waste events of a business dated within [from, to],
// with the wasted product preloaded.
func (s *Store) WasteEvents(ctx context.Context, businessID string, from, to time.Time) ([]models.WasteEvent, error) {
	var events []models.WasteEvent
	err := s.db.WithContext(ctx).
		Joins("JOIN products ON products.id = waste_events.product_id").
		Joins("JOIN locations ON locations.id = products.location_id").
		Where("locations.business_id = ?", businessID).
		Where("waste_events.date >= ? AND waste_events.date <= ?", from.UTC(), to.UTC()).
		Preload("Product").
		Order("waste_events.date ASC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("list waste events for business %s: %w", businessID, err)
	}
	return events, nil
}

// RecipeDayTotal is the quantity of one recipe sold on one UTC calendar day,
// summed across every location and sales entry of that day.
type RecipeDayTotal struct {
	RecipeID   string
	RecipeName string
	Day        time.Time
	Quantity   int
}

type saleRow struct {
	RecipeID   string
	RecipeName string
	Date       time.Time
	Quantity   int
}

// DailyRecipeTotals returns per-recipe, per-day sales totals for a business
// over [from, to), ordered by recipe and then oldest day first.
func (s *Store) DailyRecipeTotals(ctx context.Context, businessID string, from, to time.Time) ([]RecipeDayTotal, error) {
	var rows []saleRow
	err := s.db.WithContext(ctx).
		Table("daily_sales").
		Select("daily_sales.recipe_id AS recipe_id, recipes.name AS recipe_name, daily_sales.date AS date, daily_sales.quantity AS quantity").
		Joins("JOIN recipes ON recipes.id = daily_sales.recipe_id").
		Where("recipes.business_id = ?", businessID).
		Where("daily_sales.date >= ? AND daily_sales.date < ?", from.UTC(), to.UTC()).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load daily totals for business %s: %w", businessID, err)
	}

	type key struct {
		recipe string
		day    time.Time
	}
	totals := make(map[key]*RecipeDayTotal)
	for _, row := range rows {
		day := truncateDay(row.Date)
		k := key{recipe: row.RecipeID, day: day}
		total, ok := totals[k]
		if !ok {
			total = &RecipeDayTotal{RecipeID: row.RecipeID, RecipeName: row.RecipeName, Day: day}
			totals[k] = total
		}
		total.Quantity += row.Quantity
	}

	result := make([]RecipeDayTotal, 0, len(totals))
	for _, total := range totals {
		result = append(result, *total)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].RecipeID != result[j].RecipeID {
			return result[i].RecipeID < result[j].RecipeID
		}
		return result[i].Day.Before(result[j].Day)
	})
	return result, nil
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
