package mock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"snaptrack/internal/db"
	applog "snaptrack/internal/log"
	"snaptrack/internal/store"
	"snaptrack/models"
)

// Open returns an empty, migrated in-memory sqlite database. Every call gets
// its own database so tests never share state.
func Open(ctx context.Context) (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:snaptrack-%s?mode=memory&cache=shared", uuid.NewString())

	cfg := db.GormConfig(logger.Discard)
	cfg.PrepareStmt = false

	database, err := gorm.Open(sqlite.Open(dsn), cfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := database.DB()
	if err != nil {
		return nil, err
	}
	// A single connection keeps the shared in-memory database alive and
	// serialises writers the way a real database would.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(database.WithContext(ctx)); err != nil {
		return nil, err
	}
	return database, nil
}

// New returns an in-memory sqlite database seeded with a demo business.
func New(ctx context.Context) (*gorm.DB, error) {
	applog.Debug(ctx, "initialising mock database")

	database, err := Open(ctx)
	if err != nil {
		return nil, err
	}

	s, err := store.New(database)
	if err != nil {
		return nil, err
	}

	if err := s.Transaction(ctx, func(tx *store.Store) error {
		return seed(ctx, tx, time.Now().UTC())
	}); err != nil {
		return nil, err
	}

	applog.Debug(ctx, "mock database ready")
	return database, nil
}

func money(value string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(value))
}

func coordinate(v float64) *float64 {
	return &v
}

func seed(ctx context.Context, s *store.Store, now time.Time) error {
	applog.Debug(ctx, "seeding mock database")

	tx := s.DB().WithContext(ctx)

	business := models.Business{Name: "Corner Bistro"}
	if err := tx.Create(&business).Error; err != nil {
		return err
	}

	kitchen := models.Location{
		BusinessID: business.ID,
		Name:       "Main Kitchen",
		Latitude:   coordinate(52.52),
		Longitude:  coordinate(13.405),
	}
	kiosk := models.Location{
		BusinessID: business.ID,
		Name:       "Market Kiosk",
	}
	for _, location := range []*models.Location{&kitchen, &kiosk} {
		if err := tx.Create(location).Error; err != nil {
			return err
		}
	}

	flour := models.Product{LocationID: kitchen.ID, Name: "Flour", Quantity: 25, Unit: "kg", CostPerUnit: money("0.9"), ExpiryDate: now.AddDate(0, 3, 0)}
	tomatoes := models.Product{LocationID: kitchen.ID, Name: "Tomatoes", Quantity: 6, Unit: "kg", CostPerUnit: money("2.4"), ExpiryDate: now.Add(20 * time.Hour)}
	mozzarella := models.Product{LocationID: kitchen.ID, Name: "Mozzarella", Quantity: 4000, Unit: "g", CostPerUnit: money("0.012"), ExpiryDate: now.AddDate(0, 0, 5)}
	basil := models.Product{LocationID: kitchen.ID, Name: "Basil", Quantity: 30, Unit: "units", CostPerUnit: money("0.1"), ExpiryDate: now.AddDate(0, 0, 2)}
	milk := models.Product{LocationID: kiosk.ID, Name: "Milk", Quantity: 12, Unit: "l", CostPerUnit: money("1.1"), ExpiryDate: now.AddDate(0, 0, 9)}
	eggs := models.Product{LocationID: kiosk.ID, Name: "Eggs", Quantity: 60, Unit: "pcs", CostPerUnit: money("0.25"), ExpiryDate: now.AddDate(0, 0, 14)}

	products := []*models.Product{&flour, &tomatoes, &mozzarella, &basil, &milk, &eggs}
	for _, product := range products {
		if err := s.CreateProduct(ctx, product); err != nil {
			return err
		}
	}

	margherita := models.Recipe{
		BusinessID:   business.ID,
		Name:         "Pizza Margherita",
		Description:  "Tomato, mozzarella and fresh basil.",
		SellingPrice: money("11.5"),
		Ingredients: []models.RecipeIngredient{
			{ProductID: flour.ID, Quantity: 0.25, Unit: "kg"},
			{ProductID: tomatoes.ID, Quantity: 0.15, Unit: "kg"},
			{ProductID: mozzarella.ID, Quantity: 125, Unit: "g"},
			{ProductID: basil.ID, Quantity: 3, Unit: "pcs"},
		},
	}
	pancakes := models.Recipe{
		BusinessID:   business.ID,
		Name:         "Pancakes",
		SellingPrice: money("6"),
		Ingredients: []models.RecipeIngredient{
			{ProductID: flour.ID, Quantity: 100, Unit: "g"},
			{ProductID: milk.ID, Quantity: 250, Unit: "ml"},
			{ProductID: eggs.ID, Quantity: 2, Unit: "units"},
		},
	}
	for _, recipe := range []*models.Recipe{&margherita, &pancakes} {
		if err := s.CreateRecipe(ctx, recipe); err != nil {
			return err
		}
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 12, 0, 0, 0, time.UTC)
	for week := 8; week >= 1; week-- {
		day := today.AddDate(0, 0, -7*week)
		sold := 10 + (8-week)*2
		sales := []models.DailySales{
			{RecipeID: margherita.ID, LocationID: &kitchen.ID, Quantity: sold, Date: day, TotalRevenue: decimal.NewNullDecimal(margherita.SellingPrice.Decimal.Mul(decimal.NewFromInt(int64(sold))))},
			{RecipeID: pancakes.ID, LocationID: &kiosk.ID, Quantity: 8, Date: day, TotalRevenue: decimal.NewNullDecimal(decimal.NewFromInt(48))},
		}
		for i := range sales {
			if err := s.CreateSale(ctx, &sales[i]); err != nil {
				return err
			}
		}
	}

	waste := []models.WasteEvent{
		{ProductID: tomatoes.ID, Quantity: 1.5, Date: now.Add(-2 * time.Hour), Note: "Bruised crate"},
		{ProductID: basil.ID, Quantity: 10, Date: now.AddDate(0, 0, -1), Note: "Wilted"},
	}
	for i := range waste {
		if err := s.CreateWaste(ctx, &waste[i]); err != nil {
			return err
		}
	}

	applog.Debug(ctx, "mock database seeded", "business", business.ID)
	return nil
}
