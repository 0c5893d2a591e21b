package forecast

import (
	"context"
	"errors"
	"testing"
	"time"

	"snaptrack/internal/db/mock"
	"snaptrack/internal/store"
	"snaptrack/models"
)

type fakeHistory struct {
	totals   []store.RecipeDayTotal
	err      error
	from, to time.Time
}

func (f *fakeHistory) DailyRecipeTotals(_ context.Context, _ string, from, to time.Time) ([]store.RecipeDayTotal, error) {
	f.from, f.to = from, to
	return f.totals, f.err
}

// A Tuesday.
var tuesday = time.Date(2024, 6, 4, 9, 30, 0, 0, time.UTC)

func weeksBefore(weeks int) time.Time {
	return time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -7*weeks)
}

func newForecaster(t *testing.T, history History) *Forecaster {
	t.Helper()

	f, err := New(history, DefaultPolicy())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return f
}

func TestWeightedAverage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		quantities []int
		want       int
	}{
		{"empty", nil, 0},
		{"single", []int{7}, 7},
		{"four weeks", []int{10, 12, 14, 20}, 15},
		{"rounds half up", []int{1, 1, 2}, 2},
		{"rounds down", []int{1, 0, 0, 0}, 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := WeightedAverage(tt.quantities); got != tt.want {
				t.Fatalf("WeightedAverage(%v) = %d, want %d", tt.quantities, got, tt.want)
			}
		})
	}
}

func TestClassifyTrend(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		quantities []int
		want       Trend
	}{
		{"too few points", []int{1, 1, 50}, TrendStable},
		{"rising", []int{10, 12, 14, 20}, TrendUp},
		{"falling", []int{20, 20, 10, 10}, TrendDown},
		{"flat", []int{10, 10, 10, 11}, TrendStable},
		{"exactly ten percent up stays stable", []int{10, 10, 11, 11}, TrendStable},
		{"exactly ten percent down stays stable", []int{10, 10, 9, 9}, TrendStable},
		{"long series uses ends", []int{10, 10, 40, 1, 12, 12}, TrendUp},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ClassifyTrend(tt.quantities, DefaultPolicy()); got != tt.want {
				t.Fatalf("ClassifyTrend(%v) = %s, want %s", tt.quantities, got, tt.want)
			}
		})
	}
}

func TestClassifyTrendHonoursPolicy(t *testing.T) {
	t.Parallel()

	policy := DefaultPolicy()
	policy.MinTrendPoints = 2
	if got := ClassifyTrend([]int{10, 20}, policy); got != TrendUp {
		t.Fatalf("expected UP with two points allowed, got %s", got)
	}
	policy.UpThreshold = 2.5
	if got := ClassifyTrend([]int{10, 20}, policy); got != TrendStable {
		t.Fatalf("expected STABLE with a higher up threshold, got %s", got)
	}
}

func TestForecastWeightedTuesdays(t *testing.T) {
	t.Parallel()

	history := &fakeHistory{totals: []store.RecipeDayTotal{
		{RecipeID: "pizza", RecipeName: "Pizza", Day: weeksBefore(4), Quantity: 10},
		{RecipeID: "pizza", RecipeName: "Pizza", Day: weeksBefore(3), Quantity: 12},
		{RecipeID: "pizza", RecipeName: "Pizza", Day: weeksBefore(2), Quantity: 14},
		{RecipeID: "pizza", RecipeName: "Pizza", Day: weeksBefore(2).AddDate(0, 0, 1), Quantity: 500},
		{RecipeID: "pizza", RecipeName: "Pizza", Day: weeksBefore(1), Quantity: 20},
		{RecipeID: "soup", RecipeName: "Soup", Day: weeksBefore(2), Quantity: 3},
		{RecipeID: "tart", RecipeName: "Tart", Day: weeksBefore(5), Quantity: 1},
		{RecipeID: "tart", RecipeName: "Tart", Day: weeksBefore(3), Quantity: 0},
	}}

	predictions, err := newForecaster(t, history).Forecast(context.Background(), "biz", tuesday)
	if err != nil {
		t.Fatalf("Forecast() error = %v", err)
	}

	if !history.from.Equal(weeksBefore(8)) || !history.to.Equal(weeksBefore(0)) {
		t.Fatalf("unexpected window [%s, %s)", history.from, history.to)
	}
	if len(predictions) != 2 {
		t.Fatalf("expected pizza and soup, got %+v", predictions)
	}
	if p := predictions[0]; p.RecipeID != "pizza" || p.PredictedQuantity != 15 || p.Trend != TrendUp || p.DataPoints != 4 {
		t.Fatalf("unexpected pizza prediction %+v", p)
	}
	if p := predictions[1]; p.RecipeID != "soup" || p.PredictedQuantity != 3 || p.Trend != TrendStable {
		t.Fatalf("unexpected soup prediction %+v", p)
	}
}

func TestForecastKeepsHistoryOrder(t *testing.T) {
	t.Parallel()

	// Rising then falling: the order of the series decides the trend.
	history := &fakeHistory{totals: []store.RecipeDayTotal{
		{RecipeID: "pizza", RecipeName: "Pizza", Day: weeksBefore(4), Quantity: 20},
		{RecipeID: "pizza", RecipeName: "Pizza", Day: weeksBefore(3), Quantity: 20},
		{RecipeID: "pizza", RecipeName: "Pizza", Day: weeksBefore(2), Quantity: 10},
		{RecipeID: "pizza", RecipeName: "Pizza", Day: weeksBefore(1), Quantity: 10},
		{RecipeID: "soup", RecipeName: "Soup", Day: weeksBefore(1), Quantity: 10},
	}}

	predictions, err := newForecaster(t, history).Forecast(context.Background(), "biz", tuesday)
	if err != nil {
		t.Fatalf("Forecast() error = %v", err)
	}
	if len(predictions) != 2 {
		t.Fatalf("expected pizza and soup, got %+v", predictions)
	}
	// (20*1 + 20*2 + 10*3 + 10*4) / 10 = 13
	if p := predictions[0]; p.RecipeID != "pizza" || p.PredictedQuantity != 13 || p.Trend != TrendDown || p.DataPoints != 4 {
		t.Fatalf("unexpected pizza prediction %+v", p)
	}
	if p := predictions[1]; p.RecipeID != "soup" || p.PredictedQuantity != 10 || p.DataPoints != 1 {
		t.Fatalf("unexpected soup prediction %+v", p)
	}
}

func TestForecastEmptyHistory(t *testing.T) {
	t.Parallel()

	predictions, err := newForecaster(t, &fakeHistory{}).Forecast(context.Background(), "biz", tuesday)
	if err != nil {
		t.Fatalf("Forecast() error = %v", err)
	}
	if predictions == nil || len(predictions) != 0 {
		t.Fatalf("expected empty predictions, got %+v", predictions)
	}
}

func TestForecastPropagatesHistoryError(t *testing.T) {
	t.Parallel()

	boom := errors.New("db down")
	if _, err := newForecaster(t, &fakeHistory{err: boom}).Forecast(context.Background(), "biz", tuesday); !errors.Is(err, boom) {
		t.Fatalf("expected history error, got %v", err)
	}
}

func TestNewValidatesArguments(t *testing.T) {
	t.Parallel()

	if _, err := New(nil, DefaultPolicy()); err == nil {
		t.Fatal("expected error for nil history")
	}
	if _, err := New(&fakeHistory{}, Policy{}); err == nil {
		t.Fatal("expected error for zero weeks")
	}
}

func TestForecastFromStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	database, err := mock.Open(ctx)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	s, err := store.New(database)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	business := models.Business{Name: "Diner"}
	if err := database.Create(&business).Error; err != nil {
		t.Fatalf("create business: %v", err)
	}
	recipe := models.Recipe{BusinessID: business.ID, Name: "Burger"}
	if err := s.CreateRecipe(ctx, &recipe); err != nil {
		t.Fatalf("create recipe: %v", err)
	}

	// Two locations selling on the same Tuesday count as one day.
	entries := []models.DailySales{
		{RecipeID: recipe.ID, Quantity: 4, Date: weeksBefore(4).Add(11 * time.Hour)},
		{RecipeID: recipe.ID, Quantity: 6, Date: weeksBefore(4).Add(19 * time.Hour)},
		{RecipeID: recipe.ID, Quantity: 12, Date: weeksBefore(3).Add(12 * time.Hour)},
		{RecipeID: recipe.ID, Quantity: 14, Date: weeksBefore(2).Add(12 * time.Hour)},
		{RecipeID: recipe.ID, Quantity: 20, Date: weeksBefore(1).Add(12 * time.Hour)},
		{RecipeID: recipe.ID, Quantity: 99, Date: weeksBefore(9).Add(12 * time.Hour)},
		{RecipeID: recipe.ID, Quantity: 99, Date: tuesday},
	}
	for i := range entries {
		if err := s.CreateSale(ctx, &entries[i]); err != nil {
			t.Fatalf("create sale: %v", err)
		}
	}

	predictions, err := newForecaster(t, s).Forecast(ctx, business.ID, tuesday)
	if err != nil {
		t.Fatalf("Forecast() error = %v", err)
	}
	if len(predictions) != 1 {
		t.Fatalf("expected one prediction, got %+v", predictions)
	}
	if p := predictions[0]; p.PredictedQuantity != 15 || p.Trend != TrendUp || p.RecipeName != "Burger" {
		t.Fatalf("unexpected prediction %+v", p)
	}
}
