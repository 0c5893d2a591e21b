// Package forecast predicts per-recipe demand for a day from the same weekday
// in previous weeks, using a linearly weighted moving average.
package forecast

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"snaptrack/internal/store"
)

// History provides per-recipe daily sales totals, one per recipe and day,
// ordered by recipe and then oldest day first. *store.Store implements it.
type History interface {
	DailyRecipeTotals(ctx context.Context, businessID string, from, to time.Time) ([]store.RecipeDayTotal, error)
}

// Trend is the direction of recent demand.
type Trend string

const (
	TrendUp     Trend = "UP"
	TrendDown   Trend = "DOWN"
	TrendStable Trend = "STABLE"
)

// Policy configures the forecaster.
type Policy struct {
	// Weeks of history scanned before the forecast day.
	Weeks int
	// MinTrendPoints is the number of observations needed before a trend
	// other than STABLE can be reported.
	MinTrendPoints int
	// UpThreshold and DownThreshold multiply the early average.
	UpThreshold   float64
	DownThreshold float64
}

// DefaultPolicy scans eight weeks and needs four points for a ±10% trend.
func DefaultPolicy() Policy {
	return Policy{
		Weeks:          8,
		MinTrendPoints: 4,
		UpThreshold:    1.1,
		DownThreshold:  0.9,
	}
}

// Prediction is the expected demand for one recipe.
type Prediction struct {
	RecipeID          string `json:"recipe_id"`
	RecipeName        string `json:"recipe_name"`
	PredictedQuantity int    `json:"predicted_quantity"`
	Trend             Trend  `json:"trend"`
	DataPoints        int    `json:"data_points"`
}

// Forecaster produces Predictions. It holds no mutable state.
type Forecaster struct {
	history History
	policy  Policy
}

// New constructs a Forecaster.
func New(history History, policy Policy) (*Forecaster, error) {
	if history == nil {
		return nil, errors.New("forecast: history is nil")
	}
	if policy.Weeks <= 0 {
		return nil, errors.New("forecast: weeks must be positive")
	}
	return &Forecaster{history: history, policy: policy}, nil
}

// Forecast predicts demand for asOf's UTC calendar day. Only history from the
// same weekday within the trailing Policy.Weeks weeks is used. Recipes
// predicted at zero are omitted and results are sorted by predicted quantity,
// highest first.
func (f *Forecaster) Forecast(ctx context.Context, businessID string, asOf time.Time) ([]Prediction, error) {
	asOf = asOf.UTC()
	day := time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, time.UTC)
	from := day.AddDate(0, 0, -7*f.policy.Weeks)

	totals, err := f.history.DailyRecipeTotals(ctx, businessID, from, day)
	if err != nil {
		return nil, fmt.Errorf("forecast: load history: %w", err)
	}

	predictions := make([]Prediction, 0)
	var (
		current    store.RecipeDayTotal
		quantities []int
	)
	flush := func() {
		if len(quantities) == 0 {
			return
		}
		if predicted := WeightedAverage(quantities); predicted != 0 {
			predictions = append(predictions, Prediction{
				RecipeID:          current.RecipeID,
				RecipeName:        current.RecipeName,
				PredictedQuantity: predicted,
				Trend:             ClassifyTrend(quantities, f.policy),
				DataPoints:        len(quantities),
			})
		}
		quantities = nil
	}
	for _, total := range totals {
		if total.Day.UTC().Weekday() != day.Weekday() {
			continue
		}
		if total.RecipeID != current.RecipeID {
			flush()
			current = total
		}
		quantities = append(quantities, total.Quantity)
	}
	flush()

	sort.SliceStable(predictions, func(i, j int) bool {
		if predictions[i].PredictedQuantity != predictions[j].PredictedQuantity {
			return predictions[i].PredictedQuantity > predictions[j].PredictedQuantity
		}
		return predictions[i].RecipeName < predictions[j].RecipeName
	})
	return predictions, nil
}

// WeightedAverage weights the i-th quantity (oldest first) by i+1 and rounds
// half away from zero. An empty series averages to zero.
func WeightedAverage(quantities []int) int {
	if len(quantities) == 0 {
		return 0
	}
	var sum, weights float64
	for i, q := range quantities {
		weight := float64(i + 1)
		sum += float64(q) * weight
		weights += weight
	}
	return int(math.Round(sum / weights))
}

// ClassifyTrend compares the mean of the last two observations with the mean
// of the first two.
func ClassifyTrend(quantities []int, policy Policy) Trend {
	n := len(quantities)
	if n < policy.MinTrendPoints || n < 2 {
		return TrendStable
	}
	first := float64(quantities[0]+quantities[1]) / 2
	last := float64(quantities[n-2]+quantities[n-1]) / 2
	switch {
	case last > first*policy.UpThreshold:
		return TrendUp
	case last < first*policy.DownThreshold:
		return TrendDown
	default:
		return TrendStable
	}
}
