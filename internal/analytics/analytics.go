// Package analytics computes waste, margin and alert figures for a business
// from its recorded sales, waste events and current stock.
package analytics

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"snaptrack/models"
)

// Source is the read-only data the aggregator needs. *store.Store implements it.
type Source interface {
	Products(ctx context.Context, businessID string) ([]models.Product, error)
	Sales(ctx context.Context, businessID string, from, to time.Time) ([]models.DailySales, error)
	WasteEvents(ctx context.Context, businessID string, from, to time.Time) ([]models.WasteEvent, error)
}

// Policy holds the alerting thresholds. Rates are percentages.
type Policy struct {
	HighWasteRate  float64
	SmartWasteRate float64
	ExpiryHorizon  time.Duration
	TopWasteLimit  int
}

// DefaultPolicy returns the stock thresholds: 10% for alerts, 15% for
// recommendations, a 24 hour expiry horizon and a top five waste list.
func DefaultPolicy() Policy {
	return Policy{
		HighWasteRate:  10,
		SmartWasteRate: 15,
		ExpiryHorizon:  24 * time.Hour,
		TopWasteLimit:  5,
	}
}

// AlertType classifies an alert or recommendation.
type AlertType string

const (
	AlertHighWaste    AlertType = "HIGH_WASTE"
	AlertExpiringSoon AlertType = "EXPIRING_SOON"
)

// Recommendation tags attached to smart analysis items.
const (
	RecommendCheck   = "rec_check"
	RecommendPromote = "rec_promo"
)

// WasteCost is the cost of wasted stock per reporting window.
type WasteCost struct {
	Day   decimal.Decimal `json:"day"`
	Week  decimal.Decimal `json:"week"`
	Month decimal.Decimal `json:"month"`
}

// SalesVsStock compares revenue with the theoretical cost of the stock the
// same sales consumed.
type SalesVsStock struct {
	Revenue   decimal.Decimal `json:"revenue"`
	StockCost decimal.Decimal `json:"stock_cost"`
	Margin    decimal.Decimal `json:"margin"`
}

// IngredientWaste is the waste profile of one product over the week.
type IngredientWaste struct {
	ProductID        string          `json:"product_id"`
	Name             string          `json:"name"`
	WasteQuantity    float64         `json:"waste_quantity"`
	ConsumedQuantity float64         `json:"consumed_quantity"`
	WasteCost        decimal.Decimal `json:"waste_cost"`
	Rate             float64         `json:"rate"`
}

// Alert is a hard warning shown to the business.
type Alert struct {
	Type      AlertType  `json:"type"`
	ProductID string     `json:"product_id"`
	Name      string     `json:"name"`
	Rate      float64    `json:"rate"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Insight is an advisory annotation with a recommendation tag.
type Insight struct {
	Type           AlertType `json:"type"`
	ProductID      string    `json:"product_id"`
	ProductName    string    `json:"product_name"`
	Detail         string    `json:"detail"`
	Recommendation string    `json:"recommendation"`
}

// Stats are the headline dashboard counters.
type Stats struct {
	CurrentStock int             `json:"current_stock"`
	ExpiringSoon int             `json:"expiring_soon"`
	TodaySales   decimal.Decimal `json:"today_sales"`
	TodayLosses  decimal.Decimal `json:"today_losses"`
}

// Snapshot is the full analytics view of a business at an instant.
type Snapshot struct {
	BusinessID    string            `json:"business_id"`
	AsOf          time.Time         `json:"as_of"`
	Waste         WasteCost         `json:"waste"`
	SalesVsStock  SalesVsStock      `json:"sales_vs_stock"`
	TopWaste      []IngredientWaste `json:"top_waste"`
	Alerts        []Alert           `json:"alerts"`
	SmartAnalysis []Insight         `json:"smart_analysis"`
	Stats         Stats             `json:"stats"`
}

// Aggregator computes Snapshots. It holds no mutable state.
type Aggregator struct {
	source Source
	policy Policy
}

// New constructs an Aggregator.
func New(source Source, policy Policy) (*Aggregator, error) {
	if source == nil {
		return nil, errors.New("analytics: source is nil")
	}
	if policy.TopWasteLimit <= 0 {
		return nil, errors.New("analytics: top waste limit must be positive")
	}
	return &Aggregator{source: source, policy: policy}, nil
}

// Windows are the UTC reporting window starts for an instant.
type Windows struct {
	Day   time.Time
	Week  time.Time
	Month time.Time
}

// WindowsAt returns midnight of asOf's day, midnight of the most recent
// Sunday and midnight of the first of the month, all in UTC.
func WindowsAt(asOf time.Time) Windows {
	asOf = asOf.UTC()
	day := time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, time.UTC)
	return Windows{
		Day:   day,
		Week:  day.AddDate(0, 0, -int(day.Weekday())),
		Month: time.Date(asOf.Year(), asOf.Month(), 1, 0, 0, 0, 0, time.UTC),
	}
}

// ComputeMetrics builds the Snapshot for a business as of asOf. Every window
// ends at asOf inclusive. Empty history yields zero values, not an error.
func (a *Aggregator) ComputeMetrics(ctx context.Context, businessID string, asOf time.Time) (Snapshot, error) {
	asOf = asOf.UTC()
	windows := WindowsAt(asOf)

	earliest := windows.Week
	if windows.Month.Before(earliest) {
		earliest = windows.Month
	}

	waste, err := a.source.WasteEvents(ctx, businessID, earliest, asOf)
	if err != nil {
		return Snapshot{}, fmt.Errorf("analytics: load waste events: %w", err)
	}
	sales, err := a.source.Sales(ctx, businessID, windows.Week, asOf)
	if err != nil {
		return Snapshot{}, fmt.Errorf("analytics: load sales: %w", err)
	}
	products, err := a.source.Products(ctx, businessID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("analytics: load products: %w", err)
	}

	snapshot := Snapshot{
		BusinessID: businessID,
		AsOf:       asOf,
		Waste: WasteCost{
			Day:   wasteCostSince(waste, windows.Day),
			Week:  wasteCostSince(waste, windows.Week),
			Month: wasteCostSince(waste, windows.Month),
		},
		SalesVsStock: salesVsStock(sales),
	}

	stats := ingredientWaste(waste, sales, windows.Week)
	limit := a.policy.TopWasteLimit
	if limit > len(stats) {
		limit = len(stats)
	}
	snapshot.TopWaste = stats[:limit]

	expiring := ExpiringSoon(products, asOf, a.policy.ExpiryHorizon)
	snapshot.Alerts = a.alerts(stats, expiring)
	snapshot.SmartAnalysis = a.insights(stats, expiring)

	snapshot.Stats = Stats{
		CurrentStock: inStock(products),
		ExpiringSoon: len(expiring),
		TodaySales:   revenueSince(sales, windows.Day),
		TodayLosses:  snapshot.Waste.Day,
	}
	return snapshot, nil
}

func wasteCostSince(events []models.WasteEvent, from time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, event := range events {
		if event.Date.Before(from) {
			continue
		}
		total = total.Add(event.Cost())
	}
	return total
}

func revenueSince(sales []models.DailySales, from time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, sale := range sales {
		if sale.Date.Before(from) {
			continue
		}
		total = total.Add(sale.Revenue())
	}
	return total
}

func salesVsStock(sales []models.DailySales) SalesVsStock {
	revenue := decimal.Zero
	stockCost := decimal.Zero
	for _, sale := range sales {
		revenue = revenue.Add(sale.Revenue())
		if sale.Recipe == nil {
			continue
		}
		stockCost = stockCost.Add(sale.Recipe.TotalCost().Mul(decimal.NewFromInt(int64(sale.Quantity))))
	}
	return SalesVsStock{
		Revenue:   revenue,
		StockCost: stockCost,
		Margin:    revenue.Sub(stockCost),
	}
}

// ingredientWaste groups the week's waste by product and relates it to the
// quantity the week's sales consumed. Only wasted products are listed, sorted
// by waste cost descending.
func ingredientWaste(events []models.WasteEvent, sales []models.DailySales, from time.Time) []IngredientWaste {
	consumed := make(map[string]float64)
	for _, sale := range sales {
		if sale.Recipe == nil {
			continue
		}
		for _, ingredient := range sale.Recipe.Ingredients {
			consumed[ingredient.ProductID] += float64(sale.Quantity) * ingredient.Quantity
		}
	}

	byProduct := make(map[string]*IngredientWaste)
	var order []string
	for _, event := range events {
		if event.Date.Before(from) {
			continue
		}
		stat, ok := byProduct[event.ProductID]
		if !ok {
			name := ""
			if event.Product != nil {
				name = event.Product.Name
			}
			stat = &IngredientWaste{ProductID: event.ProductID, Name: name, WasteCost: decimal.Zero}
			byProduct[event.ProductID] = stat
			order = append(order, event.ProductID)
		}
		stat.WasteQuantity += event.Quantity
		stat.WasteCost = stat.WasteCost.Add(event.Cost())
	}

	stats := make([]IngredientWaste, 0, len(order))
	for _, id := range order {
		stat := byProduct[id]
		stat.ConsumedQuantity = consumed[id]
		stat.Rate = WasteRate(stat.WasteQuantity, stat.ConsumedQuantity)
		stats = append(stats, *stat)
	}
	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].WasteCost.GreaterThan(stats[j].WasteCost)
	})
	return stats
}

// WasteRate is wasted / (wasted + consumed) as a percentage, or 0 when
// nothing was wasted or consumed.
func WasteRate(wasted, consumed float64) float64 {
	total := wasted + consumed
	if total <= 0 {
		return 0
	}
	return wasted / total * 100
}

// ExpiringSoon returns in-stock products whose expiry falls within
// [asOf, asOf+horizon]. Already expired products are excluded.
func ExpiringSoon(products []models.Product, asOf time.Time, horizon time.Duration) []models.Product {
	limit := asOf.Add(horizon)
	var expiring []models.Product
	for _, product := range products {
		if product.Quantity <= 0 {
			continue
		}
		if product.ExpiryDate.Before(asOf) || product.ExpiryDate.After(limit) {
			continue
		}
		expiring = append(expiring, product)
	}
	return expiring
}

func inStock(products []models.Product) int {
	count := 0
	for _, product := range products {
		if product.Quantity > 0 {
			count++
		}
	}
	return count
}

func (a *Aggregator) alerts(stats []IngredientWaste, expiring []models.Product) []Alert {
	alerts := make([]Alert, 0)
	for _, stat := range stats {
		if stat.Rate > a.policy.HighWasteRate {
			alerts = append(alerts, Alert{Type: AlertHighWaste, ProductID: stat.ProductID, Name: stat.Name, Rate: roundTenth(stat.Rate)})
		}
	}
	for _, product := range expiring {
		expiry := product.ExpiryDate
		alerts = append(alerts, Alert{Type: AlertExpiringSoon, ProductID: product.ID, Name: product.Name, ExpiresAt: &expiry})
	}
	return alerts
}

func (a *Aggregator) insights(stats []IngredientWaste, expiring []models.Product) []Insight {
	insights := make([]Insight, 0)
	for _, stat := range stats {
		if stat.Rate > a.policy.SmartWasteRate {
			insights = append(insights, Insight{
				Type:           AlertHighWaste,
				ProductID:      stat.ProductID,
				ProductName:    stat.Name,
				Detail:         fmt.Sprintf("%.1f", stat.Rate),
				Recommendation: RecommendCheck,
			})
		}
	}
	hours := fmt.Sprintf("%d", int(a.policy.ExpiryHorizon.Hours()))
	for _, product := range expiring {
		insights = append(insights, Insight{
			Type:           AlertExpiringSoon,
			ProductID:      product.ID,
			ProductName:    product.Name,
			Detail:         hours,
			Recommendation: RecommendPromote,
		})
	}
	return insights
}

func roundTenth(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(1).Float64()
	return f
}
