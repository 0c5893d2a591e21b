// Package archive keeps nightly analytics reports outside the transactional
// database.
package archive

import (
	"time"

	"snaptrack/internal/analytics"
	"snaptrack/internal/forecast"
	"snaptrack/models"
)

// Report is the archived nightly view of one business. Monetary values are
// stored as decimal strings to keep them exact.
type Report struct {
	BusinessID   string         `bson:"business_id" json:"business_id"`
	BusinessName string         `bson:"business_name" json:"business_name"`
	GeneratedAt  time.Time      `bson:"generated_at" json:"generated_at"`
	ForecastDate time.Time      `bson:"forecast_date" json:"forecast_date"`
	WasteDay     string         `bson:"waste_day" json:"waste_day"`
	WasteWeek    string         `bson:"waste_week" json:"waste_week"`
	WasteMonth   string         `bson:"waste_month" json:"waste_month"`
	Revenue      string         `bson:"revenue" json:"revenue"`
	StockCost    string         `bson:"stock_cost" json:"stock_cost"`
	Margin       string         `bson:"margin" json:"margin"`
	TopWaste     []WasteLine    `bson:"top_waste" json:"top_waste"`
	Alerts       []AlertLine    `bson:"alerts" json:"alerts"`
	Forecast     []ForecastLine `bson:"forecast" json:"forecast"`
}

type WasteLine struct {
	ProductID string  `bson:"product_id" json:"product_id"`
	Name      string  `bson:"name" json:"name"`
	WasteCost string  `bson:"waste_cost" json:"waste_cost"`
	Rate      float64 `bson:"rate" json:"rate"`
}

type AlertLine struct {
	Type string  `bson:"type" json:"type"`
	Name string  `bson:"name" json:"name"`
	Rate float64 `bson:"rate" json:"rate"`
}

type ForecastLine struct {
	RecipeID  string `bson:"recipe_id" json:"recipe_id"`
	Name      string `bson:"name" json:"name"`
	Predicted int    `bson:"predicted" json:"predicted"`
	Trend     string `bson:"trend" json:"trend"`
}

// NewReport flattens a metrics snapshot and a forecast into a Report.
func NewReport(business models.Business, snapshot analytics.Snapshot, forecastDate time.Time, predictions []forecast.Prediction) Report {
	report := Report{
		BusinessID:   business.ID,
		BusinessName: business.Name,
		GeneratedAt:  snapshot.AsOf,
		ForecastDate: forecastDate,
		WasteDay:     snapshot.Waste.Day.String(),
		WasteWeek:    snapshot.Waste.Week.String(),
		WasteMonth:   snapshot.Waste.Month.String(),
		Revenue:      snapshot.SalesVsStock.Revenue.String(),
		StockCost:    snapshot.SalesVsStock.StockCost.String(),
		Margin:       snapshot.SalesVsStock.Margin.String(),
		TopWaste:     make([]WasteLine, 0, len(snapshot.TopWaste)),
		Alerts:       make([]AlertLine, 0, len(snapshot.Alerts)),
		Forecast:     make([]ForecastLine, 0, len(predictions)),
	}
	for _, stat := range snapshot.TopWaste {
		report.TopWaste = append(report.TopWaste, WasteLine{
			ProductID: stat.ProductID,
			Name:      stat.Name,
			WasteCost: stat.WasteCost.String(),
			Rate:      stat.Rate,
		})
	}
	for _, alert := range snapshot.Alerts {
		report.Alerts = append(report.Alerts, AlertLine{Type: string(alert.Type), Name: alert.Name, Rate: alert.Rate})
	}
	for _, p := range predictions {
		report.Forecast = append(report.Forecast, ForecastLine{
			RecipeID:  p.RecipeID,
			Name:      p.RecipeName,
			Predicted: p.PredictedQuantity,
			Trend:     string(p.Trend),
		})
	}
	return report
}
