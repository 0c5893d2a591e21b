package archive

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"snaptrack/internal/analytics"
	"snaptrack/internal/config"
	"snaptrack/internal/forecast"
	applog "snaptrack/internal/log"
	"snaptrack/models"
)

func TestNewReportFlattensSnapshot(t *testing.T) {
	t.Parallel()

	asOf := time.Date(2024, 6, 3, 23, 0, 0, 0, time.UTC)
	snapshot := analytics.Snapshot{
		AsOf: asOf,
		Waste: analytics.WasteCost{
			Day:   decimal.RequireFromString("1.5"),
			Week:  decimal.NewFromInt(12),
			Month: decimal.NewFromInt(40),
		},
		SalesVsStock: analytics.SalesVsStock{
			Revenue:   decimal.NewFromInt(100),
			StockCost: decimal.NewFromInt(40),
			Margin:    decimal.NewFromInt(60),
		},
		TopWaste: []analytics.IngredientWaste{{ProductID: "p1", Name: "Basil", WasteCost: decimal.NewFromInt(3), Rate: 25}},
		Alerts:   []analytics.Alert{{Type: analytics.AlertHighWaste, Name: "Basil", Rate: 25}},
	}
	predictions := []forecast.Prediction{{RecipeID: "r1", RecipeName: "Pizza", PredictedQuantity: 15, Trend: forecast.TrendUp}}

	report := NewReport(models.Business{Model: models.Model{ID: "b1"}, Name: "Bistro"}, snapshot, asOf.Add(time.Hour), predictions)

	if report.BusinessID != "b1" || report.BusinessName != "Bistro" || !report.GeneratedAt.Equal(asOf) {
		t.Fatalf("unexpected header %+v", report)
	}
	if report.WasteDay != "1.5" || report.Margin != "60" || report.StockCost != "40" {
		t.Fatalf("unexpected figures %+v", report)
	}
	if len(report.TopWaste) != 1 || report.TopWaste[0].WasteCost != "3" {
		t.Fatalf("unexpected top waste %+v", report.TopWaste)
	}
	if len(report.Alerts) != 1 || report.Alerts[0].Type != "HIGH_WASTE" {
		t.Fatalf("unexpected alerts %+v", report.Alerts)
	}
	if len(report.Forecast) != 1 || report.Forecast[0].Predicted != 15 || report.Forecast[0].Trend != "UP" {
		t.Fatalf("unexpected forecast %+v", report.Forecast)
	}
}

func TestConnectRequiresURI(t *testing.T) {
	t.Parallel()

	if _, err := Connect(context.Background(), config.ArchiveConfig{}); err == nil {
		t.Fatal("expected error for empty uri")
	}
}

func TestConnectRejectsInvalidURI(t *testing.T) {
	t.Parallel()

	if _, err := Connect(context.Background(), config.ArchiveConfig{MongoURI: "not-a-mongo-uri", MongoDB: "db", Collection: "reports"}); err == nil {
		t.Fatal("expected error for invalid uri")
	}
}

func TestLogArchiverWritesSummary(t *testing.T) {
	buf := new(bytes.Buffer)
	original := applog.Logger()
	applog.ReplaceLogger(slog.New(slog.NewTextHandler(buf, nil)))
	t.Cleanup(func() {
		applog.ReplaceLogger(original)
	})

	if err := (LogArchiver{}).Archive(context.Background(), Report{BusinessID: "b1", Margin: "60"}); err != nil {
		t.Fatalf("Archive() error = %v", err)
	}
	line := buf.String()
	if !strings.Contains(line, "business=b1") || !strings.Contains(line, "margin=60") {
		t.Fatalf("unexpected log line %q", line)
	}
}
