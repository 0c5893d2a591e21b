package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"snaptrack/internal/config"
	"snaptrack/internal/consumption"
	"snaptrack/internal/db"
	"snaptrack/internal/store"
	"snaptrack/models"
)

var (
	cleanWhitespace = regexp.MustCompile(`\s+`)
	headerPattern   = regexp.MustCompile(`[^a-z0-9]+`)
)

func main() {
	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "usage: import_stock <location-id> <deliveries.csv>")
		os.Exit(2)
	}

	if err := run(context.Background(), os.Args[1], os.Args[2]); err != nil {
		fmt.Fprintf(os.Stderr, "import failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, locationID, csvPath string) error {
	if strings.TrimSpace(csvPath) == "" {
		return fmt.Errorf("csv path must not be empty")
	}

	if _, err := os.Stat(csvPath); err != nil {
		return fmt.Errorf("locate csv: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	database, err := db.Initialize(cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	if err := db.AutoMigrate(database); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	s, err := store.New(database)
	if err != nil {
		return err
	}
	processor, err := consumption.New(s, consumption.Options{StrictUnits: cfg.Consumption.StrictUnits})
	if err != nil {
		return err
	}

	products, err := importFile(ctx, processor, locationID, csvPath)
	if err != nil {
		return err
	}

	fmt.Printf("imported %d products into location %s\n", len(products), locationID)
	return nil
}

// importFile ingests every row of the CSV as one delivery. Either all rows are
// stored or none are.
func importFile(ctx context.Context, processor *consumption.Processor, locationID, csvPath string) ([]models.Product, error) {
	records, err := readCSV(csvPath)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	items := make([]consumption.DeliveryItem, 0, len(records))
	for idx, record := range records {
		item, err := buildDeliveryItem(record)
		if err != nil {
			// +2: rows are 1-based and the header is row 1.
			return nil, fmt.Errorf("row %d: %w", idx+2, err)
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		return nil, errors.New("csv has no rows")
	}

	products, err := processor.IngestDelivery(ctx, strings.TrimSpace(locationID), items)
	if err != nil {
		return nil, fmt.Errorf("ingest delivery: %w", err)
	}
	return products, nil
}

func readCSV(path string) ([]map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, errors.New("csv is empty")
	}

	header := make([]string, len(rows[0]))
	for idx, key := range rows[0] {
		header[idx] = normalizeHeader(key)
	}

	records := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}

		record := make(map[string]string, len(header))
		for idx, key := range header {
			if idx >= len(row) {
				continue
			}
			record[key] = strings.TrimSpace(row[idx])
		}
		records = append(records, record)
	}

	return records, nil
}

func buildDeliveryItem(row map[string]string) (consumption.DeliveryItem, error) {
	item := consumption.DeliveryItem{
		Name:     normalizeText(row["name"]),
		Unit:     row["unit"],
		ImageURL: row["image_url"],
	}

	quantity, err := strconv.ParseFloat(row["quantity"], 64)
	if err != nil {
		return item, fmt.Errorf("invalid quantity %q", row["quantity"])
	}
	item.Quantity = quantity

	if raw := row["expiry_date"]; raw != "" {
		expiry, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return item, fmt.Errorf("invalid expiry_date %q: use YYYY-MM-DD", raw)
		}
		item.ExpiryDate = expiry
	}

	if raw := row["cost_per_unit"]; raw != "" {
		cost, err := decimal.NewFromString(strings.TrimPrefix(raw, "$"))
		if err != nil {
			return item, fmt.Errorf("invalid cost_per_unit %q", raw)
		}
		item.CostPerUnit = decimal.NewNullDecimal(cost)
	}

	return item, nil
}

func normalizeHeader(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	return strings.Trim(headerPattern.ReplaceAllString(value, "_"), "_")
}

func normalizeText(value string) string {
	return strings.TrimSpace(cleanWhitespace.ReplaceAllString(value, " "))
}
