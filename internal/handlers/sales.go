package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"snaptrack/internal/consumption"
	applog "snaptrack/internal/log"
)

type saleRequest struct {
	RecipeID        string              `json:"recipe_id"`
	QuantitySold    int                 `json:"quantity_sold"`
	Date            string              `json:"date"`
	LocationID      string              `json:"location_id"`
	UnitPrice       decimal.NullDecimal `json:"unit_price"`
	TotalRevenue    decimal.NullDecimal `json:"total_revenue"`
	WeatherSnapshot json.RawMessage     `json:"weather_snapshot"`
}

// RecordSale stores a sale and consumes the recipe's ingredients.
func (a *API) RecordSale(w http.ResponseWriter, r *http.Request) {
	var req saleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.RecipeID) == "" {
		writeJSONError(w, http.StatusBadRequest, "recipe_id is required")
		return
	}
	if req.QuantitySold <= 0 {
		writeJSONError(w, http.StatusBadRequest, "quantity_sold must be a positive integer")
		return
	}
	date, err := parseInstant(req.Date)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	input := consumption.SaleInput{
		RecipeID:     req.RecipeID,
		Quantity:     req.QuantitySold,
		Date:         date,
		LocationID:   strings.TrimSpace(req.LocationID),
		UnitPrice:    req.UnitPrice,
		TotalRevenue: req.TotalRevenue,
	}
	if len(req.WeatherSnapshot) > 0 && string(req.WeatherSnapshot) != "null" {
		input.WeatherSnapshot = []byte(req.WeatherSnapshot)
	} else {
		input.WeatherSnapshot = a.currentWeather(r, input.LocationID)
	}

	receipt, err := a.processor.RecordSale(r.Context(), input)
	if err != nil {
		writeServiceError(w, r, err, "record sale")
		return
	}
	writeJSON(w, http.StatusCreated, receipt)
}

// currentWeather returns a best-effort weather snapshot for a location with
// coordinates, or nil.
func (a *API) currentWeather(r *http.Request, locationID string) []byte {
	if a.weather == nil || locationID == "" {
		return nil
	}
	location, err := a.store.Location(r.Context(), locationID)
	if err != nil || !location.HasCoordinates() {
		return nil
	}
	snapshot, err := a.weather.Current(r.Context(), *location.Latitude, *location.Longitude)
	if err != nil {
		applog.Warn(r.Context(), "weather lookup failed", "location", locationID, "error", err)
		return nil
	}
	encoded, err := snapshot.JSON()
	if err != nil {
		return nil
	}
	return encoded
}
