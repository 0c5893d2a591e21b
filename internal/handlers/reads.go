package handlers

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"snaptrack/internal/forecast"
	applog "snaptrack/internal/log"
	"snaptrack/internal/units"
)

// Units lists the unit options offered to clients.
func (a *API) Units(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"units": units.Catalogue()})
}

// Analytics returns the metrics snapshot of a business. The optional as_of
// query parameter defaults to now.
func (a *API) Analytics(w http.ResponseWriter, r *http.Request) {
	asOf, err := a.instantParam(r, "as_of")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	snapshot, err := a.aggregator.ComputeMetrics(r.Context(), r.PathValue("id"), asOf)
	if err != nil {
		applog.Error(r.Context(), "failed to compute metrics", "business", r.PathValue("id"), "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

type forecastResponse struct {
	BusinessID  string                `json:"business_id"`
	Date        string                `json:"date"`
	Predictions []forecast.Prediction `json:"predictions"`
}

// Forecast predicts recipe demand for the day given by the date query
// parameter, defaulting to today.
func (a *API) Forecast(w http.ResponseWriter, r *http.Request) {
	date, err := a.instantParam(r, "date")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	predictions, err := a.forecaster.Forecast(r.Context(), r.PathValue("id"), date)
	if err != nil {
		applog.Error(r.Context(), "failed to forecast demand", "business", r.PathValue("id"), "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	writeJSON(w, http.StatusOK, forecastResponse{
		BusinessID:  r.PathValue("id"),
		Date:        date.UTC().Format(time.DateOnly),
		Predictions: predictions,
	})
}

type recipeCost struct {
	ID                 string               `json:"id"`
	Name               string               `json:"name"`
	SellingPrice       decimal.NullDecimal  `json:"selling_price"`
	TotalCost          decimal.Decimal      `json:"total_cost"`
	GrossMarginPercent *decimal.Decimal     `json:"gross_margin_percent"`
	Ingredients        []recipeCostLineItem `json:"ingredients"`
}

type recipeCostLineItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  float64         `json:"quantity"`
	Unit      string          `json:"unit"`
	Cost      decimal.Decimal `json:"cost"`
}

// Recipes lists a business's recipes with ingredient costs and gross margin.
func (a *API) Recipes(w http.ResponseWriter, r *http.Request) {
	recipes, err := a.store.RecipesWithCost(r.Context(), r.PathValue("id"))
	if err != nil {
		applog.Error(r.Context(), "failed to load recipes", "business", r.PathValue("id"), "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	items := make([]recipeCost, 0, len(recipes))
	for _, recipe := range recipes {
		item := recipeCost{
			ID:           recipe.ID,
			Name:         recipe.Name,
			SellingPrice: recipe.SellingPrice,
			TotalCost:    recipe.TotalCost().Round(2),
			Ingredients:  make([]recipeCostLineItem, 0, len(recipe.Ingredients)),
		}
		if margin, ok := recipe.GrossMarginPercent(); ok {
			margin = margin.Round(1)
			item.GrossMarginPercent = &margin
		}
		for _, ingredient := range recipe.Ingredients {
			line := recipeCostLineItem{
				ProductID: ingredient.ProductID,
				Quantity:  ingredient.Quantity,
				Unit:      ingredient.Unit,
				Cost:      ingredient.Cost().Round(2),
			}
			if ingredient.Product != nil {
				line.Name = ingredient.Product.Name
			}
			item.Ingredients = append(item.Ingredients, line)
		}
		items = append(items, item)
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (a *API) instantParam(r *http.Request, name string) (time.Time, error) {
	value, err := parseInstant(r.URL.Query().Get(name))
	if err != nil {
		return time.Time{}, err
	}
	if value.IsZero() {
		return a.now().UTC(), nil
	}
	return value, nil
}
