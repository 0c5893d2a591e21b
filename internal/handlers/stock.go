package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"snaptrack/internal/consumption"
	applog "snaptrack/internal/log"
)

type adjustRequest struct {
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
	Type     string  `json:"type"`
	Reason   string  `json:"reason"`
}

// AdjustStock applies a manual ADD or REMOVE to a product.
func (a *API) AdjustStock(w http.ResponseWriter, r *http.Request) {
	var req adjustRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	product, err := a.processor.AdjustStock(r.Context(), r.PathValue("id"), consumption.Adjustment{
		Quantity: req.Quantity,
		Unit:     req.Unit,
		Type:     consumption.AdjustmentType(strings.ToUpper(strings.TrimSpace(req.Type))),
		Reason:   req.Reason,
	})
	if err != nil {
		writeServiceError(w, r, err, "adjust stock")
		return
	}
	writeJSON(w, http.StatusOK, product)
}

type wasteRequest struct {
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
	Date     string  `json:"date"`
	Note     string  `json:"note"`
}

// RecordWaste records lost stock for a product.
func (a *API) RecordWaste(w http.ResponseWriter, r *http.Request) {
	var req wasteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	date, err := parseInstant(req.Date)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	event, err := a.processor.RecordWaste(r.Context(), r.PathValue("id"), consumption.WasteInput{
		Quantity: req.Quantity,
		Unit:     req.Unit,
		Date:     date,
		Note:     req.Note,
	})
	if err != nil {
		writeServiceError(w, r, err, "record waste")
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

// StockHistory lists the audit trail of a product, newest first.
func (a *API) StockHistory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := a.store.Product(r.Context(), id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeJSONError(w, http.StatusNotFound, "Product not found")
			return
		}
		applog.Error(r.Context(), "failed to load product", "product", id, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	entries, err := a.store.History(r.Context(), id)
	if err != nil {
		applog.Error(r.Context(), "failed to load stock history", "product", id, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": entries})
}

type deliveryRequest struct {
	Items []struct {
		Name        string              `json:"name"`
		Quantity    float64             `json:"quantity"`
		Unit        string              `json:"unit"`
		ExpiryDate  string              `json:"expiry_date"`
		CostPerUnit decimal.NullDecimal `json:"cost_per_unit"`
		ImageURL    string              `json:"image_url"`
	} `json:"items"`
}

// IngestDelivery creates products for a delivery at a location.
func (a *API) IngestDelivery(w http.ResponseWriter, r *http.Request) {
	var req deliveryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Items) == 0 {
		writeJSONError(w, http.StatusBadRequest, "items must not be empty")
		return
	}

	items := make([]consumption.DeliveryItem, 0, len(req.Items))
	for _, item := range req.Items {
		expiry, err := parseInstant(item.ExpiryDate)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		items = append(items, consumption.DeliveryItem{
			Name:        item.Name,
			Quantity:    item.Quantity,
			Unit:        item.Unit,
			ExpiryDate:  expiry,
			CostPerUnit: item.CostPerUnit,
			ImageURL:    item.ImageURL,
		})
	}

	products, err := a.processor.IngestDelivery(r.Context(), r.PathValue("id"), items)
	if err != nil {
		writeServiceError(w, r, err, "ingest delivery")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"count": len(products), "items": products})
}
