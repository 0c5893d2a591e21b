package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"snaptrack/internal/consumption"
	applog "snaptrack/internal/log"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		applog.Error(context.Background(), "failed to encode json response", "error", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body must not be empty")
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// writeServiceError maps consumption errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, action string) {
	var mismatch *consumption.MismatchError
	switch {
	case errors.Is(err, consumption.ErrRecipeNotFound):
		writeJSONError(w, http.StatusNotFound, "Recipe not found")
	case errors.Is(err, consumption.ErrProductNotFound):
		writeJSONError(w, http.StatusNotFound, "Product not found")
	case errors.Is(err, consumption.ErrLocationNotFound):
		writeJSONError(w, http.StatusNotFound, "Location not found")
	case errors.As(err, &mismatch):
		writeJSONError(w, http.StatusUnprocessableEntity, fmt.Sprintf("Unit mismatch. Product is in %s, amount is in %s", mismatch.ProductUnit, mismatch.Unit))
	case errors.Is(err, consumption.ErrInvalidQuantity), errors.Is(err, consumption.ErrInvalidAdjustment), errors.Is(err, consumption.ErrInvalidDelivery):
		writeJSONError(w, http.StatusBadRequest, err.Error())
	default:
		applog.Error(r.Context(), "request failed", "action", action, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Internal Server Error")
	}
}

// parseInstant accepts RFC 3339 timestamps or plain dates, which are read as
// midnight UTC. Blank input yields the zero time.
func parseInstant(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD or RFC 3339", value)
	}
	return t, nil
}
