package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"snaptrack/internal/archive"
	applog "snaptrack/internal/log"
)

const (
	defaultReportLimit = 7
	maxReportLimit     = 90
)

// ReportLister reads archived nightly reports.
type ReportLister interface {
	Recent(ctx context.Context, businessID string, limit int) ([]archive.Report, error)
}

type reportsResponse struct {
	BusinessID string           `json:"business_id"`
	Reports    []archive.Report `json:"reports"`
}

// Reports lists the latest archived reports of a business, newest first. The
// optional limit query parameter defaults to a week of reports.
func (a *API) Reports(w http.ResponseWriter, r *http.Request) {
	if a.reports == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "Report archive is not configured")
		return
	}

	limit, err := limitParam(r.URL.Query().Get("limit"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	businessID := r.PathValue("id")
	reports, err := a.reports.Recent(r.Context(), businessID, limit)
	if err != nil {
		applog.Error(r.Context(), "failed to read archived reports", "business", businessID, "error", err)
		writeJSONError(w, http.StatusBadGateway, "Report archive unavailable")
		return
	}
	if reports == nil {
		reports = []archive.Report{}
	}
	writeJSON(w, http.StatusOK, reportsResponse{BusinessID: businessID, Reports: reports})
}

func limitParam(value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return defaultReportLimit, nil
	}
	limit, err := strconv.Atoi(value)
	if err != nil || limit < 1 || limit > maxReportLimit {
		return 0, fmt.Errorf("invalid limit %q: use a number between 1 and %d", value, maxReportLimit)
	}
	return limit, nil
}
