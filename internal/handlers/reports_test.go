package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"snaptrack/internal/archive"
)

type stubReports struct {
	reports    []archive.Report
	err        error
	businessID string
	limit      int
}

func (s *stubReports) Recent(_ context.Context, businessID string, limit int) ([]archive.Report, error) {
	s.businessID = businessID
	s.limit = limit
	if s.err != nil {
		return nil, s.err
	}
	return s.reports, nil
}

func TestReportsListsArchivedReports(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		query     string
		wantLimit int
	}{
		{name: "default limit", query: "", wantLimit: defaultReportLimit},
		{name: "explicit limit", query: "?limit=30", wantLimit: 30},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			lister := &stubReports{reports: []archive.Report{
				{BusinessID: "b1", BusinessName: "Bakery", GeneratedAt: fixedNow, WasteDay: "2"},
				{BusinessID: "b1", BusinessName: "Bakery", GeneratedAt: fixedNow.AddDate(0, 0, -1), WasteDay: "0"},
			}}
			f := newAPIFixtureWithReports(t, nil, lister)

			w := f.do(t, http.MethodGet, "/api/businesses/b1/reports"+tt.query, "")
			if w.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
			}
			if lister.businessID != "b1" || lister.limit != tt.wantLimit {
				t.Fatalf("expected Recent(b1, %d), got Recent(%s, %d)", tt.wantLimit, lister.businessID, lister.limit)
			}

			var resp reportsResponse
			decodeBody(t, w, &resp)
			if resp.BusinessID != "b1" || len(resp.Reports) != 2 {
				t.Fatalf("unexpected response %+v", resp)
			}
			if !resp.Reports[0].GeneratedAt.Equal(fixedNow) || resp.Reports[0].WasteDay != "2" {
				t.Fatalf("expected newest report first, got %+v", resp.Reports[0])
			}
		})
	}
}

func TestReportsEmptyArchiveReturnsEmptyList(t *testing.T) {
	t.Parallel()

	f := newAPIFixtureWithReports(t, nil, &stubReports{})
	w := f.do(t, http.MethodGet, "/api/businesses/b1/reports", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if body := w.Body.String(); body != "{\"business_id\":\"b1\",\"reports\":[]}\n" {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestReportsErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		lister   ReportLister
		query    string
		wantCode int
	}{
		{name: "archive not configured", lister: nil, wantCode: http.StatusServiceUnavailable},
		{name: "archive failure", lister: &stubReports{err: errors.New("server selection timeout")}, wantCode: http.StatusBadGateway},
		{name: "non numeric limit", lister: &stubReports{}, query: "?limit=all", wantCode: http.StatusBadRequest},
		{name: "zero limit", lister: &stubReports{}, query: "?limit=0", wantCode: http.StatusBadRequest},
		{name: "limit too large", lister: &stubReports{}, query: "?limit=500", wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newAPIFixtureWithReports(t, nil, tt.lister)
			w := f.do(t, http.MethodGet, "/api/businesses/b1/reports"+tt.query, "")
			if w.Code != tt.wantCode {
				t.Fatalf("expected status %d, got %d: %s", tt.wantCode, w.Code, w.Body.String())
			}
		})
	}
}
