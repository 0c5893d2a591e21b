package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"snaptrack/internal/analytics"
	"snaptrack/internal/consumption"
	"snaptrack/internal/forecast"
	applog "snaptrack/internal/log"
	"snaptrack/internal/store"
	"snaptrack/internal/weather"
)

// Dependencies are the services the HTTP API delegates to. Weather and
// Reports are optional.
type Dependencies struct {
	Store      *store.Store
	Processor  *consumption.Processor
	Aggregator *analytics.Aggregator
	Forecaster *forecast.Forecaster
	Weather    weather.Provider
	Reports    ReportLister
	Now        func() time.Time
}

// API serves the JSON endpoints.
type API struct {
	store      *store.Store
	processor  *consumption.Processor
	aggregator *analytics.Aggregator
	forecaster *forecast.Forecaster
	weather    weather.Provider
	reports    ReportLister
	now        func() time.Time
}

// New validates deps and returns an API.
func New(deps Dependencies) (*API, error) {
	if deps.Store == nil || deps.Processor == nil || deps.Aggregator == nil || deps.Forecaster == nil {
		return nil, errors.New("handlers: missing dependency")
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &API{
		store:      deps.Store,
		processor:  deps.Processor,
		aggregator: deps.Aggregator,
		forecaster: deps.Forecaster,
		weather:    deps.Weather,
		reports:    deps.Reports,
		now:        deps.Now,
	}, nil
}

// Register adds every route to mux.
func (a *API) Register(mux *http.ServeMux) {
	routes := []struct {
		pattern string
		handler http.HandlerFunc
	}{
		{"GET /healthz", a.Health},
		{"GET /api/units", a.Units},
		{"POST /api/sales", a.RecordSale},
		{"POST /api/products/{id}/adjust", a.AdjustStock},
		{"POST /api/products/{id}/waste", a.RecordWaste},
		{"GET /api/products/{id}/history", a.StockHistory},
		{"POST /api/locations/{id}/deliveries", a.IngestDelivery},
		{"GET /api/businesses/{id}/analytics", a.Analytics},
		{"GET /api/businesses/{id}/forecast", a.Forecast},
		{"GET /api/businesses/{id}/recipes", a.Recipes},
		{"GET /api/businesses/{id}/reports", a.Reports},
	}

	applog.Debug(context.Background(), "registering http routes")
	for _, route := range routes {
		mux.HandleFunc(route.pattern, route.handler)
		applog.Debug(context.Background(), "route registered", "pattern", route.pattern)
	}
}
