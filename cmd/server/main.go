package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gorm.io/gorm"

	"snaptrack/internal/analytics"
	"snaptrack/internal/archive"
	"snaptrack/internal/config"
	"snaptrack/internal/consumption"
	"snaptrack/internal/db"
	"snaptrack/internal/db/mock"
	"snaptrack/internal/forecast"
	"snaptrack/internal/handlers"
	applog "snaptrack/internal/log"
	"snaptrack/internal/scheduler"
	"snaptrack/internal/server"
	"snaptrack/internal/store"
	"snaptrack/internal/weather"
)

type serverLifecycle interface {
	Start() error
	Stop() error
}

type reportArchive interface {
	archive.Archiver
	handlers.ReportLister
	Close(ctx context.Context) error
}

var (
	loadConfigFunc       = config.Load
	setLogLevelFunc      = applog.SetLevel
	newMockDatabaseFunc  = mock.New
	configureDatabase    = db.Configure
	connectArchiveFunc   = func(ctx context.Context, cfg config.ArchiveConfig) (reportArchive, error) { return archive.Connect(ctx, cfg) }
	newServerFunc        = func(cfg server.Config) (serverLifecycle, error) { return server.New(cfg) }
	subscribeShutdownSig = func() (<-chan os.Signal, func()) {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGTERM, syscall.SIGINT)
		return ch, func() { signal.Stop(ch) }
	}
)

func main() {
	os.Exit(run(context.Background()))
}

func run(ctx context.Context) int {
	cfg, err := loadConfigFunc()
	if err != nil {
		applog.Error(ctx, "failed to load configuration", "error", err)
		return 1
	}
	if err := setLogLevelFunc(cfg.Logging.Level); err != nil {
		applog.Error(ctx, "invalid log level", "level", cfg.Logging.Level, "error", err)
		return 1
	}
	defer func() { _ = applog.Sync() }()

	database, err := openDatabase(ctx, cfg.Database)
	if err != nil {
		applog.Error(ctx, "failed to configure database", "error", err)
		return 1
	}

	s, err := store.New(database)
	if err != nil {
		applog.Error(ctx, "failed to create store", "error", err)
		return 1
	}

	processor, err := consumption.New(s, consumption.Options{StrictUnits: cfg.Consumption.StrictUnits})
	if err != nil {
		applog.Error(ctx, "failed to create consumption processor", "error", err)
		return 1
	}
	aggregator, err := analytics.New(s, analyticsPolicy(cfg.Analytics))
	if err != nil {
		applog.Error(ctx, "failed to create metrics aggregator", "error", err)
		return 1
	}
	forecaster, err := forecast.New(s, forecastPolicy(cfg.Forecast))
	if err != nil {
		applog.Error(ctx, "failed to create forecaster", "error", err)
		return 1
	}

	deps := handlers.Dependencies{
		Store:      s,
		Processor:  processor,
		Aggregator: aggregator,
		Forecaster: forecaster,
	}
	if cfg.Weather.Enabled {
		deps.Weather = weather.NewClient(cfg.Weather)
	}

	reports := openArchive(ctx, cfg.Archive)
	if reports != nil {
		deps.Reports = reports
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := reports.Close(closeCtx); err != nil {
				applog.Error(closeCtx, "failed to close report archive", "error", err)
			}
		}()
	}
	api, err := handlers.New(deps)
	if err != nil {
		applog.Error(ctx, "failed to create api", "error", err)
		return 1
	}

	if cfg.Reports.Enabled {
		stopReports, err := startReports(cfg, s, aggregator, forecaster, reports)
		if err != nil {
			applog.Error(ctx, "failed to start report scheduler", "error", err)
			return 1
		}
		defer stopReports()
	}

	srv, err := newServerFunc(server.Config{Addr: cfg.Server.Addr, API: api, ShutdownTimeout: cfg.Server.ShutdownTimeout})
	if err != nil {
		applog.Error(ctx, "failed to create server", "error", err)
		return 1
	}

	shutdown, unsubscribe := subscribeShutdownSig()
	defer unsubscribe()

	errCh := make(chan error, 1)
	go func() {
		applog.Info(ctx, "starting http server", "addr", cfg.Server.Addr)
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			applog.Error(ctx, "server encountered an error", "error", err)
			return 1
		}
		return 0
	case sig := <-shutdown:
		applog.Info(ctx, "shutting down http server", "signal", sig.String())
	case <-ctx.Done():
		applog.Info(ctx, "context cancelled, shutting down http server")
	}

	if err := srv.Stop(); err != nil {
		applog.Error(ctx, "graceful shutdown failed", "error", err)
		return 1
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		applog.Error(ctx, "server encountered an error", "error", err)
		return 1
	}
	return 0
}

func openDatabase(ctx context.Context, cfg config.DatabaseConfig) (*gorm.DB, error) {
	if cfg.UseMock {
		applog.Info(ctx, "using in-memory mock database")
		return newMockDatabaseFunc(ctx)
	}
	return configureDatabase(cfg)
}

// analyticsPolicy overlays the configured thresholds on the defaults. Zero
// values keep the default.
func analyticsPolicy(cfg config.AnalyticsConfig) analytics.Policy {
	policy := analytics.DefaultPolicy()
	if cfg.HighWasteRate > 0 {
		policy.HighWasteRate = cfg.HighWasteRate
	}
	if cfg.SmartWasteRate > 0 {
		policy.SmartWasteRate = cfg.SmartWasteRate
	}
	if cfg.ExpiryHorizon > 0 {
		policy.ExpiryHorizon = cfg.ExpiryHorizon
	}
	if cfg.TopWasteLimit > 0 {
		policy.TopWasteLimit = cfg.TopWasteLimit
	}
	return policy
}

func forecastPolicy(cfg config.ForecastConfig) forecast.Policy {
	policy := forecast.DefaultPolicy()
	if cfg.Weeks > 0 {
		policy.Weeks = cfg.Weeks
	}
	if cfg.MinTrendPoints > 0 {
		policy.MinTrendPoints = cfg.MinTrendPoints
	}
	if cfg.UpThreshold > 0 {
		policy.UpThreshold = cfg.UpThreshold
	}
	if cfg.DownThreshold > 0 {
		policy.DownThreshold = cfg.DownThreshold
	}
	return policy
}

// openArchive connects to MongoDB when it is configured. It returns nil when
// no archive is configured or it cannot be reached.
func openArchive(ctx context.Context, cfg config.ArchiveConfig) reportArchive {
	if cfg.MongoURI == "" {
		return nil
	}
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	reports, err := connectArchiveFunc(connectCtx, cfg)
	if err != nil {
		applog.Warn(ctx, "report archive unavailable, logging reports instead", "error", err)
		return nil
	}
	return reports
}

// startReports wires the nightly report job. Reports go to the archive when
// there is one, otherwise to the log.
func startReports(cfg config.Config, s *store.Store, aggregator *analytics.Aggregator, forecaster *forecast.Forecaster, reports reportArchive) (func(), error) {
	var archiver archive.Archiver = archive.LogArchiver{}
	if reports != nil {
		archiver = reports
	}

	jobs, err := scheduler.New(cfg.Reports.Schedule, scheduler.Dependencies{
		Businesses: s,
		Metrics:    aggregator,
		Forecaster: forecaster,
		Archiver:   archiver,
	})
	if err != nil {
		return nil, err
	}
	if err := jobs.Start(); err != nil {
		return nil, err
	}

	return func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		jobs.Stop(stopCtx)
	}, nil
}
