// Package scheduler runs the nightly analytics report.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"snaptrack/internal/analytics"
	"snaptrack/internal/archive"
	"snaptrack/internal/forecast"
	applog "snaptrack/internal/log"
	"snaptrack/models"
)

// DefaultSchedule runs the report every day at 23:00 UTC.
const DefaultSchedule = "0 23 * * *"

// BusinessLister lists the businesses to report on.
type BusinessLister interface {
	Businesses(ctx context.Context) ([]models.Business, error)
}

// MetricsComputer produces analytics snapshots.
type MetricsComputer interface {
	ComputeMetrics(ctx context.Context, businessID string, asOf time.Time) (analytics.Snapshot, error)
}

// DemandForecaster produces demand predictions.
type DemandForecaster interface {
	Forecast(ctx context.Context, businessID string, asOf time.Time) ([]forecast.Prediction, error)
}

// Dependencies are the collaborators a Scheduler needs.
type Dependencies struct {
	Businesses BusinessLister
	Metrics    MetricsComputer
	Forecaster DemandForecaster
	Archiver   archive.Archiver
	Now        func() time.Time
}

// Scheduler manages the report job.
type Scheduler struct {
	cron     *cron.Cron
	schedule string
	timeout  time.Duration
	deps     Dependencies
}

// New creates a scheduler. The schedule is a standard five field cron
// expression evaluated in UTC; blank means DefaultSchedule.
func New(schedule string, deps Dependencies) (*Scheduler, error) {
	if deps.Businesses == nil || deps.Metrics == nil || deps.Forecaster == nil || deps.Archiver == nil {
		return nil, errors.New("scheduler: missing dependency")
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if strings.TrimSpace(schedule) == "" {
		schedule = DefaultSchedule
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("scheduler: invalid schedule %q: %w", schedule, err)
	}

	return &Scheduler{
		cron:     cron.New(cron.WithLocation(time.UTC)),
		schedule: schedule,
		timeout:  2 * time.Minute,
		deps:     deps,
	}, nil
}

// Start registers the report job and starts the cron runner.
func (s *Scheduler) Start() error {
	applog.Info(context.Background(), "starting scheduler", "schedule", s.schedule)

	if _, err := s.cron.AddFunc(s.schedule, s.runScheduled); err != nil {
		return fmt.Errorf("scheduler: schedule report: %w", err)
	}

	s.cron.Start()
	return nil
}

// Stop stops the cron runner and waits for a running job to finish or ctx to
// expire.
func (s *Scheduler) Stop(ctx context.Context) {
	applog.Info(ctx, "stopping scheduler")
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

func (s *Scheduler) runScheduled() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.RunOnce(ctx); err != nil {
		applog.Error(ctx, "daily report failed", "error", err)
	}
}

// RunOnce builds and archives a report for every business: the metrics as of
// now and the forecast for the next day. A failure for one business does not
// stop the others; all failures are returned together.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	now := s.deps.Now().UTC()
	tomorrow := now.AddDate(0, 0, 1)

	businesses, err := s.deps.Businesses.Businesses(ctx)
	if err != nil {
		return fmt.Errorf("scheduler: list businesses: %w", err)
	}

	var errs []error
	for _, business := range businesses {
		businessCtx := applog.With(ctx, "business", business.ID)
		if err := s.report(businessCtx, business, now, tomorrow); err != nil {
			applog.Error(businessCtx, "business report failed", "error", err)
			errs = append(errs, err)
		}
	}

	applog.Info(ctx, "daily reports generated", "businesses", len(businesses), "failed", len(errs))
	return errors.Join(errs...)
}

func (s *Scheduler) report(ctx context.Context, business models.Business, now, tomorrow time.Time) error {
	snapshot, err := s.deps.Metrics.ComputeMetrics(ctx, business.ID, now)
	if err != nil {
		return fmt.Errorf("metrics for %s: %w", business.ID, err)
	}
	predictions, err := s.deps.Forecaster.Forecast(ctx, business.ID, tomorrow)
	if err != nil {
		return fmt.Errorf("forecast for %s: %w", business.ID, err)
	}
	if err := s.deps.Archiver.Archive(ctx, archive.NewReport(business, snapshot, tomorrow, predictions)); err != nil {
		return fmt.Errorf("archive report for %s: %w", business.ID, err)
	}
	return nil
}
