package config

import (
	"testing"
	"time"
)

func TestFirstNonEmpty(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		values []string
		want   string
	}{
		{"all empty", []string{"", "   "}, ""},
		{"first non empty", []string{"foo", "bar"}, "foo"},
		{"skips whitespace", []string{"   ", "bar"}, "bar"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := firstNonEmpty(tt.values...); got != tt.want {
				t.Fatalf("firstNonEmpty(%v) = %q, want %q", tt.values, got, tt.want)
			}
		})
	}
}

func TestParseIntWithDefault(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value string
		def   int
		want  int
	}{
		{"blank returns default", "", 7, 7},
		{"invalid returns default", "abc", 3, 3},
		{"valid parses value", "42", 0, 42},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := parseIntWithDefault(tt.value, tt.def); got != tt.want {
				t.Fatalf("parseIntWithDefault(%q, %d) = %d, want %d", tt.value, tt.def, got, tt.want)
			}
		})
	}
}

func TestParseDurationWithDefault(t *testing.T) {
	t.Parallel()

	def := 5 * time.Second
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{"blank returns default", "", def},
		{"invalid returns default", "nonsense", def},
		{"valid parses", "2m", 2 * time.Minute},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := parseDurationWithDefault(tt.value, def); got != tt.want {
				t.Fatalf("parseDurationWithDefault(%q) = %s, want %s", tt.value, got, tt.want)
			}
		})
	}
}

func TestParseBoolWithDefault(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value string
		def   bool
		want  bool
	}{
		{"blank returns default", "", true, true},
		{"invalid returns default", "nope", false, false},
		{"valid parses", "true", false, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := parseBoolWithDefault(tt.value, tt.def); got != tt.want {
				t.Fatalf("parseBoolWithDefault(%q, %t) = %t, want %t", tt.value, tt.def, got, tt.want)
			}
		})
	}
}

func TestLoadUsesEnvironmentDefaults(t *testing.T) {
	t.Setenv("SERVER_ADDR", "")
	t.Setenv("ADDR", "")
	t.Setenv("SERVER_SHUTDOWN_TIMEOUT", "")
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("DATABASE_MAX_IDLE_CONNS", "10")
	t.Setenv("DATABASE_MAX_OPEN_CONNS", "100")
	t.Setenv("DATABASE_CONN_MAX_LIFETIME", "1h")
	t.Setenv("DATABASE_CONN_MAX_IDLE_TIME", "30m")
	t.Setenv("DATABASE_USE_MOCK", "true")
	t.Setenv("DATABASE_SLOW_QUERY_THRESHOLD", "")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CONSUMPTION_STRICT_UNITS", "true")
	t.Setenv("ANALYTICS_HIGH_WASTE_RATE", "")
	t.Setenv("ANALYTICS_EXPIRY_HORIZON", "12h")
	t.Setenv("FORECAST_WEEKS", "6")
	t.Setenv("FORECAST_UP_THRESHOLD", "")
	t.Setenv("FORECAST_DOWN_THRESHOLD", "")
	t.Setenv("REPORTS_SCHEDULE", "")
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Addr != ":8080" {
		t.Fatalf("Server.Addr = %q, want %q", cfg.Server.Addr, ":8080")
	}
	if cfg.Server.ShutdownTimeout != 10*time.Second {
		t.Fatalf("Server.ShutdownTimeout = %s", cfg.Server.ShutdownTimeout)
	}
	if cfg.Database.URL != "postgres://example" {
		t.Fatalf("Database.URL = %q", cfg.Database.URL)
	}
	if cfg.Database.MaxIdleConns != 10 {
		t.Fatalf("Database.MaxIdleConns = %d", cfg.Database.MaxIdleConns)
	}
	if cfg.Database.MaxOpenConns != 100 {
		t.Fatalf("Database.MaxOpenConns = %d", cfg.Database.MaxOpenConns)
	}
	if cfg.Database.ConnMaxLifetime != time.Hour {
		t.Fatalf("Database.ConnMaxLifetime = %s", cfg.Database.ConnMaxLifetime)
	}
	if cfg.Database.ConnMaxIdleTime != 30*time.Minute {
		t.Fatalf("Database.ConnMaxIdleTime = %s", cfg.Database.ConnMaxIdleTime)
	}
	if cfg.Database.SlowQueryThreshold != 200*time.Millisecond {
		t.Fatalf("Database.SlowQueryThreshold = %s", cfg.Database.SlowQueryThreshold)
	}
	if !cfg.Database.UseMock {
		t.Fatalf("Database.UseMock = %t, want true", cfg.Database.UseMock)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("Logging.Level = %q", cfg.Logging.Level)
	}
	if !cfg.Consumption.StrictUnits {
		t.Fatalf("Consumption.StrictUnits = %t, want true", cfg.Consumption.StrictUnits)
	}
	if cfg.Analytics.HighWasteRate != 10 {
		t.Fatalf("Analytics.HighWasteRate = %v, want 10", cfg.Analytics.HighWasteRate)
	}
	if cfg.Analytics.ExpiryHorizon != 12*time.Hour {
		t.Fatalf("Analytics.ExpiryHorizon = %s", cfg.Analytics.ExpiryHorizon)
	}
	if cfg.Forecast.Weeks != 6 {
		t.Fatalf("Forecast.Weeks = %d, want 6", cfg.Forecast.Weeks)
	}
	if cfg.Forecast.UpThreshold != 1.1 || cfg.Forecast.DownThreshold != 0.9 {
		t.Fatalf("Forecast thresholds = %v/%v, want 1.1/0.9", cfg.Forecast.UpThreshold, cfg.Forecast.DownThreshold)
	}
	if cfg.Reports.Schedule != "0 23 * * *" {
		t.Fatalf("Reports.Schedule = %q", cfg.Reports.Schedule)
	}
	if cfg.Archive.MongoURI != "mongodb://localhost:27017" || cfg.Archive.Collection != "daily_reports" {
		t.Fatalf("Archive = %+v", cfg.Archive)
	}
}

func TestLoadPrefersServerAddr(t *testing.T) {
	t.Setenv("SERVER_ADDR", "127.0.0.1:9000")
	t.Setenv("DATABASE_URL", "postgres://example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Addr != "127.0.0.1:9000" {
		t.Fatalf("Server.Addr = %q, want %q", cfg.Server.Addr, "127.0.0.1:9000")
	}
}

func TestLoadRejectsInvertedTrendThresholds(t *testing.T) {
	t.Setenv("FORECAST_UP_THRESHOLD", "0.9")
	t.Setenv("FORECAST_DOWN_THRESHOLD", "1.1")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when down threshold exceeds up threshold")
	}
}

func TestParseFloatWithDefault(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value string
		want  float64
	}{
		{"blank returns default", "", 2.5},
		{"invalid returns default", "ten", 2.5},
		{"valid parses", " 12.75 ", 12.75},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := parseFloatWithDefault(tt.value, 2.5); got != tt.want {
				t.Fatalf("parseFloatWithDefault(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}
