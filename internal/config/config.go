package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config captures the runtime configuration for the application.
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Logging     LoggingConfig
	Consumption ConsumptionConfig
	Analytics   AnalyticsConfig
	Forecast    ForecastConfig
	Weather     WeatherConfig
	Reports     ReportsConfig
	Archive     ArchiveConfig
}

// ServerConfig configures the HTTP server runtime behavior.
type ServerConfig struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// DatabaseConfig contains the database connection settings.
type DatabaseConfig struct {
	URL             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	// SlowQueryThreshold is the duration above which a query is logged as
	// slow. Zero disables slow query logging.
	SlowQueryThreshold time.Duration
	UseMock            bool
}

// LoggingConfig controls the global logger.
type LoggingConfig struct {
	Level string
}

// ConsumptionConfig controls how sales are turned into stock movements.
type ConsumptionConfig struct {
	// StrictUnits aborts a sale when an ingredient unit cannot be converted
	// into the product unit instead of skipping that ingredient.
	StrictUnits bool
}

// AnalyticsConfig holds the thresholds used by the metrics aggregator.
type AnalyticsConfig struct {
	HighWasteRate  float64
	SmartWasteRate float64
	ExpiryHorizon  time.Duration
	TopWasteLimit  int
}

// ForecastConfig holds the demand forecasting policy.
type ForecastConfig struct {
	Weeks          int
	MinTrendPoints int
	UpThreshold    float64
	DownThreshold  float64
}

// WeatherConfig configures the Open-Meteo client.
type WeatherConfig struct {
	BaseURL string
	Timeout time.Duration
	Enabled bool
}

// ReportsConfig configures the nightly report job.
type ReportsConfig struct {
	Schedule string
	Enabled  bool
}

// ArchiveConfig points at the MongoDB collection storing nightly reports.
// An empty MongoURI disables archiving.
type ArchiveConfig struct {
	MongoURI   string
	MongoDB    string
	Collection string
}

// Load inspects the environment, after loading a .env file when one exists,
// and builds a Config value.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{}

	cfg.Server = ServerConfig{
		Addr: firstNonEmpty(
			os.Getenv("SERVER_ADDR"),
			os.Getenv("ADDR"),
			":8080",
		),
		ShutdownTimeout: parseDurationWithDefault(os.Getenv("SERVER_SHUTDOWN_TIMEOUT"), 10*time.Second),
	}

	cfg.Database = DatabaseConfig{
		URL: firstNonEmpty(
			os.Getenv("DATABASE_URL"),
			os.Getenv("DB_URL"),
			"",
		),
		MaxIdleConns:       parseIntWithDefault(os.Getenv("DATABASE_MAX_IDLE_CONNS"), 5),
		MaxOpenConns:       parseIntWithDefault(os.Getenv("DATABASE_MAX_OPEN_CONNS"), 20),
		ConnMaxLifetime:    parseDurationWithDefault(os.Getenv("DATABASE_CONN_MAX_LIFETIME"), time.Hour),
		ConnMaxIdleTime:    parseDurationWithDefault(os.Getenv("DATABASE_CONN_MAX_IDLE_TIME"), 15*time.Minute),
		SlowQueryThreshold: parseDurationWithDefault(os.Getenv("DATABASE_SLOW_QUERY_THRESHOLD"), 200*time.Millisecond),
		UseMock:            parseBoolWithDefault(os.Getenv("DATABASE_USE_MOCK"), false),
	}

	cfg.Logging = LoggingConfig{
		Level: firstNonEmpty(os.Getenv("LOG_LEVEL"), "info"),
	}

	cfg.Consumption = ConsumptionConfig{
		StrictUnits: parseBoolWithDefault(os.Getenv("CONSUMPTION_STRICT_UNITS"), false),
	}

	cfg.Analytics = AnalyticsConfig{
		HighWasteRate:  parseFloatWithDefault(os.Getenv("ANALYTICS_HIGH_WASTE_RATE"), 10),
		SmartWasteRate: parseFloatWithDefault(os.Getenv("ANALYTICS_SMART_WASTE_RATE"), 15),
		ExpiryHorizon:  parseDurationWithDefault(os.Getenv("ANALYTICS_EXPIRY_HORIZON"), 24*time.Hour),
		TopWasteLimit:  parseIntWithDefault(os.Getenv("ANALYTICS_TOP_WASTE_LIMIT"), 5),
	}

	cfg.Forecast = ForecastConfig{
		Weeks:          parseIntWithDefault(os.Getenv("FORECAST_WEEKS"), 8),
		MinTrendPoints: parseIntWithDefault(os.Getenv("FORECAST_MIN_TREND_POINTS"), 4),
		UpThreshold:    parseFloatWithDefault(os.Getenv("FORECAST_UP_THRESHOLD"), 1.1),
		DownThreshold:  parseFloatWithDefault(os.Getenv("FORECAST_DOWN_THRESHOLD"), 0.9),
	}

	cfg.Weather = WeatherConfig{
		BaseURL: firstNonEmpty(os.Getenv("WEATHER_BASE_URL"), "https://api.open-meteo.com"),
		Timeout: parseDurationWithDefault(os.Getenv("WEATHER_TIMEOUT"), 5*time.Second),
		Enabled: parseBoolWithDefault(os.Getenv("WEATHER_ENABLED"), true),
	}

	cfg.Reports = ReportsConfig{
		Schedule: firstNonEmpty(os.Getenv("REPORTS_SCHEDULE"), "0 23 * * *"),
		Enabled:  parseBoolWithDefault(os.Getenv("REPORTS_ENABLED"), true),
	}

	cfg.Archive = ArchiveConfig{
		MongoURI:   firstNonEmpty(os.Getenv("MONGODB_URI"), os.Getenv("MONGO_URI"), ""),
		MongoDB:    firstNonEmpty(os.Getenv("MONGODB_DB"), "snaptrack"),
		Collection: firstNonEmpty(os.Getenv("MONGODB_REPORTS_COLLECTION"), "daily_reports"),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) validate() error {
	if strings.TrimSpace(c.Server.Addr) == "" {
		return fmt.Errorf("server address must not be empty")
	}
	if c.Analytics.HighWasteRate <= 0 || c.Analytics.SmartWasteRate <= 0 {
		return fmt.Errorf("waste rate thresholds must be positive")
	}
	if c.Analytics.ExpiryHorizon <= 0 {
		return fmt.Errorf("expiry horizon must be positive")
	}
	if c.Analytics.TopWasteLimit <= 0 {
		return fmt.Errorf("top waste limit must be positive")
	}
	if c.Forecast.Weeks <= 0 || c.Forecast.MinTrendPoints <= 0 {
		return fmt.Errorf("forecast weeks and trend points must be positive")
	}
	if c.Forecast.DownThreshold <= 0 || c.Forecast.DownThreshold >= c.Forecast.UpThreshold {
		return fmt.Errorf("forecast thresholds must satisfy 0 < down (%v) < up (%v)", c.Forecast.DownThreshold, c.Forecast.UpThreshold)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

func parseIntWithDefault(value string, def int) int {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return def
	}
	return parsed
}

func parseFloatWithDefault(value string, def float64) float64 {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return def
	}
	return parsed
}

func parseDurationWithDefault(value string, def time.Duration) time.Duration {
	parsed, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return def
	}
	return parsed
}

func parseBoolWithDefault(value string, def bool) bool {
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return def
	}
	return parsed
}
