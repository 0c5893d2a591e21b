package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"snaptrack/internal/config"
	applog "snaptrack/internal/log"
	"snaptrack/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// Models lists every persisted model in migration order.
func Models() []any {
	return []any{
		&models.Business{},
		&models.Location{},
		&models.Product{},
		&models.Recipe{},
		&models.RecipeIngredient{},
		&models.DailySales{},
		&models.StockHistory{},
		&models.WasteEvent{},
	}
}

// GormConfig returns the gorm settings shared by every connection the
// application opens.
func GormConfig(queries logger.Interface) *gorm.Config {
	return &gorm.Config{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		Logger:                 queries,
		NamingStrategy: schema.NamingStrategy{
			SingularTable: false,
		},
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		DisableForeignKeyConstraintWhenMigrating: true,
	}
}

// QueryLogger routes gorm's query log through the application logger. Failed
// queries are errors, queries slower than SlowThreshold are warnings and, at
// logger.Info, every other query is logged at debug level.
type QueryLogger struct {
	Level         logger.LogLevel
	SlowThreshold time.Duration
}

// NewQueryLogger returns a QueryLogger at logger.Warn.
func NewQueryLogger(slow time.Duration) *QueryLogger {
	return &QueryLogger{Level: logger.Warn, SlowThreshold: slow}
}

func (l *QueryLogger) LogMode(level logger.LogLevel) logger.Interface {
	clone := *l
	clone.Level = level
	return &clone
}

func (l *QueryLogger) Info(ctx context.Context, msg string, args ...any) {
	if l.Level >= logger.Info {
		applog.Info(ctx, fmt.Sprintf(msg, args...))
	}
}

func (l *QueryLogger) Warn(ctx context.Context, msg string, args ...any) {
	if l.Level >= logger.Warn {
		applog.Warn(ctx, fmt.Sprintf(msg, args...))
	}
}

func (l *QueryLogger) Error(ctx context.Context, msg string, args ...any) {
	if l.Level >= logger.Error {
		applog.Error(ctx, fmt.Sprintf(msg, args...))
	}
}

func (l *QueryLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.Level <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	switch {
	case err != nil && l.Level >= logger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		sql, rows := fc()
		applog.Error(ctx, "sql query failed", "sql", sql, "rows", rows, "elapsed", elapsed.String(), "error", err)
	case l.SlowThreshold > 0 && elapsed > l.SlowThreshold && l.Level >= logger.Warn:
		sql, rows := fc()
		applog.Warn(ctx, "slow sql query", "sql", sql, "rows", rows, "elapsed", elapsed.String(), "threshold", l.SlowThreshold.String())
	case l.Level >= logger.Info:
		sql, rows := fc()
		applog.Debug(ctx, "sql query", "sql", sql, "rows", rows, "elapsed", elapsed.String())
	}
}

// Initialize opens the Postgres database described by cfg and applies the
// pool limits.
func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, fmt.Errorf("database URL must not be empty")
	}

	db, err := gorm.Open(postgres.Open(cfg.URL), GormConfig(NewQueryLogger(cfg.SlowQueryThreshold)))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}

	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if cfg.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	return db, nil
}

// Ping checks that the database answers within ctx.
func Ping(ctx context.Context, db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database handle is nil")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

func AutoMigrate(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database handle is nil")
	}

	return db.AutoMigrate(Models()...)
}

// Configure opens, pings and migrates the database.
func Configure(cfg config.DatabaseConfig) (*gorm.DB, error) {
	database, err := Initialize(cfg)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := Ping(ctx, database); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := AutoMigrate(database); err != nil {
		return nil, err
	}

	applog.Info(ctx, "database ready", "models", len(Models()))
	return database, nil
}

func MustConfigure(cfg config.DatabaseConfig) *gorm.DB {
	database, err := Configure(cfg)
	if err != nil {
		panic(err)
	}

	return database
}
