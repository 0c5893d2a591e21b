package archive

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"snaptrack/internal/config"
	applog "snaptrack/internal/log"
)

// Archiver stores reports.
type Archiver interface {
	Archive(ctx context.Context, report Report) error
}

// Mongo stores reports in a MongoDB collection.
type Mongo struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// Connect opens and pings a MongoDB connection.
func Connect(ctx context.Context, cfg config.ArchiveConfig) (*Mongo, error) {
	if strings.TrimSpace(cfg.MongoURI) == "" {
		return nil, errors.New("archive: mongodb uri must not be empty")
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &Mongo{
		client:     client,
		collection: client.Database(cfg.MongoDB).Collection(cfg.Collection),
	}, nil
}

// Archive inserts one report.
func (m *Mongo) Archive(ctx context.Context, report Report) error {
	if _, err := m.collection.InsertOne(ctx, report); err != nil {
		return fmt.Errorf("failed to insert report for business %s: %w", report.BusinessID, err)
	}
	return nil
}

// Recent returns the latest reports of a business, newest first.
func (m *Mongo) Recent(ctx context.Context, businessID string, limit int) ([]Report, error) {
	if limit <= 0 {
		limit = 7
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "generated_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := m.collection.Find(ctx, bson.M{"business_id": businessID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer cursor.Close(ctx)

	reports := make([]Report, 0, limit)
	if err := cursor.All(ctx, &reports); err != nil {
		return nil, fmt.Errorf("failed to decode reports: %w", err)
	}
	return reports, nil
}

// Close disconnects from MongoDB.
func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// LogArchiver writes a summary of each report to the application log. It is
// used when no MongoDB is configured.
type LogArchiver struct{}

func (LogArchiver) Archive(ctx context.Context, report Report) error {
	applog.Info(ctx, "daily report",
		"business", report.BusinessID,
		"waste_day", report.WasteDay,
		"waste_week", report.WasteWeek,
		"revenue", report.Revenue,
		"margin", report.Margin,
		"alerts", len(report.Alerts),
		"forecast", len(report.Forecast),
	)
	return nil
}
