package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"civicfix-backend/models"
)

// ErrNotFound is returned for lookups, updates and deletes against an
// unknown report id.
var ErrNotFound = errors.New("report not found")

// recentWindow caps how many of a user's latest reports the rate-limit
// check fetches. A user can only accumulate a handful per day, so scanning
// the most recent 20 is enough to count today's.
const recentWindow = 20

// InsertReport stores a new report and returns its generated id.
func (d *Database) InsertReport(ctx context.Context, report *models.Report) (string, error) {
	res, err := d.reports.InsertOne(ctx, report)
	if err != nil {
		return "", fmt.Errorf("failed to insert report: %w", err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	return oid.Hex(), nil
}

// RecentUserTimestamps returns submission timestamps of the user's most
// recent reports, newest first.
func (d *Database) RecentUserTimestamps(ctx context.Context, userID string) ([]time.Time, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(recentWindow).
		SetProjection(bson.M{"timestamp": 1})

	cursor, err := d.reports.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query user reports: %w", err)
	}

	var docs []struct {
		Timestamp time.Time `bson:"timestamp"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to read user reports: %w", err)
	}

	timestamps := make([]time.Time, 0, len(docs))
	for _, doc := range docs {
		timestamps = append(timestamps, doc.Timestamp)
	}
	return timestamps, nil
}

// ListReports returns reports newest first, optionally filtered by status
// and issue type.
func (d *Database) ListReports(ctx context.Context, status, issueType string, limit int64) ([]models.Report, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	if issueType != "" {
		filter["type"] = issueType
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit)

	cursor, err := d.reports.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}

	reports := []models.Report{}
	if err := cursor.All(ctx, &reports); err != nil {
		return nil, fmt.Errorf("failed to read reports: %w", err)
	}
	return reports, nil
}

// GetReport fetches a single report by id.
func (d *Database) GetReport(ctx context.Context, id string) (*models.Report, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var report models.Report
	err = d.reports.FindOne(ctx, bson.M{"_id": oid}).Decode(&report)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch report: %w", err)
	}
	return &report, nil
}

// UpdateReportStatus sets a report's workflow status. Status validity is the
// caller's job; transitions are deliberately unconstrained.
func (d *Database) UpdateReportStatus(ctx context.Context, id, status string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	res, err := d.reports.UpdateByID(ctx, oid, bson.M{
		"$set": bson.M{
			"status":     status,
			"updated_at": time.Now().UTC(),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to update report: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteReport removes a report by id.
func (d *Database) DeleteReport(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	res, err := d.reports.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// AllReports streams every report for the stats aggregation.
func (d *Database) AllReports(ctx context.Context) ([]models.Report, error) {
	cursor, err := d.reports.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}

	reports := []models.Report{}
	if err := cursor.All(ctx, &reports); err != nil {
		return nil, fmt.Errorf("failed to read reports: %w", err)
	}
	return reports, nil
}

// InsertReports bulk-inserts seed reports and returns how many were written.
func (d *Database) InsertReports(ctx context.Context, reports []models.Report) (int, error) {
	if len(reports) == 0 {
		return 0, nil
	}

	docs := make([]interface{}, 0, len(reports))
	for i := range reports {
		docs = append(docs, reports[i])
	}

	res, err := d.reports.InsertMany(ctx, docs)
	if err != nil {
		inserted := 0
		if res != nil {
			inserted = len(res.InsertedIDs)
		}
		return inserted, fmt.Errorf("failed to insert seed reports: %w", err)
	}
	return len(res.InsertedIDs), nil
}
