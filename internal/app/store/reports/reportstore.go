// Package reportstore persists content reports. The unique index on
// (reporter_id, content.id) enforces one report per reporter per content
// item; the review decision is a conditional update from the undecided
// statuses.
package reportstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/helplink/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("reports")}
}

var (
	// ErrDuplicateReport is returned when the reporter has already flagged
	// this content.
	ErrDuplicateReport = errors.New("content already reported by this user")
	// ErrAlreadyDecided is returned when reviewing a report that has left
	// the Pending/Reviewing states.
	ErrAlreadyDecided = errors.New("report has already been reviewed")
)

// Create inserts a new Pending report.
func (s *Store) Create(ctx context.Context, r models.Report) (models.Report, error) {
	now := time.Now().UTC()
	r.ID = primitive.NewObjectID()
	r.Status = models.ReportPending
	r.CreatedAt = now
	r.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, r); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Report{}, ErrDuplicateReport
		}
		return models.Report{}, err
	}
	return r, nil
}

// GetByID loads a report.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Report, error) {
	var r models.Report
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		return nil, err
	}
	return &r, nil
}

// List returns reports newest first, optionally filtered by status, with
// the total match count.
func (s *Store) List(ctx context.Context, status string, limit, skip int64) ([]models.Report, int64, error) {
	query := bson.M{}
	if status != "" {
		query["status"] = status
	}

	cur, err := s.c.Find(ctx, query, options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit).
		SetSkip(skip))
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var rows []models.Report
	if err := cur.All(ctx, &rows); err != nil {
		return nil, 0, err
	}

	total, err := s.c.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// Decide moves an undecided report to Verified or Rejected and records the
// reviewer. Repeat calls fail with ErrAlreadyDecided; the verification karma
// award stays idempotent through the ledger regardless.
func (s *Store) Decide(ctx context.Context, id, reviewerID primitive.ObjectID, verified bool) (*models.Report, error) {
	status := models.ReportRejected
	if verified {
		status = models.ReportVerified
	}
	now := time.Now().UTC()

	var r models.Report
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": bson.M{"$in": bson.A{models.ReportPending, models.ReportReviewing}}},
		bson.M{"$set": bson.M{
			"status":      status,
			"reviewed_by": reviewerID,
			"reviewed_at": now,
			"updated_at":  now,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&r)
	if err == nil {
		return &r, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Err(); err != nil {
		return nil, err
	}
	return nil, ErrAlreadyDecided
}
