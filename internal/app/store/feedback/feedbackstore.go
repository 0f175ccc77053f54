// Package feedbackstore persists help request ratings. The unique index on
// (help_request_id, from_user_id) enforces one rating per rater per request.
package feedbackstore

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
	return &Store{c: db.Collection("feedback")}
}

// ErrDuplicateFeedback is returned when the rater has already rated this
// help request.
var ErrDuplicateFeedback = errors.New("feedback already submitted for this help request")

// Create inserts a feedback record. The duplicate check rides on the unique
// index rather than a prior read.
func (s *Store) Create(ctx context.Context, f models.Feedback) (models.Feedback, error) {
	f.ID = primitive.NewObjectID()
	f.CreatedAt = time.Now().UTC()
	if _, err := s.c.InsertOne(ctx, f); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Feedback{}, ErrDuplicateFeedback
		}
		return models.Feedback{}, err
	}
	return f, nil
}

// ListForUser returns feedback received by a user, newest first.
func (s *Store) ListForUser(ctx context.Context, toUserID primitive.ObjectID) ([]models.Feedback, error) {
	cur, err := s.c.Find(ctx,
		bson.M{"to_user_id": toUserID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []models.Feedback
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// AverageRating computes the mean rating received by a user, and the number
// of ratings it is based on.
func (s *Store) AverageRating(ctx context.Context, toUserID primitive.ObjectID) (float64, int, error) {
	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"to_user_id": toUserID}}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"avg":   bson.M{"$avg": "$rating"},
			"count": bson.M{"$sum": 1},
		}}},
	})
	if err != nil {
		return 0, 0, err
	}
	defer cur.Close(ctx)

	var out []struct {
		Avg   float64 `bson:"avg"`
		Count int     `bson:"count"`
	}
	if err := cur.All(ctx, &out); err != nil {
		return 0, 0, err
	}
	if len(out) == 0 {
		return 0, 0, nil
	}
	return out[0].Avg, out[0].Count, nil
}
