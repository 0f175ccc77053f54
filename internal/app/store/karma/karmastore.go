// Package karmastore is the append-only karma award ledger.
//
// Every karma change is a ledger row first and a users.karma $inc second.
// The unique index on (entity_id, kind, subject_id) makes each lifecycle
// award one-shot: a repeated trigger hits a duplicate key and increments
// nothing. users.karma is therefore a cached sum, never read-modify-written
// by callers.
package karmastore

import (
	"context"
	"time"

	"github.com/dalemusser/helplink/internal/app/system/metrics"
	"github.com/dalemusser/helplink/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	events *mongo.Collection
	users  *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		events: db.Collection("karma_events"),
		users:  db.Collection("users"),
	}
}

// Award grants amount to subject for (entity, kind). If the ledger already
// holds that award the call is a no-op and awarded is false. On success it
// returns the user's new karma total.
func (s *Store) Award(ctx context.Context, entityID primitive.ObjectID, kind models.AwardKind, subjectID primitive.ObjectID, amount int) (newTotal int, awarded bool, err error) {
	ev := models.KarmaEvent{
		ID:        primitive.NewObjectID(),
		EntityID:  entityID,
		Kind:      kind,
		SubjectID: subjectID,
		Amount:    amount,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.events.InsertOne(ctx, ev); err != nil {
		if wafflemongo.IsDup(err) {
			return 0, false, nil
		}
		return 0, false, err
	}

	var u models.User
	err = s.users.FindOneAndUpdate(ctx,
		bson.M{"_id": subjectID},
		bson.M{"$inc": bson.M{"karma": amount}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&u)
	if err != nil {
		return 0, false, err
	}

	metrics.KarmaAwards.WithLabelValues(string(kind)).Inc()
	return u.Karma, true, nil
}

// Adjust records a corrective admin change. Each adjustment gets a fresh
// entity id, so it is never deduplicated; delta may be negative.
func (s *Store) Adjust(ctx context.Context, subjectID primitive.ObjectID, delta int) (newTotal int, err error) {
	total, _, err := s.Award(ctx, primitive.NewObjectID(), models.AwardAdminAdjustment, subjectID, delta)
	return total, err
}

// HistoryForUser returns a user's award events, newest first.
func (s *Store) HistoryForUser(ctx context.Context, subjectID primitive.ObjectID, limit int64) ([]models.KarmaEvent, error) {
	cur, err := s.events.Find(ctx,
		bson.M{"subject_id": subjectID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var events []models.KarmaEvent
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// SumForUser recomputes a user's karma from the ledger. Used by tests and
// consistency checks; request paths read the cached users.karma.
func (s *Store) SumForUser(ctx context.Context, subjectID primitive.ObjectID) (int, error) {
	cur, err := s.events.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"subject_id": subjectID}}},
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$amount"}}}},
	})
	if err != nil {
		return 0, err
	}
	defer cur.Close(ctx)

	var out []struct {
		Total int `bson:"total"`
	}
	if err := cur.All(ctx, &out); err != nil {
		return 0, err
	}
	if len(out) == 0 {
		return 0, nil
	}
	return out[0].Total, nil
}
