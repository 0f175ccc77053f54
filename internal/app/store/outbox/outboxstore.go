// Package outboxstore persists the push-notification outbox. Writers enqueue
// items in the same request that changed state; the deliverer worker drains
// them asynchronously.
package outboxstore

import (
	"context"
	"time"

	"github.com/dalemusser/helplink/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("notification_outbox")}
}

// Enqueue inserts a pending item due immediately. A fresh dedupe id is
// assigned when the caller did not supply one; callers that retry an enqueue
// pass the same id and the unique index swallows the duplicate.
func (s *Store) Enqueue(ctx context.Context, item *models.OutboxItem) error {
	now := time.Now().UTC()
	if item.DedupeID == "" {
		item.DedupeID = uuid.NewString()
	}
	item.ID = primitive.NewObjectID()
	item.Status = models.OutboxPending
	item.Attempts = 0
	item.NextAttemptAt = now
	item.CreatedAt = now

	if _, err := s.c.InsertOne(ctx, item); err != nil {
		if wafflemongo.IsDup(err) {
			return nil
		}
		return err
	}
	return nil
}

// ClaimDue atomically claims up to limit pending items whose next attempt is
// due, bumping their attempt counter and pushing next_attempt_at forward by
// the lease so a crashed deliverer's claims become due again.
func (s *Store) ClaimDue(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]models.OutboxItem, error) {
	var claimed []models.OutboxItem
	for len(claimed) < limit {
		var item models.OutboxItem
		err := s.c.FindOneAndUpdate(ctx,
			bson.M{
				"status":          models.OutboxPending,
				"next_attempt_at": bson.M{"$lte": now},
			},
			bson.M{
				"$inc": bson.M{"attempts": 1},
				"$set": bson.M{"next_attempt_at": now.Add(lease)},
			},
			options.FindOneAndUpdate().
				SetSort(bson.D{{Key: "next_attempt_at", Value: 1}}).
				SetReturnDocument(options.After),
		).Decode(&item)
		if err != nil {
			if err == mongo.ErrNoDocuments {
				break
			}
			return claimed, err
		}
		claimed = append(claimed, item)
	}
	return claimed, nil
}

// MarkSent records a successful delivery.
func (s *Store) MarkSent(ctx context.Context, id primitive.ObjectID) error {
	now := time.Now().UTC()
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": models.OutboxSent, "sent_at": now}},
	)
	return err
}

// ScheduleRetry keeps the item pending and sets when it should be tried
// again, recording the delivery error.
func (s *Store) ScheduleRetry(ctx context.Context, id primitive.ObjectID, nextAttempt time.Time, deliveryErr string) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"status":          models.OutboxPending,
			"next_attempt_at": nextAttempt,
			"last_error":      deliveryErr,
		}},
	)
	return err
}

// MarkFailed retires an item that exhausted its attempts.
func (s *Store) MarkFailed(ctx context.Context, id primitive.ObjectID, deliveryErr string) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": models.OutboxFailed, "last_error": deliveryErr}},
	)
	return err
}

// PendingCount reports the queue depth, for health reporting.
func (s *Store) PendingCount(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"status": models.OutboxPending})
}
