// Package chatstore persists two-party chats. A chat is keyed by the
// canonical (sorted) pair of participant auth uids, so lookups between the
// same two users always land on one document.
package chatstore

import (
	"context"
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
	return &Store{c: db.Collection("chats")}
}

// CreateOrGet returns the chat between the two users, creating it if the
// pair has never talked. The upsert on the canonical key makes concurrent
// first messages converge on one document.
func (s *Store) CreateOrGet(ctx context.Context, uidA, uidB string) (*models.Chat, error) {
	participants := models.CanonicalParticipants(uidA, uidB)
	key := models.ParticipantsKey(participants)
	now := time.Now().UTC()

	var chat models.Chat
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"participants_key": key},
		bson.M{"$setOnInsert": bson.M{
			"participants":    participants,
			"messages":        []models.ChatMessage{},
			"last_message_at": now,
			"created_at":      now,
			"updated_at":      now,
		}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&chat)
	if err != nil {
		// Two racing upserts can collide on the unique index; the loser
		// re-reads the winner's document.
		if wafflemongo.IsDup(err) {
			if ferr := s.c.FindOne(ctx, bson.M{"participants_key": key}).Decode(&chat); ferr == nil {
				return &chat, nil
			}
		}
		return nil, err
	}
	return &chat, nil
}

// GetByID loads a chat with its full message history.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Chat, error) {
	var chat models.Chat
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&chat); err != nil {
		return nil, err
	}
	return &chat, nil
}

// ListForUser returns a user's chats, most recently active first.
func (s *Store) ListForUser(ctx context.Context, authUID string) ([]models.Chat, error) {
	cur, err := s.c.Find(ctx,
		bson.M{"participants": authUID},
		options.Find().SetSort(bson.D{{Key: "last_message_at", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var chats []models.Chat
	if err := cur.All(ctx, &chats); err != nil {
		return nil, err
	}
	return chats, nil
}

// AppendMessage durably appends a message and refreshes the chat summary
// fields. The relay broadcasts only after this returns nil.
func (s *Store) AppendMessage(ctx context.Context, chatID primitive.ObjectID, senderUID, body string) (models.ChatMessage, error) {
	msg := models.ChatMessage{
		SenderID:  senderUID,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": chatID},
		bson.M{
			"$push": bson.M{"messages": msg},
			"$set": bson.M{
				"last_message":    body,
				"last_message_at": msg.CreatedAt,
				"updated_at":      msg.CreatedAt,
			},
		},
	)
	if err != nil {
		return models.ChatMessage{}, err
	}
	if res.MatchedCount == 0 {
		return models.ChatMessage{}, mongo.ErrNoDocuments
	}
	return msg, nil
}
