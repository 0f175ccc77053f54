package userstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/helplink/internal/app/system/normalize"
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
	return &Store{c: db.Collection("users")}
}

var (
	// ErrDuplicateEmail is returned when the email belongs to another account.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	errAuthUIDNeeded  = errors.New("auth uid is required")
	errEmailNeeded    = errors.New("email is required")
)

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByAuthUID loads a user by external auth uid. Returns
// mongo.ErrNoDocuments if the user has never signed in.
func (s *Store) GetByAuthUID(ctx context.Context, authUID string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"auth_uid": authUID}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// UpsertParams holds the profile fields delivered on sign-in.
type UpsertParams struct {
	AuthUID      string
	Username     string
	Email        string
	Mobile       string
	ProfileImage string
}

// Upsert creates or refreshes a user on sign-in, keyed by auth uid. The
// username defaults to the email local part on first sign-in. Returns the
// stored user and whether it was newly created.
func (s *Store) Upsert(ctx context.Context, p UpsertParams) (models.User, bool, error) {
	if p.AuthUID == "" {
		return models.User{}, false, errAuthUIDNeeded
	}
	p.Email = normalize.Email(p.Email)
	if p.Email == "" {
		return models.User{}, false, errEmailNeeded
	}
	if p.Username == "" {
		if at := strings.Index(p.Email, "@"); at > 0 {
			p.Username = p.Email[:at]
		} else {
			p.Username = p.Email
		}
	}
	p.Username = normalize.Name(p.Username)

	now := time.Now().UTC()
	set := bson.M{
		"username":    p.Username,
		"email":       p.Email,
		"last_active": now,
		"updated_at":  now,
	}
	if p.Mobile != "" {
		set["mobile"] = p.Mobile
	}
	if p.ProfileImage != "" {
		set["profile_image"] = p.ProfileImage
	}

	var u models.User
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"auth_uid": p.AuthUID},
		bson.M{
			"$set": set,
			"$setOnInsert": bson.M{
				"auth_uid":                p.AuthUID,
				"karma":                   0,
				"help_requests_created":   0,
				"help_requests_fulfilled": 0,
				"is_active":               true,
				"created_at":              now,
			},
		},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&u)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, false, ErrDuplicateEmail
		}
		return models.User{}, false, err
	}

	created := u.CreatedAt.Equal(now)
	return u, created, nil
}

// IncrementRequestCounters bumps the created/fulfilled request counters.
// Deltas may be negative (request deletion).
func (s *Store) IncrementRequestCounters(ctx context.Context, id primitive.ObjectID, createdDelta, fulfilledDelta int) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{
		"help_requests_created":   createdDelta,
		"help_requests_fulfilled": fulfilledDelta,
	}})
	return err
}

// Leaderboard returns active users ordered by karma, highest first.
func (s *Store) Leaderboard(ctx context.Context, limit int64) ([]models.User, error) {
	cur, err := s.c.Find(ctx,
		bson.M{"is_active": true},
		options.Find().
			SetSort(bson.D{{Key: "karma", Value: -1}}).
			SetLimit(limit).
			SetProjection(bson.M{
				"auth_uid": 1, "username": 1, "email": 1, "karma": 1,
				"profile_image": 1, "help_requests_fulfilled": 1,
			}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}
