// Package donationstore persists donations. Claim and Complete are
// conditional updates on the expected source status.
package donationstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/helplink/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("donations")}
}

var (
	// ErrNotAvailable is returned when claiming a donation that has
	// already been reserved or handed over.
	ErrNotAvailable = errors.New("donation is not available")
	// ErrNotReserved is returned when completing a donation that was never
	// claimed.
	ErrNotReserved = errors.New("donation has not been claimed")
)

// Create inserts a new Available donation.
func (s *Store) Create(ctx context.Context, d models.Donation) (models.Donation, error) {
	now := time.Now().UTC()
	d.ID = primitive.NewObjectID()
	d.Status = models.DonationAvailable
	d.RecipientID = nil
	d.CreatedAt = now
	d.UpdatedAt = now
	if d.Location.Type == "" {
		d.Location = models.NewGeoPoint(0, 0, "")
	}
	if _, err := s.c.InsertOne(ctx, d); err != nil {
		return models.Donation{}, err
	}
	return d, nil
}

// GetByID loads a donation.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Donation, error) {
	var d models.Donation
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		return nil, err
	}
	return &d, nil
}

// ListFilter narrows List results. Zero values mean "no filter".
type ListFilter struct {
	Status   string
	Category string
	UserID   *primitive.ObjectID
}

// List returns donations newest first with the total match count.
func (s *Store) List(ctx context.Context, f ListFilter, limit, skip int64) ([]models.Donation, int64, error) {
	query := bson.M{}
	if f.Status != "" {
		query["status"] = f.Status
	}
	if f.Category != "" {
		query["category"] = f.Category
	}
	if f.UserID != nil {
		query["user_id"] = *f.UserID
	}

	cur, err := s.c.Find(ctx, query, options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit).
		SetSkip(skip))
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var rows []models.Donation
	if err := cur.All(ctx, &rows); err != nil {
		return nil, 0, err
	}

	total, err := s.c.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// Claim reserves an Available donation for the recipient. The status filter
// is the race guard.
func (s *Store) Claim(ctx context.Context, id, recipientID primitive.ObjectID) (*models.Donation, error) {
	var d models.Donation
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": models.DonationAvailable},
		bson.M{"$set": bson.M{
			"status":       models.DonationReserved,
			"recipient_id": recipientID,
			"updated_at":   time.Now().UTC(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&d)
	if err == nil {
		return &d, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}
	return nil, s.transitionFailure(ctx, id, ErrNotAvailable)
}

// Complete marks a Reserved donation as Donated.
func (s *Store) Complete(ctx context.Context, id primitive.ObjectID) (*models.Donation, error) {
	var d models.Donation
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": models.DonationReserved},
		bson.M{"$set": bson.M{
			"status":     models.DonationDonated,
			"updated_at": time.Now().UTC(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&d)
	if err == nil {
		return &d, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}
	return nil, s.transitionFailure(ctx, id, ErrNotReserved)
}

func (s *Store) transitionFailure(ctx context.Context, id primitive.ObjectID, wrongStatus error) error {
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Err(); err != nil {
		return err
	}
	return wrongStatus
}
