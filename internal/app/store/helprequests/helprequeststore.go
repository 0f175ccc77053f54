// Package helprequeststore persists help requests.
//
// Status transitions are single conditional updates filtered on the allowed
// source status, so two racing callers cannot both move the same document:
// exactly one update matches, the other maps to the transition error.
package helprequeststore

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
	return &Store{c: db.Collection("help_requests")}
}

var (
	// ErrAlreadyClaimed is returned when accepting a request that is no
	// longer Open.
	ErrAlreadyClaimed = errors.New("help request has already been claimed")
	// ErrNotInProgress is returned when completing a request that is not
	// InProgress.
	ErrNotInProgress = errors.New("help request is not in progress")
	// ErrNotCancellable is returned when cancelling a request that is
	// already Completed or Cancelled.
	ErrNotCancellable = errors.New("help request can no longer be cancelled")
	// ErrNotEditable is returned when updating a request that has left the
	// Open state.
	ErrNotEditable = errors.New("help request can no longer be edited")
)

// Create inserts a new Open help request.
func (s *Store) Create(ctx context.Context, hr models.HelpRequest) (models.HelpRequest, error) {
	now := time.Now().UTC()
	hr.ID = primitive.NewObjectID()
	hr.Status = models.RequestOpen
	hr.HelperID = nil
	hr.Views = 0
	hr.CreatedAt = now
	hr.UpdatedAt = now
	if hr.Urgency == "" {
		hr.Urgency = "Medium"
	}
	if hr.Location.Type == "" {
		hr.Location = models.NewGeoPoint(0, 0, "")
	}
	if _, err := s.c.InsertOne(ctx, hr); err != nil {
		return models.HelpRequest{}, err
	}
	return hr, nil
}

// GetByID loads a help request.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.HelpRequest, error) {
	var hr models.HelpRequest
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&hr); err != nil {
		return nil, err
	}
	return &hr, nil
}

// GetAndCountView loads a help request and bumps its view counter in the
// same operation.
func (s *Store) GetAndCountView(ctx context.Context, id primitive.ObjectID) (*models.HelpRequest, error) {
	var hr models.HelpRequest
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"views": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&hr)
	if err != nil {
		return nil, err
	}
	return &hr, nil
}

// ListFilter narrows List results. Zero values mean "no filter".
type ListFilter struct {
	Status   string
	Category string
	UserID   *primitive.ObjectID
}

// List returns help requests newest first, with the total match count for
// pagination.
func (s *Store) List(ctx context.Context, f ListFilter, limit, skip int64) ([]models.HelpRequest, int64, error) {
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

	var rows []models.HelpRequest
	if err := cur.All(ctx, &rows); err != nil {
		return nil, 0, err
	}

	total, err := s.c.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// Nearby returns Open requests within maxDistance meters of the point,
// closest first.
func (s *Store) Nearby(ctx context.Context, lng, lat float64, maxDistance int, limit int64) ([]models.HelpRequest, error) {
	cur, err := s.c.Find(ctx, bson.M{
		"status": models.RequestOpen,
		"location": bson.M{
			"$near": bson.M{
				"$geometry": bson.M{
					"type":        "Point",
					"coordinates": bson.A{lng, lat},
				},
				"$maxDistance": maxDistance,
			},
		},
	}, options.Find().SetLimit(limit))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []models.HelpRequest
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Accept moves an Open request to InProgress and records the helper. The
// status filter is the race guard: of two concurrent accepts exactly one
// matches the Open document.
func (s *Store) Accept(ctx context.Context, id, helperID primitive.ObjectID) (*models.HelpRequest, error) {
	now := time.Now().UTC()
	var hr models.HelpRequest
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": models.RequestOpen},
		bson.M{"$set": bson.M{
			"status":             models.RequestInProgress,
			"helper_id":          helperID,
			"helper_accepted_at": now,
			"updated_at":         now,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&hr)
	if err == nil {
		return &hr, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}
	return nil, s.transitionFailure(ctx, id, ErrAlreadyClaimed)
}

// Complete moves an InProgress request to Completed.
func (s *Store) Complete(ctx context.Context, id primitive.ObjectID) (*models.HelpRequest, error) {
	now := time.Now().UTC()
	var hr models.HelpRequest
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": models.RequestInProgress},
		bson.M{"$set": bson.M{
			"status":       models.RequestCompleted,
			"completed_at": now,
			"updated_at":   now,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&hr)
	if err == nil {
		return &hr, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}
	return nil, s.transitionFailure(ctx, id, ErrNotInProgress)
}

// Cancel moves an Open or InProgress request to Cancelled.
func (s *Store) Cancel(ctx context.Context, id primitive.ObjectID) (*models.HelpRequest, error) {
	now := time.Now().UTC()
	var hr models.HelpRequest
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": bson.M{"$in": bson.A{models.RequestOpen, models.RequestInProgress}}},
		bson.M{"$set": bson.M{
			"status":     models.RequestCancelled,
			"updated_at": now,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&hr)
	if err == nil {
		return &hr, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}
	return nil, s.transitionFailure(ctx, id, ErrNotCancellable)
}

// UpdateParams holds the owner-editable fields. Nil/empty values are left
// unchanged.
type UpdateParams struct {
	Title       string
	Description string
	Category    string
	Urgency     string
	Location    *models.GeoPoint
	Images      []string
}

// Update edits an Open request's content fields.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, p UpdateParams) (*models.HelpRequest, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if p.Title != "" {
		set["title"] = p.Title
	}
	if p.Description != "" {
		set["description"] = p.Description
	}
	if p.Category != "" {
		set["category"] = p.Category
	}
	if p.Urgency != "" {
		set["urgency"] = p.Urgency
	}
	if p.Location != nil {
		set["location"] = *p.Location
	}
	if p.Images != nil {
		set["images"] = p.Images
	}

	var hr models.HelpRequest
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": models.RequestOpen},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&hr)
	if err == nil {
		return &hr, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}
	return nil, s.transitionFailure(ctx, id, ErrNotEditable)
}

// Delete removes a help request. Returns mongo.ErrNoDocuments if absent.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// transitionFailure distinguishes "wrong status" from "no such document"
// after a conditional update matched nothing.
func (s *Store) transitionFailure(ctx context.Context, id primitive.ObjectID, wrongStatus error) error {
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Err(); err != nil {
		return err
	}
	return wrongStatus
}
