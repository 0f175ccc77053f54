// Package eventstore persists volunteer events.
//
// Volunteer registration is a single guarded push: the filter requires the
// user to be absent from the volunteer list, so a duplicate registration
// matches nothing rather than appending twice.
package eventstore

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
	return &Store{c: db.Collection("events")}
}

var (
	// ErrAlreadyRegistered is returned when a user registers twice for the
	// same event.
	ErrAlreadyRegistered = errors.New("user is already registered for this event")
	// ErrVolunteerNotFound is returned when marking attendance for a user
	// who never registered.
	ErrVolunteerNotFound = errors.New("volunteer is not registered for this event")
	// ErrNotCancellable is returned when cancelling a Completed or already
	// Cancelled event.
	ErrNotCancellable = errors.New("event can no longer be cancelled")
)

// Create inserts a new Upcoming event.
func (s *Store) Create(ctx context.Context, e models.Event) (models.Event, error) {
	now := time.Now().UTC()
	e.ID = primitive.NewObjectID()
	e.Status = models.EventUpcoming
	e.Volunteers = []models.Volunteer{}
	e.CreatedAt = now
	e.UpdatedAt = now
	if e.VolunteersNeeded < 1 {
		e.VolunteersNeeded = 1
	}
	if e.Location.Type == "" {
		e.Location = models.NewGeoPoint(0, 0, "")
	}
	if _, err := s.c.InsertOne(ctx, e); err != nil {
		return models.Event{}, err
	}
	return e, nil
}

// GetByID loads an event.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Event, error) {
	var e models.Event
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&e); err != nil {
		return nil, err
	}
	return &e, nil
}

// ListFilter narrows List results. Zero values mean "no filter".
type ListFilter struct {
	Status      string
	Category    string
	OrganizerID *primitive.ObjectID
}

// List returns events soonest first with the total match count.
func (s *Store) List(ctx context.Context, f ListFilter, limit, skip int64) ([]models.Event, int64, error) {
	query := bson.M{}
	if f.Status != "" {
		query["status"] = f.Status
	}
	if f.Category != "" {
		query["category"] = f.Category
	}
	if f.OrganizerID != nil {
		query["organizer_id"] = *f.OrganizerID
	}

	cur, err := s.c.Find(ctx, query, options.Find().
		SetSort(bson.D{{Key: "event_date", Value: 1}}).
		SetLimit(limit).
		SetSkip(skip))
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var rows []models.Event
	if err := cur.All(ctx, &rows); err != nil {
		return nil, 0, err
	}

	total, err := s.c.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// RegisterVolunteer appends the user to the volunteer list if absent.
func (s *Store) RegisterVolunteer(ctx context.Context, eventID, userID primitive.ObjectID) (*models.Event, error) {
	entry := models.Volunteer{
		UserID:       userID,
		RegisteredAt: time.Now().UTC(),
	}
	var e models.Event
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": eventID, "volunteers.user_id": bson.M{"$ne": userID}},
		bson.M{
			"$push": bson.M{"volunteers": entry},
			"$set":  bson.M{"updated_at": entry.RegisteredAt},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&e)
	if err == nil {
		return &e, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}
	// No match: either the event is missing or the user already registered.
	if err := s.c.FindOne(ctx, bson.M{"_id": eventID}).Err(); err != nil {
		return nil, err
	}
	return nil, ErrAlreadyRegistered
}

// MarkAttendance flags a registered volunteer as attended. Idempotent on the
// flag itself; the karma award is guarded by the ledger, not here.
func (s *Store) MarkAttendance(ctx context.Context, eventID, volunteerID primitive.ObjectID) (*models.Event, error) {
	var e models.Event
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": eventID, "volunteers.user_id": volunteerID},
		bson.M{"$set": bson.M{
			"volunteers.$.attended": true,
			"updated_at":            time.Now().UTC(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&e)
	if err == nil {
		return &e, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}
	if err := s.c.FindOne(ctx, bson.M{"_id": eventID}).Err(); err != nil {
		return nil, err
	}
	return nil, ErrVolunteerNotFound
}

// Cancel moves an Upcoming or Ongoing event to Cancelled.
func (s *Store) Cancel(ctx context.Context, id primitive.ObjectID) (*models.Event, error) {
	var e models.Event
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": bson.M{"$in": bson.A{models.EventUpcoming, models.EventOngoing}}},
		bson.M{"$set": bson.M{
			"status":     models.EventCancelled,
			"updated_at": time.Now().UTC(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&e)
	if err == nil {
		return &e, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Err(); err != nil {
		return nil, err
	}
	return nil, ErrNotCancellable
}

// AdvanceStatuses moves events along the calendar: Upcoming events whose
// date has arrived become Ongoing, and Ongoing events more than a day past
// their date become Completed. Returns how many documents changed.
func (s *Store) AdvanceStatuses(ctx context.Context, now time.Time) (int64, error) {
	started, err := s.c.UpdateMany(ctx,
		bson.M{"status": models.EventUpcoming, "event_date": bson.M{"$lte": now}},
		bson.M{"$set": bson.M{"status": models.EventOngoing, "updated_at": now}},
	)
	if err != nil {
		return 0, err
	}

	finished, err := s.c.UpdateMany(ctx,
		bson.M{"status": models.EventOngoing, "event_date": bson.M{"$lte": now.Add(-24 * time.Hour)}},
		bson.M{"$set": bson.M{"status": models.EventCompleted, "updated_at": now}},
	)
	if err != nil {
		return started.ModifiedCount, err
	}
	return started.ModifiedCount + finished.ModifiedCount, nil
}
