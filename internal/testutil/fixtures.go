package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/helplink/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser creates a test user keyed by the given auth uid.
func (f *Fixtures) CreateUser(ctx context.Context, authUID, username string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:         primitive.NewObjectID(),
		AuthUID:    authUID,
		Username:   username,
		Email:      username + "@test.com",
		IsActive:   true,
		LastActive: now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateHelpRequest creates an Open help request owned by the given user.
func (f *Fixtures) CreateHelpRequest(ctx context.Context, ownerID primitive.ObjectID, title string) models.HelpRequest {
	f.t.Helper()

	now := time.Now().UTC()
	hr := models.HelpRequest{
		ID:          primitive.NewObjectID(),
		UserID:      ownerID,
		Title:       title,
		Description: "Test help request description",
		Category:    "Academic",
		Urgency:     "Medium",
		Status:      models.RequestOpen,
		Location:    models.NewGeoPoint(0, 0, ""),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := f.db.Collection("help_requests").InsertOne(ctx, hr); err != nil {
		f.t.Fatalf("failed to create test help request: %v", err)
	}
	return hr
}

// CreateDonation creates an Available donation owned by the given user.
func (f *Fixtures) CreateDonation(ctx context.Context, donorID primitive.ObjectID, title string) models.Donation {
	f.t.Helper()

	now := time.Now().UTC()
	d := models.Donation{
		ID:          primitive.NewObjectID(),
		UserID:      donorID,
		Title:       title,
		Description: "Test donation description",
		Category:    "Books",
		Location:    models.NewGeoPoint(0, 0, ""),
		Status:      models.DonationAvailable,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := f.db.Collection("donations").InsertOne(ctx, d); err != nil {
		f.t.Fatalf("failed to create test donation: %v", err)
	}
	return d
}

// CreateEvent creates an Upcoming event organized by the given user.
func (f *Fixtures) CreateEvent(ctx context.Context, organizerID primitive.ObjectID, title string, eventDate time.Time) models.Event {
	f.t.Helper()

	now := time.Now().UTC()
	ev := models.Event{
		ID:               primitive.NewObjectID(),
		OrganizerID:      organizerID,
		Title:            title,
		Description:      "Test event description",
		Category:         "Community Service",
		EventDate:        eventDate.UTC(),
		Location:         models.NewGeoPoint(0, 0, ""),
		VolunteersNeeded: 5,
		Volunteers:       []models.Volunteer{},
		Status:           models.EventUpcoming,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if _, err := f.db.Collection("events").InsertOne(ctx, ev); err != nil {
		f.t.Fatalf("failed to create test event: %v", err)
	}
	return ev
}
