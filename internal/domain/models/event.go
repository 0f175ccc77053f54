// internal/domain/models/event.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Event statuses. Upcoming→Ongoing→Completed happen on the calendar (the
// scheduled sweep advances them by event_date); Cancelled is organizer-driven
// from Upcoming or Ongoing.
const (
	EventUpcoming  = "Upcoming"
	EventOngoing   = "Ongoing"
	EventCompleted = "Completed"
	EventCancelled = "Cancelled"
)

// EventCategories are the accepted event categories.
var EventCategories = []string{"Community Service", "Education", "Environment", "Health", "Social", "Other"}

// Volunteer is one registration entry on an event. A user appears at most
// once in an event's volunteer list; attendance karma is awarded through the
// ledger, at most once per (event, volunteer).
type Volunteer struct {
	UserID       primitive.ObjectID `bson:"user_id" json:"user_id"`
	RegisteredAt time.Time          `bson:"registered_at" json:"registered_at"`
	Attended     bool               `bson:"attended" json:"attended"`
}

// Event is a volunteer event organized by a user.
type Event struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrganizerID primitive.ObjectID `bson:"organizer_id" json:"organizer_id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Category    string             `bson:"category" json:"category"`
	EventDate   time.Time          `bson:"event_date" json:"event_date"`
	Location    GeoPoint           `bson:"location" json:"location"`

	VolunteersNeeded int         `bson:"volunteers_needed" json:"volunteers_needed"`
	Volunteers       []Volunteer `bson:"volunteers" json:"volunteers"`

	Images []string `bson:"images,omitempty" json:"images,omitempty"`
	Status string   `bson:"status" json:"status"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// ValidEventCategory reports whether c is an accepted category.
func ValidEventCategory(c string) bool {
	for _, v := range EventCategories {
		if v == c {
			return true
		}
	}
	return false
}

// HasVolunteer reports whether the user is already registered.
func (e *Event) HasVolunteer(userID primitive.ObjectID) bool {
	for _, v := range e.Volunteers {
		if v.UserID == userID {
			return true
		}
	}
	return false
}
