// internal/domain/models/helprequest.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Help request statuses. Transitions are Open→InProgress→Completed, with
// Cancelled reachable from Open or InProgress. Every transition is applied
// as a conditional update on the expected source status.
const (
	RequestOpen       = "Open"
	RequestInProgress = "InProgress"
	RequestCompleted  = "Completed"
	RequestCancelled  = "Cancelled"
)

// RequestCategories are the accepted help request categories.
var RequestCategories = []string{"Academic", "Technical", "Personal", "Transport", "Food", "Other"}

// RequestUrgencies are the accepted urgency levels.
var RequestUrgencies = []string{"Low", "Medium", "High"}

// HelpRequest is a plea for help posted by a user. HelperID is nil exactly
// while the request is Open.
type HelpRequest struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      primitive.ObjectID `bson:"user_id" json:"user_id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Category    string             `bson:"category" json:"category"`
	Urgency     string             `bson:"urgency" json:"urgency"`
	Status      string             `bson:"status" json:"status"`
	Location    GeoPoint           `bson:"location" json:"location"`
	Images      []string           `bson:"images,omitempty" json:"images,omitempty"`

	HelperID         *primitive.ObjectID `bson:"helper_id,omitempty" json:"helper_id,omitempty"`
	HelperAcceptedAt *time.Time          `bson:"helper_accepted_at,omitempty" json:"helper_accepted_at,omitempty"`
	CompletedAt      *time.Time          `bson:"completed_at,omitempty" json:"completed_at,omitempty"`

	Views     int       `bson:"views" json:"views"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// ValidRequestCategory reports whether c is an accepted category.
func ValidRequestCategory(c string) bool {
	for _, v := range RequestCategories {
		if v == c {
			return true
		}
	}
	return false
}

// ValidRequestUrgency reports whether u is an accepted urgency level.
func ValidRequestUrgency(u string) bool {
	for _, v := range RequestUrgencies {
		if v == u {
			return true
		}
	}
	return false
}
