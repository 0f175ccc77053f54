// internal/domain/models/donation.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Donation statuses. Available→Reserved→Donated, applied as conditional
// updates on the expected source status.
const (
	DonationAvailable = "Available"
	DonationReserved  = "Reserved"
	DonationDonated   = "Donated"
)

// DonationCategories are the accepted donation categories.
var DonationCategories = []string{"Books", "Clothes", "Electronics", "Furniture", "Food", "Other"}

// Donation is an item offered by a user. RecipientID is set exactly when
// the donation has left the Available state.
type Donation struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      primitive.ObjectID `bson:"user_id" json:"user_id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Category    string             `bson:"category" json:"category"`
	Images      []string           `bson:"images,omitempty" json:"images,omitempty"`
	Location    GeoPoint           `bson:"location" json:"location"`
	Status      string             `bson:"status" json:"status"`

	RecipientID *primitive.ObjectID `bson:"recipient_id,omitempty" json:"recipient_id,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// ValidDonationCategory reports whether c is an accepted category.
func ValidDonationCategory(c string) bool {
	for _, v := range DonationCategories {
		if v == c {
			return true
		}
	}
	return false
}
