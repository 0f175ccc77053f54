// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a platform member identified by an external auth uid.
//
// NOTE:
//   - Karma is a cached projection of the karma_events ledger. It is only
//     mutated through karmastore.Award (and the corrective admin adjustment
//     endpoint); handlers never read-modify-write it.
//   - Users are upserted on sign-in and never hard-deleted.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AuthUID      string             `bson:"auth_uid" json:"auth_uid"`
	Username     string             `bson:"username" json:"username"`
	Email        string             `bson:"email" json:"email"`
	Mobile       string             `bson:"mobile,omitempty" json:"mobile,omitempty"`
	ProfileImage string             `bson:"profile_image,omitempty" json:"profile_image,omitempty"`

	Karma                 int  `bson:"karma" json:"karma"`
	HelpRequestsCreated   int  `bson:"help_requests_created" json:"help_requests_created"`
	HelpRequestsFulfilled int  `bson:"help_requests_fulfilled" json:"help_requests_fulfilled"`
	IsActive              bool `bson:"is_active" json:"is_active"`

	LastActive time.Time `bson:"last_active" json:"last_active"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time `bson:"updated_at" json:"updated_at"`
}
