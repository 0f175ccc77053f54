// internal/domain/models/feedback.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Feedback is a rating left on a help request by one of its two parties.
// One record per (help_request, rater) pair, enforced by a unique index.
type Feedback struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	HelpRequestID primitive.ObjectID `bson:"help_request_id" json:"help_request_id"`
	FromUserID    primitive.ObjectID `bson:"from_user_id" json:"from_user_id"`
	ToUserID      primitive.ObjectID `bson:"to_user_id" json:"to_user_id"`
	Rating        int                `bson:"rating" json:"rating"`
	Comment       string             `bson:"comment,omitempty" json:"comment,omitempty"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
}

// PositiveFeedbackThreshold is the minimum rating that earns the ratee karma.
const PositiveFeedbackThreshold = 4
