// internal/domain/models/karma.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AwardKind names the action that earned a karma award. The ledger holds at
// most one event per (entity, kind, subject), which is what makes every
// award one-shot.
type AwardKind string

const (
	AwardRequestCreated    AwardKind = "request_created"
	AwardRequestAccepted   AwardKind = "request_accepted"
	AwardRequestCompleted  AwardKind = "request_completed"
	AwardDonationCreated   AwardKind = "donation_created"
	AwardVolunteerAttended AwardKind = "volunteer_attended"
	AwardPositiveFeedback  AwardKind = "positive_feedback"
	AwardReportVerified    AwardKind = "report_verified"
	AwardAdminAdjustment   AwardKind = "admin_adjustment"
)

// Karma amounts per award kind.
const (
	KarmaRequestCreated    = 2
	KarmaRequestAccepted   = 10
	KarmaRequestCompleted  = 20
	KarmaDonationCreated   = 15
	KarmaVolunteerAttended = 25
	KarmaPositiveFeedback  = 5
	KarmaReportVerified    = 3
)

// KarmaEvent is one row in the append-only award ledger. EntityID is the
// document whose lifecycle produced the award; SubjectID is the user the
// points went to. users.karma is the cached sum of a user's events.
type KarmaEvent struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	EntityID  primitive.ObjectID `bson:"entity_id" json:"entity_id"`
	Kind      AwardKind          `bson:"kind" json:"kind"`
	SubjectID primitive.ObjectID `bson:"subject_id" json:"subject_id"`
	Amount    int                `bson:"amount" json:"amount"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
