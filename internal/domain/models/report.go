// internal/domain/models/report.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Report statuses. Pending|Reviewing→Verified|Rejected, decided once by a
// reviewer.
const (
	ReportPending   = "Pending"
	ReportReviewing = "Reviewing"
	ReportVerified  = "Verified"
	ReportRejected  = "Rejected"
)

// ContentKind tags what a report points at. Keeping the kind a closed set
// lets lookups switch exhaustively instead of trusting a free-form string.
type ContentKind string

const (
	ContentHelpRequest ContentKind = "HelpRequest"
	ContentUser        ContentKind = "User"
	ContentDonation    ContentKind = "Donation"
	ContentEvent       ContentKind = "Event"
)

// ValidContentKind reports whether k names a reportable content type.
func ValidContentKind(k ContentKind) bool {
	switch k {
	case ContentHelpRequest, ContentUser, ContentDonation, ContentEvent:
		return true
	}
	return false
}

// ContentRef is a typed reference to the reported content.
type ContentRef struct {
	Kind ContentKind        `bson:"kind" json:"kind"`
	ID   primitive.ObjectID `bson:"id" json:"id"`
}

// ReportReasons are the accepted report reasons.
var ReportReasons = []string{"Spam", "Fake", "Inappropriate", "Scam", "Other"}

// ValidReportReason reports whether r is an accepted reason.
func ValidReportReason(r string) bool {
	for _, v := range ReportReasons {
		if v == r {
			return true
		}
	}
	return false
}

// Report is a user-submitted flag on platform content. A reporter may file
// at most one report per content item (unique index); verification karma is
// awarded through the ledger, at most once per report.
type Report struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ReporterID  primitive.ObjectID `bson:"reporter_id" json:"reporter_id"`
	Content     ContentRef         `bson:"content" json:"content"`
	Reason      string             `bson:"reason" json:"reason"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Status      string             `bson:"status" json:"status"`

	ReviewedBy *primitive.ObjectID `bson:"reviewed_by,omitempty" json:"reviewed_by,omitempty"`
	ReviewedAt *time.Time          `bson:"reviewed_at,omitempty" json:"reviewed_at,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
