// internal/domain/models/notification.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Outbox item statuses.
const (
	OutboxPending = "pending"
	OutboxSent    = "sent"
	OutboxFailed  = "failed"
)

// Audience kinds for a push notification.
const (
	AudienceAllExcept = "all_except"
	AudienceUser      = "user"
)

// Audience selects who a notification goes to: every user except AuthUID,
// or just AuthUID.
type Audience struct {
	Kind    string `bson:"kind" json:"kind"`
	AuthUID string `bson:"auth_uid" json:"auth_uid"`
}

// OutboxItem is a queued push notification. Lifecycle handlers append items
// after their own state change; the deliverer worker owns everything after
// that (claiming, posting, retry scheduling). Delivery never feeds back into
// the request path.
type OutboxItem struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	DedupeID string             `bson:"dedupe_id" json:"dedupe_id"`
	Audience Audience           `bson:"audience" json:"audience"`
	Title    string             `bson:"title" json:"title"`
	Body     string             `bson:"body" json:"body"`
	Data     map[string]string  `bson:"data,omitempty" json:"data,omitempty"`

	Status        string     `bson:"status" json:"status"`
	Attempts      int        `bson:"attempts" json:"attempts"`
	NextAttemptAt time.Time  `bson:"next_attempt_at" json:"next_attempt_at"`
	LastError     string     `bson:"last_error,omitempty" json:"last_error,omitempty"`
	SentAt        *time.Time `bson:"sent_at,omitempty" json:"sent_at,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
