// internal/domain/models/chat.go
package models

import (
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ChatMessage is one message embedded in a chat document. SenderID is the
// sender's auth uid, matching the entries in Chat.Participants.
type ChatMessage struct {
	SenderID  string    `bson:"sender_id" json:"sender_id"`
	Body      string    `bson:"body" json:"body"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// Chat is a conversation between exactly two users, keyed by the sorted
// pair of their auth uids so the same two people always resolve to the
// same document.
type Chat struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Participants []string           `bson:"participants" json:"participants"`
	// ParticipantsKey is the sorted pair joined with "|". The unique index
	// lives on this field; a unique index on the array itself would treat
	// each element separately and reject chats that merely share one user.
	ParticipantsKey string        `bson:"participants_key" json:"-"`
	Messages        []ChatMessage `bson:"messages" json:"messages"`
	LastMessage     string        `bson:"last_message,omitempty" json:"last_message,omitempty"`
	LastMessageAt   time.Time     `bson:"last_message_at" json:"last_message_at"`
	CreatedAt       time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time     `bson:"updated_at" json:"updated_at"`
}

// HasParticipant reports whether the auth uid belongs to this chat.
func (c *Chat) HasParticipant(authUID string) bool {
	for _, p := range c.Participants {
		if p == authUID {
			return true
		}
	}
	return false
}

// CanonicalParticipants returns the two auth uids in sorted order.
func CanonicalParticipants(a, b string) []string {
	p := []string{a, b}
	sort.Strings(p)
	return p
}

// ParticipantsKey joins the canonical pair for the unique index.
func ParticipantsKey(participants []string) string {
	return strings.Join(participants, "|")
}
