// Package indexes ensures the Mongo indexes the platform depends on.
//
// The unique indexes here are load-bearing: feedback and report dedupe, the
// canonical chat pair, and the karma ledger one-shot guard all rest on
// duplicate-key errors rather than read-then-check.
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureAll is called at startup from the EnsureSchema hook. Each ensure*
// function is idempotent. Errors are aggregated so any problem is visible
// and startup can fail fast.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	if err := ensureUsers(ctx, db); err != nil {
		problems = append(problems, "users: "+err.Error())
	}
	if err := ensureHelpRequests(ctx, db); err != nil {
		problems = append(problems, "help_requests: "+err.Error())
	}
	if err := ensureDonations(ctx, db); err != nil {
		problems = append(problems, "donations: "+err.Error())
	}
	if err := ensureEvents(ctx, db); err != nil {
		problems = append(problems, "events: "+err.Error())
	}
	if err := ensureFeedback(ctx, db); err != nil {
		problems = append(problems, "feedback: "+err.Error())
	}
	if err := ensureReports(ctx, db); err != nil {
		problems = append(problems, "reports: "+err.Error())
	}
	if err := ensureChats(ctx, db); err != nil {
		problems = append(problems, "chats: "+err.Error())
	}
	if err := ensureKarmaEvents(ctx, db); err != nil {
		problems = append(problems, "karma_events: "+err.Error())
	}
	if err := ensureOutbox(ctx, db); err != nil {
		problems = append(problems, "notification_outbox: "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func wantsUnique(m mongo.IndexModel) bool {
	return m.Options != nil && m.Options.Unique != nil && *m.Options.Unique
}

// ensureIndexSet creates any desired index whose key pattern is not already
// present. An existing index with the same keys but a different unique
// option is dropped and recreated.
func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	existing := map[string]existingIndex{}
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return fmt.Errorf("list indexes: %w", err)
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			continue
		}
		existing[keySig(idx.Key)] = idx
	}

	var errs []string
	for _, m := range models {
		sig := keySig(m.Keys.(bson.D))
		if ex, ok := existing[sig]; ok {
			exUnique := ex.Unique != nil && *ex.Unique
			if exUnique == wantsUnique(m) {
				continue
			}
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				errs = append(errs, fmt.Sprintf("drop %s: %v", ex.Name, err))
				continue
			}
		}
		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			errs = append(errs, fmt.Sprintf("create (%s): %v", sig, err))
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func unique() *options.IndexOptions {
	return options.Index().SetUnique(true)
}

/* -------------------------------------------------------------------------- */
/* Per-collection index sets                                                  */
/* -------------------------------------------------------------------------- */

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("users"), []mongo.IndexModel{
		{Keys: bson.D{{Key: "auth_uid", Value: 1}}, Options: unique().SetName("uniq_auth_uid")},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique().SetName("uniq_email")},
		// leaderboard sort
		{Keys: bson.D{{Key: "karma", Value: -1}}, Options: options.Index().SetName("karma_desc")},
	})
}

func ensureHelpRequests(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("help_requests"), []mongo.IndexModel{
		{Keys: bson.D{{Key: "location", Value: "2dsphere"}}, Options: options.Index().SetName("location_2dsphere")},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}, Options: options.Index().SetName("status_created")},
		{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: options.Index().SetName("user")},
	})
}

func ensureDonations(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("donations"), []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: options.Index().SetName("user")},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}, Options: options.Index().SetName("status_created")},
	})
}

func ensureEvents(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("events"), []mongo.IndexModel{
		{Keys: bson.D{{Key: "organizer_id", Value: 1}}, Options: options.Index().SetName("organizer")},
		{Keys: bson.D{{Key: "event_date", Value: 1}}, Options: options.Index().SetName("event_date")},
		{Keys: bson.D{{Key: "status", Value: 1}}, Options: options.Index().SetName("status")},
	})
}

func ensureFeedback(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("feedback"), []mongo.IndexModel{
		// one rating per (request, rater)
		{Keys: bson.D{{Key: "help_request_id", Value: 1}, {Key: "from_user_id", Value: 1}}, Options: unique().SetName("uniq_request_rater")},
		{Keys: bson.D{{Key: "to_user_id", Value: 1}}, Options: options.Index().SetName("ratee")},
	})
}

func ensureReports(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("reports"), []mongo.IndexModel{
		// one report per (reporter, content)
		{Keys: bson.D{{Key: "reporter_id", Value: 1}, {Key: "content.id", Value: 1}}, Options: unique().SetName("uniq_reporter_content")},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}, Options: options.Index().SetName("status_created")},
	})
}

func ensureChats(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("chats"), []mongo.IndexModel{
		// participants are stored sorted, so the pair is canonical
		{Keys: bson.D{{Key: "participants", Value: 1}}, Options: options.Index().SetName("participants")},
		{Keys: bson.D{{Key: "participants_key", Value: 1}}, Options: unique().SetName("uniq_participants_key")},
		{Keys: bson.D{{Key: "last_message_at", Value: -1}}, Options: options.Index().SetName("last_message")},
	})
}

func ensureKarmaEvents(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("karma_events"), []mongo.IndexModel{
		// the one-shot award guard
		{Keys: bson.D{{Key: "entity_id", Value: 1}, {Key: "kind", Value: 1}, {Key: "subject_id", Value: 1}}, Options: unique().SetName("uniq_entity_kind_subject")},
		{Keys: bson.D{{Key: "subject_id", Value: 1}, {Key: "created_at", Value: -1}}, Options: options.Index().SetName("subject_created")},
	})
}

func ensureOutbox(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("notification_outbox"), []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "next_attempt_at", Value: 1}}, Options: options.Index().SetName("status_next_attempt")},
		{Keys: bson.D{{Key: "dedupe_id", Value: 1}}, Options: unique().SetName("uniq_dedupe")},
	})
}
