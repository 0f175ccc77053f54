package notify_test

import (
	"testing"

	"github.com/dalemusser/helplink/internal/app/notify"
	outboxstore "github.com/dalemusser/helplink/internal/app/store/outbox"
	"github.com/dalemusser/helplink/internal/domain/models"
	"github.com/dalemusser/helplink/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func TestDispatcher_EnqueuesAudiences(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := outboxstore.New(db)
	d := notify.NewDispatcher(store, zap.NewNop())

	d.Broadcast(ctx, "uid-actor", "New help request", "Need a ride", map[string]string{"type": "help_request"})
	d.Notify(ctx, "uid-helper", "Request accepted", "On my way", nil)

	count, err := store.PendingCount(ctx)
	if err != nil {
		t.Fatalf("PendingCount() error: %v", err)
	}
	if count != 2 {
		t.Fatalf("pending: got %d, want 2", count)
	}

	outbox := db.Collection("notification_outbox")

	var broadcast models.OutboxItem
	if err := outbox.FindOne(ctx, bson.M{"audience.kind": models.AudienceAllExcept}).Decode(&broadcast); err != nil {
		t.Fatalf("load broadcast item: %v", err)
	}
	if broadcast.Audience.AuthUID != "uid-actor" {
		t.Errorf("broadcast excluded uid: got %q", broadcast.Audience.AuthUID)
	}
	if broadcast.DedupeID == "" {
		t.Error("broadcast item missing dedupe id")
	}

	var direct models.OutboxItem
	if err := outbox.FindOne(ctx, bson.M{"audience.kind": models.AudienceUser}).Decode(&direct); err != nil {
		t.Fatalf("load direct item: %v", err)
	}
	if direct.Audience.AuthUID != "uid-helper" {
		t.Errorf("direct target uid: got %q", direct.Audience.AuthUID)
	}
	if direct.Title != "Request accepted" {
		t.Errorf("direct title: got %q", direct.Title)
	}
}
