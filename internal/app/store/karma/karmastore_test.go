package karmastore_test

import (
	"testing"

	karmastore "github.com/dalemusser/helplink/internal/app/store/karma"
	"github.com/dalemusser/helplink/internal/domain/models"
	"github.com/dalemusser/helplink/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestAward_OneShot(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	store := karmastore.New(db)

	user := fx.CreateUser(ctx, "uid-award", "awardee")
	entity := primitive.NewObjectID()

	total, awarded, err := store.Award(ctx, entity, models.AwardRequestCreated, user.ID, models.KarmaRequestCreated)
	if err != nil {
		t.Fatalf("Award() error: %v", err)
	}
	if !awarded {
		t.Fatal("first Award() should report awarded")
	}
	if total != models.KarmaRequestCreated {
		t.Errorf("new total: got %d, want %d", total, models.KarmaRequestCreated)
	}

	// The same (entity, kind, subject) must never pay twice.
	_, awarded, err = store.Award(ctx, entity, models.AwardRequestCreated, user.ID, models.KarmaRequestCreated)
	if err != nil {
		t.Fatalf("repeat Award() error: %v", err)
	}
	if awarded {
		t.Error("repeat Award() should be a no-op")
	}

	sum, err := store.SumForUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("SumForUser() error: %v", err)
	}
	if sum != models.KarmaRequestCreated {
		t.Errorf("ledger sum: got %d, want %d", sum, models.KarmaRequestCreated)
	}
}

func TestAward_DistinctKindsAccumulate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	store := karmastore.New(db)

	user := fx.CreateUser(ctx, "uid-kinds", "kinds")
	entity := primitive.NewObjectID()

	if _, _, err := store.Award(ctx, entity, models.AwardRequestAccepted, user.ID, models.KarmaRequestAccepted); err != nil {
		t.Fatalf("accept award error: %v", err)
	}
	total, _, err := store.Award(ctx, entity, models.AwardRequestCompleted, user.ID, models.KarmaRequestCompleted)
	if err != nil {
		t.Fatalf("complete award error: %v", err)
	}
	want := models.KarmaRequestAccepted + models.KarmaRequestCompleted
	if total != want {
		t.Errorf("total after both awards: got %d, want %d", total, want)
	}
}

func TestAdjust_NegativeAndRepeatable(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	store := karmastore.New(db)

	user := fx.CreateUser(ctx, "uid-adjust", "adjust")

	if _, err := store.Adjust(ctx, user.ID, 10); err != nil {
		t.Fatalf("Adjust(+10) error: %v", err)
	}
	total, err := store.Adjust(ctx, user.ID, -3)
	if err != nil {
		t.Fatalf("Adjust(-3) error: %v", err)
	}
	if total != 7 {
		t.Errorf("total after adjustments: got %d, want 7", total)
	}

	// Unlike lifecycle awards, each adjustment is a fresh ledger row.
	if total, err = store.Adjust(ctx, user.ID, -3); err != nil {
		t.Fatalf("repeat Adjust(-3) error: %v", err)
	}
	if total != 4 {
		t.Errorf("total after repeated adjustment: got %d, want 4", total)
	}
}

func TestHistoryForUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	store := karmastore.New(db)

	user := fx.CreateUser(ctx, "uid-history", "history")

	if _, _, err := store.Award(ctx, primitive.NewObjectID(), models.AwardDonationCreated, user.ID, models.KarmaDonationCreated); err != nil {
		t.Fatalf("Award() error: %v", err)
	}
	if _, _, err := store.Award(ctx, primitive.NewObjectID(), models.AwardReportVerified, user.ID, models.KarmaReportVerified); err != nil {
		t.Fatalf("Award() error: %v", err)
	}

	events, err := store.HistoryForUser(ctx, user.ID, 10)
	if err != nil {
		t.Fatalf("HistoryForUser() error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("history length: got %d, want 2", len(events))
	}
	for _, ev := range events {
		if ev.SubjectID != user.ID {
			t.Errorf("event subject: got %s, want %s", ev.SubjectID.Hex(), user.ID.Hex())
		}
	}
}
