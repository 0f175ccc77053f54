package helprequeststore_test

import (
	"errors"
	"sync"
	"testing"

	helprequeststore "github.com/dalemusser/helplink/internal/app/store/helprequests"
	"github.com/dalemusser/helplink/internal/domain/models"
	"github.com/dalemusser/helplink/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestAccept_ClaimsExactlyOnce(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	store := helprequeststore.New(db)

	owner := fx.CreateUser(ctx, "uid-owner", "owner")
	helperA := fx.CreateUser(ctx, "uid-helper-a", "helpera")
	helperB := fx.CreateUser(ctx, "uid-helper-b", "helperb")
	hr := fx.CreateHelpRequest(ctx, owner.ID, "Need a math tutor")

	got, err := store.Accept(ctx, hr.ID, helperA.ID)
	if err != nil {
		t.Fatalf("Accept() error: %v", err)
	}
	if got.Status != models.RequestInProgress {
		t.Errorf("status after accept: got %q, want %q", got.Status, models.RequestInProgress)
	}
	if got.HelperID == nil || *got.HelperID != helperA.ID {
		t.Error("helper id not recorded on accept")
	}

	if _, err := store.Accept(ctx, hr.ID, helperB.ID); !errors.Is(err, helprequeststore.ErrAlreadyClaimed) {
		t.Errorf("second Accept() error: got %v, want ErrAlreadyClaimed", err)
	}
}

func TestAccept_Concurrent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	store := helprequeststore.New(db)

	owner := fx.CreateUser(ctx, "uid-race-owner", "raceowner")
	hr := fx.CreateHelpRequest(ctx, owner.ID, "Grocery run")

	const racers = 8
	var wg sync.WaitGroup
	wins := make(chan primitive.ObjectID, racers)
	for i := 0; i < racers; i++ {
		helperID := primitive.NewObjectID()
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.Accept(ctx, hr.ID, helperID); err == nil {
				wins <- helperID
			}
		}()
	}
	wg.Wait()
	close(wins)

	var winners []primitive.ObjectID
	for id := range wins {
		winners = append(winners, id)
	}
	if len(winners) != 1 {
		t.Fatalf("concurrent accepts: got %d winners, want exactly 1", len(winners))
	}

	got, err := store.GetByID(ctx, hr.ID)
	if err != nil {
		t.Fatalf("GetByID() error: %v", err)
	}
	if got.HelperID == nil || *got.HelperID != winners[0] {
		t.Error("stored helper does not match the winning accept")
	}
}

func TestComplete_RequiresInProgress(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	store := helprequeststore.New(db)

	owner := fx.CreateUser(ctx, "uid-complete", "completer")
	hr := fx.CreateHelpRequest(ctx, owner.ID, "Ride to clinic")

	if _, err := store.Complete(ctx, hr.ID); !errors.Is(err, helprequeststore.ErrNotInProgress) {
		t.Fatalf("Complete() on open request: got %v, want ErrNotInProgress", err)
	}

	helper := fx.CreateUser(ctx, "uid-completer-helper", "completerhelper")
	if _, err := store.Accept(ctx, hr.ID, helper.ID); err != nil {
		t.Fatalf("Accept() error: %v", err)
	}
	got, err := store.Complete(ctx, hr.ID)
	if err != nil {
		t.Fatalf("Complete() error: %v", err)
	}
	if got.Status != models.RequestCompleted {
		t.Errorf("status after complete: got %q, want %q", got.Status, models.RequestCompleted)
	}
	if got.CompletedAt == nil {
		t.Error("completed_at not set")
	}
}

func TestCancel_TerminalStatesRejected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	store := helprequeststore.New(db)

	owner := fx.CreateUser(ctx, "uid-cancel", "canceller")
	helper := fx.CreateUser(ctx, "uid-cancel-helper", "cancelhelper")
	hr := fx.CreateHelpRequest(ctx, owner.ID, "Move some boxes")

	if _, err := store.Accept(ctx, hr.ID, helper.ID); err != nil {
		t.Fatalf("Accept() error: %v", err)
	}
	if _, err := store.Complete(ctx, hr.ID); err != nil {
		t.Fatalf("Complete() error: %v", err)
	}
	if _, err := store.Cancel(ctx, hr.ID); !errors.Is(err, helprequeststore.ErrNotCancellable) {
		t.Errorf("Cancel() on completed request: got %v, want ErrNotCancellable", err)
	}
}

func TestUpdate_OnlyWhileOpen(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	store := helprequeststore.New(db)

	owner := fx.CreateUser(ctx, "uid-update", "updater")
	helper := fx.CreateUser(ctx, "uid-update-helper", "updatehelper")
	hr := fx.CreateHelpRequest(ctx, owner.ID, "Old title")

	got, err := store.Update(ctx, hr.ID, helprequeststore.UpdateParams{Title: "New title", Urgency: "High"})
	if err != nil {
		t.Fatalf("Update() error: %v", err)
	}
	if got.Title != "New title" {
		t.Errorf("title: got %q, want %q", got.Title, "New title")
	}
	if got.Urgency != "High" {
		t.Errorf("urgency: got %q, want High", got.Urgency)
	}

	if _, err := store.Accept(ctx, hr.ID, helper.ID); err != nil {
		t.Fatalf("Accept() error: %v", err)
	}
	if _, err := store.Update(ctx, hr.ID, helprequeststore.UpdateParams{Title: "Too late"}); !errors.Is(err, helprequeststore.ErrNotEditable) {
		t.Errorf("Update() after accept: got %v, want ErrNotEditable", err)
	}
}

func TestTransitions_MissingRequest(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := helprequeststore.New(db)

	missing := primitive.NewObjectID()
	if _, err := store.Accept(ctx, missing, primitive.NewObjectID()); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("Accept() on missing id: got %v, want ErrNoDocuments", err)
	}
	if _, err := store.Complete(ctx, missing); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("Complete() on missing id: got %v, want ErrNoDocuments", err)
	}
}

func TestGetAndCountView(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	store := helprequeststore.New(db)

	owner := fx.CreateUser(ctx, "uid-views", "viewer")
	hr := fx.CreateHelpRequest(ctx, owner.ID, "Counted request")

	for i := 0; i < 3; i++ {
		if _, err := store.GetAndCountView(ctx, hr.ID); err != nil {
			t.Fatalf("GetAndCountView() error: %v", err)
		}
	}
	got, err := store.GetByID(ctx, hr.ID)
	if err != nil {
		t.Fatalf("GetByID() error: %v", err)
	}
	if got.Views != 3 {
		t.Errorf("views: got %d, want 3", got.Views)
	}
}

func TestList_FiltersByStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	store := helprequeststore.New(db)

	owner := fx.CreateUser(ctx, "uid-list", "lister")
	helper := fx.CreateUser(ctx, "uid-list-helper", "listhelper")
	open := fx.CreateHelpRequest(ctx, owner.ID, "Still open")
	claimed := fx.CreateHelpRequest(ctx, owner.ID, "Already claimed")
	if _, err := store.Accept(ctx, claimed.ID, helper.ID); err != nil {
		t.Fatalf("Accept() error: %v", err)
	}

	got, total, err := store.List(ctx, helprequeststore.ListFilter{Status: models.RequestOpen}, 10, 0)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if total != 1 || len(got) != 1 {
		t.Fatalf("open requests: got %d (total %d), want 1", len(got), total)
	}
	if got[0].ID != open.ID {
		t.Error("filtered list returned the wrong request")
	}
}
