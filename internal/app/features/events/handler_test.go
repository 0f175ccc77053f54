package events_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/helplink/internal/app/features/events"
	"github.com/dalemusser/helplink/internal/app/notify"
	outboxstore "github.com/dalemusser/helplink/internal/app/store/outbox"
	userstore "github.com/dalemusser/helplink/internal/app/store/users"
	"github.com/dalemusser/helplink/internal/domain/models"
	"github.com/dalemusser/helplink/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newTestRouter(t *testing.T) (chi.Router, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	dispatcher := notify.NewDispatcher(outboxstore.New(db), logger)
	handler := events.NewHandler(db, dispatcher, logger)

	r := chi.NewRouter()
	r.Route("/events", handler.MountRoutes)
	return r, db
}

func do(t *testing.T, r chi.Router, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	req := testutil.NewJSONRequest(t, method, target, body)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeEvent(t *testing.T, rec *httptest.ResponseRecorder) models.Event {
	t.Helper()
	env := testutil.DecodeEnvelope(t, rec)
	if !env.Success {
		t.Fatalf("response not successful: %s", rec.Body.String())
	}
	var e models.Event
	if err := json.Unmarshal(env.Data, &e); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	return e
}

func TestCreate(t *testing.T) {
	r, db := newTestRouter(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	organizer := fx.CreateUser(ctx, "uid-ev-create", "evcreate")

	rec := do(t, r, http.MethodPost, "/events", map[string]any{
		"auth_uid":          organizer.AuthUID,
		"title":             "River cleanup",
		"description":       "Bring gloves",
		"category":          "Environment",
		"event_date":        time.Now().Add(72 * time.Hour).Format(time.RFC3339),
		"volunteers_needed": 10,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status: got %d, want 201: %s", rec.Code, rec.Body.String())
	}
	ev := decodeEvent(t, rec)
	if ev.Status != models.EventUpcoming {
		t.Errorf("status after create: got %q, want %q", ev.Status, models.EventUpcoming)
	}

	// A past date or missing capacity is rejected.
	rec = do(t, r, http.MethodPost, "/events", map[string]any{
		"auth_uid":    organizer.AuthUID,
		"title":       "No capacity",
		"description": "d",
		"category":    "Social",
		"event_date":  time.Now().Add(72 * time.Hour).Format(time.RFC3339),
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("zero capacity status: got %d, want 400: %s", rec.Code, rec.Body.String())
	}
}

func TestVolunteerAndAttendance(t *testing.T) {
	r, db := newTestRouter(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)

	organizer := fx.CreateUser(ctx, "uid-ev-organizer", "evorganizer")
	volunteer := fx.CreateUser(ctx, "uid-ev-volunteer", "evvolunteer")
	ev := fx.CreateEvent(ctx, organizer.ID, "Shelter shift", time.Now().Add(24*time.Hour))

	rec := do(t, r, http.MethodPost, "/events/"+ev.ID.Hex()+"/volunteer", map[string]any{
		"auth_uid": volunteer.AuthUID,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("volunteer status: got %d: %s", rec.Code, rec.Body.String())
	}
	joined := decodeEvent(t, rec)
	if !joined.HasVolunteer(volunteer.ID) {
		t.Fatal("volunteer missing from event")
	}

	rec = do(t, r, http.MethodPost, "/events/"+ev.ID.Hex()+"/volunteer", map[string]any{
		"auth_uid": volunteer.AuthUID,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("repeat volunteer status: got %d, want 400: %s", rec.Code, rec.Body.String())
	}

	// Only the organizer may mark attendance.
	rec = do(t, r, http.MethodPost, "/events/"+ev.ID.Hex()+"/attendance", map[string]any{
		"auth_uid":      volunteer.AuthUID,
		"volunteer_uid": volunteer.AuthUID,
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("non-organizer attendance status: got %d, want 403: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, r, http.MethodPost, "/events/"+ev.ID.Hex()+"/attendance", map[string]any{
		"auth_uid":      organizer.AuthUID,
		"volunteer_uid": volunteer.AuthUID,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("attendance status: got %d: %s", rec.Code, rec.Body.String())
	}

	u, err := userstore.New(db).GetByAuthUID(ctx, volunteer.AuthUID)
	if err != nil {
		t.Fatalf("load volunteer: %v", err)
	}
	if u.Karma != models.KarmaVolunteerAttended {
		t.Errorf("volunteer karma: got %d, want %d", u.Karma, models.KarmaVolunteerAttended)
	}

	// Marking attendance again must not double the award.
	rec = do(t, r, http.MethodPost, "/events/"+ev.ID.Hex()+"/attendance", map[string]any{
		"auth_uid":      organizer.AuthUID,
		"volunteer_uid": volunteer.AuthUID,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("repeat attendance status: got %d: %s", rec.Code, rec.Body.String())
	}
	u, err = userstore.New(db).GetByAuthUID(ctx, volunteer.AuthUID)
	if err != nil {
		t.Fatalf("load volunteer: %v", err)
	}
	if u.Karma != models.KarmaVolunteerAttended {
		t.Errorf("volunteer karma after repeat: got %d, want %d", u.Karma, models.KarmaVolunteerAttended)
	}
}

func TestAttendance_UnregisteredVolunteer(t *testing.T) {
	r, db := newTestRouter(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)

	organizer := fx.CreateUser(ctx, "uid-ev-att-organizer", "evattorganizer")
	stranger := fx.CreateUser(ctx, "uid-ev-att-stranger", "evattstranger")
	ev := fx.CreateEvent(ctx, organizer.ID, "Empty roster", time.Now().Add(24*time.Hour))

	rec := do(t, r, http.MethodPost, "/events/"+ev.ID.Hex()+"/attendance", map[string]any{
		"auth_uid":      organizer.AuthUID,
		"volunteer_uid": stranger.AuthUID,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unregistered attendance status: got %d, want 400: %s", rec.Code, rec.Body.String())
	}
}

func TestCancel_OrganizerOnly(t *testing.T) {
	r, db := newTestRouter(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)

	organizer := fx.CreateUser(ctx, "uid-ev-cancel-organizer", "evcancelorganizer")
	volunteer := fx.CreateUser(ctx, "uid-ev-cancel-volunteer", "evcancelvolunteer")
	ev := fx.CreateEvent(ctx, organizer.ID, "Cancelled event", time.Now().Add(24*time.Hour))

	rec := do(t, r, http.MethodPost, "/events/"+ev.ID.Hex()+"/cancel", map[string]any{
		"auth_uid": volunteer.AuthUID,
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("non-organizer cancel status: got %d, want 403: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, r, http.MethodPost, "/events/"+ev.ID.Hex()+"/cancel", map[string]any{
		"auth_uid": organizer.AuthUID,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("cancel status: got %d: %s", rec.Code, rec.Body.String())
	}
	cancelled := decodeEvent(t, rec)
	if cancelled.Status != models.EventCancelled {
		t.Errorf("status after cancel: got %q, want %q", cancelled.Status, models.EventCancelled)
	}

	rec = do(t, r, http.MethodPost, "/events/"+ev.ID.Hex()+"/cancel", map[string]any{
		"auth_uid": organizer.AuthUID,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("repeat cancel status: got %d, want 400: %s", rec.Code, rec.Body.String())
	}
}
