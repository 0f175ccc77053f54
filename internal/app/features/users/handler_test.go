package users_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/helplink/internal/app/features/users"
	"github.com/dalemusser/helplink/internal/domain/models"
	"github.com/dalemusser/helplink/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newTestRouter(t *testing.T) (chi.Router, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	handler := users.NewHandler(db, zap.NewNop())

	r := chi.NewRouter()
	r.Route("/users", handler.MountRoutes)
	return r, db
}

func do(t *testing.T, r chi.Router, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	req := testutil.NewJSONRequest(t, method, target, body)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestUpsert_CreateThenUpdate(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := do(t, r, http.MethodPost, "/users", map[string]any{
		"auth_uid": "uid-signin",
		"email":    "signin@example.com",
		"username": "Signin User",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("first sign-in status: got %d, want 201: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, r, http.MethodPost, "/users", map[string]any{
		"auth_uid": "uid-signin",
		"email":    "signin@example.com",
		"mobile":   "555-0101",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("second sign-in status: got %d, want 200: %s", rec.Code, rec.Body.String())
	}

	env := testutil.DecodeEnvelope(t, rec)
	var u models.User
	if err := json.Unmarshal(env.Data, &u); err != nil {
		t.Fatalf("decode user: %v", err)
	}
	if u.Mobile != "555-0101" {
		t.Errorf("mobile: got %q, want %q", u.Mobile, "555-0101")
	}

	// Missing auth_uid or email fails validation.
	rec = do(t, r, http.MethodPost, "/users", map[string]any{"email": "x@example.com"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing auth_uid status: got %d, want 400", rec.Code)
	}
	rec = do(t, r, http.MethodPost, "/users", map[string]any{"auth_uid": "uid-noemail"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing email status: got %d, want 400", rec.Code)
	}
}

func TestUpsert_DuplicateEmail(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := do(t, r, http.MethodPost, "/users", map[string]any{
		"auth_uid": "uid-email-a",
		"email":    "taken@example.com",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("first status: got %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, r, http.MethodPost, "/users", map[string]any{
		"auth_uid": "uid-email-b",
		"email":    "taken@example.com",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("taken email status: got %d, want 400: %s", rec.Code, rec.Body.String())
	}
}

func TestGet(t *testing.T) {
	r, db := newTestRouter(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)

	fx.CreateUser(ctx, "uid-profile", "profileuser")

	rec := do(t, r, http.MethodGet, "/users/uid-profile", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status: got %d: %s", rec.Code, rec.Body.String())
	}
	env := testutil.DecodeEnvelope(t, rec)
	var u models.User
	if err := json.Unmarshal(env.Data, &u); err != nil {
		t.Fatalf("decode user: %v", err)
	}
	if u.Username != "profileuser" {
		t.Errorf("username: got %q, want %q", u.Username, "profileuser")
	}

	rec = do(t, r, http.MethodGet, "/users/uid-missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing user status: got %d, want 404", rec.Code)
	}
}

func TestAdjustKarma(t *testing.T) {
	r, db := newTestRouter(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)

	fx.CreateUser(ctx, "uid-karma-adjust", "karmaadjust")

	rec := do(t, r, http.MethodPatch, "/users/uid-karma-adjust/karma", map[string]any{
		"delta":  10,
		"reason": "community award",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("adjust status: got %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, r, http.MethodPatch, "/users/uid-karma-adjust/karma", map[string]any{
		"delta":  -4,
		"reason": "correction",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("negative adjust status: got %d: %s", rec.Code, rec.Body.String())
	}
	env := testutil.DecodeEnvelope(t, rec)
	var payload struct {
		Karma int `json:"karma"`
	}
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.Karma != 6 {
		t.Errorf("karma after adjustments: got %d, want 6", payload.Karma)
	}

	// A zero delta is meaningless.
	rec = do(t, r, http.MethodPatch, "/users/uid-karma-adjust/karma", map[string]any{
		"delta": 0,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("zero delta status: got %d, want 400", rec.Code)
	}
}

func TestLeaderboard(t *testing.T) {
	r, db := newTestRouter(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)

	fx.CreateUser(ctx, "uid-board-low", "boardlow")
	fx.CreateUser(ctx, "uid-board-high", "boardhigh")

	rec := do(t, r, http.MethodPatch, "/users/uid-board-high/karma", map[string]any{
		"delta": 30, "reason": "seed",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("seed adjust status: got %d: %s", rec.Code, rec.Body.String())
	}
	rec = do(t, r, http.MethodPatch, "/users/uid-board-low/karma", map[string]any{
		"delta": 5, "reason": "seed",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("seed adjust status: got %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, r, http.MethodGet, "/users/leaderboard?limit=1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("leaderboard status: got %d: %s", rec.Code, rec.Body.String())
	}
	env := testutil.DecodeEnvelope(t, rec)
	var board []models.User
	if err := json.Unmarshal(env.Data, &board); err != nil {
		t.Fatalf("decode leaderboard: %v", err)
	}
	if len(board) != 1 {
		t.Fatalf("leaderboard size: got %d, want 1", len(board))
	}
	if board[0].AuthUID != "uid-board-high" {
		t.Errorf("leaderboard top: got %q, want uid-board-high", board[0].AuthUID)
	}
}
