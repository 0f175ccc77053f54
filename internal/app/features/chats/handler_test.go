package chats_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/helplink/internal/app/features/chats"
	"github.com/dalemusser/helplink/internal/domain/models"
	"github.com/dalemusser/helplink/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newTestRouter(t *testing.T) (chi.Router, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	handler := chats.NewHandler(db, zap.NewNop())

	r := chi.NewRouter()
	r.Route("/chats", handler.MountRoutes)
	return r, db
}

func do(t *testing.T, r chi.Router, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	req := testutil.NewJSONRequest(t, method, target, body)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeChat(t *testing.T, rec *httptest.ResponseRecorder) models.Chat {
	t.Helper()
	env := testutil.DecodeEnvelope(t, rec)
	if !env.Success {
		t.Fatalf("response not successful: %s", rec.Body.String())
	}
	var c models.Chat
	if err := json.Unmarshal(env.Data, &c); err != nil {
		t.Fatalf("decode chat: %v", err)
	}
	return c
}

func TestCreate_SamePairSameChat(t *testing.T) {
	r, db := newTestRouter(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)

	fx.CreateUser(ctx, "uid-chat-a", "chata")
	fx.CreateUser(ctx, "uid-chat-b", "chatb")

	rec := do(t, r, http.MethodPost, "/chats", map[string]any{
		"auth_uid":  "uid-chat-a",
		"other_uid": "uid-chat-b",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("create status: got %d: %s", rec.Code, rec.Body.String())
	}
	first := decodeChat(t, rec)

	// The reversed pair lands on the same conversation.
	rec = do(t, r, http.MethodPost, "/chats", map[string]any{
		"auth_uid":  "uid-chat-b",
		"other_uid": "uid-chat-a",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("reversed create status: got %d: %s", rec.Code, rec.Body.String())
	}
	second := decodeChat(t, rec)
	if second.ID != first.ID {
		t.Error("reversed pair opened a different chat")
	}

	// Self-chat and unknown users are rejected.
	rec = do(t, r, http.MethodPost, "/chats", map[string]any{
		"auth_uid":  "uid-chat-a",
		"other_uid": "uid-chat-a",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("self-chat status: got %d, want 400", rec.Code)
	}
	rec = do(t, r, http.MethodPost, "/chats", map[string]any{
		"auth_uid":  "uid-chat-a",
		"other_uid": "uid-chat-ghost",
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown counterpart status: got %d, want 404", rec.Code)
	}
}

func TestMessages_ParticipantsOnly(t *testing.T) {
	r, db := newTestRouter(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)

	fx.CreateUser(ctx, "uid-msg-a", "msga")
	fx.CreateUser(ctx, "uid-msg-b", "msgb")
	fx.CreateUser(ctx, "uid-msg-outsider", "msgoutsider")

	rec := do(t, r, http.MethodPost, "/chats", map[string]any{
		"auth_uid":  "uid-msg-a",
		"other_uid": "uid-msg-b",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("create status: got %d: %s", rec.Code, rec.Body.String())
	}
	chat := decodeChat(t, rec)

	rec = do(t, r, http.MethodPost, "/chats/"+chat.ID.Hex()+"/messages", map[string]any{
		"auth_uid": "uid-msg-a",
		"body":     "hello!",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("post message status: got %d, want 201: %s", rec.Code, rec.Body.String())
	}

	// Outsiders can neither send nor read.
	rec = do(t, r, http.MethodPost, "/chats/"+chat.ID.Hex()+"/messages", map[string]any{
		"auth_uid": "uid-msg-outsider",
		"body":     "let me in",
	})
	if rec.Code != http.StatusForbidden {
		t.Errorf("outsider post status: got %d, want 403: %s", rec.Code, rec.Body.String())
	}
	rec = do(t, r, http.MethodGet, "/chats/"+chat.ID.Hex()+"/messages?auth_uid=uid-msg-outsider", nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("outsider read status: got %d, want 403: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, r, http.MethodGet, "/chats/"+chat.ID.Hex()+"/messages?auth_uid=uid-msg-b", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("read status: got %d: %s", rec.Code, rec.Body.String())
	}
	env := testutil.DecodeEnvelope(t, rec)
	var msgs []models.ChatMessage
	if err := json.Unmarshal(env.Data, &msgs); err != nil {
		t.Fatalf("decode messages: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Body != "hello!" || msgs[0].SenderID != "uid-msg-a" {
		t.Errorf("messages: got %+v", msgs)
	}

	// Empty bodies are rejected.
	rec = do(t, r, http.MethodPost, "/chats/"+chat.ID.Hex()+"/messages", map[string]any{
		"auth_uid": "uid-msg-a",
		"body":     "   ",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("blank body status: got %d, want 400", rec.Code)
	}
}

func TestListForUser(t *testing.T) {
	r, db := newTestRouter(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)

	fx.CreateUser(ctx, "uid-inbox", "inbox")
	fx.CreateUser(ctx, "uid-peer-1", "peerone")
	fx.CreateUser(ctx, "uid-peer-2", "peertwo")

	for _, peer := range []string{"uid-peer-1", "uid-peer-2"} {
		rec := do(t, r, http.MethodPost, "/chats", map[string]any{
			"auth_uid":  "uid-inbox",
			"other_uid": peer,
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("create status: got %d: %s", rec.Code, rec.Body.String())
		}
	}

	rec := do(t, r, http.MethodGet, "/chats/user/uid-inbox", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status: got %d: %s", rec.Code, rec.Body.String())
	}
	env := testutil.DecodeEnvelope(t, rec)
	var list []models.Chat
	if err := json.Unmarshal(env.Data, &list); err != nil {
		t.Fatalf("decode chats: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("chats for user: got %d, want 2", len(list))
	}
}
