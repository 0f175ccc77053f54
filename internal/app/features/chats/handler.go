// internal/app/features/chats/handler.go
package chats

import (
	"context"
	"errors"
	"net/http"

	chatstore "github.com/dalemusser/helplink/internal/app/store/chats"
	userstore "github.com/dalemusser/helplink/internal/app/store/users"
	"github.com/dalemusser/helplink/internal/app/system/apierr"
	"github.com/dalemusser/helplink/internal/app/system/apiutil"
	"github.com/dalemusser/helplink/internal/app/system/identity"
	"github.com/dalemusser/helplink/internal/app/system/sanitize"
	"github.com/dalemusser/helplink/internal/app/system/timeouts"
	"github.com/dalemusser/helplink/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler owns the chat REST endpoints and the websocket relay.
type Handler struct {
	Users *userstore.Store
	Chats *chatstore.Store
	Hub   *Hub
	Log   *zap.Logger
}

// NewHandler constructs a chats Handler with its relay hub.
func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		Users: userstore.New(db),
		Chats: chatstore.New(db),
		Hub:   NewHub(logger),
		Log:   logger,
	}
}

type createRequest struct {
	AuthUID  string `json:"auth_uid"`
	OtherUID string `json:"other_uid"`
}

// Create handles POST /chats: create-or-get the conversation between two
// users. Participant order does not matter; the same pair always resolves
// to the same chat.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.Fail(w, h.Log, err)
		return
	}
	if req.AuthUID == req.OtherUID {
		apiutil.Fail(w, h.Log, apierr.Invalid("cannot start a chat with yourself"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if _, err := identity.Resolve(ctx, h.Users, req.AuthUID); err != nil {
		apiutil.Fail(w, h.Log, err)
		return
	}
	if _, err := identity.Resolve(ctx, h.Users, req.OtherUID); err != nil {
		apiutil.Fail(w, h.Log, err)
		return
	}

	chat, err := h.Chats.CreateOrGet(ctx, req.AuthUID, req.OtherUID)
	if err != nil {
		apiutil.Fail(w, h.Log, apierr.Server("failed to open chat", err))
		return
	}
	apiutil.OK(w, "", chat)
}

// ListForUser handles GET /chats/user/{authUID}.
func (h *Handler) ListForUser(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := identity.Resolve(ctx, h.Users, chi.URLParam(r, "authUID"))
	if err != nil {
		apiutil.Fail(w, h.Log, err)
		return
	}

	chats, err := h.Chats.ListForUser(ctx, u.AuthUID)
	if err != nil {
		apiutil.Fail(w, h.Log, apierr.Server("failed to list chats", err))
		return
	}
	apiutil.OK(w, "", chats)
}

// Messages handles GET /chats/{chatID}/messages. Participants only; this is
// also how reconnecting websocket clients catch up on history.
func (h *Handler) Messages(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	chat, err := h.loadParticipantChat(ctx, r, r.URL.Query().Get("auth_uid"))
	if err != nil {
		apiutil.Fail(w, h.Log, err)
		return
	}
	apiutil.OK(w, "", chat.Messages)
}

type messageRequest struct {
	AuthUID string `json:"auth_uid"`
	Body    string `json:"body"`
}

// PostMessage handles POST /chats/{chatID}/messages: the REST fallback for
// sending. The message is stored first and broadcast to any joined websocket
// clients after.
func (h *Handler) PostMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.Fail(w, h.Log, err)
		return
	}
	body := sanitize.Text(req.Body)
	if body == "" {
		apiutil.Fail(w, h.Log, apierr.Invalid("message body is required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	chat, err := h.loadParticipantChat(ctx, r, req.AuthUID)
	if err != nil {
		apiutil.Fail(w, h.Log, err)
		return
	}

	msg, err := h.Chats.AppendMessage(ctx, chat.ID, req.AuthUID, body)
	if err != nil {
		apiutil.Fail(w, h.Log, apierr.Server("failed to send message", err))
		return
	}

	h.Hub.Broadcast(chat.ID.Hex(), wsFrame{
		Event:   "receive_message",
		ChatID:  chat.ID.Hex(),
		Message: &msg,
	})

	apiutil.Created(w, "message sent", msg)
}

// loadParticipantChat loads the chat from the URL and requires authUID to be
// one of its two participants.
func (h *Handler) loadParticipantChat(ctx context.Context, r *http.Request, authUID string) (*models.Chat, error) {
	if authUID == "" {
		return nil, apierr.Invalid("auth_uid is required")
	}
	id, err := apiutil.PathID(r, "chatID")
	if err != nil {
		return nil, err
	}
	chat, err := h.Chats.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apierr.NotFound("chat not found")
		}
		return nil, apierr.Server("failed to load chat", err)
	}
	if !chat.HasParticipant(authUID) {
		return nil, apierr.Unauthorized("not a participant of this chat")
	}
	return chat, nil
}
