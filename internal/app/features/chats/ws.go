// internal/app/features/chats/ws.go
//
// Websocket relay for chat. Clients exchange JSON frames: join_chat /
// send_message / leave_chat inbound, receive_message / error outbound.
// A send_message frame is appended to the chat document first; only after
// that insert succeeds is receive_message fanned out to the room.
package chats

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/dalemusser/helplink/internal/app/system/metrics"
	"github.com/dalemusser/helplink/internal/app/system/sanitize"
	"github.com/dalemusser/helplink/internal/app/system/timeouts"
	"github.com/dalemusser/helplink/internal/domain/models"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxFrameBytes  = 8 << 10
	sendQueueDepth = 32
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4 << 10,
	WriteBufferSize: 4 << 10,
	// Identity is app-level; the API is origin-agnostic like the rest of it.
	CheckOrigin: func(*http.Request) bool { return true },
}

// wsFrame is the single frame shape used in both directions; unused fields
// are omitted per event.
type wsFrame struct {
	Event   string              `json:"event"`
	ChatID  string              `json:"chat_id,omitempty"`
	AuthUID string              `json:"auth_uid,omitempty"`
	Body    string              `json:"body,omitempty"`
	Message *models.ChatMessage `json:"message,omitempty"`
	Error   string              `json:"error,omitempty"`
}

type client struct {
	id     string
	conn   *websocket.Conn
	joined map[string]struct{}

	mu     sync.Mutex
	send   chan wsFrame
	closed bool
}

// trySend queues a frame, returning false when the outbound queue is full.
// A frame for an already-closed client is silently dropped.
func (c *client) trySend(frame wsFrame) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return true
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// close shuts the send channel; writePump closes the connection when the
// channel drains.
func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// ServeWS handles GET /chats/ws.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{
		id:     uuid.NewString(),
		conn:   conn,
		send:   make(chan wsFrame, sendQueueDepth),
		joined: make(map[string]struct{}),
	}
	metrics.ChatConnections.Inc()
	h.Log.Info("chat client connected",
		zap.String("client_id", c.id),
		zap.String("remote_addr", r.RemoteAddr))

	go h.writePump(c)
	h.readPump(c)
}

func (h *Handler) readPump(c *client) {
	defer func() {
		h.Hub.drop(c)
		c.close()
		metrics.ChatConnections.Dec()
		h.Log.Info("chat client disconnected", zap.String("client_id", c.id))
	}()

	c.conn.SetReadLimit(maxFrameBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var frame wsFrame
		if err := c.conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.Log.Warn("chat read failed", zap.String("client_id", c.id), zap.Error(err))
			}
			return
		}

		switch frame.Event {
		case "join_chat":
			h.handleJoin(c, frame)
		case "leave_chat":
			h.Hub.leave(frame.ChatID, c)
		case "send_message":
			h.handleSend(c, frame)
		default:
			c.sendError("unknown event")
		}
	}
}

func (h *Handler) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteControl(websocket.CloseMessage, []byte{}, time.Now().Add(writeWait))
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(frame); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// handleJoin verifies the chat exists and the uid belongs to it before
// adding the client to the room.
func (h *Handler) handleJoin(c *client, frame wsFrame) {
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Short())
	defer cancel()

	chat, err := h.loadChatFor(ctx, frame.ChatID, frame.AuthUID)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	h.Hub.join(chat.ID.Hex(), c)
}

// handleSend persists the message, then broadcasts it. A persistence failure
// is reported only to the sender; nothing is fanned out.
func (h *Handler) handleSend(c *client, frame wsFrame) {
	body := sanitize.Text(frame.Body)
	if body == "" {
		c.sendError("message body is required")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Medium())
	defer cancel()

	chat, err := h.loadChatFor(ctx, frame.ChatID, frame.AuthUID)
	if err != nil {
		c.sendError(err.Error())
		return
	}

	msg, err := h.Chats.AppendMessage(ctx, chat.ID, frame.AuthUID, body)
	if err != nil {
		h.Log.Error("persist chat message",
			zap.String("chat_id", chat.ID.Hex()),
			zap.Error(err))
		c.sendError("failed to send message")
		return
	}

	h.Hub.Broadcast(chat.ID.Hex(), wsFrame{
		Event:   "receive_message",
		ChatID:  chat.ID.Hex(),
		Message: &msg,
	})
}

func (h *Handler) loadChatFor(ctx context.Context, chatID, authUID string) (*models.Chat, error) {
	if authUID == "" {
		return nil, errors.New("auth_uid is required")
	}
	id, err := primitive.ObjectIDFromHex(chatID)
	if err != nil {
		return nil, errors.New("invalid chat_id")
	}
	chat, err := h.Chats.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errors.New("chat not found")
		}
		return nil, errors.New("failed to load chat")
	}
	if !chat.HasParticipant(authUID) {
		return nil, errors.New("not a participant of this chat")
	}
	return chat, nil
}

func (c *client) sendError(msg string) {
	c.trySend(wsFrame{Event: "error", Error: msg})
}
