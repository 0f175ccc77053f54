package health

import (
	"context"
	"encoding/json"
	"net/http"

	outboxstore "github.com/dalemusser/helplink/internal/app/store/outbox"
	"github.com/dalemusser/helplink/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Handler holds dependencies needed for health checks.
type Handler struct {
	Client *mongo.Client
	Outbox *outboxstore.Store
	Log    *zap.Logger
}

// NewHandler constructs a health Handler with the Mongo client and logger.
func NewHandler(client *mongo.Client, outbox *outboxstore.Store, logger *zap.Logger) *Handler {
	return &Handler{
		Client: client,
		Outbox: outbox,
		Log:    logger,
	}
}

// healthResponse is the JSON structure for the health check response.
type healthResponse struct {
	Status               string `json:"status"`
	Database             string `json:"database"`
	PendingNotifications int64  `json:"pending_notifications"`
	Message              string `json:"message,omitempty"`
	Error                string `json:"error,omitempty"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "database":"connected", "pending_notifications":0 }
//
// On DB failure: 503 and
//
//	{ "status":"error", "message":"Database unavailable", "error":"…"}
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	w.Header().Set("Content-Type", "application/json")

	resp := healthResponse{
		Status:   "ok",
		Database: "connected",
	}

	if err := h.Client.Ping(ctx, readpref.Primary()); err != nil {
		h.Log.Error("health-check: mongo ping failed", zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		resp.Status = "error"
		resp.Database = "disconnected"
		resp.Message = "Database unavailable"
		resp.Error = err.Error()
		_ = json.NewEncoder(w).Encode(resp)
		return
	}

	// Queue depth is informational; a failure here does not fail the check.
	if n, err := h.Outbox.PendingCount(ctx); err == nil {
		resp.PendingNotifications = n
	}

	_ = json.NewEncoder(w).Encode(resp)
}
