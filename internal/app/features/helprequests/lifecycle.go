// internal/app/features/helprequests/lifecycle.go
//
// Status transitions for help requests. Each one is a conditional update in
// the store; the handlers here add ownership checks, karma awards, and
// notifications around the committed transition.
package helprequests

import (
	"context"
	"errors"
	"net/http"

	helprequeststore "github.com/dalemusser/helplink/internal/app/store/helprequests"
	"github.com/dalemusser/helplink/internal/app/system/apierr"
	"github.com/dalemusser/helplink/internal/app/system/apiutil"
	"github.com/dalemusser/helplink/internal/app/system/identity"
	"github.com/dalemusser/helplink/internal/app/system/timeouts"
	"github.com/dalemusser/helplink/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type actorRequest struct {
	AuthUID string `json:"auth_uid"`
}

// Accept handles POST /help-requests/{id}/accept. The conditional update in
// the store guarantees that of two racing accepts exactly one claims the
// request; the other gets AlreadyClaimed.
func (h *Handler) Accept(w http.ResponseWriter, r *http.Request) {
	id, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.Fail(w, h.Log, err)
		return
	}
	var req actorRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.Fail(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	helper, err := identity.Resolve(ctx, h.Users, req.AuthUID)
	if err != nil {
		apiutil.Fail(w, h.Log, err)
		return
	}

	existing, err := h.Requests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			apiutil.Fail(w, h.Log, apierr.NotFound("help request not found"))
			return
		}
		apiutil.Fail(w, h.Log, apierr.Server("failed to load help request", err))
		return
	}
	if existing.UserID == helper.ID {
		apiutil.Fail(w, h.Log, apierr.Unauthorized("you cannot accept your own help request"))
		return
	}

	hr, err := h.Requests.Accept(ctx, id, helper.ID)
	if err != nil {
		if errors.Is(err, helprequeststore.ErrAlreadyClaimed) {
			apiutil.Fail(w, h.Log, apierr.InvalidTransition("help request has already been claimed"))
			return
		}
		if errors.Is(err, mongo.ErrNoDocuments) {
			apiutil.Fail(w, h.Log, apierr.NotFound("help request not found"))
			return
		}
		apiutil.Fail(w, h.Log, apierr.Server("failed to accept help request", err))
		return
	}

	if _, _, err := h.Karma.Award(ctx, hr.ID, models.AwardRequestAccepted, helper.ID, models.KarmaRequestAccepted); err != nil {
		h.Log.Error("award accept karma", zap.String("request_id", hr.ID.Hex()), zap.Error(err))
	}
	h.notifyUser(ctx, hr.UserID, "Your help request was accepted",
		helper.Username+" accepted \""+hr.Title+"\"", hr.ID)

	apiutil.OK(w, "help request accepted", hr)
}

// Complete handles POST /help-requests/{id}/complete. Owner only; only an
// InProgress request can complete. When a helper is assigned they earn the
// completion karma and the fulfilled counter; a request that somehow reaches
// completion without a helper awards nothing.
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	id, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.Fail(w, h.Log, err)
		return
	}
	var req actorRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.Fail(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, _, err := h.loadAsOwner(ctx, id, req.AuthUID); err != nil {
		apiutil.Fail(w, h.Log, err)
		return
	}

	hr, err := h.Requests.Complete(ctx, id)
	if err != nil {
		if errors.Is(err, helprequeststore.ErrNotInProgress) {
			apiutil.Fail(w, h.Log, apierr.InvalidTransition("only in-progress help requests can be completed"))
			return
		}
		if errors.Is(err, mongo.ErrNoDocuments) {
			apiutil.Fail(w, h.Log, apierr.NotFound("help request not found"))
			return
		}
		apiutil.Fail(w, h.Log, apierr.Server("failed to complete help request", err))
		return
	}

	if hr.HelperID != nil {
		helperID := *hr.HelperID
		if _, _, err := h.Karma.Award(ctx, hr.ID, models.AwardRequestCompleted, helperID, models.KarmaRequestCompleted); err != nil {
			h.Log.Error("award completion karma", zap.String("request_id", hr.ID.Hex()), zap.Error(err))
		}
		if err := h.Users.IncrementRequestCounters(ctx, helperID, 0, 1); err != nil {
			h.Log.Error("increment fulfilled counter", zap.Error(err))
		}
		h.notifyUser(ctx, helperID, "Help request completed",
			"\""+hr.Title+"\" was marked completed", hr.ID)
	}

	apiutil.OK(w, "help request completed", hr)
}

// Cancel handles POST /help-requests/{id}/cancel. Owner only; allowed from
// Open or InProgress.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.Fail(w, h.Log, err)
		return
	}
	var req actorRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.Fail(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	_, existing, err := h.loadAsOwner(ctx, id, req.AuthUID)
	if err != nil {
		apiutil.Fail(w, h.Log, err)
		return
	}

	hr, err := h.Requests.Cancel(ctx, id)
	if err != nil {
		if errors.Is(err, helprequeststore.ErrNotCancellable) {
			apiutil.Fail(w, h.Log, apierr.InvalidTransition("help request can no longer be cancelled"))
			return
		}
		if errors.Is(err, mongo.ErrNoDocuments) {
			apiutil.Fail(w, h.Log, apierr.NotFound("help request not found"))
			return
		}
		apiutil.Fail(w, h.Log, apierr.Server("failed to cancel help request", err))
		return
	}

	if existing.HelperID != nil {
		h.notifyUser(ctx, *existing.HelperID, "Help request cancelled",
			"\""+hr.Title+"\" was cancelled by its owner", hr.ID)
	}

	apiutil.OK(w, "help request cancelled", hr)
}

// notifyUser looks up the target's auth uid and queues a single-user push.
func (h *Handler) notifyUser(ctx context.Context, userID primitive.ObjectID, title, body string, requestID primitive.ObjectID) {
	target, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		h.Log.Error("load notification target", zap.String("user_id", userID.Hex()), zap.Error(err))
		return
	}
	h.Notify.Notify(ctx, target.AuthUID, title, body, map[string]string{
		"type": "help_request",
		"id":   requestID.Hex(),
	})
}
