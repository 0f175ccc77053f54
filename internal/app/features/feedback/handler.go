// internal/app/features/feedback/handler.go
package feedback

import (
	"context"
	"errors"
	"math"
	"net/http"

	feedbackstore "github.com/dalemusser/helplink/internal/app/store/feedback"
	helprequeststore "github.com/dalemusser/helplink/internal/app/store/helprequests"
	karmastore "github.com/dalemusser/helplink/internal/app/store/karma"
	userstore "github.com/dalemusser/helplink/internal/app/store/users"
	"github.com/dalemusser/helplink/internal/app/system/apierr"
	"github.com/dalemusser/helplink/internal/app/system/apiutil"
	"github.com/dalemusser/helplink/internal/app/system/identity"
	"github.com/dalemusser/helplink/internal/app/system/sanitize"
	"github.com/dalemusser/helplink/internal/app/system/timeouts"
	"github.com/dalemusser/helplink/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler owns the feedback endpoints.
type Handler struct {
	Users    *userstore.Store
	Requests *helprequeststore.Store
	Feedback *feedbackstore.Store
	Karma    *karmastore.Store
	Log      *zap.Logger
}

// NewHandler constructs a feedback Handler.
func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		Users:    userstore.New(db),
		Requests: helprequeststore.New(db),
		Feedback: feedbackstore.New(db),
		Karma:    karmastore.New(db),
		Log:      logger,
	}
}

type createRequest struct {
	AuthUID       string `json:"auth_uid"`
	HelpRequestID string `json:"help_request_id"`
	Rating        int    `json:"rating"`
	Comment       string `json:"comment"`
}

// Create handles POST /feedback. Only the two parties of a help request may
// rate each other, and each party rates once. A rating at or above the
// positive threshold earns the ratee karma, once per (request, ratee).
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.Fail(w, h.Log, err)
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		apiutil.Fail(w, h.Log, apierr.Invalid("rating must be between 1 and 5"))
		return
	}
	requestID, err := primitive.ObjectIDFromHex(req.HelpRequestID)
	if err != nil {
		apiutil.Fail(w, h.Log, apierr.Invalid("invalid help_request_id"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rater, err := identity.Resolve(ctx, h.Users, req.AuthUID)
	if err != nil {
		apiutil.Fail(w, h.Log, err)
		return
	}

	hr, err := h.Requests.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			apiutil.Fail(w, h.Log, apierr.NotFound("help request not found"))
			return
		}
		apiutil.Fail(w, h.Log, apierr.Server("failed to load help request", err))
		return
	}
	if hr.Status != models.RequestInProgress && hr.Status != models.RequestCompleted {
		apiutil.Fail(w, h.Log, apierr.InvalidTransition("feedback requires an accepted help request"))
		return
	}

	// The ratee is the counterpart: owner rates helper, helper rates owner.
	var rateeID primitive.ObjectID
	switch {
	case hr.UserID == rater.ID:
		if hr.HelperID == nil {
			apiutil.Fail(w, h.Log, apierr.Invalid("help request has no helper to rate"))
			return
		}
		rateeID = *hr.HelperID
	case hr.HelperID != nil && *hr.HelperID == rater.ID:
		rateeID = hr.UserID
	default:
		apiutil.Fail(w, h.Log, apierr.Unauthorized("only the request owner or helper may leave feedback"))
		return
	}

	fb, err := h.Feedback.Create(ctx, models.Feedback{
		HelpRequestID: requestID,
		FromUserID:    rater.ID,
		ToUserID:      rateeID,
		Rating:        req.Rating,
		Comment:       sanitize.Text(req.Comment),
	})
	if err != nil {
		if errors.Is(err, feedbackstore.ErrDuplicateFeedback) {
			apiutil.Fail(w, h.Log, apierr.Duplicate("feedback already submitted for this help request"))
			return
		}
		apiutil.Fail(w, h.Log, apierr.Server("failed to save feedback", err))
		return
	}

	if fb.Rating >= models.PositiveFeedbackThreshold {
		if _, _, err := h.Karma.Award(ctx, requestID, models.AwardPositiveFeedback, rateeID, models.KarmaPositiveFeedback); err != nil {
			h.Log.Error("award feedback karma", zap.String("request_id", requestID.Hex()), zap.Error(err))
		}
	}

	apiutil.Created(w, "feedback submitted", fb)
}

// ListForUser handles GET /feedback/user/{authUID}: the feedback a user has
// received, with their average rating to one decimal.
func (h *Handler) ListForUser(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, err := identity.Resolve(ctx, h.Users, chi.URLParam(r, "authUID"))
	if err != nil {
		apiutil.Fail(w, h.Log, err)
		return
	}

	rows, err := h.Feedback.ListForUser(ctx, u.ID)
	if err != nil {
		apiutil.Fail(w, h.Log, apierr.Server("failed to list feedback", err))
		return
	}
	avg, count, err := h.Feedback.AverageRating(ctx, u.ID)
	if err != nil {
		apiutil.Fail(w, h.Log, apierr.Server("failed to compute average rating", err))
		return
	}

	apiutil.OK(w, "", map[string]any{
		"feedback":       rows,
		"average_rating": math.Round(avg*10) / 10,
		"count":          count,
	})
}
