// internal/app/features/helprequests/handler.go
package helprequests

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/helplink/internal/app/notify"
	helprequeststore "github.com/dalemusser/helplink/internal/app/store/helprequests"
	karmastore "github.com/dalemusser/helplink/internal/app/store/karma"
	userstore "github.com/dalemusser/helplink/internal/app/store/users"
	"github.com/dalemusser/helplink/internal/app/system/apierr"
	"github.com/dalemusser/helplink/internal/app/system/apiutil"
	"github.com/dalemusser/helplink/internal/app/system/identity"
	"github.com/dalemusser/helplink/internal/app/system/sanitize"
	"github.com/dalemusser/helplink/internal/app/system/timeouts"
	"github.com/dalemusser/helplink/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler owns all help request endpoints.
type Handler struct {
	Users    *userstore.Store
	Requests *helprequeststore.Store
	Karma    *karmastore.Store
	Notify   *notify.Dispatcher
	Log      *zap.Logger
}

// NewHandler constructs a help requests Handler.
func NewHandler(db *mongo.Database, dispatcher *notify.Dispatcher, logger *zap.Logger) *Handler {
	return &Handler{
		Users:    userstore.New(db),
		Requests: helprequeststore.New(db),
		Karma:    karmastore.New(db),
		Notify:   dispatcher,
		Log:      logger,
	}
}

type locationInput struct {
	Lng     float64 `json:"lng"`
	Lat     float64 `json:"lat"`
	Address string  `json:"address"`
}

type createRequest struct {
	AuthUID     string         `json:"auth_uid"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Category    string         `json:"category"`
	Urgency     string         `json:"urgency"`
	Location    *locationInput `json:"location"`
	Images      []string       `json:"images"`
}

// Create handles POST /help-requests. The owner earns creation karma once
// per request, tracked in the award ledger.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.Fail(w, h.Log, err)
		return
	}

	req.Title = sanitize.Text(req.Title)
	req.Description = sanitize.Text(req.Description)
	if req.Title == "" || req.Description == "" {
		apiutil.Fail(w, h.Log, apierr.Invalid("title and description are required"))
		return
	}
	if !models.ValidRequestCategory(req.Category) {
		apiutil.Fail(w, h.Log, apierr.Invalid("unknown category"))
		return
	}
	if req.Urgency != "" && !models.ValidRequestUrgency(req.Urgency) {
		apiutil.Fail(w, h.Log, apierr.Invalid("unknown urgency"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	owner, err := identity.Resolve(ctx, h.Users, req.AuthUID)
	if err != nil {
		apiutil.Fail(w, h.Log, err)
		return
	}

	hr := models.HelpRequest{
		UserID:      owner.ID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Urgency:     req.Urgency,
		Images:      req.Images,
	}
	if req.Location != nil {
		hr.Location = models.NewGeoPoint(req.Location.Lng, req.Location.Lat, sanitize.Text(req.Location.Address))
	}

	hr, err = h.Requests.Create(ctx, hr)
	if err != nil {
		apiutil.Fail(w, h.Log, apierr.Server("failed to create help request", err))
		return
	}

	// The request is durable; karma and counters are side effects that are
	// retried on the next award rather than failing the create.
	if _, _, err := h.Karma.Award(ctx, hr.ID, models.AwardRequestCreated, owner.ID, models.KarmaRequestCreated); err != nil {
		h.Log.Error("award creation karma", zap.String("request_id", hr.ID.Hex()), zap.Error(err))
	}
	if err := h.Users.IncrementRequestCounters(ctx, owner.ID, 1, 0); err != nil {
		h.Log.Error("increment created counter", zap.Error(err))
	}

	h.Notify.Broadcast(ctx, owner.AuthUID, "New help request", hr.Title, map[string]string{
		"type": "help_request",
		"id":   hr.ID.Hex(),
	})

	apiutil.Created(w, "help request created", hr)
}

// Get handles GET /help-requests/{id}. Each fetch counts a view.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.Fail(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	hr, err := h.Requests.GetAndCountView(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			apiutil.Fail(w, h.Log, apierr.NotFound("help request not found"))
			return
		}
		apiutil.Fail(w, h.Log, apierr.Server("failed to load help request", err))
		return
	}
	apiutil.OK(w, "", hr)
}

type updateRequest struct {
	AuthUID     string         `json:"auth_uid"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Category    string         `json:"category"`
	Urgency     string         `json:"urgency"`
	Location    *locationInput `json:"location"`
	Images      []string       `json:"images"`
}

// Update handles PUT /help-requests/{id}. Owner only, and only while the
// request is still Open.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.Fail(w, h.Log, err)
		return
	}
	var req updateRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.Fail(w, h.Log, err)
		return
	}
	if req.Category != "" && !models.ValidRequestCategory(req.Category) {
		apiutil.Fail(w, h.Log, apierr.Invalid("unknown category"))
		return
	}
	if req.Urgency != "" && !models.ValidRequestUrgency(req.Urgency) {
		apiutil.Fail(w, h.Log, apierr.Invalid("unknown urgency"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if _, _, err := h.loadAsOwner(ctx, id, req.AuthUID); err != nil {
		apiutil.Fail(w, h.Log, err)
		return
	}

	p := helprequeststore.UpdateParams{
		Title:       sanitize.Text(req.Title),
		Description: sanitize.Text(req.Description),
		Category:    req.Category,
		Urgency:     req.Urgency,
		Images:      req.Images,
	}
	if req.Location != nil {
		loc := models.NewGeoPoint(req.Location.Lng, req.Location.Lat, sanitize.Text(req.Location.Address))
		p.Location = &loc
	}

	hr, err := h.Requests.Update(ctx, id, p)
	if err != nil {
		if errors.Is(err, helprequeststore.ErrNotEditable) {
			apiutil.Fail(w, h.Log, apierr.InvalidTransition("only open help requests can be edited"))
			return
		}
		apiutil.Fail(w, h.Log, apierr.Server("failed to update help request", err))
		return
	}
	apiutil.OK(w, "help request updated", hr)
}

// Delete handles DELETE /help-requests/{id}. Owner only; the creation
// counter is rolled back but ledgered karma stays, matching the
// append-only history.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.Fail(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	owner, _, err := h.loadAsOwner(ctx, id, r.URL.Query().Get("auth_uid"))
	if err != nil {
		apiutil.Fail(w, h.Log, err)
		return
	}

	if err := h.Requests.Delete(ctx, id); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			apiutil.Fail(w, h.Log, apierr.NotFound("help request not found"))
			return
		}
		apiutil.Fail(w, h.Log, apierr.Server("failed to delete help request", err))
		return
	}
	if err := h.Users.IncrementRequestCounters(ctx, owner.ID, -1, 0); err != nil {
		h.Log.Error("decrement created counter", zap.Error(err))
	}
	apiutil.OK(w, "help request deleted", nil)
}

// loadAsOwner resolves the actor and the request, requiring the actor to be
// its owner.
func (h *Handler) loadAsOwner(ctx context.Context, id primitive.ObjectID, authUID string) (*models.User, *models.HelpRequest, error) {
	actor, err := identity.Resolve(ctx, h.Users, authUID)
	if err != nil {
		return nil, nil, err
	}
	hr, err := h.Requests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil, apierr.NotFound("help request not found")
		}
		return nil, nil, apierr.Server("failed to load help request", err)
	}
	if hr.UserID != actor.ID {
		return nil, nil, apierr.Unauthorized("only the request owner may do this")
	}
	return actor, hr, nil
}
