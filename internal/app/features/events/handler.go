// internal/app/features/events/handler.go
package events

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dalemusser/helplink/internal/app/notify"
	eventstore "github.com/dalemusser/helplink/internal/app/store/events"
	karmastore "github.com/dalemusser/helplink/internal/app/store/karma"
	userstore "github.com/dalemusser/helplink/internal/app/store/users"
	"github.com/dalemusser/helplink/internal/app/system/apierr"
	"github.com/dalemusser/helplink/internal/app/system/apiutil"
	"github.com/dalemusser/helplink/internal/app/system/identity"
	"github.com/dalemusser/helplink/internal/app/system/paging"
	"github.com/dalemusser/helplink/internal/app/system/sanitize"
	"github.com/dalemusser/helplink/internal/app/system/timeouts"
	"github.com/dalemusser/helplink/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler owns all volunteer event endpoints.
type Handler struct {
	Users  *userstore.Store
	Events *eventstore.Store
	Karma  *karmastore.Store
	Notify *notify.Dispatcher
	Log    *zap.Logger
}

// NewHandler constructs an events Handler.
func NewHandler(db *mongo.Database, dispatcher *notify.Dispatcher, logger *zap.Logger) *Handler {
	return &Handler{
		Users:  userstore.New(db),
		Events: eventstore.New(db),
		Karma:  karmastore.New(db),
		Notify: dispatcher,
		Log:    logger,
	}
}

type createRequest struct {
	AuthUID          string    `json:"auth_uid"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	Category         string    `json:"category"`
	EventDate        time.Time `json:"event_date"`
	VolunteersNeeded int       `json:"volunteers_needed"`
	Images           []string  `json:"images"`
	Lng              float64   `json:"lng"`
	Lat              float64   `json:"lat"`
	Address          string    `json:"address"`
}

// Create handles POST /events.
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
	if !models.ValidEventCategory(req.Category) {
		apiutil.Fail(w, h.Log, apierr.Invalid("unknown category"))
		return
	}
	if req.EventDate.IsZero() {
		apiutil.Fail(w, h.Log, apierr.Invalid("event_date is required"))
		return
	}
	if req.VolunteersNeeded <= 0 {
		apiutil.Fail(w, h.Log, apierr.Invalid("volunteers_needed must be positive"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	organizer, err := identity.Resolve(ctx, h.Users, req.AuthUID)
	if err != nil {
		apiutil.Fail(w, h.Log, err)
		return
	}

	ev, err := h.Events.Create(ctx, models.Event{
		OrganizerID:      organizer.ID,
		Title:            req.Title,
		Description:      req.Description,
		Category:         req.Category,
		EventDate:        req.EventDate.UTC(),
		VolunteersNeeded: req.VolunteersNeeded,
		Images:           req.Images,
		Location:         models.NewGeoPoint(req.Lng, req.Lat, sanitize.Text(req.Address)),
	})
	if err != nil {
		apiutil.Fail(w, h.Log, apierr.Server("failed to create event", err))
		return
	}

	h.Notify.Broadcast(ctx, organizer.AuthUID, "New volunteer event", ev.Title, map[string]string{
		"type": "event",
		"id":   ev.ID.Hex(),
	})

	apiutil.Created(w, "event created", ev)
}

// List handles GET /events with status/category filters, soonest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	p := paging.Parse(r)
	f := eventstore.ListFilter{
		Status:   query.Get(r, "status"),
		Category: query.Get(r, "category"),
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rows, total, err := h.Events.List(ctx, f, p.Limit64(), p.Skip())
	if err != nil {
		apiutil.Fail(w, h.Log, apierr.Server("failed to list events", err))
		return
	}
	apiutil.List(w, rows, len(rows), total, p.Page, p.Pages(total))
}

// Get handles GET /events/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.Fail(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	ev, err := h.Events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			apiutil.Fail(w, h.Log, apierr.NotFound("event not found"))
			return
		}
		apiutil.Fail(w, h.Log, apierr.Server("failed to load event", err))
		return
	}
	apiutil.OK(w, "", ev)
}

type actorRequest struct {
	AuthUID string `json:"auth_uid"`
}

// Volunteer handles POST /events/{id}/volunteer. The guarded push in the
// store keeps a user from registering twice.
func (h *Handler) Volunteer(w http.ResponseWriter, r *http.Request) {
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

	volunteer, err := identity.Resolve(ctx, h.Users, req.AuthUID)
	if err != nil {
		apiutil.Fail(w, h.Log, err)
		return
	}

	ev, err := h.Events.RegisterVolunteer(ctx, id, volunteer.ID)
	if err != nil {
		if errors.Is(err, eventstore.ErrAlreadyRegistered) {
			apiutil.Fail(w, h.Log, apierr.Duplicate("you are already registered for this event"))
			return
		}
		if errors.Is(err, mongo.ErrNoDocuments) {
			apiutil.Fail(w, h.Log, apierr.NotFound("event not found"))
			return
		}
		apiutil.Fail(w, h.Log, apierr.Server("failed to register volunteer", err))
		return
	}

	h.notifyUser(ctx, ev.OrganizerID, "New volunteer",
		volunteer.Username+" registered for \""+ev.Title+"\"", ev.ID)

	apiutil.OK(w, "registered as volunteer", ev)
}

type attendanceRequest struct {
	AuthUID      string `json:"auth_uid"`
	VolunteerUID string `json:"volunteer_uid"`
}

// Attendance handles POST /events/{id}/attendance. Organizer only. Marking
// the same volunteer twice is harmless: the attended flag is already set and
// the ledger swallows the repeat award.
func (h *Handler) Attendance(w http.ResponseWriter, r *http.Request) {
	id, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.Fail(w, h.Log, err)
		return
	}
	var req attendanceRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.Fail(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	organizer, err := identity.Resolve(ctx, h.Users, req.AuthUID)
	if err != nil {
		apiutil.Fail(w, h.Log, err)
		return
	}
	volunteer, err := identity.Resolve(ctx, h.Users, req.VolunteerUID)
	if err != nil {
		apiutil.Fail(w, h.Log, err)
		return
	}

	existing, err := h.Events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			apiutil.Fail(w, h.Log, apierr.NotFound("event not found"))
			return
		}
		apiutil.Fail(w, h.Log, apierr.Server("failed to load event", err))
		return
	}
	if existing.OrganizerID != organizer.ID {
		apiutil.Fail(w, h.Log, apierr.Unauthorized("only the organizer may mark attendance"))
		return
	}

	ev, err := h.Events.MarkAttendance(ctx, id, volunteer.ID)
	if err != nil {
		if errors.Is(err, eventstore.ErrVolunteerNotFound) {
			apiutil.Fail(w, h.Log, apierr.Invalid("user is not registered for this event"))
			return
		}
		apiutil.Fail(w, h.Log, apierr.Server("failed to mark attendance", err))
		return
	}

	if _, _, err := h.Karma.Award(ctx, ev.ID, models.AwardVolunteerAttended, volunteer.ID, models.KarmaVolunteerAttended); err != nil {
		h.Log.Error("award attendance karma", zap.String("event_id", ev.ID.Hex()), zap.Error(err))
	}
	h.Notify.Notify(ctx, volunteer.AuthUID, "Attendance confirmed",
		"Thanks for volunteering at \""+ev.Title+"\"", map[string]string{
			"type": "event",
			"id":   ev.ID.Hex(),
		})

	apiutil.OK(w, "attendance marked", ev)
}

// Cancel handles POST /events/{id}/cancel. Organizer only.
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

	organizer, err := identity.Resolve(ctx, h.Users, req.AuthUID)
	if err != nil {
		apiutil.Fail(w, h.Log, err)
		return
	}

	existing, err := h.Events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			apiutil.Fail(w, h.Log, apierr.NotFound("event not found"))
			return
		}
		apiutil.Fail(w, h.Log, apierr.Server("failed to load event", err))
		return
	}
	if existing.OrganizerID != organizer.ID {
		apiutil.Fail(w, h.Log, apierr.Unauthorized("only the organizer may cancel an event"))
		return
	}

	ev, err := h.Events.Cancel(ctx, id)
	if err != nil {
		if errors.Is(err, eventstore.ErrNotCancellable) {
			apiutil.Fail(w, h.Log, apierr.InvalidTransition("event can no longer be cancelled"))
			return
		}
		apiutil.Fail(w, h.Log, apierr.Server("failed to cancel event", err))
		return
	}

	for _, v := range ev.Volunteers {
		h.notifyUser(ctx, v.UserID, "Event cancelled", "\""+ev.Title+"\" was cancelled", ev.ID)
	}

	apiutil.OK(w, "event cancelled", ev)
}

func (h *Handler) notifyUser(ctx context.Context, userID primitive.ObjectID, title, body string, eventID primitive.ObjectID) {
	target, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		h.Log.Error("load notification target", zap.String("user_id", userID.Hex()), zap.Error(err))
		return
	}
	h.Notify.Notify(ctx, target.AuthUID, title, body, map[string]string{
		"type": "event",
		"id":   eventID.Hex(),
	})
}
