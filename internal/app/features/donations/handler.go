// internal/app/features/donations/handler.go
package donations

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/helplink/internal/app/notify"
	donationstore "github.com/dalemusser/helplink/internal/app/store/donations"
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

// Handler owns all donation endpoints.
type Handler struct {
	Users     *userstore.Store
	Donations *donationstore.Store
	Karma     *karmastore.Store
	Notify    *notify.Dispatcher
	Log       *zap.Logger
}

// NewHandler constructs a donations Handler.
func NewHandler(db *mongo.Database, dispatcher *notify.Dispatcher, logger *zap.Logger) *Handler {
	return &Handler{
		Users:     userstore.New(db),
		Donations: donationstore.New(db),
		Karma:     karmastore.New(db),
		Notify:    dispatcher,
		Log:       logger,
	}
}

type createRequest struct {
	AuthUID     string   `json:"auth_uid"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Images      []string `json:"images"`
	Lng         float64  `json:"lng"`
	Lat         float64  `json:"lat"`
	Address     string   `json:"address"`
}

// Create handles POST /donations. The donor earns donation karma once per
// donation, tracked in the award ledger.
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
	if !models.ValidDonationCategory(req.Category) {
		apiutil.Fail(w, h.Log, apierr.Invalid("unknown category"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	donor, err := identity.Resolve(ctx, h.Users, req.AuthUID)
	if err != nil {
		apiutil.Fail(w, h.Log, err)
		return
	}

	d, err := h.Donations.Create(ctx, models.Donation{
		UserID:      donor.ID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Images:      req.Images,
		Location:    models.NewGeoPoint(req.Lng, req.Lat, sanitize.Text(req.Address)),
	})
	if err != nil {
		apiutil.Fail(w, h.Log, apierr.Server("failed to create donation", err))
		return
	}

	if _, _, err := h.Karma.Award(ctx, d.ID, models.AwardDonationCreated, donor.ID, models.KarmaDonationCreated); err != nil {
		h.Log.Error("award donation karma", zap.String("donation_id", d.ID.Hex()), zap.Error(err))
	}
	h.Notify.Broadcast(ctx, donor.AuthUID, "New donation", d.Title, map[string]string{
		"type": "donation",
		"id":   d.ID.Hex(),
	})

	apiutil.Created(w, "donation created", d)
}

// List handles GET /donations with status/category filters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	p := paging.Parse(r)
	f := donationstore.ListFilter{
		Status:   query.Get(r, "status"),
		Category: query.Get(r, "category"),
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rows, total, err := h.Donations.List(ctx, f, p.Limit64(), p.Skip())
	if err != nil {
		apiutil.Fail(w, h.Log, apierr.Server("failed to list donations", err))
		return
	}
	apiutil.List(w, rows, len(rows), total, p.Page, p.Pages(total))
}

// Get handles GET /donations/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.Fail(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	d, err := h.Donations.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			apiutil.Fail(w, h.Log, apierr.NotFound("donation not found"))
			return
		}
		apiutil.Fail(w, h.Log, apierr.Server("failed to load donation", err))
		return
	}
	apiutil.OK(w, "", d)
}

type actorRequest struct {
	AuthUID string `json:"auth_uid"`
}

// Claim handles POST /donations/{id}/claim. A donor may not claim their own
// donation; the conditional update lets only one claimant reserve it.
func (h *Handler) Claim(w http.ResponseWriter, r *http.Request) {
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

	claimant, err := identity.Resolve(ctx, h.Users, req.AuthUID)
	if err != nil {
		apiutil.Fail(w, h.Log, err)
		return
	}

	existing, err := h.Donations.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			apiutil.Fail(w, h.Log, apierr.NotFound("donation not found"))
			return
		}
		apiutil.Fail(w, h.Log, apierr.Server("failed to load donation", err))
		return
	}
	if existing.UserID == claimant.ID {
		apiutil.Fail(w, h.Log, apierr.Unauthorized("you cannot claim your own donation"))
		return
	}

	d, err := h.Donations.Claim(ctx, id, claimant.ID)
	if err != nil {
		if errors.Is(err, donationstore.ErrNotAvailable) {
			apiutil.Fail(w, h.Log, apierr.InvalidTransition("donation is no longer available"))
			return
		}
		if errors.Is(err, mongo.ErrNoDocuments) {
			apiutil.Fail(w, h.Log, apierr.NotFound("donation not found"))
			return
		}
		apiutil.Fail(w, h.Log, apierr.Server("failed to claim donation", err))
		return
	}

	h.notifyDonor(ctx, d.UserID, "Your donation was claimed",
		claimant.Username+" claimed \""+d.Title+"\"", d.ID)

	apiutil.OK(w, "donation claimed", d)
}

// Complete handles POST /donations/{id}/complete. Donor only; marks a
// reserved donation handed over.
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

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	donor, err := identity.Resolve(ctx, h.Users, req.AuthUID)
	if err != nil {
		apiutil.Fail(w, h.Log, err)
		return
	}

	existing, err := h.Donations.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			apiutil.Fail(w, h.Log, apierr.NotFound("donation not found"))
			return
		}
		apiutil.Fail(w, h.Log, apierr.Server("failed to load donation", err))
		return
	}
	if existing.UserID != donor.ID {
		apiutil.Fail(w, h.Log, apierr.Unauthorized("only the donor may complete a donation"))
		return
	}

	d, err := h.Donations.Complete(ctx, id)
	if err != nil {
		if errors.Is(err, donationstore.ErrNotReserved) {
			apiutil.Fail(w, h.Log, apierr.InvalidTransition("only claimed donations can be completed"))
			return
		}
		if errors.Is(err, mongo.ErrNoDocuments) {
			apiutil.Fail(w, h.Log, apierr.NotFound("donation not found"))
			return
		}
		apiutil.Fail(w, h.Log, apierr.Server("failed to complete donation", err))
		return
	}

	if d.RecipientID != nil {
		h.notifyDonor(ctx, *d.RecipientID, "Donation received",
			"\""+d.Title+"\" was marked donated", d.ID)
	}
	apiutil.OK(w, "donation completed", d)
}

func (h *Handler) notifyDonor(ctx context.Context, userID primitive.ObjectID, title, body string, donationID primitive.ObjectID) {
	target, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		h.Log.Error("load notification target", zap.String("user_id", userID.Hex()), zap.Error(err))
		return
	}
	h.Notify.Notify(ctx, target.AuthUID, title, body, map[string]string{
		"type": "donation",
		"id":   donationID.Hex(),
	})
}
