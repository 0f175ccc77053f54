// internal/app/features/reports/handler.go
package reports

import (
	"context"
	"errors"
	"net/http"

	donationstore "github.com/dalemusser/helplink/internal/app/store/donations"
	eventstore "github.com/dalemusser/helplink/internal/app/store/events"
	helprequeststore "github.com/dalemusser/helplink/internal/app/store/helprequests"
	karmastore "github.com/dalemusser/helplink/internal/app/store/karma"
	reportstore "github.com/dalemusser/helplink/internal/app/store/reports"
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

// Handler owns the content report endpoints.
type Handler struct {
	Users     *userstore.Store
	Reports   *reportstore.Store
	Requests  *helprequeststore.Store
	Donations *donationstore.Store
	Events    *eventstore.Store
	Karma     *karmastore.Store
	Log       *zap.Logger
}

// NewHandler constructs a reports Handler.
func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		Users:     userstore.New(db),
		Reports:   reportstore.New(db),
		Requests:  helprequeststore.New(db),
		Donations: donationstore.New(db),
		Events:    eventstore.New(db),
		Karma:     karmastore.New(db),
		Log:       logger,
	}
}

type createRequest struct {
	AuthUID     string `json:"auth_uid"`
	ContentKind string `json:"content_kind"`
	ContentID   string `json:"content_id"`
	Reason      string `json:"reason"`
	Description string `json:"description"`
}

// Create handles POST /reports. The reported content must exist; a reporter
// may flag each content item once.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.Fail(w, h.Log, err)
		return
	}
	kind := models.ContentKind(req.ContentKind)
	if !models.ValidContentKind(kind) {
		apiutil.Fail(w, h.Log, apierr.Invalid("unknown content_kind"))
		return
	}
	if !models.ValidReportReason(req.Reason) {
		apiutil.Fail(w, h.Log, apierr.Invalid("unknown reason"))
		return
	}
	contentID, err := primitive.ObjectIDFromHex(req.ContentID)
	if err != nil {
		apiutil.Fail(w, h.Log, apierr.Invalid("invalid content_id"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	reporter, err := identity.Resolve(ctx, h.Users, req.AuthUID)
	if err != nil {
		apiutil.Fail(w, h.Log, err)
		return
	}

	if err := h.contentExists(ctx, kind, contentID); err != nil {
		apiutil.Fail(w, h.Log, err)
		return
	}

	rep, err := h.Reports.Create(ctx, models.Report{
		ReporterID:  reporter.ID,
		Content:     models.ContentRef{Kind: kind, ID: contentID},
		Reason:      req.Reason,
		Description: sanitize.Text(req.Description),
	})
	if err != nil {
		if errors.Is(err, reportstore.ErrDuplicateReport) {
			apiutil.Fail(w, h.Log, apierr.Duplicate("you have already reported this content"))
			return
		}
		apiutil.Fail(w, h.Log, apierr.Server("failed to save report", err))
		return
	}

	apiutil.Created(w, "report submitted", rep)
}

// List handles GET /reports with an optional status filter.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	p := paging.Parse(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rows, total, err := h.Reports.List(ctx, query.Get(r, "status"), p.Limit64(), p.Skip())
	if err != nil {
		apiutil.Fail(w, h.Log, apierr.Server("failed to list reports", err))
		return
	}
	apiutil.List(w, rows, len(rows), total, p.Page, p.Pages(total))
}

type verifyRequest struct {
	AuthUID  string `json:"auth_uid"`
	Verified bool   `json:"verified"`
}

// Verify handles POST /reports/{id}/verify. The decision is a conditional
// update, so a report is decided once; verification karma for the reporter
// goes through the ledger and stays one-shot even under a repeated verify.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	id, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.Fail(w, h.Log, err)
		return
	}
	var req verifyRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.Fail(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	reviewer, err := identity.Resolve(ctx, h.Users, req.AuthUID)
	if err != nil {
		apiutil.Fail(w, h.Log, err)
		return
	}

	rep, err := h.Reports.Decide(ctx, id, reviewer.ID, req.Verified)
	if err != nil {
		if errors.Is(err, reportstore.ErrAlreadyDecided) {
			apiutil.Fail(w, h.Log, apierr.InvalidTransition("report has already been reviewed"))
			return
		}
		if errors.Is(err, mongo.ErrNoDocuments) {
			apiutil.Fail(w, h.Log, apierr.NotFound("report not found"))
			return
		}
		apiutil.Fail(w, h.Log, apierr.Server("failed to review report", err))
		return
	}

	if rep.Status == models.ReportVerified {
		if _, _, err := h.Karma.Award(ctx, rep.ID, models.AwardReportVerified, rep.ReporterID, models.KarmaReportVerified); err != nil {
			h.Log.Error("award report karma", zap.String("report_id", rep.ID.Hex()), zap.Error(err))
		}
	}

	apiutil.OK(w, "report reviewed", rep)
}

// contentExists checks the reported reference against its collection.
func (h *Handler) contentExists(ctx context.Context, kind models.ContentKind, id primitive.ObjectID) error {
	var err error
	switch kind {
	case models.ContentHelpRequest:
		_, err = h.Requests.GetByID(ctx, id)
	case models.ContentUser:
		_, err = h.Users.GetByID(ctx, id)
	case models.ContentDonation:
		_, err = h.Donations.GetByID(ctx, id)
	case models.ContentEvent:
		_, err = h.Events.GetByID(ctx, id)
	}
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return apierr.NotFound("reported content not found")
		}
		return apierr.Server("failed to load reported content", err)
	}
	return nil
}
