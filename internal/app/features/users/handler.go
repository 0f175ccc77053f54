// internal/app/features/users/handler.go
package users

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	karmastore "github.com/dalemusser/helplink/internal/app/store/karma"
	userstore "github.com/dalemusser/helplink/internal/app/store/users"
	"github.com/dalemusser/helplink/internal/app/system/apierr"
	"github.com/dalemusser/helplink/internal/app/system/apiutil"
	"github.com/dalemusser/helplink/internal/app/system/identity"
	"github.com/dalemusser/helplink/internal/app/system/sanitize"
	"github.com/dalemusser/helplink/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler owns all user endpoints.
type Handler struct {
	Users *userstore.Store
	Karma *karmastore.Store
	Log   *zap.Logger
}

// NewHandler constructs a users Handler.
func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		Users: userstore.New(db),
		Karma: karmastore.New(db),
		Log:   logger,
	}
}

type upsertRequest struct {
	AuthUID      string `json:"auth_uid"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	Mobile       string `json:"mobile"`
	ProfileImage string `json:"profile_image"`
}

// Upsert handles POST /users. Called on every sign-in; creates the user on
// first sight and refreshes the profile afterwards.
func (h *Handler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req upsertRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.Fail(w, h.Log, err)
		return
	}
	if req.AuthUID == "" {
		apiutil.Fail(w, h.Log, apierr.Invalid("auth_uid is required"))
		return
	}
	if req.Email == "" {
		apiutil.Fail(w, h.Log, apierr.Invalid("email is required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, created, err := h.Users.Upsert(ctx, userstore.UpsertParams{
		AuthUID:      req.AuthUID,
		Username:     sanitize.Text(req.Username),
		Email:        req.Email,
		Mobile:       sanitize.Text(req.Mobile),
		ProfileImage: req.ProfileImage,
	})
	if err != nil {
		if errors.Is(err, userstore.ErrDuplicateEmail) {
			apiutil.Fail(w, h.Log, apierr.Duplicate("a user with this email already exists"))
			return
		}
		apiutil.Fail(w, h.Log, apierr.Server("failed to save user", err))
		return
	}

	if created {
		apiutil.Created(w, "user created", u)
		return
	}
	apiutil.OK(w, "user updated", u)
}

// Get handles GET /users/{authUID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := identity.Resolve(ctx, h.Users, chi.URLParam(r, "authUID"))
	if err != nil {
		apiutil.Fail(w, h.Log, err)
		return
	}
	apiutil.OK(w, "", u)
}

type adjustKarmaRequest struct {
	Delta  int    `json:"delta"`
	Reason string `json:"reason"`
}

// AdjustKarma handles PATCH /users/{authUID}/karma, the corrective admin
// path. Every adjustment lands in the ledger like any other award, so the
// history stays reconstructable.
func (h *Handler) AdjustKarma(w http.ResponseWriter, r *http.Request) {
	var req adjustKarmaRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.Fail(w, h.Log, err)
		return
	}
	if req.Delta == 0 {
		apiutil.Fail(w, h.Log, apierr.Invalid("delta must be non-zero"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := identity.Resolve(ctx, h.Users, chi.URLParam(r, "authUID"))
	if err != nil {
		apiutil.Fail(w, h.Log, err)
		return
	}

	total, err := h.Karma.Adjust(ctx, u.ID, req.Delta)
	if err != nil {
		apiutil.Fail(w, h.Log, apierr.Server("failed to adjust karma", err))
		return
	}

	h.Log.Info("karma adjusted",
		zap.String("auth_uid", u.AuthUID),
		zap.Int("delta", req.Delta),
		zap.String("reason", req.Reason))
	apiutil.OK(w, "karma adjusted", map[string]int{"karma": total})
}

// Leaderboard handles GET /users/leaderboard.
func (h *Handler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := int64(10)
	if s := query.Get(r, "limit"); s != "" {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	users, err := h.Users.Leaderboard(ctx, limit)
	if err != nil {
		apiutil.Fail(w, h.Log, apierr.Server("failed to load leaderboard", err))
		return
	}
	apiutil.OK(w, "", users)
}
