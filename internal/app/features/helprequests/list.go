// internal/app/features/helprequests/list.go
package helprequests

import (
	"context"
	"net/http"
	"strconv"

	helprequeststore "github.com/dalemusser/helplink/internal/app/store/helprequests"
	"github.com/dalemusser/helplink/internal/app/system/apierr"
	"github.com/dalemusser/helplink/internal/app/system/apiutil"
	"github.com/dalemusser/helplink/internal/app/system/paging"
	"github.com/dalemusser/helplink/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	defaultNearbyDistance = 5000 // meters
	nearbyLimit           = 20
)

// List handles GET /help-requests with status/category/user_id filters and
// limit/page paging.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	p := paging.Parse(r)

	f := helprequeststore.ListFilter{
		Status:   query.Get(r, "status"),
		Category: query.Get(r, "category"),
	}
	if s := query.Get(r, "user_id"); s != "" {
		id, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			apiutil.Fail(w, h.Log, apierr.Invalid("invalid user_id"))
			return
		}
		f.UserID = &id
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rows, total, err := h.Requests.List(ctx, f, p.Limit64(), p.Skip())
	if err != nil {
		apiutil.Fail(w, h.Log, apierr.Server("failed to list help requests", err))
		return
	}
	apiutil.List(w, rows, len(rows), total, p.Page, p.Pages(total))
}

// Nearby handles GET /help-requests/nearby?lng=&lat=&max_distance=.
// Only Open requests are returned, closest first.
func (h *Handler) Nearby(w http.ResponseWriter, r *http.Request) {
	lng, lngErr := strconv.ParseFloat(query.Get(r, "lng"), 64)
	lat, latErr := strconv.ParseFloat(query.Get(r, "lat"), 64)
	if lngErr != nil || latErr != nil {
		apiutil.Fail(w, h.Log, apierr.Invalid("lng and lat are required"))
		return
	}

	maxDistance := defaultNearbyDistance
	if s := query.Get(r, "max_distance"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			maxDistance = n
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rows, err := h.Requests.Nearby(ctx, lng, lat, maxDistance, nearbyLimit)
	if err != nil {
		apiutil.Fail(w, h.Log, apierr.Server("failed to search nearby help requests", err))
		return
	}
	apiutil.OK(w, "", rows)
}
