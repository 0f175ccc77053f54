// internal/app/features/users/routes.go
package users

import "github.com/go-chi/chi/v5"

// MountRoutes mounts all user routes on the given router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.Upsert)
	r.Get("/leaderboard", h.Leaderboard)
	r.Get("/{authUID}", h.Get)
	r.Patch("/{authUID}/karma", h.AdjustKarma)
}
