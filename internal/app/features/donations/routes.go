// internal/app/features/donations/routes.go
package donations

import "github.com/go-chi/chi/v5"

// MountRoutes mounts all donation routes on the given router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Post("/{id}/claim", h.Claim)
	r.Post("/{id}/complete", h.Complete)
}
