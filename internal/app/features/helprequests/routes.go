// internal/app/features/helprequests/routes.go
package helprequests

import "github.com/go-chi/chi/v5"

// MountRoutes mounts all help request routes on the given router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/nearby", h.Nearby)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Post("/{id}/accept", h.Accept)
	r.Post("/{id}/complete", h.Complete)
	r.Post("/{id}/cancel", h.Cancel)
}
