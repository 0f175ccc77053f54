// internal/app/features/events/routes.go
package events

import "github.com/go-chi/chi/v5"

// MountRoutes mounts all event routes on the given router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Post("/{id}/volunteer", h.Volunteer)
	r.Post("/{id}/attendance", h.Attendance)
	r.Post("/{id}/cancel", h.Cancel)
}
