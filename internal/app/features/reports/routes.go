// internal/app/features/reports/routes.go
package reports

import "github.com/go-chi/chi/v5"

// MountRoutes mounts the report routes on the given router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Post("/{id}/verify", h.Verify)
}
