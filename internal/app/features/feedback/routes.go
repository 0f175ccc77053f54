// internal/app/features/feedback/routes.go
package feedback

import "github.com/go-chi/chi/v5"

// MountRoutes mounts the feedback routes on the given router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/user/{authUID}", h.ListForUser)
}
