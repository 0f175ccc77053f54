// internal/app/features/chats/routes.go
package chats

import "github.com/go-chi/chi/v5"

// MountRoutes mounts the chat REST and websocket routes on the given router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/ws", h.ServeWS)
	r.Get("/user/{authUID}", h.ListForUser)
	r.Get("/{chatID}/messages", h.Messages)
	r.Post("/{chatID}/messages", h.PostMessage)
}
