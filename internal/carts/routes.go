package carts

import "github.com/go-chi/chi/v5"

// MountRoutes registers cart routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.save)
	r.Get("/abandoned", h.abandoned)
	r.Post("/scan", h.scan)
	r.Get("/{id}", h.show)
	r.Post("/{id}/recover", h.markRecovered)
	r.Post("/{id}/remind", h.remind)
}
