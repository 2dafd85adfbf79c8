package orders

import "github.com/go-chi/chi/v5"

// MountRoutes registers order routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{id}", h.show)
	r.Get("/{id}/history", h.history)
	r.Patch("/{id}/status", h.updateStatus)
}

// MountDraftRoutes registers draft routes.
func (h *Handler) MountDraftRoutes(r chi.Router) {
	r.Post("/", h.createDraft)
	r.Get("/{id}", h.getDraft)
	r.Put("/{id}", h.updateDraft)
	r.Delete("/{id}", h.deleteDraft)
	r.Post("/{id}/submit", h.submitDraft)
}

// MountPricingRoutes registers the stateless pricing endpoints.
func (h *Handler) MountPricingRoutes(r chi.Router) {
	r.Post("/preview", h.previewPricing)
}
