package http

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers the REST surface on the given chi router. The /ws
// endpoint is mounted separately by the caller so the WebSocket upgrade
// skips the JSON middleware.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Get("/healthz", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/agents", h.ListAgents)
		r.Post("/agents", h.SpawnAgent)
		r.Delete("/agents/{id}", h.KillAgent)
		r.Post("/agents/{id}/input", h.SendInput)
		r.Get("/classes", h.ListClasses)
	})
}
