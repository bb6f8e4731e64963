package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Route("/api/v1", func(r chi.Router) {
		// Version
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"version":"0.1.0"}`))
		})

		// Auth
		r.Post("/auth/login", h.Login)
		r.Get("/auth/me", h.Me)

		// Agents
		r.Get("/agents", h.ListAgents)
		r.Post("/agents", h.LaunchAgent)
		r.Get("/agents/{id}", h.GetAgent)
		r.Delete("/agents/{id}", h.DeleteAgent)
		r.Post("/agents/{id}/stop", h.StopAgent)
		r.Post("/agents/{id}/followup", h.SendFollowUp)
		r.Get("/agents/{id}/conversation", h.GetConversation)
		r.Post("/agents/{id}/summarize", h.SummarizeAgent)

		// Stored credential
		r.Get("/user/api-key", h.GetAPIKeyStatus)
		r.Put("/user/api-key", h.SaveAPIKey)
		r.Delete("/user/api-key", h.DeleteAPIKey)

		// Launch form data
		r.Get("/user/repositories", h.ListRepositories)
		r.Put("/user/repositories", h.SaveRepositories)
		r.Get("/user/branches", h.ListBranches)
		r.Put("/user/branches", h.SaveBranches)
	})
}
