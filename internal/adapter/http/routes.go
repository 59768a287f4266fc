package http

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Get("/health", h.Health)
	r.Get("/ws", h.HandleWS)

	r.Route("/api/v1", func(r chi.Router) {
		// Chat operations
		r.Post("/chat/turn", h.SubmitTurn)
		r.Post("/chat/strategic", h.SubmitStrategicTurn)
		r.Post("/chat/suggestions", h.SubmitSuggestions)
		r.Post("/chat/classify", h.SubmitCaseClassification)

		// Conversations
		r.Get("/conversations/{key}", h.GetConversation)

		// Account
		r.Get("/account/ledger", h.GetLedger)
		r.Get("/account/subscription", h.GetSubscription)

		// Agents
		r.Get("/agents/{id}", h.GetAgent)
	})
}
