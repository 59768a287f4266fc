package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/velumlaw/counsel/internal/adapter/ws"
	"github.com/velumlaw/counsel/internal/domain"
	"github.com/velumlaw/counsel/internal/domain/chat"
	"github.com/velumlaw/counsel/internal/middleware"
	"github.com/velumlaw/counsel/internal/port/database"
	"github.com/velumlaw/counsel/internal/service"
)

// Handlers bundles the dependencies of the HTTP layer.
type Handlers struct {
	orch  *service.Orchestrator
	store database.Store
	hub   *ws.Hub
}

// NewHandlers creates the handler set. hub may be nil when the WebSocket
// endpoint is not mounted.
func NewHandlers(orch *service.Orchestrator, store database.Store, hub *ws.Hub) *Handlers {
	return &Handlers{orch: orch, store: store, hub: hub}
}

// Health reports process liveness.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// SubmitTurn handles POST /api/v1/chat/turn.
func (h *Handlers) SubmitTurn(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[chat.TurnRequest](w, r)
	if !ok {
		return
	}

	resp, err := h.orch.SubmitTurn(r.Context(), middleware.AccountFromContext(r.Context()), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// SubmitStrategicTurn handles POST /api/v1/chat/strategic.
func (h *Handlers) SubmitStrategicTurn(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[chat.StrategicRequest](w, r)
	if !ok {
		return
	}

	resp, err := h.orch.SubmitStrategicTurn(r.Context(), middleware.AccountFromContext(r.Context()), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// SubmitSuggestions handles POST /api/v1/chat/suggestions.
func (h *Handlers) SubmitSuggestions(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[chat.SuggestionsRequest](w, r)
	if !ok {
		return
	}

	resp, err := h.orch.SubmitSuggestions(r.Context(), middleware.AccountFromContext(r.Context()), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// SubmitCaseClassification handles POST /api/v1/chat/classify.
func (h *Handlers) SubmitCaseClassification(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[chat.ClassifyRequest](w, r)
	if !ok {
		return
	}

	resp, err := h.orch.SubmitCaseClassification(r.Context(), middleware.AccountFromContext(r.Context()), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetConversation handles GET /api/v1/conversations/{key}. Conversations
// belonging to another account read as not found.
func (h *Handlers) GetConversation(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if key == "" {
		writeError(w, http.StatusBadRequest, "conversation key is required")
		return
	}

	conv, err := h.store.GetConversation(r.Context(), key)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if conv.AccountID != middleware.AccountFromContext(r.Context()) {
		writeDomainError(w, domain.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

// GetLedger handles GET /api/v1/account/ledger.
func (h *Handlers) GetLedger(w http.ResponseWriter, r *http.Request) {
	ledger, err := h.store.GetLedger(r.Context(), middleware.AccountFromContext(r.Context()))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ledger)
}

// GetSubscription handles GET /api/v1/account/subscription.
func (h *Handlers) GetSubscription(w http.ResponseWriter, r *http.Request) {
	sub, err := h.store.GetSubscription(r.Context(), middleware.AccountFromContext(r.Context()))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

// GetAgent handles GET /api/v1/agents/{id}.
func (h *Handlers) GetAgent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	agent, err := h.store.GetAgent(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, agent)
}

// HandleWS upgrades GET /ws to a WebSocket connection.
func (h *Handlers) HandleWS(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		writeDomainError(w, errors.New("websocket hub not configured"))
		return
	}
	h.hub.HandleWS(w, r)
}
