package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/velumlaw/counsel/internal/domain"
	"github.com/velumlaw/counsel/internal/domain/chat"
	"github.com/velumlaw/counsel/internal/domain/persona"
	"github.com/velumlaw/counsel/internal/port/llm"
)

var suggestionsInstruction = map[string]string{
	langPL: `Przeanalizuj poniższą rozmowę i przygotuj taktyczne wskazówki dla użytkownika. Odpowiedz wyłącznie obiektem JSON o polach:
"defense_tactics", "attack_strategies", "evidence_to_gather", "important_deadlines", "mitigating_circumstances", "alternative_solutions" (każde jako tablica krótkich punktów po polsku) oraz "user_role" ("plaintiff", "defendant" lub "unclear").`,
	langEN: `Analyse the conversation below and prepare tactical guidance for the user. Respond with a single JSON object with fields:
"defense_tactics", "attack_strategies", "evidence_to_gather", "important_deadlines", "mitigating_circumstances", "alternative_solutions" (each an array of short bullet points) and "user_role" ("plaintiff", "defendant" or "unclear").`,
}

// suggestionsPayload is the JSON shape requested from the model.
type suggestionsPayload struct {
	chat.Suggestions
	UserRole string `json:"user_role"`
}

// SubmitSuggestions extracts tactical suggestions from a conversation.
// Greeting-style flow: a history opening with a model turn gets a
// synthesized placeholder user entry rather than being truncated.
func (o *Orchestrator) SubmitSuggestions(ctx context.Context, accountID string, req chat.SuggestionsRequest) (*chat.SuggestionsResponse, error) {
	if len(req.History) == 0 {
		return nil, fmt.Errorf("%w: history is required", domain.ErrValidation)
	}
	if err := o.preflight(ctx, accountID); err != nil {
		return nil, err
	}

	lang := normalizeLanguage(req.Language)
	system := o.composer.Compose(ctx, persona.Directive{
		Kind:       persona.KindStandardDomain,
		DomainArea: req.DomainArea,
		Topic:      req.Topic,
		Language:   req.Language,
	}) + "\n\n" + suggestionsInstruction[lang]

	history := NormalizeHistory(req.History, SynthesizeUser)
	model := o.settings.Routing(ctx).Default

	result, err := o.loop.Run(ctx, llm.Request{
		Model:      model,
		System:     system,
		Messages:   toMessages(history),
		JSONOutput: true,
	})
	if err != nil {
		return nil, err
	}

	usage := o.billing.Compute(ctx, model, result.Usage)
	if err := o.billing.Charge(ctx, accountID, usage); err != nil {
		slog.Error("ledger charge failed after response computed",
			"account_id", accountID, "error", err)
	}

	var payload suggestionsPayload
	if err := json.Unmarshal([]byte(stripJSONFence(result.Text)), &payload); err != nil {
		return nil, fmt.Errorf("%w: unparsable suggestions payload: %v", domain.ErrProvider, err)
	}
	role := payload.UserRole
	switch role {
	case chat.RolePlaintiff, chat.RoleDefendant:
	default:
		role = chat.RoleUnclear
	}

	return &chat.SuggestionsResponse{
		Suggestions: payload.Suggestions,
		UserRole:    role,
		Usage:       toUsage(usage),
	}, nil
}

// stripJSONFence removes a markdown code fence around a JSON payload, which
// some models emit even under a JSON response MIME type.
func stripJSONFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
