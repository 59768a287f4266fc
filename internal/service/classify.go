package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/velumlaw/counsel/internal/domain"
	"github.com/velumlaw/counsel/internal/domain/chat"
	"github.com/velumlaw/counsel/internal/port/llm"
)

var classifyInstruction = map[string]string{
	langPL: `Zaklasyfikuj poniższy opis sprawy do taksonomii produktu. Odpowiedz wyłącznie obiektem JSON o polach:
"domain_area" (jedno z: "Prawo Cywilne", "Prawo Karne", "Prawo Pracy", "Prawo Rodzinne", "Prawo Administracyjne", "Prawo Gospodarcze"),
"topic" (krótka nazwa tematu po polsku, np. "Wypowiedzenie umowy o pracę"),
"mode" (jedno z: "porada", "pismo", "analiza", "strategia").
Jeśli opisu nie da się jednoznacznie zaklasyfikować, odpowiedz dokładnie: null`,
	langEN: `Classify the case description below into the product taxonomy. Respond with a single JSON object with fields:
"domain_area" (one of: "Prawo Cywilne", "Prawo Karne", "Prawo Pracy", "Prawo Rodzinne", "Prawo Administracyjne", "Prawo Gospodarcze"),
"topic" (a short topic name, e.g. "Wypowiedzenie umowy o pracę"),
"mode" (one of: "porada", "pismo", "analiza", "strategia").
If the description cannot be classified unambiguously, respond with exactly: null`,
}

// SubmitCaseClassification locates a free-text case description in the
// domain-area/topic/mode taxonomy. An unclassifiable description is a valid
// outcome: the result is null and only usage is returned. The dispatch is
// billed either way.
func (o *Orchestrator) SubmitCaseClassification(ctx context.Context, accountID string, req chat.ClassifyRequest) (*chat.ClassifyResponse, error) {
	if strings.TrimSpace(req.Description) == "" {
		return nil, fmt.Errorf("%w: description is required", domain.ErrValidation)
	}
	if err := o.preflight(ctx, accountID); err != nil {
		return nil, err
	}

	lang := normalizeLanguage(req.Language)
	system := safetyCore[lang] + "\n\n" + classifyInstruction[lang]
	model := o.settings.Routing(ctx).Default

	result, err := o.loop.Run(ctx, llm.Request{
		Model:      model,
		System:     system,
		Messages:   []llm.Message{llm.TextMessage(llm.RoleUser, req.Description)},
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

	resp := &chat.ClassifyResponse{Usage: toUsage(usage)}

	text := stripJSONFence(result.Text)
	if text == "" || text == "null" {
		return resp, nil
	}

	var c chat.Classification
	if err := json.Unmarshal([]byte(text), &c); err != nil {
		slog.Warn("classification payload unparsable, treating as unclassified",
			"error", err)
		return resp, nil
	}
	if c.DomainArea == "" || c.Topic == "" {
		return resp, nil
	}
	if _, ok := modeInstructions[c.Mode]; !ok {
		c.Mode = chat.ModeAdvice
	}

	resp.Result = &c
	resp.ConversationKey = chat.Key(c.DomainArea, c.Topic, c.Mode, "")
	return resp, nil
}
