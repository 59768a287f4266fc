package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/velumlaw/counsel/internal/domain"
	"github.com/velumlaw/counsel/internal/domain/chat"
	"github.com/velumlaw/counsel/internal/domain/persona"
	"github.com/velumlaw/counsel/internal/port/llm"
)

// strategicTemperature pins the strategic variant to deterministic sampling.
var strategicTemperature float32 = 0

// SubmitStrategicTurn runs the heavier strategy-planning variant: fixed
// higher-tier model, deterministic temperature, reduced tool surface.
func (o *Orchestrator) SubmitStrategicTurn(ctx context.Context, accountID string, req chat.StrategicRequest) (*chat.TurnResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if err := o.preflight(ctx, accountID); err != nil {
		return nil, err
	}

	system := o.composer.Compose(ctx, persona.Directive{
		Kind:     persona.KindStandardDomain,
		Mode:     chat.ModeStrategy,
		Language: req.Language,
	})

	history := NormalizeHistory(req.History, DropLeading)
	if len(history) == 0 {
		return nil, fmt.Errorf("%w: history contains no user turn", domain.ErrValidation)
	}

	model := o.settings.Routing(ctx).Strategic

	o.broadcast(ctx, EventTurnStarted, TurnStartedEvent{ConversationKey: req.ConversationKey, Mode: chat.ModeStrategy})

	result, err := o.loop.Run(ctx, llm.Request{
		Model:       model,
		System:      system,
		Messages:    toMessages(history),
		Tools:       o.tools.ReducedSurface(),
		Temperature: &strategicTemperature,
	})
	if err != nil {
		o.broadcast(ctx, EventTurnFinished, TurnFinishedEvent{ConversationKey: req.ConversationKey, Status: "failed"})
		return nil, err
	}

	usage := o.billing.Compute(ctx, model, result.Usage)

	conv := &chat.Conversation{
		Key:       req.ConversationKey,
		AccountID: accountID,
		Mode:      chat.ModeStrategy,
		Turns: append(history, chat.Turn{
			Role:      chat.RoleModel,
			Text:      result.Text,
			Citations: result.Citations,
			CreatedAt: o.now().UTC(),
		}),
	}
	o.gateway.Save(ctx, conv, req.LocalOnly)
	if err := o.billing.Charge(ctx, accountID, usage); err != nil {
		slog.Error("ledger charge failed after response computed",
			"account_id", accountID, "error", err)
	}

	o.broadcast(ctx, EventTurnFinished, TurnFinishedEvent{ConversationKey: req.ConversationKey, Status: "completed"})

	return &chat.TurnResponse{Text: result.Text, Usage: toUsage(usage)}, nil
}
