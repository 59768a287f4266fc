package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	clotel "github.com/velumlaw/counsel/internal/adapter/otel"
	"github.com/velumlaw/counsel/internal/domain"
	"github.com/velumlaw/counsel/internal/domain/billing"
	"github.com/velumlaw/counsel/internal/domain/chat"
	"github.com/velumlaw/counsel/internal/domain/persona"
	"github.com/velumlaw/counsel/internal/port/database"
	"github.com/velumlaw/counsel/internal/port/llm"
)

// Turn lifecycle event types broadcast to connected clients.
const (
	EventTurnStarted  = "turn.started"
	EventTurnText     = "turn.text"
	EventTurnFinished = "turn.finished"
)

// TurnStartedEvent is broadcast when a turn enters the tool loop.
type TurnStartedEvent struct {
	ConversationKey string `json:"conversation_key"`
	Mode            string `json:"mode"`
}

// TurnTextEvent carries the answer text.
type TurnTextEvent struct {
	ConversationKey string `json:"conversation_key"`
	Text            string `json:"text"`
}

// TurnFinishedEvent closes a turn.
type TurnFinishedEvent struct {
	ConversationKey string `json:"conversation_key"`
	Status          string `json:"status"`
}

// EventSink receives turn lifecycle events. Implemented by the ws hub.
type EventSink interface {
	BroadcastEvent(ctx context.Context, eventType string, payload any)
}

// Orchestrator composes the full request lifecycle:
//
//	Validate → CheckAuth → CheckSubscription → CheckCredit →
//	ComposeInstruction → NormalizeHistory → AugmentDocuments →
//	RunToolLoop → ComputeUsage → Persist → Respond
//
// Everything up through CheckCredit is fail-closed; every later stage
// degrades instead of failing, except the provider call itself.
type Orchestrator struct {
	store    database.Store
	settings *SettingsService
	composer *PromptComposer
	augment  *DocumentAugmentor
	loop     *ToolLoop
	billing  *BillingService
	gateway  *PersistenceGateway
	tools    *ToolRegistry
	events   EventSink
	metrics  *clotel.Metrics
	now      func() time.Time
}

// NewOrchestrator wires the turn pipeline. events may be nil.
func NewOrchestrator(
	store database.Store,
	settings *SettingsService,
	composer *PromptComposer,
	augment *DocumentAugmentor,
	loop *ToolLoop,
	billingSvc *BillingService,
	gateway *PersistenceGateway,
	tools *ToolRegistry,
	events EventSink,
) *Orchestrator {
	return &Orchestrator{
		store:    store,
		settings: settings,
		composer: composer,
		augment:  augment,
		loop:     loop,
		billing:  billingSvc,
		gateway:  gateway,
		tools:    tools,
		events:   events,
		now:      time.Now,
	}
}

// SetMetrics attaches metric instruments. Optional.
func (o *Orchestrator) SetMetrics(m *clotel.Metrics) {
	o.metrics = m
}

// SubmitTurn runs one conversation turn for the given account.
func (o *Orchestrator) SubmitTurn(ctx context.Context, accountID string, req chat.TurnRequest) (*chat.TurnResponse, error) {
	// Validate.
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	// CheckAuth / CheckSubscription / CheckCredit — fail-closed, zero cost.
	if err := o.preflight(ctx, accountID); err != nil {
		return nil, err
	}

	// ComposeInstruction. Agent resolution failing degrades to the standard
	// composition; it must not fail the request at this stage.
	directive := o.resolveDirective(ctx, req)
	system := o.composer.Compose(ctx, directive)

	// NormalizeHistory. Loop-style provider: drop leading non-user entries.
	history := NormalizeHistory(req.History, DropLeading)
	if len(history) == 0 {
		return nil, fmt.Errorf("%w: history contains no user turn", domain.ErrValidation)
	}
	messages := toMessages(history)

	// AugmentDocuments.
	attachments := collectAttachments(req.History)
	messages, _ = o.augment.Augment(ctx, messages, attachments, req.Language)

	// RunToolLoop. The app-help persona answers product questions and gets
	// no legal-research tools.
	var tools []llm.ToolDecl
	if directive.Kind != persona.KindAppHelp {
		tools = o.tools.FullSurface()
	}
	model := o.settings.Routing(ctx).ModelFor(req.Mode)

	ctx, span := clotel.StartTurnSpan(ctx, req.ConversationKey, req.Mode, model)
	defer span.End()
	started := o.now()
	if o.metrics != nil {
		o.metrics.TurnsStarted.Add(ctx, 1, metric.WithAttributes(
			attribute.String("mode", req.Mode)))
	}

	o.broadcast(ctx, EventTurnStarted, TurnStartedEvent{ConversationKey: req.ConversationKey, Mode: req.Mode})

	result, err := o.loop.Run(ctx, llm.Request{
		Model:    model,
		System:   system,
		Messages: messages,
		Tools:    tools,
	})
	if err != nil {
		if o.metrics != nil {
			o.metrics.TurnsFailed.Add(ctx, 1, metric.WithAttributes(
				attribute.String("mode", req.Mode)))
		}
		o.broadcast(ctx, EventTurnFinished, TurnFinishedEvent{ConversationKey: req.ConversationKey, Status: "failed"})
		return nil, err
	}

	// ComputeUsage.
	usage := o.billing.Compute(ctx, model, result.Usage)

	if o.metrics != nil {
		attrs := metric.WithAttributes(attribute.String("mode", req.Mode))
		o.metrics.TurnsCompleted.Add(ctx, 1, attrs)
		o.metrics.TurnDuration.Record(ctx, o.now().Sub(started).Seconds(), attrs)
		o.metrics.TurnCost.Record(ctx, usage.Cost, attrs)
		o.metrics.TurnTokens.Record(ctx, usage.AppTokens, attrs)
	}

	// Persist: conversation write per privacy mode, ledger charge always.
	// Neither failure invalidates the computed response.
	conv := &chat.Conversation{
		Key:        req.ConversationKey,
		AccountID:  accountID,
		DomainArea: req.DomainArea,
		Topic:      req.Topic,
		Mode:       req.Mode,
		AgentID:    req.AgentID,
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

	o.broadcast(ctx, EventTurnText, TurnTextEvent{ConversationKey: req.ConversationKey, Text: result.Text})
	o.broadcast(ctx, EventTurnFinished, TurnFinishedEvent{ConversationKey: req.ConversationKey, Status: "completed"})

	return &chat.TurnResponse{
		Text:    result.Text,
		Sources: result.Citations,
		Usage:   toUsage(usage),
	}, nil
}

// preflight runs the fail-closed stages shared by every inbound operation.
func (o *Orchestrator) preflight(ctx context.Context, accountID string) error {
	if accountID == "" {
		return domain.ErrUnauthenticated
	}

	sub, err := o.store.GetSubscription(ctx, accountID)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrNoSubscription, err)
	}
	if !sub.Valid(o.now()) {
		return fmt.Errorf("account %s: %w", accountID, domain.ErrNoSubscription)
	}

	return o.billing.Preflight(ctx, accountID)
}

// resolveDirective resolves the persona kind once and assembles the
// composer's input from the request.
func (o *Orchestrator) resolveDirective(ctx context.Context, req chat.TurnRequest) persona.Directive {
	var agent *persona.Agent
	if req.AgentID != "" && req.AgentInstructions == "" {
		a, err := o.store.GetAgent(ctx, req.AgentID)
		if err != nil {
			slog.Warn("agent lookup degraded, composing without agent",
				"agent_id", req.AgentID, "error", err)
		} else {
			agent = a
		}
	}

	kind := persona.Resolve(persona.ResolveInput{
		Mode:              req.Mode,
		Topic:             req.Topic,
		ConversationKey:   req.ConversationKey,
		AgentInstructions: req.AgentInstructions,
		Agent:             agent,
	})

	instructions := req.AgentInstructions
	if instructions == "" && agent != nil {
		instructions = agent.Instructions
	}

	return persona.Directive{
		Kind:              kind,
		DomainArea:        req.DomainArea,
		Topic:             req.Topic,
		Mode:              req.Mode,
		Language:          req.Language,
		AgentID:           req.AgentID,
		AgentInstructions: instructions,
		KnowledgeDigest:   req.SupplementalArticles,
		HasAttachments:    len(collectAttachments(req.History)) > 0,
	}
}

func (o *Orchestrator) broadcast(ctx context.Context, eventType string, payload any) {
	if o.events != nil {
		o.events.BroadcastEvent(ctx, eventType, payload)
	}
}

// toMessages converts normalized turns into provider messages.
func toMessages(turns []chat.Turn) []llm.Message {
	out := make([]llm.Message, 0, len(turns))
	for _, t := range turns {
		out = append(out, llm.TextMessage(t.Role, t.Text))
	}
	return out
}

// collectAttachments gathers attachment metadata across the history.
func collectAttachments(turns []chat.Turn) []chat.Attachment {
	var out []chat.Attachment
	for _, t := range turns {
		out = append(out, t.Attachments...)
	}
	return out
}

func toUsage(rec billing.UsageRecord) chat.Usage {
	return chat.Usage{
		PromptTokens:    rec.PromptTokens,
		CandidateTokens: rec.CandidateTokens,
		TotalTokens:     rec.TotalTokens,
		Cost:            rec.Cost,
		AppTokens:       rec.AppTokens,
	}
}
