package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/velumlaw/counsel/internal/domain"
	"github.com/velumlaw/counsel/internal/domain/billing"
	"github.com/velumlaw/counsel/internal/domain/chat"
	"github.com/velumlaw/counsel/internal/domain/persona"
	"github.com/velumlaw/counsel/internal/port/llm"
)

// fakeStore is an in-memory Store for orchestrator tests.
type fakeStore struct {
	ledger        billing.Ledger
	ledgerErr     error
	sub           *billing.Subscription
	subErr        error
	agents        map[string]*persona.Agent
	settings      map[string]json.RawMessage
	conversations map[string]*chat.Conversation

	ledgerDeltas int
	upserts      int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		ledger: billing.Ledger{CreditLimit: 100},
		sub: &billing.Subscription{
			Active:    true,
			ExpiresAt: time.Now().Add(24 * time.Hour),
		},
		agents:        map[string]*persona.Agent{},
		settings:      map[string]json.RawMessage{},
		conversations: map[string]*chat.Conversation{},
	}
}

func (f *fakeStore) GetConversation(_ context.Context, key string) (*chat.Conversation, error) {
	c, ok := f.conversations[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

func (f *fakeStore) UpsertConversation(_ context.Context, c *chat.Conversation) error {
	f.upserts++
	f.conversations[c.Key] = c
	return nil
}

func (f *fakeStore) GetLedger(_ context.Context, accountID string) (*billing.Ledger, error) {
	if f.ledgerErr != nil {
		return nil, f.ledgerErr
	}
	l := f.ledger
	l.AccountID = accountID
	return &l, nil
}

func (f *fakeStore) AddLedgerDelta(_ context.Context, _ string, cost float64, appTokens int64) error {
	f.ledgerDeltas++
	f.ledger.SpentAmount += cost
	f.ledger.TokensUsed += appTokens
	return nil
}

func (f *fakeStore) GetSubscription(_ context.Context, accountID string) (*billing.Subscription, error) {
	if f.subErr != nil {
		return nil, f.subErr
	}
	s := *f.sub
	s.AccountID = accountID
	return &s, nil
}

func (f *fakeStore) GetSetting(_ context.Context, key string) (json.RawMessage, error) {
	v, ok := f.settings[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return v, nil
}

func (f *fakeStore) UpsertSetting(_ context.Context, key string, value json.RawMessage) error {
	f.settings[key] = value
	return nil
}

func (f *fakeStore) GetAgent(_ context.Context, id string) (*persona.Agent, error) {
	a, ok := f.agents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return a, nil
}

func (f *fakeStore) GetAPIKey(context.Context, string) (string, string, error) {
	return "", "", domain.ErrNotFound
}

func newTestOrchestrator(store *fakeStore, p llm.Provider) *Orchestrator {
	settings := NewSettingsService(store, nil, time.Minute)
	tools := NewToolRegistry(&stubActs{}, stubRulings{})
	return NewOrchestrator(
		store,
		settings,
		NewPromptComposer(settings),
		NewDocumentAugmentor(nil),
		NewToolLoop(p, tools),
		NewBillingService(store, settings, nil),
		NewPersistenceGateway(store),
		tools,
		nil,
	)
}

func turnReq() chat.TurnRequest {
	return chat.TurnRequest{
		History:         []chat.Turn{{Role: chat.RoleUser, Text: "czy mogę odwołać się od wypowiedzenia?"}},
		Mode:            chat.ModeAdvice,
		DomainArea:      "Prawo Pracy",
		Topic:           "Wypowiedzenie umowy o pracę",
		ConversationKey: "prawo-pracy:wypowiedzenie:porada",
		Language:        "pl",
	}
}

func TestSubmitTurn_HappyPath(t *testing.T) {
	store := newFakeStore()
	p := &stubProvider{results: []*llm.Result{
		{Text: "tak, w terminie 21 dni", Usage: llm.Usage{PromptTokens: 1000, CandidateTokens: 500, TotalTokens: 1500}},
	}}

	resp, err := newTestOrchestrator(store, p).SubmitTurn(context.Background(), "acc-1", turnReq())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text != "tak, w terminie 21 dni" {
		t.Fatalf("text = %q", resp.Text)
	}
	if resp.Usage.AppTokens != 1000+4*500 {
		t.Fatalf("app tokens = %d", resp.Usage.AppTokens)
	}
	if store.upserts != 1 {
		t.Fatalf("expected 1 conversation write, got %d", store.upserts)
	}
	if store.ledgerDeltas != 1 {
		t.Fatalf("expected 1 ledger increment, got %d", store.ledgerDeltas)
	}
	conv := store.conversations["prawo-pracy:wypowiedzenie:porada"]
	if conv == nil || len(conv.Turns) != 2 || conv.Turns[1].Role != chat.RoleModel {
		t.Fatalf("persisted conversation malformed: %+v", conv)
	}
}

func TestSubmitTurn_CreditExhaustedRejectsBeforeProvider(t *testing.T) {
	store := newFakeStore()
	store.ledger.SpentAmount = store.ledger.CreditLimit
	p := &stubProvider{results: []*llm.Result{{Text: "x"}}}

	_, err := newTestOrchestrator(store, p).SubmitTurn(context.Background(), "acc-1", turnReq())
	if !errors.Is(err, domain.ErrCreditExhausted) {
		t.Fatalf("expected ErrCreditExhausted, got %v", err)
	}
	if p.calls != 0 {
		t.Fatalf("rejected turn must not reach the provider, got %d calls", p.calls)
	}
	if store.ledgerDeltas != 0 {
		t.Fatalf("rejected turn must not touch the ledger, got %d deltas", store.ledgerDeltas)
	}
}

func TestSubmitTurn_LedgerReadFailureIsFailClosed(t *testing.T) {
	store := newFakeStore()
	store.ledgerErr = errors.New("pg down")
	p := &stubProvider{results: []*llm.Result{{Text: "x"}}}

	_, err := newTestOrchestrator(store, p).SubmitTurn(context.Background(), "acc-1", turnReq())
	if err == nil {
		t.Fatal("expected error when ledger is unreadable")
	}
	if p.calls != 0 {
		t.Fatalf("provider must not be called, got %d calls", p.calls)
	}
}

func TestSubmitTurn_NoSubscription(t *testing.T) {
	store := newFakeStore()
	store.sub.Active = false
	p := &stubProvider{results: []*llm.Result{{Text: "x"}}}

	_, err := newTestOrchestrator(store, p).SubmitTurn(context.Background(), "acc-1", turnReq())
	if !errors.Is(err, domain.ErrNoSubscription) {
		t.Fatalf("expected ErrNoSubscription, got %v", err)
	}
	if p.calls != 0 {
		t.Fatalf("provider must not be called, got %d calls", p.calls)
	}
}

func TestSubmitTurn_EmptyAccountIsUnauthenticated(t *testing.T) {
	store := newFakeStore()
	p := &stubProvider{results: []*llm.Result{{Text: "x"}}}

	_, err := newTestOrchestrator(store, p).SubmitTurn(context.Background(), "", turnReq())
	if !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestSubmitTurn_LocalOnlySkipsWriteButCharges(t *testing.T) {
	store := newFakeStore()
	p := &stubProvider{results: []*llm.Result{
		{Text: "odpowiedź", Usage: llm.Usage{PromptTokens: 100, CandidateTokens: 10, TotalTokens: 110}},
	}}
	req := turnReq()
	req.LocalOnly = true

	_, err := newTestOrchestrator(store, p).SubmitTurn(context.Background(), "acc-1", req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.upserts != 0 {
		t.Fatalf("local-only turn must issue zero conversation writes, got %d", store.upserts)
	}
	if store.ledgerDeltas != 1 {
		t.Fatalf("local-only turn must still be charged, got %d deltas", store.ledgerDeltas)
	}
	if store.ledger.TokensUsed != 100+4*10 {
		t.Fatalf("ledger tokens = %d", store.ledger.TokensUsed)
	}
}

func TestSubmitTurn_AppHelpGetsNoToolsAndNoPillar(t *testing.T) {
	store := newFakeStore()
	p := &stubProvider{results: []*llm.Result{{Text: "kliknij ikonę spinacza"}}}
	req := turnReq()
	req.Mode = chat.ModeAppHelp
	req.Topic = chat.AppHelpTopic

	_, err := newTestOrchestrator(store, p).SubmitTurn(context.Background(), "acc-1", req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	dispatched := p.requests[0]
	if len(dispatched.Tools) != 0 {
		t.Fatalf("app-help turn must declare no tools, got %d", len(dispatched.Tools))
	}
	if !strings.Contains(dispatched.System, appHelpPersona[langPL]) {
		t.Fatal("app-help directive missing technical-guide persona")
	}
	if strings.Contains(dispatched.System, "Specjalizacja") {
		t.Fatal("app-help directive must not contain domain pillar rules")
	}
	if strings.Contains(dispatched.System, safetyCore[langPL]) {
		t.Fatal("app-help directive must not contain the legal safety core")
	}
}

func TestSubmitTurn_AppHelpByKeySuffix(t *testing.T) {
	store := newFakeStore()
	p := &stubProvider{results: []*llm.Result{{Text: "ok"}}}
	req := turnReq()
	req.ConversationKey = "onboarding-apphelp"

	_, err := newTestOrchestrator(store, p).SubmitTurn(context.Background(), "acc-1", req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.requests[0].Tools) != 0 {
		t.Fatal("key-suffix app-help turn must declare no tools")
	}
}

func TestSubmitTurn_StandardTurnDeclaresFullSurface(t *testing.T) {
	store := newFakeStore()
	p := &stubProvider{results: []*llm.Result{{Text: "ok"}}}

	_, err := newTestOrchestrator(store, p).SubmitTurn(context.Background(), "acc-1", turnReq())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.requests[0].Tools) != 4 {
		t.Fatalf("expected full tool surface, got %d", len(p.requests[0].Tools))
	}
	if !strings.Contains(p.requests[0].System, domainPillars["Prawo Pracy"][langPL]) {
		t.Fatal("standard directive missing labour-law pillar")
	}
}

func TestSubmitTurn_AgentLookupFailureDegrades(t *testing.T) {
	store := newFakeStore()
	p := &stubProvider{results: []*llm.Result{{Text: "ok"}}}
	req := turnReq()
	req.AgentID = "agent-missing"

	_, err := newTestOrchestrator(store, p).SubmitTurn(context.Background(), "acc-1", req)
	if err != nil {
		t.Fatalf("agent lookup failure must degrade, got %v", err)
	}
	if !strings.Contains(p.requests[0].System, safetyCore[langPL]) {
		t.Fatal("degraded composition must fall back to the standard directive")
	}
}

func TestSubmitTurn_OverlayAgentPrependsInstructions(t *testing.T) {
	store := newFakeStore()
	store.agents["agent-1"] = &persona.Agent{
		ID: "agent-1", Name: "Windykator", Instructions: "Zawsze pytaj o numer faktury.", Overlay: true,
	}
	p := &stubProvider{results: []*llm.Result{{Text: "ok"}}}
	req := turnReq()
	req.AgentID = "agent-1"

	_, err := newTestOrchestrator(store, p).SubmitTurn(context.Background(), "acc-1", req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sys := p.requests[0].System
	if !strings.HasPrefix(sys, "Zawsze pytaj o numer faktury.") {
		t.Fatal("overlay instructions must lead the directive")
	}
	if !strings.Contains(sys, domainPillars["Prawo Pracy"][langPL]) {
		t.Fatal("overlay composition must keep the domain pillar")
	}
}

func TestSubmitTurn_StandaloneAgentExcludesPillar(t *testing.T) {
	store := newFakeStore()
	p := &stubProvider{results: []*llm.Result{{Text: "ok"}}}
	req := turnReq()
	req.AgentInstructions = "Jesteś asystentem windykacji."

	_, err := newTestOrchestrator(store, p).SubmitTurn(context.Background(), "acc-1", req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sys := p.requests[0].System
	if !strings.Contains(sys, "Jesteś asystentem windykacji.") {
		t.Fatal("standalone directive missing agent identity")
	}
	if strings.Contains(sys, domainPillars["Prawo Pracy"][langPL]) {
		t.Fatal("standalone directive must not contain pillar rules")
	}
}

func TestSubmitTurn_HistoryWithoutUserTurnIsInvalid(t *testing.T) {
	store := newFakeStore()
	p := &stubProvider{results: []*llm.Result{{Text: "ok"}}}
	req := turnReq()
	req.History = []chat.Turn{{Role: chat.RoleModel, Text: "dzień dobry"}}

	_, err := newTestOrchestrator(store, p).SubmitTurn(context.Background(), "acc-1", req)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if p.calls != 0 {
		t.Fatal("invalid history must not reach the provider")
	}
}

func TestSubmitStrategicTurn_UsesStrategicModelAndReducedSurface(t *testing.T) {
	store := newFakeStore()
	p := &stubProvider{results: []*llm.Result{
		{Text: "plan działania", Usage: llm.Usage{PromptTokens: 10, CandidateTokens: 5, TotalTokens: 15}},
	}}

	resp, err := newTestOrchestrator(store, p).SubmitStrategicTurn(context.Background(), "acc-1", chat.StrategicRequest{
		History:         []chat.Turn{{Role: chat.RoleUser, Text: "jak prowadzić spór?"}},
		ConversationKey: "prawo-cywilne:spor:strategia",
		Language:        "pl",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text != "plan działania" {
		t.Fatalf("text = %q", resp.Text)
	}
	dispatched := p.requests[0]
	if dispatched.Model != "gemini-2.5-pro" {
		t.Fatalf("strategic turn must route to the strategic model, got %q", dispatched.Model)
	}
	if len(dispatched.Tools) != 2 {
		t.Fatalf("strategic turn must declare the reduced surface, got %d tools", len(dispatched.Tools))
	}
	if dispatched.Temperature == nil || *dispatched.Temperature != 0 {
		t.Fatalf("strategic turn must pin temperature to 0, got %v", dispatched.Temperature)
	}
	if !strings.Contains(dispatched.System, modeInstructions[chat.ModeStrategy][langPL]) {
		t.Fatal("strategic directive missing strategy mode instructions")
	}
}

func TestSubmitSuggestions_LeadingModelTurnSynthesized(t *testing.T) {
	store := newFakeStore()
	payload := `{"defense_tactics":["podnieś zarzut przedawnienia"],"attack_strategies":[],` +
		`"evidence_to_gather":[],"important_deadlines":[],"mitigating_circumstances":[],` +
		`"alternative_solutions":[],"user_role":"defendant"}`
	p := &stubProvider{results: []*llm.Result{
		{Text: payload, Usage: llm.Usage{PromptTokens: 10, CandidateTokens: 5, TotalTokens: 15}},
	}}

	resp, err := newTestOrchestrator(store, p).SubmitSuggestions(context.Background(), "acc-1", chat.SuggestionsRequest{
		History: []chat.Turn{
			{Role: chat.RoleModel, Text: "dzień dobry, w czym mogę pomóc?"},
			{Role: chat.RoleUser, Text: "dostałem pozew o zapłatę"},
		},
		DomainArea: "Prawo Cywilne",
		Language:   "pl",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.UserRole != chat.RoleDefendant {
		t.Fatalf("user role = %q", resp.UserRole)
	}
	if len(resp.Suggestions.DefenseTactics) != 1 {
		t.Fatalf("suggestions = %+v", resp.Suggestions)
	}
	// Greeting-first history must be preserved via a synthesized opener, not
	// truncated.
	msgs := p.requests[0].Messages
	if len(msgs) != 3 || msgs[0].Role != llm.RoleUser {
		t.Fatalf("expected synthesized leading user turn, got %+v", msgs)
	}
	if !p.requests[0].JSONOutput {
		t.Fatal("suggestions dispatch must request JSON output")
	}
}

func TestSubmitSuggestions_InvalidRoleClampsToUnclear(t *testing.T) {
	store := newFakeStore()
	payload := "```json\n" + `{"defense_tactics":[],"attack_strategies":[],"evidence_to_gather":[],` +
		`"important_deadlines":[],"mitigating_circumstances":[],"alternative_solutions":[],` +
		`"user_role":"prosecutor"}` + "\n```"
	p := &stubProvider{results: []*llm.Result{{Text: payload}}}

	resp, err := newTestOrchestrator(store, p).SubmitSuggestions(context.Background(), "acc-1", chat.SuggestionsRequest{
		History: []chat.Turn{{Role: chat.RoleUser, Text: "x"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.UserRole != chat.RoleUnclear {
		t.Fatalf("expected unclear, got %q", resp.UserRole)
	}
}

func TestSubmitCaseClassification_ResolvesKey(t *testing.T) {
	store := newFakeStore()
	p := &stubProvider{results: []*llm.Result{
		{Text: `{"domain_area":"Prawo Pracy","topic":"Wypowiedzenie umowy o pracę","mode":"porada"}`,
			Usage: llm.Usage{PromptTokens: 10, CandidateTokens: 2, TotalTokens: 12}},
	}}

	resp, err := newTestOrchestrator(store, p).SubmitCaseClassification(context.Background(), "acc-1", chat.ClassifyRequest{
		Description: "pracodawca wręczył mi wypowiedzenie bez podania przyczyny",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Result == nil || resp.Result.DomainArea != "Prawo Pracy" {
		t.Fatalf("classification = %+v", resp.Result)
	}
	if resp.ConversationKey != "prawo-pracy:wypowiedzenie-umowy-o-pracę:porada" {
		t.Fatalf("conversation key = %q", resp.ConversationKey)
	}
	if store.ledgerDeltas != 1 {
		t.Fatalf("classification must be billed, got %d deltas", store.ledgerDeltas)
	}
}

func TestSubmitCaseClassification_NullIsBilledSuccess(t *testing.T) {
	store := newFakeStore()
	p := &stubProvider{results: []*llm.Result{
		{Text: "null", Usage: llm.Usage{PromptTokens: 8, CandidateTokens: 1, TotalTokens: 9}},
	}}

	resp, err := newTestOrchestrator(store, p).SubmitCaseClassification(context.Background(), "acc-1", chat.ClassifyRequest{
		Description: "opowiedz mi dowcip",
	})
	if err != nil {
		t.Fatalf("unclassifiable description is a valid outcome, got %v", err)
	}
	if resp.Result != nil || resp.ConversationKey != "" {
		t.Fatalf("expected null result, got %+v", resp)
	}
	if store.ledgerDeltas != 1 {
		t.Fatalf("null classification is still billed, got %d deltas", store.ledgerDeltas)
	}
}
