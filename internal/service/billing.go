package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/velumlaw/counsel/internal/domain"
	"github.com/velumlaw/counsel/internal/domain/billing"
	"github.com/velumlaw/counsel/internal/port/database"
	"github.com/velumlaw/counsel/internal/port/llm"
)

// appTokenOutputWeight is the fixed cross-model weighting: output tokens
// count four times as much as input tokens in the normalized unit.
const appTokenOutputWeight = 4

// BillingService enforces the credit ledger pre-flight and converts provider
// usage into cost and app-token deltas.
type BillingService struct {
	store    database.Store
	settings *SettingsService
	events   UsagePublisher
}

// UsagePublisher receives a best-effort event after a successful charge.
type UsagePublisher interface {
	PublishUsage(ctx context.Context, accountID string, rec billing.UsageRecord)
}

// NewBillingService creates a BillingService. events may be nil.
func NewBillingService(store database.Store, settings *SettingsService, events UsagePublisher) *BillingService {
	return &BillingService{store: store, settings: settings, events: events}
}

// Preflight rejects the request before any provider call when the account's
// ledger is at or over its credit limit. Fail-closed: a ledger read failure
// also rejects, since charging cannot be guaranteed.
func (b *BillingService) Preflight(ctx context.Context, accountID string) error {
	ledger, err := b.store.GetLedger(ctx, accountID)
	if err != nil {
		return fmt.Errorf("read ledger: %w", err)
	}
	if ledger.Exhausted() {
		return fmt.Errorf("account %s: %w", accountID, domain.ErrCreditExhausted)
	}
	return nil
}

// Compute derives the usage record from provider usage metadata and the
// resolved model. Pricing lookups degrade: config document, then built-in
// per-model table, then the global default rate.
func (b *BillingService) Compute(ctx context.Context, model string, usage llm.Usage) billing.UsageRecord {
	pricing := billing.DefaultPricing()
	if b.settings != nil {
		pricing = b.settings.Pricing(ctx)
	}
	return ComputeUsage(model, usage, pricing)
}

// ComputeUsage is the pure cost/app-token computation.
func ComputeUsage(model string, usage llm.Usage, pricing billing.PricingConfig) billing.UsageRecord {
	rate, ok := pricing.RatesByModel[model]
	if !ok {
		rate, ok = billing.DefaultPricing().RatesByModel[model]
		if !ok {
			rate = billing.DefaultRate
		}
	}

	cost := (float64(usage.PromptTokens)/1_000_000*rate.Input +
		float64(usage.CandidateTokens)/1_000_000*rate.Output) *
		pricing.ProfitMultiplier

	return billing.UsageRecord{
		PromptTokens:    usage.PromptTokens,
		CandidateTokens: usage.CandidateTokens,
		TotalTokens:     usage.TotalTokens,
		Cost:            cost,
		AppTokens:       usage.PromptTokens + appTokenOutputWeight*usage.CandidateTokens,
	}
}

// Charge applies the usage deltas to the account ledger via atomic
// increment. Billing is independent of persistence mode: local-only turns
// are charged the same way. A failure is logged and returned for the
// orchestrator to swallow; the computed response is never withheld.
func (b *BillingService) Charge(ctx context.Context, accountID string, rec billing.UsageRecord) error {
	if err := b.store.AddLedgerDelta(ctx, accountID, rec.Cost, rec.AppTokens); err != nil {
		return fmt.Errorf("ledger increment: %w", err)
	}
	if b.events != nil {
		b.events.PublishUsage(ctx, accountID, rec)
	}
	slog.Info("usage charged",
		"account_id", accountID,
		"cost", rec.Cost,
		"app_tokens", rec.AppTokens,
	)
	return nil
}
