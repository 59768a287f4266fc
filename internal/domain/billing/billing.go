// Package billing defines pricing, usage and credit-ledger domain types.
package billing

import "time"

// Rate is the per-million-token price pair for one model.
type Rate struct {
	Input  float64 `json:"input"`
	Output float64 `json:"output"`
}

// Plan describes a subscription tier in the pricing document.
type Plan struct {
	Name        string  `json:"name"`
	CreditLimit float64 `json:"credit_limit"`
	TokenLimit  int64   `json:"token_limit"`
}

// PricingConfig is the dynamic pricing document. Owned by the configuration
// store; read-only to the engine.
type PricingConfig struct {
	RatesByModel     map[string]Rate `json:"rates_by_model"`
	ProfitMultiplier float64         `json:"profit_multiplier"`
	Plans            []Plan          `json:"plans,omitempty"`
}

// DefaultPricing is the built-in fallback used whenever the configuration
// store is unreachable or the pricing document is missing/malformed.
// Rates are USD per 1M tokens.
func DefaultPricing() PricingConfig {
	return PricingConfig{
		RatesByModel: map[string]Rate{
			"gemini-2.5-flash": {Input: 0.30, Output: 2.50},
			"gemini-2.5-pro":   {Input: 1.25, Output: 10.00},
			"gemini-2.0-flash": {Input: 0.10, Output: 0.40},
		},
		ProfitMultiplier: 1.3,
	}
}

// DefaultRate applies when the model is absent from every rate table.
var DefaultRate = Rate{Input: 0.50, Output: 3.00}

// UsageRecord is the derived per-turn usage. Never stored on its own; the
// cost/appTokens deltas are folded into the account ledger.
type UsageRecord struct {
	PromptTokens    int64   `json:"prompt_tokens"`
	CandidateTokens int64   `json:"candidate_tokens"`
	TotalTokens     int64   `json:"total_tokens"`
	Cost            float64 `json:"cost"`
	AppTokens       int64   `json:"app_tokens"`
}

// Ledger is the per-account running spend against configured limits.
type Ledger struct {
	AccountID   string    `json:"account_id"`
	CreditLimit float64   `json:"credit_limit"`
	SpentAmount float64   `json:"spent_amount"`
	TokenLimit  int64     `json:"token_limit"`
	TokensUsed  int64     `json:"tokens_used"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Exhausted reports whether a new turn may not be dispatched. A single
// turn's actual cost may still push SpentAmount past CreditLimit afterwards;
// only dispatch is gated.
func (l *Ledger) Exhausted() bool {
	return l.SpentAmount >= l.CreditLimit
}

// Subscription is the minimal view of the payment collaborator's state that
// the engine depends on.
type Subscription struct {
	AccountID string    `json:"account_id"`
	Plan      string    `json:"plan"`
	Active    bool      `json:"active"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Valid reports whether the subscription admits new turns at the given time.
func (s *Subscription) Valid(now time.Time) bool {
	return s.Active && now.Before(s.ExpiresAt)
}
