package postgres

import (
	"context"
	"fmt"

	"github.com/velumlaw/counsel/internal/domain/billing"
)

// GetLedger returns the credit ledger for an account.
func (s *Store) GetLedger(ctx context.Context, accountID string) (*billing.Ledger, error) {
	var l billing.Ledger
	err := s.pool.QueryRow(ctx,
		`SELECT account_id, credit_limit, spent_amount, token_limit, tokens_used, updated_at
		 FROM ledgers WHERE account_id = $1`, accountID,
	).Scan(&l.AccountID, &l.CreditLimit, &l.SpentAmount, &l.TokenLimit, &l.TokensUsed, &l.UpdatedAt)
	if err != nil {
		return nil, notFoundWrap(err, "get ledger %s", accountID)
	}
	return &l, nil
}

// AddLedgerDelta folds one turn's cost and app-token usage into the account
// ledger. The increment happens in SQL so concurrent turns against the same
// account never lose an update.
func (s *Store) AddLedgerDelta(ctx context.Context, accountID string, cost float64, appTokens int64) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE ledgers SET
		   spent_amount = spent_amount + $2,
		   tokens_used = tokens_used + $3,
		   updated_at = NOW()
		 WHERE account_id = $1`,
		accountID, cost, appTokens)
	return execExpectOne(tag, err, "add ledger delta %s", accountID)
}

// UpsertSubscription writes the subscription record for an account.
func (s *Store) UpsertSubscription(ctx context.Context, sub *billing.Subscription) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO subscriptions (account_id, plan, active, expires_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (account_id) DO UPDATE SET
		   plan = EXCLUDED.plan,
		   active = EXCLUDED.active,
		   expires_at = EXCLUDED.expires_at`,
		sub.AccountID, sub.Plan, sub.Active, sub.ExpiresAt)
	if err != nil {
		return fmt.Errorf("upsert subscription %s: %w", sub.AccountID, err)
	}
	return nil
}

// GetSubscription returns the subscription record for an account.
func (s *Store) GetSubscription(ctx context.Context, accountID string) (*billing.Subscription, error) {
	var sub billing.Subscription
	err := s.pool.QueryRow(ctx,
		`SELECT account_id, plan, active, expires_at
		 FROM subscriptions WHERE account_id = $1`, accountID,
	).Scan(&sub.AccountID, &sub.Plan, &sub.Active, &sub.ExpiresAt)
	if err != nil {
		return nil, notFoundWrap(err, "get subscription %s", accountID)
	}
	return &sub, nil
}
