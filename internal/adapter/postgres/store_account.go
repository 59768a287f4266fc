package postgres

import (
	"context"
	"fmt"

	"github.com/velumlaw/counsel/internal/domain/persona"
)

// GetAgent returns a stored standalone-agent record by id.
func (s *Store) GetAgent(ctx context.Context, id string) (*persona.Agent, error) {
	var a persona.Agent
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, instructions, overlay FROM agents WHERE id = $1`, id,
	).Scan(&a.ID, &a.Name, &a.Instructions, &a.Overlay)
	if err != nil {
		return nil, notFoundWrap(err, "get agent %s", id)
	}
	return &a, nil
}

// GetAPIKey returns the owning account id and the stored bcrypt hash for a
// key id.
func (s *Store) GetAPIKey(ctx context.Context, keyID string) (accountID, hash string, err error) {
	err = s.pool.QueryRow(ctx,
		`SELECT account_id, key_hash FROM api_keys WHERE key_id = $1`, keyID,
	).Scan(&accountID, &hash)
	if err != nil {
		return "", "", notFoundWrap(err, "get api key")
	}
	return accountID, hash, nil
}

// CreateAPIKey stores a freshly minted key hash for an account.
func (s *Store) CreateAPIKey(ctx context.Context, accountID, keyID, hash string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO api_keys (key_id, account_id, key_hash, created_at)
		 VALUES ($1, $2, $3, NOW())`,
		keyID, accountID, hash)
	if err != nil {
		return fmt.Errorf("create api key for %s: %w", accountID, err)
	}
	return nil
}

// EnsureAccount creates an account with its ledger if it does not exist yet.
// Used by the admin CLI when provisioning credentials.
func (s *Store) EnsureAccount(ctx context.Context, accountID string, creditLimit float64, tokenLimit int64) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.Exec(ctx,
		`INSERT INTO accounts (id, created_at) VALUES ($1, NOW())
		 ON CONFLICT (id) DO NOTHING`, accountID); err != nil {
		return fmt.Errorf("ensure account %s: %w", accountID, err)
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO ledgers (account_id, credit_limit, token_limit, updated_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (account_id) DO NOTHING`, accountID, creditLimit, tokenLimit); err != nil {
		return fmt.Errorf("ensure ledger %s: %w", accountID, err)
	}
	return tx.Commit(ctx)
}

// TopUpCredit raises the ledger credit limit for an account.
func (s *Store) TopUpCredit(ctx context.Context, accountID string, amount float64) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE ledgers SET credit_limit = credit_limit + $2, updated_at = NOW()
		 WHERE account_id = $1`,
		accountID, amount)
	return execExpectOne(tag, err, "top up credit %s", accountID)
}
