// Package database defines the durable storage port consumed by services.
package database

import (
	"context"
	"encoding/json"

	"github.com/velumlaw/counsel/internal/domain/billing"
	"github.com/velumlaw/counsel/internal/domain/chat"
	"github.com/velumlaw/counsel/internal/domain/persona"
)

// Store is the durable-storage contract. Implemented by adapter/postgres.
type Store interface {
	// Conversations. UpsertConversation is a merge-write: the caller always
	// supplies the complete, up-to-date turn list, so a full-array overwrite
	// is the append/merge operation.
	GetConversation(ctx context.Context, key string) (*chat.Conversation, error)
	UpsertConversation(ctx context.Context, c *chat.Conversation) error

	// Credit ledger. AddLedgerDelta must be an atomic increment so that
	// concurrent turns against one account never lose a billing update.
	GetLedger(ctx context.Context, accountID string) (*billing.Ledger, error)
	AddLedgerDelta(ctx context.Context, accountID string, cost float64, appTokens int64) error

	// Subscriptions.
	GetSubscription(ctx context.Context, accountID string) (*billing.Subscription, error)

	// Dynamic configuration documents (pricing, model routing, prompt overrides).
	GetSetting(ctx context.Context, key string) (json.RawMessage, error)
	UpsertSetting(ctx context.Context, key string, value json.RawMessage) error

	// Standalone agent records.
	GetAgent(ctx context.Context, id string) (*persona.Agent, error)

	// API keys (auth). Returns the owning account id and the bcrypt hash
	// stored for the key id segment of the presented credential.
	GetAPIKey(ctx context.Context, keyID string) (accountID, hash string, err error)
}
