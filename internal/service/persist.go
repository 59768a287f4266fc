package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/velumlaw/counsel/internal/domain/chat"
	"github.com/velumlaw/counsel/internal/port/database"
)

// PersistenceGateway conditionally writes the finished conversation to
// durable storage. Billing is handled separately and happens regardless of
// the privacy mode; only the conversation write is gated.
type PersistenceGateway struct {
	store database.Store
}

// NewPersistenceGateway creates a PersistenceGateway.
func NewPersistenceGateway(store database.Store) *PersistenceGateway {
	return &PersistenceGateway{store: store}
}

// Save merges the complete turn list into the conversation record. In
// local-only mode no durable write is issued at all. A write failure is
// logged and swallowed: the already-computed response is never withheld
// because storage degraded.
func (g *PersistenceGateway) Save(ctx context.Context, c *chat.Conversation, localOnly bool) {
	if localOnly {
		slog.Debug("local-only turn, skipping durable write", "key", c.Key)
		return
	}

	c.UpdatedAt = time.Now().UTC()
	if err := g.store.UpsertConversation(ctx, c); err != nil {
		slog.Error("conversation write failed, response returned anyway",
			"key", c.Key, "error", err)
	}
}
