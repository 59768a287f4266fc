package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/velumlaw/counsel/internal/domain/chat"
)

// GetConversation returns a conversation by its deterministic key.
func (s *Store) GetConversation(ctx context.Context, key string) (*chat.Conversation, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT key, account_id, domain_area, topic, mode, COALESCE(agent_id, ''), turns, created_at, updated_at
		 FROM conversations WHERE key = $1`, key)

	c, err := scanConversation(row)
	if err != nil {
		return nil, notFoundWrap(err, "get conversation %s", key)
	}
	return &c, nil
}

// UpsertConversation writes the full conversation state under its key. The
// caller always supplies the complete turn list, so the turns column is
// overwritten rather than appended to.
func (s *Store) UpsertConversation(ctx context.Context, c *chat.Conversation) error {
	turnsJSON, err := json.Marshal(c.Turns)
	if err != nil {
		return fmt.Errorf("marshal turns: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO conversations (key, account_id, domain_area, topic, mode, agent_id, turns, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), $8)
		 ON CONFLICT (key) DO UPDATE SET
		   turns = EXCLUDED.turns,
		   updated_at = EXCLUDED.updated_at`,
		c.Key, c.AccountID, c.DomainArea, c.Topic, c.Mode, nullIfEmpty(c.AgentID), turnsJSON, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert conversation %s: %w", c.Key, err)
	}
	return nil
}

func scanConversation(row scannable) (chat.Conversation, error) {
	var c chat.Conversation
	var turnsJSON []byte
	err := row.Scan(&c.Key, &c.AccountID, &c.DomainArea, &c.Topic, &c.Mode, &c.AgentID, &turnsJSON, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return c, err
	}
	if turnsJSON != nil {
		if err := json.Unmarshal(turnsJSON, &c.Turns); err != nil {
			return c, fmt.Errorf("unmarshal turns: %w", err)
		}
	}
	return c, nil
}

// nullIfEmpty returns nil for empty strings (for nullable columns).
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
