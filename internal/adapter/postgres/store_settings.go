package postgres

import (
	"context"
	"encoding/json"
	"fmt"
)

// GetSetting returns a single dynamic-config document by key.
func (s *Store) GetSetting(ctx context.Context, key string) (json.RawMessage, error) {
	var value json.RawMessage
	err := s.pool.QueryRow(ctx,
		`SELECT value FROM app_settings WHERE key = $1`, key,
	).Scan(&value)
	if err != nil {
		return nil, notFoundWrap(err, "get setting %s", key)
	}
	return value, nil
}

// UpsertSetting inserts or updates a single dynamic-config document.
func (s *Store) UpsertSetting(ctx context.Context, key string, value json.RawMessage) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO app_settings (key, value, updated_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
		key, value)
	if err != nil {
		return fmt.Errorf("upsert setting %s: %w", key, err)
	}
	return nil
}
