// Package tiered implements a two-level (L1 + L2) cache adapter.
package tiered

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/velumlaw/counsel/internal/port/cache"
)

// Cache combines an in-process L1 and a remote L2. Reads check L1 first and
// backfill it on an L2 hit. A failing tier degrades to a miss on reads so a
// NATS outage never fails a settings lookup; writes report errors from both
// tiers.
type Cache struct {
	l1       cache.Cache
	l2       cache.Cache
	l1Expire time.Duration
}

// New creates a tiered cache. l1Expire controls how long L2 backfill entries
// live in L1.
func New(l1, l2 cache.Cache, l1Expire time.Duration) *Cache {
	return &Cache{l1: l1, l2: l2, l1Expire: l1Expire}
}

// Get checks L1, then L2, backfilling L1 on an L2 hit.
func (c *Cache) Get(ctx context.Context, key string) (data []byte, ok bool, err error) {
	val, found, err := c.l1.Get(ctx, key)
	if err != nil {
		slog.Debug("l1 cache read degraded", "key", key, "error", err)
	} else if found {
		return val, true, nil
	}

	val, found, err = c.l2.Get(ctx, key)
	if err != nil {
		slog.Debug("l2 cache read degraded", "key", key, "error", err)
		return nil, false, nil
	}
	if !found {
		return nil, false, nil
	}

	_ = c.l1.Set(ctx, key, val, c.l1Expire)
	return val, true, nil
}

// Set writes to both tiers.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return errors.Join(
		c.l1.Set(ctx, key, value, ttl),
		c.l2.Set(ctx, key, value, ttl),
	)
}

// Delete removes from both tiers.
func (c *Cache) Delete(ctx context.Context, key string) error {
	return errors.Join(
		c.l1.Delete(ctx, key),
		c.l2.Delete(ctx, key),
	)
}
