// Package nats provides the NATS JetStream connection shared by the usage
// event publisher and the KV cache bucket.
package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/velumlaw/counsel/internal/domain/billing"
)

const (
	streamName   = "COUNSEL"
	usageSubject = "counsel.usage.recorded"
)

// Conn holds the NATS connection and its JetStream context.
type Conn struct {
	nc *nats.Conn
	js jetstream.JetStream
}

// Connect establishes a connection to NATS and ensures the usage stream exists.
func Connect(ctx context.Context, url string) (*Conn, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream init: %w", err)
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     streamName,
		Subjects: []string{"counsel.usage.>"},
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream stream create: %w", err)
	}

	slog.Info("nats connected", "url", url, "stream", streamName)
	return &Conn{nc: nc, js: js}, nil
}

// JetStream exposes the JetStream context for KV bucket setup.
func (c *Conn) JetStream() jetstream.JetStream {
	return c.js
}

// usageEvent is the wire form of one recorded charge.
type usageEvent struct {
	AccountID  string              `json:"account_id"`
	Usage      billing.UsageRecord `json:"usage"`
	RecordedAt time.Time           `json:"recorded_at"`
}

// PublishUsage emits a usage event after a successful ledger charge. The
// charge already succeeded, so publish failures are logged and dropped.
func (c *Conn) PublishUsage(ctx context.Context, accountID string, rec billing.UsageRecord) {
	data, err := json.Marshal(usageEvent{
		AccountID:  accountID,
		Usage:      rec,
		RecordedAt: time.Now().UTC(),
	})
	if err != nil {
		slog.Error("marshal usage event", "account_id", accountID, "error", err)
		return
	}

	if _, err := c.js.Publish(ctx, usageSubject, data); err != nil {
		slog.Error("publish usage event", "account_id", accountID, "error", err)
	}
}

// Close shuts down the NATS connection.
func (c *Conn) Close() error {
	c.nc.Close()
	return nil
}
