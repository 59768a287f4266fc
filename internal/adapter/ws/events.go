package ws

import (
	"context"
	"encoding/json"
	"log/slog"
)

// BroadcastEvent marshals a typed event and fans it out. It implements the
// orchestrator's EventSink. The conversation key is probed from the payload
// so filtered connections only receive their own conversation's events.
func (h *Hub) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal ws event payload", "type", eventType, "error", err)
		return
	}

	var probe struct {
		ConversationKey string `json:"conversation_key"`
	}
	_ = json.Unmarshal(data, &probe)

	h.Broadcast(ctx, probe.ConversationKey, Message{
		Type:    eventType,
		Payload: json.RawMessage(data),
	})
}
