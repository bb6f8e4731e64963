package ws

import (
	"context"
	"encoding/json"
	"log/slog"
)

// Event type constants for WebSocket messages.
const (
	EventAgentStatus   = "agent_status"
	EventAgentLaunched = "agent_launched"
	EventAgentDeleted  = "agent_deleted"
)

// AgentStatusEvent is broadcast when an agent's status changes.
type AgentStatusEvent struct {
	AgentID    string `json:"agent_id"`
	Status     string `json:"status"`
	Simulation bool   `json:"simulation"`
}

// AgentLaunchedEvent is broadcast when a new agent is created.
type AgentLaunchedEvent struct {
	AgentID    string `json:"agent_id"`
	Name       string `json:"name"`
	Simulation bool   `json:"simulation"`
}

// AgentDeletedEvent is broadcast when an agent is removed.
type AgentDeletedEvent struct {
	AgentID string `json:"agent_id"`
}

// BroadcastEvent marshals a typed event and broadcasts it.
func (h *Hub) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal ws event payload", "type", eventType, "error", err)
		return
	}

	h.Broadcast(ctx, Message{
		Type:    eventType,
		Payload: json.RawMessage(data),
	})
}
