// Package agentapi defines the agent backend port. Two adapters implement
// it: the in-memory simulated store and the live external API gateway. The
// service layer selects one per request and never branches on mode again.
package agentapi

import (
	"context"

	"github.com/agentdeck/agentdeck/internal/domain/agent"
	"github.com/agentdeck/agentdeck/internal/domain/conversation"
)

// Backend is the capability contract shared by both operating modes.
// Results carry no mode marker; the caller stamps the simulation flag.
type Backend interface {
	// List returns one page of agents, newest first. Page is zero-indexed.
	List(ctx context.Context, page, limit int) (*agent.Page, error)

	// Get returns an agent by ID, or domain.ErrNotFound.
	Get(ctx context.Context, id string) (*agent.Agent, error)

	// Create launches a new agent from an already-validated request.
	Create(ctx context.Context, req *agent.LaunchRequest) (*agent.Agent, error)

	// Delete removes an agent. Deleting an unknown ID is not an error.
	Delete(ctx context.Context, id string) error

	// Stop halts a running agent.
	Stop(ctx context.Context, id string) error

	// SendFollowUp appends an additional user instruction to a running agent.
	SendFollowUp(ctx context.Context, id, text string) error

	// Conversation returns the agent's transcript, or domain.ErrNotFound.
	Conversation(ctx context.Context, id string) (*conversation.Conversation, error)
}
