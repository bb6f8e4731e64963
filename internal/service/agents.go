package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/agentdeck/agentdeck/internal/adapter/cursor"
	"github.com/agentdeck/agentdeck/internal/adapter/otel"
	"github.com/agentdeck/agentdeck/internal/adapter/sim"
	"github.com/agentdeck/agentdeck/internal/adapter/ws"
	"github.com/agentdeck/agentdeck/internal/domain/agent"
	"github.com/agentdeck/agentdeck/internal/domain/conversation"
	"github.com/agentdeck/agentdeck/internal/port/agentapi"
	"github.com/agentdeck/agentdeck/internal/port/cache"
)

// AgentService routes every agent operation to one of two backends: the
// in-memory simulated store or the live external API. The backend is chosen
// once per request from the caller's resolved credential; nothing downstream
// branches on mode again.
type AgentService struct {
	sim      *sim.Store
	gateway  *cursor.Gateway
	resolver *CredentialResolver
	cache    cache.Cache
	hub      *ws.Hub
	metrics  *otel.Metrics
	listTTL  time.Duration
}

// NewAgentService wires the router. hub and metrics may be nil.
func NewAgentService(simStore *sim.Store, gateway *cursor.Gateway, resolver *CredentialResolver, c cache.Cache, hub *ws.Hub, metrics *otel.Metrics, listTTL time.Duration) *AgentService {
	return &AgentService{
		sim:      simStore,
		gateway:  gateway,
		resolver: resolver,
		cache:    c,
		hub:      hub,
		metrics:  metrics,
		listTTL:  listTTL,
	}
}

// backend selects the backend for this request. The returned token is empty
// in simulation mode.
func (s *AgentService) backend(ctx context.Context, userID string) (agentapi.Backend, string, bool) {
	token, simulation := s.resolver.Resolve(ctx, userID)
	if simulation {
		return s.sim, "", true
	}
	return s.gateway.Bind(token), token, false
}

// List returns one page of agents, stamped with the backend that served it.
// Live results are cached briefly per credential so a dashboard refresh does
// not hammer the upstream.
func (s *AgentService) List(ctx context.Context, userID string, page, limit int) (*agent.Page, error) {
	backend, token, simulation := s.backend(ctx, userID)
	ctx, span := otel.StartOperationSpan(ctx, "agents.list", "", simulation)
	defer span.End()

	if !simulation && s.cache != nil {
		key := listCacheKey(token, limit)
		if data, ok, _ := s.cache.Get(ctx, key); ok {
			var cached agent.Page
			if err := json.Unmarshal(data, &cached); err == nil {
				return &cached, nil
			}
		}

		result, err := backend.List(ctx, page, limit)
		if err != nil {
			s.countUpstreamFailure(ctx)
			return nil, err
		}
		result.Simulation = false
		if data, err := json.Marshal(result); err == nil {
			_ = s.cache.Set(ctx, key, data, s.listTTL)
		}
		return result, nil
	}

	result, err := backend.List(ctx, page, limit)
	if err != nil {
		return nil, err
	}
	result.Simulation = simulation
	return result, nil
}

// Get returns a single agent.
func (s *AgentService) Get(ctx context.Context, userID, id string) (*agent.Agent, bool, error) {
	backend, _, simulation := s.backend(ctx, userID)
	ctx, span := otel.StartOperationSpan(ctx, "agents.get", id, simulation)
	defer span.End()

	a, err := backend.Get(ctx, id)
	if err != nil {
		return nil, simulation, err
	}
	return a, simulation, nil
}

// Launch validates the request and creates a new agent on the selected
// backend.
func (s *AgentService) Launch(ctx context.Context, userID string, req *agent.LaunchRequest) (*agent.Agent, bool, error) {
	if err := req.Validate(); err != nil {
		return nil, false, err
	}

	backend, token, simulation := s.backend(ctx, userID)
	ctx, span := otel.StartOperationSpan(ctx, "agents.launch", "", simulation)
	defer span.End()

	created, err := backend.Create(ctx, req)
	if err != nil {
		if !simulation {
			s.countUpstreamFailure(ctx)
		}
		return nil, simulation, err
	}

	s.invalidateList(ctx, token, simulation)
	if s.metrics != nil {
		s.metrics.AgentsLaunched.Add(ctx, 1)
	}
	if s.hub != nil {
		s.hub.BroadcastEvent(ctx, ws.EventAgentLaunched, ws.AgentLaunchedEvent{
			AgentID:    created.ID,
			Name:       created.Name,
			Simulation: simulation,
		})
	}

	slog.Info("agent launched", "agent", created.ID, "simulation", simulation)
	return created, simulation, nil
}

// Delete removes an agent. Deleting an unknown agent succeeds on both
// backends.
func (s *AgentService) Delete(ctx context.Context, userID, id string) (bool, error) {
	backend, token, simulation := s.backend(ctx, userID)
	ctx, span := otel.StartOperationSpan(ctx, "agents.delete", id, simulation)
	defer span.End()

	if err := backend.Delete(ctx, id); err != nil {
		return simulation, err
	}

	s.invalidateList(ctx, token, simulation)
	if s.metrics != nil {
		s.metrics.AgentsDeleted.Add(ctx, 1)
	}
	if s.hub != nil {
		s.hub.BroadcastEvent(ctx, ws.EventAgentDeleted, ws.AgentDeletedEvent{AgentID: id})
	}
	return simulation, nil
}

// Stop halts a running agent.
func (s *AgentService) Stop(ctx context.Context, userID, id string) (bool, error) {
	backend, token, simulation := s.backend(ctx, userID)
	ctx, span := otel.StartOperationSpan(ctx, "agents.stop", id, simulation)
	defer span.End()

	if err := backend.Stop(ctx, id); err != nil {
		return simulation, err
	}
	s.invalidateList(ctx, token, simulation)
	return simulation, nil
}

// SendFollowUp delivers an additional instruction to a running agent.
func (s *AgentService) SendFollowUp(ctx context.Context, userID, id, text string) (bool, error) {
	backend, _, simulation := s.backend(ctx, userID)
	ctx, span := otel.StartOperationSpan(ctx, "agents.followup", id, simulation)
	defer span.End()

	if err := backend.SendFollowUp(ctx, id, text); err != nil {
		return simulation, err
	}
	if s.metrics != nil {
		s.metrics.FollowUps.Add(ctx, 1)
	}
	return simulation, nil
}

// ConversationResult is a transcript plus the mode marker the dashboard
// renders.
type ConversationResult struct {
	Conversation *conversation.Conversation
	Simulation   bool
}

// MarshalJSON flattens the conversation's wire shape and adds the
// simulation flag alongside it.
func (r ConversationResult) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(r.Conversation)
	if err != nil {
		return nil, err
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(base, &m); err != nil {
		return nil, err
	}
	m["simulation"], _ = json.Marshal(r.Simulation)
	return json.Marshal(m)
}

// Conversation returns the agent's transcript. In simulation mode an agent
// without recorded history gets a placeholder transcript instead of an
// error, matching how seeded agents behave in the dashboard.
func (s *AgentService) Conversation(ctx context.Context, userID, id string) (*ConversationResult, error) {
	backend, _, simulation := s.backend(ctx, userID)
	ctx, span := otel.StartOperationSpan(ctx, "agents.conversation", id, simulation)
	defer span.End()

	conv, err := backend.Conversation(ctx, id)
	if err != nil {
		if simulation {
			return &ConversationResult{
				Conversation: placeholderConversation(id),
				Simulation:   true,
			}, nil
		}
		s.countUpstreamFailure(ctx)
		return nil, err
	}
	return &ConversationResult{Conversation: conv, Simulation: simulation}, nil
}

func placeholderConversation(id string) *conversation.Conversation {
	return &conversation.Conversation{
		ID: id,
		Messages: []conversation.Message{
			conversation.UserMessage{
				ID:   "msg_placeholder",
				Text: "No conversation history available for this simulated agent.",
			},
		},
	}
}

// invalidateList drops the cached live list after a mutation.
func (s *AgentService) invalidateList(ctx context.Context, token string, simulation bool) {
	if simulation || s.cache == nil {
		return
	}
	// The cache key includes the limit, which we do not know here; common
	// limits are few, so clear the ones the dashboard uses.
	for _, limit := range []int{10, 20, 50, 100} {
		_ = s.cache.Delete(ctx, listCacheKey(token, limit))
	}
}

func (s *AgentService) countUpstreamFailure(ctx context.Context) {
	if s.metrics != nil {
		s.metrics.UpstreamFailures.Add(ctx, 1)
	}
}

// listCacheKey derives a cache key from the credential without storing the
// credential itself.
func listCacheKey(token string, limit int) string {
	h := sha256.Sum256([]byte(token))
	return fmt.Sprintf("agents:%s:%d", hex.EncodeToString(h[:8]), limit)
}
