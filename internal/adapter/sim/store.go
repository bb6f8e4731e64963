// Package sim implements the agent backend entirely in memory. It is used
// when no usable live credential is configured, and emulates the external
// API's behavior including asynchronous agent progression.
package sim

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agentdeck/agentdeck/internal/domain"
	"github.com/agentdeck/agentdeck/internal/domain/agent"
	"github.com/agentdeck/agentdeck/internal/domain/conversation"
)

const (
	agentIDPrefix    = "bc_"
	maxNameLen       = 50
	followUpReply    = "I understand. I'm working on your follow-up request. This is a simulated response."
	agentConsoleBase = "https://cursor.com/agents?id="
)

// Notifier observes status transitions, including those fired by deferred
// timers. Called without the store lock held.
type Notifier func(id string, status agent.Status)

// Store is the simulated agent backend. All state is process-local and
// ephemeral; every mutation goes through the store's methods.
type Store struct {
	mu            sync.Mutex
	agents        []agent.Agent // newest first
	conversations map[string]*conversation.Conversation
	timers        map[string]*time.Timer // pending provisioning timers by agent ID

	provisionDelay time.Duration
	replyDelay     time.Duration
	latency        time.Duration
	now            func() time.Time
	notify         Notifier
}

// Option configures a Store.
type Option func(*Store)

// WithSeed populates the store with the deterministic demo fleet.
func WithSeed() Option {
	return func(s *Store) {
		s.agents = seedAgents(s.now())
		for id, conv := range seedConversations() {
			s.conversations[id] = conv
		}
	}
}

// WithDelays overrides the provisioning and follow-up reply delays.
// Tests pass zero or near-zero values.
func WithDelays(provision, reply time.Duration) Option {
	return func(s *Store) {
		s.provisionDelay = provision
		s.replyDelay = reply
	}
}

// WithLatency adds an artificial delay to List and Create so the simulated
// backend feels like a real network hop. Zero disables it.
func WithLatency(d time.Duration) Option {
	return func(s *Store) { s.latency = d }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithNotifier registers a status-transition observer.
func WithNotifier(n Notifier) Option {
	return func(s *Store) { s.notify = n }
}

// NewStore creates a simulated store. Constructed once at process start
// and injected into the service layer; tests build fresh instances.
func NewStore(opts ...Option) *Store {
	s := &Store{
		conversations:  make(map[string]*conversation.Conversation),
		timers:         make(map[string]*time.Timer),
		provisionDelay: 2 * time.Second,
		replyDelay:     time.Second,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns the contiguous slice [page*limit, page*limit+limit) of the
// collection, newest first. Out-of-range pages yield an empty page, not an
// error.
func (s *Store) List(ctx context.Context, page, limit int) (*agent.Page, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", domain.ErrValidation)
	}
	if page < 0 {
		page = 0
	}
	if err := s.simulateLatency(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	total := len(s.agents)
	start := page * limit
	end := start + limit
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	agents := make([]agent.Agent, end-start)
	copy(agents, s.agents[start:end])

	return &agent.Page{
		Agents:     agents,
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: int(math.Ceil(float64(total) / float64(limit))),
	}, nil
}

// Get returns a copy of the agent with the given ID.
func (s *Store) Get(_ context.Context, id string) (*agent.Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.agents {
		if s.agents[i].ID == id {
			a := s.agents[i]
			return &a, nil
		}
	}
	return nil, fmt.Errorf("agent %s: %w", id, domain.ErrNotFound)
}

// Create synthesizes a new agent in CREATING state and prepends it to the
// collection. A provisioning timer flips it to RUNNING after the
// configured delay without blocking the caller.
func (s *Store) Create(ctx context.Context, req *agent.LaunchRequest) (*agent.Agent, error) {
	if err := s.simulateLatency(ctx); err != nil {
		return nil, err
	}

	now := s.now()
	id := agentIDPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:9]

	branch := ""
	autoPr := false
	if req.Target != nil {
		branch = req.Target.BranchName
		autoPr = req.Target.AutoCreatePr
	}
	if branch == "" {
		branch = fmt.Sprintf("cursor/task-%d", now.UnixMilli())
	}

	a := agent.Agent{
		ID:     id,
		Name:   truncateName(req.Prompt.Text),
		Status: agent.StatusCreating,
		Source: req.Source,
		Target: agent.Target{
			URL:          agentConsoleBase + id,
			BranchName:   branch,
			AutoCreatePr: autoPr,
		},
		CreatedAt: now,
	}

	s.mu.Lock()
	s.agents = append([]agent.Agent{a}, s.agents...)
	s.timers[id] = time.AfterFunc(s.provisionDelay, func() { s.finishProvisioning(id) })
	s.mu.Unlock()

	return &a, nil
}

// finishProvisioning is the deferred CREATING -> RUNNING transition. If the
// agent was deleted before the timer fired, this is a no-op.
func (s *Store) finishProvisioning(id string) {
	s.mu.Lock()
	delete(s.timers, id)
	changed := s.setStatusLocked(id, agent.StatusRunning)
	notify := s.notify
	s.mu.Unlock()

	if changed && notify != nil {
		notify(id, agent.StatusRunning)
	}
}

// Delete removes the agent and cancels any pending provisioning timer.
// Idempotent: deleting an unknown ID is a no-op.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
	}
	for i := range s.agents {
		if s.agents[i].ID == id {
			s.agents = append(s.agents[:i], s.agents[i+1:]...)
			break
		}
	}
	return nil
}

// Stop marks the agent finished, mirroring the external API's stop call.
func (s *Store) Stop(_ context.Context, id string) error {
	s.SetStatus(id, agent.StatusFinished)
	return nil
}

// SetStatus updates an agent's status in place without reordering the
// collection. Unknown IDs are ignored.
func (s *Store) SetStatus(id string, status agent.Status) {
	s.mu.Lock()
	changed := s.setStatusLocked(id, status)
	notify := s.notify
	s.mu.Unlock()

	if changed && notify != nil {
		notify(id, status)
	}
}

func (s *Store) setStatusLocked(id string, status agent.Status) bool {
	for i := range s.agents {
		if s.agents[i].ID == id {
			s.agents[i].Status = status
			return true
		}
	}
	return false
}

// Conversation returns a copy of the transcript for id.
func (s *Store) Conversation(_ context.Context, id string) (*conversation.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[id]
	if !ok {
		return nil, fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
	}
	return conv.Clone(), nil
}

// AppendMessage appends to the transcript for id, lazily creating an empty
// conversation on first use.
func (s *Store) AppendMessage(id string, msg conversation.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendLocked(id, msg)
}

func (s *Store) appendLocked(id string, msg conversation.Message) {
	conv, ok := s.conversations[id]
	if !ok {
		conv = &conversation.Conversation{ID: id}
		s.conversations[id] = conv
	}
	conv.Messages = append(conv.Messages, msg)
}

// SendFollowUp appends the user's instruction, then after the reply delay
// appends a canned assistant acknowledgement. The reply is asynchronous,
// modeling the external agent.
func (s *Store) SendFollowUp(_ context.Context, id, text string) error {
	s.mu.Lock()
	s.appendLocked(id, conversation.UserMessage{ID: newMessageID(), Text: text})
	s.mu.Unlock()

	time.AfterFunc(s.replyDelay, func() {
		s.mu.Lock()
		s.appendLocked(id, conversation.AssistantMessage{ID: newMessageID(), Text: followUpReply})
		s.mu.Unlock()
	})
	return nil
}

// truncateName derives the display name from the prompt text: the first 50
// characters with an ellipsis marker appended.
// simulateLatency blocks for the configured artificial delay, bailing out
// early if the request context is cancelled.
func (s *Store) simulateLatency(ctx context.Context) error {
	if s.latency <= 0 {
		return nil
	}
	t := time.NewTimer(s.latency)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func truncateName(prompt string) string {
	runes := []rune(prompt)
	if len(runes) > maxNameLen {
		runes = runes[:maxNameLen]
	}
	return string(runes) + "..."
}

func newMessageID() string {
	return "msg_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
