package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/agentdeck/agentdeck/internal/adapter/cursor"
	"github.com/agentdeck/agentdeck/internal/adapter/sim"
	"github.com/agentdeck/agentdeck/internal/domain"
	"github.com/agentdeck/agentdeck/internal/domain/agent"
	"github.com/agentdeck/agentdeck/internal/port/cache"
)

// fakeCache is a map-backed cache.Cache that ignores TTLs and records Set
// and Delete calls.
type fakeCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	sets    int
	deletes int
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string][]byte)}
}

func (c *fakeCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.data[key]
	return data, ok, nil
}

func (c *fakeCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	c.sets++
	return nil
}

func (c *fakeCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	c.deletes++
	return nil
}

var _ cache.Cache = (*fakeCache)(nil)

func newSimAgentService(t *testing.T) *AgentService {
	t.Helper()
	// A long provision delay keeps launched agents in CREATING for the
	// duration of the test.
	store := sim.NewStore(sim.WithSeed(), sim.WithDelays(time.Hour, 0))
	resolver := newTestResolver(t, newMockStore(), "")
	return NewAgentService(store, nil, resolver, nil, nil, nil, 10*time.Second)
}

func launchRequest() *agent.LaunchRequest {
	return &agent.LaunchRequest{
		Prompt: agent.Prompt{Text: "Fix the flaky integration test"},
		Source: agent.Source{Repository: "https://github.com/acme/widgets", Ref: "main"},
	}
}

func TestAgentService_ListSimulation(t *testing.T) {
	svc := newSimAgentService(t)

	page, err := svc.List(context.Background(), "u1", 0, 20)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if !page.Simulation {
		t.Error("expected Simulation=true without a usable key")
	}
	if len(page.Agents) != 20 {
		t.Errorf("got %d agents, want 20", len(page.Agents))
	}
	if page.Total != 47 {
		t.Errorf("Total = %d, want 47", page.Total)
	}
}

func TestAgentService_LaunchSimulation(t *testing.T) {
	svc := newSimAgentService(t)
	ctx := context.Background()

	created, simulation, err := svc.Launch(ctx, "u1", launchRequest())
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	if !simulation {
		t.Error("expected simulation launch")
	}
	if created.ID == "" {
		t.Fatal("expected an agent ID")
	}

	got, simulation, err := svc.Get(ctx, "u1", created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !simulation {
		t.Error("expected simulation get")
	}
	if got.Source != created.Source {
		t.Errorf("source = %+v, want %+v", got.Source, created.Source)
	}
}

func TestAgentService_LaunchValidation(t *testing.T) {
	svc := newSimAgentService(t)

	req := launchRequest()
	req.Prompt.Text = ""
	if _, _, err := svc.Launch(context.Background(), "u1", req); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("got %v, want ErrValidation", err)
	}
}

func TestAgentService_DeleteAndStopSimulation(t *testing.T) {
	svc := newSimAgentService(t)
	ctx := context.Background()

	created, _, err := svc.Launch(ctx, "u1", launchRequest())
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}

	if _, err := svc.Stop(ctx, "u1", created.ID); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	got, _, err := svc.Get(ctx, "u1", created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != agent.StatusFinished {
		t.Errorf("status after stop = %s, want FINISHED", got.Status)
	}

	if _, err := svc.Delete(ctx, "u1", created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, _, err := svc.Get(ctx, "u1", created.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("get after delete: got %v, want ErrNotFound", err)
	}
}

func TestAgentService_ConversationPlaceholder(t *testing.T) {
	svc := newSimAgentService(t)

	// Unknown simulated agents yield a placeholder transcript, not an error.
	res, err := svc.Conversation(context.Background(), "u1", "bc_sim999")
	if err != nil {
		t.Fatalf("Conversation: %v", err)
	}
	if !res.Simulation {
		t.Error("expected simulation result")
	}
	if len(res.Conversation.Messages) != 1 {
		t.Fatalf("got %d messages, want 1 placeholder", len(res.Conversation.Messages))
	}

	data, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var wire struct {
		ID         string            `json:"id"`
		Messages   []json.RawMessage `json:"messages"`
		Simulation bool              `json:"simulation"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if wire.ID != "bc_sim999" {
		t.Errorf("id = %q", wire.ID)
	}
	if !wire.Simulation {
		t.Error("wire simulation flag missing")
	}
	if len(wire.Messages) != 1 {
		t.Errorf("wire messages = %d, want 1", len(wire.Messages))
	}
}

func TestAgentService_ConversationSeeded(t *testing.T) {
	svc := newSimAgentService(t)

	res, err := svc.Conversation(context.Background(), "u1", "bc_sim001")
	if err != nil {
		t.Fatalf("Conversation: %v", err)
	}
	if len(res.Conversation.Messages) < 2 {
		t.Errorf("seeded conversation has %d messages", len(res.Conversation.Messages))
	}
}

// newLiveAgentService points the gateway at a test server and configures a
// usable env key so every call takes the live path.
func newLiveAgentService(t *testing.T, upstream http.Handler, c cache.Cache) *AgentService {
	t.Helper()
	srv := httptest.NewServer(upstream)
	t.Cleanup(srv.Close)

	gateway := cursor.NewGateway(srv.URL)
	resolver := newTestResolver(t, newMockStore(), "env-key-0123456789")
	return NewAgentService(sim.NewStore(), gateway, resolver, c, nil, nil, 10*time.Second)
}

func TestAgentService_ListLive(t *testing.T) {
	var calls int
	svc := newLiveAgentService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_ = json.NewEncoder(w).Encode(map[string]any{
			"agents": []map[string]any{
				{"id": "bc_live1", "name": "Live agent", "status": "RUNNING"},
			},
			"nextCursor": "cur_abc",
		})
	}), nil)

	page, err := svc.List(context.Background(), "u1", 0, 20)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Simulation {
		t.Error("expected Simulation=false on the live path")
	}
	if len(page.Agents) != 1 || page.Agents[0].ID != "bc_live1" {
		t.Errorf("agents = %+v", page.Agents)
	}
	if page.NextCursor != "cur_abc" {
		t.Errorf("NextCursor = %q", page.NextCursor)
	}
	if calls != 1 {
		t.Errorf("upstream calls = %d, want 1", calls)
	}
}

func TestAgentService_ListLiveCached(t *testing.T) {
	var calls int
	c := newFakeCache()
	svc := newLiveAgentService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_ = json.NewEncoder(w).Encode(map[string]any{
			"agents": []map[string]any{{"id": "bc_live1", "name": "Live agent", "status": "RUNNING"}},
		})
	}), c)
	ctx := context.Background()

	if _, err := svc.List(ctx, "u1", 0, 20); err != nil {
		t.Fatalf("first List: %v", err)
	}
	page, err := svc.List(ctx, "u1", 0, 20)
	if err != nil {
		t.Fatalf("second List: %v", err)
	}
	if calls != 1 {
		t.Errorf("upstream calls = %d, want 1 (second list served from cache)", calls)
	}
	if page.Simulation {
		t.Error("cached page must keep Simulation=false")
	}
	if c.sets != 1 {
		t.Errorf("cache sets = %d, want 1", c.sets)
	}
}

func TestAgentService_LaunchLiveInvalidatesCache(t *testing.T) {
	c := newFakeCache()
	svc := newLiveAgentService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode(map[string]any{"agents": []map[string]any{}})
		case http.MethodPost:
			_ = json.NewEncoder(w).Encode(map[string]any{"id": "bc_live2", "name": "New agent", "status": "CREATING"})
		}
	}), c)
	ctx := context.Background()

	if _, err := svc.List(ctx, "u1", 0, 20); err != nil {
		t.Fatalf("List: %v", err)
	}

	created, simulation, err := svc.Launch(ctx, "u1", launchRequest())
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	if simulation {
		t.Error("expected live launch")
	}
	if created.ID != "bc_live2" {
		t.Errorf("created.ID = %q", created.ID)
	}
	if c.deletes == 0 {
		t.Error("launch should invalidate the cached list")
	}
}

func TestAgentService_LiveNotFoundPropagates(t *testing.T) {
	svc := newLiveAgentService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
	}), nil)

	if _, _, err := svc.Get(context.Background(), "u1", "bc_gone"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
	if _, err := svc.Conversation(context.Background(), "u1", "bc_gone"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("conversation: got %v, want ErrNotFound (no placeholder on the live path)", err)
	}
}
