package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	adhttp "github.com/agentdeck/agentdeck/internal/adapter/http"
	"github.com/agentdeck/agentdeck/internal/adapter/sim"
	"github.com/agentdeck/agentdeck/internal/domain"
	"github.com/agentdeck/agentdeck/internal/domain/credential"
	"github.com/agentdeck/agentdeck/internal/domain/user"
	"github.com/agentdeck/agentdeck/internal/middleware"
	"github.com/agentdeck/agentdeck/internal/secrets"
	"github.com/agentdeck/agentdeck/internal/service"
)

// memStore implements database.Store in memory for handler tests.
type memStore struct {
	mu          sync.Mutex
	users       map[string]*user.User
	credentials map[string]*credential.Credential
	repos       map[string][]user.Repository
	branches    map[string][]user.Branch
}

func newMemStore() *memStore {
	return &memStore{
		users:       make(map[string]*user.User),
		credentials: make(map[string]*credential.Credential),
		repos:       make(map[string][]user.Repository),
		branches:    make(map[string][]user.Branch),
	}
}

func (m *memStore) CreateUser(_ context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
	return nil
}

func (m *memStore) GetUser(_ context.Context, id string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memStore) UpdateUser(_ context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
	return nil
}

func (m *memStore) ListUsers(_ context.Context) ([]user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []user.User
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, nil
}

func (m *memStore) GetCredential(_ context.Context, userID string) (*credential.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.credentials[userID]; ok {
		return c, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memStore) UpsertCredential(_ context.Context, c *credential.Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.credentials[c.UserID] = c
	return nil
}

func (m *memStore) DeleteCredential(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.credentials[userID]; !ok {
		return domain.ErrNotFound
	}
	delete(m.credentials, userID)
	return nil
}

func (m *memStore) ListRepositories(_ context.Context, userID string) ([]user.Repository, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.repos[userID], nil
}

func (m *memStore) ReplaceRepositories(_ context.Context, userID string, repos []user.Repository) ([]user.Repository, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.repos[userID] = repos
	return repos, nil
}

func (m *memStore) ListBranches(_ context.Context, userID string) ([]user.Branch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.branches[userID], nil
}

func (m *memStore) ReplaceBranches(_ context.Context, userID string, branches []user.Branch) ([]user.Branch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.branches[userID] = branches
	return branches, nil
}

type fakeSummarizer struct{}

func (fakeSummarizer) Summarize(context.Context, string) (string, error) {
	return "The agent completed the task.", nil
}

// newTestRouter wires sim-backed services behind the API routes, with a
// fixed test user injected in place of the auth middleware.
func newTestRouter(t *testing.T) (chi.Router, *service.AuthService) {
	t.Helper()

	store := newMemStore()
	vault, err := secrets.NewVault(func() (map[string]string, error) {
		return map[string]string{
			secrets.EnvEncryptionSecret: "0123456789abcdef0123456789abcdef",
		}, nil
	})
	if err != nil {
		t.Fatalf("NewVault: %v", err)
	}

	resolver, err := service.NewCredentialResolver(store, vault)
	if err != nil {
		t.Fatalf("NewCredentialResolver: %v", err)
	}

	simStore := sim.NewStore(sim.WithSeed(), sim.WithDelays(time.Hour, 0))
	agents := service.NewAgentService(simStore, nil, resolver, nil, nil, nil, 10*time.Second)
	auth := service.NewAuthService(store, []byte("handler-test-secret"), time.Hour)

	h := &adhttp.Handlers{
		Auth:        auth,
		Agents:      agents,
		Credentials: resolver,
		Summaries:   service.NewSummaryService(agents, fakeSummarizer{}, "gpt-4o-mini", nil),
		UserData:    service.NewUserDataService(store),
	}

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := middleware.WithUser(req.Context(), &user.User{ID: "u1", Email: "dev@example.com", Role: user.RoleMember})
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	adhttp.MountRoutes(r, h)
	return r, auth
}

func doRequest(t *testing.T, r chi.Router, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestListAgentsEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doRequest(t, r, http.MethodGet, "/api/v1/agents?limit=20", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	page := decode[struct {
		Agents     []json.RawMessage `json:"agents"`
		Total      int               `json:"total"`
		TotalPages int               `json:"totalPages"`
		Simulation bool              `json:"simulation"`
	}](t, rec)
	if !page.Simulation {
		t.Error("expected simulation mode without a key")
	}
	if page.Total != 47 || page.TotalPages != 3 {
		t.Errorf("total = %d, totalPages = %d", page.Total, page.TotalPages)
	}
	if len(page.Agents) != 20 {
		t.Errorf("got %d agents, want 20", len(page.Agents))
	}
}

func TestLaunchAgentEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doRequest(t, r, http.MethodPost, "/api/v1/agents", map[string]any{
		"prompt": map[string]any{"text": "Add request tracing"},
		"source": map[string]any{"repository": "https://github.com/acme/widgets", "ref": "main"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	created := decode[struct {
		ID         string `json:"id"`
		Status     string `json:"status"`
		Simulation bool   `json:"simulation"`
	}](t, rec)
	if created.ID == "" || created.Status != "CREATING" {
		t.Errorf("created = %+v", created)
	}
	if !created.Simulation {
		t.Error("expected simulation launch")
	}

	// The new agent is retrievable.
	rec = doRequest(t, r, http.MethodGet, "/api/v1/agents/"+created.ID, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("get status = %d", rec.Code)
	}
}

func TestLaunchAgentValidation(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doRequest(t, r, http.MethodPost, "/api/v1/agents", map[string]any{
		"prompt": map[string]any{"text": ""},
		"source": map[string]any{"repository": "https://github.com/acme/widgets", "ref": "main"},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 (body %s)", rec.Code, rec.Body.String())
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/agents", bytes.NewReader([]byte("{not json")))
	rec2 := httptest.NewRecorder()
	r.ServeHTTP(rec2, req)
	if rec2.Code != http.StatusBadRequest {
		t.Errorf("malformed body: status = %d, want 400", rec2.Code)
	}
}

func TestGetAgentNotFound(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doRequest(t, r, http.MethodGet, "/api/v1/agents/bc_missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestDeleteAgentEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doRequest(t, r, http.MethodDelete, "/api/v1/agents/bc_sim001", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	// Idempotent: deleting again still succeeds.
	rec = doRequest(t, r, http.MethodDelete, "/api/v1/agents/bc_sim001", nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("second delete status = %d, want 204", rec.Code)
	}
}

func TestFollowUpEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doRequest(t, r, http.MethodPost, "/api/v1/agents/bc_sim001/followup", map[string]any{
		"prompt": map[string]any{"text": "Also update the changelog"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, r, http.MethodPost, "/api/v1/agents/bc_sim001/followup", map[string]any{
		"prompt": map[string]any{"text": ""},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty text: status = %d, want 400", rec.Code)
	}
}

func TestConversationEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	// A seeded agent has a real transcript.
	rec := doRequest(t, r, http.MethodGet, "/api/v1/agents/bc_sim001/conversation", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	conv := decode[struct {
		ID         string            `json:"id"`
		Messages   []json.RawMessage `json:"messages"`
		Simulation bool              `json:"simulation"`
	}](t, rec)
	if !conv.Simulation {
		t.Error("expected simulation conversation")
	}
	if len(conv.Messages) < 2 {
		t.Errorf("got %d messages", len(conv.Messages))
	}

	// An unknown simulated agent gets the placeholder, not a 404.
	rec = doRequest(t, r, http.MethodGet, "/api/v1/agents/bc_unknown/conversation", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("placeholder status = %d", rec.Code)
	}
	conv = decode[struct {
		ID         string            `json:"id"`
		Messages   []json.RawMessage `json:"messages"`
		Simulation bool              `json:"simulation"`
	}](t, rec)
	if len(conv.Messages) != 1 {
		t.Errorf("placeholder messages = %d, want 1", len(conv.Messages))
	}
}

func TestSummarizeEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doRequest(t, r, http.MethodPost, "/api/v1/agents/bc_sim001/summarize", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decode[struct {
		Summary string `json:"summary"`
	}](t, rec)
	if resp.Summary == "" {
		t.Error("expected a summary")
	}

	// No transcript to summarize is a hard 404.
	rec = doRequest(t, r, http.MethodPost, "/api/v1/agents/bc_unknown/summarize", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown agent: status = %d, want 404", rec.Code)
	}
}

func TestAPIKeyEndpoints(t *testing.T) {
	r, _ := newTestRouter(t)

	type keyStatus struct {
		Configured bool   `json:"configured"`
		Source     string `json:"source"`
		MaskedKey  string `json:"maskedKey"`
	}

	rec := doRequest(t, r, http.MethodGet, "/api/v1/user/api-key", nil)
	status := decode[keyStatus](t, rec)
	if status.Configured || status.Source != "none" {
		t.Errorf("initial status = %+v", status)
	}

	rec = doRequest(t, r, http.MethodPut, "/api/v1/user/api-key", map[string]string{
		"apiKey": "key_0123456789abcdef",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("save status = %d, body %s", rec.Code, rec.Body.String())
	}
	status = decode[keyStatus](t, rec)
	if !status.Configured || status.Source != "user" {
		t.Errorf("saved status = %+v", status)
	}
	if status.MaskedKey != "key_0123...cdef" {
		t.Errorf("MaskedKey = %q", status.MaskedKey)
	}

	rec = doRequest(t, r, http.MethodDelete, "/api/v1/user/api-key", nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", rec.Code)
	}

	rec = doRequest(t, r, http.MethodGet, "/api/v1/user/api-key", nil)
	status = decode[keyStatus](t, rec)
	if status.Configured {
		t.Error("key should be gone after delete")
	}
}

func TestRepositoryEndpoints(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doRequest(t, r, http.MethodPut, "/api/v1/user/repositories", map[string]any{
		"repositories": []map[string]string{
			{"name": "widgets", "url": "https://github.com/acme/widgets"},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("save status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, r, http.MethodGet, "/api/v1/user/repositories", nil)
	resp := decode[struct {
		Repositories []struct {
			Name string `json:"name"`
			URL  string `json:"url"`
		} `json:"repositories"`
	}](t, rec)
	if len(resp.Repositories) != 1 || resp.Repositories[0].Name != "widgets" {
		t.Errorf("repositories = %+v", resp.Repositories)
	}

	rec = doRequest(t, r, http.MethodPut, "/api/v1/user/repositories", map[string]any{
		"repositories": []map[string]string{{"name": "no-url"}},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing url: status = %d, want 400", rec.Code)
	}
}

func TestBranchEndpoints(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doRequest(t, r, http.MethodPut, "/api/v1/user/branches", map[string]any{
		"branches": []map[string]string{{"name": "main"}, {"name": "develop"}},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("save status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, r, http.MethodGet, "/api/v1/user/branches", nil)
	resp := decode[struct {
		Branches []struct {
			Name string `json:"name"`
		} `json:"branches"`
	}](t, rec)
	if len(resp.Branches) != 2 {
		t.Errorf("branches = %+v", resp.Branches)
	}
}

func TestLoginEndpoint(t *testing.T) {
	r, auth := newTestRouter(t)
	ctx := context.Background()

	if _, err := auth.Register(ctx, &user.CreateRequest{
		Email:    "dev@example.com",
		Name:     "Dev",
		Password: "correct-horse",
		Role:     user.RoleMember,
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	rec := doRequest(t, r, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    "dev@example.com",
		"password": "correct-horse",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decode[struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}](t, rec)
	if resp.AccessToken == "" || resp.ExpiresIn != 3600 {
		t.Errorf("login response = %+v", resp)
	}

	rec = doRequest(t, r, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    "dev@example.com",
		"password": "wrong",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad password: status = %d, want 401", rec.Code)
	}
}

func TestVersionEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doRequest(t, r, http.MethodGet, "/api/v1/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Body.String(); got != `{"version":"0.1.0"}` {
		t.Errorf("body = %s", got)
	}
}
