package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/agentdeck/agentdeck/internal/domain"
	"github.com/agentdeck/agentdeck/internal/domain/credential"
	"github.com/agentdeck/agentdeck/internal/domain/user"
)

// mockStore is an in-memory database.Store for service tests.
type mockStore struct {
	mu          sync.Mutex
	users       map[string]*user.User
	credentials map[string]*credential.Credential // by user ID
	repos       map[string][]user.Repository
	branches    map[string][]user.Branch

	credentialErr error // forced error for GetCredential
}

func newMockStore() *mockStore {
	return &mockStore{
		users:       make(map[string]*user.User),
		credentials: make(map[string]*credential.Credential),
		repos:       make(map[string][]user.Repository),
		branches:    make(map[string][]user.Branch),
	}
}

func (m *mockStore) CreateUser(_ context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return fmt.Errorf("duplicate email %s", u.Email)
		}
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *mockStore) GetUser(_ context.Context, id string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *mockStore) GetUserByEmail(_ context.Context, email string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) UpdateUser(_ context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *mockStore) ListUsers(_ context.Context) ([]user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []user.User
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, nil
}

func (m *mockStore) GetCredential(_ context.Context, userID string) (*credential.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.credentialErr != nil {
		return nil, m.credentialErr
	}
	c, ok := m.credentials[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *mockStore) UpsertCredential(_ context.Context, c *credential.Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.credentials[c.UserID] = &cp
	return nil
}

func (m *mockStore) DeleteCredential(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.credentials[userID]; !ok {
		return domain.ErrNotFound
	}
	delete(m.credentials, userID)
	return nil
}

func (m *mockStore) ListRepositories(_ context.Context, userID string) ([]user.Repository, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]user.Repository(nil), m.repos[userID]...), nil
}

func (m *mockStore) ReplaceRepositories(_ context.Context, userID string, repos []user.Repository) ([]user.Repository, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.repos[userID] = append([]user.Repository(nil), repos...)
	return m.repos[userID], nil
}

func (m *mockStore) ListBranches(_ context.Context, userID string) ([]user.Branch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]user.Branch(nil), m.branches[userID]...), nil
}

func (m *mockStore) ReplaceBranches(_ context.Context, userID string, branches []user.Branch) ([]user.Branch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.branches[userID] = append([]user.Branch(nil), branches...)
	return m.branches[userID], nil
}
