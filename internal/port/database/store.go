// Package database defines the persistence port implemented by the
// Postgres adapter.
package database

import (
	"context"

	"github.com/agentdeck/agentdeck/internal/domain/credential"
	"github.com/agentdeck/agentdeck/internal/domain/user"
)

// Store is the persistence interface for users, credentials, and the
// saved repositories/branches used by the launch form.
type Store interface {
	// Users
	CreateUser(ctx context.Context, u *user.User) error
	GetUser(ctx context.Context, id string) (*user.User, error)
	GetUserByEmail(ctx context.Context, email string) (*user.User, error)
	UpdateUser(ctx context.Context, u *user.User) error
	ListUsers(ctx context.Context) ([]user.User, error)

	// Credentials (one encrypted API key per user)
	GetCredential(ctx context.Context, userID string) (*credential.Credential, error)
	UpsertCredential(ctx context.Context, c *credential.Credential) error
	DeleteCredential(ctx context.Context, userID string) error

	// Saved repositories and branches (replace-all semantics)
	ListRepositories(ctx context.Context, userID string) ([]user.Repository, error)
	ReplaceRepositories(ctx context.Context, userID string, repos []user.Repository) ([]user.Repository, error)
	ListBranches(ctx context.Context, userID string) ([]user.Branch, error)
	ReplaceBranches(ctx context.Context, userID string, branches []user.Branch) ([]user.Branch, error)
}
