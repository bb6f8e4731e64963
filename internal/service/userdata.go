package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/agentdeck/agentdeck/internal/domain"
	"github.com/agentdeck/agentdeck/internal/domain/user"
	"github.com/agentdeck/agentdeck/internal/port/database"
)

const (
	maxSavedRepositories = 100
	maxSavedBranches     = 100
)

// UserDataService manages the saved repositories and base branches shown in
// the launch form. Both collections use replace-all semantics: the dashboard
// sends the full list on every save.
type UserDataService struct {
	store database.Store
}

func NewUserDataService(store database.Store) *UserDataService {
	return &UserDataService{store: store}
}

func (s *UserDataService) ListRepositories(ctx context.Context, userID string) ([]user.Repository, error) {
	return s.store.ListRepositories(ctx, userID)
}

// SaveRepositories replaces the user's saved repositories.
func (s *UserDataService) SaveRepositories(ctx context.Context, userID string, repos []user.Repository) ([]user.Repository, error) {
	if len(repos) > maxSavedRepositories {
		return nil, fmt.Errorf("%w: at most %d repositories can be saved", domain.ErrValidation, maxSavedRepositories)
	}
	for i := range repos {
		repos[i].Name = strings.TrimSpace(repos[i].Name)
		repos[i].URL = strings.TrimSpace(repos[i].URL)
		if repos[i].URL == "" {
			return nil, fmt.Errorf("%w: repositories[%d].url is required", domain.ErrValidation, i)
		}
		if repos[i].Name == "" {
			repos[i].Name = repos[i].URL
		}
	}
	return s.store.ReplaceRepositories(ctx, userID, repos)
}

func (s *UserDataService) ListBranches(ctx context.Context, userID string) ([]user.Branch, error) {
	return s.store.ListBranches(ctx, userID)
}

// SaveBranches replaces the user's saved base branches.
func (s *UserDataService) SaveBranches(ctx context.Context, userID string, branches []user.Branch) ([]user.Branch, error) {
	if len(branches) > maxSavedBranches {
		return nil, fmt.Errorf("%w: at most %d branches can be saved", domain.ErrValidation, maxSavedBranches)
	}
	for i := range branches {
		branches[i].Name = strings.TrimSpace(branches[i].Name)
		if branches[i].Name == "" {
			return nil, fmt.Errorf("%w: branches[%d].name is required", domain.ErrValidation, i)
		}
	}
	return s.store.ReplaceBranches(ctx, userID, branches)
}
