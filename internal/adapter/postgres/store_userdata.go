package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/agentdeck/agentdeck/internal/domain/user"
)

// Saved repositories and branches use replace-all semantics: the client
// sends the complete list and the previous rows are discarded in the same
// transaction.

func (s *Store) ListRepositories(ctx context.Context, userID string) ([]user.Repository, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, name, url, created_at
		FROM repositories WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("list repositories: %w", err)
	}
	defer rows.Close()

	var repos []user.Repository
	for rows.Next() {
		var r user.Repository
		if err := rows.Scan(&r.ID, &r.UserID, &r.Name, &r.URL, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan repository: %w", err)
		}
		repos = append(repos, r)
	}
	return orEmpty(repos), rows.Err()
}

func (s *Store) ReplaceRepositories(ctx context.Context, userID string, repos []user.Repository) ([]user.Repository, error) {
	now := time.Now().UTC()
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM repositories WHERE user_id = $1`, userID); err != nil {
			return fmt.Errorf("clear repositories: %w", err)
		}
		for i := range repos {
			repos[i].ID = uuid.NewString()
			repos[i].UserID = userID
			repos[i].CreatedAt = now.Add(time.Duration(i) * time.Microsecond)
			if _, err := tx.Exec(ctx, `
				INSERT INTO repositories (id, user_id, name, url, created_at)
				VALUES ($1, $2, $3, $4, $5)`,
				repos[i].ID, userID, repos[i].Name, repos[i].URL, repos[i].CreatedAt,
			); err != nil {
				return fmt.Errorf("insert repository: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return orEmpty(repos), nil
}

func (s *Store) ListBranches(ctx context.Context, userID string) ([]user.Branch, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, name, created_at
		FROM branches WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	defer rows.Close()

	var branches []user.Branch
	for rows.Next() {
		var b user.Branch
		if err := rows.Scan(&b.ID, &b.UserID, &b.Name, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan branch: %w", err)
		}
		branches = append(branches, b)
	}
	return orEmpty(branches), rows.Err()
}

func (s *Store) ReplaceBranches(ctx context.Context, userID string, branches []user.Branch) ([]user.Branch, error) {
	now := time.Now().UTC()
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM branches WHERE user_id = $1`, userID); err != nil {
			return fmt.Errorf("clear branches: %w", err)
		}
		for i := range branches {
			branches[i].ID = uuid.NewString()
			branches[i].UserID = userID
			branches[i].CreatedAt = now.Add(time.Duration(i) * time.Microsecond)
			if _, err := tx.Exec(ctx, `
				INSERT INTO branches (id, user_id, name, created_at)
				VALUES ($1, $2, $3, $4)`,
				branches[i].ID, userID, branches[i].Name, branches[i].CreatedAt,
			); err != nil {
				return fmt.Errorf("insert branch: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return orEmpty(branches), nil
}
