package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/agentdeck/agentdeck/internal/domain"
	"github.com/agentdeck/agentdeck/internal/domain/credential"
)

// Each user holds at most one credential; upsert keys on user_id.

func (s *Store) GetCredential(ctx context.Context, userID string) (*credential.Credential, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, user_id, ciphertext, created_at, updated_at
		FROM credentials WHERE user_id = $1`, userID)

	var c credential.Credential
	if err := row.Scan(&c.ID, &c.UserID, &c.Ciphertext, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, notFoundWrap(err, "get credential for user %s", userID)
	}
	return &c, nil
}

func (s *Store) UpsertCredential(ctx context.Context, c *credential.Credential) error {
	now := time.Now().UTC()
	c.UpdatedAt = now
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO credentials (id, user_id, ciphertext, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET ciphertext = EXCLUDED.ciphertext, updated_at = EXCLUDED.updated_at`,
		c.ID, c.UserID, c.Ciphertext, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert credential: %w", err)
	}
	return nil
}

func (s *Store) DeleteCredential(ctx context.Context, userID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM credentials WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete credential for user %s: %w", userID, domain.ErrNotFound)
	}
	return nil
}
