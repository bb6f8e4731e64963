package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/agentdeck/agentdeck/internal/domain"
	"github.com/agentdeck/agentdeck/internal/domain/credential"
	"github.com/agentdeck/agentdeck/internal/port/database"
	"github.com/agentdeck/agentdeck/internal/secrets"
)

// Placeholder fragments that mark a copy-pasted template key rather than a
// real one. A key containing any of these is not usable.
var placeholderFragments = []string{"undefined", "your-api-key", "placeholder"}

// minStoredKeyLen rejects obviously truncated keys at save time.
const minStoredKeyLen = 10

// Usable reports whether key looks like a real external API key. Unusable
// keys put the request into simulation mode.
func Usable(key string) bool {
	key = strings.TrimSpace(key)
	if len(key) <= 10 {
		return false
	}
	lower := strings.ToLower(key)
	for _, frag := range placeholderFragments {
		if strings.Contains(lower, frag) {
			return false
		}
	}
	return true
}

// KeyStatus describes a user's credential without revealing it.
type KeyStatus struct {
	Configured bool   `json:"configured"`
	MaskedKey  string `json:"maskedKey,omitempty"`
	Source     string `json:"source"` // "user", "env", or "none"
}

// CredentialResolver decides, per request, which external API key to use:
// the user's stored credential first, the process environment second. When
// neither yields a usable key the caller runs in simulation mode.
type CredentialResolver struct {
	store database.Store
	vault *secrets.Vault
	key   []byte // AES key for credentials at rest
	group singleflight.Group
}

// NewCredentialResolver derives the at-rest encryption key from the process
// encryption secret held in the vault.
func NewCredentialResolver(store database.Store, vault *secrets.Vault) (*CredentialResolver, error) {
	key, err := credential.DeriveKey(vault.Get(secrets.EnvEncryptionSecret))
	if err != nil {
		return nil, fmt.Errorf("credential resolver: %w", err)
	}
	return &CredentialResolver{
		store: store,
		vault: vault,
		key:   key,
	}, nil
}

// Resolve returns the API key to use for userID and whether the caller must
// fall back to simulation mode. A stored credential that fails to decrypt is
// treated as absent, never as an error.
func (r *CredentialResolver) Resolve(ctx context.Context, userID string) (key string, simulation bool) {
	if stored := r.storedKey(ctx, userID); Usable(stored) {
		return stored, false
	}
	if env := r.vault.Get(secrets.EnvAPIKey); Usable(env) {
		return env, false
	}
	return "", true
}

// storedKey fetches and decrypts the user's credential. Concurrent requests
// for the same user share one database fetch.
func (r *CredentialResolver) storedKey(ctx context.Context, userID string) string {
	v, err, _ := r.group.Do(userID, func() (any, error) {
		c, err := r.store.GetCredential(ctx, userID)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				slog.Warn("credential lookup failed", "user", userID, "error", err)
			}
			return "", nil
		}
		plaintext, err := credential.Decrypt(c.Ciphertext, r.key)
		if err != nil {
			// Wrong or rotated encryption secret. The key is unusable;
			// the user has to save it again.
			slog.Warn("credential decrypt failed", "user", userID, "error", err)
			return "", nil
		}
		return string(plaintext), nil
	})
	if err != nil {
		return ""
	}
	return v.(string)
}

// Save validates, encrypts, and stores the user's API key.
func (r *CredentialResolver) Save(ctx context.Context, userID, plaintext string) error {
	trimmed := strings.TrimSpace(plaintext)
	if trimmed == "" {
		return fmt.Errorf("%w: api key is required", domain.ErrValidation)
	}
	if len(trimmed) < minStoredKeyLen {
		return fmt.Errorf("%w: api key must be at least %d characters", domain.ErrValidation, minStoredKeyLen)
	}

	ciphertext, err := credential.Encrypt([]byte(plaintext), r.key)
	if err != nil {
		return fmt.Errorf("encrypt credential: %w", err)
	}

	return r.store.UpsertCredential(ctx, &credential.Credential{
		ID:         uuid.NewString(),
		UserID:     userID,
		Ciphertext: ciphertext,
	})
}

// Delete removes the user's stored credential. Deleting a credential that
// does not exist is not an error.
func (r *CredentialResolver) Delete(ctx context.Context, userID string) error {
	if err := r.store.DeleteCredential(ctx, userID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return nil
}

// Status reports whether a usable key exists and its masked form.
func (r *CredentialResolver) Status(ctx context.Context, userID string) KeyStatus {
	if stored := r.storedKey(ctx, userID); Usable(stored) {
		return KeyStatus{Configured: true, MaskedKey: credential.Mask(stored), Source: "user"}
	}
	if env := r.vault.Get(secrets.EnvAPIKey); Usable(env) {
		return KeyStatus{Configured: true, MaskedKey: credential.Mask(env), Source: "env"}
	}
	return KeyStatus{Configured: false, Source: "none"}
}
