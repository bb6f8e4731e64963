// Package credential defines the stored API credential and its encryption
// primitives. Credentials are encrypted at rest with AES-256-GCM under a
// key derived from the process encryption secret.
package credential

import "time"

// Credential is one user's encrypted external API key.
type Credential struct {
	ID         string    `json:"id"`
	UserID     string    `json:"-"`
	Ciphertext []byte    `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Mask returns the display form of a plaintext key: the first 8 and last 4
// characters with an ellipsis between. Short keys are fully masked.
func Mask(plaintext string) string {
	if len(plaintext) < 12 {
		return "..."
	}
	return plaintext[:8] + "..." + plaintext[len(plaintext)-4:]
}
