// package secrets encrypts sensitive tokens before they reach the key-value cache.
package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"github.com/speedwagon1299/MoodyGrooves/internal/shared"
)

// Cipher provides authenticated symmetric encryption for refresh tokens.
// Blobs are base64([12-byte nonce][ciphertext+GCM tag]); a fresh random nonce
// per call makes the output self-contained and order-independent.
type Cipher struct {
	gcm cipher.AEAD
}

// New derives a 32-byte AES-256-GCM key from the configured secret via
// SHA-256. The key is fixed for the process lifetime.
func New(secret string) (*Cipher, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: session secret is empty", shared.ErrMissingCredentials)
	}

	key := sha256.Sum256([]byte(secret))

	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &Cipher{gcm: gcm}, nil
}

// Encrypt seals plaintext under a fresh random nonce and returns the
// base64-encoded blob.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := c.gcm.Seal(nil, nonce, []byte(plaintext), nil)

	blob := make([]byte, len(nonce)+len(sealed))
	copy(blob, nonce)
	copy(blob[len(nonce):], sealed)

	return base64.StdEncoding.EncodeToString(blob), nil
}

// Decrypt opens a blob produced by Encrypt. A blob whose tag does not verify
// (corruption or wrong key) fails with [shared.ErrIntegrity]; garbage is
// never returned silently.
func (c *Cipher) Decrypt(blob string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return "", fmt.Errorf("%w: malformed blob: %v", shared.ErrIntegrity, err)
	}

	nonceSize := c.gcm.NonceSize()
	if len(data) < nonceSize+c.gcm.Overhead() {
		return "", fmt.Errorf("%w: blob too short: %d bytes", shared.ErrIntegrity, len(data))
	}

	plaintext, err := c.gcm.Open(nil, data[:nonceSize], data[nonceSize:], nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrIntegrity, err)
	}

	return string(plaintext), nil
}
