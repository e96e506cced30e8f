// File: services/linkcodec/codec.go
package linkcodec

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"time"
)

const (
	// DefaultHashLength is the public path-segment length when none is configured.
	DefaultHashLength = 8
	minHashLength     = 6
	maxHashLength     = 12

	// DefaultExpiry bounds how long an issued link stays actionable.
	DefaultExpiry = 24 * time.Hour
)

// Codec encrypts small link payloads with AES-256-GCM and addresses the
// resulting blobs by a truncated content hash. The hash is the only part
// exposed in URLs; the full encrypted blob is persisted server-side keyed
// by it.
type Codec struct {
	key     []byte
	hashLen int
}

// New derives the encryption key by hashing the configured secret; the
// secret is never used raw. hashLen outside [6,12] falls back to the default.
func New(secret string, hashLen int) (*Codec, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if hashLen < minHashLength || hashLen > maxHashLength {
		hashLen = DefaultHashLength
	}

	keyHash := sha256.Sum256([]byte(secret))
	return &Codec{key: keyHash[:], hashLen: hashLen}, nil
}

// encrypt seals the plaintext with a random per-message nonce prepended to
// the ciphertext, then encodes the whole blob with a URL-safe alphabet.
func (c *Codec) encrypt(plaintext []byte) (string, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("failed to create AES cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to create GCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nonce, nonce, plaintext, nil)
	return base64.RawURLEncoding.EncodeToString(ciphertext), nil
}

// decrypt reverses encrypt. Any structural or authentication failure maps
// to ErrDecryptionFailed so callers can tell "link broken" from "link expired".
func (c *Codec) decrypt(encoded string) ([]byte, error) {
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ErrDecryptionFailed
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	if len(raw) < gcm.NonceSize() {
		return nil, ErrDecryptionFailed
	}
	nonce, ciphertext := raw[:gcm.NonceSize()], raw[gcm.NonceSize():]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}

// Hash computes the externally visible path segment for an encrypted blob:
// fixed-length hex, truncated to the configured length.
func (c *Codec) Hash(encrypted string) string {
	sum := sha256.Sum256([]byte(encrypted))
	return hex.EncodeToString(sum[:])[:c.hashLen]
}
