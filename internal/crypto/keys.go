package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

const (
	// KeySize is the symmetric key length in bytes (AES-256).
	KeySize = 32
	// NonceSize is the AEAD nonce length in bytes (96-bit GCM nonce).
	NonceSize = 12
	// CSRFTokenSize is the raw length of a CSRF token before hex encoding.
	CSRFTokenSize = 32
)

// GenerateKey returns a fresh 256-bit symmetric key.
func GenerateKey() ([]byte, error) {
	return randomBytes(KeySize)
}

// GenerateNonce returns a fresh 96-bit nonce. A new nonce must be drawn for
// every encryption under the same key.
func GenerateNonce() ([]byte, error) {
	return randomBytes(NonceSize)
}

// NewCSRFToken returns 32 random bytes hex-encoded (64 characters).
func NewCSRFToken() (string, error) {
	b, err := randomBytes(CSRFTokenSize)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to read random bytes: %w", err)
	}
	return b, nil
}

// EncodeBase64 encodes raw bytes with standard base64.
func EncodeBase64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// DecodeBase64 decodes standard base64, tolerating the unpadded variant.
func DecodeBase64(s string) ([]byte, error) {
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(s)
}

// HashToken hashes a token string. The fixed-size digest is used as a cache
// key so raw credentials never appear as map keys or log fields.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
