package securestore

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"errors"
	"io"
	"sync"

	"golang.org/x/crypto/hkdf"

	icrypto "github.com/BKH516/sahatu-admin-console/internal/crypto"
	"github.com/BKH516/sahatu-admin-console/log"
)

// Namespace prefixes every key written by the encryption envelope.
const Namespace = "sahatu.admin."

// ErrCryptoUnavailable is returned by SetItem under FallbackRefuse when the
// AEAD could not be initialized.
var ErrCryptoUnavailable = errors.New("securestore: encryption unavailable")

// FallbackPolicy decides what happens when the cipher cannot be initialized.
type FallbackPolicy int

const (
	// FallbackPlaintext stores values unencrypted when the cipher is
	// unavailable. The degradation is logged once when it happens.
	FallbackPlaintext FallbackPolicy = iota
	// FallbackRefuse makes writes fail instead of degrading to plaintext.
	FallbackRefuse
)

// Secure wraps a durable Store with authenticated encryption under an
// ephemeral 256-bit secret generated per process and never persisted.
// Dropping the secret (ClearSessionKey, or a process restart) permanently
// orphans every previously written ciphertext.
type Secure struct {
	store  Store
	policy FallbackPolicy
	logger log.Logger

	mu     sync.Mutex
	secret []byte
	aead   cipher.AEAD
	warned bool
}

// NewSecure creates the encryption envelope over store. The key is created
// lazily on first use.
func NewSecure(store Store, policy FallbackPolicy, logger log.Logger) *Secure {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Secure{store: store, policy: policy, logger: logger}
}

// ensureAEAD creates the ephemeral secret and derives the AEAD from it.
// Caller holds the lock. Returns nil when the cipher is unavailable.
func (s *Secure) ensureAEAD(ctx context.Context) cipher.AEAD {
	if s.aead != nil {
		return s.aead
	}

	secret, err := icrypto.GenerateKey()
	if err != nil {
		s.degrade(ctx, err)
		return nil
	}

	key := make([]byte, icrypto.KeySize)
	kdf := hkdf.New(sha256.New, secret, []byte(Namespace), []byte("storage encryption key"))
	if _, err := io.ReadFull(kdf, key); err != nil {
		s.degrade(ctx, err)
		return nil
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		s.degrade(ctx, err)
		return nil
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		s.degrade(ctx, err)
		return nil
	}

	s.secret = secret
	s.aead = aead
	return aead
}

func (s *Secure) degrade(ctx context.Context, err error) {
	if !s.warned {
		s.warned = true
		s.logger.Warn(ctx, "encryption unavailable, secure storage degraded",
			map[string]interface{}{"error": err.Error(), "refuse": s.policy == FallbackRefuse})
	}
}

// SetItem encrypts value and writes it under the namespaced key. A fresh
// nonce is drawn per call; nonce and ciphertext are stored together,
// base64-encoded.
func (s *Secure) SetItem(ctx context.Context, key, value string) error {
	s.mu.Lock()
	aead := s.ensureAEAD(ctx)
	s.mu.Unlock()

	if aead == nil {
		if s.policy == FallbackRefuse {
			return ErrCryptoUnavailable
		}
		return s.store.Set(ctx, Namespace+key, []byte(value))
	}

	nonce, err := icrypto.GenerateNonce()
	if err != nil {
		if s.policy == FallbackRefuse {
			return ErrCryptoUnavailable
		}
		return s.store.Set(ctx, Namespace+key, []byte(value))
	}

	sealed := aead.Seal(nonce, nonce, []byte(value), nil)
	return s.store.Set(ctx, Namespace+key, []byte(icrypto.EncodeBase64(sealed)))
}

// GetItem reads and decrypts the value under key. It returns found=false for
// both absence and any decode or decryption failure: a ciphertext written
// under a previous key, or tampered data, reads the same as a missing value.
func (s *Secure) GetItem(ctx context.Context, key string) (string, bool) {
	raw, err := s.store.Get(ctx, Namespace+key)
	if err != nil {
		return "", false
	}

	s.mu.Lock()
	aead := s.ensureAEAD(ctx)
	s.mu.Unlock()

	if aead == nil {
		if s.policy == FallbackPlaintext {
			// Degraded mode: the value was stored as plaintext.
			return string(raw), true
		}
		return "", false
	}

	sealed, err := icrypto.DecodeBase64(string(raw))
	if err != nil || len(sealed) < icrypto.NonceSize {
		return "", false
	}

	plain, err := aead.Open(nil, sealed[:icrypto.NonceSize], sealed[icrypto.NonceSize:], nil)
	if err != nil {
		return "", false
	}
	return string(plain), true
}

// RemoveItem deletes the namespaced key.
func (s *Secure) RemoveItem(ctx context.Context, key string) error {
	return s.store.Delete(ctx, Namespace+key)
}

// ClearNamespace removes every durable key under the module's prefix.
func (s *Secure) ClearNamespace(ctx context.Context) error {
	return s.store.DeletePrefix(ctx, Namespace)
}

// ClearSessionKey destroys the ephemeral secret. Every ciphertext written so
// far becomes permanently undecryptable; a later SetItem draws a new secret.
func (s *Secure) ClearSessionKey() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.secret {
		s.secret[i] = 0
	}
	s.secret = nil
	s.aead = nil
}
