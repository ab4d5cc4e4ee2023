package securestore

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewSecure(NewMemoryStore(), FallbackPlaintext, nil)

	for _, value := range []string{"", "token-123", "päylöad with ünicode", strings.Repeat("x", 4096)} {
		require.NoError(t, s.SetItem(ctx, "k", value))
		got, ok := s.GetItem(ctx, "k")
		assert.True(t, ok)
		assert.Equal(t, value, got)
	}
}

func TestOnlyCiphertextIsDurable(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	s := NewSecure(store, FallbackPlaintext, nil)

	require.NoError(t, s.SetItem(ctx, "token", "super-secret-bearer"))

	raw, err := store.Get(ctx, Namespace+"token")
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "super-secret-bearer")
}

func TestGetItemAbsent(t *testing.T) {
	s := NewSecure(NewMemoryStore(), FallbackPlaintext, nil)
	got, ok := s.GetItem(context.Background(), "missing")
	assert.False(t, ok)
	assert.Empty(t, got)
}

func TestTamperedCiphertextReadsAsAbsent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	s := NewSecure(store, FallbackPlaintext, nil)

	require.NoError(t, s.SetItem(ctx, "k", "value"))
	require.NoError(t, store.Set(ctx, Namespace+"k", []byte("bm90IGEgcmVhbCBjaXBoZXJ0ZXh0")))

	_, ok := s.GetItem(ctx, "k")
	assert.False(t, ok)
}

func TestClearSessionKeyOrphansCiphertexts(t *testing.T) {
	ctx := context.Background()
	s := NewSecure(NewMemoryStore(), FallbackPlaintext, nil)

	require.NoError(t, s.SetItem(ctx, "k", "value"))
	s.ClearSessionKey()

	// The ciphertext is still durable but can never be decrypted again.
	_, ok := s.GetItem(ctx, "k")
	assert.False(t, ok)

	// A later write draws a fresh key and works normally.
	require.NoError(t, s.SetItem(ctx, "k", "second"))
	got, ok := s.GetItem(ctx, "k")
	assert.True(t, ok)
	assert.Equal(t, "second", got)
}

func TestClearNamespace(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	s := NewSecure(store, FallbackPlaintext, nil)

	require.NoError(t, s.SetItem(ctx, "a", "1"))
	require.NoError(t, s.SetItem(ctx, "b", "2"))
	require.NoError(t, store.Set(ctx, "unrelated.key", []byte("kept")))

	require.NoError(t, s.ClearNamespace(ctx))

	_, ok := s.GetItem(ctx, "a")
	assert.False(t, ok)
	_, ok = s.GetItem(ctx, "b")
	assert.False(t, ok)

	kept, err := store.Get(ctx, "unrelated.key")
	require.NoError(t, err)
	assert.Equal(t, []byte("kept"), kept)
}

func TestFreshNoncePerWrite(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	s := NewSecure(store, FallbackPlaintext, nil)

	require.NoError(t, s.SetItem(ctx, "k", "same value"))
	first, err := store.Get(ctx, Namespace+"k")
	require.NoError(t, err)

	require.NoError(t, s.SetItem(ctx, "k", "same value"))
	second, err := store.Get(ctx, Namespace+"k")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestMemoryStoreDeletePrefix(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	require.NoError(t, m.Set(ctx, "pfx.a", []byte("1")))
	require.NoError(t, m.Set(ctx, "pfx.b", []byte("2")))
	require.NoError(t, m.Set(ctx, "other", []byte("3")))

	require.NoError(t, m.DeletePrefix(ctx, "pfx."))

	_, err := m.Get(ctx, "pfx.a")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = m.Get(ctx, "other")
	assert.NoError(t, err)
}
