package cryptox

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSealer(t *testing.T) *Sealer {
	t.Helper()
	key := make([]byte, KeySize)
	for i := range key {
		key[i] = byte(i)
	}
	s, err := NewSealer(key)
	require.NoError(t, err)
	return s
}

func TestSealer_RoundTrip(t *testing.T) {
	s := newSealer(t)

	sealed, err := s.Seal([]byte("eyJhbGciOi.token"), []byte("session.token"))
	require.NoError(t, err)
	assert.NotContains(t, string(sealed), "token")

	plain, err := s.Open(sealed, []byte("session.token"))
	require.NoError(t, err)
	assert.Equal(t, "eyJhbGciOi.token", string(plain))
}

func TestSealer_NonceIsRandom(t *testing.T) {
	s := newSealer(t)
	a, err := s.Seal([]byte("same"), nil)
	require.NoError(t, err)
	b, err := s.Seal([]byte("same"), nil)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestSealer_OpenFailures(t *testing.T) {
	s := newSealer(t)
	sealed, err := s.Seal([]byte("value"), []byte("a"))
	require.NoError(t, err)

	_, err = s.Open(sealed, []byte("b"))
	assert.Error(t, err, "wrong associated data")

	tampered := append([]byte(nil), sealed...)
	tampered[len(tampered)-1] ^= 0xff
	_, err = s.Open(tampered, []byte("a"))
	assert.Error(t, err)

	_, err = s.Open([]byte{1, 2, 3}, nil)
	assert.ErrorIs(t, err, ErrMalformedSeal)

	other, err := NewSealer(make([]byte, KeySize))
	require.NoError(t, err)
	_, err = other.Open(sealed, []byte("a"))
	assert.Error(t, err)
}

func TestNewSealer_BadKey(t *testing.T) {
	_, err := NewSealer([]byte("short"))
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestLoadOrCreateKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.key")

	k1, err := LoadOrCreateKey(path)
	require.NoError(t, err)
	assert.Len(t, k1, KeySize)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	k2, err := LoadOrCreateKey(path)
	require.NoError(t, err)
	assert.Equal(t, k1, k2)
}

func TestLoadOrCreateKey_Concurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.key")

	var wg sync.WaitGroup
	keys := make([][]byte, 8)
	for i := range keys {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			k, err := LoadOrCreateKey(path)
			assert.NoError(t, err)
			keys[i] = k
		}(i)
	}
	wg.Wait()

	for _, k := range keys[1:] {
		assert.Equal(t, keys[0], k)
	}
}

func TestLoadOrCreateKey_WrongSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.key")
	require.NoError(t, os.WriteFile(path, []byte("nope"), 0o600))

	_, err := LoadOrCreateKey(path)
	assert.ErrorIs(t, err, ErrInvalidKey)
}
