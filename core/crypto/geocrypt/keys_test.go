package geocrypt

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kochabx/eplq/errors"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, io.ErrUnexpectedEOF
}

// newTestKeys returns a ready manager with a small key pair
func newTestKeys(t testing.TB) *KeyManager {
	t.Helper()
	k := NewKeyManager(WithRSABits(1024))
	require.NoError(t, k.Initialize())
	return k
}

func TestInitialize(t *testing.T) {
	k := NewKeyManager()
	assert.False(t, k.IsReady())
	require.NoError(t, k.Initialize())
	assert.True(t, k.IsReady())

	der, err := base64.StdEncoding.DecodeString(mustExport(t, k))
	require.NoError(t, err)
	pub, err := x509.ParsePKIXPublicKey(der)
	require.NoError(t, err)
	assert.Equal(t, DefaultRSABits, pub.(*rsa.PublicKey).N.BitLen())
}

func TestInitializeIdempotent(t *testing.T) {
	k := newTestKeys(t)
	before := mustExport(t, k)

	require.NoError(t, k.Initialize())
	assert.Equal(t, before, mustExport(t, k))
}

func TestInitializeConcurrent(t *testing.T) {
	k := NewKeyManager(WithRSABits(1024))

	var wg sync.WaitGroup
	keys := make([]string, 4)
	for i := range keys {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, k.Initialize())
			keys[i], _ = k.ExportPublicKey()
		}(i)
	}
	wg.Wait()

	for _, key := range keys {
		assert.Equal(t, keys[0], key)
	}
}

func TestInitializeFailure(t *testing.T) {
	k := NewKeyManager(WithRSABits(1024), WithRandom(failingReader{}))
	err := k.Initialize()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInitialization))
	assert.False(t, k.IsReady())
}

func TestNotInitialized(t *testing.T) {
	k := NewKeyManager()

	_, err := k.ExportPublicKey()
	assert.True(t, errors.Is(err, errors.ErrNotInitialized))
	_, err = k.PublicKeyPEM()
	assert.True(t, errors.Is(err, errors.ErrNotInitialized))
	_, err = k.DeriveKey("x")
	assert.True(t, errors.Is(err, errors.ErrNotInitialized))
}

func TestRotate(t *testing.T) {
	k := newTestKeys(t)
	before := mustExport(t, k)
	oldSub, err := k.DeriveKey("predicate")
	require.NoError(t, err)

	require.NoError(t, k.Rotate())
	assert.NotEqual(t, before, mustExport(t, k))

	newSub, err := k.DeriveKey("predicate")
	require.NoError(t, err)
	assert.NotEqual(t, oldSub, newSub)
}

func TestPublicKeyPEM(t *testing.T) {
	k := newTestKeys(t)
	out, err := k.PublicKeyPEM()
	require.NoError(t, err)

	block, _ := pem.Decode([]byte(out))
	require.NotNil(t, block)
	assert.Equal(t, "PUBLIC KEY", block.Type)
	assert.Equal(t, mustExport(t, k), base64.StdEncoding.EncodeToString(block.Bytes))
}

func TestDeriveKey(t *testing.T) {
	k := newTestKeys(t)
	a1, err := k.DeriveKey("a")
	require.NoError(t, err)
	a2, _ := k.DeriveKey("a")
	b, _ := k.DeriveKey("b")

	assert.Len(t, a1, DerivedKeySize)
	assert.Equal(t, a1, a2)
	assert.NotEqual(t, a1, b)
}

func TestDestroy(t *testing.T) {
	k := newTestKeys(t)
	k.Destroy()
	assert.False(t, k.IsReady())

	_, err := NewPointCipher(k).Encrypt(testRecord)
	assert.True(t, errors.Is(err, errors.ErrNotInitialized))
}

func mustExport(t testing.TB, k *KeyManager) string {
	t.Helper()
	s, err := k.ExportPublicKey()
	require.NoError(t, err)
	return s
}
