// Package geocrypt encrypts points of interest and range predicates.
//
// A KeyManager owns the key material. It is created by the caller and
// passed to the ciphers; nothing in this package keeps process wide state.
package geocrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"io"
	"sync"

	"golang.org/x/crypto/hkdf"

	"github.com/kochabx/eplq/errors"
)

// KeyManager holds one RSA key pair and one AES-256 key. The RSA pair is
// only exported for out of band distribution; payloads are sealed with the
// symmetric key.
type KeyManager struct {
	mu        sync.RWMutex
	random    io.Reader
	rsaBits   int
	private   *rsa.PrivateKey
	symmetric []byte
	aead      cipher.AEAD
}

// KeyOption configures a KeyManager
type KeyOption func(*KeyManager)

// WithRandom sets the entropy source, crypto/rand by default
func WithRandom(r io.Reader) KeyOption {
	return func(k *KeyManager) {
		k.random = r
	}
}

// WithRSABits sets the key pair size
func WithRSABits(bits int) KeyOption {
	return func(k *KeyManager) {
		k.rsaBits = bits
	}
}

// NewKeyManager returns an uninitialized KeyManager
func NewKeyManager(opts ...KeyOption) *KeyManager {
	k := &KeyManager{
		random:  rand.Reader,
		rsaBits: DefaultRSABits,
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// Initialize generates the key material. Calling it again once the manager
// is ready does nothing; use Rotate to replace the keys.
func (k *KeyManager) Initialize() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.aead != nil {
		return nil
	}
	return k.generate("geocrypt.Initialize")
}

// Rotate replaces the key material. Points and queries sealed under the
// previous key no longer decrypt.
func (k *KeyManager) Rotate() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.generate("geocrypt.Rotate")
}

// generate must be called with mu held
func (k *KeyManager) generate(op string) error {
	private, err := rsa.GenerateKey(k.random, k.rsaBits)
	if err != nil {
		return errors.Initialization(op, err)
	}

	symmetric := make([]byte, SymmetricKeySize)
	if _, err := io.ReadFull(k.random, symmetric); err != nil {
		return errors.Initialization(op, err)
	}

	aead, err := newAEAD(symmetric)
	if err != nil {
		return errors.Initialization(op, err)
	}

	k.wipe()
	k.private = private
	k.symmetric = symmetric
	k.aead = aead
	return nil
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCMWithNonceSize(block, NonceSize)
}

// IsReady reports whether Initialize has succeeded
func (k *KeyManager) IsReady() bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.aead != nil
}

// cipher returns the AEAD and the entropy source for sealing
func (k *KeyManager) cipher(op string) (cipher.AEAD, io.Reader, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	if k.aead == nil {
		return nil, nil, errors.NotInitialized(op)
	}
	return k.aead, k.random, nil
}

// ExportPublicKey returns the base64 encoded PKIX DER public key
func (k *KeyManager) ExportPublicKey() (string, error) {
	der, err := k.publicDER("geocrypt.ExportPublicKey")
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(der), nil
}

// PublicKeyPEM returns the public key as a PEM "PUBLIC KEY" block
func (k *KeyManager) PublicKeyPEM() (string, error) {
	der, err := k.publicDER("geocrypt.PublicKeyPEM")
	if err != nil {
		return "", err
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})), nil
}

func (k *KeyManager) publicDER(op string) ([]byte, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	if k.private == nil {
		return nil, errors.NotInitialized(op)
	}
	der, err := x509.MarshalPKIXPublicKey(&k.private.PublicKey)
	if err != nil {
		return nil, errors.Internal(op, err)
	}
	return der, nil
}

// DeriveKey returns a DerivedKeySize subkey of the symmetric key bound to
// label. Subkeys change on Rotate.
func (k *KeyManager) DeriveKey(label string) ([]byte, error) {
	const op = "geocrypt.DeriveKey"

	k.mu.RLock()
	defer k.mu.RUnlock()

	if k.symmetric == nil {
		return nil, errors.NotInitialized(op)
	}

	out := make([]byte, DerivedKeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, k.symmetric, nil, []byte(label)), out); err != nil {
		return nil, errors.Internal(op, err)
	}
	return out, nil
}

// Destroy zeroes the symmetric key and returns the manager to the
// uninitialized state.
func (k *KeyManager) Destroy() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.wipe()
}

func (k *KeyManager) wipe() {
	clear(k.symmetric)
	k.symmetric = nil
	k.private = nil
	k.aead = nil
}
