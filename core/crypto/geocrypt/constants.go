package geocrypt

const (
	// SymmetricKeySize is the AES-256 key size in bytes
	SymmetricKeySize = 32

	// NonceSize is the AES-GCM IV size in bytes
	NonceSize = 12

	// TagSize is the AES-GCM authentication tag size in bytes
	TagSize = 16

	// TokenSize is the size of the random query token in bytes
	TokenSize = 16

	// DefaultRSABits is the size of the exported key pair
	DefaultRSABits = 2048

	// DerivedKeySize is the size of keys returned by DeriveKey
	DerivedKeySize = 32
)
