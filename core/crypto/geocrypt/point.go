package geocrypt

import (
	"time"

	"github.com/kochabx/eplq/core/crypto/digest"
	"github.com/kochabx/eplq/core/geo"
	"github.com/kochabx/eplq/core/poi"
	"github.com/kochabx/eplq/errors"
)

// EncryptedPoint is a sealed Record. SpatialIndex and PredicateHash are
// stored in clear for coarse filtering and are not checked on decryption.
type EncryptedPoint struct {
	Ciphertext    []byte    `json:"ciphertext"`
	SpatialIndex  string    `json:"spatialIndex"`
	PredicateHash string    `json:"predicateHash"`
	IV            []byte    `json:"iv"`
	CreatedAt     time.Time `json:"createdAt"`
}

type pointPayload struct {
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Description string  `json:"description"`
	EncryptedAt string  `json:"encryptedAt"`
}

// PointCipher seals and opens points with a KeyManager's symmetric key
type PointCipher struct {
	keys      *KeyManager
	hasher    digest.Hasher
	precision int
	now       func() time.Time
}

// PointOption configures a PointCipher
type PointOption func(*PointCipher)

// WithHasher sets the predicate hasher, digest.SHA256 by default
func WithHasher(h digest.Hasher) PointOption {
	return func(c *PointCipher) {
		c.hasher = h
	}
}

// WithPrecision sets the spatial index length
func WithPrecision(precision int) PointOption {
	return func(c *PointCipher) {
		c.precision = precision
	}
}

// WithPointClock sets the time source for encryptedAt and CreatedAt
func WithPointClock(now func() time.Time) PointOption {
	return func(c *PointCipher) {
		c.now = now
	}
}

// NewPointCipher creates a PointCipher over keys
func NewPointCipher(keys *KeyManager, opts ...PointOption) *PointCipher {
	c := &PointCipher{
		keys:      keys,
		hasher:    digest.SHA256,
		precision: geo.DefaultPrecision,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Encrypt seals r under a fresh IV and attaches its spatial index and
// predicate hash.
func (c *PointCipher) Encrypt(r poi.Record) (*EncryptedPoint, error) {
	const op = "geocrypt.PointCipher.Encrypt"

	now := c.now().UTC()
	ciphertext, iv, err := c.keys.seal(op, pointPayload{
		Name:        r.Name,
		Category:    r.Category,
		Latitude:    r.Latitude,
		Longitude:   r.Longitude,
		Description: r.Description,
		EncryptedAt: now.Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, err
	}

	return &EncryptedPoint{
		Ciphertext:    ciphertext,
		SpatialIndex:  geo.IndexPrecision(r.Latitude, r.Longitude, c.precision),
		PredicateHash: c.hasher.Hash(r.Latitude, r.Longitude, r.Category),
		IV:            iv,
		CreatedAt:     now,
	}, nil
}

// Decrypt opens p. Tampered ciphertext, a wrong key and a malformed payload
// all fail with the same decryption error.
func (c *PointCipher) Decrypt(p *EncryptedPoint) (poi.Record, error) {
	const op = "geocrypt.PointCipher.Decrypt"

	if p == nil {
		return poi.Record{}, errors.E(op, errors.KindDecryption, errOpen)
	}

	var payload pointPayload
	if err := c.keys.open(op, errors.KindDecryption, p.Ciphertext, p.IV, &payload); err != nil {
		return poi.Record{}, err
	}

	return poi.Record{
		Name:        payload.Name,
		Category:    payload.Category,
		Latitude:    payload.Latitude,
		Longitude:   payload.Longitude,
		Description: payload.Description,
	}, nil
}
