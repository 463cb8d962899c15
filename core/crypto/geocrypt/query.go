package geocrypt

import (
	"encoding/base64"
	"io"
	"time"

	"github.com/kochabx/eplq/core/validator"
	"github.com/kochabx/eplq/errors"
)

// Predicate selects points within Radius meters of the center, optionally
// restricted to a category.
type Predicate struct {
	CenterLat float64 `json:"centerLat" validate:"gte=-90,lte=90"`
	CenterLng float64 `json:"centerLng" validate:"gte=-180,lte=180"`
	Radius    float64 `json:"radius" validate:"gt=0"`
	Category  string  `json:"category"`
}

// Validate checks coordinate ranges and that Radius is positive
func (p Predicate) Validate() error {
	if err := validator.Validate.Struct(&p); err != nil {
		return errors.Wrap(err, errors.KindInvalidArgument, "geocrypt.Predicate.Validate", "invalid predicate")
	}
	return nil
}

// EncryptedQuery is a sealed Predicate. Token only disambiguates queries
// with equal predicates.
type EncryptedQuery struct {
	Ciphertext []byte    `json:"ciphertext"`
	Token      string    `json:"token"`
	IV         []byte    `json:"iv"`
	CreatedAt  time.Time `json:"createdAt"`
}

// DecryptedQuery is an opened EncryptedQuery
type DecryptedQuery struct {
	Predicate
	Token     string
	Timestamp time.Time
}

type queryPayload struct {
	CenterLat float64 `json:"centerLat"`
	CenterLng float64 `json:"centerLng"`
	Radius    float64 `json:"radius"`
	Category  string  `json:"category"`
	Token     string  `json:"token"`
	Timestamp string  `json:"timestamp"`
}

// QueryCipher seals and opens predicates
type QueryCipher struct {
	keys *KeyManager
	now  func() time.Time
}

// NewQueryCipher creates a QueryCipher over keys. now may be nil.
func NewQueryCipher(keys *KeyManager, now func() time.Time) *QueryCipher {
	if now == nil {
		now = time.Now
	}
	return &QueryCipher{keys: keys, now: now}
}

// Encrypt seals p together with a random token
func (c *QueryCipher) Encrypt(p Predicate) (*EncryptedQuery, error) {
	const op = "geocrypt.QueryCipher.Encrypt"

	_, random, err := c.keys.cipher(op)
	if err != nil {
		return nil, err
	}

	raw := make([]byte, TokenSize)
	if _, err := io.ReadFull(random, raw); err != nil {
		return nil, errors.Encryption(op, err)
	}
	token := base64.RawURLEncoding.EncodeToString(raw)

	now := c.now().UTC()
	ciphertext, iv, err := c.keys.seal(op, queryPayload{
		CenterLat: p.CenterLat,
		CenterLng: p.CenterLng,
		Radius:    p.Radius,
		Category:  p.Category,
		Token:     token,
		Timestamp: now.Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, err
	}

	return &EncryptedQuery{
		Ciphertext: ciphertext,
		Token:      token,
		IV:         iv,
		CreatedAt:  now,
	}, nil
}

// Decrypt opens q. The sealed token must equal the envelope token.
func (c *QueryCipher) Decrypt(q *EncryptedQuery) (*DecryptedQuery, error) {
	const op = "geocrypt.QueryCipher.Decrypt"

	if q == nil {
		return nil, errors.E(op, errors.KindDecryption, errOpen)
	}

	var payload queryPayload
	if err := c.keys.open(op, errors.KindDecryption, q.Ciphertext, q.IV, &payload); err != nil {
		return nil, err
	}
	if payload.Token != q.Token {
		return nil, errors.E(op, errors.KindDecryption, errOpen)
	}

	ts, err := time.Parse(time.RFC3339Nano, payload.Timestamp)
	if err != nil {
		return nil, errors.E(op, errors.KindDecryption, errOpen)
	}

	return &DecryptedQuery{
		Predicate: Predicate{
			CenterLat: payload.CenterLat,
			CenterLng: payload.CenterLng,
			Radius:    payload.Radius,
			Category:  payload.Category,
		},
		Token:     payload.Token,
		Timestamp: ts,
	}, nil
}
