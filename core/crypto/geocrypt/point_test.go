package geocrypt

import (
	"bytes"
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kochabx/eplq/core/crypto/digest"
	"github.com/kochabx/eplq/core/geo"
	"github.com/kochabx/eplq/core/poi"
	"github.com/kochabx/eplq/errors"
)

var testRecord = poi.Record{
	Name:        "Spice Hub",
	Category:    "restaurant",
	Latitude:    25.609312,
	Longitude:   85.123456,
	Description: "restaurant (indian)",
}

func TestPointRoundTrip(t *testing.T) {
	c := NewPointCipher(newTestKeys(t))

	records := []poi.Record{
		testRecord,
		{Name: "North Pole", Category: "other", Latitude: 90, Longitude: 180},
		{Name: "ünïcødé ☕", Category: "Fine Restaurant", Latitude: -33.8688, Longitude: 151.2093},
	}
	for _, r := range records {
		p, err := c.Encrypt(r)
		require.NoError(t, err)

		got, err := c.Decrypt(p)
		require.NoError(t, err)
		assert.Equal(t, r, got)
	}
}

func TestPointMetadata(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewPointCipher(newTestKeys(t), WithPointClock(func() time.Time { return now }))

	p, err := c.Encrypt(testRecord)
	require.NoError(t, err)

	assert.Equal(t, geo.Index(testRecord.Latitude, testRecord.Longitude), p.SpatialIndex)
	assert.Equal(t, digest.Hash(testRecord.Latitude, testRecord.Longitude, testRecord.Category), p.PredicateHash)
	assert.Len(t, p.IV, NonceSize)
	assert.Equal(t, now, p.CreatedAt)
	assert.Greater(t, len(p.Ciphertext), TagSize)
	assert.False(t, bytes.Contains(p.Ciphertext, []byte("Spice")))
}

func TestPointOptions(t *testing.T) {
	keys := newTestKeys(t)
	hasher := digest.NewKeyed([]byte("k"))
	c := NewPointCipher(keys, WithHasher(hasher), WithPrecision(5))

	p, err := c.Encrypt(testRecord)
	require.NoError(t, err)
	assert.Len(t, p.SpatialIndex, 5)
	assert.Equal(t, hasher.Hash(testRecord.Latitude, testRecord.Longitude, testRecord.Category), p.PredicateHash)
}

func TestPointUniqueIV(t *testing.T) {
	c := NewPointCipher(newTestKeys(t))

	a, err := c.Encrypt(testRecord)
	require.NoError(t, err)
	b, err := c.Encrypt(testRecord)
	require.NoError(t, err)

	assert.NotEqual(t, a.IV, b.IV)
	assert.NotEqual(t, a.Ciphertext, b.Ciphertext)
	assert.Equal(t, a.SpatialIndex, b.SpatialIndex)
}

func TestPointTampered(t *testing.T) {
	c := NewPointCipher(newTestKeys(t))
	p, err := c.Encrypt(testRecord)
	require.NoError(t, err)

	flipped := *p
	flipped.Ciphertext = bytes.Clone(p.Ciphertext)
	flipped.Ciphertext[0] ^= 0xff

	shortIV := *p
	shortIV.IV = p.IV[:8]

	truncated := *p
	truncated.Ciphertext = p.Ciphertext[:4]

	var msgs []string
	for _, bad := range []*EncryptedPoint{&flipped, &shortIV, &truncated, nil} {
		_, err := c.Decrypt(bad)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrDecryption))
		msgs = append(msgs, err.Error())
	}
	// all failures look alike
	for _, m := range msgs {
		assert.Equal(t, msgs[0], m)
	}
}

func TestPointMalformedPlaintext(t *testing.T) {
	keys := newTestKeys(t)
	ciphertext, iv, err := keys.seal("test", "not an object")
	require.NoError(t, err)

	_, err = NewPointCipher(keys).Decrypt(&EncryptedPoint{Ciphertext: ciphertext, IV: iv})
	assert.True(t, errors.Is(err, errors.ErrDecryption))
}

func TestPointWrongKey(t *testing.T) {
	p, err := NewPointCipher(newTestKeys(t)).Encrypt(testRecord)
	require.NoError(t, err)

	_, err = NewPointCipher(newTestKeys(t)).Decrypt(p)
	assert.True(t, errors.Is(err, errors.ErrDecryption))
}

func TestPointRotateStrandsCiphertext(t *testing.T) {
	keys := newTestKeys(t)
	c := NewPointCipher(keys)
	p, err := c.Encrypt(testRecord)
	require.NoError(t, err)

	require.NoError(t, keys.Rotate())
	_, err = c.Decrypt(p)
	assert.True(t, errors.Is(err, errors.ErrDecryption))
}

func TestPointEncryptSerializationFailure(t *testing.T) {
	c := NewPointCipher(newTestKeys(t))
	_, err := c.Encrypt(poi.Record{Name: "nan", Latitude: math.NaN()})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrEncryption))
}

func TestPointNotInitialized(t *testing.T) {
	c := NewPointCipher(NewKeyManager())

	_, err := c.Encrypt(testRecord)
	assert.True(t, errors.Is(err, errors.ErrNotInitialized))

	_, err = c.Decrypt(&EncryptedPoint{Ciphertext: make([]byte, 32), IV: make([]byte, NonceSize)})
	assert.True(t, errors.Is(err, errors.ErrNotInitialized))
}

func TestEncryptedPointJSON(t *testing.T) {
	c := NewPointCipher(newTestKeys(t))
	p, err := c.Encrypt(testRecord)
	require.NoError(t, err)

	data, err := json.Marshal(p)
	require.NoError(t, err)
	var back EncryptedPoint
	require.NoError(t, json.Unmarshal(data, &back))

	got, err := c.Decrypt(&back)
	require.NoError(t, err)
	assert.Equal(t, testRecord, got)
}

func BenchmarkPointEncrypt(b *testing.B) {
	c := NewPointCipher(newTestKeys(b))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := c.Encrypt(testRecord); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkPointDecrypt(b *testing.B) {
	c := NewPointCipher(newTestKeys(b))
	p, err := c.Encrypt(testRecord)
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := c.Decrypt(p); err != nil {
			b.Fatal(err)
		}
	}
}
