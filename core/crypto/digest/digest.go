// Package digest builds fixed length fingerprints of (lat, lng, category)
// used for coarse equality matching of stored points.
package digest

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"hash"
	"strconv"
	"strings"
)

// Size is the length of every fingerprint
const Size = 16

// Hasher fingerprints a predicate
type Hasher interface {
	Hash(lat, lng float64, category string) string
}

// Canonical renders the hashed form "<lat>,<lng>,<category>" with six decimals
func Canonical(lat, lng float64, category string) string {
	var sb strings.Builder
	sb.Grow(24 + len(category))
	sb.WriteString(fixed(lat))
	sb.WriteByte(',')
	sb.WriteString(fixed(lng))
	sb.WriteByte(',')
	sb.WriteString(category)
	return sb.String()
}

// fixed formats v with six decimals. Negative zero prints unsigned, while
// negative values that round to zero keep their sign.
func fixed(v float64) string {
	if v == 0 {
		v = 0
	}
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func encode(h hash.Hash, lat, lng float64, category string) string {
	h.Write([]byte(Canonical(lat, lng, category)))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))[:Size]
}

type plain struct{}

func (plain) Hash(lat, lng float64, category string) string {
	return encode(sha256.New(), lat, lng, category)
}

// SHA256 is the unkeyed Hasher
var SHA256 Hasher = plain{}

// Hash fingerprints with SHA256
func Hash(lat, lng float64, category string) string {
	return SHA256.Hash(lat, lng, category)
}

type keyed struct {
	key []byte
}

// NewKeyed returns an HMAC-SHA256 Hasher. Fingerprints then cannot be
// recomputed by anyone without key.
func NewKeyed(key []byte) Hasher {
	return &keyed{key: append([]byte(nil), key...)}
}

func (k *keyed) Hash(lat, lng float64, category string) string {
	return encode(hmac.New(sha256.New, k.key), lat, lng, category)
}
