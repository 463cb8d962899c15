package digest

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonical(t *testing.T) {
	assert.Equal(t, "0.000000,0.000000,", Canonical(0, 0, ""))
	assert.Equal(t, "-33.868800,151.209300,hospital", Canonical(-33.8688, 151.2093, "hospital"))
	assert.Equal(t, "1.000000,2.000000,x", Canonical(0.9999999, 2.0000001, "x"))
}

func TestCanonicalSignedZero(t *testing.T) {
	negZero := math.Copysign(0, -1)
	assert.Equal(t, "0.000000,0.000000,", Canonical(negZero, negZero, ""))
	assert.Equal(t, Hash(0, 0, ""), Hash(negZero, negZero, ""))
	assert.Equal(t, "-0.000000,0.000000,", Canonical(-0.0000001, 0, ""))
}

func TestHash(t *testing.T) {
	tests := []struct {
		lat, lng float64
		category string
		want     string
	}{
		{0, 0, "", "XTB6WKsHSyIHCwe9"},
		{25.609312, 85.123456, "restaurant", "cRilgktzG8WDPTek"},
		{-33.8688, 151.2093, "hospital", "bBXltTJ5jp2xqfo6"},
	}

	for _, tc := range tests {
		got := Hash(tc.lat, tc.lng, tc.category)
		assert.Equal(t, tc.want, got)
		assert.Len(t, got, Size)
		assert.Equal(t, got, Hash(tc.lat, tc.lng, tc.category))
	}
}

func TestHashSensitivity(t *testing.T) {
	base := Hash(1, 2, "bank")
	assert.NotEqual(t, base, Hash(1, 2, "Bank"))
	assert.NotEqual(t, base, Hash(1.000001, 2, "bank"))
	// below the sixth decimal the fingerprint is unchanged
	assert.Equal(t, base, Hash(1.0000001, 2, "bank"))
}

func TestKeyed(t *testing.T) {
	a := NewKeyed([]byte("key-a"))
	b := NewKeyed([]byte("key-b"))

	assert.Len(t, a.Hash(1, 2, "x"), Size)
	assert.Equal(t, a.Hash(1, 2, "x"), a.Hash(1, 2, "x"))
	assert.NotEqual(t, a.Hash(1, 2, "x"), b.Hash(1, 2, "x"))
	assert.NotEqual(t, Hash(1, 2, "x"), a.Hash(1, 2, "x"))
}

func BenchmarkHash(b *testing.B) {
	for i := 0; i < b.N; i++ {
		Hash(25.609312, 85.123456, "restaurant")
	}
}
