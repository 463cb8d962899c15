package store

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kochabx/eplq/core/crypto/geocrypt"
)

func TestCandidateFilterMatch(t *testing.T) {
	p := StoredPoint{Point: &geocrypt.EncryptedPoint{SpatialIndex: "pqo99k11"}, Category: "Restaurant"}

	assert.True(t, CandidateFilter{}.Match(p))
	assert.True(t, CandidateFilter{Category: " restaurant"}.Match(p))
	assert.False(t, CandidateFilter{Category: "rest"}.Match(p))
	assert.True(t, CandidateFilter{IndexPrefixes: []string{"zz", "pqo"}}.Match(p))
	assert.False(t, CandidateFilter{IndexPrefixes: []string{"pqp"}}.Match(p))
	assert.False(t, CandidateFilter{IndexPrefixes: []string{"p"}}.Match(StoredPoint{}))
}

func TestCandidateFilterNormalize(t *testing.T) {
	f := CandidateFilter{Category: " Bank ", IndexPrefixes: []string{"a"}}.Normalize()
	assert.Equal(t, "bank", f.Category)
	assert.Equal(t, DefaultLimit, f.Limit)

	u := CandidateFilter{Category: "x", IndexPrefixes: []string{"a"}, Limit: 5}.Unfiltered()
	assert.Equal(t, CandidateFilter{Limit: 5}, u)
}

func TestNewIDOrdered(t *testing.T) {
	prev := NewID()
	for i := 0; i < 100; i++ {
		id := NewID()
		assert.Greater(t, id, prev)
		prev = id
	}
}
