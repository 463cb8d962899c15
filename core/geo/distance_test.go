package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistance(t *testing.T) {
	assert.Equal(t, 0.0, Distance(0, 0, 0, 0))
	assert.InEpsilon(t, 111_195.0, Distance(0, 0, 0, 1), 0.01)
	assert.InDelta(t, 1111.949, Distance(0, 0, 0, 0.01), 0.01)
	assert.InDelta(t, 1_568_520.56, Distance(0, 0, 10, 10), 1)
	assert.InDelta(t, Distance(10, 20, 30, 40), Distance(30, 40, 10, 20), 1e-6)
}

func BenchmarkDistance(b *testing.B) {
	for i := 0; i < b.N; i++ {
		Distance(25.6, 85.1, 25.7, 85.2)
	}
}
