package poi

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kochabx/eplq/errors"
)

func TestValidate(t *testing.T) {
	assert.NoError(t, Record{Name: "a", Latitude: 90, Longitude: -180}.Validate())

	tests := []Record{
		{Name: "", Latitude: 0, Longitude: 0},
		{Name: "a", Latitude: 90.0001, Longitude: 0},
		{Name: "a", Latitude: 0, Longitude: -180.5},
		{Name: "a", Latitude: math.NaN(), Longitude: 0},
	}
	for _, r := range tests {
		err := r.Validate()
		assert.Error(t, err, "%+v", r)
		assert.True(t, errors.Is(err, errors.ErrInvalidArgument))
	}
}

func TestClean(t *testing.T) {
	r := Record{Name: "  \"Joe's\"\nDiner ", Category: " restaurant", Description: "a\r\nb"}.Clean()
	assert.Equal(t, "Joe's Diner", r.Name)
	assert.Equal(t, "restaurant", r.Category)
	assert.Equal(t, "a b", r.Description)
}

func TestMatchesCategory(t *testing.T) {
	r := Record{Category: "fine restaurant"}
	assert.True(t, r.MatchesCategory("Restaurant"))
	assert.True(t, r.MatchesCategory(""))
	assert.False(t, r.MatchesCategory("hospital"))
	assert.False(t, Record{Category: "hospital"}.MatchesCategory("Restaurant"))
}
