package poi

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSV(t *testing.T) {
	input := `name,category,latitude,longitude,description
Cafe One,restaurant,25.6093,85.1235,cafe (coffee)
,hospital,1,1,no name
Bad Lat,bank,abc,1,
Far,bank,95,1,
"Quoted ""Name""",hotel, -33.8688 ,151.2093,
`
	records, skipped, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, Record{
		Name: "Cafe One", Category: "restaurant", Latitude: 25.6093, Longitude: 85.1235, Description: "cafe (coffee)",
	}, records[0])
	assert.Equal(t, "Quoted Name", records[1].Name)
	assert.Equal(t, -33.8688, records[1].Latitude)

	require.Len(t, skipped, 3)
	assert.Equal(t, 3, skipped[0].Line)
	assert.Equal(t, "empty name", skipped[0].Reason)
	assert.Equal(t, 4, skipped[1].Line)
	assert.Contains(t, skipped[1].Reason, "latitude")
	assert.Equal(t, 5, skipped[2].Line)
	assert.Equal(t, "line 5: coordinates out of range", skipped[2].Error())
}

func TestReadCSVColumnOrder(t *testing.T) {
	input := "longitude,latitude,name\n10,20,x\n"
	records, skipped, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	assert.Empty(t, skipped)
	assert.Equal(t, []Record{{Name: "x", Latitude: 20, Longitude: 10}}, records)
}

func TestReadCSVMissingColumn(t *testing.T) {
	_, _, err := ReadCSV(strings.NewReader("name,latitude\nx,1\n"))
	assert.ErrorContains(t, err, `missing column "longitude"`)
}

func TestReadCSVEmpty(t *testing.T) {
	records, skipped, err := ReadCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Nil(t, records)
	assert.Nil(t, skipped)
}

func TestWriteCSVRoundTrip(t *testing.T) {
	in := []Record{
		{Name: "A, with comma", Category: "bank", Latitude: 1.5, Longitude: -2.25, Description: "atm"},
		{Name: "B", Category: "other", Latitude: -90, Longitude: 180},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, in))
	assert.True(t, strings.HasPrefix(buf.String(), "name,category,latitude,longitude,description\n"))

	out, skipped, err := ReadCSV(&buf)
	require.NoError(t, err)
	assert.Empty(t, skipped)
	assert.Equal(t, in, out)
}
