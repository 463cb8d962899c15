package main

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kochabx/eplq/errors"
	"github.com/kochabx/eplq/log"
	"github.com/kochabx/eplq/service"
)

func TestParsePredicate(t *testing.T) {
	p, err := parsePredicate("25.6, 85.1,2000")
	require.NoError(t, err)
	assert.Equal(t, 25.6, p.CenterLat)
	assert.Equal(t, 85.1, p.CenterLng)
	assert.Equal(t, 2000.0, p.Radius)
	assert.Empty(t, p.Category)

	p, err = parsePredicate("0,0,10, restaurant ")
	require.NoError(t, err)
	assert.Equal(t, "restaurant", p.Category)

	_, err = parsePredicate("0,0")
	assert.Error(t, err)
	_, err = parsePredicate("0,x,10")
	assert.Error(t, err)
	_, err = parsePredicate("0,0,0")
	assert.True(t, errors.Is(err, errors.ErrInvalidArgument))
}

func TestParseBounds(t *testing.T) {
	b, err := parseBounds("")
	require.NoError(t, err)
	assert.Nil(t, b)

	b, err = parseBounds("25,85,26,86")
	require.NoError(t, err)
	assert.Equal(t, 25.0, b.MinLat)
	assert.Equal(t, 86.0, b.MaxLng)

	_, err = parseBounds("26,85,25,86")
	assert.Error(t, err)
	_, err = parseBounds("1,2,3")
	assert.Error(t, err)
}

func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRunQuery(t *testing.T) {
	dir := t.TempDir()
	cfg := writeTemp(t, dir, "eplq.yaml", "log:\n  level: disabled\nquery:\n  spatial_prefilter: true\n")
	csv := writeTemp(t, dir, "points.csv", `name,category,latitude,longitude,description
Origin Cafe,fine restaurant,0,0,
Near Clinic,hospital,0,0.01,
Far Hotel,hotel,10,10,
`)

	var out bytes.Buffer
	err := run([]string{"-config", cfg, "query", "-csv", csv, "-q", "0,0,2000,restaurant"}, &out)
	require.NoError(t, err)

	var res service.QueryResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	require.Len(t, res.Records, 1)
	assert.Equal(t, "Origin Cafe", res.Records[0].Name)
	assert.Equal(t, 2, res.CandidatesScanned)
}

func TestRunConvert(t *testing.T) {
	dir := t.TempDir()
	osm := writeTemp(t, dir, "extract.osm", `<?xml version="1.0"?>
<osm version="0.6">
  <node id="1" lat="25.6093" lon="85.1235">
    <tag k="name" v="Spice Hub"/>
    <tag k="amenity" v="restaurant"/>
  </node>
  <node id="2" lat="25.7" lon="85.2"/>
</osm>`)
	cfg := writeTemp(t, dir, "eplq.yaml", "log:\n  level: disabled\n")

	var out bytes.Buffer
	require.NoError(t, run([]string{"-config", cfg, "convert", "-osm", osm}, &out))
	assert.Contains(t, out.String(), "name,category,latitude,longitude,description")
	assert.Contains(t, out.String(), "Spice Hub,restaurant")
}

func TestRunConvertCompressed(t *testing.T) {
	dir := t.TempDir()
	var gz bytes.Buffer
	zw := gzip.NewWriter(&gz)
	_, err := zw.Write([]byte(`<osm><node id="1" lat="25.6" lon="85.1"><tag k="name" v="Patna Inn"/><tag k="tourism" v="hotel"/></node></osm>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	osm := writeTemp(t, dir, "bihar.osm.gz", gz.String())
	cfg := writeTemp(t, dir, "eplq.yaml", "log:\n  level: disabled\n")

	var out bytes.Buffer
	require.NoError(t, run([]string{"-config", cfg, "convert", "-osm", osm, "-bbox", "25,85,26,86"}, &out))
	assert.Contains(t, out.String(), "Patna Inn,hotel")
}

func TestRunUnknownCommand(t *testing.T) {
	cfg := writeTemp(t, t.TempDir(), "eplq.yaml", "log:\n  level: disabled\n")
	var out bytes.Buffer
	assert.Error(t, run([]string{"-config", cfg, "frobnicate"}, &out))
	assert.Contains(t, out.String(), "usage: eplq")
}

func TestWatchLogLevel(t *testing.T) {
	dir := t.TempDir()
	cfg := writeTemp(t, dir, "eplq.yaml", "log:\n  level: info\nwatch: true\n")
	logger := log.NewWriter(io.Discard, log.WithDynamicLevel(zerolog.InfoLevel))
	child := logger.Component("service")

	require.NoError(t, watchLogLevel(cfg, logger))
	writeTemp(t, dir, "eplq.yaml", "log:\n  level: warn\nwatch: true\n")

	assert.Eventually(t, func() bool {
		return child.GetLevel() == zerolog.WarnLevel
	}, 5*time.Second, 20*time.Millisecond)
}
