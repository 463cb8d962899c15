package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/kochabx/eplq/core/crypto/geocrypt"
	"github.com/kochabx/eplq/core/poi"
	"github.com/kochabx/eplq/log"
)

type source struct {
	csv  string
	osm  string
	bbox string
	max  int
}

func registerSource(fs *flag.FlagSet) *source {
	s := &source{}
	fs.StringVar(&s.csv, "csv", "", "points csv with a name,category,latitude,longitude,description header")
	fs.StringVar(&s.osm, "osm", "", "OpenStreetMap extract: .osm, .osm.gz, .osm.bz2, .osm.pbf or a .zip of them")
	fs.StringVar(&s.bbox, "bbox", "", "minlat,minlng,maxlat,maxlng window for -osm")
	fs.IntVar(&s.max, "max", 0, "stop after this many OSM points, 0 for all")
	return s
}

func (s *source) read(ctx context.Context) ([]poi.Record, error) {
	switch {
	case s.csv != "" && s.osm != "":
		return nil, fmt.Errorf("use either -csv or -osm")
	case s.csv != "":
		return readCSV(s.csv)
	case s.osm != "":
		bounds, err := parseBounds(s.bbox)
		if err != nil {
			return nil, err
		}
		return poi.ReadExtract(ctx, s.osm, bounds, s.max)
	default:
		return nil, fmt.Errorf("one of -csv or -osm is required")
	}
}

func readCSV(path string) ([]poi.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, skipped, err := poi.ReadCSV(f)
	if err != nil {
		return nil, err
	}
	for _, rowErr := range skipped {
		log.Warn().Str("file", path).Int("line", rowErr.Line).Str("reason", rowErr.Reason).Msg("skipped row")
	}
	return records, nil
}

func parseFloats(s string, min, max int) ([]float64, []string, error) {
	parts := strings.Split(s, ",")
	if len(parts) < min || len(parts) > max {
		return nil, nil, fmt.Errorf("%q: want %d to %d comma separated values", s, min, max)
	}
	out := make([]float64, 0, min)
	for _, p := range parts[:min] {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, nil, fmt.Errorf("%q: %w", s, err)
		}
		out = append(out, v)
	}
	return out, parts[min:], nil
}

// parsePredicate reads "lat,lng,radius[,category]"
func parsePredicate(s string) (geocrypt.Predicate, error) {
	v, rest, err := parseFloats(s, 3, 4)
	if err != nil {
		return geocrypt.Predicate{}, err
	}
	p := geocrypt.Predicate{CenterLat: v[0], CenterLng: v[1], Radius: v[2]}
	if len(rest) == 1 {
		p.Category = strings.TrimSpace(rest[0])
	}
	return p, p.Validate()
}

// parseBounds reads "minlat,minlng,maxlat,maxlng"; empty means no window
func parseBounds(s string) (*poi.Bounds, error) {
	if s == "" {
		return nil, nil
	}
	v, _, err := parseFloats(s, 4, 4)
	if err != nil {
		return nil, err
	}
	if v[0] > v[2] || v[1] > v[3] {
		return nil, fmt.Errorf("bbox %q: minimum above maximum", s)
	}
	return &poi.Bounds{MinLat: v[0], MinLng: v[1], MaxLat: v[2], MaxLng: v[3]}, nil
}
