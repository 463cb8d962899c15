package poi

import (
	"context"
	"io"
	"runtime"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"

	"github.com/kochabx/eplq/errors"
)

// Bounds limits an OSM read to a coordinate window
type Bounds struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

func (b *Bounds) contains(lat, lng float64) bool {
	return b == nil || (lat >= b.MinLat && lat <= b.MaxLat && lng >= b.MinLng && lng <= b.MaxLng)
}

// ReadOSM streams an OSM XML document and returns the named points of
// interest among its nodes, at most max when max > 0.
func ReadOSM(ctx context.Context, r io.Reader, bounds *Bounds, max int) ([]Record, error) {
	return scanNodes(ctx, "poi.ReadOSM", osmxml.New(ctx, r), bounds, max)
}

// ReadPBF is ReadOSM for the OSM protobuf format. Ways and relations are
// skipped while decoding.
func ReadPBF(ctx context.Context, r io.Reader, bounds *Bounds, max int) ([]Record, error) {
	s := osmpbf.New(ctx, r, runtime.GOMAXPROCS(0))
	s.SkipWays = true
	s.SkipRelations = true
	s.FilterNode = func(n *osm.Node) bool {
		return len(n.Tags) > 0
	}
	return scanNodes(ctx, "poi.ReadPBF", s, bounds, max)
}

func scanNodes(ctx context.Context, op string, s osm.Scanner, bounds *Bounds, max int) ([]Record, error) {
	defer s.Close()

	var records []Record
	for (max <= 0 || len(records) < max) && s.Scan() {
		n, ok := s.Object().(*osm.Node)
		if !ok {
			continue
		}
		rec, ok := nodeRecord(n)
		if !ok || !bounds.contains(rec.Latitude, rec.Longitude) {
			continue
		}
		records = append(records, rec)
	}
	if max > 0 && len(records) >= max {
		return records, nil
	}

	if err := ctx.Err(); err != nil {
		return records, err
	}
	if err := s.Err(); err != nil {
		return records, errors.Wrap(err, errors.KindInvalidArgument, op, "malformed osm data")
	}
	return records, nil
}

func nodeRecord(n *osm.Node) (Record, bool) {
	tags := make(map[string]string, len(n.Tags))
	for _, t := range n.Tags {
		if t.Key != "" && t.Value != "" {
			tags[t.Key] = t.Value
		}
	}
	if !IsPOI(tags) {
		return Record{}, false
	}

	rec := Record{
		Name:        tags["name"],
		Category:    Categorize(tags),
		Latitude:    n.Lat,
		Longitude:   n.Lon,
		Description: Describe(tags),
	}.Clean()
	return rec, rec.Validate() == nil
}
