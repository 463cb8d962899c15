package poi

import (
	"archive/zip"
	"compress/bzip2"
	"compress/gzip"
	"context"
	"io"
	"os"
	"strings"

	"github.com/kochabx/eplq/errors"
)

// IsExtract reports whether name looks like an OSM extract ReadExtract can open
func IsExtract(name string) bool {
	name = strings.ToLower(name)
	for _, ext := range []string{".osm", ".osm.gz", ".osm.bz2", ".osm.pbf", ".pbf"} {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// ReadExtract reads the OSM extract at path, picking the format from its
// name: .pbf is protobuf, .gz and .bz2 are decompressed first, and .zip
// archives are read member by member for every member IsExtract accepts.
// max bounds the total across archive members.
func ReadExtract(ctx context.Context, path string, bounds *Bounds, max int) ([]Record, error) {
	const op = "poi.ReadExtract"

	if strings.EqualFold(extOf(path), ".zip") {
		return readZip(ctx, path, bounds, max)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.KindInvalidArgument, op, "open %s", path)
	}
	defer f.Close()
	return readNamed(ctx, path, f, bounds, max)
}

func readZip(ctx context.Context, path string, bounds *Bounds, max int) ([]Record, error) {
	const op = "poi.ReadExtract"

	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.KindInvalidArgument, op, "open archive %s", path)
	}
	defer zr.Close()

	var (
		records []Record
		found   bool
	)
	for _, member := range zr.File {
		if member.FileInfo().IsDir() || !IsExtract(member.Name) {
			continue
		}
		found = true

		remaining := 0
		if max > 0 {
			remaining = max - len(records)
		}
		got, err := readMember(ctx, member, bounds, remaining)
		records = append(records, got...)
		if err != nil {
			return records, errors.Wrap(err, errors.KindOf(err), op, "archive member %s", member.Name)
		}
		if max > 0 && len(records) >= max {
			break
		}
	}
	if !found {
		return nil, errors.New(errors.KindInvalidArgument, op, "no osm extract in %s", path)
	}
	return records, nil
}

func readMember(ctx context.Context, member *zip.File, bounds *Bounds, max int) ([]Record, error) {
	rc, err := member.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return readNamed(ctx, member.Name, rc, bounds, max)
}

// readNamed unwraps compression by suffix and dispatches on what remains
func readNamed(ctx context.Context, name string, r io.Reader, bounds *Bounds, max int) ([]Record, error) {
	const op = "poi.ReadExtract"

	switch strings.ToLower(extOf(name)) {
	case ".gz":
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, errors.Wrap(err, errors.KindInvalidArgument, op, "gzip %s", name)
		}
		defer gz.Close()
		return readNamed(ctx, strings.TrimSuffix(name, extOf(name)), gz, bounds, max)
	case ".bz2":
		return readNamed(ctx, strings.TrimSuffix(name, extOf(name)), bzip2.NewReader(r), bounds, max)
	case ".pbf":
		return ReadPBF(ctx, r, bounds, max)
	default:
		return ReadOSM(ctx, r, bounds, max)
	}
}

// extOf is filepath.Ext for both host and archive (slash separated) names
func extOf(name string) string {
	for i := len(name) - 1; i >= 0 && name[i] != '/' && name[i] != '\\'; i-- {
		if name[i] == '.' {
			return name[i:]
		}
	}
	return ""
}
