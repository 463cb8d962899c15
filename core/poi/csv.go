package poi

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kochabx/eplq/errors"
)

// Header is the column layout written by WriteCSV
var Header = []string{"name", "category", "latitude", "longitude", "description"}

// RowError describes a skipped CSV row; Line is 1-based and counts the header
type RowError struct {
	Line   int
	Reason string
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// ReadCSV parses records from r. Columns are located by header name, so
// their order is free and description may be absent. Rows with an empty
// name or unusable coordinates are skipped and reported.
func ReadCSV(r io.Reader) ([]Record, []RowError, error) {
	const op = "poi.ReadCSV"

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.KindInvalidArgument, op, "failed to read header")
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, required := range []string{"name", "latitude", "longitude"} {
		if _, ok := cols[required]; !ok {
			return nil, nil, errors.InvalidArgument(op, "missing column %q", required)
		}
	}

	field := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var (
		records []Record
		skipped []RowError
	)
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				skipped = append(skipped, RowError{Line: line, Reason: pe.Err.Error()})
				continue
			}
			return records, skipped, errors.Wrap(err, errors.KindInvalidArgument, op, "read failed at line %d", line)
		}

		rec := Record{
			Name:        field(row, "name"),
			Category:    field(row, "category"),
			Description: field(row, "description"),
		}.Clean()

		if rec.Name == "" {
			skipped = append(skipped, RowError{Line: line, Reason: "empty name"})
			continue
		}
		if rec.Latitude, err = parseCoordinate(field(row, "latitude")); err != nil {
			skipped = append(skipped, RowError{Line: line, Reason: "latitude: " + err.Error()})
			continue
		}
		if rec.Longitude, err = parseCoordinate(field(row, "longitude")); err != nil {
			skipped = append(skipped, RowError{Line: line, Reason: "longitude: " + err.Error()})
			continue
		}
		if err := rec.Validate(); err != nil {
			skipped = append(skipped, RowError{Line: line, Reason: "coordinates out of range"})
			continue
		}

		records = append(records, rec)
	}

	return records, skipped, nil
}

func parseCoordinate(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	return v, nil
}

// WriteCSV writes records with Header as the first row
func WriteCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			r.Name,
			r.Category,
			strconv.FormatFloat(r.Latitude, 'f', -1, 64),
			strconv.FormatFloat(r.Longitude, 'f', -1, 64),
			r.Description,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
