package geo

import (
	"math"
	"slices"
)

// cellSize returns the height and width in degrees of a cell built from
// chars index characters.
func cellSize(chars int) (latDeg, lngDeg float64) {
	bits := chars * BitsPerChar
	lngBits := (bits + 1) / 2
	latBits := bits / 2
	return 180 / math.Pow(2, float64(latBits)), 360 / math.Pow(2, float64(lngBits))
}

// Neighbours returns the up to eight cells adjacent to index, at the same
// precision. Longitude wraps around; cells beyond a pole are omitted.
func Neighbours(index string) ([]string, error) {
	box, err := Decode(index)
	if err != nil {
		return nil, err
	}
	lat, lng := box.Center()
	dLat := box.MaxLat - box.MinLat
	dLng := box.MaxLng - box.MinLng

	out := make([]string, 0, 8)
	for _, dy := range []float64{-1, 0, 1} {
		for _, dx := range []float64{-1, 0, 1} {
			if dx == 0 && dy == 0 {
				continue
			}
			nLat := lat + dy*dLat
			if nLat < -90 || nLat > 90 {
				continue
			}
			nLng := wrapLng(lng + dx*dLng)
			cell := IndexPrecision(nLat, nLng, len(index))
			if cell != index && !slices.Contains(out, cell) {
				out = append(out, cell)
			}
		}
	}
	return out, nil
}

func wrapLng(lng float64) float64 {
	for lng >= 180 {
		lng -= 360
	}
	for lng < -180 {
		lng += 360
	}
	return lng
}

// Cover returns index prefixes whose cells jointly contain every point
// within radius meters of (lat, lng). It picks the longest prefix, at most
// maxPrecision characters, whose cells are at least radius wide and tall,
// and returns that cell with its neighbours.
//
// A nil result means no prefix narrows the search, which happens for very
// large radii or circles reaching a pole.
func Cover(lat, lng, radius float64, maxPrecision int) []string {
	if radius < 0 || math.IsNaN(radius) {
		return nil
	}

	reach := math.Abs(lat) + radius/metersPerDegree
	if reach >= 90 {
		return nil
	}
	shrink := math.Cos(radians(reach))

	chars := 0
	for k := 1; k <= maxPrecision; k++ {
		latDeg, lngDeg := cellSize(k)
		if latDeg*metersPerDegree < radius || lngDeg*metersPerDegree*shrink < radius {
			break
		}
		chars = k
	}
	if chars == 0 {
		return nil
	}

	center := IndexPrecision(lat, lng, chars)
	neighbours, err := Neighbours(center)
	if err != nil {
		return nil
	}
	cells := append([]string{center}, neighbours...)
	slices.Sort(cells)
	return cells
}

// HasPrefix reports whether index starts with any of prefixes
func HasPrefix(index string, prefixes []string) bool {
	for _, p := range prefixes {
		if len(index) >= len(p) && index[:len(p)] == p {
			return true
		}
	}
	return false
}
