// Package geo derives coarse spatial indices from coordinates and measures
// great-circle distances.
//
// An index is built by bisecting the longitude and latitude ranges in turn,
// longitude first, emitting one bit per step. Bits are grouped by five and
// rendered with the digits 0-9a-v. Points sharing a long index prefix are
// close to each other.
package geo

import (
	"fmt"
	"strings"
)

const (
	// DefaultPrecision is the number of index characters
	DefaultPrecision = 8

	// BitsPerChar is the number of bits rendered by one index character
	BitsPerChar = 5

	alphabet = "0123456789abcdefghijklmnopqrstuv"
)

// Index returns the spatial index of (lat, lng) at DefaultPrecision
func Index(lat, lng float64) string {
	return IndexPrecision(lat, lng, DefaultPrecision)
}

// IndexPrecision returns the spatial index of (lat, lng) built from
// precision*BitsPerChar bits. Coordinates equal to an interval midpoint go
// to the upper half, so lat=90 and lng=180 resolve to the last cell.
func IndexPrecision(lat, lng float64, precision int) string {
	if precision <= 0 {
		return ""
	}
	return encodeBits(lat, lng, precision*BitsPerChar)
}

func encodeBits(lat, lng float64, bits int) string {
	latMin, latMax := -90.0, 90.0
	lngMin, lngMax := -180.0, 180.0

	var sb strings.Builder
	sb.Grow((bits + BitsPerChar - 1) / BitsPerChar)

	group, n := 0, 0
	for i := 0; i < bits; i++ {
		group <<= 1
		if i%2 == 0 {
			mid := (lngMin + lngMax) / 2
			if lng >= mid {
				group |= 1
				lngMin = mid
			} else {
				lngMax = mid
			}
		} else {
			mid := (latMin + latMax) / 2
			if lat >= mid {
				group |= 1
				latMin = mid
			} else {
				latMax = mid
			}
		}

		n++
		if n == BitsPerChar {
			sb.WriteByte(alphabet[group])
			group, n = 0, 0
		}
	}
	if n > 0 {
		// pad the last group on the right
		sb.WriteByte(alphabet[group<<(BitsPerChar-n)])
	}
	return sb.String()
}

// Box is the coordinate range covered by an index cell
type Box struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// Center returns the midpoint of the box
func (b Box) Center() (lat, lng float64) {
	return (b.MinLat + b.MaxLat) / 2, (b.MinLng + b.MaxLng) / 2
}

// Contains reports whether (lat, lng) falls inside the half open box
func (b Box) Contains(lat, lng float64) bool {
	return lat >= b.MinLat && (lat < b.MaxLat || b.MaxLat == 90) &&
		lng >= b.MinLng && (lng < b.MaxLng || b.MaxLng == 180)
}

// Decode returns the cell an index denotes
func Decode(index string) (Box, error) {
	box := Box{MinLat: -90, MaxLat: 90, MinLng: -180, MaxLng: 180}

	even := true
	for i := 0; i < len(index); i++ {
		v := strings.IndexByte(alphabet, index[i])
		if v < 0 {
			return Box{}, fmt.Errorf("geo: invalid index character %q at %d", index[i], i)
		}
		for shift := BitsPerChar - 1; shift >= 0; shift-- {
			bit := v>>shift&1 == 1
			if even {
				mid := (box.MinLng + box.MaxLng) / 2
				if bit {
					box.MinLng = mid
				} else {
					box.MaxLng = mid
				}
			} else {
				mid := (box.MinLat + box.MaxLat) / 2
				if bit {
					box.MinLat = mid
				} else {
					box.MaxLat = mid
				}
			}
			even = !even
		}
	}
	return box, nil
}
