package geo

import "math"

// EarthRadius is the mean earth radius in meters used by Distance
const EarthRadius = 6_371_000.0

// metersPerDegree is the arc length of one degree on a great circle
const metersPerDegree = EarthRadius * math.Pi / 180

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Distance returns the haversine distance in meters between two points
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLng := radians(lng2 - lng1)

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)
	a := sinLat*sinLat + math.Cos(radians(lat1))*math.Cos(radians(lat2))*sinLng*sinLng

	return 2 * EarthRadius * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
