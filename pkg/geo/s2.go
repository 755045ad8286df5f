package geo

import (
	"github.com/golang/geo/s2"
)

const earthRadiusM = 6371008.8

func toLatLng(c Coordinate) s2.LatLng {
	return s2.LatLngFromDegrees(c.Lat, c.Lon)
}

// DistanceMeters is the great-circle distance between a and b.
func DistanceMeters(a, b Coordinate) float64 {
	return toLatLng(a).Distance(toLatLng(b)).Radians() * earthRadiusM
}

// CumulativeDistances returns, for each coordinate, the along-path distance
// in meters from the first one. The first entry is always 0.
func CumulativeDistances(coords []Coordinate) []float64 {
	dists := make([]float64, len(coords))
	for i := 1; i < len(coords); i++ {
		dists[i] = dists[i-1] + DistanceMeters(coords[i-1], coords[i])
	}
	return dists
}
