package geo

import (
	"github.com/twpayne/go-polyline"
)

// PolylineFromCoords encodes coords with the Google polyline algorithm (precision 1e-5).
func PolylineFromCoords(coords []Coordinate) string {
	s := make([][]float64, 0, len(coords))
	for _, c := range coords {
		s = append(s, []float64{c.Lat, c.Lon})
	}
	return string(polyline.EncodeCoords(s))
}

func CoordsFromPolyline(p string) ([]Coordinate, error) {
	s, _, err := polyline.DecodeCoords([]byte(p))
	if err != nil {
		return nil, err
	}
	coords := make([]Coordinate, 0, len(s))
	for _, c := range s {
		coords = append(coords, NewCoordinate(c[0], c[1]))
	}
	return coords, nil
}
