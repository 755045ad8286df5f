package geo

import (
	"fmt"
	"math"
)

// Coordinate is a WGS84 position in degrees.
type Coordinate struct {
	Lat float64 `json:"lat" validate:"min=-90,max=90"`
	Lon float64 `json:"lon" validate:"min=-180,max=180"`
}

func NewCoordinate(lat, lon float64) Coordinate {
	return Coordinate{
		Lat: lat,
		Lon: lon,
	}
}

func (c Coordinate) GetLat() float64 {
	return c.Lat
}

func (c Coordinate) GetLon() float64 {
	return c.Lon
}

func (c Coordinate) String() string {
	return fmt.Sprintf("(%g,%g)", c.Lat, c.Lon)
}

func (c Coordinate) Valid() bool {
	return !math.IsNaN(c.Lat) && !math.IsNaN(c.Lon) &&
		c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// ApproxEqual compares both axes within eps degrees.
func (c Coordinate) ApproxEqual(o Coordinate, eps float64) bool {
	return math.Abs(c.Lat-o.Lat) <= eps && math.Abs(c.Lon-o.Lon) <= eps
}
