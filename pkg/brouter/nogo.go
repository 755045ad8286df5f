package brouter

import (
	"fmt"
	"math"
	"strings"

	"github.com/lintang-b-s/brouter-client/pkg/geo"
	"github.com/lintang-b-s/brouter-client/pkg/util"
)

type NogoKind uint8

const (
	NogoPoint NogoKind = iota
	NogoLine
	NogoPolygon
)

func (k NogoKind) String() string {
	switch k {
	case NogoPoint:
		return "point"
	case NogoLine:
		return "line"
	case NogoPolygon:
		return "polygon"
	default:
		return fmt.Sprintf("NogoKind(%d)", uint8(k))
	}
}

// Nogo is an area the engine should avoid (or penalize, when Weight is set).
type Nogo struct {
	Kind   NogoKind
	Points []geo.Coordinate
	// meters, point nogos only
	Radius float64
	Weight *float64
}

func NewPointNogo(center geo.Coordinate, radius float64, weight *float64) Nogo {
	return Nogo{Kind: NogoPoint, Points: []geo.Coordinate{center}, Radius: radius, Weight: weight}
}

func NewLineNogo(points []geo.Coordinate, weight *float64) Nogo {
	return Nogo{Kind: NogoLine, Points: append([]geo.Coordinate(nil), points...), Weight: weight}
}

func NewPolygonNogo(points []geo.Coordinate, weight *float64) Nogo {
	return Nogo{Kind: NogoPolygon, Points: append([]geo.Coordinate(nil), points...), Weight: weight}
}

func (n Nogo) validate() error {
	minPoints := map[NogoKind]int{NogoPoint: 1, NogoLine: 2, NogoPolygon: 3}[n.Kind]
	if minPoints == 0 {
		return fmt.Errorf("unknown nogo kind %v", n.Kind)
	}
	if len(n.Points) < minPoints {
		return fmt.Errorf("%v nogo needs at least %d points, got %d", n.Kind, minPoints, len(n.Points))
	}
	if n.Kind == NogoPoint && !(finite(n.Radius) && n.Radius > 0) {
		return fmt.Errorf("point nogo needs a positive radius, got %g", n.Radius)
	}
	if n.Weight != nil && !finite(*n.Weight) {
		return fmt.Errorf("%v nogo weight must be finite, got %g", n.Kind, *n.Weight)
	}
	for _, p := range n.Points {
		if !p.Valid() {
			return fmt.Errorf("%v nogo has an out of range coordinate %v", n.Kind, p)
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// encode renders the nogo the way brouter's nogos/polylines/polygons parameters expect it.
func (n Nogo) encode() string {
	vals := make([]string, 0, 2*len(n.Points)+2)
	for _, p := range n.Points {
		vals = append(vals, util.FormatFloat(p.Lon), util.FormatFloat(p.Lat))
	}
	if n.Kind == NogoPoint {
		vals = append(vals, util.FormatFloat(n.Radius))
	}
	if n.Weight != nil {
		vals = append(vals, util.FormatFloat(*n.Weight))
	}
	return strings.Join(vals, ",")
}

func encodeNogos(nogos []Nogo, kind NogoKind) string {
	parts := make([]string, 0, len(nogos))
	for _, n := range nogos {
		if n.Kind == kind {
			parts = append(parts, n.encode())
		}
	}
	return strings.Join(parts, pointSeparator)
}
