package brouter

import (
	"fmt"
	"strings"

	"github.com/lintang-b-s/brouter-client/pkg/geo"
	"github.com/lintang-b-s/brouter-client/pkg/util"
)

// NogoFlag collects repeated -nogo command line values.
type NogoFlag []Nogo

func (f *NogoFlag) String() string {
	parts := make([]string, 0, len(*f))
	for _, n := range *f {
		parts = append(parts, n.Kind.String()+":"+n.encode())
	}
	return strings.Join(parts, " ")
}

func (f *NogoFlag) Set(s string) error {
	n, err := ParseNogo(s)
	if err != nil {
		return err
	}
	*f = append(*f, n)
	return nil
}

// ParseNogo reads "point:lon,lat,radius[,weight]", "line:lon,lat,lon,lat,...[,weight]"
// or "polygon:lon,lat,...[,weight]". For lines and polygons an odd number of
// values means the last one is the weight.
func ParseNogo(s string) (Nogo, error) {
	kind, rest, ok := strings.Cut(s, ":")
	if !ok {
		return Nogo{}, fmt.Errorf("nogo %q: expected <kind>:<values>", s)
	}
	vals, err := parseFloats(rest)
	if err != nil {
		return Nogo{}, fmt.Errorf("nogo %q: %w", s, err)
	}

	switch kind {
	case "point":
		if len(vals) != 3 && len(vals) != 4 {
			return Nogo{}, fmt.Errorf("nogo %q: point needs lon,lat,radius[,weight]", s)
		}
		var weight *float64
		if len(vals) == 4 {
			weight = &vals[3]
		}
		return NewPointNogo(geo.NewCoordinate(vals[1], vals[0]), vals[2], weight), nil
	case "line", "polygon":
		var weight *float64
		if len(vals)%2 == 1 {
			w := vals[len(vals)-1]
			weight = &w
			vals = vals[:len(vals)-1]
		}
		points := make([]geo.Coordinate, 0, len(vals)/2)
		for i := 0; i+1 < len(vals); i += 2 {
			points = append(points, geo.NewCoordinate(vals[i+1], vals[i]))
		}
		if kind == "line" {
			return NewLineNogo(points, weight), nil
		}
		return NewPolygonNogo(points, weight), nil
	default:
		return Nogo{}, fmt.Errorf("nogo %q: unknown kind %q", s, kind)
	}
}

func parseFloats(s string) ([]float64, error) {
	fields := strings.Split(s, coordSeparator)
	vals := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := util.StringToFloat64(f)
		if err != nil {
			return nil, err
		}
		vals = append(vals, v)
	}
	return vals, nil
}
