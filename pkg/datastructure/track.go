package datastructure

import (
	"github.com/lintang-b-s/brouter-client/pkg/geo"
	"github.com/tkrajina/gpxgo/gpx"
)

// TrackPoint is one sample of a routed track.
type TrackPoint struct {
	geo.Coordinate
	// nil when the engine did not report elevation for this sample
	Elevation *float64 `json:"elevation,omitempty"`
	// cumulative meters from the first sample
	Distance float64 `json:"distance"`
}

type Waypoint struct {
	geo.Coordinate
	Name string `json:"name,omitempty"`
}

// Route is a routed track flattened out of the engine's GPX reply.
// The decoded document stays available for re-encoding.
type Route struct {
	Name      string       `json:"name,omitempty"`
	Points    []TrackPoint `json:"points"`
	Waypoints []Waypoint   `json:"waypoints,omitempty"`
	// meters; the engine's own figure when it reports one
	Length float64 `json:"length"`

	GPX *gpx.GPX `json:"-"`
}

// NewRoute flattens every track segment of doc, in document order.
func NewRoute(doc *gpx.GPX) *Route {
	r := &Route{GPX: doc}

	coords := make([]geo.Coordinate, 0)
	for _, trk := range doc.Tracks {
		if r.Name == "" {
			r.Name = trk.Name
		}
		for _, seg := range trk.Segments {
			for _, p := range seg.Points {
				tp := TrackPoint{Coordinate: geo.NewCoordinate(p.Latitude, p.Longitude)}
				if p.Elevation.NotNull() {
					ele := p.Elevation.Value()
					tp.Elevation = &ele
				}
				r.Points = append(r.Points, tp)
				coords = append(coords, tp.Coordinate)
			}
		}
	}

	dists := geo.CumulativeDistances(coords)
	for i := range r.Points {
		r.Points[i].Distance = dists[i]
	}
	if len(dists) > 0 {
		r.Length = dists[len(dists)-1]
	}

	for _, w := range doc.Waypoints {
		r.Waypoints = append(r.Waypoints, Waypoint{
			Coordinate: geo.NewCoordinate(w.Latitude, w.Longitude),
			Name:       w.Name,
		})
	}
	return r
}

func (r *Route) Empty() bool {
	return len(r.Points) == 0
}

func (r *Route) Coordinates() []geo.Coordinate {
	coords := make([]geo.Coordinate, len(r.Points))
	for i, p := range r.Points {
		coords[i] = p.Coordinate
	}
	return coords
}

func (r *Route) Polyline() string {
	return geo.PolylineFromCoords(r.Coordinates())
}

// Ascend sums the positive elevation deltas between samples that carry elevation.
func (r *Route) Ascend() float64 {
	var (
		total float64
		prev  *float64
	)
	for _, p := range r.Points {
		if p.Elevation == nil {
			continue
		}
		if prev != nil && *p.Elevation > *prev {
			total += *p.Elevation - *prev
		}
		prev = p.Elevation
	}
	return total
}

// ToXML re-encodes the route as a GPX 1.1 document.
func (r *Route) ToXML() ([]byte, error) {
	return r.GPX.ToXml(gpx.ToXmlParams{Version: "1.1", Indent: true})
}
