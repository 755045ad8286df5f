package engine

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lintang-b-s/brouter-client/pkg/geo"
)

func geoPoint(lat, lon float64) geo.Coordinate {
	return geo.NewCoordinate(lat, lon)
}

// points reads lat,lon pairs.
func points(latLons ...float64) []geo.Coordinate {
	coords := make([]geo.Coordinate, 0, len(latLons)/2)
	for i := 0; i+1 < len(latLons); i += 2 {
		coords = append(coords, geo.NewCoordinate(latLons[i], latLons[i+1]))
	}
	return coords
}

func newSegmentServer(t *testing.T, files map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := files[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
}
