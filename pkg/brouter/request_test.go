package brouter

import (
	"math"
	"strings"
	"testing"

	"github.com/lintang-b-s/brouter-client/pkg/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateProfile(t *testing.T) {
	pv := NewProfileValidator()
	testCases := []struct {
		profile string
		valid   bool
	}{
		{profile: "trekking", valid: true},
		{profile: "fastbike-lowtraffic", valid: true},
		{profile: "car_eco", valid: true},
		{profile: "custom_1a2b3c4d5e6f7a8b", valid: true},
		{profile: strings.Repeat("a", 128), valid: true},
		{profile: "", valid: false},
		{profile: strings.Repeat("a", 129), valid: false},
		{profile: "../etc/passwd", valid: false},
		{profile: "trekking&format=kml", valid: false},
		{profile: "with space", valid: false},
		{profile: "trekking.brf", valid: false},
		{profile: "héllo", valid: false},
	}

	for _, tc := range testCases {
		t.Run(tc.profile, func(t *testing.T) {
			err := pv.Validate(tc.profile)
			if tc.valid {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidProfile)
			assert.Contains(t, err.Error(), tc.profile)
		})
	}
}

func TestBuild(t *testing.T) {
	b := NewRequestBuilder()
	testCases := []struct {
		name    string
		points  []geo.Coordinate
		profile string
		opts    []RequestOption
		wantErr error
	}{
		{name: "two points", points: []geo.Coordinate{amsterdam, utrecht}, profile: "trekking"},
		{name: "single point", points: []geo.Coordinate{amsterdam}, profile: "trekking", wantErr: ErrInvalidRequest},
		{name: "no points", profile: "trekking", wantErr: ErrInvalidRequest},
		{name: "bad profile", points: []geo.Coordinate{amsterdam, utrecht}, profile: "a/b", wantErr: ErrInvalidProfile},
		{name: "latitude out of range", points: []geo.Coordinate{amsterdam, geo.NewCoordinate(91, 5)}, profile: "trekking", wantErr: ErrInvalidRequest},
		{name: "longitude out of range", points: []geo.Coordinate{amsterdam, geo.NewCoordinate(52, -181)}, profile: "trekking", wantErr: ErrInvalidRequest},
		{name: "nan", points: []geo.Coordinate{amsterdam, geo.NewCoordinate(math.NaN(), 5)}, profile: "trekking", wantErr: ErrInvalidRequest},
		{name: "alternative", points: []geo.Coordinate{amsterdam, utrecht}, profile: "trekking", opts: []RequestOption{WithAlternative(3)}},
		{name: "alternative too high", points: []geo.Coordinate{amsterdam, utrecht}, profile: "trekking", opts: []RequestOption{WithAlternative(4)}, wantErr: ErrInvalidRequest},
		{name: "turn mode too high", points: []geo.Coordinate{amsterdam, utrecht}, profile: "trekking", opts: []RequestOption{WithTurnInstructions(8)}, wantErr: ErrInvalidRequest},
		{name: "unknown format", points: []geo.Coordinate{amsterdam, utrecht}, profile: "trekking", opts: []RequestOption{WithFormat("shp")}, wantErr: ErrInvalidRequest},
		{name: "radius-less nogo", points: []geo.Coordinate{amsterdam, utrecht}, profile: "trekking",
			opts: []RequestOption{WithNogos(NewPointNogo(amsterdam, 0, nil))}, wantErr: ErrInvalidRequest},
		{name: "nan radius nogo", points: []geo.Coordinate{amsterdam, utrecht}, profile: "trekking",
			opts: []RequestOption{WithNogos(NewPointNogo(amsterdam, math.NaN(), nil))}, wantErr: ErrInvalidRequest},
		{name: "infinite radius nogo", points: []geo.Coordinate{amsterdam, utrecht}, profile: "trekking",
			opts: []RequestOption{WithNogos(NewPointNogo(amsterdam, math.Inf(1), nil))}, wantErr: ErrInvalidRequest},
		{name: "nan weight nogo", points: []geo.Coordinate{amsterdam, utrecht}, profile: "trekking",
			opts: []RequestOption{WithNogos(NewPointNogo(amsterdam, 100, ptr(math.NaN())))}, wantErr: ErrInvalidRequest},
		{name: "infinite weight line nogo", points: []geo.Coordinate{amsterdam, utrecht}, profile: "trekking",
			opts: []RequestOption{WithNogos(NewLineNogo([]geo.Coordinate{amsterdam, utrecht}, ptr(math.Inf(-1))))}, wantErr: ErrInvalidRequest},
		{name: "short polygon", points: []geo.Coordinate{amsterdam, utrecht}, profile: "trekking",
			opts: []RequestOption{WithNogos(NewPolygonNogo([]geo.Coordinate{amsterdam, utrecht}, nil))}, wantErr: ErrInvalidRequest},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := b.Build(tc.points, tc.profile, tc.opts...)
			if tc.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tc.wantErr)
				assert.Nil(t, req)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.points, req.Points)
			assert.Equal(t, FormatGPX, req.Format)
		})
	}
}

func TestBuildCopiesPoints(t *testing.T) {
	points := []geo.Coordinate{amsterdam, utrecht}
	req, err := NewRequestBuilder().Build(points, "trekking")
	require.NoError(t, err)

	points[0] = utrecht
	assert.Equal(t, amsterdam, req.Points[0])
}

func TestParams(t *testing.T) {
	weight := 50.0
	req, err := NewRequestBuilder().Build([]geo.Coordinate{amsterdam, utrecht}, "trekking",
		WithAlternative(1),
		WithTurnInstructions(TurnInstructionOsmandStyle),
		WithNogos(
			NewPointNogo(geo.NewCoordinate(52.2, 5.0), 250, nil),
			NewPointNogo(geo.NewCoordinate(52.25, 5.05), 100, &weight),
			NewLineNogo([]geo.Coordinate{geo.NewCoordinate(52.1, 5.0), geo.NewCoordinate(52.15, 5.1)}, nil),
			NewPolygonNogo([]geo.Coordinate{
				geo.NewCoordinate(52.0, 5.0), geo.NewCoordinate(52.0, 5.1), geo.NewCoordinate(52.1, 5.05),
			}, &weight),
		),
		WithExportWaypoints(),
		WithTrackName("to utrecht"),
	)
	require.NoError(t, err)

	assert.Equal(t, []Param{
		{Key: "lonlats", Value: "4.9041,52.3676|5.1214,52.0907"},
		{Key: "profile", Value: "trekking"},
		{Key: "format", Value: "gpx"},
		{Key: "alternativeidx", Value: "1"},
		{Key: "timode", Value: "3"},
		{Key: "polygons", Value: "5,52,5.1,52,5.05,52.1,50"},
		{Key: "nogos", Value: "5,52.2,250|5.05,52.25,100,50"},
		{Key: "polylines", Value: "5,52.1,5.1,52.15"},
		{Key: "exportWaypoints", Value: "1"},
		{Key: "trackname", Value: "to utrecht"},
	}, req.Params())

	q := req.Query()
	assert.Equal(t, "4.9041,52.3676|5.1214,52.0907", q.Get("lonlats"))
	assert.Equal(t, "trekking", q.Get("profile"))
}

func TestParamsMinimal(t *testing.T) {
	req, err := NewRequestBuilder().Build([]geo.Coordinate{amsterdam, utrecht}, "trekking")
	require.NoError(t, err)

	keys := make([]string, 0)
	for _, p := range req.Params() {
		keys = append(keys, p.Key)
	}
	assert.Equal(t, []string{"lonlats", "profile", "format"}, keys)
}

func TestEncodePointsRoundTrip(t *testing.T) {
	testCases := []struct {
		name   string
		points []geo.Coordinate
	}{
		{name: "plain", points: []geo.Coordinate{amsterdam, utrecht}},
		{name: "many decimals", points: []geo.Coordinate{geo.NewCoordinate(0.1+0.2, -179.99999999999997), geo.NewCoordinate(-89.123456789012345, 1e-9)}},
		{name: "extremes", points: []geo.Coordinate{geo.NewCoordinate(90, 180), geo.NewCoordinate(-90, -180)}},
		{name: "three", points: []geo.Coordinate{amsterdam, geo.NewCoordinate(52.2, 5), utrecht}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DecodePoints(EncodePoints(tc.points))
			require.NoError(t, err)
			assert.Equal(t, tc.points, got)
		})
	}
}

func TestDecodePointsErrors(t *testing.T) {
	for _, s := range []string{"4.9", "a,b", "4.9,52|x"} {
		_, err := DecodePoints(s)
		assert.Error(t, err, s)
	}
}

func TestParseNogo(t *testing.T) {
	testCases := []struct {
		in      string
		kind    NogoKind
		points  int
		radius  float64
		weight  *float64
		wantErr bool
	}{
		{in: "point:5.0,52.2,250", kind: NogoPoint, points: 1, radius: 250},
		{in: "point:5.0,52.2,250,10", kind: NogoPoint, points: 1, radius: 250, weight: ptr(10.0)},
		{in: "line:5.0,52.1,5.1,52.15", kind: NogoLine, points: 2},
		{in: "line:5.0,52.1,5.1,52.15,7", kind: NogoLine, points: 2, weight: ptr(7.0)},
		{in: "polygon:5,52,5.1,52,5.05,52.1", kind: NogoPolygon, points: 3},
		{in: "point:5.0,52.2", wantErr: true},
		{in: "circle:5.0,52.2,10", wantErr: true},
		{in: "5.0,52.2,10", wantErr: true},
		{in: "point:a,b,c", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			n, err := ParseNogo(tc.in)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.kind, n.Kind)
			assert.Len(t, n.Points, tc.points)
			assert.Equal(t, tc.radius, n.Radius)
			assert.Equal(t, tc.weight, n.Weight)
		})
	}

	var f NogoFlag
	require.NoError(t, f.Set("point:5.0,52.2,250"))
	require.NoError(t, f.Set("line:5.0,52.1,5.1,52.15"))
	assert.Len(t, f, 2)
	assert.Equal(t, "point:5,52.2,250 line:5,52.1,5.1,52.15", f.String())
}

func ptr(v float64) *float64 {
	return &v
}
