package brouter

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/lintang-b-s/brouter-client/pkg/geo"
	"github.com/lintang-b-s/brouter-client/pkg/util"
)

const (
	FormatGPX     = "gpx"
	FormatKML     = "kml"
	FormatGeoJSON = "geojson"
	FormatCSV     = "csv"

	pointSeparator = "|"
	coordSeparator = ","
)

// TurnInstructionMode selects the flavour of turn instructions embedded in the track.
type TurnInstructionMode int

const (
	TurnInstructionNone TurnInstructionMode = iota
	TurnInstructionAutoChoose
	TurnInstructionLocusStyle
	TurnInstructionOsmandStyle
	TurnInstructionCommentStyle
	TurnInstructionGpsiesStyle
	TurnInstructionOruxStyle
	TurnInstructionLocusOldStyle
)

// RouteRequest is a validated, backend agnostic routing request.
// Build it with RequestBuilder.Build.
type RouteRequest struct {
	Points  []geo.Coordinate `validate:"min=2,dive"`
	Profile string           `validate:"profile"`

	AlternativeIdx      *int                 `validate:"omitempty,min=0,max=3"`
	TurnInstructionMode *TurnInstructionMode `validate:"omitempty,min=0,max=7"`
	Format              string               `validate:"oneof=gpx kml geojson csv"`
	TrackName           string               `validate:"max=256"`
	ExportWaypoints     bool
	Nogos               []Nogo
}

type RequestOption func(*RouteRequest)

func WithAlternative(idx int) RequestOption {
	return func(r *RouteRequest) {
		r.AlternativeIdx = &idx
	}
}

func WithFormat(format string) RequestOption {
	return func(r *RouteRequest) {
		r.Format = format
	}
}

func WithTurnInstructions(mode TurnInstructionMode) RequestOption {
	return func(r *RouteRequest) {
		r.TurnInstructionMode = &mode
	}
}

func WithTrackName(name string) RequestOption {
	return func(r *RouteRequest) {
		r.TrackName = name
	}
}

func WithExportWaypoints() RequestOption {
	return func(r *RouteRequest) {
		r.ExportWaypoints = true
	}
}

func WithNogos(nogos ...Nogo) RequestOption {
	return func(r *RouteRequest) {
		r.Nogos = append(r.Nogos, nogos...)
	}
}

// RequestBuilder validates routing input. It is safe for concurrent use.
type RequestBuilder struct {
	profiles *ProfileValidator
	validate *validator.Validate
}

func NewRequestBuilder() *RequestBuilder {
	pv := NewProfileValidator()
	v := validator.New()
	_ = v.RegisterValidation("profile", func(fl validator.FieldLevel) bool {
		return pv.Valid(fl.Field().String())
	})
	return &RequestBuilder{profiles: pv, validate: v}
}

// Build fails with util.ErrInvalidProfile for a bad profile name and with
// util.ErrInvalidRequest for anything else.
func (b *RequestBuilder) Build(points []geo.Coordinate, profile string, opts ...RequestOption) (*RouteRequest, error) {
	req := &RouteRequest{
		Points:  append([]geo.Coordinate(nil), points...),
		Profile: profile,
		Format:  FormatGPX,
	}
	for _, opt := range opts {
		opt(req)
	}

	if err := b.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, util.WrapErrorf(err, util.ErrInvalidRequest, "invalid route request")
		}
		for _, fe := range verrs {
			if fe.Tag() == "profile" {
				return nil, b.profiles.Validate(profile)
			}
		}
		return nil, util.NewErrorf(util.ErrInvalidRequest, "invalid route request: %s", describeValidation(verrs))
	}

	for i, n := range req.Nogos {
		if err := n.validate(); err != nil {
			return nil, util.WrapErrorf(err, util.ErrInvalidRequest, "invalid route request: nogo %d", i)
		}
	}
	return req, nil
}

func describeValidation(verrs validator.ValidationErrors) string {
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s (got %v)", fe.Namespace(), fe.Tag(), fe.Param(), fe.Value()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

// Param is one request parameter. Order is significant for the local engine's argument list.
type Param struct {
	Key   string
	Value string
}

// Params is the backend agnostic parameter set: the remote backend turns it
// into a query string, the local backend into command line arguments.
func (r *RouteRequest) Params() []Param {
	params := []Param{
		{Key: "lonlats", Value: EncodePoints(r.Points)},
		{Key: "profile", Value: r.Profile},
		{Key: "format", Value: r.Format},
	}
	if r.AlternativeIdx != nil {
		params = append(params, Param{Key: "alternativeidx", Value: strconv.Itoa(*r.AlternativeIdx)})
	}
	if r.TurnInstructionMode != nil {
		params = append(params, Param{Key: "timode", Value: strconv.Itoa(int(*r.TurnInstructionMode))})
	}
	for _, kind := range []struct {
		key  string
		kind NogoKind
	}{{"polygons", NogoPolygon}, {"nogos", NogoPoint}, {"polylines", NogoLine}} {
		if v := encodeNogos(r.Nogos, kind.kind); v != "" {
			params = append(params, Param{Key: kind.key, Value: v})
		}
	}
	if r.ExportWaypoints {
		params = append(params, Param{Key: "exportWaypoints", Value: "1"})
	}
	if r.TrackName != "" {
		params = append(params, Param{Key: "trackname", Value: r.TrackName})
	}
	return params
}

func (r *RouteRequest) Query() url.Values {
	q := url.Values{}
	for _, p := range r.Params() {
		q.Add(p.Key, p.Value)
	}
	return q
}

// EncodePoints renders points as "lon,lat|lon,lat|..." with the shortest
// decimal form that parses back to the identical float64.
func EncodePoints(points []geo.Coordinate) string {
	parts := make([]string, len(points))
	for i, p := range points {
		parts[i] = util.FormatFloat(p.Lon) + coordSeparator + util.FormatFloat(p.Lat)
	}
	return strings.Join(parts, pointSeparator)
}

func DecodePoints(s string) ([]geo.Coordinate, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, pointSeparator)
	points := make([]geo.Coordinate, 0, len(parts))
	for i, part := range parts {
		p, err := ParsePoint(part)
		if err != nil {
			return nil, fmt.Errorf("point %d: %w", i, err)
		}
		points = append(points, p)
	}
	return points, nil
}

// ParsePoint reads one "lon,lat" pair.
func ParsePoint(s string) (geo.Coordinate, error) {
	lonS, latS, ok := strings.Cut(s, coordSeparator)
	if !ok {
		return geo.Coordinate{}, fmt.Errorf("%q is not a lon,lat pair", s)
	}
	lon, err := util.StringToFloat64(lonS)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("longitude of %q: %w", s, err)
	}
	lat, err := util.StringToFloat64(latS)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("latitude of %q: %w", s, err)
	}
	return geo.NewCoordinate(lat, lon), nil
}
