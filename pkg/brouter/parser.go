package brouter

import (
	"bytes"
	"regexp"
	"strconv"

	"github.com/lintang-b-s/brouter-client/pkg/datastructure"
	"github.com/lintang-b-s/brouter-client/pkg/util"
	"github.com/tkrajina/gpxgo/gpx"
)

const excerptLen = 256

// ResponseParser decodes brouter GPX replies. Both backends feed it, the local
// engine prints the same payload the server sends.
type ResponseParser struct {
	missingDataFile *regexp.Regexp
	noTrackFound    *regexp.Regexp
	passTimeout     *regexp.Regexp
	trackLength     *regexp.Regexp
}

func NewResponseParser() *ResponseParser {
	return &ResponseParser{
		missingDataFile: regexp.MustCompile(`datafile (\S+) not found`),
		noTrackFound:    regexp.MustCompile(`no track found at pass=([0-9]+)`),
		passTimeout:     regexp.MustCompile(`pass([0-9]) timeout after ([0-9]+) seconds`),
		trackLength:     regexp.MustCompile(`track-length = ([0-9]+)`),
	}
}

// Parse returns util.ErrMalformedResponse for anything that is not GPX. A GPX
// document without track points parses fine; deciding that it is a failed
// route is the Router's job.
func (p *ResponseParser) Parse(payload []byte) (*datastructure.Route, error) {
	if !bytes.Contains(payload, []byte("<gpx")) {
		if err := p.engineFailure(payload); err != nil {
			return nil, err
		}
		return nil, util.NewErrorf(util.ErrMalformedResponse, "response is not a GPX document: %q",
			util.Excerpt(payload, excerptLen))
	}

	doc, err := gpx.ParseBytes(payload)
	if err != nil {
		return nil, util.WrapErrorf(err, util.ErrMalformedResponse, "decode GPX (%d bytes, starting %q)",
			len(payload), util.Excerpt(payload, excerptLen))
	}

	route := datastructure.NewRoute(doc)
	if m := p.trackLength.FindSubmatch(payload); m != nil {
		if length, err := strconv.ParseFloat(string(m[1]), 64); err == nil {
			route.Length = length
		}
	}
	return route, nil
}

// engineFailure maps the plain text failures brouter reports instead of a track.
func (p *ResponseParser) engineFailure(payload []byte) error {
	if m := p.missingDataFile.FindSubmatch(payload); m != nil {
		return util.NewErrorf(util.ErrMissingDataFile, "missing data file: %s", m[1])
	}
	if m := p.noTrackFound.FindSubmatch(payload); m != nil {
		return util.NewErrorf(util.ErrNoRouteFound, "no route found at pass %s", m[1])
	}
	if m := p.passTimeout.FindSubmatch(payload); m != nil {
		return util.NewErrorf(util.ErrEngineTimeout, "pass %s timeout after %s seconds", m[1], m[2])
	}
	return nil
}
