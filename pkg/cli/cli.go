// Package cli holds the flag handling and output shared by the broute and
// local-brouter commands.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/lintang-b-s/brouter-client/pkg/brouter"
	"github.com/lintang-b-s/brouter-client/pkg/geo"
	"github.com/lintang-b-s/brouter-client/pkg/util"
	"go.uber.org/zap"
)

type Options struct {
	Profile         string
	Alternative     int
	TrackName       string
	Nogos           brouter.NogoFlag
	ExportWaypoints bool
	TurnMode        int
	Format          string
	Timeout         time.Duration
	Output          string
	Verbose         bool
}

func (o *Options) Register(fs *flag.FlagSet) {
	fs.StringVar(&o.Profile, "profile", "trekking", "routing profile name")
	fs.IntVar(&o.Alternative, "alternative", -1, "alternative route index 0..3")
	fs.StringVar(&o.TrackName, "name", "", "track name written into the GPX")
	fs.Var(&o.Nogos, "nogo", "area to avoid, repeatable: point:lon,lat,radius[,weight] | line:lon,lat,...[,weight] | polygon:lon,lat,...[,weight]")
	fs.BoolVar(&o.ExportWaypoints, "export-waypoints", false, "include waypoints in the output")
	fs.IntVar(&o.TurnMode, "turn-instructions", -1, "turn instruction mode 0..7")
	fs.StringVar(&o.Format, "format", brouter.FormatGPX, "output format: gpx, kml, geojson or csv")
	fs.DurationVar(&o.Timeout, "timeout", 0, "request timeout, replacing the configured TIMEOUT (0 keeps it)")
	fs.StringVar(&o.Output, "o", "", "write the route to this file instead of stdout")
	fs.BoolVar(&o.Verbose, "v", false, "debug logging")
}

func (o *Options) RequestOptions() []brouter.RequestOption {
	opts := []brouter.RequestOption{brouter.WithFormat(o.Format)}
	if o.Alternative >= 0 {
		opts = append(opts, brouter.WithAlternative(o.Alternative))
	}
	if o.TurnMode >= 0 {
		opts = append(opts, brouter.WithTurnInstructions(brouter.TurnInstructionMode(o.TurnMode)))
	}
	if o.TrackName != "" {
		opts = append(opts, brouter.WithTrackName(o.TrackName))
	}
	if len(o.Nogos) > 0 {
		opts = append(opts, brouter.WithNogos(o.Nogos...))
	}
	if o.ExportWaypoints {
		opts = append(opts, brouter.WithExportWaypoints())
	}
	return opts
}

// ApplyConfig lets flags override the matching configuration values, so the
// router and engine limits follow -timeout instead of capping it.
func (o *Options) ApplyConfig(cfg *util.Config) {
	if o.Timeout > 0 {
		cfg.Timeout = o.Timeout
	}
}

// ParsePoints reads positional "lon,lat" arguments.
func ParsePoints(args []string) ([]geo.Coordinate, error) {
	if len(args) < 2 {
		return nil, errors.New("at least two lon,lat points are required")
	}
	points := make([]geo.Coordinate, 0, len(args))
	for _, a := range args {
		p, err := brouter.ParsePoint(a)
		if err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, nil
}

// Run plans one route and writes it to o.Output or stdout. GPX is decoded and
// summarized; other formats are passed through as the engine produced them.
func Run(ctx context.Context, router *brouter.Router, points []geo.Coordinate, o Options, stdout io.Writer, log *zap.Logger) error {
	if o.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.Timeout)
		defer cancel()
	}

	var out []byte
	if o.Format == brouter.FormatGPX {
		route, err := router.Route(ctx, points, o.Profile, o.RequestOptions()...)
		if err != nil {
			return err
		}
		log.Info("route",
			zap.String("backend", router.Backend().Name()),
			zap.Float64("length_km", util.RoundFloat(route.Length/1000, 2)),
			zap.Float64("ascend_m", util.RoundFloat(route.Ascend(), 0)),
			zap.Int("points", len(route.Points)))
		if out, err = route.ToXML(); err != nil {
			return fmt.Errorf("encode gpx: %w", err)
		}
	} else {
		req, err := router.Build(points, o.Profile, o.RequestOptions()...)
		if err != nil {
			return err
		}
		if out, err = router.Fetch(ctx, req); err != nil {
			return err
		}
	}

	if o.Output == "" {
		_, err := stdout.Write(out)
		return err
	}
	return os.WriteFile(o.Output, out, 0o644)
}

// ExitCode maps error kinds to distinct process exit codes.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, util.ErrInvalidRequest), errors.Is(err, util.ErrInvalidProfile):
		return 2
	case errors.Is(err, util.ErrEmptyRoute), errors.Is(err, util.ErrNoRouteFound):
		return 3
	case util.IsTimeout(err):
		return 4
	default:
		return 1
	}
}
