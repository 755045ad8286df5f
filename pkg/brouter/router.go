package brouter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lintang-b-s/brouter-client/pkg/concurrent"
	"github.com/lintang-b-s/brouter-client/pkg/datastructure"
	"github.com/lintang-b-s/brouter-client/pkg/engine"
	"github.com/lintang-b-s/brouter-client/pkg/geo"
	"github.com/lintang-b-s/brouter-client/pkg/metrics"
	"github.com/lintang-b-s/brouter-client/pkg/util"
	"go.uber.org/zap"
)

const (
	defaultRouteTimeout = 5 * time.Minute
	// brouter computes at most four alternatives (alternativeidx 0..3)
	maxAlternatives = 4
)

// Router plans routes through one Backend chosen at construction. It is safe
// for concurrent use and never retries or falls back to another backend.
type Router struct {
	backend Backend
	builder *RequestBuilder
	parser  *ResponseParser
	timeout time.Duration
	metric  *metrics.Metric
	log     *zap.Logger
}

type RouterOption func(*Router)

// WithTimeout bounds every backend call; zero disables the router's own deadline.
func WithTimeout(d time.Duration) RouterOption {
	return func(r *Router) {
		r.timeout = d
	}
}

func WithMetric(m *metrics.Metric) RouterOption {
	return func(r *Router) {
		r.metric = m
	}
}

func NewRouter(backend Backend, log *zap.Logger, opts ...RouterOption) *Router {
	r := &Router{
		backend: backend,
		builder: NewRequestBuilder(),
		parser:  NewResponseParser(),
		timeout: defaultRouteTimeout,
		log:     log,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewRouterFromConfig builds the backend selected by cfg.Backend.
func NewRouterFromConfig(cfg util.Config, log *zap.Logger, opts ...RouterOption) (*Router, error) {
	var backend Backend
	switch cfg.Backend {
	case util.BackendRemote:
		rb, err := NewRemoteBackend(cfg.RemoteURL, log)
		if err != nil {
			return nil, err
		}
		backend = rb
	case util.BackendLocal:
		e, err := engine.New(engine.Config{
			CacheDir:    cfg.CacheDir,
			Executable:  cfg.EngineExecutable,
			JavaPath:    cfg.JavaPath,
			MainClass:   cfg.EngineMainClass,
			SegmentsDir: cfg.SegmentsDir,
			SegmentsURL: cfg.SegmentsURL,
			Timeout:     cfg.Timeout,
		}, log)
		if err != nil {
			return nil, err
		}
		var src engine.ArchiveSource
		if cfg.BundleArchive != "" {
			src = engine.FileArchive(cfg.BundleArchive)
		}
		var lopts []LocalOption
		if cfg.DownloadSegments {
			lopts = append(lopts, WithSegmentDownload())
		}
		backend = NewLocalBackend(e, src, log, lopts...)
	default:
		return nil, fmt.Errorf("brouter: unknown backend %q", cfg.Backend)
	}

	log.Info("routing backend selected", zap.String("backend", backend.Name()))
	opts = append([]RouterOption{WithTimeout(cfg.Timeout)}, opts...)
	return NewRouter(backend, log, opts...), nil
}

func (r *Router) Backend() Backend {
	return r.backend
}

// Build validates input into a request without executing it.
func (r *Router) Build(points []geo.Coordinate, profile string, opts ...RequestOption) (*RouteRequest, error) {
	return r.builder.Build(points, profile, opts...)
}

// Route builds, fetches and parses one route. A reply without track points is
// util.ErrEmptyRoute.
func (r *Router) Route(ctx context.Context, points []geo.Coordinate, profile string, opts ...RequestOption) (*datastructure.Route, error) {
	start := time.Now()
	route, err := r.route(ctx, points, profile, opts...)
	elapsed := time.Since(start)
	r.metric.Observe(r.backend.Name(), "route", err, elapsed)
	if err != nil {
		r.log.Debug("route failed", zap.String("backend", r.backend.Name()), zap.String("kind", util.KindName(err)), zap.Error(err))
		return nil, err
	}

	r.log.Info("route planned", zap.String("backend", r.backend.Name()), zap.String("profile", profile),
		zap.Int("waypoints", len(points)), zap.Int("track_points", len(route.Points)),
		zap.Float64("length_m", route.Length), zap.Duration("elapsed", elapsed))
	return route, nil
}

func (r *Router) route(ctx context.Context, points []geo.Coordinate, profile string, opts ...RequestOption) (*datastructure.Route, error) {
	req, err := r.builder.Build(points, profile, opts...)
	if err != nil {
		return nil, err
	}
	if req.Format != FormatGPX {
		return nil, util.NewErrorf(util.ErrInvalidRequest, "format %q cannot be parsed into a route, use Fetch for raw output", req.Format)
	}

	payload, err := r.Fetch(ctx, req)
	if err != nil {
		return nil, r.classifyFailure(err)
	}
	route, err := r.parser.Parse(payload)
	if err != nil {
		return nil, err
	}
	if route.Empty() {
		return nil, util.NewErrorf(util.ErrEmptyRoute, "%s backend returned a track without points", r.backend.Name())
	}
	return route, nil
}

// classifyFailure surfaces brouter's own failure text (a missing data file,
// no route) carried in an HTTP error body or the engine's stderr.
func (r *Router) classifyFailure(err error) error {
	var text string
	var statusErr *util.StatusError
	var exitErr *util.ExitError
	switch {
	case errors.As(err, &statusErr):
		text = statusErr.Body
	case errors.As(err, &exitErr):
		text = exitErr.Stderr
	default:
		return err
	}
	failure := r.parser.engineFailure([]byte(text))
	if failure == nil {
		return err
	}
	return util.WrapErrorf(err, util.KindOf(failure), "%s", failure.Error())
}

// Fetch runs a built request and returns the backend's raw reply, in
// whatever format the request asked for.
func (r *Router) Fetch(ctx context.Context, req *RouteRequest) ([]byte, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	return r.backend.Fetch(ctx, req)
}

// Alternative is the outcome of one alternativeidx.
type Alternative struct {
	Index int
	Route *datastructure.Route
	Err   error
}

// Alternatives plans alternativeidx 0..count-1 concurrently. The returned error
// covers invalid input only; per-alternative failures are in Alternative.Err.
func (r *Router) Alternatives(ctx context.Context, points []geo.Coordinate, profile string, count int, opts ...RequestOption) ([]Alternative, error) {
	if count < 1 || count > maxAlternatives {
		return nil, util.NewErrorf(util.ErrInvalidRequest, "alternative count %d outside 1..%d", count, maxAlternatives)
	}
	if _, err := r.builder.Build(points, profile, opts...); err != nil {
		return nil, err
	}

	indexes := make([]int, count)
	for i := range indexes {
		indexes[i] = i
	}
	results := concurrent.Map(ctx, count, indexes, func(ctx context.Context, idx int) (*datastructure.Route, error) {
		altOpts := append(append([]RequestOption(nil), opts...), WithAlternative(idx))
		return r.Route(ctx, points, profile, altOpts...)
	})

	alts := make([]Alternative, len(results))
	for i, res := range results {
		alts[i] = Alternative{Index: indexes[res.Index], Route: res.Value, Err: res.Err}
	}
	return alts, nil
}

// UploadProfile stores a custom profile with the backend and returns the
// profile id to route with.
func (r *Router) UploadProfile(ctx context.Context, data []byte) (string, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	start := time.Now()
	id, err := r.backend.UploadProfile(ctx, data)
	r.metric.Observe(r.backend.Name(), "profile", err, time.Since(start))
	if err != nil {
		return "", err
	}
	if err := r.builder.profiles.Validate(id); err != nil {
		return "", util.WrapErrorf(err, util.ErrMalformedResponse, "backend returned unusable profile id")
	}
	return id, nil
}
