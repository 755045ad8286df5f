package brouter

import (
	"context"

	"github.com/lintang-b-s/brouter-client/pkg/engine"
	"github.com/lintang-b-s/brouter-client/pkg/util"
	"go.uber.org/zap"
)

// LocalBackend runs the brouter engine bundled in an archive, extracting it
// into the engine's cache on first use.
type LocalBackend struct {
	engine           *engine.Engine
	source           engine.ArchiveSource
	downloadSegments bool
	log              *zap.Logger
}

type LocalOption func(*LocalBackend)

// WithSegmentDownload fetches missing routing data tiles before each request.
func WithSegmentDownload() LocalOption {
	return func(b *LocalBackend) {
		b.downloadSegments = true
	}
}

func NewLocalBackend(e *engine.Engine, source engine.ArchiveSource, log *zap.Logger, opts ...LocalOption) *LocalBackend {
	b := &LocalBackend{engine: e, source: source, log: log}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *LocalBackend) Name() string {
	return "local"
}

func (b *LocalBackend) Engine() *engine.Engine {
	return b.engine
}

// Acquire extracts the bundle ahead of the first request.
func (b *LocalBackend) Acquire(ctx context.Context) (engine.Bundle, error) {
	bundle, err := b.engine.Acquire(ctx, b.source)
	if err == nil && bundle.Extracted {
		b.log.Info("engine bundle extracted", zap.String("dir", bundle.Dir))
	}
	return bundle, err
}

// Fetch acquires the bundle if needed and runs one engine invocation with
// every request parameter passed as a -key value pair, in Params order.
func (b *LocalBackend) Fetch(ctx context.Context, req *RouteRequest) ([]byte, error) {
	if _, err := b.Acquire(ctx); err != nil {
		return nil, err
	}

	if b.downloadSegments {
		if err := b.ensureSegments(ctx, req); err != nil {
			return nil, err
		}
	}

	params := req.Params()
	args := make([]string, 0, 2*len(params))
	for _, p := range params {
		args = append(args, "-"+p.Key, p.Value)
	}
	return b.engine.Invoke(ctx, args)
}

func (b *LocalBackend) ensureSegments(ctx context.Context, req *RouteRequest) error {
	missing := b.engine.MissingSegments(engine.RequiredSegments(req.Points))
	for _, name := range missing {
		if err := b.engine.DownloadSegment(ctx, name); err != nil {
			if ctx.Err() != nil {
				return util.WrapErrorf(err, util.ErrLocalEngineTimeout, "download segment %s", name)
			}
			return util.WrapErrorf(err, util.ErrLocalEngineUnavailable, "download segment %s", name)
		}
	}
	return nil
}

// UploadProfile stores the profile in the engine's custom profile directory.
func (b *LocalBackend) UploadProfile(ctx context.Context, data []byte) (string, error) {
	if _, err := b.Acquire(ctx); err != nil {
		return "", err
	}
	id, err := b.engine.StoreCustomProfile(data)
	if err != nil {
		return "", util.WrapErrorf(err, util.ErrProfileUpload, "store custom profile")
	}
	return id, nil
}
