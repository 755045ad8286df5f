package usecases

import (
	"context"

	"github.com/lintang-b-s/brouter-client/pkg/brouter"
	"github.com/lintang-b-s/brouter-client/pkg/datastructure"
	"github.com/lintang-b-s/brouter-client/pkg/geo"
	"go.uber.org/zap"
)

type RoutingService struct {
	log    *zap.Logger
	engine RouteEngine
}

func NewRoutingService(log *zap.Logger, engine RouteEngine) *RoutingService {
	return &RoutingService{
		log:    log,
		engine: engine,
	}
}

// RouteQuery is the API's view of a routing request.
type RouteQuery struct {
	Points          []geo.Coordinate
	Profile         string
	AlternativeIdx  int
	Nogos           []brouter.Nogo
	ExportWaypoints bool
}

func (q RouteQuery) options() []brouter.RequestOption {
	opts := []brouter.RequestOption{brouter.WithAlternative(q.AlternativeIdx)}
	if len(q.Nogos) > 0 {
		opts = append(opts, brouter.WithNogos(q.Nogos...))
	}
	if q.ExportWaypoints {
		opts = append(opts, brouter.WithExportWaypoints())
	}
	return opts
}

func (rs *RoutingService) Route(ctx context.Context, q RouteQuery) (*datastructure.Route, error) {
	return rs.engine.Route(ctx, q.Points, q.Profile, q.options()...)
}

// AlternativeRoutes plans alternatives 0..k-1; q.AlternativeIdx is ignored.
func (rs *RoutingService) AlternativeRoutes(ctx context.Context, q RouteQuery, k int) ([]brouter.Alternative, error) {
	q.AlternativeIdx = 0
	opts := q.options()[1:]
	alts, err := rs.engine.Alternatives(ctx, q.Points, q.Profile, k, opts...)
	if err != nil {
		return nil, err
	}
	for _, alt := range alts {
		if alt.Err != nil {
			rs.log.Debug("alternative failed", zap.Int("alternativeidx", alt.Index), zap.Error(alt.Err))
		}
	}
	return alts, nil
}

func (rs *RoutingService) UploadProfile(ctx context.Context, data []byte) (string, error) {
	id, err := rs.engine.UploadProfile(ctx, data)
	if err != nil {
		return "", err
	}
	rs.log.Info("custom profile stored", zap.String("profile", id), zap.String("backend", rs.engine.Backend().Name()))
	return id, nil
}
