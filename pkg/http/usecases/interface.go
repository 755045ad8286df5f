package usecases

import (
	"context"

	"github.com/lintang-b-s/brouter-client/pkg/brouter"
	"github.com/lintang-b-s/brouter-client/pkg/datastructure"
	"github.com/lintang-b-s/brouter-client/pkg/geo"
)

type RouteEngine interface {
	Route(ctx context.Context, points []geo.Coordinate, profile string, opts ...brouter.RequestOption) (*datastructure.Route, error)
	Alternatives(ctx context.Context, points []geo.Coordinate, profile string, count int, opts ...brouter.RequestOption) ([]brouter.Alternative, error)
	UploadProfile(ctx context.Context, data []byte) (string, error)
	Backend() brouter.Backend
}
