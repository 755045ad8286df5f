package controllers

import (
	"context"

	"github.com/lintang-b-s/brouter-client/pkg/brouter"
	"github.com/lintang-b-s/brouter-client/pkg/datastructure"
	"github.com/lintang-b-s/brouter-client/pkg/http/usecases"
)

type RoutingService interface {
	Route(ctx context.Context, q usecases.RouteQuery) (*datastructure.Route, error)
	AlternativeRoutes(ctx context.Context, q usecases.RouteQuery, k int) ([]brouter.Alternative, error)
	UploadProfile(ctx context.Context, data []byte) (string, error)
}
