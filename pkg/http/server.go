package http

import (
	"context"

	http_router "github.com/lintang-b-s/brouter-client/pkg/http/router"
	"github.com/lintang-b-s/brouter-client/pkg/http/router/controllers"
	http_server "github.com/lintang-b-s/brouter-client/pkg/http/server"
	"github.com/lintang-b-s/brouter-client/pkg/util"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Server struct {
	Log *zap.Logger
	g   *errgroup.Group
}

func NewServer(log *zap.Logger) *Server {
	return &Server{Log: log}
}

// Use starts the API in the background; Wait returns its exit error.
func (s *Server) Use(
	ctx context.Context,
	cfg util.Config,

	routingService controllers.RoutingService,
	gatherer prometheus.Gatherer,
) *Server {
	config := http_server.Config{
		Port:      cfg.APIPort,
		Timeout:   cfg.APITimeout,
		RateLimit: cfg.RateLimit,
	}

	api := http_router.NewAPI(s.Log)

	g, ctx := errgroup.WithContext(ctx)
	s.g = g

	g.Go(func() error {
		return api.Run(ctx, config, routingService, gatherer)
	})

	return s
}

func (s *Server) Wait() error {
	if s.g == nil {
		return nil
	}
	return s.g.Wait()
}
