package router

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/justinas/alice"
	"github.com/lintang-b-s/brouter-client/pkg/http/router/controllers"
	router_helper "github.com/lintang-b-s/brouter-client/pkg/http/router/routerhelper"
	http_server "github.com/lintang-b-s/brouter-client/pkg/http/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

type API struct {
	log *zap.Logger
}

func NewAPI(log *zap.Logger) *API {
	return &API{log: log}
}

// Handler assembles the routes and the middleware chain.
func (api *API) Handler(config http_server.Config, routingService controllers.RoutingService, gatherer prometheus.Gatherer) http.Handler {
	router := httprouter.New()

	corsHandler := cors.New(cors.Options{ //nolint:gocritic // ignore
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", "X-Request-ID"},
		ExposedHeaders:   []string{"Link", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300, //nolint:mnd // ignore
	})

	if gatherer != nil {
		router.Handler(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	group := router_helper.NewRouteGroup(router, "/api")

	routingRoutes := controllers.New(routingService, api.log)

	routingRoutes.Routes(group)

	mwChain := []alice.Constructor{corsHandler.Handler, api.recoverPanic, RequestID,
		RealIP, Heartbeat("healthz"), Logger(api.log)}
	if config.RateLimit > 0 {
		mwChain = append(mwChain, Limit(config.RateLimit))
	}
	return alice.New(mwChain...).Then(router)
}

func (api *API) Run(
	ctx context.Context,
	config http_server.Config,
	routingService controllers.RoutingService,
	gatherer prometheus.Gatherer,
) error {
	api.log.Info("Run httprouter API")

	srv := http_server.New(ctx, api.Handler(config, routingService, gatherer), config)
	api.log.Info(fmt.Sprintf("API run on port %d", config.Port))

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		api.log.Info("HTTP server stopped", zap.Error(err))
		return err
	case <-ctx.Done():
		api.log.Info("Context canceled, shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.Timeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
